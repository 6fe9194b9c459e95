package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/trezcool/masomo-console/apps"
	"github.com/trezcool/masomo-console/apps/workspace"
	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/school"
	"github.com/trezcool/masomo-console/core/session"
	"github.com/trezcool/masomo-console/core/table"
	"github.com/trezcool/masomo-console/services/restapi"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp          = errors.New("help provided")
	errPartialImport = errors.New("some rows were not imported")
)

type commandLine struct {
	client     *restapi.Client
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  list -username USERNAME -resource RESOURCE [-q SEARCH] - print the rows of a resource")
	fmt.Fprintln(cli.out, "  import -username USERNAME -resource RESOURCE -file FILE [-format csv|xlsx] - add the rows of a file")
	fmt.Fprintln(cli.out, "  export -username USERNAME -resource RESOURCE -out FILE [-format csv|xlsx] [-q SEARCH] - write the rows to a file")
	fmt.Fprintf(cli.out, "Resources: %s\n", strings.Join(school.Resources, ", "))
}

// commonFlags are the flags every command takes.
type commonFlags struct {
	username *string
	resource *string
}

func (cli *commandLine) newFlagSet(name string) (*flag.FlagSet, commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs, commonFlags{
		username: fs.String("username", "", "The backend account. The password will be prompted next."),
		resource: fs.String("resource", "", "The resource to work on, e.g. etudiants."),
	}
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	listCmd, listFlags := cli.newFlagSet("list")
	listSearch := listCmd.String("q", "", "Only print the rows matching this search.")

	importCmd, importFlags := cli.newFlagSet("import")
	importFile := importCmd.String("file", "", "The csv or xlsx file to import.")
	importFormat := importCmd.String("format", "", "The file format; guessed from the file extension by default.")

	exportCmd, exportFlags := cli.newFlagSet("export")
	exportFile := exportCmd.String("out", "", "The file to write.")
	exportFormat := exportCmd.String("format", "", "The file format; guessed from the file extension by default.")
	exportSearch := exportCmd.String("q", "", "Only export the rows matching this search.")

	var (
		fs     *flag.FlagSet
		common commonFlags
	)
	switch args[1] {
	case "list":
		fs, common = listCmd, listFlags
	case "import":
		fs, common = importCmd, importFlags
	case "export":
		fs, common = exportCmd, exportFlags
	default:
		cli.printUsage()
		return errHelp
	}

	if err := fs.Parse(args[2:]); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	if *common.username == "" || *common.resource == "" {
		fs.Usage()
		return errHelp
	}
	if fs == importCmd && *importFile == "" || fs == exportCmd && *exportFile == "" {
		fs.Usage()
		return errHelp
	}

	ws := workspace.New(cli.client, school.NewValidator(cli.validate, cli.translator), cli.logger)
	scr, err := ws.Screen(*common.resource)
	if err != nil {
		return apps.NewArgumentError("resource", err.Error())
	}
	ctx, err := cli.login(*common.username)
	if err != nil {
		return err
	}
	defer cli.printToasts(ws)

	switch fs {
	case listCmd:
		return cli.list(ctx, scr, *listSearch)
	case importCmd:
		format, err := fileFormat(*importFormat, *importFile)
		if err != nil {
			return err
		}
		return cli.importFile(ctx, scr, *importFile, format)
	default:
		format, err := fileFormat(*exportFormat, *exportFile)
		if err != nil {
			return err
		}
		return cli.exportFile(ctx, scr, *exportFile, format, *exportSearch)
	}
}

// login prompts for the password of username and returns a context carrying the session.
func (cli *commandLine) login(username string) (context.Context, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return nil, err
	}
	if len(pwd) == 0 {
		return nil, errHelp
	}

	ctx := context.Background()
	usr, token, err := cli.client.Login(ctx, username, string(pwd))
	if err != nil {
		return nil, err
	}
	return session.NewContext(ctx, session.Session{User: usr, Token: token}), nil
}

func fileFormat(format, filename string) (table.Format, error) {
	name := format
	if name == "" {
		name = filepath.Ext(filename)
	}
	f, err := table.ParseFormat(name)
	if err != nil {
		return "", apps.NewArgumentError("format", err.Error())
	}
	return f, nil
}

func (cli *commandLine) list(ctx context.Context, scr workspace.Screen, search string) error {
	view, err := scr.View(ctx, table.Query{Search: search})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	titles := make([]string, 0, len(view.Headers)+1)
	titles = append(titles, "ID")
	for _, h := range view.Headers {
		titles = append(titles, h.Title)
	}
	fmt.Fprintln(tw, strings.Join(titles, "\t"))
	for _, row := range view.Rows {
		fmt.Fprintln(tw, row.ID+"\t"+strings.Join(row.Cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s : %d / %d\n", scr.Title(), view.Shown, view.Total)
	return nil
}

func (cli *commandLine) importFile(ctx context.Context, scr workspace.Screen, path string, format table.Format) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	report, err := scr.Import(ctx, f, format)
	if err != nil {
		return err
	}
	for _, rowErr := range report.Errors {
		fmt.Fprintln(cli.out, rowErr.Error())
	}
	if !report.OK() {
		return errPartialImport
	}
	return nil
}

func (cli *commandLine) exportFile(ctx context.Context, scr workspace.Screen, path string, format table.Format, search string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err = scr.Export(ctx, f, table.Query{Search: search}, format); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s : écrit dans %s\n", scr.Title(), path)
	return nil
}

func (cli *commandLine) printToasts(ws *workspace.Workspace) {
	for _, t := range ws.Toasts.Drain() {
		fmt.Fprintf(cli.out, "[%s] %s\n", t.Level, t.Message)
	}
}
