package echoweb

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/apps/workspace"
	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/profile"
	"github.com/trezcool/masomo-console/core/session"
	"github.com/trezcool/masomo-console/core/table"
)

const (
	contextWorkspaceKey = "workspace"
	contextScreenKey    = "screen"
	fileParam           = "file"
	allLabel            = "Tous"
)

type (
	filterInput struct {
		Key      string
		Label    string
		Options  []table.Option
		Selected string
	}

	formInput struct {
		Field   table.FormField
		Value   string
		Checked bool
		Error   string
	}

	modalContent struct {
		Mode   string
		ID     string
		Inputs []formInput
		Error  string
	}

	tableContent struct {
		View       table.View
		Search     string
		Ordering   string
		Filters    []filterInput
		Modal      *modalContent
		Report     *table.ImportReport
		Printable  bool
		Importable bool
		Exportable bool
		ExportCSV  template.URL
		ExportXLSX template.URL
	}

	detailContent struct {
		Resource  string
		Card      profile.Card
		Printable bool
	}

	dashboardItem struct {
		Name  string `json:"name"`
		Title string `json:"title"`
		Total int    `json:"total"`
		Error string `json:"error,omitempty"`
	}
)

func registerResourceRoutes(g *echo.Group, s *server) {
	g.GET("", s.list)
	g.POST("", s.create)
	g.POST("/import", s.importRows)
	g.GET("/export", s.export)
	g.GET("/:id", s.detail)
	g.PUT("/:id", s.update)
	g.DELETE("/:id", s.destroy)
	g.GET("/:id/pdf", s.pdf)
}

// screenMiddleware resolves the page of the :resource parameter in the session's workspace.
func (s *server) screenMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		sess, ok := getContextSession(ctx)
		if !ok {
			return errUnauthorized
		}
		ws := s.workspaces.get(sess)
		scr, err := ws.Screen(ctx.Param("resource"))
		if err != nil {
			return err
		}
		ctx.Set(contextWorkspaceKey, ws)
		ctx.Set(contextScreenKey, scr)
		return next(ctx)
	}
}

func getContextScreen(ctx echo.Context) (*workspace.Workspace, workspace.Screen, error) {
	ws, ok := ctx.Get(contextWorkspaceKey).(*workspace.Workspace)
	if !ok {
		return nil, nil, errors.New("workspace not found in echo.Context")
	}
	scr, ok := ctx.Get(contextScreenKey).(workspace.Screen)
	if !ok {
		return nil, nil, errors.New("screen not found in echo.Context")
	}
	return ws, scr, nil
}

func (s *server) layout(ctx echo.Context, ws *workspace.Workspace, title, active string, content interface{}) layout {
	sess, _ := getContextSession(ctx)
	return newLayout(s.Conf.AppName, title, sess, ws, active, content)
}

// renderTable renders the page of scr, with its form when one is open.
func (s *server) renderTable(ctx echo.Context, ws *workspace.Workspace, scr workspace.Screen, code int, q table.Query, report *table.ImportReport) error {
	reqCtx := ctx.Request().Context()
	view, err := scr.View(reqCtx, q)
	if err != nil {
		return err
	}

	content := tableContent{
		View:       view,
		Search:     q.Search,
		Report:     report,
		Printable:  scr.Printable(),
		Importable: scr.Importable(),
		Exportable: scr.Exportable(),
	}
	if len(q.Orderings) > 0 {
		content.Ordering = ctx.QueryParam(orderingParam)
	}
	if content.Exportable {
		content.ExportCSV = exportURL(scr.Name(), table.CSV, q, content.Ordering)
		content.ExportXLSX = exportURL(scr.Name(), table.XLSX, q, content.Ordering)
	}
	for _, f := range scr.Filters() {
		content.Filters = append(content.Filters, filterInput{
			Key:      f.Key,
			Label:    f.Label,
			Options:  f.WithAll(allLabel),
			Selected: q.Filters[f.Key],
		})
	}
	if modal := scr.Modal(); modal.Open {
		content.Modal = newModalContent(modal, scr.Form(reqCtx))
	}
	return ctx.Render(code, "table", s.layout(ctx, ws, scr.Title(), scr.Name(), content))
}

func newModalContent(modal workspace.ModalState, fields []table.FormField) *modalContent {
	mc := &modalContent{Mode: modal.Mode, ID: modal.ID}

	var fldErrs map[string]string
	if modal.Err != nil {
		var vErr *core.ValidationError
		if errors.As(modal.Err, &vErr) && len(vErr.Fields) > 0 {
			fldErrs = vErr.FieldMap()
		} else {
			mc.Error = modal.Err.Error()
		}
	}
	for _, fld := range fields {
		val := fld.Value(modal.Value)
		mc.Inputs = append(mc.Inputs, formInput{
			Field:   fld,
			Value:   val,
			Checked: val == "true",
			Error:   fldErrs[fld.Name],
		})
	}
	return mc
}

// exportURL links to the export of the rows currently displayed.
func exportURL(name string, format table.Format, q table.Query, ordering string) template.URL {
	vals := url.Values{formatParam: {string(format)}}
	if q.Search != "" {
		vals.Set(searchParam, q.Search)
	}
	if ordering != "" {
		vals.Set(orderingParam, ordering)
	}
	for k, v := range q.Filters {
		vals.Set(k, v)
	}
	return template.URL("/" + url.PathEscape(name) + "/export?" + vals.Encode())
}

// respondAction answers a successful action: JSON clients get the pending toasts,
// HTML clients go back to the page.
func respondAction(ctx echo.Context, ws *workspace.Workspace, scr workspace.Screen, code int) error {
	if wantsJSON(ctx) {
		return ctx.JSON(code, echo.Map{"toasts": ws.Toasts.Drain()})
	}
	return ctx.Redirect(http.StatusSeeOther, "/"+scr.Name())
}

// failAction answers a failed form action. HTML clients get the page back with the form
// still open; unexpected errors go to the error handler.
func (s *server) failAction(ctx echo.Context, ws *workspace.Workspace, scr workspace.Screen, err error) error {
	code, _ := httpError(err, s.Translator)
	if wantsJSON(ctx) || code == 0 || code == http.StatusUnauthorized {
		return err
	}
	return s.renderTable(ctx, ws, scr, code, table.Query{}, nil)
}

// Handlers

func (s *server) dashboard(ctx echo.Context) error {
	sess, _ := getContextSession(ctx)
	ws := s.workspaces.get(sess)

	items := make([]dashboardItem, 0, len(ws.Screens()))
	for _, scr := range ws.Screens() {
		item := dashboardItem{Name: scr.Name(), Title: scr.Title()}
		if view, err := scr.View(ctx.Request().Context(), table.Query{}); err != nil {
			item.Error = err.Error()
		} else {
			item.Total = view.Total
		}
		items = append(items, item)
	}

	if wantsJSON(ctx) {
		return ctx.JSON(http.StatusOK, echo.Map{"user": sess.User, "resources": items, "toasts": ws.Toasts.Drain()})
	}
	return ctx.Render(http.StatusOK, "dashboard", s.layout(ctx, ws, "Tableau de bord", "", items))
}

func (s *server) list(ctx echo.Context) error {
	ws, scr, err := getContextScreen(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	q := bindQuery(ctx, scr.Filters())

	if wantsJSON(ctx) {
		view, err := scr.View(reqCtx, q)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, echo.Map{"view": view, "form": scr.Form(reqCtx), "toasts": ws.Toasts.Drain()})
	}

	switch {
	case ctx.QueryParam("add") != "":
		scr.OpenAdd(reqCtx)
	case ctx.QueryParam("edit") != "":
		if err := scr.OpenEdit(reqCtx, ctx.QueryParam("edit")); err != nil {
			return err
		}
	default:
		scr.Cancel()
	}
	return s.renderTable(ctx, ws, scr, http.StatusOK, q, nil)
}

func (s *server) create(ctx echo.Context) error {
	ws, scr, err := getContextScreen(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	if err := scr.Add(reqCtx, newDecoder(ctx, scr.Form(reqCtx))); err != nil {
		return s.failAction(ctx, ws, scr, err)
	}
	return respondAction(ctx, ws, scr, http.StatusCreated)
}

func (s *server) update(ctx echo.Context) error {
	ws, scr, err := getContextScreen(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	if err := scr.Edit(reqCtx, ctx.Param("id"), newDecoder(ctx, scr.Form(reqCtx))); err != nil {
		return s.failAction(ctx, ws, scr, err)
	}
	return respondAction(ctx, ws, scr, http.StatusOK)
}

func (s *server) destroy(ctx echo.Context) error {
	ws, scr, err := getContextScreen(ctx)
	if err != nil {
		return err
	}
	if err := scr.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return respondAction(ctx, ws, scr, http.StatusOK)
}

func (s *server) detail(ctx echo.Context) error {
	ws, scr, err := getContextScreen(ctx)
	if err != nil {
		return err
	}
	card, err := scr.Card(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	if wantsJSON(ctx) {
		return ctx.JSON(http.StatusOK, echo.Map{"card": card, "toasts": ws.Toasts.Drain()})
	}
	content := detailContent{Resource: scr.Name(), Card: card, Printable: scr.Printable()}
	return ctx.Render(http.StatusOK, "detail", s.layout(ctx, ws, card.Title, scr.Name(), content))
}

// pdf sends the card of a student or professor as a PDF badge.
func (s *server) pdf(ctx echo.Context) error {
	_, scr, err := getContextScreen(ctx)
	if err != nil {
		return err
	}
	if !scr.Printable() {
		return errHttpNotFound
	}
	id := ctx.Param("id")
	card, err := scr.Card(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	badge, err := s.Badger.Issue(id)
	if err != nil {
		return errors.Wrap(err, "issuing badge")
	}

	var buf bytes.Buffer
	if err := s.Exporter.PDF(&buf, card, badge); err != nil {
		return errors.Wrap(err, "rendering pdf")
	}
	sess, _ := session.FromContext(ctx.Request().Context())
	s.Logger.Info(fmt.Sprintf("badge issued for %s %s", scr.Name(), id), sess.User)

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s-%s.pdf"`, scr.Name(), id))
	return ctx.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}

func (s *server) importRows(ctx echo.Context) error {
	ws, scr, err := getContextScreen(ctx)
	if err != nil {
		return err
	}
	fh, err := ctx.FormFile(fileParam)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: fileParam, Error: "a file is required"})
	}
	name := ctx.FormValue(formatParam)
	if name == "" {
		name = fh.Filename
	}
	format, err := table.ParseFormat(name)
	if err != nil {
		return err
	}

	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening upload")
	}
	defer f.Close()

	report, err := scr.Import(ctx.Request().Context(), f, format)
	if err != nil {
		return err
	}
	if wantsJSON(ctx) {
		return ctx.JSON(http.StatusOK, echo.Map{"report": report, "toasts": ws.Toasts.Drain()})
	}
	return s.renderTable(ctx, ws, scr, http.StatusOK, table.Query{}, &report)
}

func (s *server) export(ctx echo.Context) error {
	_, scr, err := getContextScreen(ctx)
	if err != nil {
		return err
	}
	format, err := bindFormat(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	filename, err := scr.Export(ctx.Request().Context(), &buf, bindQuery(ctx, scr.Filters()), format)
	if err != nil {
		return err
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return ctx.Blob(http.StatusOK, format.ContentType(), buf.Bytes())
}
