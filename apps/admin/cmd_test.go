package main

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-console/apps"
	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/session"
	"github.com/trezcool/masomo-console/services/restapi"
	"github.com/trezcool/masomo-console/tests"
)

const seed = `{
	"formations": [{"id": 1, "nom": "Informatique", "active": true}],
	"etudiants": [
		{"id": 1, "matricule": "S001", "nom": "Kabila", "prenom": "Aline", "formation": {"id": 1}},
		{"id": 2, "matricule": "S002", "nom": "Mwamba", "prenom": "Paul"}
	]
}`

func setup(t *testing.T) (*commandLine, *testutil.Backend, *bytes.Buffer) {
	backend := testutil.StartBackend(t, seed)
	translator := core.NewTranslator()
	var out bytes.Buffer

	// start CLI
	cli := &commandLine{
		client:     backend.Client,
		logger:     backend.Logger,
		validate:   core.NewValidator(translator),
		translator: translator,
		out:        &out,
	}
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(testutil.AdminPassword), nil
	}
	return cli, backend, &out
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr error
}

func Test_commandLine_args(t *testing.T) {
	cli, _, _ := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"list"}, wantErr: errHelp},
		{name: "no resource", args: []string{"list", "-username", "admin"}, wantErr: errHelp},
		{name: "import without file", args: []string{"import", "-username", "admin", "-resource", "etudiants"}, wantErr: errHelp},
		{name: "export without file", args: []string{"export", "-username", "admin", "-resource", "etudiants"}, wantErr: errHelp},
		{name: "help flag", args: []string{"list", "-h"}, wantErr: errHelp},
		{name: "no password", args: []string{"list", "-username", "admin", "-resource", "etudiants"}, pwd: "-", wantErr: errHelp},
		{name: "wrong password", args: []string{"list", "-username", "admin", "-resource", "etudiants"}, pwd: "nope", wantErr: session.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			switch tt.pwd {
			case "":
				readPasswordFunc = func(int) ([]byte, error) { return []byte(testutil.AdminPassword), nil }
			case "-":
				readPasswordFunc = func(int) ([]byte, error) { return nil, nil }
			default:
				pwd := tt.pwd
				readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
			}

			err := cli.run(args)
			if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	t.Run("unknown resource", func(t *testing.T) {
		readPasswordFunc = func(int) ([]byte, error) { return []byte(testutil.AdminPassword), nil }
		err := cli.run([]string{"admin", "list", "-username", "admin", "-resource", "cours"})
		var argErr *apps.ArgumentError
		require.True(t, errors.As(err, &argErr))
		assert.Equal(t, "resource", argErr.Flag)
	})
}

func Test_commandLine_list(t *testing.T) {
	cli, _, out := setup(t)

	require.NoError(t, cli.run([]string{"admin", "list", "-username", "admin", "-resource", "etudiants"}))
	assert.Contains(t, out.String(), "Matricule")
	assert.Contains(t, out.String(), "Kabila")
	assert.Contains(t, out.String(), "Informatique")
	assert.Contains(t, out.String(), "Étudiants : 2 / 2")

	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "list", "-username", "admin", "-resource", "etudiants", "-q", "mwamba"}))
	assert.NotContains(t, out.String(), "Kabila")
	assert.Contains(t, out.String(), "Étudiants : 1 / 2")
}

func Test_commandLine_import(t *testing.T) {
	cli, backend, out := setup(t)
	dir := t.TempDir()

	good := filepath.Join(dir, "etudiants.csv")
	require.NoError(t, os.WriteFile(good, []byte("Matricule,Nom,Prénom\nS010,Ngoy,Ali\n"), 0o600))
	require.NoError(t, cli.run([]string{"admin", "import", "-username", "admin", "-resource", "etudiants", "-file", good}))
	assert.Contains(t, out.String(), "1 ligne(s) importée(s)")

	out.Reset()
	partial := filepath.Join(dir, "partial.txt")
	require.NoError(t, os.WriteFile(partial, []byte("Matricule,Nom,Prénom\nS011,Ilunga,Bea\nS012,,Eli\n"), 0o600))
	err := cli.run([]string{"admin", "import", "-username", "admin", "-resource", "etudiants", "-file", partial, "-format", "csv"})
	assert.Equal(t, errPartialImport, err)
	assert.Contains(t, out.String(), "line 2")

	items, err := backend.Client.Etudiants().List(backend.Login(t))
	require.NoError(t, err)
	assert.Len(t, items, 4)

	err = cli.run([]string{"admin", "import", "-username", "admin", "-resource", "etudiants", "-file", partial})
	var argErr *apps.ArgumentError
	require.True(t, errors.As(err, &argErr))
	assert.Equal(t, "format", argErr.Flag)

	err = cli.run([]string{"admin", "import", "-username", "admin", "-resource", "etudiants", "-file", filepath.Join(dir, "missing.csv")})
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}

func Test_commandLine_export(t *testing.T) {
	cli, _, out := setup(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "etudiants.csv")
	require.NoError(t, cli.run([]string{"admin", "export", "-username", "admin", "-resource", "etudiants", "-out", path, "-q", "kabila"}))
	assert.Contains(t, out.String(), "écrit dans")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Matricule")
	assert.Contains(t, string(data), "S001")
	assert.NotContains(t, string(data), "S002")

	xlsx := filepath.Join(dir, "etudiants.xlsx")
	require.NoError(t, cli.run([]string{"admin", "export", "-username", "admin", "-resource", "etudiants", "-out", xlsx}))
	data, err = os.ReadFile(xlsx)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))
}

func Test_commandLine_exportFailure(t *testing.T) {
	cli, backend, _ := setup(t)
	cli.client = backend.FailingClient(t, "/etudiants", http.StatusServiceUnavailable)

	path := filepath.Join(t.TempDir(), "etudiants.csv")
	err := cli.run([]string{"admin", "export", "-username", "admin", "-resource", "etudiants", "-out", path})
	assert.Equal(t, http.StatusServiceUnavailable, restapi.StatusCode(err))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no partial file is left behind")
}
