package workspace_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-console/apps/workspace"
	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/page"
	"github.com/trezcool/masomo-console/core/school"
	"github.com/trezcool/masomo-console/core/table"
	"github.com/trezcool/masomo-console/services/logger"
	"github.com/trezcool/masomo-console/services/restapi"
	"github.com/trezcool/masomo-console/tests"
)

const seed = `{
	"formations": [{"id": 1, "nom": "Informatique", "active": true}],
	"etudiants": [{"id": 1, "matricule": "S001", "nom": "Kabila", "prenom": "Aline", "formation": {"id": 1}}]
}`

func newWorkspace(client *restapi.Client) *workspace.Workspace {
	translator := core.NewTranslator()
	v := school.NewValidator(core.NewValidator(translator), translator)
	return workspace.New(client, v, logsvc.NewLoggerMock())
}

func jsonDecoder(body string) workspace.Decoder {
	return func(v interface{}) error { return json.Unmarshal([]byte(body), v) }
}

func TestWorkspace_Screen(t *testing.T) {
	backend := testutil.StartBackend(t)
	ws := newWorkspace(backend.Client)

	names := make([]string, 0, len(ws.Screens()))
	for _, scr := range ws.Screens() {
		names = append(names, scr.Name())
	}
	assert.Equal(t, school.Resources, names)

	scr, err := ws.Screen(school.ResourceProfesseurs)
	require.NoError(t, err)
	assert.True(t, scr.Printable())

	_, err = ws.Screen("cours")
	assert.True(t, errors.Is(err, workspace.ErrUnknownResource))
}

func TestWorkspace_uniqueMatricule(t *testing.T) {
	backend := testutil.StartBackend(t, seed)
	ctx := backend.Login(t)
	students, err := newWorkspace(backend.Client).Screen(school.ResourceEtudiants)
	require.NoError(t, err)

	require.NoError(t, students.Add(ctx, jsonDecoder(`{"matricule": "S002", "nom": "Ngoy", "prenom": "Ali"}`)))
	err = students.Add(ctx, jsonDecoder(`{"matricule": "S002", "nom": "Ilunga", "prenom": "Bea"}`))
	assert.True(t, errors.Is(err, table.ErrDuplicateValue))

	list, err := backend.Client.Etudiants().List(ctx)
	require.NoError(t, err)
	count := 0
	for _, s := range list {
		if s.Matricule == "S002" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestWorkspace_formationsUnavailable(t *testing.T) {
	backend := testutil.StartBackend(t, seed)
	ctx := backend.Login(t)
	ws := newWorkspace(backend.FailingClient(t, "/formations", http.StatusServiceUnavailable))
	students, err := ws.Screen(school.ResourceEtudiants)
	require.NoError(t, err)
	cause := "Étudiants : formations indisponibles (formations down)"

	// the list still shows, with a warning
	view, err := students.View(ctx, table.Query{})
	require.NoError(t, err)
	assert.Equal(t, 1, view.Total)
	assert.Equal(t, []page.Toast{{Level: page.LevelWarning, Message: cause}}, ws.Toasts.Drain())

	// changes are refused with the real cause, not as unknown formations
	err = students.Add(ctx, jsonDecoder(`{"matricule": "S002", "nom": "Ngoy", "prenom": "Ali", "formation": 1}`))
	var depErr *workspace.DependencyError
	require.True(t, errors.As(err, &depErr))
	assert.Equal(t, school.ResourceFormations, depErr.Resource)
	assert.Equal(t, http.StatusServiceUnavailable, restapi.StatusCode(err))
	assert.Equal(t, []page.Toast{{Level: page.LevelError, Message: cause}}, ws.Toasts.Drain())
	assert.True(t, students.Modal().Open, "the form keeps its state")

	_, err = students.Import(ctx, strings.NewReader("Matricule,Nom,Prénom\nS003,Ilunga,Bea\n"), table.CSV)
	assert.True(t, errors.As(err, &depErr))

	list, err := backend.Client.Etudiants().List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
