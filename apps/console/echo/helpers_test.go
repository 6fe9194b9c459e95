package echoweb

import (
	"html/template"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/masomo-console/apps/workspace"
	"github.com/trezcool/masomo-console/core/session"
	"github.com/trezcool/masomo-console/core/table"
)

func TestSafeNext(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{next: "", want: "/"},
		{next: "/etudiants?q=a", want: "/etudiants?q=a"},
		{next: "https://evil.example", want: "/"},
		{next: "//evil.example", want: "/"},
		{next: `/\evil.example`, want: "/"},
	}
	for _, tt := range tests {
		t.Run(tt.next, func(t *testing.T) {
			assert.Equal(t, tt.want, safeNext(tt.next))
		})
	}
}

func TestExportURL(t *testing.T) {
	q := table.Query{Search: "ka la", Filters: map[string]string{"niveau": "L1"}}
	got := exportURL("etudiants", table.XLSX, q, "-nom")
	assert.Equal(t, template.URL("/etudiants/export?format=xlsx&niveau=L1&ordering=-nom&q=ka+la"), got)

	assert.Equal(t, template.URL("/horaires/export?format=csv"), exportURL("horaires", table.CSV, table.Query{}, ""))
}

func TestFieldMessages(t *testing.T) {
	got := fieldMessages(map[string]string{"prenom": "Prénom est requis", "nom": "Nom est requis"})
	assert.Equal(t, "Nom est requis; Prénom est requis", got)
	assert.Empty(t, fieldMessages(nil))
}

func TestWorkspaces(t *testing.T) {
	now := time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)
	session.NowFunc = func() time.Time { return now }
	defer func() { session.NowFunc = time.Now }()

	created := 0
	ws := newWorkspaces(func() *workspace.Workspace {
		created++
		return &workspace.Workspace{}
	})
	a := session.Session{ID: "a", ExpiresAt: now.Add(time.Hour)}
	b := session.Session{ID: "b", ExpiresAt: now.Add(2 * time.Hour)}

	first := ws.get(a)
	assert.Same(t, first, ws.get(a))
	ws.get(b)
	assert.Equal(t, 2, created)
	assert.Equal(t, 2, ws.len())

	ws.drop("a")
	assert.Equal(t, 1, ws.len())
	assert.NotSame(t, first, ws.get(a))

	t.Run("expired sessions are swept", func(t *testing.T) {
		now = now.Add(90 * time.Minute)
		c := session.Session{ID: "c", ExpiresAt: now.Add(time.Hour)}
		ws.get(c) // a never comes back
		assert.Equal(t, 2, ws.len(), "a is gone, b and c are live")

		now = now.Add(40 * time.Minute)
		ws.get(c)
		assert.Equal(t, 1, ws.len(), "only c is left")
		assert.Equal(t, 4, created)
	})
}
