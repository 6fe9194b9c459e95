package restapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/school"
	"github.com/trezcool/masomo-console/core/session"
	"github.com/trezcool/masomo-console/services/logger"
)

type item struct {
	ID   school.ID `json:"id,omitempty"`
	Name string    `json:"nom"`
}

func TestDecodeOne(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   item
		wantOK bool
	}{
		{name: "envelope", body: `{"data": {"id": 1, "nom": "a"}}`, want: item{ID: "1", Name: "a"}, wantOK: true},
		{name: "raw", body: `{"id": "x", "nom": "b"}`, want: item{ID: "x", Name: "b"}, wantOK: true},
		{name: "empty", body: ``},
		{name: "blank", body: " \n"},
		{name: "null", body: `null`},
		{name: "empty object", body: `{}`},
		{name: "null envelope", body: `{"data": null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := decodeOne[item]([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, _, err := decodeOne[item]([]byte(`[1, 2]`))
	assert.Error(t, err)
}

func TestDecodeList(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []item
	}{
		{name: "envelope", body: `{"data": [{"id": 1, "nom": "a"}], "total": 1}`, want: []item{{ID: "1", Name: "a"}}},
		{name: "raw", body: `[{"id": 2, "nom": "b"}]`, want: []item{{ID: "2", Name: "b"}}},
		{name: "empty", body: ``, want: []item{}},
		{name: "null envelope", body: `{"data": null}`, want: []item{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeList[item]([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type recorded struct {
	method string
	path   string
	auth   string
	body   string
}

// newServer answers every request with status and body, recording what it received.
func newServer(t *testing.T, status int, body string) (*Client, *[]recorded) {
	var reqs []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		reqs = append(reqs, recorded{method: r.Method, path: r.URL.Path, auth: r.Header.Get("Authorization"), body: string(data)})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	client := NewClient(core.APIConfig{BaseURL: srv.URL + "/api/", Timeout: 5 * time.Second}, logsvc.NewLoggerMock())
	return client, &reqs
}

func TestResource_requests(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		call       func(r *Resource[item]) error
		wantMethod string
		wantPath   string
		wantBody   string
	}{
		{
			name:       "list",
			call:       func(r *Resource[item]) error { _, err := r.List(ctx); return err },
			wantMethod: http.MethodGet, wantPath: "/api/things",
		},
		{
			name:       "get",
			call:       func(r *Resource[item]) error { _, err := r.Get(ctx, "7"); return err },
			wantMethod: http.MethodGet, wantPath: "/api/things/7",
		},
		{
			name:       "add",
			call:       func(r *Resource[item]) error { _, _, err := r.Add(ctx, item{Name: "n"}); return err },
			wantMethod: http.MethodPost, wantPath: "/api/things", wantBody: `{"nom":"n"}`,
		},
		{
			name:       "update",
			call:       func(r *Resource[item]) error { _, _, err := r.Update(ctx, "7", item{ID: "7", Name: "n"}); return err },
			wantMethod: http.MethodPut, wantPath: "/api/things/7", wantBody: `{"id":7,"nom":"n"}`,
		},
		{
			name: "patch",
			call: func(r *Resource[item]) error {
				_, _, err := r.Patch(ctx, "7", map[string]interface{}{"nom": "p"})
				return err
			},
			wantMethod: http.MethodPut, wantPath: "/api/things/7", wantBody: `{"nom":"p"}`,
		},
		{
			name:       "delete",
			call:       func(r *Resource[item]) error { return r.Delete(ctx, "a b") },
			wantMethod: http.MethodDelete, wantPath: "/api/things/a b",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, reqs := newServer(t, http.StatusOK, `{}`)
			_ = tt.call(NewResource[item](client, "things"))

			require.Len(t, *reqs, 1)
			got := (*reqs)[0]
			assert.Equal(t, tt.wantMethod, got.method)
			assert.Equal(t, tt.wantPath, got.path)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, got.body)
			} else {
				assert.Empty(t, got.body)
			}
		})
	}
}

func TestResource_responses(t *testing.T) {
	ctx := context.Background()

	client, _ := newServer(t, http.StatusCreated, `{"data": {"id": 12, "nom": "n"}}`)
	created, ok, err := NewResource[item](client, "things").Add(ctx, item{Name: "n"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, item{ID: "12", Name: "n"}, created)

	client, _ = newServer(t, http.StatusNoContent, ``)
	_, ok, err = NewResource[item](client, "things").Update(ctx, "12", item{Name: "n"})
	require.NoError(t, err)
	assert.False(t, ok, "no body")

	client, _ = newServer(t, http.StatusOK, ``)
	_, err = NewResource[item](client, "things").Get(ctx, "12")
	assert.Equal(t, http.StatusNotFound, StatusCode(err))

	client, _ = newServer(t, http.StatusOK, `[{"id": 1, "nom": "a"}, {"id": 2, "nom": "b"}]`)
	items, err := NewResource[item](client, "things").List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestClient_errors(t *testing.T) {
	ctx := context.Background()

	client, _ := newServer(t, http.StatusUnprocessableEntity, `{"message": "matricule already used"}`)
	_, _, err := client.Etudiants().Add(ctx, school.Student{Matricule: "S001"})
	var hErr *HTTPError
	require.True(t, errors.As(err, &hErr))
	assert.Equal(t, http.StatusUnprocessableEntity, hErr.StatusCode)
	assert.Equal(t, http.MethodPost, hErr.Method)
	assert.Equal(t, "matricule already used", hErr.Message())
	assert.Contains(t, hErr.Error(), "422")

	client, _ = newServer(t, http.StatusInternalServerError, `oops`)
	err = client.Matieres().Delete(ctx, "1")
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	assert.Equal(t, "Internal Server Error", err.(*HTTPError).Message())

	// transport error: nothing listens
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client = NewClient(core.APIConfig{BaseURL: srv.URL}, nil)
	_, err = client.Formations().List(ctx)
	require.Error(t, err)
	assert.Equal(t, 0, StatusCode(err))
}

func TestClient_bearerToken(t *testing.T) {
	client, reqs := newServer(t, http.StatusOK, `[]`)

	_, _ = client.Diplomes().List(context.Background())
	ctx := session.NewContext(context.Background(), session.Session{ID: "s1", Token: "tok"})
	_, _ = client.Diplomes().List(ctx)

	require.Len(t, *reqs, 2)
	assert.Empty(t, (*reqs)[0].auth)
	assert.Equal(t, "Bearer tok", (*reqs)[1].auth)
}

func TestClient_Login(t *testing.T) {
	ctx := context.Background()

	client, reqs := newServer(t, http.StatusOK, `{"data": {"token": "tok", "user": {"id": "1", "username": "admin", "roles": ["admin"]}}}`)
	usr, token, err := client.Login(ctx, "admin", "pwd")
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Equal(t, session.User{ID: "1", Username: "admin", Roles: []string{"admin"}}, usr)

	var sent map[string]string
	require.NoError(t, json.Unmarshal([]byte((*reqs)[0].body), &sent))
	assert.Equal(t, map[string]string{"username": "admin", "password": "pwd"}, sent)
	assert.Equal(t, "/api/auth/login", (*reqs)[0].path)

	client, _ = newServer(t, http.StatusUnauthorized, `{"message": "bad credentials"}`)
	_, _, err = client.Login(ctx, "admin", "nope")
	assert.Equal(t, session.ErrInvalidCredentials, err)

	client, _ = newServer(t, http.StatusOK, `{}`)
	_, _, err = client.Login(ctx, "admin", "pwd")
	assert.Error(t, err)
}
