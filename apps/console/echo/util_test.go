package echoweb_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	echoweb "github.com/trezcool/masomo-console/apps/console/echo"
	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/profile"
	"github.com/trezcool/masomo-console/core/session"
	"github.com/trezcool/masomo-console/tests"
)

const seed = `{
	"formations": [{"id": 1, "nom": "Informatique", "active": true}],
	"etudiants": [{"id": 1, "matricule": "S001", "nom": "Kabila", "prenom": "Aline", "formation": {"id": 1, "nom": "Informatique"}, "actif": true}],
	"professeurs": [{"id": 1, "nom": "Dupont", "prenom": "Jean", "statut": "permanent"}]
}`

type httpTest struct {
	name     string
	method   string
	path     string
	body     io.Reader
	ctype    string
	json     bool
	wantCode int
	wantBody []string
}

type app struct {
	server  echoweb.Server
	backend *testutil.Backend
	conf    *core.Config
}

func setup(t *testing.T) *app {
	t.Helper()

	backend := testutil.StartBackend(t, seed)
	conf := testutil.Config()
	conf.API.BaseURL = backend.Client.BaseURL()

	translator := core.NewTranslator()
	srv, err := echoweb.NewServer(echoweb.ServerDeps{
		Conf:       conf,
		Logger:     backend.Logger,
		Sessions:   session.NewProvider(backend.Client, session.NewMemoryStore(), time.Hour),
		Client:     backend.Client,
		Validate:   core.NewValidator(translator),
		Translator: translator,
		Badger:     profile.NewBadger(conf.SecretKey, time.Hour),
		Exporter:   profile.NewExporter(conf.AppName),
	})
	if err != nil {
		t.Fatalf("NewServer(): %v", err)
	}
	return &app{server: srv, backend: backend, conf: conf}
}

func (a *app) do(method, path string, body io.Reader, ctype string, asJSON bool, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if ctype != "" {
		req.Header.Set(echo.HeaderContentType, ctype)
	}
	if asJSON {
		req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.server.ServeHTTP(rec, req)
	return rec
}

func (a *app) run(t *testing.T, tt httpTest, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	rec := a.do(tt.method, tt.path, tt.body, tt.ctype, tt.json, cookie)
	if rec.Code != tt.wantCode {
		t.Errorf("%s %s: code = %v; wantCode %v; body %s", tt.method, tt.path, rec.Code, tt.wantCode, rec.Body.String())
	}
	for _, want := range tt.wantBody {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("%s %s: body does not contain %q", tt.method, tt.path, want)
		}
	}
	return rec
}

// login signs the admin in through the login form and returns the session cookie.
func (a *app) login(t *testing.T) *http.Cookie {
	t.Helper()

	form := url.Values{"username": {testutil.AdminUsername}, "password": {testutil.AdminPassword}}
	rec := a.do(http.MethodPost, "/login", strings.NewReader(form.Encode()), echo.MIMEApplicationForm, false, nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login(): code = %v; body %s", rec.Code, rec.Body.String())
	}
	return sessionCookie(t, a.conf, rec)
}

func sessionCookie(t *testing.T, conf *core.Config, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range rec.Result().Cookies() {
		if c.Name == conf.Server.CookieName && c.Value != "" {
			return c
		}
	}
	t.Fatalf("sessionCookie(): no %s cookie set", conf.Server.CookieName)
	return nil
}

func formBody(vals url.Values) io.Reader {
	return strings.NewReader(vals.Encode())
}

func jsonBody(t *testing.T, obj interface{}) io.Reader {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("jsonBody(): %v", err)
	}
	return bytes.NewReader(data)
}

// uploadBody returns a multipart body carrying content as the file field.
func uploadBody(t *testing.T, filename, content string) (io.Reader, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("uploadBody(): %v", err)
	}
	if _, err := io.WriteString(fw, content); err != nil {
		t.Fatalf("uploadBody(): %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("uploadBody(): %v", err)
	}
	return &buf, w.FormDataContentType()
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decodeJSON(): %v; body %s", err, rec.Body.String())
	}
}
