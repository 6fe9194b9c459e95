// Package testutil starts the development backend in-process for tests.
package testutil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	devapi "github.com/trezcool/masomo-console/apps/devapi/echo"
	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/school"
	"github.com/trezcool/masomo-console/core/session"
	"github.com/trezcool/masomo-console/services/logger"
	"github.com/trezcool/masomo-console/services/restapi"
	"github.com/trezcool/masomo-console/storage/memdb"
)

const (
	AdminUsername = "admin"
	AdminPassword = "s3cret"
)

// Config returns the configuration used by tests; it never reads the environment.
func Config() *core.Config {
	return &core.Config{
		Env:       "TEST",
		TestMode:  true,
		AppName:   "Masomo Console",
		SecretKey: "test-secret",
		Server: core.ServerConfig{
			Host:            "localhost",
			ShutdownTimeout: time.Second,
			SessionTTL:      time.Hour,
			CookieName:      "masomo_session",
			DisableReqLogs:  true,
		},
		API:   core.APIConfig{Timeout: 5 * time.Second},
		Badge: core.BadgeConfig{TokenTTL: time.Hour},
		DevAPI: core.DevAPIConfig{
			Username: AdminUsername,
			Password: AdminPassword,
		},
	}
}

// Backend is a development backend running for the duration of a test.
type Backend struct {
	DB     *memdb.DB
	Server *httptest.Server
	Client *restapi.Client
	Logger *logsvc.LoggerMock
}

// StartBackend serves a fresh development backend, seeded with the JSON document seed if given.
func StartBackend(t *testing.T, seed ...string) *Backend {
	t.Helper()

	conf := Config()
	logger := logsvc.NewLoggerMock()
	db := memdb.Open(school.Resources...)
	if len(seed) > 0 {
		if _, err := devapi.Seed(db, strings.NewReader(seed[0])); err != nil {
			t.Fatalf("StartBackend(): %v", err)
		}
	}

	translator := core.NewTranslator()
	srv := httptest.NewServer(devapi.NewServer(devapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		DB:         db,
		Validate:   core.NewValidator(translator),
		Translator: translator,
	}))
	t.Cleanup(srv.Close)

	conf.API.BaseURL = srv.URL + "/api"
	return &Backend{
		DB:     db,
		Server: srv,
		Client: restapi.NewClient(conf.API, logger),
		Logger: logger,
	}
}

// Login returns a context carrying an authenticated session.
func (b *Backend) Login(t *testing.T) context.Context {
	t.Helper()

	ctx := context.Background()
	usr, token, err := b.Client.Login(ctx, AdminUsername, AdminPassword)
	if err != nil {
		t.Fatalf("Login(): %v", err)
	}
	now := time.Now()
	return session.NewContext(ctx, session.Session{
		ID:        "test",
		User:      usr,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	})
}

// FailingClient returns a client of b whose requests to paths ending with suffix get code,
// with the JSON message "<suffix> down". Other requests reach b.
func (b *Backend) FailingClient(t *testing.T, suffix string, code int) *restapi.Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, suffix) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			fmt.Fprintf(w, `{"message":%q}`, strings.TrimPrefix(suffix, "/")+" down")
			return
		}
		b.Server.Config.Handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	conf := Config()
	conf.API.BaseURL = srv.URL + "/api"
	return restapi.NewClient(conf.API, b.Logger)
}
