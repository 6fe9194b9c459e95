// Package devapi serves the school resources from an in-memory store, with the REST
// conventions of the production backend. It backs local development and the tests.
package devapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/school"
	"github.com/trezcool/masomo-console/storage/memdb"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		DB         *memdb.DB
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(ctx context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		ServerDeps: deps,
		app:        echo.New(),
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.Conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.Conf.Debug || s.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.Logger, s.signalShutdown)
	s.app.Debug = s.Conf.Debug

	s.app.GET("/", home)

	g := s.app.Group("/api")
	g.POST("/auth/login", s.login)

	jwt := middleware.JWTWithConfig(newJWTConfig(s.Conf.SecretKey))
	v := school.NewValidator(s.Validate, s.Translator)
	registerResourceAPI(g, jwt, s.DB, []resource{
		{name: school.ResourceEtudiants, enveloped: true, check: checker[school.Student](v), unique: []string{"matricule"}},
		{name: school.ResourceProfesseurs, enveloped: true, check: checker[school.Professor](v)},
		{name: school.ResourceFormations, enveloped: true, check: checker[school.Formation](v)},
		{name: school.ResourceProgrammes, check: checker[school.Programme](v)},
		{name: school.ResourceDiplomes, check: checker[school.Diplome](v)},
		{name: school.ResourceMatieres, check: checker[school.Matiere](v)},
		{name: school.ResourceHoraires, check: checker[school.Horaire](v)},
	})
}

func (s *server) Start() {
	if err := s.app.Start(s.Conf.DevAPI.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error { return s.errors }

func (s *server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Masomo development API")
}
