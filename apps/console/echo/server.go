// Package echoweb serves the console: server-rendered pages over the school resources,
// with a JSON variant of every route for scripted clients.
package echoweb

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
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/apps/workspace"
	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/profile"
	"github.com/trezcool/masomo-console/core/school"
	"github.com/trezcool/masomo-console/core/session"
	"github.com/trezcool/masomo-console/services/restapi"
)

const methodParam = "_method"

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Sessions   *session.Provider
		Client     *restapi.Client
		Validate   *validator.Validate
		Translator ut.Translator
		Badger     *profile.Badger
		Exporter   *profile.Exporter
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
		app        *echo.Echo
		workspaces *workspaces
		errors     chan error
		shutdown   chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) (Server, error) {
	s := &server{
		ServerDeps: deps,
		app:        echo.New(),
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	v := school.NewValidator(deps.Validate, deps.Translator)
	s.workspaces = newWorkspaces(func() *workspace.Workspace {
		return workspace.New(deps.Client, v, deps.Logger)
	})
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	if err := s.setup(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *server) setup() error {
	rdr, err := newRenderer(s.Conf.Debug || s.Conf.TestMode)
	if err != nil {
		return errors.Wrap(err, "loading templates")
	}
	s.app.Renderer = rdr
	s.app.HideBanner = true

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Pre(middleware.MethodOverrideWithConfig(middleware.MethodOverrideConfig{
		Getter: middleware.MethodFromForm(methodParam),
	}))
	if !s.Conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.Conf.Debug || s.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = s.newAppHTTPErrorHandler(s.signalShutdown)
	s.app.Debug = s.Conf.Debug

	s.app.GET("/login", s.loginPage)
	s.app.POST("/login", s.login)
	s.app.POST("/logout", s.logout, s.sessionMiddleware)
	s.app.GET("/", s.dashboard, s.sessionMiddleware)

	registerResourceRoutes(s.app.Group("/:resource", s.sessionMiddleware, s.screenMiddleware), s)
	return nil
}

func (s *server) Start() {
	if err := s.app.Start(s.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
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
