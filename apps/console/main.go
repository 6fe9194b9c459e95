// Command console serves the school administration console.
package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	echoweb "github.com/trezcool/masomo-console/apps/console/echo"
	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/profile"
	"github.com/trezcool/masomo-console/core/session"
	logsvc "github.com/trezcool/masomo-console/services/logger"
	"github.com/trezcool/masomo-console/services/restapi"
	"github.com/trezcool/masomo-console/storage/sessionstore"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		logsvc.NewStdLogger(os.Stdout, "CONSOLE : "),
		conf,
	)
	logger.Enable(!conf.Debug)

	apiLogger := logsvc.NewRollbarLogger(
		logsvc.NewStdLogger(os.Stdout, "API CLIENT : "),
		conf,
	)
	apiLogger.Enable(!conf.Debug)

	client := restapi.NewClient(conf.API, apiLogger)

	// set up session store
	var store session.Store
	if conf.Redis.Address != "" {
		rdb, err := sessionstore.Open(context.Background(), conf.Redis)
		if err != nil {
			logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
		}
		defer func() {
			if err = rdb.Close(); err != nil {
				logger.Error("closing redis client", err)
			}
		}()
		store = sessionstore.NewRedisStore(rdb)
	} else {
		logger.Warn("no redis address configured: sessions are kept in memory")
		store = session.NewMemoryStore()
	}
	sessions := session.NewProvider(client, store, conf.Server.SessionTTL)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	translator := core.NewTranslator()
	validate := core.NewValidator(translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("api").Set(client.BaseURL())

	if conf.Server.DebugHost != "" {
		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()
	}

	// =========================================================================
	// Start Console Service

	server, err := echoweb.NewServer(echoweb.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Sessions:   sessions,
		Client:     client,
		Validate:   validate,
		Translator: translator,
		Badger:     profile.NewBadger(conf.SecretKey, conf.Badge.TokenTTL),
		Exporter:   profile.NewExporter(conf.AppName),
	})
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up server: %v", err), err)
	}

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
