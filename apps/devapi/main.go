// Command devapi runs the development REST backend on an in-memory store.
package main

import (
	"context"
	"fmt"
	"os"

	devapi "github.com/trezcool/masomo-console/apps/devapi/echo"
	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/school"
	logsvc "github.com/trezcool/masomo-console/services/logger"
	"github.com/trezcool/masomo-console/storage/memdb"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		logsvc.NewStdLogger(os.Stdout, "DEVAPI : "),
		conf,
	)
	logger.Enable(false)

	db := memdb.Open(school.Resources...)
	if path := conf.DevAPI.SeedFile; path != "" {
		f, err := os.Open(path)
		if err != nil {
			logger.Fatal(fmt.Sprintf("opening seed file: %v", err), err)
		}
		n, err := devapi.Seed(db, f)
		_ = f.Close()
		if err != nil {
			logger.Fatal(fmt.Sprintf("seeding: %v", err), err)
		}
		logger.Info(fmt.Sprintf("seeded %d records from %s", n, path))
	}

	translator := core.NewTranslator()
	server := devapi.NewServer(devapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		DB:         db,
		Validate:   core.NewValidator(translator),
		Translator: translator,
	})

	logger.Info(fmt.Sprintf("development API listening on %s", conf.DevAPI.Address))
	go server.Start()

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
