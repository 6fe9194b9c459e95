// Command admin lists, imports and exports school resources from the command line.
package main

import (
	"os"

	"github.com/trezcool/masomo-console/core"
	logsvc "github.com/trezcool/masomo-console/services/logger"
	"github.com/trezcool/masomo-console/services/restapi"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		logsvc.NewStdLogger(os.Stderr, "ADMIN : "),
		conf,
	)
	logger.Enable(false)

	translator := core.NewTranslator()
	cli := commandLine{
		client:     restapi.NewClient(conf.API, logger),
		logger:     logger,
		validate:   core.NewValidator(translator),
		translator: translator,
		out:        os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}
