package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ignatzorin/microtask-escrow/internal/logger"
)

func main() {
	app := &cli.App{
		Name:  "escrowctl",
		Usage: "Обслуживание движка эскроу: миграции, сверка журнала, dev-токены",
		Commands: []*cli.Command{
			MigrateCommand(),
			AuditCommand(),
			TokenCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.WithError(err).Fatal("escrowctl failed")
	}
}
