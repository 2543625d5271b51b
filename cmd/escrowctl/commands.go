package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"

	"github.com/ignatzorin/microtask-escrow/internal/config"
	"github.com/ignatzorin/microtask-escrow/internal/db"
	"github.com/ignatzorin/microtask-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/microtask-escrow/internal/models"
	"github.com/ignatzorin/microtask-escrow/internal/repository"
	"github.com/ignatzorin/microtask-escrow/internal/service"
)

// MigrateCommand управляет схемой базы.
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Миграции схемы Postgres",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Накатить все миграции",
				Action: withDB(func(ctx context.Context, conn *sqlx.DB) error {
					return db.RunMigrations(ctx, conn)
				}),
			},
			{
				Name:  "status",
				Usage: "Показать статус миграций",
				Action: withDB(func(ctx context.Context, conn *sqlx.DB) error {
					return db.MigrationStatus(ctx, conn)
				}),
			},
			{
				Name:  "down",
				Usage: "Откатить последнюю миграцию",
				Action: withDB(func(ctx context.Context, conn *sqlx.DB) error {
					return db.RollbackMigration(ctx, conn)
				}),
			},
		},
	}
}

// AuditCommand делает разовую сверку журнала и печатает снимок.
func AuditCommand() *cli.Command {
	return &cli.Command{
		Name:  "audit",
		Usage: "Сверить журнал монет",
		Action: withDB(func(ctx context.Context, conn *sqlx.DB) error {
			snap, err := service.NewAuditService(repository.NewPostgresStore(conn)).Run(ctx)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(struct {
				*models.LedgerSnapshot
				Drift int64 `json:"drift"`
			}{snap, snap.Drift()}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			if snap.Drift() != 0 {
				return cli.Exit("ledger conservation violated", 2)
			}
			return nil
		}),
	}
}

// TokenCommand выпускает токен для локальной разработки.
func TokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Выпустить dev-токен",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Usage: "UUID пользователя, по умолчанию новый"},
			&cli.StringFlag{Name: "role", Value: string(valueobject.RoleBuyer), Usage: "buyer, worker или admin"},
			&cli.DurationFlag{Name: "ttl", Value: 24 * time.Hour},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return cli.Exit("dev tokens are not issued in production", 1)
			}

			role, err := valueobject.NewRole(c.String("role"))
			if err != nil {
				return err
			}
			userID := uuid.New()
			if raw := c.String("user"); raw != "" {
				if userID, err = uuid.Parse(raw); err != nil {
					return fmt.Errorf("invalid --user: %w", err)
				}
			}

			token, err := service.NewTokenManager(cfg.JWTSecret).Issue(models.Principal{UserID: userID, Role: role}, c.Duration("ttl"))
			if err != nil {
				return err
			}
			fmt.Printf("user_id: %s\nrole: %s\ntoken: %s\n", userID, role, token)
			return nil
		},
	}
}

func withDB(fn func(ctx context.Context, conn *sqlx.DB) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		conn, err := db.NewPostgres(c.Context, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer conn.Close()
		return fn(c.Context, conn)
	}
}
