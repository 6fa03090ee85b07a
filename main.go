package main

import (
	"log"
	"os"

	"github.com/opentracing/opentracing-go"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"github.com/ricardag/mailmirror/config"
	"github.com/ricardag/mailmirror/internal/database"
	"github.com/ricardag/mailmirror/internal/logger"
	"github.com/ricardag/mailmirror/internal/repository"
	"github.com/ricardag/mailmirror/internal/tracing"
	"github.com/ricardag/mailmirror/server"
	"github.com/ricardag/mailmirror/services"
)

func main() {
	app := &cli.App{
		Name:  "mailmirror",
		Usage: "mirror remote mailboxes into a local store",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "run database migrations",
				Action: func(c *cli.Context) error {
					cfg, db, err := setup()
					if err != nil {
						return err
					}
					if err := repository.MigrateDB(cfg.DatabaseConfig, db); err != nil {
						return err
					}
					log.Println("Database migration completed successfully")
					return nil
				},
			},
			{
				Name:  "server",
				Usage: "start the application server",
				Action: func(c *cli.Context) error {
					cfg, db, err := setup()
					if err != nil {
						return err
					}

					log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
					log.Println("MailMirror starting up...")

					srv, err := server.NewServer(cfg, db)
					if err != nil {
						return err
					}
					if err := srv.Run(); err != nil {
						return err
					}

					log.Println("Shutdown complete")
					return nil
				},
			},
			{
				Name:  "sync",
				Usage: "run one sync cycle and exit",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "account",
						Usage: "sync only the given account id",
					},
				},
				Action: func(c *cli.Context) error {
					cfg, db, err := setup()
					if err != nil {
						return err
					}

					appLogger := logger.NewAppLogger(cfg.Logger)
					appLogger.InitLogger()

					tracer, closer, err := tracing.NewJaegerTracer(cfg.Tracing, appLogger)
					if err != nil {
						return err
					}
					defer closer.Close()
					opentracing.SetGlobalTracer(tracer)

					repos := repository.InitRepositories(db)
					svcs, err := services.InitServices(cfg, appLogger, repos)
					if err != nil {
						return err
					}

					if accountID := c.String("account"); accountID != "" {
						report, err := svcs.SyncService.SyncAccount(c.Context, accountID)
						if err != nil {
							return err
						}
						appLogger.Infof("Synced account %s: %d folders, %d created, %d updated, %d skipped",
							report.AccountID, report.FoldersSynced, report.MessagesCreated, report.MessagesUpdated, report.MessagesSkipped)
						return nil
					}
					return svcs.SyncService.SyncAll(c.Context)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("mailmirror failed: %v", err)
	}
}

func setup() (*config.Config, *gorm.DB, error) {
	cfg, err := config.InitConfig()
	if err != nil {
		return nil, nil, err
	}

	db, err := database.InitDatabase(cfg.DatabaseConfig)
	if err != nil {
		return nil, nil, err
	}

	return cfg, db, nil
}
