package cmd

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-donations/app/repository"
	"github.com/vibast-solutions/ms-go-donations/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the donation ledger tables",
	Run:   runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(_ *cobra.Command, _ []string) {
	cfg := mustLoadConfig()

	if cfg.Ledger.Backend == config.LedgerBackendDynamoDB {
		logrus.WithField("table", cfg.Ledger.DynamoTable).Info("DynamoDB ledger is provisioned outside the service, nothing to migrate")
		return
	}

	db, err := openDatabase(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if !runJob("migrate", func() error {
		return repository.Migrate(ctx, db, repository.Dialect(cfg.Database.Driver))
	}) {
		os.Exit(1)
	}
}
