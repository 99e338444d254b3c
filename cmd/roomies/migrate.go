package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/dukerupert/roomies/internal/database"
	"github.com/dukerupert/roomies/internal/logging"
)

func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and print the schema version",
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := cmd.Context()
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return oops.With("db_path", cfg.DBPath).Wrapf(err, "open database")
	}
	defer db.Close()

	v, err := database.Version(ctx, db)
	if err != nil {
		return err
	}
	cmd.Printf("%s is at schema version %d\n", cfg.DBPath, v)
	return nil
}
