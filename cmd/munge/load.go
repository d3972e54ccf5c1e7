package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/japaniel/munge/pkg/db"
	"github.com/japaniel/munge/pkg/ingest"
)

func loadCmd(a *app) *cobra.Command {
	var dbPath string

	c := &cobra.Command{
		Use:   "load FILE...",
		Short: "Stage JSONL or JMdict source files in the sqlite database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				dbPath = a.cfg.DBPath
			}

			records, err := ingest.LoadFiles(cmd.Context(), args)
			if err != nil {
				return err
			}

			conn, err := db.Open(dbPath)
			if err != nil {
				return fmt.Errorf("open %s: %w", dbPath, err)
			}
			defer conn.Close()

			n, err := ingest.Stage(cmd.Context(), conn, records, a.cfg.BatchSize, a.logger)
			if err != nil {
				return fmt.Errorf("stage records (%d committed): %w", n, err)
			}

			a.logger.Info("staged source records",
				slog.Int("records", n),
				slog.Int("files", len(args)),
				slog.String("db", dbPath))
			fmt.Fprintf(cmd.OutOrStdout(), "staged %d records in %s\n", n, dbPath)
			return nil
		},
	}

	c.Flags().StringVar(&dbPath, "db", "", "sqlite database (default from config)")
	return c
}
