package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trialfunnel/internal/db"

	_ "github.com/lib/pq"
)

var databaseURL string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load the CSV/TSV reference data into Postgres",
	RunE: func(cmd *cobra.Command, args []string) error {
		if databaseURL == "" {
			databaseURL = os.Getenv("DATABASE_URL")
		}
		if databaseURL == "" {
			return fmt.Errorf("no database: set --database-url or DATABASE_URL")
		}

		log := zap.NewNop()
		trials, err := db.LoadTrialsFile(trialsPath, log)
		if err != nil {
			return fmt.Errorf("loading trials: %w", err)
		}
		rows, err := db.LoadEligibilityFile(eligibilityPath, log)
		if err != nil {
			return fmt.Errorf("loading eligibility relations: %w", err)
		}

		conn, err := sql.Open("postgres", databaseURL)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer conn.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := conn.PingContext(ctx); err != nil {
			return fmt.Errorf("pinging database: %w", err)
		}
		if err := db.Migrate(context.Background(), conn); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}

		repo := db.NewRepository(conn)
		if err := repo.ImportTrials(context.Background(), trials); err != nil {
			return err
		}
		if err := repo.ImportEligibility(context.Background(), rows); err != nil {
			return err
		}
		fmt.Printf("imported %d trials and %d eligibility relations\n", len(trials), len(rows))
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection string (defaults to DATABASE_URL)")
	rootCmd.AddCommand(importCmd)
}
