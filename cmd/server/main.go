package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"go.uber.org/zap"

	"trialfunnel/internal/config"
	"trialfunnel/internal/core"
	"trialfunnel/internal/db"
	"trialfunnel/internal/funnel"
	httpserver "trialfunnel/internal/http"
	"trialfunnel/internal/llm"
	"trialfunnel/internal/logging"
	"trialfunnel/internal/store"
	"trialfunnel/pkg"

	_ "github.com/lib/pq"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.App.LogFilePath, cfg.App.Environment == "production")
	defer log.Sync()

	trials, rows := loadReferenceData(cfg, log)
	catalog := funnel.NewCatalog(trials)
	index := funnel.NewIndex(rows)
	log.Info("reference data loaded",
		zap.Int("trials", catalog.Len()),
		zap.Int("questions", len(index.Questions())))

	llmClient := llm.NewOpenAIClient(cfg.LLM.APIKey, cfg.LLM.Model)
	sessions := store.NewRegistry(cfg.App.SessionTTL, 10*time.Minute, func() *core.Agent {
		return core.NewAgent(llmClient, funnel.NewSession(catalog, index, funnel.DefaultTerminalThreshold, log), log)
	})

	srv := httpserver.NewServer(sessions, log, cfg.App.CorsAllowedOrigins)
	addr := ":" + cfg.App.Port
	log.Info("listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, srv); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

// loadReferenceData reads the trial catalog and eligibility table, from
// Postgres when DATABASE_URL is set and from the configured flat files
// otherwise.  Either way the data is loaded once and held in memory for the
// process lifetime.
func loadReferenceData(cfg *config.Config, log *zap.Logger) ([]pkg.Trial, []pkg.EligibilityRow) {
	if cfg.Data.DatabaseURL == "" {
		trials, err := db.LoadTrialsFile(cfg.Data.TrialsFile, log)
		if err != nil {
			log.Fatal("failed to load trials file", zap.String("path", cfg.Data.TrialsFile), zap.Error(err))
		}
		rows, err := db.LoadEligibilityFile(cfg.Data.EligibilityFile, log)
		if err != nil {
			log.Fatal("failed to load eligibility file", zap.String("path", cfg.Data.EligibilityFile), zap.Error(err))
		}
		return trials, rows
	}

	dbConn, err := sql.Open("postgres", cfg.Data.DatabaseURL)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer dbConn.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbConn.PingContext(ctx); err != nil {
		log.Fatal("failed to ping database", zap.Error(err))
	}
	if err := db.Migrate(context.Background(), dbConn); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	repo := db.NewRepository(dbConn)
	trials, err := repo.LoadTrials(context.Background())
	if err != nil {
		log.Fatal("failed to load trials", zap.Error(err))
	}
	rows, err := repo.LoadEligibility(context.Background())
	if err != nil {
		log.Fatal("failed to load eligibility relations", zap.Error(err))
	}
	return trials, rows
}
