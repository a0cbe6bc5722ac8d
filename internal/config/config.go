package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App  AppConfig
	Data DataConfig
	LLM  LLMConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	SessionTTL         time.Duration
}

type DataConfig struct {
	DatabaseURL     string
	TrialsFile      string
	EligibilityFile string
}

type LLMConfig struct {
	APIKey string
	Model  string
}

// Load reads configuration from a .env file when present, falling back to
// the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("PORT", "8080"),
			Environment:        getEnv("ENVIRONMENT", "development"),
			LogFilePath:        os.Getenv("LOG_FILE_PATH"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			SessionTTL:         time.Duration(getEnvInt("SESSION_TTL_MINUTES", 60)) * time.Minute,
		},
		Data: DataConfig{
			DatabaseURL:     os.Getenv("DATABASE_URL"),
			TrialsFile:      getEnv("TRIALS_CSV", "data/refined_trials.csv"),
			EligibilityFile: getEnv("ELIGIBILITY_TSV", "data/cfg_parsed_clinical_trials.tsv"),
		},
		LLM: LLMConfig{
			APIKey: os.Getenv("OPENAI_API_KEY"),
			Model:  os.Getenv("OPENAI_MODEL_CHAT"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
