package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr              string
	DBPath            string
	DataDir           string
	StockfishPath     string
	AnalysisDepth     int
	ReviewWorkerCount int
	ReviewQueueSize   int
	BroadcastCapacity int
	LogLevel          string
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:              envOr("ADDR", ":8080"),
		DBPath:            envOr("DB_PATH", "chesstty.db"),
		DataDir:           envOr("CHESSTTY_DATA_DIR", ""),
		StockfishPath:     envOr("STOCKFISH_PATH", ""),
		AnalysisDepth:     envIntOr("ANALYSIS_DEPTH", 18),
		ReviewWorkerCount: envIntOr("REVIEW_WORKER_COUNT", 1),
		ReviewQueueSize:   envIntOr("REVIEW_QUEUE_SIZE", 64),
		BroadcastCapacity: envIntOr("BROADCAST_CAPACITY", 100),
		LogLevel:          envOr("LOG_LEVEL", "INFO"),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}
