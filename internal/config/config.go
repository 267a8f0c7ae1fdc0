package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// APIBaseURL is the remote backend, e.g. "https://api.example.com".
	// Empty means remote sync is not configured and the app runs local-only.
	APIBaseURL string
	// StorageDir is where the file-backed store keeps its blobs.
	StorageDir string
	// SyncEnabled gates the sync engine independently of the base URL.
	SyncEnabled bool

	LogLevel string
	LogFile  string
}

// Load reads configuration from the environment, picking up a .env file when
// one is present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := &Config{
		APIBaseURL:  os.Getenv("TRIBE_API_BASE_URL"),
		StorageDir:  os.Getenv("TRIBE_STORAGE_DIR"),
		SyncEnabled: true,
		LogLevel:    os.Getenv("TRIBE_LOG_LEVEL"),
		LogFile:     os.Getenv("TRIBE_LOG_FILE"),
	}

	if cfg.StorageDir == "" {
		cfg.StorageDir = "./tribe-data"
	}
	if v := os.Getenv("TRIBE_SYNC_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("Invalid TRIBE_SYNC_ENABLED %q, defaulting to true", v)
		} else {
			cfg.SyncEnabled = enabled
		}
	}

	return cfg
}

// RemoteConfigured reports whether a backend base URL is set at all.
func (c *Config) RemoteConfigured() bool {
	return c.APIBaseURL != ""
}
