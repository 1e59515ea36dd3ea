package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables. A .env file in the working directory is loaded
// first; real environment variables win over it.
const (
	envDataDir          = "YENFOLIO_DATA_DIR"
	envDBName           = "YENFOLIO_DB_NAME"
	envHost             = "YENFOLIO_HOST"
	envPort             = "YENFOLIO_PORT"
	envWebDir           = "YENFOLIO_WEB_DIR"
	envLogDir           = "YENFOLIO_LOG_DIR"
	envFinnhubAPIKey    = "FINNHUB_API_KEY"
	envTwelveDataAPIKey = "TWELVE_DATA_API_KEY"
	envJPXProxyURL      = "YENFOLIO_JPX_PROXY_URL"
	envSnapshotSchedule = "YENFOLIO_SNAPSHOT_SCHEDULE"
)

// Config holds the server configuration.
type Config struct {
	DataDir string
	DBName  string
	Host    string
	Port    int
	WebDir  string
	LogDir  string

	FinnhubAPIKey    string
	TwelveDataAPIKey string
	JPXProxyURL      string

	// SnapshotSchedule is a cron expression for the daily snapshot job,
	// evaluated in Asia/Tokyo. Empty disables the job.
	SnapshotSchedule string
}

// Load reads configuration from a .env file (when present) and the
// environment, filling in defaults for anything unset.
func Load() (Config, error) {
	_ = godotenv.Load()

	dataDir := envString(envDataDir, "")
	if dataDir == "" {
		dir, err := defaultDataDir()
		if err != nil {
			return Config{}, err
		}
		dataDir = dir
	}

	cfg := Config{
		DataDir:          dataDir,
		DBName:           envString(envDBName, "yenfolio.db"),
		Host:             envString(envHost, "127.0.0.1"),
		Port:             envInt(envPort, 8787),
		WebDir:           envString(envWebDir, ""),
		LogDir:           envString(envLogDir, filepath.Join(dataDir, "logs")),
		FinnhubAPIKey:    envString(envFinnhubAPIKey, ""),
		TwelveDataAPIKey: envString(envTwelveDataAPIKey, ""),
		JPXProxyURL:      envString(envJPXProxyURL, ""),
		// 15:10 Tokyo, just after the JPX close.
		SnapshotSchedule: envString(envSnapshotSchedule, "10 15 * * *"),
	}
	return cfg, nil
}

// DBPath is the full path of the SQLite database file.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, c.DBName)
}

// Addr is the host:port the HTTP server binds to.
func (c Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

func defaultDataDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "yenfolio"), nil
	}
	return filepath.Join(configDir, "yenfolio"), nil
}

func envString(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil || i < 0 {
		return fallback
	}
	return i
}
