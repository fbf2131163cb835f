package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port          string
	DBPath        string
	MigrationsDir string
	JWTSecret     string
	TokenTTL      time.Duration
	CORSOrigins   []string

	// OwnerPassphraseHash is a bcrypt hash; OwnerPassphrase is a plain fallback for local setups.
	OwnerPassphraseHash string
	OwnerPassphrase     string

	WeekStart        time.Weekday
	Location         *time.Location
	FallbackCapacity int
	DefaultRestQuota int
	PersistFullState bool
	RestTablePath    string
	CatalogPath      string
	GridCacheMB      int

	LogLevel    string
	LogFile     string
	LogToStdout bool
	LogJSON     bool
}

func Load() Config {
	return Config{
		Port:                getEnv("PORT", "8080"),
		DBPath:              getEnv("DB_PATH", "./data/habits.db"),
		MigrationsDir:       getEnv("MIGRATIONS_DIR", "./migrations"),
		JWTSecret:           getEnv("JWT_SECRET", "change-this-secret"),
		TokenTTL:            time.Duration(getEnvInt("TOKEN_TTL_HOURS", 720)) * time.Hour,
		CORSOrigins:         getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		OwnerPassphraseHash: getEnv("OWNER_PASSPHRASE_HASH", ""),
		OwnerPassphrase:     getEnv("OWNER_PASSPHRASE", ""),
		WeekStart:           getEnvWeekday("WEEK_START", time.Monday),
		Location:            getEnvLocation("TIMEZONE", time.Local),
		FallbackCapacity:    getEnvInt("FALLBACK_CAPACITY", 2),
		DefaultRestQuota:    getEnvInt("DEFAULT_REST_QUOTA", 3),
		PersistFullState:    getEnvBool("PERSIST_FULL_STATE", true),
		RestTablePath:       getEnv("REST_TABLE_PATH", ""),
		CatalogPath:         getEnv("CATALOG_PATH", ""),
		GridCacheMB:         getEnvInt("GRID_CACHE_MB", 1),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFile:             getEnv("LOG_FILE", ""),
		LogToStdout:         getEnvBool("LOG_TO_STDOUT", true),
		LogJSON:             getEnvBool("LOG_JSON", false),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}

func getEnvWeekday(key string, fallback time.Weekday) time.Weekday {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return fallback
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if value == name || value == name[:3] {
			return d
		}
	}
	return fallback
}

func getEnvLocation(key string, fallback *time.Location) *time.Location {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	loc, err := time.LoadLocation(value)
	if err != nil {
		return fallback
	}
	return loc
}
