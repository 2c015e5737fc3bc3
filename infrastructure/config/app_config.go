package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"nhbrcforms/database"
	"nhbrcforms/domain/province"
	"nhbrcforms/logging"
	"nhbrcforms/spauth"
)

// AppConfig holds application-wide system configuration.
type AppConfig struct {
	HTTPAddr       string
	HTTPLogPath    string
	HealthProvince province.Province
	Database       *database.Config
	Logging        *logging.Config
	Graph          spauth.Config
	Provinces      *ProvinceDirectory
	Uploads        UploadConfig
	Counter        CounterConfig
}

// UploadConfig controls where and how attachments are stored.
type UploadConfig struct {
	RootFolder     string
	FallbackFolder string
	MaxFiles       int
	MaxBodyBytes   int64
	SimpleMaxBytes int64 // larger files go through a Graph upload session
}

// CounterConfig selects the reference counter backend.
type CounterConfig struct {
	Backend  string // "sqlite" or "file"
	FilePath string
	Seed     int64
}

// LoadAppConfigFromEnv loads complete application configuration from environment variables.
func LoadAppConfigFromEnv() *AppConfig {
	healthProvince, ok := province.Parse(getEnvWithDefault("HEALTH_PROVINCE", string(province.Gauteng)))
	if !ok {
		healthProvince = province.Gauteng
	}

	return &AppConfig{
		HTTPAddr:       getEnvWithDefault("HTTP_ADDR", ":3000"),
		HTTPLogPath:    getEnvWithDefault("HTTP_LOG_PATH", ""),
		HealthProvince: healthProvince,
		Database:       LoadDatabaseConfigFromEnv(),
		Logging:        LoadLoggingConfigFromEnv(),
		Graph:          LoadGraphConfigFromEnv(),
		Provinces:      LoadProvinceDirectory(os.Getenv),
		Uploads:        LoadUploadConfigFromEnv(),
		Counter:        LoadCounterConfigFromEnv(),
	}
}

// LoadDatabaseConfigFromEnv loads database configuration from environment variables.
func LoadDatabaseConfigFromEnv() *database.Config {
	return &database.Config{
		Path:              getEnvWithDefault("DB_PATH", "./nhbrcforms.db"),
		MaxOpenConns:      getEnvIntWithDefault("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:      getEnvIntWithDefault("DB_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime:   getEnvDurationWithDefault("DB_CONN_MAX_LIFETIME", time.Hour),
		ConnMaxIdleTime:   getEnvDurationWithDefault("DB_CONN_MAX_IDLE_TIME", 15*time.Minute),
		BusyTimeoutMs:     getEnvIntWithDefault("DB_BUSY_TIMEOUT_MS", 5000),
		EnableForeignKeys: getEnvBoolWithDefault("DB_ENABLE_FOREIGN_KEYS", true),
		EnableWAL:         getEnvBoolWithDefault("DB_ENABLE_WAL", true),
	}
}

// LoadLoggingConfigFromEnv loads logging configuration from environment variables.
func LoadLoggingConfigFromEnv() *logging.Config {
	return &logging.Config{
		Level:  getEnvWithDefault("LOG_LEVEL", "info"),
		Format: getEnvWithDefault("LOG_FORMAT", "json"),
		Output: getEnvWithDefault("LOG_OUTPUT", "stdout"),
	}
}

// LoadGraphConfigFromEnv loads Graph credentials and endpoints. TENANT_ID takes
// precedence over SHAREPOINT_TENANT_ID.
func LoadGraphConfigFromEnv() spauth.Config {
	tenantID := os.Getenv("TENANT_ID")
	if tenantID == "" {
		tenantID = os.Getenv("SHAREPOINT_TENANT_ID")
	}
	return spauth.Config{
		TenantID:      tenantID,
		ClientID:      os.Getenv("SHAREPOINT_CLIENT_ID"),
		ClientSecret:  os.Getenv("SHAREPOINT_CLIENT_SECRET"),
		AuthorityHost: getEnvWithDefault("GRAPH_AUTHORITY_HOST", spauth.DefaultAuthorityHost),
		GraphBaseURL:  getEnvWithDefault("GRAPH_BASE_URL", spauth.DefaultGraphBaseURL),
		HTTPTimeout:   getEnvDurationWithDefault("GRAPH_HTTP_TIMEOUT", 60*time.Second),
	}
}

// LoadUploadConfigFromEnv loads attachment storage settings.
func LoadUploadConfigFromEnv() UploadConfig {
	return UploadConfig{
		RootFolder:     getEnvWithDefault("UPLOAD_ROOT_FOLDER", "D1 Documents"),
		FallbackFolder: getEnvWithDefault("UPLOAD_FALLBACK_FOLDER", "General Uploads"),
		MaxFiles:       getEnvIntWithDefault("UPLOAD_MAX_FILES", 3),
		MaxBodyBytes:   int64(getEnvIntWithDefault("UPLOAD_MAX_BODY_BYTES", 50<<20)),
		SimpleMaxBytes: int64(getEnvIntWithDefault("UPLOAD_SIMPLE_MAX_BYTES", 4<<20)),
	}
}

// LoadCounterConfigFromEnv loads reference counter settings.
func LoadCounterConfigFromEnv() CounterConfig {
	return CounterConfig{
		Backend:  strings.ToLower(getEnvWithDefault("COUNTER_BACKEND", "sqlite")),
		FilePath: getEnvWithDefault("COUNTER_FILE_PATH", "./reference-counter.json"),
		Seed:     int64(getEnvIntWithDefault("COUNTER_SEED", 10000)),
	}
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseBool(v string, def bool) bool {
	v = strings.TrimSpace(strings.ToLower(v))
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

// Helper functions for environment variable parsing.
func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return parseBool(value, defaultValue)
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
