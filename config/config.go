package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"syncloop/logger"
)

// Config stores process configuration. Presentation settings (song, frames,
// beats) live in presets, see preset.go.
type Config struct {
	// Logging
	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool

	// Playback
	AssetBase  string        // directory, http(s) URL or s3://bucket/prefix
	AssetToken string        // bearer token sent to the asset server
	TickRate   time.Duration // headless scheduler cadence
	VolumeStep float64

	// Redis asset cache
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	AssetCacheTTL time.Duration

	// MinIO
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioRegion    string

	// MySQL preset catalog
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Asset server
	ServerAddr      string
	ServerPublicURL string // base URL players use to reach this server
	AccessKeyHash   string // bcrypt hash of the key accepted by /api/token
	JWTSecret       string
	TokenTTL        time.Duration
	StatusOrigins   []string // extra browser origins allowed on the status feed
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

// getEnvList splits a comma separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// Load reads .env (never overriding variables already set) and the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables and defaults.")
	}

	return &Config{
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 50),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 14),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),

		AssetBase:  getEnv("ASSET_BASE", "."),
		AssetToken: os.Getenv("ASSET_TOKEN"),
		TickRate:   getEnvDuration("TICK_RATE", time.Second/60),
		VolumeStep: getEnvFloat("VOLUME_STEP", 0.1),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		AssetCacheTTL: getEnvDuration("ASSET_CACHE_TTL", 24*time.Hour),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "syncloop"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "syncloop"),

		ServerAddr:      getEnv("SERVER_ADDR", ":8080"),
		ServerPublicURL: strings.TrimRight(getEnv("SERVER_PUBLIC_URL", "http://localhost:8080"), "/"),
		AccessKeyHash:   os.Getenv("ACCESS_KEY_HASH"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		TokenTTL:        getEnvDuration("TOKEN_TTL", 12*time.Hour),
		StatusOrigins:   getEnvList("STATUS_ORIGINS"),
	}
}

// RedisEnabled reports whether an asset cache should be used.
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// MinioEnabled reports whether object storage is configured.
func (c *Config) MinioEnabled() bool {
	return c.MinioEndpoint != ""
}

// LoggerConfig maps the logging fields onto logger.Config.
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:      logger.LogLevel(strings.ToLower(c.LogLevel)),
		OutputPath: c.LogFile,
		MaxSize:    c.LogMaxSizeMB,
		MaxBackups: c.LogMaxBackups,
		MaxAge:     c.LogMaxAgeDays,
		Compress:   c.LogCompress,
	}
}
