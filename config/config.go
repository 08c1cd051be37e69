package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration for both the API server and
// the playback agent. Values come from the environment (optionally via a
// .env file) with sensible defaults for local development.
type Config struct {
	// HTTP server
	ServerAddr string
	JWTSecret  string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MinIO object storage for uploaded audio clips
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// Recording lifecycle
	RecordingTTL time.Duration // time-to-live measured from a recording's creation

	// Playback agent
	ServerURL        string        // base URL of the API server the agent polls
	PollInterval     time.Duration // recordings feed poll cadence
	RepeatConfigPath string        // JSON file with up to 6 repeat slot settings
	FFplayPath       string        // external player binary used for playback
	PlayerUsername   string
	PlayerPassword   string

	// Logging
	LogLevel  string
	LogPath   string
	LogMaxMB  int
	LogMaxAge int
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

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load will not override variables already set in the environment.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		JWTSecret:  getEnv("JWT_SECRET", "dev-only-secret-change-me"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "timedaudio"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "timed-audio"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		RecordingTTL: time.Duration(getEnvInt("RECORDING_TTL_SECONDS", 1800)) * time.Second,

		ServerURL:        getEnv("SERVER_URL", "http://127.0.0.1:8080"),
		PollInterval:     time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 5)) * time.Second,
		RepeatConfigPath: getEnv("REPEAT_CONFIG_PATH", "repeat_config.json"),
		FFplayPath:       getEnv("FFPLAY_PATH", "ffplay"),
		PlayerUsername:   getEnv("PLAYER_USERNAME", ""),
		PlayerPassword:   os.Getenv("PLAYER_PASSWORD"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPath:   getEnv("LOG_PATH", "logs/timed-audio-queue.log"),
		LogMaxMB:  getEnvInt("LOG_MAX_MB", 50),
		LogMaxAge: getEnvInt("LOG_MAX_AGE_DAYS", 14),
	}
}
