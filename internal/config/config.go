package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Hub      HubConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type JWTConfig struct {
	Secret     string
	ExpiryHour int
}

// HubConfig tunes the session/hub runtime.
type HubConfig struct {
	OutboundQueueSize int
	ReplayWindow      int
	WriteWait         time.Duration
	PongWait          time.Duration
	PingPeriod        time.Duration
	MaxMessageBytes   int64
	TypingExpiry      time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	pongWait := time.Duration(getEnvAsInt("HUB_PONG_WAIT_SECONDS", 60)) * time.Second

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			ExpiryHour: getEnvAsInt("JWT_EXPIRY_HOURS", 24),
		},
		Hub: HubConfig{
			OutboundQueueSize: getEnvAsInt("HUB_OUTBOUND_QUEUE_SIZE", 256),
			ReplayWindow:      getEnvAsInt("HUB_REPLAY_WINDOW", 50),
			WriteWait:         10 * time.Second,
			PongWait:          pongWait,
			PingPeriod:        pongWait * 9 / 10,
			MaxMessageBytes:   512 * 1024,
			TypingExpiry:      3 * time.Second,
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
