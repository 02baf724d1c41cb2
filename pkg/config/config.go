package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                    string
	Env                     string
	PostgresConnStr         string
	RedisAddr               string
	JWTSecret               string
	FirebaseCredentialsPath string
	SMTPHost                string
	SMTPPort                string
	EmailFrom               string
	AppURL                  string
	LockTimeout             time.Duration
	WSReadTimeout           time.Duration
}

// Load reads the .env file (when present) and then the environment. It must
// run before anything consumes the configuration: every value below is
// resolved eagerly here.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		RedisAddr:               getEnv("REDIS_ADDR", ""),
		JWTSecret:               getEnv("JWT_SECRET", "supersecretjwtkey"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json"),
		SMTPHost:                getEnv("SMTP_HOST", "localhost"),
		SMTPPort:                getEnv("SMTP_PORT", "1025"),
		EmailFrom:               getEnv("EMAIL_FROM", "noreply@regami.local"),
		AppURL:                  getEnv("APP_URL", "https://regami.com"),
		LockTimeout:             getDurationEnv("LOCK_TIMEOUT", 3*time.Second),
		WSReadTimeout:           getDurationEnv("WS_READ_TIMEOUT", 5*time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
