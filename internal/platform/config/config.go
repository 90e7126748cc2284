package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string

	JWTSecret       []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	MongoURL string
	MongoDB  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitRequests int
	RateLimitPeriod   time.Duration

	CORSOrigins []string

	ITunesBaseURL string
}

// Load reads the environment (and an optional .env file) into a Config.
// Callers own the returned value; there is no package-level state.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		APIPort:           getEnv("API_PORT", "8080"),
		JWTSecret:         []byte(getEnv("JWT_SECRET", "default-secret-key-for-development-only")),
		AccessTokenTTL:    time.Duration(getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
		RefreshTokenTTL:   time.Duration(getEnvAsInt("REFRESH_TOKEN_EXPIRE_DAYS", 7)) * 24 * time.Hour,
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "musicuser"),
		DBPassword:        getEnv("DB_PASSWORD", "musicpass"),
		DBName:            getEnv("DB_NAME", "musicdb"),
		DBSslMode:         getEnv("DB_SSLMODE", "disable"),
		MongoURL:          getEnv("MONGODB_URL", "mongodb://localhost:27017"),
		MongoDB:           getEnv("MONGODB_DATABASE", "musiccharts"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvAsInt("REDIS_DB", 0),
		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitPeriod:   time.Duration(getEnvAsInt("RATE_LIMIT_PERIOD", 3600)) * time.Second,
		ITunesBaseURL:     getEnv("ITUNES_BASE_URL", "https://itunes.apple.com"),
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode

	for _, origin := range strings.Split(getEnv("BACKEND_CORS_ORIGINS", "http://localhost:3000,http://localhost:8501"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
