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
	Env    string
	Server ServerConfig
	Redis  RedisConfig
	DB     DBConfig
	Auth   AuthConfig
	Store  StoreConfig
}

type ServerConfig struct {
	HTTPPort        string
	KitchenGRPCPort string
	KitchenGRPCAddr string
	RateLimit       string
	CORSOrigins     []string
}

type DBConfig struct {
	DSN      string
	SeedData bool
}

type AuthConfig struct {
	Enabled   bool
	JWTSecret string
	TokenTTL  time.Duration
}

type StoreConfig struct {
	Timezone string
}

// Location resolves the store time zone, falling back to UTC when the name is unknown.
func (s StoreConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		log.Printf("Unknown STORE_TIMEZONE %q, using UTC", s.Timezone)
		return time.UTC
	}
	return loc
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	tokenTTL, err := time.ParseDuration(getEnv("JWT_TTL", "12h"))
	if err != nil {
		tokenTTL = 12 * time.Hour
	}

	return Config{
		Env: getEnv("ENV", "development"),
		Server: ServerConfig{
			HTTPPort:        getEnv("HTTP_PORT", "8000"),
			KitchenGRPCPort: getEnv("KITCHEN_GRPC_PORT", "50053"),
			KitchenGRPCAddr: getEnv("KITCHEN_GRPC_ADDR", "localhost:50053"),
			RateLimit:       getEnv("RATE_LIMIT", "300-M"),
			CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "*")),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		DB: DBConfig{
			DSN:      getEnv("DATABASE_DSN", ""),
			SeedData: getBool("SEED_DATA", false),
		},
		Auth: AuthConfig{
			Enabled:   getBool("AUTH_ENABLED", true),
			JWTSecret: getEnv("JWT_SECRET", "change-me-in-production"),
			TokenTTL:  tokenTTL,
		},
		Store: StoreConfig{
			Timezone: getEnv("STORE_TIMEZONE", "America/Chicago"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
