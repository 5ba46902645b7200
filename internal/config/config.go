package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	ServerPort string

	DBDriver    string
	DBUser      string
	DBPassword  string
	DBHost      string
	MongoURI    string
	DBName      string
	PostgresDSN string
	DBTimeout   time.Duration

	StripeSecretKey string
	PaymentCurrency string
	ClientURL       string

	FirebaseProjectID string
	ProviderTimeout   time.Duration
	RequestTimeout    time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	KafkaTopic   string

	CORSOrigins []string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, relying on environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	return &Config{
		ServerPort:        getEnv("PORT", "3000"),
		DBDriver:          strings.ToLower(getEnv("DB_DRIVER", DriverMongo)),
		DBUser:            getEnv("DB_USER", ""),
		DBPassword:        getEnv("DB_PASS", ""),
		DBHost:            getEnv("DB_HOST", "cluster0.e8hxcyy.mongodb.net"),
		MongoURI:          getEnv("MONGODB_URI", ""),
		DBName:            getEnv("DB_NAME", "creative_arena_db"),
		PostgresDSN:       getEnv("POSTGRES_DSN", "host=localhost port=5432 user=postgres password=postgres dbname=creative_arena sslmode=disable"),
		DBTimeout:         getDuration("DB_TIMEOUT", 10*time.Second),
		StripeSecretKey:   getEnv("STRIPE_SECRET_KEY", ""),
		PaymentCurrency:   strings.ToLower(getEnv("PAYMENT_CURRENCY", "usd")),
		ClientURL:         strings.TrimRight(getEnv("CLIENT_URL", getEnv("SITE_DOMAIN", "http://localhost:5173")), "/"),
		FirebaseProjectID: getEnv("FIREBASE_PROJECT_ID", ""),
		ProviderTimeout:   getDuration("PROVIDER_TIMEOUT", 10*time.Second),
		RequestTimeout:    getDuration("REQUEST_TIMEOUT", 15*time.Second),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           redisDB,
		KafkaBrokers:      splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "creative-arena.events"),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "*")),
	}
}

// MongoConnectionURI returns MONGODB_URI when set, otherwise an Atlas SRV
// URI assembled from the user, password and cluster host.
func (c *Config) MongoConnectionURI() string {
	if c.MongoURI != "" {
		return c.MongoURI
	}
	return fmt.Sprintf("mongodb+srv://%s:%s@%s/?appName=Cluster0", c.DBUser, c.DBPassword, c.DBHost)
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverMongo, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	if c.FirebaseProjectID == "" {
		return fmt.Errorf("FIREBASE_PROJECT_ID is required")
	}
	if c.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if d, err := time.ParseDuration(val); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(val); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	slog.Warn("invalid duration, using default", "key", key, "value", val, "default", fallback)
	return fallback
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
