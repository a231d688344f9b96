// Package config reads service settings from the environment. An optional
// .env file in the working directory is loaded first; real environment
// variables win over it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type DB struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type Config struct {
	HTTPPort        string
	GRPCPort        string
	StoreDriver     string
	SQLitePath      string
	DB              DB
	MigrationsPath  string
	MongoURI        string
	MongoDBName     string
	RedisAddr       string
	RedisPassword   string
	KafkaBrokers    []string
	KafkaTopic      string
	JWTSecret       string
	TokenTTL        time.Duration
	BootstrapToken  string
	AppID           string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string
	SeedCatalog     bool
	MaxRequestBody  int64
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		GRPCPort:    getEnv("GRPC_PORT", "50051"),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", DriverSQLite)),
		SQLitePath:  getEnv("SQLITE_PATH", "./data/storefront.db"),
		DB: DB{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "storefront"),
		},
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./internal/repository/migrations"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:     getEnv("MONGO_DB_NAME", "storefront"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		KafkaBrokers:    splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "order-placed"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		BootstrapToken:  os.Getenv("BOOTSTRAP_TOKEN"),
		AppID:           getEnv("APP_ID", "thread-storefront"),
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		MaxRequestBody:  1 << 20, // 1MB
	}

	var err error
	if cfg.TokenTTL, err = getDuration("TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.SeedCatalog, err = getBool("SEED_CATALOG", true); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory, DriverSQLite, DriverPostgres, DriverMongo:
	default:
		return fmt.Errorf("STORE_DRIVER must be one of memory, sqlite, postgres, mongo; got %q", c.StoreDriver)
	}
	if c.AppID == "" {
		return fmt.Errorf("APP_ID must not be empty")
	}
	if c.StoreDriver == DriverPostgres {
		if _, err := strconv.Atoi(c.DB.Port); err != nil {
			return fmt.Errorf("DB_PORT must be a number; got %q", c.DB.Port)
		}
	}
	return nil
}

// Postgres returns the libpq connection string.
func (d DB) Postgres() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
