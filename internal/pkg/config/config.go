package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/workforce/login-service/internal/core/domain"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// AuditStrict fails a login whose audit entry cannot be written.
	AuditStrict bool `env:"AUDIT_STRICT, default=true"`

	JWT      JWTConfig
	Store    StoreConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Employee EmployeeConfig
	Tracing  TracingConfig
}

type JWTConfig struct {
	Key        string `env:"JWT_KEY"`
	Issuer     string `env:"JWT_ISSUER,   default=login-service"`
	Audience   string `env:"JWT_AUDIENCE, default=workforce"`
	BcryptCost int    `env:"BCRYPT_COST,  default=10"`
}

type StoreConfig struct {
	Driver string `env:"STORE_DRIVER, default=mongo"`
	DSN    string `env:"SQL_DSN,      default=file:login.db"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=login_service"`
}

type RedisConfig struct {
	// Addr empty disables the compensation journal.
	Addr       string `env:"REDIS_ADDR"`
	Password   string `env:"REDIS_PASSWORD"`
	DB         int    `env:"REDIS_DB,          default=0"`
	TLS        bool   `env:"REDIS_TLS,         default=false"`
	JournalKey string `env:"REDIS_JOURNAL_KEY, default=login:compensation:orphans"`
	JournalCap int64  `env:"REDIS_JOURNAL_CAP, default=1000"`
}

type EmployeeConfig struct {
	BaseURL string        `env:"EMPLOYEE_BASE_URL, default=http://localhost:8081"`
	Timeout time.Duration `env:"EMPLOYEE_TIMEOUT,  default=10s"`
}

type TracingConfig struct {
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME, default=login-service"`
}

// Load reads an optional .env file and then the process environment. Values
// already present in the environment win over the file.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports missing or contradictory settings as domain.ErrConfiguration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Key) == "" {
		return domain.Configuration("JWT_KEY is required")
	}

	switch c.Store.Driver {
	case StoreMongo:
		if c.Mongo.URI == "" {
			return domain.Configuration("MONGO_URI is required for the mongo store")
		}
	case StorePostgres, StoreSQLite:
		if c.Store.DSN == "" {
			return domain.Configuration("SQL_DSN is required for the sql store")
		}
	default:
		return domain.Configuration(fmt.Sprintf("unsupported STORE_DRIVER %q", c.Store.Driver))
	}

	if c.Employee.BaseURL == "" {
		return domain.Configuration("EMPLOYEE_BASE_URL is required")
	}
	if c.Employee.Timeout <= 0 {
		return domain.Configuration("EMPLOYEE_TIMEOUT must be positive")
	}
	return nil
}

// IsDevelopment reports whether human-friendly output should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "local"
}
