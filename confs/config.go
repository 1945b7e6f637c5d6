package confs

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	BackendPostgres = "postgresql"
	BackendSQLite   = "sqlite"

	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// Config holds every setting the server reads from the environment.
type Config struct {
	ProjectName string `env:"PROJECT_NAME" envDefault:"users-server"`
	SecretKey   string `env:"SECRET_KEY" validate:"required,min=16"`
	Debug       bool   `env:"DEBUG" envDefault:"false"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:"0.0.0.0:8000" validate:"required"`
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8000"`

	DBBackend      string `env:"DB_BACKEND" envDefault:"postgresql" validate:"oneof=postgresql sqlite"`
	DBURL          string `env:"DB_URL"`
	DBHost         string `env:"DB_HOST"`
	DBPort         int    `env:"DB_PORT" envDefault:"5432"`
	DBUser         string `env:"DB_USER"`
	DBPassword     string `env:"DB_PASSWORD"`
	DBName         string `env:"DB_NAME" envDefault:"users"`
	DBEcho         bool   `env:"DB_ECHO" envDefault:"false"`
	DBMaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"100" validate:"min=1"`
	DBMaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" envDefault:"10" validate:"min=0"`

	APIKey string `env:"API_KEY" validate:"required"`

	StorageDir string `env:"STORAGE_DIR" envDefault:"uploads"`
	StorageURL string `env:"STORAGE_URL" envDefault:"/uploads"`
	StaticDir  string `env:"STATIC_DIR" envDefault:"static"`
	StaticURL  string `env:"STATIC_URL" envDefault:"/static"`

	AdminPrefix   string `env:"ADMIN_PREFIX" envDefault:"/admin" validate:"startswith=/"`
	AdminSiteName string `env:"ADMIN_SITE_NAME" envDefault:"Users Admin"`
	AdminSeedPath string `env:"ADMIN_SEED_PATH"`
	BcryptCost    int    `env:"BCRYPT_COST" envDefault:"10" validate:"min=4,max=31"`

	SessionBackend        string        `env:"SESSION_BACKEND" envDefault:"memory" validate:"oneof=memory redis"`
	SessionMaxAge         time.Duration `env:"SESSION_MAX_AGE" envDefault:"336h" validate:"gt=0"`
	SessionRememberMaxAge time.Duration `env:"SESSION_REMEMBER_MAX_AGE" envDefault:"720h" validate:"gt=0"`
	SessionSweepInterval  time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"5m" validate:"gt=0"`
	SessionCookieSecure   bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// LoadConfig loads a .env file if present, then parses and validates the
// environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Msg("could not load .env")
		}
	}
	return Parse()
}

// Parse reads the process environment without touching .env files.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	if c.DBBackend == BackendPostgres && c.DBURL == "" {
		if c.DBHost == "" || c.DBUser == "" || c.DBName == "" {
			return fmt.Errorf("missing required database configuration: DB_URL or (DB_HOST, DB_USER, DB_NAME)")
		}
	}
	if c.SessionRememberMaxAge < c.SessionMaxAge {
		return fmt.Errorf("SESSION_REMEMBER_MAX_AGE must not be shorter than SESSION_MAX_AGE")
	}
	return nil
}

// DSN returns the connection string for the configured backend.
func (c *Config) DSN() (string, error) {
	switch c.DBBackend {
	case BackendSQLite:
		if c.DBURL != "" {
			return c.DBURL, nil
		}
		name := c.DBName
		if !strings.HasSuffix(name, ".db") && name != ":memory:" {
			name += ".db"
		}
		// SQLite leaves foreign keys off unless asked per connection.
		return name + "?_foreign_keys=1", nil
	case BackendPostgres:
		if c.DBURL != "" {
			return c.DBURL, nil
		}
		sslMode := "require"
		if c.DBHost == "localhost" || c.DBHost == "127.0.0.1" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
			c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, sslMode), nil
	}
	return "", fmt.Errorf("unsupported DB_BACKEND: %s", c.DBBackend)
}
