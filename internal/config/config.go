package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DevJWTSecret is only accepted outside release mode.
const DevJWTSecret = "default_super_secret_key"

type Config struct {
	App struct {
		Name            string        `envconfig:"APP_NAME" default:"Supplement Inventory"`
		Port            int           `envconfig:"PORT" default:"8080"`
		GinMode         string        `envconfig:"GIN_MODE" default:"debug"`
		ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
		UploadDir       string        `envconfig:"UPLOAD_DIR" default:"uploads/images"`
		AllowedOrigins  []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://127.0.0.1:5173"`
	}

	DB struct {
		Host            string        `envconfig:"DB_HOST" default:"localhost"`
		Port            int           `envconfig:"DB_PORT" default:"5432"`
		User            string        `envconfig:"DB_USER" default:"postgres"`
		Password        string        `envconfig:"DB_PASSWORD" default:"postgres"`
		Name            string        `envconfig:"DB_NAME" default:"inventory"`
		SSLMode         string        `envconfig:"DB_SSLMODE" default:"disable"`
		MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
		MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
		ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	}

	Auth struct {
		JWTSecret string        `envconfig:"JWT_SECRET" default:"default_super_secret_key"`
		TokenTTL  time.Duration `envconfig:"JWT_TTL" default:"1h"`
	}

	Log struct {
		Level  string `envconfig:"LOG_LEVEL" default:"info"`
		Format string `envconfig:"LOG_FORMAT" default:"text"`
	}

	Inventory struct {
		LowStockThreshold int `envconfig:"LOW_STOCK_THRESHOLD" default:"10"`
		NearExpiryMonths  int `envconfig:"NEAR_EXPIRY_MONTHS" default:"3"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name, c.DB.SSLMode)
}

func (c *Config) IsRelease() bool {
	return c.App.GinMode == "release"
}

// Load reads configs/.env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load("configs/.env"); err != nil {
		slog.Debug("no configs/.env file loaded", "error", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.IsRelease() && c.Auth.JWTSecret == DevJWTSecret {
		return errors.New("JWT_SECRET must be set in release mode")
	}
	if c.Inventory.LowStockThreshold < 0 {
		return errors.New("LOW_STOCK_THRESHOLD must not be negative")
	}
	if c.Inventory.NearExpiryMonths < 1 {
		return errors.New("NEAR_EXPIRY_MONTHS must be at least 1")
	}
	return nil
}
