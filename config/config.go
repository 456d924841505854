package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// MinSecretLength is the minimum size of the token signing key in bytes.
const MinSecretLength = 32

type App struct {
	// Auth
	JWTSecretKey          string `envconfig:"JWT_SECRET_KEY" required:"true"`
	AccessTokenTTLMinutes int    `envconfig:"ACCESS_TOKEN_TTL_MINUTES" default:"1440"`

	// DB
	DatabaseURL              string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxOpenConns           int    `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	DBMaxIdleConns           int    `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	DBConnMaxLifetimeMinutes int    `envconfig:"DB_CONN_MAX_LIFETIME_MINUTES" default:"30"`

	// HTTP
	HTTPAddr       string `envconfig:"HTTP_ADDR" default:":8080"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS"`
	GinMode        string `envconfig:"GIN_MODE" default:"release"`

	// Bootstrap admin
	DefaultAdminEmail    string `envconfig:"DEFAULT_ADMIN_EMAIL"`
	DefaultAdminPassword string `envconfig:"DEFAULT_ADMIN_PASSWORD"`
	DefaultAdminFullName string `envconfig:"DEFAULT_ADMIN_FULL_NAME" default:"Default Admin"`

	// Rate limiting
	DisableRateLimit   bool `envconfig:"DISABLE_RATE_LIMIT" default:"false"`
	RateLimitCacheSize int  `envconfig:"RATE_LIMIT_CACHE_SIZE" default:"10000"`

	// Pagination
	DefaultReadQueryLimit int `envconfig:"DEFAULT_READ_QUERY_LIMIT" default:"20"`
	ReadQueryMaxLimit     int `envconfig:"READ_QUERY_MAX_LIMIT" default:"100"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

// Load reads .env (if present) and the environment.
func Load() (App, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using system environment variables")
	}
	var c App
	if err := envconfig.Process("", &c); err != nil {
		return App{}, err
	}
	if err := c.Validate(); err != nil {
		return App{}, err
	}
	return c, nil
}

func (c App) Validate() error {
	if len(c.JWTSecretKey) < MinSecretLength {
		return fmt.Errorf("JWT_SECRET_KEY must be at least %d bytes", MinSecretLength)
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if c.AccessTokenTTLMinutes <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL_MINUTES must be positive")
	}
	if c.DefaultReadQueryLimit < 1 || c.ReadQueryMaxLimit < c.DefaultReadQueryLimit {
		return fmt.Errorf("invalid read query limits: default %d, max %d", c.DefaultReadQueryLimit, c.ReadQueryMaxLimit)
	}
	return nil
}

func (c App) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

func (c App) DBConnMaxLifetime() time.Duration {
	return time.Duration(c.DBConnMaxLifetimeMinutes) * time.Minute
}

// Origins splits ALLOWED_ORIGINS into a lookup set.
func (c App) Origins() map[string]bool {
	allowed := map[string]bool{}
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowed[origin] = true
		}
	}
	return allowed
}

// HasDefaultAdmin reports whether bootstrap admin credentials are configured.
func (c App) HasDefaultAdmin() bool {
	return c.DefaultAdminEmail != "" && c.DefaultAdminPassword != ""
}
