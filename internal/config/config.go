package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the API server and the admin CLI.
type Config struct {
	AppEnv          string        `envconfig:"APP_ENV" default:"development"`
	Port            string        `envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	RequestTimeout  time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"10s"`
	ShutdownTimeout time.Duration `envconfig:"APP_SHUTDOWN_TIMEOUT" default:"10s"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	ClientOrigins   []string      `envconfig:"CLIENT_ORIGINS" default:"http://localhost:3000"`

	DatabaseURL    string `envconfig:"DATABASE_URL"`
	DBMaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`

	JWTSecret    string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL     time.Duration `envconfig:"TOKEN_TTL" default:"720h"`
	BcryptCost   int           `envconfig:"BCRYPT_COST" default:"10"`
	CookieSecure *bool         `envconfig:"COOKIE_SECURE"`

	GateTimezone string `envconfig:"GATE_TIMEZONE" default:"UTC"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	LoginRateLimit int `envconfig:"LOGIN_RATE_LIMIT" default:"10"`

	PhotoBucket string `envconfig:"PHOTO_BUCKET"`
	PhotoPrefix string `envconfig:"PHOTO_PREFIX" default:"profile-photos/"`
	AWSRegion   string `envconfig:"AWS_REGION" default:"us-east-1"`
	PhotoDir    string `envconfig:"PHOTO_DIR" default:"./uploads"`
	// S3Endpoint points the client at an S3-compatible server such as MinIO.
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`
}

// MinSecretLen is the shortest accepted JWT signing secret.
const MinSecretLen = 32

// Load reads a local .env file if present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	if len(c.JWTSecret) < MinSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", MinSecretLen)
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("GATE_TIMEZONE: %w", err)
	}
	return nil
}

// IsProduction reports whether the server runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// Location resolves the timezone that defines a calendar day for the
// questionnaire gate.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.GateTimezone)
}

// SecureCookies reports whether auth cookies carry the Secure flag.
// Defaults to true in production when COOKIE_SECURE is unset.
func (c *Config) SecureCookies() bool {
	if c.CookieSecure != nil {
		return *c.CookieSecure
	}
	return c.IsProduction()
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
