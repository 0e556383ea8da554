package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const minSecretKeyLength = 32

type Config struct {
	Env       string          `env:"APP_ENV" envDefault:"production"`
	HTTP      HTTPConfig      `envPrefix:"HTTP_"`
	GRPC      GRPCConfig      `envPrefix:"GRPC_"`
	DB        DBConfig        `envPrefix:"DB_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	Auth      AuthConfig
	Log       LogConfig       `envPrefix:"LOG_"`
	Telemetry TelemetryConfig `envPrefix:"OTEL_"`
	Bootstrap BootstrapConfig `envPrefix:"BOOTSTRAP_ADMIN_"`
}

type HTTPConfig struct {
	Addr            string        `env:"ADDR" envDefault:":8000"`
	APIPrefix       string        `env:"API_PREFIX" envDefault:"/astrellect/v1"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type GRPCConfig struct {
	Enabled bool   `env:"ENABLED" envDefault:"true"`
	Addr    string `env:"ADDR" envDefault:":50055"`
}

type DBConfig struct {
	Host            string        `env:"HOST" envDefault:"localhost"`
	Port            int           `env:"PORT" envDefault:"5432"`
	User            string        `env:"USER" envDefault:"postgres"`
	Password        string        `env:"PASSWORD"`
	Name            string        `env:"NAME" envDefault:"hr"`
	SSLMode         string        `env:"SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"30m"`
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s password=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Name, c.Password, c.SSLMode)
}

type RedisConfig struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type AuthConfig struct {
	SecretKey          string `env:"SECRET_KEY"`
	Algorithm          string `env:"JWT_ALGORITHM" envDefault:"HS256"`
	Issuer             string `env:"JWT_ISSUER" envDefault:"hr_project"`
	AccessTokenMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"30"`
	SystemAPIKey       string `env:"SYSTEM_API_KEY"`
	CookieSecure       bool   `env:"COOKIE_SECURE" envDefault:"false"`
	LoginRatePerMinute int    `env:"LOGIN_RATE_PER_MINUTE" envDefault:"10"`
	LoginBurst         int    `env:"LOGIN_BURST" envDefault:"5"`
}

func (c AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenMinutes) * time.Minute
}

type LogConfig struct {
	Level      string `env:"LEVEL"`
	File       string `env:"FILE"`
	MaxSizeMB  int    `env:"MAX_SIZE_MB" envDefault:"10"`
	MaxBackups int    `env:"MAX_BACKUPS" envDefault:"5"`
	MaxAgeDays int    `env:"MAX_AGE_DAYS" envDefault:"30"`
	Compress   bool   `env:"COMPRESS" envDefault:"true"`
}

type TelemetryConfig struct {
	Endpoint    string `env:"EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"hr-api"`
}

type BootstrapConfig struct {
	Email     string `env:"EMAIL"`
	Password  string `env:"PASSWORD"`
	FirstName string `env:"FIRST_NAME" envDefault:"System"`
	LastName  string `env:"LAST_NAME" envDefault:"Admin"`
}

func (c BootstrapConfig) Enabled() bool {
	return c.Email != "" && c.Password != ""
}

func (c *Config) IsDev() bool {
	return strings.EqualFold(c.Env, "development")
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("load .env file: %w", err)
		}
	}
	return parse(env.Options{})
}

// FromMap parses configuration from the given variables only.
func FromMap(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.HTTP.APIPrefix = "/" + strings.Trim(cfg.HTTP.APIPrefix, "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Auth.SecretKey) < minSecretKeyLength {
		errs = append(errs, fmt.Errorf("SECRET_KEY must be at least %d bytes", minSecretKeyLength))
	}
	switch c.Auth.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		errs = append(errs, fmt.Errorf("JWT_ALGORITHM %q is not supported", c.Auth.Algorithm))
	}
	if c.Auth.AccessTokenMinutes <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive"))
	}
	if c.Auth.LoginRatePerMinute <= 0 || c.Auth.LoginBurst <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE_PER_MINUTE and LOGIN_BURST must be positive"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q is not supported", c.Log.Level))
	}
	if (c.Bootstrap.Email == "") != (c.Bootstrap.Password == "") {
		errs = append(errs, errors.New("BOOTSTRAP_ADMIN_EMAIL and BOOTSTRAP_ADMIN_PASSWORD must be set together"))
	}
	return errors.Join(errs...)
}
