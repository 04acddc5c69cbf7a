package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

const (
	defaultAppName        = "AccountGate"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultJWTExpiration  = time.Hour
	defaultJWTIssuer      = "accountgate"
	defaultHasher         = "bcrypt"
	defaultBcryptCost     = 10
	defaultSMTPPort       = 587
	defaultLoginLimit     = 5
	defaultResendLimit    = 5
)

// Config captures application runtime configuration.
type Config struct {
	AppName         string        `koanf:"app-name"`
	AppEnv          string        `koanf:"app-env"`
	Port            string        `koanf:"port"`
	LogLevel        string        `koanf:"log-level"`
	DatabaseURL     string        `koanf:"database-url"`
	RedisURL        string        `koanf:"redis-url"`
	ShutdownPeriod  time.Duration `koanf:"shutdown-timeout"`
	IdempotencyTTL  time.Duration `koanf:"idempotency-ttl"`
	JWTSecret       string        `koanf:"jwt-secret"`
	JWTExpiration   time.Duration `koanf:"jwt-expiration"`
	JWTIssuer       string        `koanf:"jwt-issuer"`
	PasswordHasher  string        `koanf:"password-hasher"`
	BcryptCost      int           `koanf:"bcrypt-cost"`
	SMTP            SMTP          `koanf:"smtp"`
	LoginRateLimit  int           `koanf:"login-rate-limit"`
	ResendRateLimit int           `koanf:"resend-rate-limit"`
}

// SMTP holds outbound mail settings. An empty Host disables email delivery.
type SMTP struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
}

var defaults = map[string]any{
	"app-name":          defaultAppName,
	"app-env":           defaultAppEnv,
	"port":              defaultPort,
	"log-level":         defaultLogLevel,
	"shutdown-timeout":  defaultShutdownDelay.String(),
	"idempotency-ttl":   defaultIdempotencyTTL.String(),
	"jwt-expiration":    defaultJWTExpiration.String(),
	"jwt-issuer":        defaultJWTIssuer,
	"password-hasher":   defaultHasher,
	"bcrypt-cost":       defaultBcryptCost,
	"smtp.port":         defaultSMTPPort,
	"login-rate-limit":  defaultLoginLimit,
	"resend-rate-limit": defaultResendLimit,
}

// envKeys maps environment variables onto config keys.
var envKeys = map[string]string{
	"APP_NAME":          "app-name",
	"APP_ENV":           "app-env",
	"PORT":              "port",
	"LOG_LEVEL":         "log-level",
	"DATABASE_URL":      "database-url",
	"REDIS_URL":         "redis-url",
	"SHUTDOWN_TIMEOUT":  "shutdown-timeout",
	"IDEMPOTENCY_TTL":   "idempotency-ttl",
	"JWT_SECRET":        "jwt-secret",
	"JWT_EXPIRATION":    "jwt-expiration",
	"JWT_ISSUER":        "jwt-issuer",
	"PASSWORD_HASHER":   "password-hasher",
	"BCRYPT_COST":       "bcrypt-cost",
	"SMTP_HOST":         "smtp.host",
	"SMTP_PORT":         "smtp.port",
	"SMTP_USERNAME":     "smtp.username",
	"SMTP_PASSWORD":     "smtp.password",
	"SMTP_FROM":         "smtp.from",
	"LOGIN_RATE_LIMIT":  "login-rate-limit",
	"RESEND_RATE_LIMIT": "resend-rate-limit",
}

// secondsKeys take precedence over their duration counterparts when set.
var secondsKeys = map[string]string{
	"SHUTDOWN_TIMEOUT_SECONDS": "shutdown-timeout",
	"IDEMPOTENCY_TTL_SECONDS":  "idempotency-ttl",
}

// RegisterFlags declares the command-line overrides on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("port", defaultPort, "HTTP listen port")
	fs.String("log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	fs.String("database-url", "", "PostgreSQL connection URL")
	fs.String("redis-url", "", "Redis connection URL")
	fs.String("app-env", defaultAppEnv, "application environment")
}

// Load reads configuration from defaults, an optional YAML file, the
// environment and finally any flags changed on fs. path and fs may be empty.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	return load(path, fs, os.LookupEnv)
}

func load(path string, fs *pflag.FlagSet, lookup func(string) (string, bool)) (Config, error) {
	k := koanf.New(".")
	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return Config{}, oops.Code("CONFIG_DEFAULTS_FAILED").With("key", key).Wrap(err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_FILE_INVALID").With("path", path).Wrap(err)
		}
	}

	for env, key := range envKeys {
		if v, ok := lookup(env); ok && v != "" {
			if err := k.Set(key, v); err != nil {
				return Config{}, oops.Code("CONFIG_ENV_INVALID").With("env", env).Wrap(err)
			}
		}
	}
	for env, key := range secondsKeys {
		v, ok := lookup(env)
		if !ok || v == "" {
			continue
		}
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", env, err)
		}
		if err := k.Set(key, (time.Duration(seconds) * time.Second).String()); err != nil {
			return Config{}, oops.Code("CONFIG_ENV_INVALID").With("env", env).Wrap(err)
		}
	}

	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return Config{}, oops.Code("CONFIG_FLAGS_INVALID").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	if c.JWTExpiration <= 0 {
		return fmt.Errorf("JWT_EXPIRATION must be positive")
	}
	if c.IsDevelopment() {
		return nil
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL must be set")
	}
	return nil
}

// IsDevelopment reports whether the service runs in a local environment.
func (c Config) IsDevelopment() bool {
	switch strings.ToLower(c.AppEnv) {
	case "", "dev", "development", "local", "test":
		return true
	}
	return false
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}
