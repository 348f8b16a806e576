package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/contactbook/contactbook-go/internal/crypto"
)

type Config struct {
	Port                string
	Env                 string
	DBDriver            string
	DatabaseDSN         string
	EmailMatch          string
	TokenTTL            time.Duration
	RateLimitRPS        float64
	RateLimitBurst      int
	HashParams          crypto.HashParams
	LogLevel            slog.Level
	LogFormat           string
	RegistrationEnabled bool
}

// IsProduction reports whether the service runs with ENV=production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads the configuration from the environment. Malformed values are
// reported together rather than silently replaced by defaults.
func Load() (Config, error) {
	var errs []error

	cfg := Config{
		Port:                getEnv("PORT", "8080"),
		Env:                 getEnv("ENV", "development"),
		DBDriver:            strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		EmailMatch:          strings.ToLower(getEnv("CONTACT_EMAIL_MATCH", "exact")),
		TokenTTL:            getDuration("TOKEN_TTL", 0, &errs),
		RateLimitRPS:        getFloat("RATE_LIMIT_RPS", 5, &errs),
		RateLimitBurst:      getInt("RATE_LIMIT_BURST", 10, &errs),
		RegistrationEnabled: getBool("REGISTRATION_ENABLED", true, &errs),
	}

	defaultDSN := "root:password@tcp(127.0.0.1:3306)/contactbook?parseTime=true"
	if cfg.DBDriver == "sqlite" {
		defaultDSN = "contactbook.db?_pragma=busy_timeout(5000)"
	}
	cfg.DatabaseDSN = getEnv("DATABASE_DSN", defaultDSN)

	defaults := crypto.DefaultHashParams()
	cfg.HashParams = crypto.HashParams{
		Memory:      uint32(getUint("ARGON2_MEMORY_KIB", uint64(defaults.Memory), 32, &errs)),
		Iterations:  uint32(getUint("ARGON2_ITERATIONS", uint64(defaults.Iterations), 32, &errs)),
		Parallelism: uint8(getUint("ARGON2_PARALLELISM", uint64(defaults.Parallelism), 8, &errs)),
		SaltLength:  defaults.SaltLength,
		KeyLength:   defaults.KeyLength,
	}

	defaultFormat := "text"
	if cfg.IsProduction() {
		defaultFormat = "json"
	}
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", defaultFormat))

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}

	return cfg, nil
}

func (c Config) validate() []error {
	var errs []error

	if c.DBDriver != "mysql" && c.DBDriver != "sqlite" {
		errs = append(errs, fmt.Errorf("DB_DRIVER: unsupported driver %q", c.DBDriver))
	}
	if c.EmailMatch != "exact" && c.EmailMatch != "substring" {
		errs = append(errs, fmt.Errorf("CONTACT_EMAIL_MATCH: must be exact or substring, got %q", c.EmailMatch))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT: must be text or json, got %q", c.LogFormat))
	}
	if c.TokenTTL < 0 {
		errs = append(errs, errors.New("TOKEN_TTL: must not be negative"))
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 1 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS must be >= 0 and RATE_LIMIT_BURST >= 1"))
	}
	if err := c.HashParams.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("ARGON2_*: %w", err))
	}

	if c.IsProduction() {
		d := crypto.DefaultHashParams()
		if c.HashParams.Memory < d.Memory || c.HashParams.Iterations < d.Iterations {
			errs = append(errs, errors.New("ARGON2_* must not be weakened below the defaults in production"))
		}
		if c.DBDriver == "sqlite" {
			slog.Warn("running production on sqlite")
		}
	}

	return errs
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

// getUint parses an unsigned value that must fit in bits, so negative or
// overflowing input is an error instead of wrapping around.
func getUint(key string, fallback uint64, bits int, errs *[]error) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseUint(v, 10, bits)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64, errs *[]error) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return f
}

func getBool(key string, fallback bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}
