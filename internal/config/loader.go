package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "BOOKING_"

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

// AdminAccount is the optional administrator created on startup.
type AdminAccount struct {
	Name     string
	Tel      string
	Email    string
	Password string
}

// Enabled reports whether both login fields were supplied.
func (a AdminAccount) Enabled() bool {
	return a.Email != "" && a.Password != ""
}

// Config captures environment driven configuration values for the booking service.
type Config struct {
	HTTPPort              int
	Store                 string
	SQLiteDSN             string
	MongoURI              string
	MongoDatabase         string
	JWTSecret             string
	JWTTTL                time.Duration
	CookieSecure          bool
	RedisURL              string
	Location              *time.Location
	MaxActiveReservations int
	ClockOverrideEnabled  bool
	RateLimitRequests     int
	RateLimitWindow       time.Duration
	CORSOrigin            string
	ReconcileInterval     time.Duration
	LogLevel              string
	Admin                 AdminAccount
}

// LoadDotEnv loads KEY=value files into the process environment. Missing
// files are skipped and variables already set win.
func LoadDotEnv(files ...string) error {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: load %s: %w", file, err)
		}
	}
	return nil
}

// Load parses configuration values from the current process environment.
//
// Optional values fall back to defaults; every missing or malformed key is
// collected so one error reports all of them.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:              5000,
		Store:                 StoreSQLite,
		SQLiteDSN:             "file:booking.db",
		MongoDatabase:         "booking",
		JWTTTL:                30 * 24 * time.Hour,
		Location:              time.UTC,
		MaxActiveReservations: 3,
		RateLimitRequests:     100,
		RateLimitWindow:       10 * time.Minute,
		CORSOrigin:            "*",
		ReconcileInterval:     time.Hour,
		LogLevel:              "info",
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 2)

	positiveInt := func(key string, dst *int) {
		if value := env(key); value != "" {
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				invalid = append(invalid, envPrefix+key)
				return
			}
			*dst = n
		}
	}
	positiveDuration := func(key string, dst *time.Duration) {
		if value := env(key); value != "" {
			d, err := time.ParseDuration(value)
			if err != nil || d <= 0 {
				invalid = append(invalid, envPrefix+key)
				return
			}
			*dst = d
		}
	}
	boolean := func(key string, dst *bool) {
		if value := env(key); value != "" {
			b, err := strconv.ParseBool(value)
			if err != nil {
				invalid = append(invalid, envPrefix+key)
				return
			}
			*dst = b
		}
	}
	str := func(key string, dst *string) {
		if value := env(key); value != "" {
			*dst = value
		}
	}

	positiveInt("HTTP_PORT", &cfg.HTTPPort)

	if store := strings.ToLower(env("STORE")); store != "" {
		switch store {
		case StoreSQLite, StoreMongo:
			cfg.Store = store
		default:
			invalid = append(invalid, envPrefix+"STORE")
		}
	}
	str("SQLITE_DSN", &cfg.SQLiteDSN)
	str("MONGO_URI", &cfg.MongoURI)
	str("MONGO_DATABASE", &cfg.MongoDatabase)
	if cfg.Store == StoreMongo && cfg.MongoURI == "" {
		missing = append(missing, envPrefix+"MONGO_URI")
	}

	if secret := env("JWT_SECRET"); secret == "" {
		missing = append(missing, envPrefix+"JWT_SECRET")
	} else {
		cfg.JWTSecret = secret
	}
	positiveDuration("JWT_TTL", &cfg.JWTTTL)
	boolean("COOKIE_SECURE", &cfg.CookieSecure)
	str("REDIS_URL", &cfg.RedisURL)

	if tz := env("TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			invalid = append(invalid, envPrefix+"TIMEZONE")
		} else {
			cfg.Location = loc
		}
	}

	positiveInt("MAX_ACTIVE_RESERVATIONS", &cfg.MaxActiveReservations)
	boolean("CLOCK_OVERRIDE_ENABLED", &cfg.ClockOverrideEnabled)
	positiveInt("RATE_LIMIT_REQUESTS", &cfg.RateLimitRequests)
	positiveDuration("RATE_LIMIT_WINDOW", &cfg.RateLimitWindow)
	str("CORS_ORIGIN", &cfg.CORSOrigin)
	positiveDuration("RECONCILE_INTERVAL", &cfg.ReconcileInterval)

	if level := strings.ToLower(env("LOG_LEVEL")); level != "" {
		switch level {
		case "debug", "info", "warn", "warning", "error":
			cfg.LogLevel = level
		default:
			invalid = append(invalid, envPrefix+"LOG_LEVEL")
		}
	}

	str("ADMIN_NAME", &cfg.Admin.Name)
	str("ADMIN_TEL", &cfg.Admin.Tel)
	str("ADMIN_EMAIL", &cfg.Admin.Email)
	str("ADMIN_PASSWORD", &cfg.Admin.Password)
	if cfg.Admin.Enabled() {
		if cfg.Admin.Name == "" {
			cfg.Admin.Name = "Administrator"
		}
		if cfg.Admin.Tel == "" {
			missing = append(missing, envPrefix+"ADMIN_TEL")
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("config: invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + key))
}
