package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var allKeys = []string{
	"HTTP_PORT", "STORE", "SQLITE_DSN", "MONGO_URI", "MONGO_DATABASE",
	"JWT_SECRET", "JWT_TTL", "COOKIE_SECURE", "REDIS_URL", "TIMEZONE",
	"MAX_ACTIVE_RESERVATIONS", "CLOCK_OVERRIDE_ENABLED", "RATE_LIMIT_REQUESTS",
	"RATE_LIMIT_WINDOW", "CORS_ORIGIN", "RECONCILE_INTERVAL", "LOG_LEVEL",
	"ADMIN_NAME", "ADMIN_TEL", "ADMIN_EMAIL", "ADMIN_PASSWORD",
}

// clearEnv unsets every key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		full := envPrefix + key
		t.Setenv(full, "")
		if err := os.Unsetenv(full); err != nil {
			t.Fatalf("failed to unset %s: %v", full, err)
		}
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {
	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKING_JWT_SECRET", "super-secret")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 5000 {
			t.Fatalf("expected default HTTP port 5000, got %d", cfg.HTTPPort)
		}
		if cfg.Store != StoreSQLite || cfg.SQLiteDSN != "file:booking.db" {
			t.Fatalf("unexpected store defaults: %q %q", cfg.Store, cfg.SQLiteDSN)
		}
		if cfg.JWTTTL != 720*time.Hour {
			t.Fatalf("expected 30 day token lifetime, got %s", cfg.JWTTTL)
		}
		if cfg.MaxActiveReservations != 3 || cfg.RateLimitRequests != 100 || cfg.RateLimitWindow != 10*time.Minute {
			t.Fatalf("unexpected limits: %+v", cfg)
		}
		if cfg.Location != time.UTC || cfg.ClockOverrideEnabled || cfg.Admin.Enabled() {
			t.Fatalf("unexpected defaults: %+v", cfg)
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKING_STORE", "mongo")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "config: missing required environment variables: BOOKING_MONGO_URI, BOOKING_JWT_SECRET"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("reports invalid values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKING_JWT_SECRET", "secret")
		t.Setenv("BOOKING_HTTP_PORT", "-1")
		t.Setenv("BOOKING_TIMEZONE", "Mars/Olympus")
		t.Setenv("BOOKING_STORE", "postgres")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		for _, key := range []string{"BOOKING_HTTP_PORT", "BOOKING_TIMEZONE", "BOOKING_STORE"} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected %s in %q", key, err.Error())
			}
		}
	})

	t.Run("parses typed fields", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKING_JWT_SECRET", "secret-value")
		t.Setenv("BOOKING_HTTP_PORT", "9090")
		t.Setenv("BOOKING_JWT_TTL", "24h")
		t.Setenv("BOOKING_TIMEZONE", "Asia/Tokyo")
		t.Setenv("BOOKING_MAX_ACTIVE_RESERVATIONS", "5")
		t.Setenv("BOOKING_CLOCK_OVERRIDE_ENABLED", "true")
		t.Setenv("BOOKING_COOKIE_SECURE", "1")
		t.Setenv("BOOKING_ADMIN_EMAIL", "root@example.com")
		t.Setenv("BOOKING_ADMIN_PASSWORD", "rootpass")
		t.Setenv("BOOKING_ADMIN_TEL", "0999")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPPort != 9090 || cfg.JWTTTL != 24*time.Hour || cfg.MaxActiveReservations != 5 {
			t.Fatalf("unexpected values: %+v", cfg)
		}
		if cfg.Location.String() != "Asia/Tokyo" {
			t.Fatalf("expected Asia/Tokyo, got %s", cfg.Location)
		}
		if !cfg.ClockOverrideEnabled || !cfg.CookieSecure {
			t.Fatalf("expected boolean flags to be set")
		}
		if !cfg.Admin.Enabled() || cfg.Admin.Name != "Administrator" {
			t.Fatalf("unexpected admin account: %+v", cfg.Admin)
		}
	})
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("BOOKING_JWT_SECRET=from-file\nBOOKING_HTTP_PORT=7000\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("BOOKING_HTTP_PORT", "6000")

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("BOOKING_JWT_SECRET") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.JWTSecret != "from-file" {
		t.Fatalf("expected secret from file, got %q", cfg.JWTSecret)
	}
	if cfg.HTTPPort != 6000 {
		t.Fatalf("expected process env to win, got %d", cfg.HTTPPort)
	}
}
