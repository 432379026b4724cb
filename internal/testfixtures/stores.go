package testfixtures

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/persistence/mongostore"
	"github.com/example/room-booking/internal/persistence/sqlite"
)

// MongoURIEnv names the variable that enables MongoDB-backed tests.
const MongoURIEnv = "BOOKING_TEST_MONGO_URI"

// NewSQLiteStore opens a migrated store in a temporary file. It is closed when
// the test ends.
func NewSQLiteStore(tb testing.TB) *sqlite.Storage {
	tb.Helper()

	ctx := context.Background()
	path := filepath.Join(tb.TempDir(), "booking.db")
	storage, err := sqlite.Open(ctx, sqlite.TestConfig(path))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	if err := storage.Migrate(ctx); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	tb.Cleanup(func() { _ = storage.Close() })
	return storage
}

// NewMongoStore opens a store on a fresh database, or skips the test when
// MongoURIEnv is unset. The database is dropped when the test ends.
func NewMongoStore(tb testing.TB) *mongostore.Store {
	tb.Helper()

	uri := os.Getenv(MongoURIEnv)
	if uri == "" {
		tb.Skipf("%s not set", MongoURIEnv)
	}
	ctx := context.Background()
	dbName := fmt.Sprintf("booking_fixture_%d", time.Now().UnixNano())
	store, err := mongostore.NewStore(ctx, uri, dbName)
	if err != nil {
		tb.Fatalf("failed to open mongo store: %v", err)
	}
	tb.Cleanup(func() {
		_ = store.Drop(context.Background())
		_ = store.Close()
	})
	return store
}

// Backends runs fn once per available backend as a subtest. MongoDB runs
// only when MongoURIEnv is set.
func Backends(t *testing.T, fn func(t *testing.T, store persistence.Store)) {
	t.Helper()
	t.Run("sqlite", func(t *testing.T) {
		fn(t, NewSQLiteStore(t))
	})
	t.Run("mongo", func(t *testing.T) {
		fn(t, NewMongoStore(t))
	})
}
