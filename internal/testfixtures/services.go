package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/auth"
	"github.com/example/room-booking/internal/clock"
)

// Repositories is everything the application services need from storage.
type Repositories interface {
	application.ReservationRepository
	application.RoomRepository
	application.UserDirectory
	application.CredentialStore
}

// fastArgon2 keeps password hashing cheap in tests.
var fastArgon2 = application.Argon2idParams{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// FastHashPassword hashes with minimal argon2id cost. The result verifies
// with application.VerifyPassword.
func FastHashPassword(password string) (string, error) {
	return application.CreatePasswordHash(password, fastArgon2)
}

// ServiceFactory constructs application services that share a deterministic
// clock and id sequence.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	// Calendar is the booking clock derived from Clock. Tests may pin its day.
	Calendar *clock.Overridable
	Logger   *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Logger == nil {
		factory.Logger = slog.New(slog.DiscardHandler)
	}
	factory.Calendar = clock.New(time.UTC, factory.Clock.NowFunc())
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(c *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = c
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// NewReservationService builds a reservation service over repos allowing
// maxActive active reservations per user.
func (f *ServiceFactory) NewReservationService(repos Repositories, maxActive int) *application.ReservationService {
	return application.NewReservationService(application.ReservationServiceDeps{
		Reservations: repos,
		Rooms:        repos,
		Clock:        f.Calendar,
		IDGenerator:  f.IDGenerator.NextFunc(),
		Now:          f.Clock.NowFunc(),
		MaxActive:    maxActive,
		Logger:       f.Logger,
	})
}

// NewRoomService builds a room service over repos.
func (f *ServiceFactory) NewRoomService(repos Repositories) *application.RoomService {
	return application.NewRoomServiceWithLogger(repos, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewUserService builds a user service over repos.
func (f *ServiceFactory) NewUserService(repos Repositories) *application.UserService {
	return application.NewUserService(repos, f.Logger)
}

// NewAuthService builds an auth service over repos with an in-memory token
// denylist. The token manager is returned so tests can inspect revocation.
func (f *ServiceFactory) NewAuthService(repos Repositories) (*application.AuthService, *auth.Manager, error) {
	now := f.Clock.NowFunc()
	tokens, err := auth.NewManager(auth.Config{Secret: "fixture-secret", TTL: time.Hour}, auth.NewMemoryDenylist(time.Hour, now), now)
	if err != nil {
		return nil, nil, err
	}
	service := application.NewAuthService(application.AuthServiceDeps{
		Credentials:    repos,
		Tokens:         tokens,
		HashPassword:   FastHashPassword,
		VerifyPassword: application.VerifyPassword,
		IDGenerator:    f.IDGenerator.NextFunc(),
		Now:            now,
		Logger:         f.Logger,
	})
	return service, tokens, nil
}
