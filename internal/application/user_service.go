package application

import (
	"context"
	"fmt"
	"log/slog"
)

// UserDirectory captures the persistence operations needed by the user service.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	// DeleteUser removes the user and every reservation it owns.
	DeleteUser(ctx context.Context, id string) error
}

// DeleteResult reports the outcome of a user deletion.
type DeleteResult struct {
	// SelfDeleted is set when the actor removed their own account and the
	// caller's credential must be invalidated.
	SelfDeleted bool
}

const msgUserNotFound = "User not found"

// UserService orchestrates authorization and persistence for users.
type UserService struct {
	users  UserDirectory
	logger *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserDirectory, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: defaultLogger(logger)}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

func (s *UserService) ready() error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return fmt.Errorf("user repository not configured")
	}
	return nil
}

// ListUsers returns every account to administrators.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) (users []User, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "ListUsers", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, "failed to list users", "", err)
		}
	}()

	if !principal.IsAdmin {
		err = forbidden("Not authorized to list users")
		return
	}
	users, err = s.users.ListUsers(ctx)
	if err != nil {
		err = storeUnavailable(err)
	}
	return
}

// GetUser returns a user to itself or an administrator. A missing user is
// reported before ownership.
func (s *UserService) GetUser(ctx context.Context, principal Principal, userID string) (user User, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "GetUser", "principal_id", principal.UserID, "user_id", userID)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, "failed to get user", "", err)
		}
	}()

	user, err = s.users.GetUser(ctx, userID)
	if err != nil {
		err = mapStoreError(err, msgUserNotFound)
		return
	}
	if err = authorize(principal, user.ID, "Not authorized to access this user"); err != nil {
		user = User{}
	}
	return
}

// DeleteUser removes a user and its reservations for the user itself or an administrator.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) (result DeleteResult, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "DeleteUser", "principal_id", principal.UserID, "user_id", userID)
	defer func() {
		logOutcome(ctx, logger, "failed to delete user", "user deleted", err)
	}()

	var user User
	user, err = s.users.GetUser(ctx, userID)
	if err != nil {
		err = mapStoreError(err, msgUserNotFound)
		return
	}
	if err = authorize(principal, user.ID, "Not authorized to delete this user"); err != nil {
		return
	}
	if err = s.users.DeleteUser(ctx, user.ID); err != nil {
		err = mapStoreError(err, msgUserNotFound)
		return
	}

	result.SelfDeleted = principal.UserID == user.ID
	return
}
