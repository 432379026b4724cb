package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

// ResetTokenTTL bounds how long a password reset token stays valid.
const ResetTokenTTL = 10 * time.Minute

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// CredentialStore exposes the account operations required by the auth service.
type CredentialStore interface {
	CreateUser(ctx context.Context, creds UserCredentials) error
	UpdateCredentials(ctx context.Context, creds UserCredentials) error
	GetUser(ctx context.Context, id string) (User, error)
	GetCredentials(ctx context.Context, id string) (UserCredentials, error)
	GetCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error)
	// GetCredentialsByResetToken finds the account holding digest whose reset
	// window is still open at reference.
	GetCredentialsByResetToken(ctx context.Context, digest string, reference time.Time) (UserCredentials, error)
}

// Session is a bearer token issued to a user.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// TokenManager issues, verifies and revokes bearer tokens.
type TokenManager interface {
	Issue(ctx context.Context, user User) (Session, error)
	// Verify returns the subject of a valid, unrevoked token.
	Verify(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
}

// AuthResult captures the outcome of a successful sign-in.
type AuthResult struct {
	User    User
	Session Session
}

// AuthServiceDeps lists the collaborators of an AuthService.
type AuthServiceDeps struct {
	Credentials    CredentialStore
	Tokens         TokenManager
	HashPassword   PasswordHasher
	VerifyPassword PasswordVerifier
	IDGenerator    func() string
	Now            func() time.Time
	Logger         *slog.Logger
}

// AuthService coordinates sign-up, sign-in and password reset flows.
type AuthService struct {
	credentials    CredentialStore
	tokens         TokenManager
	hashPassword   PasswordHasher
	verifyPassword PasswordVerifier
	idGenerator    func() string
	now            func() time.Time
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(deps AuthServiceDeps) *AuthService {
	if deps.HashPassword == nil {
		deps.HashPassword = HashPassword
	}
	if deps.VerifyPassword == nil {
		deps.VerifyPassword = VerifyPassword
	}
	if deps.IDGenerator == nil {
		deps.IDGenerator = func() string { return "" }
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &AuthService{
		credentials:    deps.Credentials,
		tokens:         deps.Tokens,
		hashPassword:   deps.HashPassword,
		verifyPassword: deps.VerifyPassword,
		idGenerator:    deps.IDGenerator,
		now:            deps.Now,
		logger:         defaultLogger(deps.Logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

func (s *AuthService) ready() error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.credentials == nil {
		return fmt.Errorf("credential store not configured")
	}
	if s.tokens == nil {
		return fmt.Errorf("token manager not configured")
	}
	return nil
}

// Register creates a user account and signs it in. The role is always user.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (result AuthResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	input = normalizeRegisterInput(input)
	logger := s.loggerWith(ctx, "Register", "email", input.Email)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, "registration failed", "", err)
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "user registered")
	}()

	var user User
	user, err = s.createAccount(ctx, input, RoleUser)
	if err != nil {
		return
	}
	return s.signIn(ctx, user)
}

// EnsureAdmin creates an administrator account unless one already uses the
// email. It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, input RegisterInput) (user User, created bool, err error) {
	if err = s.ready(); err != nil {
		return
	}

	input = normalizeRegisterInput(input)
	logger := s.loggerWith(ctx, "EnsureAdmin", "email", input.Email)

	var existing UserCredentials
	existing, err = s.credentials.GetCredentialsByEmail(ctx, input.Email)
	switch {
	case err == nil:
		if !existing.User.IsAdmin() {
			logger.WarnContext(ctx, "bootstrap email belongs to a non-admin account")
		}
		return existing.User, false, nil
	case !isNotFound(err):
		err = storeUnavailable(err)
		return
	}

	user, err = s.createAccount(ctx, input, RoleAdmin)
	if err != nil {
		logOutcome(ctx, logger, "failed to bootstrap admin", "", err)
		return
	}
	logger.With("user_id", user.ID).InfoContext(ctx, "admin account created")
	return user, true, nil
}

func (s *AuthService) createAccount(ctx context.Context, input RegisterInput, role Role) (User, error) {
	if vErr := validateRegisterInput(input); vErr.HasErrors() {
		return User{}, vErr
	}

	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	user := User{
		ID:        s.idGenerator(),
		Name:      input.Name,
		Tel:       input.Tel,
		Email:     input.Email,
		Role:      role,
		CreatedAt: s.now(),
	}
	if err := s.credentials.CreateUser(ctx, UserCredentials{User: user, PasswordHash: hash}); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return User{}, &RuleError{Kind: ErrAlreadyExists, Message: MsgDuplicateField}
		}
		return User{}, storeUnavailable(err)
	}
	return user, nil
}

// Login checks an email and password and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (result AuthResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	email = strings.ToLower(strings.TrimSpace(email))
	logger := s.loggerWith(ctx, "Login", "email", email)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, "authentication failed", "", err)
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "authentication succeeded")
	}()

	if email == "" || password == "" {
		err = &ValidationError{Reason: ReasonInvalidInput, Message: "Please provide an email and password"}
		return
	}

	var creds UserCredentials
	creds, err = s.credentials.GetCredentialsByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			err = invalidCredentials()
			return
		}
		err = storeUnavailable(err)
		return
	}

	if verr := s.verifyPassword(creds.PasswordHash, password); verr != nil {
		err = invalidCredentials()
		return
	}

	return s.signIn(ctx, creds.User)
}

// Logout revokes token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.tokens.Revoke(ctx, token); err != nil {
		err = fmt.Errorf("revoke token: %w", err)
		s.loggerWith(ctx, "Logout").ErrorContext(ctx, "failed to revoke token", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	s.loggerWith(ctx, "Logout").InfoContext(ctx, "token revoked")
	return nil
}

// Authenticate resolves a bearer token to its current user. The role is read
// from the store so demotions take effect immediately.
func (s *AuthService) Authenticate(ctx context.Context, token string) (User, error) {
	if err := s.ready(); err != nil {
		return User{}, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return User{}, invalidToken("Not authorized to access this route")
	}

	subject, err := s.tokens.Verify(ctx, token)
	if err != nil {
		s.loggerWith(ctx, "Authenticate").DebugContext(ctx, "token rejected", "error", err)
		return User{}, invalidToken("Not authorized to access this route")
	}

	user, err := s.credentials.GetUser(ctx, subject)
	if err != nil {
		if isNotFound(err) {
			return User{}, invalidToken("Not authorized to access this route")
		}
		return User{}, storeUnavailable(err)
	}
	return user, nil
}

// Me returns the account of principal.
func (s *AuthService) Me(ctx context.Context, principal Principal) (User, error) {
	if err := s.ready(); err != nil {
		return User{}, err
	}
	user, err := s.credentials.GetUser(ctx, principal.UserID)
	if err != nil {
		return User{}, mapStoreError(err, msgUserNotFound)
	}
	return user, nil
}

// ForgotPassword issues a reset token for the account registered under email.
// Only the token digest is stored.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (token string, err error) {
	if err = s.ready(); err != nil {
		return
	}

	email = strings.ToLower(strings.TrimSpace(email))
	logger := s.loggerWith(ctx, "ForgotPassword", "email", email)
	defer func() {
		logOutcome(ctx, logger, "failed to issue reset token", "reset token issued", err)
	}()

	var creds UserCredentials
	creds, err = s.credentials.GetCredentialsByEmail(ctx, email)
	if err != nil {
		err = mapStoreError(err, "There is no user with that email")
		return
	}

	var digest string
	token, digest, err = NewResetToken()
	if err != nil {
		err = fmt.Errorf("generate reset token: %w", err)
		return
	}
	expire := s.now().Add(ResetTokenTTL)
	creds.ResetPasswordToken = &digest
	creds.ResetPasswordExpire = &expire

	if err = s.credentials.UpdateCredentials(ctx, creds); err != nil {
		token = ""
		err = storeUnavailable(err)
		return
	}
	return
}

// ResetPassword sets a new password using a reset token and signs the user in.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) (result AuthResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "ResetPassword")
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, "password reset failed", "", err)
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "password reset")
	}()

	var creds UserCredentials
	creds, err = s.credentials.GetCredentialsByResetToken(ctx, HashResetToken(strings.TrimSpace(token)), s.now())
	if err != nil {
		if isNotFound(err) {
			err = invalidToken("Invalid token")
			return
		}
		err = storeUnavailable(err)
		return
	}

	if len(password) < MinPasswordLength {
		vErr := &ValidationError{}
		vErr.add("password", fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
		err = vErr
		return
	}

	creds.PasswordHash, err = s.hashPassword(password)
	if err != nil {
		err = fmt.Errorf("hash password: %w", err)
		return
	}
	creds.ResetPasswordToken = nil
	creds.ResetPasswordExpire = nil

	if err = s.credentials.UpdateCredentials(ctx, creds); err != nil {
		err = storeUnavailable(err)
		return
	}
	return s.signIn(ctx, creds.User)
}

func (s *AuthService) signIn(ctx context.Context, user User) (AuthResult, error) {
	session, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}
	return AuthResult{User: user, Session: session}, nil
}

func invalidCredentials() error {
	return &RuleError{Kind: ErrInvalidCredentials, Message: "Invalid credentials"}
}

func invalidToken(message string) error {
	return &RuleError{Kind: ErrInvalidToken, Message: message}
}

func normalizeRegisterInput(input RegisterInput) RegisterInput {
	return RegisterInput{
		Name:     strings.TrimSpace(input.Name),
		Tel:      strings.TrimSpace(input.Tel),
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Password: input.Password,
	}
}

func validateRegisterInput(input RegisterInput) *ValidationError {
	vErr := &ValidationError{}
	if input.Name == "" {
		vErr.add("name", "Please add a name")
	}
	if input.Tel == "" {
		vErr.add("tel", "Please add a telephone number")
	}
	switch {
	case input.Email == "":
		vErr.add("email", "Please add an email")
	case !emailPattern.MatchString(input.Email):
		vErr.add("email", "Please add a valid email")
	}
	switch {
	case input.Password == "":
		vErr.add("password", "Please add a password")
	case len(input.Password) < MinPasswordLength:
		vErr.add("password", fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	return vErr
}
