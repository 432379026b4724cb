package application

import "errors"

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique field collides with an existing record.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when login material does not match an account.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrInvalidToken is returned for malformed, expired or revoked tokens.
	ErrInvalidToken = errors.New("application: invalid token")
	// ErrStoreUnavailable is returned when the backing store fails.
	ErrStoreUnavailable = errors.New("application: store unavailable")
)

// RuleError pairs a sentinel with the message shown to the caller.
type RuleError struct {
	Kind    error
	Message string
}

func (e *RuleError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return "rule violated"
}

func (e *RuleError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Kind
}

func notFound(message string) error {
	return &RuleError{Kind: ErrNotFound, Message: message}
}

func forbidden(message string) error {
	return &RuleError{Kind: ErrUnauthorized, Message: message}
}

// Validation reasons recorded on rejected reservations.
const (
	ReasonPastDate      = "past_date"
	ReasonAlreadyBooked = "already_booked"
	ReasonRoomBooked    = "room_booked"
	ReasonQuotaExceeded = "quota_exceeded"
	ReasonImmutableUser = "immutable_user"
	ReasonImmutableRoom = "immutable_room"
	ReasonInvalidInput  = "invalid_input"
)

// ValidationError captures business rule and field level issues that callers can surface to users.
type ValidationError struct {
	Reason      string
	Message     string
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if v.Message != "" {
		return v.Message
	}
	return "validation failed"
}

// HasErrors reports whether a rule message or any field level issue was recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && (v.Message != "" || len(v.FieldErrors) > 0)
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
	if v.Reason == "" {
		v.Reason = ReasonInvalidInput
	}
}

func rejected(reason, message string) *ValidationError {
	return &ValidationError{Reason: reason, Message: message}
}

// MessageOf returns the caller-facing message carried by err, if any.
func MessageOf(err error) string {
	var rErr *RuleError
	if errors.As(err, &rErr) && rErr.Message != "" {
		return rErr.Message
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) && vErr.Message != "" {
		return vErr.Message
	}
	return ""
}
