package domain

import "errors"

// Error kinds. Every error returned by services wraps exactly one of these so
// the transport layer can map it to a status code with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnavailable     = errors.New("unavailable")
	ErrInternal        = errors.New("internal error")
)

// Error carries a caller-visible message alongside its kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

// Invalid returns a validation error with the given message.
func Invalid(msg string) error { return &Error{Kind: ErrValidation, Msg: msg} }

// Unauthenticated returns an authentication error with the given message.
func Unauthenticated(msg string) error { return &Error{Kind: ErrUnauthenticated, Msg: msg} }

// Forbidden returns an authorization error with the given message.
func Forbidden(msg string) error { return &Error{Kind: ErrForbidden, Msg: msg} }

// NotFound returns a not-found error with the given message.
func NotFound(msg string) error { return &Error{Kind: ErrNotFound, Msg: msg} }

// Conflict returns a uniqueness or state conflict with the given message.
func Conflict(msg string) error { return &Error{Kind: ErrConflict, Msg: msg} }

// Unavailable reports a dependency that is not configured or not reachable.
func Unavailable(msg string) error { return &Error{Kind: ErrUnavailable, Msg: msg} }

// Named failures that callers branch on.
var (
	ErrUserNotFound            = NotFound("user not found")
	ErrUserExists              = Conflict("user already exists")
	ErrRoleNotFound            = NotFound("role not found")
	ErrInviteNotFound          = NotFound("invite not found")
	ErrInviteUsed              = Conflict("invite already used")
	ErrInviteExpired           = Invalid("invite expired")
	ErrGroupNotFound           = NotFound("group not found")
	ErrPollNotFound            = NotFound("poll not found")
	ErrOptionNotFound          = NotFound("poll option not found")
	ErrPollClosed              = Conflict("poll is closed")
	ErrAlreadyVoted            = Conflict("already voted")
	ErrMessageNotFound         = NotFound("message not found")
	ErrReportNotFound          = NotFound("report not found")
	ErrPostNotFound            = NotFound("post not found")
	ErrOfficialNoticeForbidden = Forbidden("only admins can post official notices")
	ErrInvalidStatusTransition = Conflict("status transition not allowed")
	ErrInvalidCredentials      = Unauthenticated("invalid credentials")
	ErrAccountInactive         = Forbidden("account is not active")
)

// ErrorText returns the caller-visible text of err, or "" for errors that
// carry none.
func ErrorText(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Msg
	}
	return ""
}
