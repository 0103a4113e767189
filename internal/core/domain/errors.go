package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the user lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrSessionNotFound indicates the session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidCredentials indicates wrong email/password combination
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrServiceUnavailable indicates the LLM service is not configured or unreachable
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrConflict indicates the resource is busy with another operation
	ErrConflict = errors.New("conflict")

	// ErrFileTooLarge indicates an upload exceeded the configured size limit
	ErrFileTooLarge = errors.New("file too large")
)

// Parse error kinds. A *ParseError always unwraps to exactly one of these.
var (
	// ErrDecode indicates no supported character encoding could decode the input
	ErrDecode = errors.New("decode error")

	// ErrStructuralParse indicates the format decoder rejected the input after repair
	ErrStructuralParse = errors.New("structural parse error")

	// ErrDependencyUnavailable indicates binary format support is disabled in this process
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrUnsupportedType indicates no parser handles the file's extension or media type
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrParseTimeout indicates parsing did not finish within the caller's deadline
	ErrParseTimeout = errors.New("parse timeout")
)
