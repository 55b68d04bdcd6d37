package auth

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeValidationFailed   = "VALIDATION_FAILED"
	TextCodeAlreadyRegistered  = "ALREADY_REGISTERED"
	TextCodeInvalidCreds       = "INVALID_CREDENTIALS"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenSignature     = "TOKEN_INVALID_SIGNATURE"
	TextCodeTokenIssuer        = "TOKEN_INVALID_ISSUER"
	TextCodeTokenAudience      = "TOKEN_INVALID_AUDIENCE"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	TextCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
	TextCodeDataParseError     = "DATA_PARSE_ERROR"
	TextCodeUnknownPrincipal   = "UNKNOWN_PRINCIPAL_KIND"
	TextCodeMissingCredentials = "MISSING_CREDENTIALS"
	TextCodeForbidden          = "FORBIDDEN"
)

// ErrAlreadyRegistered is returned when the email is taken in the target store
var ErrAlreadyRegistered = errors.New("already registered", errors.CategoryConflict).
	WithTextCode(TextCodeAlreadyRegistered).
	WithCode(errors.CodeConflict)

// ErrInvalidCredentials is returned for both unknown accounts and wrong
// passwords so callers cannot tell which one failed.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is returned by hashers on a failed comparison
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when now >= exp
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidSignature is returned when the signature does not verify with the signing key
var ErrInvalidSignature = errors.New("token signature is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeTokenSignature).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidIssuer is returned when the iss claim differs from the configured issuer
var ErrInvalidIssuer = errors.New("token has invalid issuer", errors.CategoryAuth).
	WithTextCode(TextCodeTokenIssuer).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidAudience is returned when the aud claim does not contain the configured audience
var ErrInvalidAudience = errors.New("token has invalid audience", errors.CategoryAuth).
	WithTextCode(TextCodeTokenAudience).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed covers tokens that cannot be parsed or use an unexpected algorithm
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrAccountNotFound is returned by profile lookups that miss
var ErrAccountNotFound = errors.New("account not found", errors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(errors.CodeNotFound)

// ErrMissingCredentials is returned when a protected request carries no token
var ErrMissingCredentials = errors.New("missing or malformed JWT", errors.CategoryAuth).
	WithTextCode(TextCodeMissingCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrForbidden is returned when a valid token belongs to the wrong principal kind
var ErrForbidden = errors.New("access denied", errors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrTooManyRequests is returned by the HTTP limiter
var ErrTooManyRequests = errors.New("too many requests", errors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyRequests).
	WithCode(429)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = errors.New("password can not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrUnableToParseData parse error
var ErrUnableToParseData = errors.New("unable to parse data", errors.CategoryBadInput).
	WithTextCode(TextCodeDataParseError).
	WithCode(errors.CodeBadRequest)

// ErrUnknownPrincipalKind is returned when a policy names no known kind
var ErrUnknownPrincipalKind = errors.New("unknown principal kind", errors.CategoryBadInput).
	WithTextCode(TextCodeUnknownPrincipal).
	WithCode(errors.CodeBadRequest)

// NewValidationError builds the error reported for the first failing rule
func NewValidationError(field, message string) *errors.Error {
	return errors.New(message, errors.CategoryValidation).
		WithTextCode(TextCodeValidationFailed).
		WithCode(errors.CodeBadRequest).
		WithMetadata(map[string]any{"field": field})
}

// ValidationField returns the field named by a validation error
func ValidationField(err error) (string, bool) {
	var richErr *errors.Error
	if !errors.As(err, &richErr) || richErr.TextCode != TextCodeValidationFailed {
		return "", false
	}
	field, ok := richErr.Metadata["field"].(string)
	return field, ok
}

// HasTextCode reports whether err is a rich error carrying the given text code
func HasTextCode(err error, code string) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	return HasTextCode(err, TextCodeTokenExpired)
}

// IsMalformedError reports malformed or missing tokens
func IsMalformedError(err error) bool {
	return HasTextCode(err, TextCodeTokenMalformed) || HasTextCode(err, TextCodeMissingCredentials)
}
