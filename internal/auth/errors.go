package auth

import "errors"

// Sentinel errors produced by the auth service. Handlers map these to HTTP
// statuses with errors.Is; anything else is reported as a generic internal
// failure, never downgraded to a client error.
var (
	// ErrEmailTaken is returned when registering an email that already has
	// an account. Detected from the database unique constraint, not a
	// pre-check, so concurrent registrations race safely.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials covers unknown email, wrong password, and
	// password login against a social-only account. Deliberately one error
	// so responses do not reveal which part failed.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidToken covers malformed, expired, mis-signed, and
	// wrong-kind tokens.
	ErrInvalidToken = errors.New("invalid token")

	// ErrStaleRefresh is returned when a superseded refresh token is
	// replayed. The session is revoked as a side effect.
	ErrStaleRefresh = errors.New("stale refresh token reused")

	// ErrSessionRevoked is returned when a token references a session that
	// has been logged out or invalidated.
	ErrSessionRevoked = errors.New("session revoked")

	// ErrProviderMismatch is returned when a social login's email already
	// belongs to an account under a different provider. The account is not
	// merged; the caller must sign in with the original method.
	ErrProviderMismatch = errors.New("account exists with a different sign-in method")

	// ErrProviderToken is returned when the social provider rejects the
	// presented provider token.
	ErrProviderToken = errors.New("provider token verification failed")

	// ErrUnknownProvider is returned for a social provider this deployment
	// does not accept.
	ErrUnknownProvider = errors.New("unknown auth provider")

	// ErrInvalidInput flags semantically invalid payload values that the
	// binding layer cannot catch (bad enum values, conditional fields).
	ErrInvalidInput = errors.New("invalid input")
)
