package account

import "errors"

var (
	// ErrAccountNotFound is returned when no account matches the email.
	ErrAccountNotFound = errors.New("user was not found")

	// ErrDuplicateAccount is returned when the email is already registered.
	ErrDuplicateAccount = errors.New("an account with this email already exists")

	// ErrAccountNotVerified is returned on login before the email was verified.
	ErrAccountNotVerified = errors.New("account hasn't been verified. Please verify your account")

	// ErrInvalidCredentials is returned when the secret does not match.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrVerificationExpired is returned when the outstanding code is past its expiry.
	ErrVerificationExpired = errors.New("the verification code for this user has already expired")

	// ErrInvalidVerificationCode is returned when the submitted code does not match,
	// including when no code is outstanding.
	ErrInvalidVerificationCode = errors.New("invalid verification code")

	// ErrAlreadyVerified is returned when resending for an enabled account.
	ErrAlreadyVerified = errors.New("the account is already verified")

	// ErrEmptySecret is returned when hashing an empty secret.
	ErrEmptySecret = errors.New("secret cannot be empty")
)

// IsDomainError reports whether err is one of the lifecycle outcomes a caller
// is expected to handle, as opposed to an infrastructure failure.
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrAccountNotFound,
		ErrDuplicateAccount,
		ErrAccountNotVerified,
		ErrInvalidCredentials,
		ErrVerificationExpired,
		ErrInvalidVerificationCode,
		ErrAlreadyVerified,
		ErrEmptySecret,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Outcome returns a short, stable label for err, used as a metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAccountNotFound):
		return "not_found"
	case errors.Is(err, ErrDuplicateAccount):
		return "duplicate"
	case errors.Is(err, ErrAccountNotVerified):
		return "not_verified"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrVerificationExpired):
		return "expired"
	case errors.Is(err, ErrInvalidVerificationCode):
		return "invalid_code"
	case errors.Is(err, ErrAlreadyVerified):
		return "already_verified"
	case errors.Is(err, ErrEmptySecret):
		return "invalid_input"
	default:
		return "error"
	}
}
