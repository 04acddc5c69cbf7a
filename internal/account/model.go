package account

import "time"

// Account represents a registered user identity.
type Account struct {
	ID                        string
	DisplayName               string
	Email                     string
	SecretHash                string
	Enabled                   bool
	VerificationCode          *string
	VerificationCodeExpiresAt *time.Time
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

// HasPendingCode reports whether a verification code is outstanding.
func (a Account) HasPendingCode() bool {
	return a.VerificationCode != nil && a.VerificationCodeExpiresAt != nil
}

// CodeExpired reports whether the outstanding code expired before now.
// An account without a code is never considered expired.
func (a Account) CodeExpired(now time.Time) bool {
	if a.VerificationCodeExpiresAt == nil {
		return false
	}
	return a.VerificationCodeExpiresAt.Before(now)
}

func (a *Account) setCode(code string, expiresAt time.Time) {
	c := code
	exp := expiresAt.UTC()
	a.VerificationCode = &c
	a.VerificationCodeExpiresAt = &exp
}

// enable marks the account verified and consumes the code in one step.
func (a *Account) enable() {
	a.Enabled = true
	a.VerificationCode = nil
	a.VerificationCodeExpiresAt = nil
}

// RegisterInput carries the data needed to open an account.
type RegisterInput struct {
	Email       string
	DisplayName string
	Secret      string
}
