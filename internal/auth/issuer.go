package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

// ErrInvalidCredential is returned when a bearer token fails validation.
var ErrInvalidCredential = errors.New("invalid credential")

// Claims carries the registered claims of an access token. Subject is the account id.
type Claims struct {
	jwt.RegisteredClaims
}

// Token is a freshly minted access token.
type Token struct {
	Value     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

// IssuerOption customises an Issuer.
type IssuerOption func(*Issuer)

// WithIssuerClock injects the time source used for iat/exp and validation.
func WithIssuerClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// Issuer mints and validates HS256 access tokens with a fixed validity window.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewIssuer creates an Issuer. ttl is the validity window of every token.
func NewIssuer(secret []byte, ttl time.Duration, issuer string, opts ...IssuerOption) *Issuer {
	i := &Issuer{secret: secret, ttl: ttl, issuer: issuer, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ExpiresIn reports the configured validity window in seconds.
func (i *Issuer) ExpiresIn() int64 {
	return int64(i.ttl / time.Second)
}

// Issue signs a token bound to accountID.
func (i *Issuer) Issue(accountID string) (Token, error) {
	if accountID == "" {
		return Token{}, oops.Code("TOKEN_SUBJECT_MISSING").Errorf("account id is required")
	}
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return Token{}, oops.Code("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return Token{Value: signed, ExpiresIn: i.ExpiresIn()}, nil
}

// Validate checks signature, algorithm, issuer and expiry and returns the account id.
func (i *Issuer) Validate(tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: token expired", ErrInvalidCredential)
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidCredential
	}
	return claims.Subject, nil
}
