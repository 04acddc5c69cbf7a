package account

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/congo-pay/accountgate/internal/logging"
)

const (
	// RegistrationCodeTTL bounds the code issued at sign-up.
	RegistrationCodeTTL = 15 * time.Minute
	// ResendCodeTTL bounds codes issued by ResendVerification.
	ResendCodeTTL = time.Hour
)

// VerificationNotifier delivers a verification code out of band.
type VerificationNotifier interface {
	DeliverVerificationCode(ctx context.Context, email, code string) error
}

// Option customises a Service.
type Option func(*Service)

// WithClock injects the time source used for code expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger used for delivery failures and lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service drives the account lifecycle: register, authenticate, verify and resend.
type Service struct {
	repo     Repository
	hasher   SecretHasher
	codes    CodeGenerator
	notifier VerificationNotifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new account service.
func NewService(repo Repository, hasher SecretHasher, codes CodeGenerator, notifier VerificationNotifier, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		hasher:   hasher,
		codes:    codes,
		notifier: notifier,
		logger:   logging.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a disabled account holding a fresh verification code and
// sends that code to the account email. Delivery failures are logged only.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Account, error) {
	email := NormalizeEmail(in.Email)

	hash, err := s.hasher.Encode(in.Secret)
	if err != nil {
		return Account{}, err
	}

	code, err := s.codes.Generate()
	if err != nil {
		return Account{}, err
	}

	now := s.now().UTC()
	account := Account{
		ID:          uuid.NewString(),
		DisplayName: strings.TrimSpace(in.DisplayName),
		Email:       email,
		SecretHash:  hash,
		Enabled:     false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	account.setCode(code, now.Add(RegistrationCodeTTL))

	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, ErrDuplicateAccount) {
			return Account{}, ErrDuplicateAccount
		}
		return Account{}, err
	}

	s.logger.Info("account registered", slog.String("account_id", account.ID))
	s.deliver(ctx, account.Email, code)

	return account, nil
}

// Authenticate checks that the account exists, is verified, and that secret
// matches. Verification is checked first so a pending account never reveals
// whether its secret is correct.
func (s *Service) Authenticate(ctx context.Context, email, secret string) (Account, error) {
	account, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return Account{}, err
	}

	if !account.Enabled {
		return Account{}, ErrAccountNotVerified
	}

	if !s.hasher.Verify(secret, account.SecretHash) {
		return Account{}, ErrInvalidCredentials
	}

	return account, nil
}

// Verify consumes the outstanding code and enables the account. Expiry is
// checked before the code value.
func (s *Service) Verify(ctx context.Context, email, code string) error {
	now := s.now().UTC()
	account, err := s.repo.Update(ctx, NormalizeEmail(email), func(a *Account) error {
		if a.CodeExpired(now) {
			return ErrVerificationExpired
		}
		if a.VerificationCode == nil || subtle.ConstantTimeCompare([]byte(*a.VerificationCode), []byte(code)) != 1 {
			return ErrInvalidVerificationCode
		}
		a.enable()
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("account verified", slog.String("account_id", account.ID))
	return nil
}

// ResendVerification replaces any outstanding code with a new one valid for
// ResendCodeTTL and delivers it. Only the latest code ever verifies.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	now := s.now().UTC()
	var code string
	account, err := s.repo.Update(ctx, NormalizeEmail(email), func(a *Account) error {
		if a.Enabled {
			return ErrAlreadyVerified
		}
		generated, err := s.codes.Generate()
		if err != nil {
			return err
		}
		a.setCode(generated, now.Add(ResendCodeTTL))
		code = generated
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("verification code reissued", slog.String("account_id", account.ID))
	s.deliver(ctx, account.Email, code)
	return nil
}

// Account returns the account with the given id.
func (s *Service) Account(ctx context.Context, id string) (Account, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) deliver(ctx context.Context, email, code string) {
	if s.notifier == nil {
		s.logger.Warn("no verification notifier configured", slog.String("email", email))
		return
	}
	if err := s.notifier.DeliverVerificationCode(ctx, email, code); err != nil {
		logging.LogError(s.logger, "verification code delivery failed",
			oops.Code("VERIFICATION_DELIVERY_FAILED").With("email", email).Wrap(err))
	}
}

// NormalizeEmail trims and lower-cases an email address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
