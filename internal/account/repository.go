package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/oops"
)

// Repository persists accounts. Implementations own the atomicity of Update.
type Repository interface {
	Create(ctx context.Context, account Account) error
	FindByEmail(ctx context.Context, email string) (Account, error)
	FindByID(ctx context.Context, id string) (Account, error)
	// Update loads the account for email under an exclusive lock, applies
	// mutate and writes the result. Nothing is written when mutate fails.
	Update(ctx context.Context, email string, mutate func(*Account) error) (Account, error)
}

// pgxPool is the subset of *pgxpool.Pool used by PostgresRepository.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

const selectAccount = `SELECT id, display_name, email, secret_hash, enabled,
        verification_code, verification_code_expires_at, created_at, updated_at
        FROM accounts`

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db pgxPool
}

// NewPostgresRepository builds a Postgres-backed account repository.
func NewPostgresRepository(db pgxPool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new account. A taken email yields ErrDuplicateAccount.
func (r *PostgresRepository) Create(ctx context.Context, account Account) error {
	id, err := uuid.Parse(account.ID)
	if err != nil {
		return oops.Code("ACCOUNT_CREATE_FAILED").With("operation", "parse id").Wrap(err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO accounts (id, display_name, email, secret_hash, enabled,
        verification_code, verification_code_expires_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, account.DisplayName, account.Email, account.SecretHash, account.Enabled,
		account.VerificationCode, account.VerificationCodeExpiresAt, account.CreatedAt.UTC(), account.UpdatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateAccount
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").With("email", account.Email).Wrap(err)
	}
	return nil
}

// FindByEmail fetches an account by email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (Account, error) {
	account, err := scanAccount(r.db.QueryRow(ctx, selectAccount+` WHERE email = $1`, email))
	if err != nil {
		return Account{}, notFoundOr(err, "ACCOUNT_LOOKUP_FAILED", "email", email)
	}
	return account, nil
}

// FindByID fetches an account by its identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Account, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, ErrAccountNotFound
	}
	account, err := scanAccount(r.db.QueryRow(ctx, selectAccount+` WHERE id = $1`, accountID))
	if err != nil {
		return Account{}, notFoundOr(err, "ACCOUNT_LOOKUP_FAILED", "id", id)
	}
	return account, nil
}

// Update runs mutate against a row locked with SELECT ... FOR UPDATE.
func (r *PostgresRepository) Update(ctx context.Context, email string, mutate func(*Account) error) (Account, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Account{}, oops.Code("ACCOUNT_UPDATE_FAILED").With("operation", "begin").Wrap(err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	account, err := scanAccount(tx.QueryRow(ctx, selectAccount+` WHERE email = $1 FOR UPDATE`, email))
	if err != nil {
		return Account{}, notFoundOr(err, "ACCOUNT_UPDATE_FAILED", "email", email)
	}

	if err := mutate(&account); err != nil {
		return Account{}, err
	}
	account.UpdatedAt = time.Now().UTC()

	id, err := uuid.Parse(account.ID)
	if err != nil {
		return Account{}, oops.Code("ACCOUNT_UPDATE_FAILED").With("operation", "parse id").Wrap(err)
	}
	cmd, err := tx.Exec(ctx, `UPDATE accounts SET display_name = $2, enabled = $3,
        verification_code = $4, verification_code_expires_at = $5, updated_at = $6
        WHERE id = $1`,
		id, account.DisplayName, account.Enabled, account.VerificationCode, account.VerificationCodeExpiresAt, account.UpdatedAt)
	if err != nil {
		return Account{}, oops.Code("ACCOUNT_UPDATE_FAILED").With("email", email).Wrap(err)
	}
	if cmd.RowsAffected() == 0 {
		return Account{}, ErrAccountNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return Account{}, oops.Code("ACCOUNT_UPDATE_FAILED").With("operation", "commit").Wrap(err)
	}
	return account, nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		id        uuid.UUID
		code      pgtype.Text
		expiresAt pgtype.Timestamptz
		account   Account
	)
	if err := row.Scan(&id, &account.DisplayName, &account.Email, &account.SecretHash, &account.Enabled,
		&code, &expiresAt, &account.CreatedAt, &account.UpdatedAt); err != nil {
		return Account{}, err
	}
	account.ID = id.String()
	if code.Valid && expiresAt.Valid {
		account.setCode(code.String, expiresAt.Time)
	}
	account.CreatedAt = account.CreatedAt.UTC()
	account.UpdatedAt = account.UpdatedAt.UTC()
	return account, nil
}

func notFoundOr(err error, code, key, value string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAccountNotFound
	}
	return oops.Code(code).With(key, value).Wrap(err)
}
