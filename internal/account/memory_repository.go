package account

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

// NewMemoryRepository builds an in-memory account store for tests and local development.
func NewMemoryRepository() Repository {
	return &memoryRepository{accounts: make(map[string]Account)}
}

func (r *memoryRepository) Create(_ context.Context, account Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.accounts[account.Email]; exists {
		return ErrDuplicateAccount
	}
	r.accounts[account.Email] = clone(account)
	return nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[email]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return clone(account), nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, account := range r.accounts {
		if account.ID == id {
			return clone(account), nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (r *memoryRepository) Update(_ context.Context, email string, mutate func(*Account) error) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.accounts[email]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	working := clone(stored)
	if err := mutate(&working); err != nil {
		return Account{}, err
	}
	working.UpdatedAt = time.Now().UTC()
	r.accounts[email] = clone(working)
	return working, nil
}

// clone copies the pointer fields so callers never share state with the store.
func clone(a Account) Account {
	if a.VerificationCode != nil {
		code := *a.VerificationCode
		a.VerificationCode = &code
	}
	if a.VerificationCodeExpiresAt != nil {
		exp := *a.VerificationCodeExpiresAt
		a.VerificationCodeExpiresAt = &exp
	}
	return a
}
