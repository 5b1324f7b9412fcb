// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package accounts persists user accounts for the predictor API.
//
// Accounts are stored in an embedded Badger database keyed by lowercase
// email, with bcrypt password hashes. The store never holds plaintext
// passwords and never returns hashes to callers above the handlers
// layer.
package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"golang.org/x/crypto/bcrypt"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrAccountExists is returned when registering an email that is
	// already taken.
	ErrAccountExists = errors.New("account already exists")

	// ErrNotFound is returned when no account matches the email.
	ErrNotFound = errors.New("account not found")

	// ErrInvalidCredentials is returned when the password does not match.
	// Callers must surface it identically to ErrNotFound so login
	// responses do not reveal which emails are registered.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// accountPrefix namespaces account keys in the shared keyspace.
const accountPrefix = "account:"

// =============================================================================
// Account
// =============================================================================

// Account is one stored user record.
type Account struct {
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	LastLoginAt  time.Time `json:"last_login_at,omitempty"`
	FailedLogins int       `json:"failed_logins"`
}

// =============================================================================
// Store
// =============================================================================

// Store is the embedded account database. Safe for concurrent use;
// Badger serializes conflicting writes via its transaction layer.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the account database in dir.
func Open(dir string) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("accounts: open database: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens an ephemeral store. Used in tests.
func OpenInMemory() (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("accounts: open in-memory database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Register creates an account with a bcrypt-hashed password.
// Returns ErrAccountExists if the email is already registered.
func (s *Store) Register(email, password string) error {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("accounts: invalid email")
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("accounts: password must be at least %d characters", MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("accounts: hash password: %w", err)
	}
	account := Account{
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("accounts: marshal account: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := accountKey(email)
		if _, err := txn.Get(key); err == nil {
			return ErrAccountExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("accounts: lookup: %w", err)
		}
		return txn.Set(key, data)
	})
}

// Verify checks a password against the stored hash, updating the login
// bookkeeping on the account. Unknown emails and wrong passwords both
// return ErrInvalidCredentials.
func (s *Store) Verify(email, password string) error {
	email = normalizeEmail(email)
	return s.db.Update(func(txn *badger.Txn) error {
		account, err := getAccount(txn, email)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrInvalidCredentials
			}
			return err
		}

		if bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password)) != nil {
			account.FailedLogins++
			if data, mErr := json.Marshal(account); mErr == nil {
				_ = txn.Set(accountKey(email), data)
			}
			return ErrInvalidCredentials
		}

		account.LastLoginAt = time.Now().UTC()
		account.FailedLogins = 0
		data, err := json.Marshal(account)
		if err != nil {
			return fmt.Errorf("accounts: marshal account: %w", err)
		}
		return txn.Set(accountKey(email), data)
	})
}

// Get fetches an account by email. Returns ErrNotFound when absent.
func (s *Store) Get(email string) (*Account, error) {
	email = normalizeEmail(email)
	var account *Account
	err := s.db.View(func(txn *badger.Txn) error {
		a, err := getAccount(txn, email)
		if err != nil {
			return err
		}
		account = a
		return nil
	})
	return account, err
}

// =============================================================================
// Helpers
// =============================================================================

func accountKey(email string) []byte {
	return []byte(accountPrefix + email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func getAccount(txn *badger.Txn, email string) (*Account, error) {
	item, err := txn.Get(accountKey(email))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("accounts: lookup: %w", err)
	}
	var account Account
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &account)
	}); err != nil {
		return nil, fmt.Errorf("accounts: decode account: %w", err)
	}
	return &account, nil
}
