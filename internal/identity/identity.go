// Package identity is the boundary to the credential store. The rest of the
// backend only ever sees opaque user ids; password hashing and verification
// never leave this package.
package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailInUse        = errors.New("email already in use")
	ErrWeakCredential    = errors.New("password is too weak")
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrInvalidCredential = errors.New("invalid email or password")
)

const minPasswordLength = 6

// Provider issues and verifies credentials for an email address.
type Provider interface {
	CreateIdentity(ctx context.Context, email, password string) (string, error)
	VerifyIdentity(ctx context.Context, email, password string) (string, error)
}

// localProvider keeps credentials in their own table, bcrypt-hashed. It is a
// stand-in for a hosted identity service; the coordinator only consumes the
// returned id.
type localProvider struct {
	pool *pgxpool.Pool
}

func NewLocalProvider(pool *pgxpool.Pool) Provider {
	return &localProvider{pool: pool}
}

func (p *localProvider) CreateIdentity(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return "", ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return "", ErrWeakCredential
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	tag, err := p.pool.Exec(ctx, `
		INSERT INTO credentials (id, email, password)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO NOTHING
	`, id, email, string(hashed))
	if err != nil {
		return "", err
	}
	if tag.RowsAffected() == 0 {
		return "", ErrEmailInUse
	}
	return id, nil
}

func (p *localProvider) VerifyIdentity(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var id, hash string
	err := p.pool.QueryRow(ctx, `SELECT id, password FROM credentials WHERE email = $1`, email).Scan(&id, &hash)
	if err == pgx.ErrNoRows {
		return "", ErrInvalidCredential
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", ErrInvalidCredential
	}
	return id, nil
}
