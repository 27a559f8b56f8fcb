package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vbonduro/aushadhi/internal/domain"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a user. Emails are compared case-insensitively and a taken
// email yields ErrDuplicate.
func (s *UserStore) Create(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        strings.TrimSpace(email),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)
	`, user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("user %q: %w", user.Email, ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.get(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, id)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.get(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, strings.TrimSpace(email))
}

func (s *UserStore) get(ctx context.Context, query string, arg string) (*domain.User, error) {
	user := &domain.User{}
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
