// Package auth manages email/password accounts and the signed session tokens
// that identify a user to the API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vbonduro/aushadhi/internal/domain"
	"github.com/vbonduro/aushadhi/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const (
	issuer            = "aushadhi"
	minPasswordLength = 6
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", minPasswordLength)
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// userRepository is the subset of store.UserStore that Service requires.
type userRepository interface {
	Create(ctx context.Context, email, passwordHash string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type Service struct {
	users    userRepository
	secret   []byte
	tokenTTL time.Duration
	cost     int
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(users userRepository, secret string, tokenTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		cost:     bcrypt.DefaultCost,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) Register(ctx context.Context, email, password string) (*domain.User, error) {
	address, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.Create(ctx, address, string(hash))
	if errors.Is(err, store.ErrDuplicate) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login checks the credentials and returns a signed session token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	address, err := normalizeEmail(email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, address)
	if err != nil {
		return "", nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.Issue(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// normalizeEmail trims email and accepts it only as a bare address.
func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return addr.Address, nil
}

// Issue signs an HS256 token whose subject is userID.
func (s *Service) Issue(userID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the user id a valid token was issued for.
func (s *Service) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// User returns the account a token belongs to, or ErrInvalidToken if the
// account no longer exists.
func (s *Service) User(ctx context.Context, token string) (*domain.User, error) {
	id, err := s.Verify(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	return user, nil
}
