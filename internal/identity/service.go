// Package identity is the identity provider: password accounts stored in the
// document store, HS256 session tokens, and a per-session client that
// notifies listeners when the signed-in user changes.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/thread-storefront/domain"
	"github.com/fjod/thread-storefront/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	Issuer            = "thread-storefront"
	MinPasswordLength = 6
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

type userRecord struct {
	ID           string    `json:"id,omitempty"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r userRecord) user() domain.User {
	return domain.User{ID: r.ID, Email: r.Email, DisplayName: r.DisplayName}
}

type claims struct {
	Email       string `json:"email"`
	DisplayName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type Service struct {
	store    repository.DocumentStore
	ns       repository.Namespace
	secret   []byte
	tokenTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(store repository.DocumentStore, ns repository.Namespace, secret string, tokenTTL time.Duration, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, &domain.ConfigurationError{Component: "identity", Err: errors.New("document store is nil")}
	}
	if secret == "" {
		return nil, &domain.ConfigurationError{Component: "identity", Err: errors.New("JWT secret is empty")}
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{
		store:    store,
		ns:       ns,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		logger:   logger,
		now:      time.Now,
	}, nil
}

func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (domain.User, error) {
	email = normalizeEmail(email)
	if err := domain.ValidateEmail(email); err != nil {
		return domain.User{}, err
	}
	if len(password) < MinPasswordLength {
		return domain.User{}, &domain.ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("must be at least %d characters", MinPasswordLength),
		}
	}

	_, found, err := s.findByEmail(ctx, email)
	if err != nil {
		return domain.User{}, err
	}
	if found {
		return domain.User{}, &domain.ValidationError{Field: "email", Message: "is already registered"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	rec := userRecord{
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	fields, err := repository.Encode(rec)
	if err != nil {
		return domain.User{}, err
	}
	id, err := s.store.Add(ctx, s.ns.Users(), fields)
	if err != nil {
		return domain.User{}, domain.Remote("create account", err)
	}
	rec.ID = id

	s.logger.Info("account created", zap.String("user_id", id))
	return rec.user(), nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (domain.User, error) {
	rec, found, err := s.findByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return domain.User{}, err
	}
	if !found {
		return domain.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return rec.user(), nil
}

// IssueToken signs a session token whose subject is the user id.
func (s *Service) IssueToken(user domain.User) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email:       user.Email,
		DisplayName: user.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks signature, issuer and expiry. It does not hit the store.
func (s *Service) VerifyToken(tokenString string) (domain.User, error) {
	var c claims
	_, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Subject == "" {
		return domain.User{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return domain.User{ID: c.Subject, Email: c.Email, DisplayName: c.DisplayName}, nil
}

func (s *Service) findByEmail(ctx context.Context, email string) (userRecord, bool, error) {
	docs, err := s.store.List(ctx, s.ns.Users())
	if err != nil {
		return userRecord{}, false, domain.Remote("load accounts", err)
	}
	records, err := repository.DecodeAll[userRecord](docs)
	if err != nil {
		return userRecord{}, false, err
	}
	for _, rec := range records {
		if rec.Email == email {
			return rec, true, nil
		}
	}
	return userRecord{}, false, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
