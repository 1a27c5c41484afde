// Package services – AuthService
//
// This file implements the AuthService, which owns account registration and
// login. Passwords are stored as bcrypt hashes and never logged or returned;
// a successful login yields a signed bearer token from the auth issuer.
//
// Login failures are deliberately uniform: an unknown email and a wrong
// password both surface as ErrInvalidCredentials so the API does not leak
// which addresses have accounts.
package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/insightcoach/go-insights-backend/internal/auth"
	"github.com/insightcoach/go-insights-backend/internal/domain"
	"github.com/insightcoach/go-insights-backend/internal/repo"
)

// minPasswordLen is the shortest password accepted at registration.
const minPasswordLen = 8

// UserRepo defines the repository contract required by AuthService.
type UserRepo interface {
	// CreateUser inserts a new account row with a pre-hashed password.
	CreateUser(ctx context.Context, db *gorm.DB, name, email, passwordHash string) (*domain.User, error)

	// GetUserByEmail fetches an account by normalized email.
	GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error)
}

// gormUserRepo adapts the free functions in repo to the UserRepo interface.
type gormUserRepo struct{}

func (gormUserRepo) CreateUser(ctx context.Context, db *gorm.DB, name, email, passwordHash string) (*domain.User, error) {
	return repo.CreateUser(ctx, db, name, email, passwordHash)
}

func (gormUserRepo) GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	return repo.GetUserByEmail(ctx, db, email)
}

// AuthService provides registration and credential verification.
type AuthService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the user repository used by this service.
	Repo UserRepo
	// Issuer signs bearer tokens for authenticated sessions.
	Issuer *auth.Issuer
}

// NewAuthService constructs an AuthService backed by the default repository.
func NewAuthService(db *gorm.DB, issuer *auth.Issuer) *AuthService {
	return &AuthService{DB: db, Repo: gormUserRepo{}, Issuer: issuer}
}

// Register creates a new account and returns it. The email is validated and
// normalized before storage; the password is bcrypt-hashed and discarded.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Register")
	defer span.End()

	fields := map[string]string{}
	name = strings.TrimSpace(name)
	if name == "" {
		fields["name"] = "name is required"
	} else if utf8.RuneCountInString(name) > 255 {
		fields["name"] = "name is too long"
	}
	email = repo.NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		fields["email"] = "a valid email is required"
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		fields["password"] = "password must be at least 8 characters"
	}
	if err := newValidationError(fields); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u, err := s.Repo.CreateUser(ctx, s.DB, name, email, hash)
	if errors.Is(err, repo.ErrEmailTaken) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and returns a signed bearer token together with
// the account. Inactive accounts are rejected even with a correct password.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Login")
	defer span.End()

	email = repo.NormalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	u, err := s.Repo.GetUserByEmail(ctx, s.DB, email)
	if errors.Is(err, repo.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}
	if !u.Active {
		return "", nil, ErrAccountInactive
	}

	span.SetAttributes(attribute.String("user.id", u.ID))

	token, err := s.Issuer.Sign(u.ID, u.Email)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}
