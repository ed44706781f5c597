package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/dmarquezg/storefront-backend/pkg/auth"
	"github.com/dmarquezg/storefront-backend/pkg/config"
	"github.com/dmarquezg/storefront-backend/pkg/db/models"
	pkgerrors "github.com/dmarquezg/storefront-backend/pkg/errors"
	"github.com/dmarquezg/storefront-backend/pkg/security"
)

const minPasswordLength = 8

var validate = validator.New()

type merchantRepository interface {
	Create(ctx context.Context, merchant *models.Merchant) (*models.Merchant, error)
	FindByEmail(ctx context.Context, email string) (*models.Merchant, error)
}

// RegisterInput is the merchant signup form.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Credentials is the login form.
type Credentials struct {
	Email    string
	Password string
}

// MerchantDTO is the public shape of a merchant account.
type MerchantDTO struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

// Session is a minted access token plus its owner.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	Merchant  MerchantDTO `json:"merchant"`
}

// Service exposes merchant signup and login.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*Session, error)
	Login(ctx context.Context, creds Credentials) (*Session, error)
}

type service struct {
	repo     merchantRepository
	jwtCfg   config.JWTConfig
	passwCfg config.PasswordConfig
	now      func() time.Time
}

// NewService builds the auth service.
func NewService(repo merchantRepository, jwtCfg config.JWTConfig, passwCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("merchant repository required")
	}
	if jwtCfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	return &service{
		repo:     repo,
		jwtCfg:   jwtCfg,
		passwCfg: passwCfg,
		now:      time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	email := normalizeEmail(input.Email)
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is invalid")
	}
	if len(input.Password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing merchant")
	}

	hash, err := security.HashPassword(input.Password, s.passwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	merchant, err := s.repo.Create(ctx, &models.Merchant{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create merchant")
	}
	return s.mintSession(merchant)
}

// Login deliberately returns the same error for an unknown email and a
// wrong password.
func (s *service) Login(ctx context.Context, creds Credentials) (*Session, error) {
	email := normalizeEmail(creds.Email)
	if email == "" || creds.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	merchant, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
	}

	ok, err := security.VerifyPassword(creds.Password, merchant.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	return s.mintSession(merchant)
}

func (s *service) mintSession(merchant *models.Merchant) (*Session, error) {
	now := s.now()
	token, err := pkgauth.MintAccessToken(s.jwtCfg, now, pkgauth.AccessTokenPayload{
		MerchantID: merchant.ID,
		Email:      merchant.Email,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &Session{
		Token:     token,
		ExpiresAt: now.Add(s.jwtCfg.Expiration()),
		Merchant: MerchantDTO{
			ID:    merchant.ID,
			Email: merchant.Email,
			Name:  merchant.Name,
		},
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
