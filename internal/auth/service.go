package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmoralesp/giftshop-backend/internal/clients"
	pkgauth "github.com/rmoralesp/giftshop-backend/pkg/auth"
	"github.com/rmoralesp/giftshop-backend/pkg/config"
	pkgerrors "github.com/rmoralesp/giftshop-backend/pkg/errors"
	"github.com/rmoralesp/giftshop-backend/pkg/logger"
	"github.com/rmoralesp/giftshop-backend/pkg/security"
)

type sessionOpener interface {
	Open(ctx context.Context, sessionID string, clientID string) error
	Revoke(ctx context.Context, sessionID string) error
}

// LoginInput carries shopper credentials.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is the issued credential plus a minimal profile.
type LoginResult struct {
	Token    string    `json:"-"`
	ClientID uuid.UUID `json:"client_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
}

// Service issues and revokes shopper credentials.
type Service interface {
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
}

type service struct {
	clients  clients.ClientRepository
	sessions sessionOpener
	jwt      config.JWTConfig
	log      *logger.Logger
	now      func() time.Time
}

// NewService builds the auth service.
func NewService(clientRepo clients.ClientRepository, sessions sessionOpener, jwtCfg config.JWTConfig, log *logger.Logger) (Service, error) {
	if clientRepo == nil {
		return nil, fmt.Errorf("client repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session opener required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		clients:  clientRepo,
		sessions: sessions,
		jwt:      jwtCfg,
		log:      log,
		now:      time.Now,
	}, nil
}

// Login verifies the password, mints a JWT and opens a redis session keyed by
// the token's JTI. A wrong email and a wrong password are indistinguishable
// to the caller.
func (s *service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if input.Email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	client, err := s.clients.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load client")
	}

	ok, err := security.VerifyPassword(input.Password, client.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	jti := uuid.NewString()
	token, err := pkgauth.MintAccessToken(s.jwt, s.now().UTC(), pkgauth.AccessTokenPayload{
		ClientID: client.ID,
		JTI:      jti,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	if err := s.sessions.Open(ctx, jti, client.ID.String()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open session")
	}

	ctx = s.log.WithClientID(ctx, client.ID.String())
	s.log.Info(ctx, "client logged in")
	return &LoginResult{
		Token:    token,
		ClientID: client.ID,
		Name:     client.Name,
		Email:    client.Email,
	}, nil
}

// Logout revokes the redis session behind the credential.
func (s *service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}
