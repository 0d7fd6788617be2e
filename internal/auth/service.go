package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"quiz-maker/internal/validation"
)

const DefaultTokenTTL = 7 * 24 * time.Hour

type Config struct {
	Secret      string
	TokenTTL    time.Duration
	BcryptCost  int
	AdminEmails []string
	Now         func() time.Time
}

type Service struct {
	users       UserRepository
	tokens      TokenRepository
	issuer      tokenIssuer
	bcryptCost  int
	adminEmails map[string]struct{}
	now         func() time.Time
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Identity is what the auth middleware resolves from a bearer token and hands
// to the core handlers.
type Identity struct {
	UserID    string
	Name      string
	Email     string
	IsAdmin   bool
	TokenID   string
	ExpiresAt time.Time
}

type Session struct {
	Token string
	User  User
}

func NewService(users UserRepository, tokens TokenRepository, cfg Config) (*Service, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("auth: token secret is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}

	admins := make(map[string]struct{}, len(cfg.AdminEmails))
	for _, email := range cfg.AdminEmails {
		if normalized := normalizeEmail(email); normalized != "" {
			admins[normalized] = struct{}{}
		}
	}

	return &Service{
		users:       users,
		tokens:      tokens,
		issuer:      tokenIssuer{secret: []byte(cfg.Secret), ttl: cfg.TokenTTL},
		bcryptCost:  cfg.BcryptCost,
		adminEmails: admins,
		now:         cfg.Now,
	}, nil
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (Session, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	if err := validation.Struct(input); err != nil {
		return Session{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	_, isAdmin := s.adminEmails[input.Email]
	user := User{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		IsAdmin:      isAdmin,
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return Session{}, err
	}

	return s.startSession(user)
}

func (s *Service) Login(ctx context.Context, input LoginInput) (Session, error) {
	input.Email = normalizeEmail(input.Email)
	if err := validation.Struct(input); err != nil {
		return Session{}, err
	}

	user, err := s.users.GetUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	return s.startSession(user)
}

// Authenticate resolves a bearer token into the identity of a current user.
func (s *Service) Authenticate(ctx context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrUnauthorized
	}

	claims, err := s.issuer.parse(token)
	if err != nil {
		return Identity{}, err
	}

	revoked, err := s.tokens.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return Identity{}, fmt.Errorf("check token revocation: %w", err)
	}
	if revoked {
		return Identity{}, ErrUnauthorized
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Identity{}, ErrUnauthorized
		}
		return Identity{}, err
	}

	identity := Identity{
		UserID:  user.ID,
		Name:    user.Name,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}

func (s *Service) Logout(ctx context.Context, identity Identity) error {
	if identity.TokenID == "" {
		return ErrUnauthorized
	}
	expiresAt := identity.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = s.now().Add(s.issuer.ttl)
	}
	return s.tokens.RevokeToken(ctx, identity.TokenID, expiresAt)
}

func (s *Service) GetUser(ctx context.Context, userID string) (User, error) {
	return s.users.GetUserByID(ctx, userID)
}

func (s *Service) Promote(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return validation.New("email is required")
	}
	return s.users.SetAdmin(ctx, email, true)
}

// PurgeRevoked drops revocation records whose tokens have expired on their own.
func (s *Service) PurgeRevoked(ctx context.Context) (int64, error) {
	return s.tokens.PurgeExpiredTokens(ctx, s.now())
}

func (s *Service) startSession(user User) (Session, error) {
	token, _, err := s.issuer.issue(user.ID, s.now())
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
