package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/invoiceregistry/apiserver/internal/store"
	"github.com/invoiceregistry/apiserver/internal/token"
	"github.com/invoiceregistry/apiserver/types"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Registration and login failure kinds. Duplicate errors carry the
// offending value and surface verbatim; bad credentials deliberately do
// not say whether the identifier or the password was wrong.
var (
	ErrDuplicateUsername = errors.New("username is already in use")
	ErrDuplicateEmail    = errors.New("email is already in use")
	ErrBadCredentials    = errors.New("invalid username or password")

	// ErrRoleSeedMissing means the configured default role was never
	// provisioned. A deployment fault, not a user error.
	ErrRoleSeedMissing = errors.New("default role is not seeded")
)

// UserRepository defines the credential-store operations the auth
// service depends on.
type UserRepository interface {
	GetByUsernameOrEmail(ctx context.Context, identifier string) (types.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user types.User, roleIDs []int64) (types.User, error)
}

// RoleRepository reads seeded roles by name.
type RoleRepository interface {
	GetByName(ctx context.Context, name string) (types.Role, error)
}

// AuthService orchestrates registration, login, and principal
// resolution.
type AuthService struct {
	users       UserRepository
	roles       RoleRepository
	codec       *token.Codec
	defaultRole string
	log         zerolog.Logger
}

func NewAuthService(users UserRepository, roles RoleRepository, codec *token.Codec, defaultRole string, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:       users,
		roles:       roles,
		codec:       codec,
		defaultRole: defaultRole,
		log:         log,
	}
}

// LoginResult is what a successful login hands back to the transport
// layer. Role is a single representative role name; nil when the user
// holds none. Returning one role out of a possibly larger set is
// long-standing behavior of the response contract.
type LoginResult struct {
	AccessToken string
	Role        *string
}

// Register creates a new user account with the default role and returns
// a confirmation message referencing the display name. Username
// uniqueness is checked before email uniqueness.
func (s *AuthService) Register(ctx context.Context, name, username, email, password string) (string, error) {
	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("check username: %w", err)
	}
	if taken {
		return "", ErrDuplicateUsername
	}

	taken, err = s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("check email: %w", err)
	}
	if taken {
		return "", ErrDuplicateEmail
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	role, err := s.roles.GetByName(ctx, s.defaultRole)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.log.Error().Str("role", s.defaultRole).Msg("default role missing from seed data")
			return "", ErrRoleSeedMissing
		}
		return "", fmt.Errorf("lookup default role: %w", err)
	}

	user, err := s.users.Create(ctx, types.User{
		Name:         name,
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
		Roles:        []string{role.Name},
	}, []int64{role.ID})
	if err != nil {
		// Concurrent registration can lose the race to the unique
		// indexes; report it the same way as the pre-insert checks.
		switch {
		case errors.Is(err, store.ErrDuplicateUsername):
			return "", ErrDuplicateUsername
		case errors.Is(err, store.ErrDuplicateEmail):
			return "", ErrDuplicateEmail
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Str("username", user.Username).Msg("user registered")
	return fmt.Sprintf("User %s successfully registered", user.Name), nil
}

// Login verifies the identifier/password pair and issues a token. The
// token subject is the identifier exactly as the client supplied it,
// not a canonicalized username. Unknown identifier and wrong password
// collapse into the same error.
func (s *AuthService) Login(ctx context.Context, usernameOrEmail, password string) (LoginResult, error) {
	user, err := s.users.GetByUsernameOrEmail(ctx, usernameOrEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrBadCredentials
		}
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, ErrBadCredentials
	}

	accessToken, err := s.codec.Issue(usernameOrEmail, time.Now())
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}

	result := LoginResult{AccessToken: accessToken}
	if len(user.Roles) > 0 {
		result.Role = &user.Roles[0]
	}

	s.log.Info().Str("subject", usernameOrEmail).Msg("user logged in")
	return result, nil
}

// ResolvePrincipal maps a verified token subject to the user's current
// role set, read fresh from the store. Returns store.ErrNotFound when
// the subject no longer names a stored user.
func (s *AuthService) ResolvePrincipal(ctx context.Context, subject string) (types.Principal, error) {
	user, err := s.users.GetByUsernameOrEmail(ctx, subject)
	if err != nil {
		return types.Principal{}, err
	}
	return types.Principal{Subject: subject, Roles: user.Roles}, nil
}
