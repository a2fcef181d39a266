package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procureline/procureline-backend/internal/notifications"
	"github.com/procureline/procureline-backend/internal/users"
	pkgauth "github.com/procureline/procureline-backend/pkg/auth"
	"github.com/procureline/procureline-backend/pkg/config"
	"github.com/procureline/procureline-backend/pkg/db"
	"github.com/procureline/procureline-backend/pkg/db/models"
	"github.com/procureline/procureline-backend/pkg/enums"
	pkgerrors "github.com/procureline/procureline-backend/pkg/errors"
	"github.com/procureline/procureline-backend/pkg/security"
)

const (
	minPasswordLength = 8
	confirmTokenBytes = 32
	confirmTokenTTL   = 24 * time.Hour
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service implements registration, email confirmation, and login.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	ConfirmEmail(ctx context.Context, email, token string) error
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Me(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

type service struct {
	users  users.Store
	tokens TokenRepository
	tx     txRunner
	notify notifications.Service
	jwtCfg config.JWTConfig
	pwCfg  config.PasswordConfig
	now    func() time.Time
}

// NewService builds the auth service.
func NewService(users users.Store, tokens TokenRepository, tx txRunner, notify notifications.Service, jwtCfg config.JWTConfig, pwCfg config.PasswordConfig) (Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user store required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notify == nil {
		return nil, fmt.Errorf("notification service required")
	}
	return &service{
		users:  users,
		tokens: tokens,
		tx:     tx,
		notify: notify,
		jwtCfg: jwtCfg,
		pwCfg:  pwCfg,
		now:    time.Now,
	}, nil
}

// RegisterInput carries the sign-up payload.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Company   string
	Position  string
	Role      enums.UserRole
}

// LoginResult bundles the minted token with the authenticated user.
type LoginResult struct {
	Token string
	User  *models.User
}

// Register creates the account and issues a confirmation token. The token
// reaches the user through the notifier, never through the API response.
func (s *service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	role := input.Role
	if role == "" {
		role = enums.UserRoleBuyer
	}
	if role != enums.UserRoleBuyer && role != enums.UserRoleShop {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be buyer or shop")
	}

	hash, err := security.HashPassword(input.Password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	tokenValue, err := security.GenerateToken(confirmTokenBytes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate confirmation token")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Company:      strings.TrimSpace(input.Company),
		Position:     strings.TrimSpace(input.Position),
		Role:         role,
		IsActive:     true,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		tokens := s.tokens.WithTx(tx)

		if _, err := users.Create(ctx, user); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}

		confirmation := &models.EmailConfirmationToken{
			UserID:    user.ID,
			Token:     tokenValue,
			ExpiresAt: s.now().Add(confirmTokenTTL),
		}
		if err := tokens.Create(ctx, confirmation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store confirmation token")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify.RegistrationToken(ctx, user, tokenValue)
	return user, nil
}

// ConfirmEmail consumes a confirmation token and marks the account verified.
func (s *service) ConfirmEmail(ctx context.Context, email, token string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	token = strings.TrimSpace(token)
	if email == "" || token == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email and token are required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		tokens := s.tokens.WithTx(tx)

		user, err := users.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "invalid email or token")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}

		row, err := tokens.FindByToken(ctx, token)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "invalid email or token")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load token")
		}
		if row.UserID != user.ID || row.IsUsed {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid email or token")
		}
		if row.Expired(s.now()) {
			return pkgerrors.New(pkgerrors.CodeValidation, "confirmation token has expired")
		}

		if err := tokens.MarkUsed(ctx, row.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume token")
		}
		if err := users.MarkEmailVerified(ctx, user.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark verified")
		}
		return nil
	})
}

// Login checks the credentials and mints an access token.
func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID:        user.ID,
		Role:          user.Role,
		EmailVerified: user.EmailVerified,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}
	return &LoginResult{Token: token, User: user}, nil
}

// Me returns the authenticated user's profile.
func (s *service) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}
