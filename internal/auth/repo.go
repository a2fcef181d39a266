package auth

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procureline/procureline-backend/pkg/db/models"
)

// TokenRepository persists email confirmation tokens.
type TokenRepository interface {
	WithTx(tx *gorm.DB) TokenRepository
	Create(ctx context.Context, token *models.EmailConfirmationToken) error
	FindByToken(ctx context.Context, token string) (*models.EmailConfirmationToken, error)
	MarkUsed(ctx context.Context, id uuid.UUID) error
}

// Repository exposes confirmation token persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a token repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) TokenRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a confirmation token.
func (r *Repository) Create(ctx context.Context, token *models.EmailConfirmationToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// FindByToken loads a confirmation token by its value.
func (r *Repository) FindByToken(ctx context.Context, token string) (*models.EmailConfirmationToken, error) {
	var row models.EmailConfirmationToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// MarkUsed consumes the token.
func (r *Repository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.EmailConfirmationToken{}).
		Where("id = ?", id).
		UpdateColumn("is_used", true).Error
}
