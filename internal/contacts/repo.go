package contacts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procureline/procureline-backend/pkg/db/models"
)

// ContactRepository is the persistence surface the contact service depends on.
type ContactRepository interface {
	WithTx(tx *gorm.DB) ContactRepository
	Create(ctx context.Context, contact *models.Contact) (*models.Contact, error)
	Save(ctx context.Context, contact *models.Contact) (*models.Contact, error)
	FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Contact, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Contact, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountReferencingOrders(ctx context.Context, id uuid.UUID) (int64, error)
}

// Repository exposes persistence operations for buyer contacts.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a contact repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) ContactRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new contact.
func (r *Repository) Create(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	if err := r.db.WithContext(ctx).Create(contact).Error; err != nil {
		return nil, err
	}
	return contact, nil
}

// Save persists the provided contact.
func (r *Repository) Save(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	if err := r.db.WithContext(ctx).Save(contact).Error; err != nil {
		return nil, err
	}
	return contact, nil
}

// FindByIDAndUser returns a contact restricted to its owner.
func (r *Repository) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Contact, error) {
	var contact models.Contact
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// ListByUser returns the user's contacts, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Contact, error) {
	var rows []models.Contact
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes the contact row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Contact{}, "id = ?", id).Error
}

// CountReferencingOrders counts orders holding a reference to the contact.
func (r *Repository) CountReferencingOrders(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("contact_id = ?", id).
		Count(&count).Error
	return count, err
}
