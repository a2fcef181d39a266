package contacts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procureline/procureline-backend/pkg/db"
	"github.com/procureline/procureline-backend/pkg/db/models"
	pkgerrors "github.com/procureline/procureline-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes buyer contact book operations.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Contact, error)
	Get(ctx context.Context, userID, contactID uuid.UUID) (*models.Contact, error)
	Create(ctx context.Context, userID uuid.UUID, input ContactInput) (*models.Contact, error)
	Update(ctx context.Context, userID, contactID uuid.UUID, input ContactInput) (*models.Contact, error)
	Delete(ctx context.Context, userID, contactID uuid.UUID) error
}

type service struct {
	repo ContactRepository
	tx   txRunner
}

// NewService builds a contact service backed by the provided stack.
func NewService(repo ContactRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("contact repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// ContactInput carries the delivery contact fields.
type ContactInput struct {
	FirstName  string
	LastName   string
	Patronymic string
	Email      string
	Phone      string
	City       string
	Street     string
	House      string
	Structure  string
	Building   string
	Apartment  string
}

func (in ContactInput) validate() error {
	missing := []string{}
	for _, field := range []struct {
		name  string
		value string
	}{
		{"first_name", in.FirstName},
		{"last_name", in.LastName},
		{"email", in.Email},
		{"phone", in.Phone},
		{"city", in.City},
		{"street", in.Street},
		{"house", in.House},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing required contact fields").
			WithDetails(map[string]any{"fields": missing})
	}
	return nil
}

func (in ContactInput) apply(contact *models.Contact) {
	contact.FirstName = strings.TrimSpace(in.FirstName)
	contact.LastName = strings.TrimSpace(in.LastName)
	contact.Patronymic = strings.TrimSpace(in.Patronymic)
	contact.Email = strings.TrimSpace(in.Email)
	contact.Phone = strings.TrimSpace(in.Phone)
	contact.City = strings.TrimSpace(in.City)
	contact.Street = strings.TrimSpace(in.Street)
	contact.House = strings.TrimSpace(in.House)
	contact.Structure = strings.TrimSpace(in.Structure)
	contact.Building = strings.TrimSpace(in.Building)
	contact.Apartment = strings.TrimSpace(in.Apartment)
}

// List returns the user's contacts.
func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Contact, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list contacts")
	}
	return rows, nil
}

// Get returns one contact owned by the user.
func (s *service) Get(ctx context.Context, userID, contactID uuid.UUID) (*models.Contact, error) {
	contact, err := s.repo.FindByIDAndUser(ctx, contactID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "contact not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load contact")
	}
	return contact, nil
}

// Create stores a new contact for the user.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input ContactInput) (*models.Contact, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	contact := &models.Contact{UserID: userID}
	input.apply(contact)

	created, err := s.repo.Create(ctx, contact)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create contact")
	}
	return created, nil
}

// Update overwrites the contact's fields.
func (s *service) Update(ctx context.Context, userID, contactID uuid.UUID, input ContactInput) (*models.Contact, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	contact, err := s.Get(ctx, userID, contactID)
	if err != nil {
		return nil, err
	}
	input.apply(contact)

	saved, err := s.repo.Save(ctx, contact)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save contact")
	}
	return saved, nil
}

// Delete removes a contact unless an order still references it.
func (s *service) Delete(ctx context.Context, userID, contactID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		contact, err := repo.FindByIDAndUser(ctx, contactID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "contact not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load contact")
		}

		referenced, err := repo.CountReferencingOrders(ctx, contact.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check contact references")
		}
		if referenced > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "contact is referenced by existing orders")
		}

		if err := repo.Delete(ctx, contact.ID); err != nil {
			// The FK restriction backs up the pre-check under concurrent confirms.
			if db.IsForeignKeyViolation(err) {
				return pkgerrors.New(pkgerrors.CodeConflict, "contact is referenced by existing orders")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete contact")
		}
		return nil
	})
}
