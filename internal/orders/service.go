package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procureline/procureline-backend/internal/notifications"
	"github.com/procureline/procureline-backend/pkg/db/models"
	"github.com/procureline/procureline-backend/pkg/enums"
	pkgerrors "github.com/procureline/procureline-backend/pkg/errors"
	"github.com/procureline/procureline-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type contactLoader interface {
	FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Contact, error)
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type shopLoader interface {
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Shop, error)
}

// Config toggles order lifecycle behavior.
type Config struct {
	// PermissiveStatus accepts any status enum member as the next order
	// status instead of enforcing the transition table.
	PermissiveStatus bool
}

// Service exposes order placement, read projections, and the privileged
// status authority.
type Service interface {
	Confirm(ctx context.Context, userID, contactID uuid.UUID, comment string) (*models.Order, error)
	ListOwn(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	GetOwn(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	SetStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error)
	ListForShopOwner(ctx context.Context, ownerID uuid.UUID) (*PartnerOrderList, error)
}

type service struct {
	repo     OrderRepository
	contacts contactLoader
	users    userLoader
	shops    shopLoader
	tx       txRunner
	notify   notifications.Service
	business *metrics.BusinessMetrics
	cfg      Config
}

// NewService builds an order service backed by the provided stack.
func NewService(repo OrderRepository, contacts contactLoader, users userLoader, shops shopLoader, tx txRunner, notify notifications.Service, business *metrics.BusinessMetrics, cfg Config) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if contacts == nil {
		return nil, fmt.Errorf("contact loader required")
	}
	if users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if shops == nil {
		return nil, fmt.Errorf("shop loader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notify == nil {
		return nil, fmt.Errorf("notification service required")
	}
	return &service{
		repo:     repo,
		contacts: contacts,
		users:    users,
		shops:    shops,
		tx:       tx,
		notify:   notify,
		business: business,
		cfg:      cfg,
	}, nil
}

// Confirm places the user's cart: the same row flips from cart to new with
// the delivery contact and comment attached. This is the only transition
// out of cart.
func (s *service) Confirm(ctx context.Context, userID, contactID uuid.UUID, comment string) (*models.Order, error) {
	if contactID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact id is required")
	}

	var orderID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := repo.FindCartByUserForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock cart")
		}

		lines, err := repo.CountItems(ctx, cart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart lines")
		}
		if lines == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		// A contact the caller does not own reads as invalid input, not
		// as missing, so foreign contact ids cannot be probed.
		contact, err := s.contacts.FindByIDAndUser(ctx, contactID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "invalid contact").
					WithDetails(map[string]any{"field": "contact_id"})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load contact")
		}

		cart.ContactID = &contact.ID
		cart.Comment = strings.TrimSpace(comment)
		cart.Status = enums.OrderStatusNew
		if err := repo.Save(ctx, cart); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order")
		}
		orderID = cart.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	placed, err := s.repo.FindByIDAndUser(ctx, orderID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}

	s.business.IncOrderPlaced()
	s.notifyPlaced(ctx, placed, userID)
	return placed, nil
}

func (s *service) notifyPlaced(ctx context.Context, order *models.Order, userID uuid.UUID) {
	buyer, err := s.users.FindByID(ctx, userID)
	if err != nil {
		buyer = nil
	}
	s.notify.OrderPlaced(ctx, order, buyer)
}

// ListOwn returns the user's placed orders with lines and totals.
func (s *service) ListOwn(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, nil
}

// GetOwn returns one placed order restricted to its owner.
func (s *service) GetOwn(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByIDAndUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// SetStatus overwrites an order's status. By default the transition table
// is enforced; the permissive flag restores overwrite-anything behavior
// for operators migrating off the old system.
func (s *service) SetStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	if !status.IsValid() || status == enums.OrderStatusCart {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]any{"field": "status"})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
		}
		if order.Status == enums.OrderStatusCart {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has not been placed yet")
		}
		if !s.cfg.PermissiveStatus && !order.Status.CanTransitionTo(status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move order from %s to %s", order.Status, status))
		}

		order.Status = status
		if err := repo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}

	s.business.IncStatusTransition(status.String())
	if buyer, err := s.users.FindByID(ctx, updated.UserID); err == nil {
		s.notify.OrderStatusChanged(ctx, updated, buyer)
	}
	return updated, nil
}

// ListForShopOwner returns placed orders touching the owner's shop, each
// trimmed to that shop's lines with recomputed partial totals.
func (s *service) ListForShopOwner(ctx context.Context, ownerID uuid.UUID) (*PartnerOrderList, error) {
	shop, err := s.shops.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &PartnerOrderList{Orders: []PartnerOrder{}}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
	}

	rows, err := s.repo.ListTouchingShop(ctx, shop.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shop orders")
	}

	result := &PartnerOrderList{Orders: make([]PartnerOrder, 0, len(rows))}
	for _, order := range rows {
		if view := partnerView(order, shop.ID); view != nil {
			result.Orders = append(result.Orders, *view)
		}
	}
	result.Count = len(result.Orders)
	return result, nil
}
