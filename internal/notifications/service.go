package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/procureline/procureline-backend/pkg/config"
	"github.com/procureline/procureline-backend/pkg/db/models"
	"github.com/procureline/procureline-backend/pkg/logger"
)

// Service sends the transactional emails the platform produces. Every send
// is best effort: failures are logged and never surface to the caller, so
// a down relay cannot roll back an order.
type Service interface {
	RegistrationToken(ctx context.Context, user *models.User, token string)
	OrderPlaced(ctx context.Context, order *models.Order, buyer *models.User)
	OrderStatusChanged(ctx context.Context, order *models.Order, buyer *models.User)
}

type service struct {
	mailer Mailer
	cfg    config.SMTPConfig
	logg   *logger.Logger
}

// NewService wires the notification sender.
func NewService(mailer Mailer, cfg config.SMTPConfig, logg *logger.Logger) Service {
	return &service{mailer: mailer, cfg: cfg, logg: logg}
}

// RegistrationToken mails the email-confirmation token to a new account.
func (s *service) RegistrationToken(ctx context.Context, user *models.User, token string) {
	if user == nil {
		return
	}
	body := fmt.Sprintf(
		"Hello %s,\n\nConfirm your email address with this token:\n\n%s\n\nThe token expires in 24 hours.\n",
		user.FirstName, token,
	)
	s.send(ctx, user.Email, "Confirm your email", body)
}

// OrderPlaced notifies the operations inbox and the buyer about a freshly
// placed order.
func (s *service) OrderPlaced(ctx context.Context, order *models.Order, buyer *models.User) {
	if order == nil {
		return
	}

	summary := orderSummary(order)
	s.send(ctx, s.cfg.OrdersInbox, fmt.Sprintf("New order %s", order.ID), summary)

	if buyer != nil && buyer.Email != "" {
		body := fmt.Sprintf("Your order has been placed.\n\n%s", summary)
		s.send(ctx, buyer.Email, "Order received", body)
	}
}

// OrderStatusChanged tells the buyer their order moved to a new status.
func (s *service) OrderStatusChanged(ctx context.Context, order *models.Order, buyer *models.User) {
	if order == nil || buyer == nil || buyer.Email == "" {
		return
	}
	body := fmt.Sprintf("Order %s is now %s.\n", order.ID, order.Status)
	s.send(ctx, buyer.Email, "Order status update", body)
}

func (s *service) send(ctx context.Context, to, subject, body string) {
	if to == "" {
		return
	}
	if err := s.mailer.Send(ctx, to, subject, body); err != nil && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"to":      to,
			"subject": subject,
		})
		s.logg.Error(logCtx, "mail.delivery_failed", err)
	}
}

func orderSummary(order *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s (status %s)\n", order.ID, order.Status)
	for _, item := range order.Items {
		name := ""
		if item.ProductInfo != nil {
			name = item.ProductInfo.Name
		}
		fmt.Fprintf(&b, "  %s x%d @ %s = %s\n", name, item.Quantity, item.Price.StringFixed(2), item.TotalPrice().StringFixed(2))
	}
	fmt.Fprintf(&b, "Total: %d items, %s\n", order.TotalQuantity(), order.TotalCost().StringFixed(2))
	return b.String()
}
