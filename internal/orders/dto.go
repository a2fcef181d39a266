package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/procureline/procureline-backend/pkg/db/models"
)

// PartnerOrder is one order as a supplier sees it: only the lines sold by
// that supplier's shop, with totals recomputed over that subset.
type PartnerOrder struct {
	Order         models.Order       `json:"order"`
	Items         []models.OrderItem `json:"items"`
	TotalQuantity int                `json:"total_quantity"`
	TotalCost     decimal.Decimal    `json:"total_cost"`
}

// PartnerOrderList is the supplier-facing order feed.
type PartnerOrderList struct {
	Orders []PartnerOrder `json:"orders"`
	Count  int            `json:"count"`
}

// partnerView trims the order's lines to the shop's listings and recomputes
// the totals from the kept subset.
func partnerView(order models.Order, shopID uuid.UUID) *PartnerOrder {
	kept := make([]models.OrderItem, 0, len(order.Items))
	quantity := 0
	cost := decimal.Zero
	for _, item := range order.Items {
		if item.ProductInfo == nil || item.ProductInfo.ShopID != shopID {
			continue
		}
		kept = append(kept, item)
		quantity += item.Quantity
		cost = cost.Add(item.TotalPrice())
	}
	if len(kept) == 0 {
		return nil
	}

	trimmed := order
	trimmed.Items = nil
	return &PartnerOrder{
		Order:         trimmed,
		Items:         kept,
		TotalQuantity: quantity,
		TotalCost:     cost,
	}
}
