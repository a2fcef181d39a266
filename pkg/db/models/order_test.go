package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestOrderTotalsComputedFromItems(t *testing.T) {
	order := Order{
		Items: []OrderItem{
			{Quantity: 2, Price: decimal.RequireFromString("10.00")},
			{Quantity: 1, Price: decimal.RequireFromString("5.00")},
		},
	}

	if got := order.TotalQuantity(); got != 3 {
		t.Fatalf("expected total quantity 3, got %d", got)
	}
	if got := order.TotalCost(); !got.Equal(decimal.RequireFromString("25.00")) {
		t.Fatalf("expected total cost 25.00, got %s", got)
	}
}

func TestOrderTotalsEmpty(t *testing.T) {
	var order Order
	if got := order.TotalQuantity(); got != 0 {
		t.Fatalf("expected 0 quantity, got %d", got)
	}
	if !order.TotalCost().Equal(decimal.Zero) {
		t.Fatalf("expected zero cost, got %s", order.TotalCost())
	}
}

func TestOrderItemTotalPrice(t *testing.T) {
	item := OrderItem{Quantity: 3, Price: decimal.RequireFromString("19.99")}
	if got := item.TotalPrice(); !got.Equal(decimal.RequireFromString("59.97")) {
		t.Fatalf("expected 59.97, got %s", got)
	}
}
