package enums

import "testing"

func TestOrderStatusTransitionTable(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusNew, OrderStatusConfirmed, true},
		{OrderStatusNew, OrderStatusCancelled, true},
		{OrderStatusConfirmed, OrderStatusAssembled, true},
		{OrderStatusConfirmed, OrderStatusCancelled, true},
		{OrderStatusAssembled, OrderStatusShipped, true},
		{OrderStatusAssembled, OrderStatusCancelled, true},
		{OrderStatusShipped, OrderStatusCompleted, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusNew, OrderStatusAssembled, false},
		{OrderStatusConfirmed, OrderStatusNew, false},
		{OrderStatusCompleted, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusNew, false},
		{OrderStatusCart, OrderStatusNew, false},
		{OrderStatusNew, OrderStatusCart, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected %v got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	if !OrderStatusCompleted.IsTerminal() || !OrderStatusCancelled.IsTerminal() {
		t.Fatal("completed and cancelled must be terminal")
	}
	if OrderStatusCart.IsTerminal() || OrderStatusShipped.IsTerminal() {
		t.Fatal("cart and shipped must not be terminal")
	}
}

func TestParseOrderStatus(t *testing.T) {
	if _, err := ParseOrderStatus("assembled"); err != nil {
		t.Fatalf("parse assembled: %v", err)
	}
	if _, err := ParseOrderStatus("refunded"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestParseUserRole(t *testing.T) {
	role, err := ParseUserRole("shop")
	if err != nil {
		t.Fatalf("parse shop: %v", err)
	}
	if role != UserRoleShop {
		t.Fatalf("expected shop role, got %s", role)
	}
	if _, err := ParseUserRole("vendor"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}
