package orders

import (
	"testing"

	"github.com/nexusfashion/nexus-backend/pkg/db/models"
	"github.com/nexusfashion/nexus-backend/pkg/enums"
)

func TestOrderTransitionsForwardOnly(t *testing.T) {
	if !CanTransitionOrder(enums.OrderStatusPending, enums.OrderStatusConfirmed) {
		t.Fatal("pending -> confirmed should be allowed")
	}
	if CanTransitionOrder(enums.OrderStatusDelivered, enums.OrderStatusShipped) {
		t.Fatal("delivered -> shipped must not be allowed")
	}
	if CanTransitionOrder(enums.OrderStatusShipped, enums.OrderStatusCancelled) {
		t.Fatal("shipped orders must not be cancellable")
	}
	if !CanTransitionOrder(enums.OrderStatusDelivered, enums.OrderStatusReturned) {
		t.Fatal("delivered -> returned should be allowed")
	}
	if !CanTransitionOrder(enums.OrderStatusReturned, enums.OrderStatusRefunded) {
		t.Fatal("returned -> refunded should be allowed")
	}
}

func TestItemTransitions(t *testing.T) {
	if !CanTransitionItem(enums.OrderItemStatusPending, enums.OrderItemStatusProcessing) {
		t.Fatal("pending -> processing should be allowed")
	}
	if CanTransitionItem(enums.OrderItemStatusDelivered, enums.OrderItemStatusShipped) {
		t.Fatal("delivered -> shipped must not be allowed")
	}
	if CanTransitionItem(enums.OrderItemStatusShipped, enums.OrderItemStatusCancelled) {
		t.Fatal("shipped items must not be cancellable")
	}
}

func TestOverallStatusSlowestItemWins(t *testing.T) {
	items := []models.OrderItem{
		{Status: enums.OrderItemStatusShipped},
		{Status: enums.OrderItemStatusDelivered},
	}
	status, ok := OverallStatus(items)
	if !ok {
		t.Fatal("expected computed status")
	}
	if status != enums.OrderStatusShipped {
		t.Fatalf("expected shipped got %s", status)
	}
}

func TestOverallStatusIgnoresCancelledItems(t *testing.T) {
	items := []models.OrderItem{
		{Status: enums.OrderItemStatusCancelled},
		{Status: enums.OrderItemStatusDelivered},
	}
	status, ok := OverallStatus(items)
	if !ok {
		t.Fatal("expected computed status")
	}
	if status != enums.OrderStatusDelivered {
		t.Fatalf("expected delivered got %s", status)
	}
}

func TestOverallStatusAllCancelled(t *testing.T) {
	items := []models.OrderItem{
		{Status: enums.OrderItemStatusCancelled},
	}
	status, ok := OverallStatus(items)
	if !ok {
		t.Fatal("expected computed status")
	}
	if status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled got %s", status)
	}
}

func TestOverallStatusPendingItemsHoldAtConfirmed(t *testing.T) {
	items := []models.OrderItem{
		{Status: enums.OrderItemStatusPending},
		{Status: enums.OrderItemStatusShipped},
	}
	status, ok := OverallStatus(items)
	if !ok {
		t.Fatal("expected computed status")
	}
	if status != enums.OrderStatusConfirmed {
		t.Fatalf("expected confirmed got %s", status)
	}
}
