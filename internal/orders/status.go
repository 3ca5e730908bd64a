package orders

import (
	"github.com/nexusfashion/nexus-backend/pkg/db/models"
	"github.com/nexusfashion/nexus-backend/pkg/enums"
)

// orderTransitions is the forward path plus the terminal branches. Moving
// backward is never allowed; cancelled/returned/refunded are reachable only
// from the states listed here.
var orderTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed:  {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered},
	enums.OrderStatusDelivered:  {enums.OrderStatusReturned},
	enums.OrderStatusReturned:   {enums.OrderStatusRefunded},
	enums.OrderStatusCancelled:  {enums.OrderStatusRefunded},
}

// CanTransitionOrder reports whether the order status move is allowed.
func CanTransitionOrder(from, to enums.OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

var itemTransitions = map[enums.OrderItemStatus][]enums.OrderItemStatus{
	enums.OrderItemStatusPending:    {enums.OrderItemStatusProcessing, enums.OrderItemStatusCancelled},
	enums.OrderItemStatusProcessing: {enums.OrderItemStatusShipped, enums.OrderItemStatusCancelled},
	enums.OrderItemStatusShipped:    {enums.OrderItemStatusDelivered},
}

// CanTransitionItem reports whether the line item status move is allowed.
func CanTransitionItem(from, to enums.OrderItemStatus) bool {
	for _, next := range itemTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// fulfillment rank of each item status on the forward path
var itemRank = map[enums.OrderItemStatus]int{
	enums.OrderItemStatusPending:    0,
	enums.OrderItemStatusProcessing: 1,
	enums.OrderItemStatusShipped:    2,
	enums.OrderItemStatusDelivered:  3,
}

var rankToOrderStatus = map[int]enums.OrderStatus{
	0: enums.OrderStatusConfirmed,
	1: enums.OrderStatusProcessing,
	2: enums.OrderStatusShipped,
	3: enums.OrderStatusDelivered,
}

// OverallStatus computes a multi-vendor order's status as the least-advanced
// of its live items ("the order is as slow as its slowest item"). Cancelled
// items are ignored; if every item is cancelled the order is cancelled.
func OverallStatus(items []models.OrderItem) (enums.OrderStatus, bool) {
	lowest := -1
	live := 0
	for _, item := range items {
		if item.Status == enums.OrderItemStatusCancelled {
			continue
		}
		live++
		rank, ok := itemRank[item.Status]
		if !ok {
			continue
		}
		if lowest == -1 || rank < lowest {
			lowest = rank
		}
	}
	if live == 0 {
		return enums.OrderStatusCancelled, true
	}
	if lowest == -1 {
		return "", false
	}
	return rankToOrderStatus[lowest], true
}
