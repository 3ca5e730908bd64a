package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nexusfashion/nexus-backend/pkg/enums"
)

// OrderCreatedEvent signals a new customer order with its per-vendor lines.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID      `json:"order_id"`
	OrderNumber string         `json:"order_number"`
	CustomerID  uuid.UUID      `json:"customer_id"`
	VendorIDs   []uuid.UUID    `json:"vendor_ids"`
	ItemCount   int            `json:"item_count"`
	TotalCents  int            `json:"total_cents"`
	Currency    enums.Currency `json:"currency"`
}

// OrderStatusChangedEvent records every overall order transition.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	FromStatus enums.OrderStatus `json:"from_status"`
	ToStatus   enums.OrderStatus `json:"to_status"`
}

// OrderItemStatusChangedEvent records a single line transition, usually
// driven by the owning vendor.
type OrderItemStatusChangedEvent struct {
	OrderItemID uuid.UUID             `json:"order_item_id"`
	OrderID     uuid.UUID             `json:"order_id"`
	VendorID    uuid.UUID             `json:"vendor_id"`
	FromStatus  enums.OrderItemStatus `json:"from_status"`
	ToStatus    enums.OrderItemStatus `json:"to_status"`
}

// OrderPaidEvent is emitted once when payment is confirmed for an order.
type OrderPaidEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	TotalCents int       `json:"total_cents"`
	PaidAt     time.Time `json:"paid_at"`
}

// OrderCancelledEvent carries the reason alongside the cancellation.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	CancelledAt time.Time `json:"cancelled_at"`
	Reason      string    `json:"reason,omitempty"`
}

// OrderRefundedEvent is emitted when an admin refunds a returned order.
type OrderRefundedEvent struct {
	OrderID      uuid.UUID `json:"order_id"`
	CustomerID   uuid.UUID `json:"customer_id"`
	RefundedAt   time.Time `json:"refunded_at"`
	AmountCents  int       `json:"amount_cents"`
	RefundReason string    `json:"refund_reason,omitempty"`
}

// CommissionCreatedEvent reports a commission booked for an order line.
type CommissionCreatedEvent struct {
	CommissionID uuid.UUID       `json:"commission_id"`
	OrderItemID  uuid.UUID       `json:"order_item_id"`
	OrderID      uuid.UUID       `json:"order_id"`
	VendorID     uuid.UUID       `json:"vendor_id"`
	Rate         decimal.Decimal `json:"rate"`
	GrossAmount  decimal.Decimal `json:"gross_amount"`
	NetAmount    decimal.Decimal `json:"net_amount"`
	RateSource   string          `json:"rate_source"`
}

// CommissionApprovedEvent is emitted when an admin releases a commission
// for payout.
type CommissionApprovedEvent struct {
	CommissionID uuid.UUID `json:"commission_id"`
	VendorID     uuid.UUID `json:"vendor_id"`
	ApprovedBy   uuid.UUID `json:"approved_by"`
	ApprovedAt   time.Time `json:"approved_at"`
}

// CommissionCancelledEvent is emitted when an order cancellation or refund
// voids a pending commission.
type CommissionCancelledEvent struct {
	CommissionID uuid.UUID `json:"commission_id"`
	VendorID     uuid.UUID `json:"vendor_id"`
	CancelledAt  time.Time `json:"cancelled_at"`
	Reason       string    `json:"reason,omitempty"`
}

// CommissionComputationFailedEvent flags an order whose commissions could
// not be booked because vendor linkage was incomplete. The order itself
// stands; operators reconcile from this event.
type CommissionComputationFailedEvent struct {
	OrderID   uuid.UUID  `json:"order_id"`
	ProductID *uuid.UUID `json:"product_id,omitempty"`
	Reason    string     `json:"reason"`
}

// PayoutRequestedEvent reports a vendor payout request and the commissions
// it reserved.
type PayoutRequestedEvent struct {
	PayoutID      uuid.UUID       `json:"payout_id"`
	VendorID      uuid.UUID       `json:"vendor_id"`
	RequestedBy   uuid.UUID       `json:"requested_by"`
	Amount        decimal.Decimal `json:"amount"`
	NetAmount     decimal.Decimal `json:"net_amount"`
	CommissionIDs []uuid.UUID     `json:"commission_ids"`
}

// PayoutCompletedEvent is emitted once per payout when funds settle.
type PayoutCompletedEvent struct {
	PayoutID             uuid.UUID       `json:"payout_id"`
	VendorID             uuid.UUID       `json:"vendor_id"`
	NetAmount            decimal.Decimal `json:"net_amount"`
	TransactionReference string          `json:"transaction_reference"`
	CompletedAt          time.Time       `json:"completed_at"`
}

// PayoutFailedEvent carries the failure reason; the reserved commissions
// return to the payable pool.
type PayoutFailedEvent struct {
	PayoutID      uuid.UUID   `json:"payout_id"`
	VendorID      uuid.UUID   `json:"vendor_id"`
	FailureReason string      `json:"failure_reason"`
	CommissionIDs []uuid.UUID `json:"commission_ids"`
}

// SalesReportGeneratedEvent reports a rollup window written by the cron job.
type SalesReportGeneratedEvent struct {
	ReportID   uuid.UUID        `json:"report_id"`
	ReportType enums.ReportType `json:"report_type"`
	ReportDate time.Time        `json:"report_date"`
	VendorID   *uuid.UUID       `json:"vendor_id,omitempty"`
}
