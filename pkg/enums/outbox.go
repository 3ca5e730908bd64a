package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateOrder      OutboxAggregateType = "order"
	AggregateOrderItem  OutboxAggregateType = "order_item"
	AggregateCommission OutboxAggregateType = "commission"
	AggregatePayout     OutboxAggregateType = "payout"
	AggregateReport     OutboxAggregateType = "sales_report"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateOrderItem,
	AggregateCommission,
	AggregatePayout,
	AggregateReport,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderCreated                OutboxEventType = "order_created"
	EventOrderStatusChanged          OutboxEventType = "order_status_changed"
	EventOrderItemStatusChanged      OutboxEventType = "order_item_status_changed"
	EventOrderPaid                   OutboxEventType = "order_paid"
	EventOrderCancelled              OutboxEventType = "order_cancelled"
	EventOrderRefunded               OutboxEventType = "order_refunded"
	EventCommissionCreated           OutboxEventType = "commission_created"
	EventCommissionApproved          OutboxEventType = "commission_approved"
	EventCommissionCancelled         OutboxEventType = "commission_cancelled"
	EventCommissionComputationFailed OutboxEventType = "commission_computation_failed"
	EventPayoutRequested             OutboxEventType = "payout_requested"
	EventPayoutCompleted             OutboxEventType = "payout_completed"
	EventPayoutFailed                OutboxEventType = "payout_failed"
	EventSalesReportGenerated        OutboxEventType = "sales_report_generated"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderStatusChanged,
	EventOrderItemStatusChanged,
	EventOrderPaid,
	EventOrderCancelled,
	EventOrderRefunded,
	EventCommissionCreated,
	EventCommissionApproved,
	EventCommissionCancelled,
	EventCommissionComputationFailed,
	EventPayoutRequested,
	EventPayoutCompleted,
	EventPayoutFailed,
	EventSalesReportGenerated,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
