package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nexusfashion/nexus-backend/pkg/enums"
	"github.com/nexusfashion/nexus-backend/pkg/types"
)

// Payout batches a vendor's approved commissions into one bank transfer.
// Amount = sum of linked commission net amounts; NetAmount = Amount -
// ProcessingFee. The linked commissions carry this payout's ID.
type Payout struct {
	ID                   uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID             uuid.UUID          `gorm:"column:vendor_id;type:uuid;not null;index"`
	Amount               decimal.Decimal    `gorm:"column:amount;type:decimal(12,2);not null"`
	ProcessingFee        decimal.Decimal    `gorm:"column:processing_fee;type:decimal(12,2);not null;default:0"`
	NetAmount            decimal.Decimal    `gorm:"column:net_amount;type:decimal(12,2);not null"`
	BankAccount          *types.BankAccount `gorm:"column:bank_account;type:jsonb;serializer:json"`
	Status               enums.PayoutStatus `gorm:"column:status;type:payout_status;not null;default:'pending'"`
	TransactionReference *string            `gorm:"column:transaction_reference"`
	FailureReason        *string            `gorm:"column:failure_reason"`
	RequestedBy          uuid.UUID          `gorm:"column:requested_by;type:uuid;not null"`
	ProcessedBy          *uuid.UUID         `gorm:"column:processed_by;type:uuid"`
	ProcessedAt          *time.Time         `gorm:"column:processed_at"`
	CompletedAt          *time.Time         `gorm:"column:completed_at"`
	Commissions          []Commission       `gorm:"foreignKey:PayoutID"`
	CreatedAt            time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
