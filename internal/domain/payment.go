package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

const (
	PaymentMethodCash    = "cash"
	PaymentMethodCard    = "card"
	PaymentMethodEWallet = "e-wallet"
)

// Payment is recorded against a rental. Method is opaque metadata.
type Payment struct {
	ID            int64           `json:"id" db:"id"`
	TransactionID string          `json:"transaction_id" db:"transaction_id"`
	RentalID      int64           `json:"rental_id" db:"rental_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Method        string          `json:"method" db:"payment_method"`
	Status        string          `json:"status" db:"payment_status"`
	PaidAt        time.Time       `json:"paid_at" db:"paid_at"`
	Notes         string          `json:"notes" db:"notes"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// DTOs for requests and responses

type RecordPaymentRequest struct {
	TransactionID string          `json:"transaction_id" validate:"omitempty,max=64"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method" validate:"required,oneof=cash card e-wallet"`
	Status        string          `json:"status" validate:"required,oneof=pending completed failed"`
	PaymentDate   string          `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
	PaymentTime   string          `json:"payment_time"`
	Notes         string          `json:"notes" validate:"max=500"`
}

type RecordPaymentResponse struct {
	PaymentID      int64           `json:"payment_id"`
	TransactionID  string          `json:"transaction_id"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
}

// ExpectedAmountResponse is the quote returned by ComputeExpectedAmount.
type ExpectedAmountResponse struct {
	RentalID       int64           `json:"rental_id"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	Rate           decimal.Decimal `json:"rate"`
	Hours          int             `json:"hours"`
	ResolvedEnd    *time.Time      `json:"resolved_end"`
	Status         RentalStatus    `json:"status"`
}
