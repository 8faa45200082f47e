package model

import "time"

// TransactionStatus is the coarse settlement bucket shared by both gateways.
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "PENDING"
	TransactionStatusPaid     TransactionStatus = "PAID"
	TransactionStatusCanceled TransactionStatus = "CANCELED"
)

// ClickTransaction is one row per Click-side transaction id. Created only by
// the prepare step; complete (or a gateway-reported error) moves its status.
// ClickTransID and PrepareID are immutable once set.
type ClickTransaction struct {
	ID           string
	ClickTransID string // unique natural key, assigned by the gateway
	PrepareID    string // time-derived token handed back on prepare
	UserID       string
	PlanID       string
	Amount       int64
	Status       TransactionStatus
	SignTime     string
	CreatedDate  time.Time
}

// PaymeTransactionState is Payme's fine-grained lifecycle code, reported on
// the wire next to the coarse status.
type PaymeTransactionState int

const (
	PaymeStatePending         PaymeTransactionState = 1
	PaymeStatePaid            PaymeTransactionState = 2
	PaymeStatePendingCanceled PaymeTransactionState = -1
	PaymeStatePaidCanceled    PaymeTransactionState = -2
)

// PaymeTransaction is one row per Payme-side transaction id.
type PaymeTransaction struct {
	ID           string
	PaymeTransID string // unique natural key
	UserID       string
	PlanID       string
	Amount       int64 // in tiyin (minor unit, x100 of plan price)
	Status       TransactionStatus
	State        PaymeTransactionState
	Reason       *int
	CreatedAt    time.Time
	PerformAt    *time.Time
	CancelAt     *time.Time
}
