package models

import "time"

// CreditTransactionKind distinguishes ledger entries
type CreditTransactionKind string

const (
	CreditGrant  CreditTransactionKind = "grant"
	CreditDeduct CreditTransactionKind = "deduct"
)

// CreditTransaction is an append-only ledger row. Amount is signed: deductions are negative.
type CreditTransaction struct {
	ID           int64                 `json:"id"`
	OwnerID      string                `json:"owner_id"`
	Kind         CreditTransactionKind `json:"kind"`
	Amount       int                   `json:"amount"`
	BalanceAfter int                   `json:"balance_after"`
	Description  string                `json:"description"`
	CreatedAt    time.Time             `json:"created_at"`
}

// CreditBalance is returned by the balance endpoint
type CreditBalance struct {
	OwnerID string              `json:"owner_id"`
	Balance int                 `json:"balance"`
	Recent  []CreditTransaction `json:"recent,omitempty"`
}
