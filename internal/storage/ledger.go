package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/terra-clan/interview-engine/internal/models"
)

// Ledger exposes the credit methods of a Repository as the metered balance consumed by
// question generation
type Ledger struct {
	repo Repository
}

// NewLedger wraps a repository
func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// Balance returns the owner's current balance
func (l *Ledger) Balance(ctx context.Context, ownerID string) (int, error) {
	return l.repo.GetBalance(ctx, ownerID)
}

// Deduct removes amount and returns the remaining balance
func (l *Ledger) Deduct(ctx context.Context, ownerID string, amount int, description string) (int, error) {
	remaining, err := l.repo.DeductCredits(ctx, ownerID, amount, description)
	if err != nil {
		return 0, err
	}

	slog.Debug("credits deducted", "owner", ownerID, "amount", amount, "remaining", remaining)
	return remaining, nil
}

// Grant adds credits, e.g. when seeding a workspace
func (l *Ledger) Grant(ctx context.Context, ownerID string, amount int, description string) (int, error) {
	balance, err := l.repo.GrantCredits(ctx, ownerID, amount, description)
	if err != nil {
		return 0, fmt.Errorf("failed to grant credits: %w", err)
	}

	slog.Info("credits granted", "owner", ownerID, "amount", amount, "balance", balance)
	return balance, nil
}

// Summary returns the balance with the most recent transactions
func (l *Ledger) Summary(ctx context.Context, ownerID string, limit int) (*models.CreditBalance, error) {
	balance, err := l.repo.GetBalance(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	recent, err := l.repo.ListCreditTransactions(ctx, ownerID, limit)
	if err != nil {
		return nil, err
	}

	return &models.CreditBalance{OwnerID: ownerID, Balance: balance, Recent: recent}, nil
}
