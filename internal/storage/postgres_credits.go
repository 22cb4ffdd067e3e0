package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/terra-clan/interview-engine/internal/models"
)

// GetBalance returns the owner's balance; owners without an account have 0
func (r *PostgresRepository) GetBalance(ctx context.Context, ownerID string) (int, error) {
	var balance int
	err := r.pool.QueryRow(ctx, `SELECT balance FROM credit_accounts WHERE owner_id = $1`, ownerID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// DeductCredits subtracts amount under a row lock so concurrent deductions cannot overdraw
func (r *PostgresRepository) DeductCredits(ctx context.Context, ownerID string, amount int, description string) (int, error) {
	if amount < 0 {
		return 0, fmt.Errorf("deduct amount must not be negative: %d", amount)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int
	err = tx.QueryRow(ctx, `SELECT balance FROM credit_accounts WHERE owner_id = $1 FOR UPDATE`, ownerID).Scan(&balance)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to lock credit account: %w", err)
	}

	if balance < amount {
		return 0, &models.InsufficientCreditsError{Required: amount, Available: balance}
	}

	remaining := balance - amount
	if _, err := tx.Exec(ctx, `UPDATE credit_accounts SET balance = $2, updated_at = NOW() WHERE owner_id = $1`, ownerID, remaining); err != nil {
		return 0, fmt.Errorf("failed to update balance: %w", err)
	}

	if err := insertTransaction(ctx, tx, ownerID, models.CreditDeduct, -amount, remaining, description); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit deduction: %w", err)
	}

	return remaining, nil
}

// GrantCredits adds amount, creating the account if needed
func (r *PostgresRepository) GrantCredits(ctx context.Context, ownerID string, amount int, description string) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("grant amount must be positive: %d", amount)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int
	err = tx.QueryRow(ctx, `
		INSERT INTO credit_accounts (owner_id, balance, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (owner_id) DO UPDATE SET balance = credit_accounts.balance + EXCLUDED.balance, updated_at = NOW()
		RETURNING balance
	`, ownerID, amount).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("failed to grant credits: %w", err)
	}

	if err := insertTransaction(ctx, tx, ownerID, models.CreditGrant, amount, balance, description); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit grant: %w", err)
	}

	return balance, nil
}

// ListCreditTransactions returns the most recent ledger rows for the owner
func (r *PostgresRepository) ListCreditTransactions(ctx context.Context, ownerID string, limit int) ([]models.CreditTransaction, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, owner_id, kind, amount, balance_after, description, created_at
		FROM credit_transactions
		WHERE owner_id = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list credit transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.CreditTransaction
	for rows.Next() {
		var t models.CreditTransaction
		var kind string
		if err := rows.Scan(&t.ID, &t.OwnerID, &kind, &t.Amount, &t.BalanceAfter, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan credit transaction: %w", err)
		}
		t.Kind = models.CreditTransactionKind(kind)
		txs = append(txs, t)
	}

	return txs, rows.Err()
}

func insertTransaction(ctx context.Context, tx pgx.Tx, ownerID string, kind models.CreditTransactionKind, amount, balanceAfter int, description string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO credit_transactions (owner_id, kind, amount, balance_after, description)
		VALUES ($1, $2, $3, $4, $5)
	`, ownerID, string(kind), amount, balanceAfter, description)
	if err != nil {
		return fmt.Errorf("failed to record credit transaction: %w", err)
	}
	return nil
}
