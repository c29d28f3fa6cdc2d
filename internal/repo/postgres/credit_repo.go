package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/humapedia/humapedia/internal/domain/model"
)

var (
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrUsageNotFound       = errors.New("usage record not found")
)

type CreditRepo struct {
	pool *pgxpool.Pool
}

func NewCreditRepo(pool *pgxpool.Pool) *CreditRepo {
	return &CreditRepo{pool: pool}
}

// GetAccount returns a zero-value account for unknown users; the row is
// only created on first mutation.
func (r *CreditRepo) GetAccount(ctx context.Context, userID string) (model.CreditAccount, error) {
	if strings.TrimSpace(userID) == "" {
		return model.CreditAccount{}, fmt.Errorf("user id is required")
	}
	if r.pool == nil {
		return model.CreditAccount{UserID: userID}, nil
	}

	var account model.CreditAccount
	err := r.pool.QueryRow(ctx, `
SELECT user_id, credits, total_purchased, total_used, last_purchase
FROM credit_accounts
WHERE user_id = $1
LIMIT 1
`, userID).Scan(
		&account.UserID,
		&account.Credits,
		&account.TotalPurchased,
		&account.TotalUsed,
		&account.LastPurchase,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.CreditAccount{UserID: userID}, nil
		}
		return model.CreditAccount{}, fmt.Errorf("get credit account: %w", err)
	}

	return account, nil
}

// ApplyPurchase credits the account and appends the purchase record in a
// single transaction. Only called after the payment provider confirmed the
// charge.
func (r *CreditRepo) ApplyPurchase(ctx context.Context, purchase model.Purchase) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(purchase.UserID) == "" || purchase.Amount <= 0 {
		return fmt.Errorf("invalid purchase payload")
	}

	return WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
INSERT INTO credit_accounts (user_id, credits, total_purchased, total_used, last_purchase, updated_at)
VALUES ($1, $2, $2, 0, $3, NOW())
ON CONFLICT (user_id) DO UPDATE SET
	credits = credit_accounts.credits + EXCLUDED.credits,
	total_purchased = credit_accounts.total_purchased + EXCLUDED.total_purchased,
	last_purchase = EXCLUDED.last_purchase,
	updated_at = NOW()
`, purchase.UserID, purchase.Amount, purchase.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("apply purchase to account: %w", err)
		}

		if _, err := tx.Exec(ctx, `
INSERT INTO purchases (id, user_id, amount, payment_method, cost, savings, transaction_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, purchase.ID,
			purchase.UserID,
			purchase.Amount,
			purchase.PaymentMethod,
			purchase.Cost,
			purchase.Savings,
			purchase.TransactionID,
			purchase.CreatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("insert purchase record: %w", err)
		}

		return nil
	})
}

// Reserve atomically deducts credits and writes the usage record. The
// balance check and the deduction are one statement, so concurrent
// reservations for the same user cannot overspend. Returns the balance
// left after the deduction.
func (r *CreditRepo) Reserve(ctx context.Context, usage model.Usage) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(usage.UserID) == "" || usage.CreditsUsed <= 0 {
		return 0, fmt.Errorf("invalid usage payload")
	}

	var remaining int
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
INSERT INTO credit_accounts (user_id, credits, total_purchased, total_used, updated_at)
VALUES ($1, 0, 0, 0, NOW())
ON CONFLICT (user_id) DO NOTHING
`, usage.UserID); err != nil {
			return fmt.Errorf("ensure credit account row: %w", err)
		}

		err := tx.QueryRow(ctx, `
UPDATE credit_accounts
SET
	credits = credits - $2,
	total_used = total_used + $2,
	updated_at = NOW()
WHERE user_id = $1 AND credits >= $2
RETURNING credits
`, usage.UserID, usage.CreditsUsed).Scan(&remaining)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrInsufficientCredits
			}
			return fmt.Errorf("reserve credits: %w", err)
		}

		if _, err := tx.Exec(ctx, `
INSERT INTO usages (id, user_id, type, credits_used, description, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`, usage.ID,
			usage.UserID,
			usage.Type,
			usage.CreditsUsed,
			usage.Description,
			usage.CreatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("insert usage record: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return remaining, nil
}

// Refund reverses a reservation after a failed provider call.
func (r *CreditRepo) Refund(ctx context.Context, userID, usageID string, amount int) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(usageID) == "" || amount <= 0 {
		return fmt.Errorf("invalid refund payload")
	}

	return WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `DELETE FROM usages WHERE id = $1 AND user_id = $2`, usageID, userID)
		if err != nil {
			return fmt.Errorf("delete usage record: %w", err)
		}
		if result.RowsAffected() == 0 {
			return ErrUsageNotFound
		}

		if _, err := tx.Exec(ctx, `
UPDATE credit_accounts
SET
	credits = credits + $2,
	total_used = total_used - $2,
	updated_at = NOW()
WHERE user_id = $1
`, userID, amount); err != nil {
			return fmt.Errorf("refund credits: %w", err)
		}

		return nil
	})
}

func (r *CreditRepo) ListPurchases(ctx context.Context, userID string) ([]model.Purchase, error) {
	if r.pool == nil {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, amount, payment_method, cost, savings, transaction_id, created_at
FROM purchases
WHERE user_id = $1
ORDER BY created_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []model.Purchase
	for rows.Next() {
		var p model.Purchase
		if err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.Amount,
			&p.PaymentMethod,
			&p.Cost,
			&p.Savings,
			&p.TransactionID,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchases: %w", err)
	}

	return purchases, nil
}

func (r *CreditRepo) ListUsages(ctx context.Context, userID string) ([]model.Usage, error) {
	if r.pool == nil {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, type, credits_used, description, created_at
FROM usages
WHERE user_id = $1
ORDER BY created_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list usages: %w", err)
	}
	defer rows.Close()

	var usages []model.Usage
	for rows.Next() {
		var u model.Usage
		if err := rows.Scan(
			&u.ID,
			&u.UserID,
			&u.Type,
			&u.CreditsUsed,
			&u.Description,
			&u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		usages = append(usages, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usages: %w", err)
	}

	return usages, nil
}
