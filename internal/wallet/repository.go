package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("top up amount must be positive")
)

const walletColumns = `id, user_id, balance_cents, currency, created_at, updated_at`

type repository struct {
	db       *sqlx.DB
	currency string
}

// NewRepository stores new wallets in the given currency.
func NewRepository(db *sqlx.DB, currency string) Repository {
	return &repository{db: db, currency: currency}
}

func (r *repository) GetOrCreateWallet(ctx context.Context, userID string) (*Wallet, error) {
	w := &Wallet{}
	err := r.db.GetContext(ctx, w, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1`, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load wallet: %w", err)
	}

	return insertWallet(ctx, r.db, userID, r.currency)
}

// insertWallet creates an empty wallet, or returns the existing one when a
// concurrent request created it first. q is either the pool or an open transaction.
func insertWallet(ctx context.Context, q sqlx.QueryerContext, userID, currency string) (*Wallet, error) {
	w := &Wallet{}
	err := q.QueryRowxContext(ctx,
		`INSERT INTO wallets (user_id, currency)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		 RETURNING `+walletColumns,
		userID, currency,
	).StructScan(w)
	if err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}
	return w, nil
}

func (r *repository) AddTransaction(ctx context.Context, userID string, amountCents int64, txType string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	w := &Wallet{}
	err = tx.QueryRowxContext(ctx,
		`SELECT `+walletColumns+`
		 FROM wallets
		 WHERE user_id = $1
		 FOR UPDATE`,
		userID,
	).StructScan(w)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if w, err = insertWallet(ctx, tx, userID, r.currency); err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("lock wallet: %w", err)
	}

	newBalance := w.BalanceCents + amountCents
	if newBalance < 0 {
		return ErrInsufficientBalance
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE wallets
		 SET balance_cents = $1, updated_at = NOW()
		 WHERE id = $2`,
		newBalance, w.ID,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO wallet_transactions (wallet_id, amount_cents, type, balance_after)
		 VALUES ($1, $2, $3, $4)`,
		w.ID, amountCents, txType, newBalance,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repository) TopUp(ctx context.Context, userID string, amountCents int64) error {
	if amountCents <= 0 {
		return ErrInvalidAmount
	}
	return r.AddTransaction(ctx, userID, amountCents, "topup")
}

func (r *repository) GetTransactions(ctx context.Context, userID string, limit, offset int) ([]Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var walletID int
	err := r.db.GetContext(ctx, &walletID, `SELECT id FROM wallets WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return []Transaction{}, nil
	}
	if err != nil {
		return nil, err
	}

	txs := []Transaction{}
	err = r.db.SelectContext(ctx, &txs, `
		SELECT id, wallet_id, amount_cents, type, balance_after, created_at
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, walletID, limit, offset)
	if err != nil {
		return nil, err
	}

	return txs, nil
}
