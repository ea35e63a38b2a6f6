package wallet

import "context"

type Repository interface {
	GetOrCreateWallet(ctx context.Context, userID string) (*Wallet, error)
	AddTransaction(ctx context.Context, userID string, amountCents int64, txType string) error
	TopUp(ctx context.Context, userID string, amountCents int64) error
	GetTransactions(ctx context.Context, userID string, limit, offset int) ([]Transaction, error)
}
