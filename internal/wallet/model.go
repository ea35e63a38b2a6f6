package wallet

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Wallet struct {
	ID           int       `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	BalanceCents int64     `db:"balance_cents" json:"balance_cents"`
	Currency     string    `db:"currency" json:"currency"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Balance is the balance in whole currency units.
func (w *Wallet) Balance() int64 {
	return w.BalanceCents / 100
}

// Formatted renders the balance as a localized integer followed by the currency code.
func (w *Wallet) Formatted() string {
	return FormatBalance(w.Balance(), w.Currency)
}

type Transaction struct {
	ID           int       `db:"id" json:"id"`
	WalletID     int       `db:"wallet_id" json:"wallet_id"`
	AmountCents  int64     `db:"amount_cents" json:"amount_cents"`
	Type         string    `db:"type" json:"type"` // topup, booking_payment, refund
	BalanceAfter int64     `db:"balance_after" json:"balance_after"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

var printer = message.NewPrinter(language.English)

// FormatBalance formats amount as "1,234 DZD".
func FormatBalance(amount int64, currency string) string {
	return printer.Sprintf("%d %s", amount, currency)
}
