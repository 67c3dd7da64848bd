package models

import "time"

// Ledger entry descriptions, kept verbatim from the original fare system.
const (
	DescriptionTopUp = "Top-up saldo"
	DescriptionFare  = "Pembayaran tiket"
)

// LedgerEntry is an immutable record of a single balance-affecting event.
// Amount is signed: positive for a top-up, negative for a fare payment.
type LedgerEntry struct {
	ID              string    `json:"id"`
	CardID          string    `json:"card_id"`
	Amount          int64     `json:"amount"`
	Description     string    `json:"description"`
	TransactionDate time.Time `json:"transaction_date"`
	MAC             []byte    `json:"-"`
}
