package farecard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/farekit/transit/farecard/models"
	"github.com/farekit/transit/internal/security"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/lib/pq"
)

// Repository stores cards and their ledger. It is backed by Postgres at
// runtime; an in-memory backend exists for tests.
type Repository struct {
	mu    sync.RWMutex
	cards map[string]*memCard

	db     *sql.DB
	signer security.Signer
}

// memCard carries its own mutex so mutations on distinct cards never
// contend, matching the row-level locking of the Postgres backend.
type memCard struct {
	mu      sync.Mutex
	balance int64
	entries []*models.LedgerEntry
}

func NewRepository() *Repository {
	return &Repository{
		cards:  make(map[string]*memCard),
		signer: security.NewHMACSigner([]byte("dev-secret-pepper")),
	}
}

// NewPGRepository constructs a db-backed repository.
func NewPGRepository(db *sql.DB, signer security.Signer) *Repository {
	return &Repository{db: db, signer: signer}
}

func (r *Repository) CreateCard(ctx context.Context, card *models.Card) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.cards[card.CardID]; ok {
			return fmt.Errorf("card id exists: %w", models.ErrConflict)
		}
		r.cards[card.CardID] = &memCard{balance: card.Balance}
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO farecard.cards(card_id, balance)
        VALUES ($1, $2)
    `, card.CardID, card.Balance)
	if isUniqueViolation(err) {
		return models.ErrConflict
	}
	return err
}

func (r *Repository) GetCard(ctx context.Context, cardID string) (*models.Card, error) {
	if r.db == nil {
		r.mu.RLock()
		c, ok := r.cards[cardID]
		r.mu.RUnlock()
		if !ok {
			return nil, models.ErrCardNotFound
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		return &models.Card{CardID: cardID, Balance: c.balance}, nil
	}
	row := r.db.QueryRowContext(ctx, `SELECT card_id, balance FROM farecard.cards WHERE card_id=$1`, cardID)
	card := &models.Card{}
	if err := row.Scan(&card.CardID, &card.Balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrCardNotFound
		}
		return nil, err
	}
	return card, nil
}

// ExistsCardID reports whether a card ID is already issued.
func (r *Repository) ExistsCardID(ctx context.Context, cardID string) (bool, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		_, ok := r.cards[cardID]
		return ok, nil
	}
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM farecard.cards WHERE card_id=$1`, cardID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// TopUp credits amount to the card and appends the matching ledger entry.
// Both happen inside one transaction under an exclusive row hold.
func (r *Repository) TopUp(ctx context.Context, cardID string, amount int64, now time.Time) (*models.MutationResult, error) {
	entry := &models.LedgerEntry{
		ID:              uuid.New().String(),
		CardID:          cardID,
		Amount:          amount,
		Description:     models.DescriptionTopUp,
		TransactionDate: now,
	}
	return r.mutate(ctx, cardID, entry, false)
}

// Pay debits fare from the card after a sufficiency check under the row
// hold. An insufficient balance aborts with no state change.
func (r *Repository) Pay(ctx context.Context, cardID string, fare int64, now time.Time) (*models.MutationResult, error) {
	entry := &models.LedgerEntry{
		ID:              uuid.New().String(),
		CardID:          cardID,
		Amount:          -fare,
		Description:     models.DescriptionFare,
		TransactionDate: now,
	}
	return r.mutate(ctx, cardID, entry, true)
}

func (r *Repository) mutate(ctx context.Context, cardID string, entry *models.LedgerEntry, checkFunds bool) (*models.MutationResult, error) {
	mac, err := r.entryMAC(entry)
	if err != nil {
		return nil, fmt.Errorf("entry mac: %w", err)
	}
	entry.MAC = mac

	if r.db == nil {
		return r.mutateMem(cardID, entry, checkFunds)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	// per-transaction statement timeout to avoid long lock waits
	if _, err := tx.ExecContext(ctx, `set local statement_timeout = '3s'`); err != nil {
		return nil, err
	}

	var balance int64
	err = tx.QueryRowContext(ctx, `SELECT balance FROM farecard.cards WHERE card_id=$1 FOR UPDATE`, cardID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrCardNotFound
	}
	if err != nil {
		return nil, err
	}

	if checkFunds && balance+entry.Amount < 0 {
		return nil, &models.InsufficientFundsError{Balance: balance}
	}
	newBalance := balance + entry.Amount

	if _, err := tx.ExecContext(ctx, `
        UPDATE farecard.cards SET balance=$2, updated_at=now() WHERE card_id=$1
    `, cardID, newBalance); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO farecard.ledger(entry_id, card_id, amount, description, mac, transaction_date)
        VALUES ($1,$2,$3,$4,$5,$6)
    `, entry.ID, cardID, entry.Amount, entry.Description, entry.MAC, entry.TransactionDate); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &models.MutationResult{NewBalance: newBalance, EntryID: entry.ID}, nil
}

func (r *Repository) mutateMem(cardID string, entry *models.LedgerEntry, checkFunds bool) (*models.MutationResult, error) {
	r.mu.RLock()
	c, ok := r.cards[cardID]
	r.mu.RUnlock()
	if !ok {
		return nil, models.ErrCardNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if checkFunds && c.balance+entry.Amount < 0 {
		return nil, &models.InsufficientFundsError{Balance: c.balance}
	}
	c.balance += entry.Amount
	c.entries = append(c.entries, entry)
	return &models.MutationResult{NewBalance: c.balance, EntryID: entry.ID}, nil
}

// ListTransactions returns the card's ledger entries in commit order.
func (r *Repository) ListTransactions(ctx context.Context, cardID string) ([]*models.LedgerEntry, error) {
	if r.db == nil {
		r.mu.RLock()
		c, ok := r.cards[cardID]
		r.mu.RUnlock()
		if !ok {
			return nil, models.ErrCardNotFound
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		entries := make([]*models.LedgerEntry, len(c.entries))
		copy(entries, c.entries)
		return entries, nil
	}
	rows, err := r.db.QueryContext(ctx, `
        SELECT entry_id, card_id, amount, description, mac, transaction_date
        FROM farecard.ledger WHERE card_id=$1 ORDER BY seq ASC
    `, cardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.LedgerEntry
	for rows.Next() {
		e := &models.LedgerEntry{}
		if err := rows.Scan(&e.ID, &e.CardID, &e.Amount, &e.Description, &e.MAC, &e.TransactionDate); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Ping returns DB readiness
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	return r.db.PingContext(ctx)
}

func (r *Repository) entryMAC(entry *models.LedgerEntry) ([]byte, error) {
	if r.signer == nil {
		return nil, nil
	}
	data := fmt.Sprintf("%s|%d|%d", entry.CardID, entry.Amount, entry.TransactionDate.Unix())
	return r.signer.MAC([]byte(data))
}

func isUniqueViolation(err error) bool {
	var pe *pq.Error
	if errors.As(err, &pe) && pe.Code == "23505" {
		return true
	}
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23505" {
		return true
	}
	return false
}
