package farecard_test

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/farekit/transit/farecard"
	"github.com/farekit/transit/internal/security"
	_ "github.com/lib/pq"
)

// TestBalanceAndLedgerCommitTogether verifies that a top-up and its ledger
// entry land in the same transaction on the pg backend.
// Skips unless DB_DSN is provided and REPO_BACKEND=pg.
func TestBalanceAndLedgerCommitTogether(t *testing.T) {
	if os.Getenv("REPO_BACKEND") != "pg" {
		t.Skip("REPO_BACKEND != pg; skipping DB integration test")
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		t.Skip("DB_DSN not set; skipping DB integration test")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		t.Fatalf("ping db: %v", err)
	}

	repo := farecard.NewPGRepository(db, security.NewHMACSigner([]byte("test-mac-key")))
	svc := farecard.NewService(repo, farecard.DefaultConfig())
	ctx := context.Background()

	card, err := svc.OpenAccount(ctx)
	if err != nil {
		t.Fatalf("open account: %v", err)
	}

	res, err := svc.TopUp(ctx, card.CardID, 5000)
	if err != nil {
		t.Fatalf("top up: %v", err)
	}
	if res.NewBalance != 5000 {
		t.Fatalf("new balance = %d want 5000", res.NewBalance)
	}

	var balance int64
	row := db.QueryRow(`select balance from farecard.cards where card_id=$1`, card.CardID)
	if err := row.Scan(&balance); err != nil {
		t.Fatalf("scan balance: %v", err)
	}
	if balance != 5000 {
		t.Fatalf("stored balance = %d want 5000", balance)
	}

	var entries int
	row = db.QueryRow(`select count(*) from farecard.ledger where card_id=$1`, card.CardID)
	if err := row.Scan(&entries); err != nil {
		t.Fatalf("scan ledger count: %v", err)
	}
	if entries != 1 {
		t.Fatalf("ledger entries = %d want 1", entries)
	}

	// a rejected payment must leave both relations untouched
	if _, err := svc.Pay(ctx, card.CardID, 100000); err == nil {
		t.Fatalf("expected insufficient funds error")
	}

	row = db.QueryRow(`select balance from farecard.cards where card_id=$1`, card.CardID)
	if err := row.Scan(&balance); err != nil {
		t.Fatalf("scan balance: %v", err)
	}
	if balance != 5000 {
		t.Fatalf("balance after rejected pay = %d want 5000", balance)
	}

	row = db.QueryRow(`select count(*) from farecard.ledger where card_id=$1`, card.CardID)
	if err := row.Scan(&entries); err != nil {
		t.Fatalf("scan ledger count: %v", err)
	}
	if entries != 1 {
		t.Fatalf("ledger entries after rejected pay = %d want 1", entries)
	}
}
