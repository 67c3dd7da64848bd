package farecard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/farekit/transit/farecard/models"
	"github.com/farekit/transit/internal/cardid"
)

// Validation bounds in minor units, from the fare system's business rules.
const (
	MinTopUp = 1000
	MaxTopUp = 1000000
	MinFare  = 1000
	MaxFare  = 100000
)

type Service struct {
	repo *Repository
	cfg  *Config

	// Now supplies transaction timestamps; tests pin it.
	Now func() time.Time
}

func NewService(repo *Repository, cfg *Config) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Service{
		repo: repo,
		cfg:  cfg,
		Now:  time.Now,
	}
}

// OpenAccount issues a new card with a unique 8-digit ID and zero balance.
func (s *Service) OpenAccount(ctx context.Context) (*models.Card, error) {
	exists := func(id string) (bool, error) {
		return s.repo.ExistsCardID(ctx, id)
	}

	// Create with a conflict retry: a concurrent open may win the insert
	// race even after the exists check passed.
	for attempt := 0; attempt < 5; attempt++ {
		id, err := cardid.GenerateUnique(s.cfg.CardIDMaxRetries, exists)
		if err != nil {
			if errors.Is(err, cardid.ErrExhausted) {
				return nil, models.ErrCardIDSpaceExhausted
			}
			return nil, fmt.Errorf("generating card id: %w", err)
		}

		card := &models.Card{CardID: id, Balance: 0}
		err = s.repo.CreateCard(ctx, card)
		if err == nil {
			return card, nil
		}
		if errors.Is(err, models.ErrConflict) {
			continue
		}
		return nil, fmt.Errorf("creating card: %w", err)
	}
	return nil, fmt.Errorf("could not create unique card after retries")
}

// Balance is a point-in-time read; no hold is taken.
func (s *Service) Balance(ctx context.Context, cardID string) (*models.Card, error) {
	if !cardid.IsValid(cardID) {
		return nil, models.ErrInvalidCardID
	}
	card, err := s.repo.GetCard(ctx, cardID)
	if err != nil {
		if errors.Is(err, models.ErrCardNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("finding card: %w", err)
	}
	return card, nil
}

// TopUp credits amount to the card. Field validation happens before any
// lock is taken; the repository re-checks existence under the row hold.
func (s *Service) TopUp(ctx context.Context, cardID string, amount int64) (*models.MutationResult, error) {
	details := map[string]string{}
	if !cardid.IsValid(cardID) {
		details["card_id"] = "card_id must be exactly 8 digits"
	}
	if amount < MinTopUp || amount > MaxTopUp {
		details["amount"] = fmt.Sprintf("amount must be between %d and %d", MinTopUp, MaxTopUp)
	}
	if len(details) > 0 {
		return nil, &models.ValidationError{Details: details}
	}

	res, err := s.repo.TopUp(ctx, cardID, amount, s.Now())
	if err != nil {
		if errors.Is(err, models.ErrCardNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("top up: %w", err)
	}
	return res, nil
}

// Pay debits fare from the card, contingent on sufficient funds.
func (s *Service) Pay(ctx context.Context, cardID string, fare int64) (*models.MutationResult, error) {
	details := map[string]string{}
	if !cardid.IsValid(cardID) {
		details["card_id"] = "card_id must be exactly 8 digits"
	}
	if fare < MinFare {
		details["fare"] = fmt.Sprintf("fare must be at least %d", MinFare)
	} else if fare > MaxFare {
		details["fare"] = fmt.Sprintf("fare must be at most %d", MaxFare)
	}
	if len(details) > 0 {
		return nil, &models.ValidationError{Details: details}
	}

	res, err := s.repo.Pay(ctx, cardID, fare, s.Now())
	if err != nil {
		var insufficient *models.InsufficientFundsError
		if errors.Is(err, models.ErrCardNotFound) || errors.As(err, &insufficient) {
			return nil, err
		}
		return nil, fmt.Errorf("pay fare: %w", err)
	}
	return res, nil
}

// Transactions returns the card's ledger entries in commit order.
func (s *Service) Transactions(ctx context.Context, cardID string) ([]*models.LedgerEntry, error) {
	if !cardid.IsValid(cardID) {
		return nil, models.ErrInvalidCardID
	}
	if _, err := s.repo.GetCard(ctx, cardID); err != nil {
		if errors.Is(err, models.ErrCardNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("finding card: %w", err)
	}

	entries, err := s.repo.ListTransactions(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	return entries, nil
}
