package transaction

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/redmonkez12/mybucks/internal/logging"
)

var ErrInvalidID = errors.New("invalid transaction id")

// Service handles transaction business logic. Every call is scoped to the owner
// resolved from the caller's token.
type Service struct {
	repo        Repository
	idempotency IdempotencyStore // nil disables Idempotency-Key handling
	logger      *logging.Logger
}

func NewService(repo Repository, idempotency IdempotencyStore, logger *logging.Logger) *Service {
	return &Service{
		repo:        repo,
		idempotency: idempotency,
		logger:      logger,
	}
}

// Create validates and stores a new transaction for owner
func (s *Service) Create(ctx context.Context, owner uuid.UUID, in CreateInput) (*Transaction, error) {
	valid, err := in.Validate()
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, owner, valid)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return created, nil
}

// CreateIdempotent behaves like Create, except that a repeated key returns the
// originally created record with replayed=true. An empty key or a service
// without a store falls through to Create.
func (s *Service) CreateIdempotent(ctx context.Context, owner uuid.UUID, key string, in CreateInput) (t *Transaction, replayed bool, err error) {
	if key == "" || s.idempotency == nil {
		t, err = s.Create(ctx, owner, in)
		return t, false, err
	}
	if !validIdempotencyKey(key) {
		return nil, false, ErrInvalidIdempotencyKey
	}

	valid, err := in.Validate()
	if err != nil {
		return nil, false, err
	}

	existing, reserved, err := s.idempotency.Reserve(ctx, owner, key)
	if err != nil {
		return nil, false, err
	}
	if !reserved {
		t, err = s.repo.GetOwned(ctx, owner, existing)
		if err != nil {
			return nil, false, err
		}
		return t, true, nil
	}

	t, err = s.repo.Create(ctx, owner, valid)
	if err != nil {
		if relErr := s.idempotency.Release(ctx, owner, key); relErr != nil {
			s.logger.Warn("failed to release idempotency key", "error", relErr.Error())
		}
		return nil, false, fmt.Errorf("failed to create transaction: %w", err)
	}

	if err := s.idempotency.Complete(ctx, owner, key, t.ID); err != nil {
		// the record exists; a retry with this key will see 409 until the TTL lapses
		s.logger.Warn("failed to complete idempotency key", "error", err.Error(), "transaction_id", t.ID)
	}
	return t, false, nil
}

// List returns one page of the owner's transactions
func (s *Service) List(ctx context.Context, owner uuid.UUID, q ListQuery) (*ListResult, error) {
	items, total, err := s.repo.List(ctx, owner, q)
	if err != nil {
		if errors.Is(err, ErrInvalidSort) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return &ListResult{
		Transactions: items,
		Pagination: Pagination{
			Total:   total,
			Limit:   q.Limit,
			Offset:  q.Offset,
			HasMore: q.Offset < total && q.Limit < total-q.Offset,
		},
	}, nil
}

// Delete removes one owned transaction. rawID must be a UUID.
func (s *Service) Delete(ctx context.Context, owner uuid.UUID, rawID string) (*Transaction, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, ErrInvalidID
	}

	deleted, err := s.repo.DeleteOwned(ctx, owner, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete transaction: %w", err)
	}
	return deleted, nil
}

// Summary reports income, expenses and balance with two decimal places
func (s *Service) Summary(ctx context.Context, owner uuid.UUID) (*Summary, error) {
	totals, err := s.repo.Totals(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize transactions: %w", err)
	}

	latest, _, err := s.repo.List(ctx, owner, ListQuery{Sort: SortLatest, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to load latest transaction: %w", err)
	}

	summary := &Summary{
		Count:    totals.Count,
		Income:   totals.Income.StringFixed(2),
		Expenses: totals.Expenses.StringFixed(2),
		Balance:  totals.Income.Add(totals.Expenses).StringFixed(2),
	}
	if len(latest) > 0 {
		summary.Latest = &latest[0]
	}
	return summary, nil
}
