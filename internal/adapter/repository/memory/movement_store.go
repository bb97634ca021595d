package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iho/movledger/internal/domain"
	"github.com/iho/movledger/internal/usecase"
)

// MovementStore implements usecase.MovementRepository in memory. Each
// account's movements are kept in sequence order.
type MovementStore struct {
	mu        sync.RWMutex
	byAccount map[string][]*domain.Movement
	byID      map[string]*domain.Movement
	reversals map[string]string
}

// NewMovementStore creates an empty MovementStore.
func NewMovementStore() *MovementStore {
	return &MovementStore{
		byAccount: make(map[string][]*domain.Movement),
		byID:      make(map[string]*domain.Movement),
		reversals: make(map[string]string),
	}
}

// Append stages a movement insert on tx. On commit the movement must carry
// the account's next sequence number.
func (s *MovementStore) Append(ctx context.Context, tx usecase.Transaction, movement *domain.Movement) error {
	mtx, err := asTx(tx)
	if err != nil {
		return err
	}
	stored := cloneMovement(movement)
	return mtx.stage(func() (func(), error) {
		if err := s.insert(stored); err != nil {
			return nil, err
		}
		return func() { s.remove(stored) }, nil
	})
}

// remove drops the account's latest movement when it is m.
func (s *MovementStore) remove(m *domain.Movement) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.byAccount[m.AccountID]
	if n := len(history); n > 0 && history[n-1].ID == m.ID {
		s.byAccount[m.AccountID] = history[:n-1]
	}
	delete(s.byID, m.ID)
	if m.ReversesID != nil && s.reversals[*m.ReversesID] == m.ID {
		delete(s.reversals, *m.ReversesID)
	}
}

func (s *MovementStore) insert(m *domain.Movement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.byAccount[m.AccountID]
	if want := int64(len(history)) + 1; m.Sequence != want {
		return fmt.Errorf("%w: account %s expects sequence %d, got %d",
			domain.ErrSequenceConflict, m.AccountID, want, m.Sequence)
	}
	if n := len(history); n > 0 && m.Timestamp.Before(history[n-1].Timestamp) {
		return domain.ErrTimestampOutOfOrder
	}
	if _, ok := s.byID[m.ID]; ok {
		return fmt.Errorf("memory: duplicate movement id %s", m.ID)
	}
	if m.ReversesID != nil {
		if _, ok := s.reversals[*m.ReversesID]; ok {
			return domain.ErrMovementAlreadyReversed
		}
		s.reversals[*m.ReversesID] = m.ID
	}

	s.byAccount[m.AccountID] = append(history, m)
	s.byID[m.ID] = m
	return nil
}

// GetByID retrieves a movement by ID.
func (s *MovementStore) GetByID(ctx context.Context, id string) (*domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrMovementNotFound
	}
	return cloneMovement(m), nil
}

// GetLatest returns the account's last movement.
func (s *MovementStore) GetLatest(ctx context.Context, accountID string) (*domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.byAccount[accountID]
	if len(history) == 0 {
		return nil, domain.ErrMovementNotFound
	}
	return cloneMovement(history[len(history)-1]), nil
}

// GetLatestTx returns the account's last committed movement.
func (s *MovementStore) GetLatestTx(ctx context.Context, tx usecase.Transaction, accountID string) (*domain.Movement, error) {
	if _, err := asTx(tx); err != nil {
		return nil, err
	}
	return s.GetLatest(ctx, accountID)
}

// GetReversalOf returns the movement that reverses movementID.
func (s *MovementStore) GetReversalOf(ctx context.Context, tx usecase.Transaction, movementID string) (*domain.Movement, error) {
	if _, err := asTx(tx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.reversals[movementID]
	if !ok {
		return nil, domain.ErrMovementNotFound
	}
	return cloneMovement(s.byID[id]), nil
}

// ListByAccount returns a page of movements newest-first.
func (s *MovementStore) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.byAccount[accountID]
	result := make([]*domain.Movement, 0, limit)
	for i := len(history) - 1 - offset; i >= 0 && len(result) < limit; i-- {
		result = append(result, cloneMovement(history[i]))
	}
	return result, nil
}

// ListByAccountInRange returns movements with from <= timestamp <= to,
// newest-first.
func (s *MovementStore) ListByAccountInRange(ctx context.Context, accountID string, from, to time.Time) ([]*domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.byAccount[accountID]
	result := make([]*domain.Movement, 0)
	for i := len(history) - 1; i >= 0; i-- {
		m := history[i]
		if m.Timestamp.After(to) {
			continue
		}
		if m.Timestamp.Before(from) {
			break
		}
		result = append(result, cloneMovement(m))
	}
	return result, nil
}

// History returns every movement of the account oldest-first.
func (s *MovementStore) History(ctx context.Context, accountID string) ([]*domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.byAccount[accountID]
	result := make([]*domain.Movement, len(history))
	for i, m := range history {
		result[i] = cloneMovement(m)
	}
	return result, nil
}

func cloneMovement(m *domain.Movement) *domain.Movement {
	c := *m
	if m.ReversesID != nil {
		id := *m.ReversesID
		c.ReversesID = &id
	}
	return &c
}
