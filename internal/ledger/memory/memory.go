package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"mayfinance/internal/core"
)

type Store struct {
	mu    sync.Mutex
	ids   *core.IDSource
	items []core.Transaction
}

func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock lets tests pin the id clock.
func NewWithClock(now func() time.Time) *Store {
	return &Store{ids: core.NewIDSource(now)}
}

// Append stores the transaction and returns its id.
func (s *Store) Append(_ context.Context, tx core.Transaction) (int64, error) {
	tx = tx.Normalized()
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	tx.Receipt = slices.Clone(tx.Receipt)

	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = s.ids.Next()
	s.items = append(s.items, tx)
	return tx.ID, nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = slices.DeleteFunc(s.items, func(tx core.Transaction) bool {
		return tx.ID == id
	})
	return nil
}

func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	return nil
}

// Scan returns a copy; callers may reorder it freely.
func (s *Store) Scan(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items), nil
}

// Len returns the number of stored transactions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
