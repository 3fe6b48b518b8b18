// Package memory is the local-only record store: records live in process
// memory and ids are a monotonic counter. It backs tests and the
// DATA_BACKEND=memory mode.
package memory

import (
	"context"
	"sort"
	"sync"

	"spendlog/internal/core"
	"spendlog/internal/store"
)

type Store struct {
	mu      sync.Mutex
	nextID  int64
	records []core.Record
}

var _ store.RecordStore = (*Store)(nil)

func New() *Store {
	return &Store{nextID: 1}
}

// Seed inserts records with pre-assigned ids, for tests and local seeding.
func (s *Store) Seed(records ...core.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records = append(s.records, r)
		if r.ID >= s.nextID {
			s.nextID = r.ID + 1
		}
	}
}

func (s *Store) ListAll(_ context.Context) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := append([]core.Record(nil), s.records...)
	// Newest date first; same-date records keep newest-inserted first.
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Time.Equal(out[j].Date.Time) {
			return out[i].Date.Time.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) Create(_ context.Context, d core.Draft) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := core.Record{
		ID:       s.nextID,
		Title:    d.Title,
		Amount:   d.Amount,
		Category: d.Category,
		Date:     d.Date,
	}
	s.nextID++
	s.records = append(s.records, rec)
	return rec, nil
}

func (s *Store) ReplaceByID(_ context.Context, id int64, d core.Draft) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.records {
		if r.ID == id {
			rec := core.Record{ID: id, Title: d.Title, Amount: d.Amount, Category: d.Category, Date: d.Date}
			s.records[i] = rec
			return rec, nil
		}
	}
	return core.Record{}, store.ErrNotFound
}

func (s *Store) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.records {
		if r.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	// Idempotent: missing id is not an error
	return nil
}

func (s *Store) Close() error { return nil }
