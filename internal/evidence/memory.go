package evidence

import (
	"context"
	"sync"
)

// Compile-time checks that MemoryStore implements the persistence ports.
var (
	_ Repository     = (*MemoryStore)(nil)
	_ CaseDirectory  = (*MemoryStore)(nil)
	_ PromotionGuard = (*MemoryStore)(nil)
)

// MemoryStore is an in-memory implementation of Repository, CaseDirectory
// and PromotionGuard. It uses maps with an RWMutex for thread-safe access.
// Suitable for development and testing; swap for PostgresStore in production.
type MemoryStore struct {
	mu         sync.RWMutex
	records    map[string]*Record // by ID
	byPath     map[string]string  // storage key -> record ID
	cases      map[string]*Case
	promotions map[string]struct{} // case IDs with a promotion in flight
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:    make(map[string]*Record),
		byPath:     make(map[string]string),
		cases:      make(map[string]*Case),
		promotions: make(map[string]struct{}),
	}
}

// Create stores a new record.
func (s *MemoryStore) Create(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record.Clone()
	s.byPath[record.FilePath] = record.ID
	return nil
}

// FindByPath returns the record owning the given storage key.
func (s *MemoryStore) FindByPath(_ context.Context, filePath string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPath[filePath]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return s.records[id].Clone(), nil
}

// ListByCase returns clones of every record attached to a case.
func (s *MemoryStore) ListByCase(_ context.Context, caseID string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*Record
	for _, record := range s.records {
		if record.CaseID == caseID {
			result = append(result, record.Clone())
		}
	}
	return result, nil
}

// MarkPermanent flips a record's storage location to permanent.
func (s *MemoryStore) MarkPermanent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return ErrRecordNotFound
	}
	record.Location = LocationPermanent
	return nil
}

// SaveCase stores a case. Test and development helper; in production the
// complaints table is owned by the surrounding application.
func (s *MemoryStore) SaveCase(_ context.Context, c *Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *c
	s.cases[c.ID] = &clone
	return nil
}

// FindCase returns the case with the given ID.
func (s *MemoryStore) FindCase(_ context.Context, id string) (*Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, ErrCaseNotFound
	}
	clone := *c
	return &clone, nil
}

// Acquire claims the promotion in-progress flag for a case.
func (s *MemoryStore) Acquire(_ context.Context, caseID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.promotions[caseID]; held {
		return false, nil
	}
	s.promotions[caseID] = struct{}{}
	return true, nil
}

// Release clears the promotion in-progress flag.
func (s *MemoryStore) Release(_ context.Context, caseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.promotions, caseID)
	return nil
}
