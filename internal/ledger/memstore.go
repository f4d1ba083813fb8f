package ledger

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for local development (use_mock_store)
// and for tests. Every method takes the one mutex, so each adjust is a true
// atomic read-modify-write. It deliberately does not implement TxStore — this
// is the store that exercises the ledger's compensation path.
type MemoryStore struct {
	mu      sync.Mutex
	titles  map[string]TitleSnapshot
	members map[string]MemberSnapshot
	loans   map[string]LoanRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		titles:  make(map[string]TitleSnapshot),
		members: make(map[string]MemberSnapshot),
		loans:   make(map[string]LoanRecord),
	}
}

// PutTitle / PutMember seed or replace snapshots (dev/test用).
func (s *MemoryStore) PutTitle(t TitleSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles[t.ID] = t
}

func (s *MemoryStore) PutMember(m MemberSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[m.ID] = m
}

func (s *MemoryStore) GetTitle(_ context.Context, titleID string) (TitleSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.titles[titleID]
	if !ok {
		return TitleSnapshot{}, ErrTitleNotFound("title not found")
	}
	return t, nil
}

func (s *MemoryStore) GetMember(_ context.Context, memberID string) (MemberSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[memberID]
	if !ok {
		return MemberSnapshot{}, ErrMemberNotFound("member not found")
	}
	return m, nil
}

func (s *MemoryStore) AdjustAvailable(_ context.Context, titleID string, delta int, cond AdjustCond) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.titles[titleID]
	if !ok {
		return ErrTitleNotFound("title not found")
	}
	switch cond {
	case CondAvailableGTZero:
		if t.AvailableCopies <= 0 {
			return ErrConflict("available_copies precondition no longer holds")
		}
	case CondAvailableLTTotal:
		if t.AvailableCopies >= t.TotalCopies {
			return ErrConflict("available_copies precondition no longer holds")
		}
	}
	t.AvailableCopies += delta
	s.titles[titleID] = t
	return nil
}

func (s *MemoryStore) AdjustOutstanding(_ context.Context, memberID string, delta int, cond AdjustCond) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[memberID]
	if !ok {
		return ErrMemberNotFound("member not found")
	}
	if cond == CondOutstandingGTZero && m.OutstandingLoans <= 0 {
		return ErrConflict("outstanding_loans precondition no longer holds")
	}
	m.OutstandingLoans += delta
	s.members[memberID] = m
	return nil
}

func (s *MemoryStore) CreateLoan(_ context.Context, rec *LoanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.loans[rec.ID]; exists {
		return ErrInternal("duplicate loan id")
	}
	s.loans[rec.ID] = *rec
	return nil
}

func (s *MemoryStore) GetLoan(_ context.Context, loanID string) (LoanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.loans[loanID]
	if !ok {
		return LoanRecord{}, ErrLoanNotFound("loan not found")
	}
	return rec, nil
}

func (s *MemoryStore) MarkReturned(_ context.Context, loanID string, returnedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.loans[loanID]
	if !ok {
		return ErrLoanNotFound("loan not found")
	}
	if rec.Status != LoanStatusActive {
		return ErrAlreadyReturned("loan already returned")
	}
	t := returnedAt
	rec.Status = LoanStatusReturned
	rec.ReturnedAt = &t
	s.loans[loanID] = rec
	return nil
}

func (s *MemoryStore) ListLoans(_ context.Context, f LoanFilter) ([]LoanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []LoanRecord
	for _, rec := range s.loans {
		if f.TitleID != nil && rec.TitleID != *f.TitleID {
			continue
		}
		if f.MemberID != nil && rec.MemberID != *f.MemberID {
			continue
		}
		if f.Status != nil && rec.Status != *f.Status {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BorrowedAt.Equal(out[j].BorrowedAt) {
			return out[i].BorrowedAt.After(out[j].BorrowedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
