package ledger

import (
	"context"
	"time"
)

// AdjustCond names the precondition a counter update must re-check inside the
// atomic write itself. A plain read-then-write is not allowed here: two borrows
// racing for the last copy would both pass the read.
type AdjustCond int

const (
	CondNone AdjustCond = iota
	CondAvailableGTZero
	CondAvailableLTTotal
	CondOutstandingGTZero
)

// Store is the persistence contract the ledger needs. Every Adjust / MarkReturned
// must be a single atomic read-modify-write against the backing store; a failed
// precondition surfaces as CONCURRENT_CONFLICT (or ALREADY_RETURNED for loans),
// a missing row as the matching *_NOT_FOUND.
type Store interface {
	GetTitle(ctx context.Context, titleID string) (TitleSnapshot, error)
	GetMember(ctx context.Context, memberID string) (MemberSnapshot, error)

	AdjustAvailable(ctx context.Context, titleID string, delta int, cond AdjustCond) error
	AdjustOutstanding(ctx context.Context, memberID string, delta int, cond AdjustCond) error

	CreateLoan(ctx context.Context, rec *LoanRecord) error
	GetLoan(ctx context.Context, loanID string) (LoanRecord, error)
	MarkReturned(ctx context.Context, loanID string, returnedAt time.Time) error

	// ListLoans runs a fresh query per call, ordered by borrowed_at descending.
	ListLoans(ctx context.Context, f LoanFilter) ([]LoanRecord, error)
}

// TxStore is the optional capability for native multi-record transactions.
// When the backing store offers it the ledger wraps borrow/return in one
// transaction and needs no saga compensation; otherwise it compensates manually.
type TxStore interface {
	WithinTx(ctx context.Context, fn func(s Store) error) error
}
