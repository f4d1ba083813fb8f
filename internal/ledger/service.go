package ledger

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// ===== インターフェース群 =====

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) {
	t := time.Now().UTC()
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Policy holds the lending policy constants (設定から注入、リテラル埋め込み禁止).
type Policy struct {
	LoanPeriod time.Duration
	Retry      RetryPolicy
}

func (p Policy) withDefaults() Policy {
	if p.LoanPeriod <= 0 {
		p.LoanPeriod = 15 * 24 * time.Hour
	}
	return p
}

// ===== Ledger本体 =====

// Ledger coordinates Borrow / Return / ListLoans across the title, member and
// loan records. It validates preconditions against fresh snapshots, but the
// atomic store adjusts are the authority; stale snapshots surface as conflicts
// and re-enter the bounded retry loop.
type Ledger struct {
	store  Store
	log    *zap.Logger
	clock  Clock
	id     IDGen
	policy Policy
}

func NewLedger(store Store, log *zap.Logger, policy Policy) *Ledger {
	return &Ledger{
		store:  store,
		log:    log,
		clock:  realClock{},
		id:     ulidGen{},
		policy: policy.withDefaults(),
	}
}

// 貸出
func (l *Ledger) Borrow(ctx context.Context, memberID, titleID string) (*LoanRecord, error) {
	if memberID == "" || titleID == "" {
		return nil, ErrInvalid("member_id and title_id are required")
	}

	var rec *LoanRecord
	err := retryWithBackoff(ctx, l.policy.Retry, func(ctx context.Context) error {
		r, err := l.borrowOnce(ctx, memberID, titleID)
		rec = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (l *Ledger) borrowOnce(ctx context.Context, memberID, titleID string) (*LoanRecord, error) {
	// 明らかな前提条件違反はここで fast-fail（権威は atomic adjust 側）
	title, err := l.store.GetTitle(ctx, titleID)
	if err != nil {
		return nil, err
	}
	member, err := l.store.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member.Status != MemberStatusActive {
		return nil, ErrMemberInactive("member account is not active")
	}
	if title.AvailableCopies <= 0 {
		return nil, ErrNoCopiesAvailable("no copies available")
	}

	id, err := l.id.New()
	if err != nil {
		return nil, err
	}
	now := l.clock.Now().UTC()
	rec := &LoanRecord{
		ID:         id,
		TitleID:    titleID,
		MemberID:   memberID,
		BorrowedAt: now,
		DueAt:      now.Add(l.policy.LoanPeriod),
		Status:     LoanStatusActive,
	}

	if tx, ok := l.store.(TxStore); ok {
		err = tx.WithinTx(ctx, func(s Store) error {
			return l.borrowSteps(ctx, s, rec, false)
		})
	} else {
		err = l.borrowSteps(ctx, l.store, rec, true)
	}
	if err != nil {
		return nil, l.reclassifyBorrowConflict(ctx, err, titleID)
	}
	return rec, nil
}

// compensate=false のときは Tx の ROLLBACK が巻き戻すので補償処理は行わない。
func (l *Ledger) borrowSteps(ctx context.Context, s Store, rec *LoanRecord, compensate bool) error {
	if err := s.AdjustAvailable(ctx, rec.TitleID, -1, CondAvailableGTZero); err != nil {
		return err
	}

	// 在庫デクリメントがコミット済み。以降はキャンセルされても完走か補償のどちらかに倒す。
	if compensate {
		ctx = context.WithoutCancel(ctx)
	}

	if err := s.AdjustOutstanding(ctx, rec.MemberID, 1, CondNone); err != nil {
		return l.compensateBorrow(ctx, s, rec, err, false, compensate)
	}
	if err := s.CreateLoan(ctx, rec); err != nil {
		return l.compensateBorrow(ctx, s, rec, err, true, compensate)
	}
	return nil
}

func (l *Ledger) compensateBorrow(ctx context.Context, s Store, rec *LoanRecord, cause error, revertMember, compensate bool) error {
	if !compensate {
		return cause
	}
	if revertMember {
		if cerr := s.AdjustOutstanding(ctx, rec.MemberID, -1, CondOutstandingGTZero); cerr != nil {
			return l.compensationFailed("borrow: revert outstanding_loans", cause, cerr)
		}
	}
	if cerr := s.AdjustAvailable(ctx, rec.TitleID, 1, CondNone); cerr != nil {
		return l.compensationFailed("borrow: revert available_copies", cause, cerr)
	}
	return cause
}

// 在庫デクリメントの CONFLICT は「本当に在庫ゼロ（terminal）」か
// 「スナップショットが古かっただけ（retryで解決）」かを読み直して区別する。
func (l *Ledger) reclassifyBorrowConflict(ctx context.Context, err error, titleID string) error {
	if CodeOf(err) != CodeConcurrentConflict {
		return err
	}
	title, gerr := l.store.GetTitle(ctx, titleID)
	if gerr != nil {
		return gerr
	}
	if title.AvailableCopies <= 0 {
		return ErrNoCopiesAvailable("no copies available")
	}
	return err
}

// 返却
func (l *Ledger) Return(ctx context.Context, loanID string) error {
	if loanID == "" {
		return ErrInvalid("loan_id is required")
	}
	return retryWithBackoff(ctx, l.policy.Retry, func(ctx context.Context) error {
		return l.returnOnce(ctx, loanID)
	})
}

func (l *Ledger) returnOnce(ctx context.Context, loanID string) error {
	loan, err := l.store.GetLoan(ctx, loanID)
	if err != nil {
		return err
	}
	if loan.Status != LoanStatusActive {
		return ErrAlreadyReturned("loan already returned")
	}

	now := l.clock.Now().UTC()
	if tx, ok := l.store.(TxStore); ok {
		return tx.WithinTx(ctx, func(s Store) error {
			return l.returnSteps(ctx, s, loan, now, false)
		})
	}
	return l.returnSteps(ctx, l.store, loan, now, true)
}

func (l *Ledger) returnSteps(ctx context.Context, s Store, loan LoanRecord, now time.Time, compensate bool) error {
	// 冪等性のゲート: 条件付きの active→returned 遷移を先に行う。
	// 二重Returnはここで ALREADY_RETURNED になり、カウンタには一切触れない。
	if err := s.MarkReturned(ctx, loan.ID, now); err != nil {
		return err
	}

	if compensate {
		ctx = context.WithoutCancel(ctx)
	}

	if err := s.AdjustAvailable(ctx, loan.TitleID, 1, CondAvailableLTTotal); err != nil {
		if !compensate {
			return err // ROLLBACK が遷移ごと巻き戻す
		}
		// ローンは一方向遷移なので戻せない。要手動照合として別枠で報告する。
		return l.compensationFailed("return: increment available_copies after mark", err, nil)
	}
	if err := s.AdjustOutstanding(ctx, loan.MemberID, -1, CondOutstandingGTZero); err != nil {
		if !compensate {
			return err
		}
		// 在庫側を戻すとタイトル不変条件が壊れるため戻さない。会員カウンタのみ不整合。
		return l.compensationFailed("return: decrement outstanding_loans after mark", err, nil)
	}
	return nil
}

// compensationFailed: 台帳の不変条件が壊れている可能性がある唯一の失敗モード。
// 通常エラーと区別してログし、手動照合に回す。
func (l *Ledger) compensationFailed(op string, cause, compErr error) error {
	fields := []zap.Field{
		zap.String("op", op),
		zap.NamedError("cause", cause),
	}
	if compErr != nil {
		fields = append(fields, zap.NamedError("compensation_error", compErr))
	}
	l.log.Error("ledger counters may be inconsistent; manual reconciliation required", fields...)
	return ErrCompensationFailed("ledger state may be inconsistent; manual reconciliation required")
}

// 貸出一覧
func (l *Ledger) ListLoans(ctx context.Context, f LoanFilter) ([]LoanRecord, error) {
	if f.Status != nil && *f.Status != LoanStatusActive && *f.Status != LoanStatusReturned {
		return nil, ErrInvalid("status must be active or returned")
	}
	return l.store.ListLoans(ctx, f)
}
