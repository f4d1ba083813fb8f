package ledger

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	platformdb "LIBRIS-backend/internal/platform/db"
)

// MySQLStore implements Store on MySQL. Counter updates are single guarded
// UPDATE statements so the precondition check and the write commit together;
// RowsAffected==0 is then disambiguated by a re-read.
type MySQLStore struct {
	db   platformdb.DBTX
	root *sql.DB // nil when this store is bound to a transaction
}

func NewMySQLStore(conn *sql.DB) *MySQLStore {
	return &MySQLStore{db: conn, root: conn}
}

// WithinTx runs fn against a transaction-bound copy of the store.
// COMMIT on nil, ROLLBACK on error (platform/db.RunInTx の規約どおり).
func (s *MySQLStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	if s.root == nil {
		// ネスト開始は不可。すでにTx内なのでそのまま実行する。
		return fn(s)
	}
	return platformdb.RunInTx(ctx, s.root, nil, func(ctx context.Context, tx platformdb.DBTX) error {
		return fn(&MySQLStore{db: tx})
	})
}

func (s *MySQLStore) GetTitle(ctx context.Context, titleID string) (TitleSnapshot, error) {
	const q = `
SELECT id, total_copies, available_copies
FROM titles
WHERE id = ?`
	var t TitleSnapshot
	err := s.db.QueryRowContext(ctx, q, titleID).Scan(&t.ID, &t.TotalCopies, &t.AvailableCopies)
	if errors.Is(err, sql.ErrNoRows) {
		return TitleSnapshot{}, ErrTitleNotFound("title not found")
	}
	if err != nil {
		return TitleSnapshot{}, err
	}
	return t, nil
}

func (s *MySQLStore) GetMember(ctx context.Context, memberID string) (MemberSnapshot, error) {
	const q = `
SELECT id, status, outstanding_loans
FROM members
WHERE id = ?`
	var m MemberSnapshot
	err := s.db.QueryRowContext(ctx, q, memberID).Scan(&m.ID, &m.Status, &m.OutstandingLoans)
	if errors.Is(err, sql.ErrNoRows) {
		return MemberSnapshot{}, ErrMemberNotFound("member not found")
	}
	if err != nil {
		return MemberSnapshot{}, err
	}
	return m, nil
}

func (s *MySQLStore) AdjustAvailable(ctx context.Context, titleID string, delta int, cond AdjustCond) error {
	q := `UPDATE titles SET available_copies = available_copies + ? WHERE id = ?`
	switch cond {
	case CondAvailableGTZero:
		q += ` AND available_copies > 0`
	case CondAvailableLTTotal:
		q += ` AND available_copies < total_copies`
	}
	res, err := s.db.ExecContext(ctx, q, delta, titleID)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 1 {
		return nil
	}

	// 0行更新: 行が無いのか、前提条件で弾かれたのかを読み直して区別する
	if _, err := s.GetTitle(ctx, titleID); err != nil {
		return err
	}
	return ErrConflict("available_copies precondition no longer holds")
}

func (s *MySQLStore) AdjustOutstanding(ctx context.Context, memberID string, delta int, cond AdjustCond) error {
	q := `UPDATE members SET outstanding_loans = outstanding_loans + ? WHERE id = ?`
	if cond == CondOutstandingGTZero {
		q += ` AND outstanding_loans > 0`
	}
	res, err := s.db.ExecContext(ctx, q, delta, memberID)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 1 {
		return nil
	}

	if _, err := s.GetMember(ctx, memberID); err != nil {
		return err
	}
	return ErrConflict("outstanding_loans precondition no longer holds")
}

func (s *MySQLStore) CreateLoan(ctx context.Context, rec *LoanRecord) error {
	const q = `
INSERT INTO loans (id, title_id, member_id, borrowed_at, due_at, status)
VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		rec.ID, rec.TitleID, rec.MemberID, rec.BorrowedAt, rec.DueAt, rec.Status,
	)
	return err
}

func (s *MySQLStore) GetLoan(ctx context.Context, loanID string) (LoanRecord, error) {
	const q = `
SELECT id, title_id, member_id, borrowed_at, due_at, returned_at, status
FROM loans
WHERE id = ?`
	return scanLoan(s.db.QueryRowContext(ctx, q, loanID))
}

func (s *MySQLStore) MarkReturned(ctx context.Context, loanID string, returnedAt time.Time) error {
	// active→returned の一方向遷移。statusの条件付きUPDATEが冪等性のゲートになる。
	const q = `
UPDATE loans
SET status = ?, returned_at = ?
WHERE id = ? AND status = ?`
	res, err := s.db.ExecContext(ctx, q, LoanStatusReturned, returnedAt, loanID, LoanStatusActive)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 1 {
		return nil
	}

	if _, err := s.GetLoan(ctx, loanID); err != nil {
		return err
	}
	return ErrAlreadyReturned("loan already returned")
}

func (s *MySQLStore) ListLoans(ctx context.Context, f LoanFilter) ([]LoanRecord, error) {
	sb := strings.Builder{}
	sb.WriteString(`
SELECT id, title_id, member_id, borrowed_at, due_at, returned_at, status
FROM loans
WHERE 1=1`)

	args := []any{}
	if f.TitleID != nil {
		sb.WriteString(` AND title_id = ?`)
		args = append(args, *f.TitleID)
	}
	if f.MemberID != nil {
		sb.WriteString(` AND member_id = ?`)
		args = append(args, *f.MemberID)
	}
	if f.Status != nil {
		sb.WriteString(` AND status = ?`)
		args = append(args, *f.Status)
	}
	sb.WriteString(` ORDER BY borrowed_at DESC, id DESC`)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LoanRecord
	for rows.Next() {
		rec, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoan(row rowScanner) (LoanRecord, error) {
	var rec LoanRecord
	var returnedAt sql.NullTime
	err := row.Scan(
		&rec.ID, &rec.TitleID, &rec.MemberID,
		&rec.BorrowedAt, &rec.DueAt, &returnedAt, &rec.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return LoanRecord{}, ErrLoanNotFound("loan not found")
	}
	if err != nil {
		return LoanRecord{}, err
	}
	if returnedAt.Valid {
		t := returnedAt.Time
		rec.ReturnedAt = &t
	}
	return rec, nil
}
