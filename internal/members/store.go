package members

import (
	"context"
	"database/sql"
	"strings"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Insert(ctx context.Context, m *Member) error {
	const q = `
INSERT INTO members (id, name, email, phone, member_code, status, outstanding_loans)
VALUES (?, ?, ?, ?, ?, ?, 0)`
	_, err := s.db.ExecContext(ctx, q,
		m.ID, m.Name, m.Email, m.Phone, m.MemberCode, m.Status,
	)
	return err
}

func (s *Store) GetByID(ctx context.Context, id string) (*Member, error) {
	const q = `
SELECT id, name, email, phone, member_code, status, outstanding_loans, created_at, updated_at
FROM members
WHERE id = ?`
	var m Member
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&m.ID, &m.Name, &m.Email, &m.Phone, &m.MemberCode,
		&m.Status, &m.OutstandingLoans, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) List(ctx context.Context, q MemberQuery) ([]Member, error) {
	sb := strings.Builder{}
	sb.WriteString(`
SELECT id, name, email, phone, member_code, status, outstanding_loans, created_at, updated_at
FROM members
WHERE 1=1`)

	args := []any{}
	if q.Search != "" {
		sb.WriteString(` AND (name LIKE ? OR email LIKE ? OR member_code LIKE ?)`)
		like := "%" + q.Search + "%"
		args = append(args, like, like, like)
	}
	sb.WriteString(` ORDER BY created_at DESC, id DESC`)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(
			&m.ID, &m.Name, &m.Email, &m.Phone, &m.MemberCode,
			&m.Status, &m.OutstandingLoans, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Update はプロフィールと会員ステータスのみ。outstanding_loans には触れない。
func (s *Store) Update(ctx context.Context, id string, req UpdateMemberRequest) (int64, error) {
	const q = `
UPDATE members
SET name = ?, email = ?, phone = ?, status = ?
WHERE id = ?`
	res, err := s.db.ExecContext(ctx, q, req.Name, req.Email, req.Phone, req.Status, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete は貸出中の会員を消さない（outstanding_loans = 0 のときだけ成功）。
func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	const q = `DELETE FROM members WHERE id = ? AND outstanding_loans = 0`
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
