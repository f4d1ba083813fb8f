package catalog

import (
	"context"
	"database/sql"
	"strings"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Insert(ctx context.Context, t *Title) error {
	const q = `
INSERT INTO titles (id, title, author, isbn, category, total_copies, available_copies)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		t.ID, t.Title, t.Author, t.ISBN, t.Category, t.TotalCopies, t.AvailableCopies,
	)
	return err
}

func (s *Store) GetByID(ctx context.Context, id string) (*Title, error) {
	const q = `
SELECT id, title, author, isbn, category, total_copies, available_copies, created_at, updated_at
FROM titles
WHERE id = ?`
	var t Title
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.Title, &t.Author, &t.ISBN, &t.Category,
		&t.TotalCopies, &t.AvailableCopies, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) List(ctx context.Context, q TitleQuery) ([]Title, error) {
	sb := strings.Builder{}
	sb.WriteString(`
SELECT id, title, author, isbn, category, total_copies, available_copies, created_at, updated_at
FROM titles
WHERE 1=1`)

	args := []any{}
	if q.Search != "" {
		sb.WriteString(` AND (title LIKE ? OR author LIKE ? OR isbn LIKE ?)`)
		like := "%" + q.Search + "%"
		args = append(args, like, like, like)
	}
	if q.AvailableOnly {
		sb.WriteString(` AND available_copies > 0`)
	}
	sb.WriteString(` ORDER BY created_at DESC, id DESC`)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Title
	for rows.Next() {
		var t Title
		if err := rows.Scan(
			&t.ID, &t.Title, &t.Author, &t.ISBN, &t.Category,
			&t.TotalCopies, &t.AvailableCopies, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update はメタデータと総冊数を1文で更新する。
// available_copies は「貸出中冊数を保ったまま」連動させ、貸出中冊数より小さい
// total_copies への縮小はWHERE句で弾く（0行更新）。
// MySQLのSETは左から順に評価されるため、available_copies の式が先にあること。
func (s *Store) Update(ctx context.Context, id string, req UpdateTitleRequest) (int64, error) {
	const q = `
UPDATE titles
SET title = ?, author = ?, isbn = ?, category = ?,
    available_copies = available_copies + (? - total_copies),
    total_copies = ?
WHERE id = ? AND total_copies - available_copies <= ?`
	res, err := s.db.ExecContext(ctx, q,
		req.Title, req.Author, req.ISBN, req.Category,
		req.TotalCopies, req.TotalCopies,
		id, req.TotalCopies,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete は貸出中の蔵書があるタイトルを消さない（available == total のときだけ成功）。
func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	const q = `DELETE FROM titles WHERE id = ? AND available_copies = total_copies`
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
