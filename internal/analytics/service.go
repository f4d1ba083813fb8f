package analytics

import (
	"context"
	"database/sql"

	platformdb "LIBRIS-backend/internal/platform/db"
)

type Summary struct {
	TotalCopies     int      `json:"total_copies"`
	AvailableCopies int      `json:"available_copies"`
	BorrowedCopies  int      `json:"borrowed_copies"`
	TotalMembers    int      `json:"total_members"`
	ActiveLoans     int      `json:"active_loans"`
	Categories      []string `json:"categories"`
}

type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service { return &Service{db: db} }

// Summarize は集計を読み取り専用Txでまとめて取る。
// カウンタ群と貸出件数が同じスナップショットから来るようにするため。
func (s *Service) Summarize(ctx context.Context) (Summary, error) {
	var out Summary

	err := platformdb.ReadOnly(ctx, s.db, func(ctx context.Context, tx platformdb.DBTX) error {
		const copiesQ = `
SELECT COALESCE(SUM(total_copies), 0), COALESCE(SUM(available_copies), 0)
FROM titles`
		if err := tx.QueryRowContext(ctx, copiesQ).Scan(&out.TotalCopies, &out.AvailableCopies); err != nil {
			return err
		}

		const membersQ = `SELECT COUNT(*) FROM members`
		if err := tx.QueryRowContext(ctx, membersQ).Scan(&out.TotalMembers); err != nil {
			return err
		}

		const loansQ = `SELECT COUNT(*) FROM loans WHERE status = 'active'`
		if err := tx.QueryRowContext(ctx, loansQ).Scan(&out.ActiveLoans); err != nil {
			return err
		}

		const categoriesQ = `
SELECT DISTINCT category FROM titles WHERE category <> '' ORDER BY category`
		rows, err := tx.QueryContext(ctx, categoriesQ)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var cat string
			if err := rows.Scan(&cat); err != nil {
				return err
			}
			out.Categories = append(out.Categories, cat)
		}
		return rows.Err()
	})
	if err != nil {
		return Summary{}, err
	}

	out.BorrowedCopies = out.TotalCopies - out.AvailableCopies
	return out, nil
}
