package ledger

import "time"

// 貸出リクエスト
type BorrowRequest struct {
	MemberID string `json:"member_id" binding:"required"`
	TitleID  string `json:"title_id" binding:"required"`
}

// 貸出レスポンス
type LoanResponse struct {
	ID         string     `json:"id"`
	TitleID    string     `json:"title_id"`
	MemberID   string     `json:"member_id"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	DueAt      time.Time  `json:"due_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	Status     LoanStatus `json:"status"`
}

func loanResponseFrom(rec LoanRecord) LoanResponse {
	return LoanResponse{
		ID:         rec.ID,
		TitleID:    rec.TitleID,
		MemberID:   rec.MemberID,
		BorrowedAt: rec.BorrowedAt,
		DueAt:      rec.DueAt,
		ReturnedAt: rec.ReturnedAt,
		Status:     rec.Status,
	}
}
