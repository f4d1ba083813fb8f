package ledger

import "time"

type LoanStatus string

const (
	LoanStatusActive   LoanStatus = "active"
	LoanStatusReturned LoanStatus = "returned"
)

type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInactive MemberStatus = "inactive"
)

// LoanRecord は loans テーブルの1行を表す。
// Borrow で一度だけ作られ、Return での active→returned 遷移以外は不変。
type LoanRecord struct {
	ID         string
	TitleID    string
	MemberID   string
	BorrowedAt time.Time
	DueAt      time.Time
	ReturnedAt *time.Time
	Status     LoanStatus
}

// TitleSnapshot is the ledger's read view of a title's copy counters.
// Metadata columns belong to the catalog package and are not exposed here.
type TitleSnapshot struct {
	ID              string
	TotalCopies     int
	AvailableCopies int
}

// MemberSnapshot is the ledger's read view of a member.
type MemberSnapshot struct {
	ID               string
	Status           MemberStatus
	OutstandingLoans int
}

// 貸出一覧の検索条件。nil のフィールドは無視する。
type LoanFilter struct {
	TitleID  *string
	MemberID *string
	Status   *LoanStatus
}
