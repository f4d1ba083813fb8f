package members

import "time"

// Member は members テーブルの1行を表す。
// outstanding_loans は台帳(ledger)だけが書き換える。
type Member struct {
	ID               string
	Name             string
	Email            string
	Phone            string
	MemberCode       string
	Status           string // active | inactive
	OutstandingLoans int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type MemberQuery struct {
	Search string // name / email / member_code の部分一致
}
