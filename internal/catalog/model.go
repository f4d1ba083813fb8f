package catalog

import "time"

// Title は titles テーブルの1行を表す。
// available_copies は台帳(ledger)だけが書き換える。カタログ側で触れて良いのは
// 作成時の初期値と total_copies 変更に伴う連動調整のみ。
type Title struct {
	ID              string
	Title           string
	Author          string
	ISBN            string
	Category        string
	TotalCopies     int
	AvailableCopies int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// 検索条件
type TitleQuery struct {
	Search        string // title / author / isbn の部分一致
	AvailableOnly bool
}
