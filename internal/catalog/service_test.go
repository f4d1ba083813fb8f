package catalog

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	mysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewService(db), mock
}

func titleRow(id string, total, available int) *sqlmock.Rows {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "title", "author", "isbn", "category",
		"total_copies", "available_copies", "created_at", "updated_at",
	}).AddRow(id, "Go入門", "山田", "978-4", "tech", total, available, now, now)
}

func TestCatalogCreate(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectExec("INSERT INTO titles").
		WithArgs(sqlmock.AnyArg(), "Go入門", "山田", "978-4", "tech", 3, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id, title, author, isbn, category").
		WillReturnRows(titleRow("T1", 3, 3))

	res, err := svc.Create(context.Background(), CreateTitleRequest{
		Title: "Go入門", Author: "山田", ISBN: "978-4", Category: "tech", TotalCopies: 3,
	})
	require.NoError(t, err)
	// 新規登録時は全冊貸出可能
	assert.Equal(t, res.TotalCopies, res.AvailableCopies)
}

func TestCatalogCreateValidation(t *testing.T) {
	svc, _ := newMockService(t)

	_, err := svc.Create(context.Background(), CreateTitleRequest{Author: "山田", ISBN: "978-4"})
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeInvalidArgument, api.Code)

	_, err = svc.Create(context.Background(), CreateTitleRequest{
		Title: "Go入門", Author: "山田", ISBN: "978-4", TotalCopies: -1,
	})
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeInvalidArgument, api.Code)
}

func TestCatalogCreateDuplicateISBN(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectExec("INSERT INTO titles").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := svc.Create(context.Background(), CreateTitleRequest{
		Title: "Go入門", Author: "山田", ISBN: "978-4", TotalCopies: 3,
	})
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeConflict, api.Code)
}

func TestCatalogUpdateResize(t *testing.T) {
	svc, mock := newMockService(t)

	// total 5→4, 貸出中2冊: available は 3→2 に連動する
	mock.ExpectExec("UPDATE titles").
		WithArgs("改訂版", "山田", "978-4", "tech", 4, 4, "T1", 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id, title, author, isbn, category").
		WillReturnRows(titleRow("T1", 4, 2))

	res, err := svc.Update(context.Background(), "T1", UpdateTitleRequest{
		Title: "改訂版", Author: "山田", ISBN: "978-4", Category: "tech", TotalCopies: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.TotalCopies)
	assert.Equal(t, 2, res.AvailableCopies)
}

func TestCatalogUpdateRejectsShrinkBelowBorrowed(t *testing.T) {
	svc, mock := newMockService(t)

	// WHERE句で弾かれて0行更新、行は存在する → 縮小拒否のCONFLICT
	mock.ExpectExec("UPDATE titles").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, title, author, isbn, category").
		WillReturnRows(titleRow("T1", 5, 2))

	_, err := svc.Update(context.Background(), "T1", UpdateTitleRequest{
		Title: "改訂版", Author: "山田", ISBN: "978-4", TotalCopies: 1,
	})
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeConflict, api.Code)
}

func TestCatalogUpdateNotFound(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectExec("UPDATE titles").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, title, author, isbn, category").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.Update(context.Background(), "nope", UpdateTitleRequest{
		Title: "改訂版", Author: "山田", ISBN: "978-4", TotalCopies: 3,
	})
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeNotFound, api.Code)
}

func TestCatalogDeleteGuards(t *testing.T) {
	svc, mock := newMockService(t)

	// 貸出中あり（available < total）: 0行削除、行は存在 → CONFLICT
	mock.ExpectExec("DELETE FROM titles").
		WithArgs("T1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, title, author, isbn, category").
		WillReturnRows(titleRow("T1", 3, 1))

	err := svc.Delete(context.Background(), "T1")
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeConflict, api.Code)

	// 全冊返却済みなら削除できる
	mock.ExpectExec("DELETE FROM titles").
		WithArgs("T1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, svc.Delete(context.Background(), "T1"))
}
