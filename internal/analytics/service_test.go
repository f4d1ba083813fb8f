package analytics

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM titles").
		WillReturnRows(sqlmock.NewRows([]string{"total", "available"}).AddRow(10, 7))
	mock.ExpectQuery("FROM members").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectQuery("FROM loans").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT DISTINCT category").
		WillReturnRows(sqlmock.NewRows([]string{"category"}).AddRow("tech").AddRow("novel"))
	mock.ExpectCommit()

	out, err := NewService(db).Summarize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, out.TotalCopies)
	assert.Equal(t, 7, out.AvailableCopies)
	assert.Equal(t, 3, out.BorrowedCopies) // total - available
	assert.Equal(t, 4, out.TotalMembers)
	assert.Equal(t, 3, out.ActiveLoans)
	assert.Equal(t, []string{"tech", "novel"}, out.Categories)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSummarizeRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM titles").
		WillReturnError(errors.New("connection lost"))
	mock.ExpectRollback()

	_, err = NewService(db).Summarize(context.Background())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
