package members

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

func memberRow(id, status string, outstanding int) *sqlmock.Rows {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "name", "email", "phone", "member_code",
		"status", "outstanding_loans", "created_at", "updated_at",
	}).AddRow(id, "佐藤", "sato@example.com", "", "MBR-001", status, outstanding, now, now)
}

func TestMembersCreate(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectExec("INSERT INTO members").
		WithArgs(sqlmock.AnyArg(), "佐藤", "sato@example.com", "", "MBR-001", StatusActive).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id, name, email, phone, member_code").
		WillReturnRows(memberRow("M1", StatusActive, 0))

	res, err := svc.Create(context.Background(), CreateMemberRequest{
		Name: "佐藤", Email: "sato@example.com", MemberCode: "MBR-001",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusActive, res.Status)
	assert.Equal(t, 0, res.OutstandingLoans)
}

func TestMembersCreateValidation(t *testing.T) {
	svc, _ := newMockService(t)

	_, err := svc.Create(context.Background(), CreateMemberRequest{Name: "佐藤"})
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeInvalidArgument, api.Code)
}

func TestMembersCreateDuplicateCode(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectExec("INSERT INTO members").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := svc.Create(context.Background(), CreateMemberRequest{
		Name: "佐藤", Email: "sato@example.com", MemberCode: "MBR-001",
	})
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeConflict, api.Code)
}

func TestMembersUpdateValidatesStatus(t *testing.T) {
	svc, _ := newMockService(t)

	_, err := svc.Update(context.Background(), "M1", UpdateMemberRequest{
		Name: "佐藤", Email: "sato@example.com", Status: "suspended",
	})
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeInvalidArgument, api.Code)
}

func TestMembersDeleteGuards(t *testing.T) {
	svc, mock := newMockService(t)

	// 貸出中の会員は消せない: 0行削除、行は存在 → CONFLICT
	mock.ExpectExec("DELETE FROM members").
		WithArgs("M1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, name, email, phone, member_code").
		WillReturnRows(memberRow("M1", StatusActive, 2))

	err := svc.Delete(context.Background(), "M1")
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeConflict, api.Code)

	// outstanding_loans = 0 なら削除できる
	mock.ExpectExec("DELETE FROM members").
		WithArgs("M1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, svc.Delete(context.Background(), "M1"))
}
