package members

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	mysql "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

// ===== Error model =====

type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code
	Message string
}

func (e *APIError) Error() string      { return fmt.Sprintf("%s: %s", e.Code, e.Message) }
func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError { return &APIError{Code: CodeConflict, Message: msg} }

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodeNotFound:
			return 404
		case CodeConflict:
			return 409
		default:
			return 500
		}
	}
	return 500
}

type Service struct {
	db    *sql.DB
	store *Store
}

func NewService(db *sql.DB) *Service { return &Service{db: db, store: NewStore(db)} }

func (s *Service) Create(ctx context.Context, in CreateMemberRequest) (MemberResponse, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" ||
		strings.TrimSpace(in.MemberCode) == "" {
		return MemberResponse{}, ErrInvalid("name, email, member_code are required")
	}

	m := &Member{
		ID:         uuid.NewString(),
		Name:       in.Name,
		Email:      in.Email,
		Phone:      in.Phone,
		MemberCode: in.MemberCode,
		Status:     StatusActive,
	}

	if err := s.store.Insert(ctx, m); err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 { // duplicate key
			return MemberResponse{}, ErrConflict("member_code already exists")
		}
		return MemberResponse{}, err
	}

	out, err := s.store.GetByID(ctx, m.ID)
	if err != nil {
		return MemberResponse{}, err
	}
	return memberResponseFrom(*out), nil
}

func (s *Service) Get(ctx context.Context, id string) (MemberResponse, error) {
	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return MemberResponse{}, ErrNotFound("member not found")
		}
		return MemberResponse{}, err
	}
	return memberResponseFrom(*m), nil
}

func (s *Service) List(ctx context.Context, q MemberQuery) ([]MemberResponse, error) {
	items, err := s.store.List(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]MemberResponse, 0, len(items))
	for _, m := range items {
		out = append(out, memberResponseFrom(m))
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateMemberRequest) (MemberResponse, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" {
		return MemberResponse{}, ErrInvalid("name and email are required")
	}
	if in.Status != StatusActive && in.Status != StatusInactive {
		return MemberResponse{}, ErrInvalid("status must be active or inactive")
	}

	aff, err := s.store.Update(ctx, id, in)
	if err != nil {
		return MemberResponse{}, err
	}
	if aff == 0 {
		// 0行更新は「行が無い」か「同値更新」。存在していれば成功扱いで返す。
		if _, gerr := s.store.GetByID(ctx, id); gerr != nil {
			if errors.Is(gerr, sql.ErrNoRows) {
				return MemberResponse{}, ErrNotFound("member not found")
			}
			return MemberResponse{}, gerr
		}
	}

	out, err := s.store.GetByID(ctx, id)
	if err != nil {
		return MemberResponse{}, err
	}
	return memberResponseFrom(*out), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	aff, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if aff == 0 {
		if _, gerr := s.store.GetByID(ctx, id); gerr != nil {
			if errors.Is(gerr, sql.ErrNoRows) {
				return ErrNotFound("member not found")
			}
			return gerr
		}
		return ErrConflict("cannot delete member with outstanding loans")
	}
	return nil
}
