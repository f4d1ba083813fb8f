package catalog

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

func (s *Service) Create(ctx context.Context, in CreateTitleRequest) (TitleResponse, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Author) == "" ||
		strings.TrimSpace(in.ISBN) == "" {
		return TitleResponse{}, ErrInvalid("title, author, isbn are required")
	}
	if in.TotalCopies < 0 {
		return TitleResponse{}, ErrInvalid("total_copies must be >= 0")
	}

	t := &Title{
		ID:              uuid.NewString(),
		Title:           in.Title,
		Author:          in.Author,
		ISBN:            in.ISBN,
		Category:        in.Category,
		TotalCopies:     in.TotalCopies,
		AvailableCopies: in.TotalCopies, // 新規登録時は全冊貸出可能
	}

	if err := s.store.Insert(ctx, t); err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 { // duplicate key
			return TitleResponse{}, ErrConflict("isbn already exists")
		}
		return TitleResponse{}, err
	}

	out, err := s.store.GetByID(ctx, t.ID)
	if err != nil {
		return TitleResponse{}, err
	}
	return titleResponseFrom(*out), nil
}

func (s *Service) Get(ctx context.Context, id string) (TitleResponse, error) {
	t, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TitleResponse{}, ErrNotFound("title not found")
		}
		return TitleResponse{}, err
	}
	return titleResponseFrom(*t), nil
}

func (s *Service) List(ctx context.Context, q TitleQuery) ([]TitleResponse, error) {
	items, err := s.store.List(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]TitleResponse, 0, len(items))
	for _, t := range items {
		out = append(out, titleResponseFrom(t))
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateTitleRequest) (TitleResponse, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Author) == "" ||
		strings.TrimSpace(in.ISBN) == "" {
		return TitleResponse{}, ErrInvalid("title, author, isbn are required")
	}
	if in.TotalCopies < 0 {
		return TitleResponse{}, ErrInvalid("total_copies must be >= 0")
	}

	aff, err := s.store.Update(ctx, id, in)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return TitleResponse{}, ErrConflict("isbn already exists")
		}
		return TitleResponse{}, err
	}
	if aff == 0 {
		// 行が無いのか、貸出中冊数より小さく縮小しようとしたのかを区別する
		if _, gerr := s.store.GetByID(ctx, id); gerr != nil {
			if errors.Is(gerr, sql.ErrNoRows) {
				return TitleResponse{}, ErrNotFound("title not found")
			}
			return TitleResponse{}, gerr
		}
		return TitleResponse{}, ErrConflict("total_copies cannot be less than currently borrowed copies")
	}

	out, err := s.store.GetByID(ctx, id)
	if err != nil {
		return TitleResponse{}, err
	}
	return titleResponseFrom(*out), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	aff, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if aff == 0 {
		if _, gerr := s.store.GetByID(ctx, id); gerr != nil {
			if errors.Is(gerr, sql.ErrNoRows) {
				return ErrNotFound("title not found")
			}
			return gerr
		}
		return ErrConflict("cannot delete title with active loans")
	}
	return nil
}
