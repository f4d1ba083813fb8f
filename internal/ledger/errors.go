package ledger

import (
	"errors"
	"fmt"
	"net/http"
)

// ===== Error model =====

type Code string

const (
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeTitleNotFound      Code = "TITLE_NOT_FOUND"
	CodeMemberNotFound     Code = "MEMBER_NOT_FOUND"
	CodeLoanNotFound       Code = "LOAN_NOT_FOUND"
	CodeNoCopiesAvailable  Code = "NO_COPIES_AVAILABLE"
	CodeMemberInactive     Code = "MEMBER_INACTIVE"
	CodeAlreadyReturned    Code = "ALREADY_RETURNED"
	CodeConcurrentConflict Code = "CONCURRENT_CONFLICT"
	CodeCompensationFailed Code = "COMPENSATION_FAILED"
	CodeInternal           Code = "INTERNAL"
)

type APIError struct {
	Code    Code
	Message string
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func ErrInvalid(msg string) *APIError        { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrTitleNotFound(msg string) *APIError  { return &APIError{Code: CodeTitleNotFound, Message: msg} }
func ErrMemberNotFound(msg string) *APIError { return &APIError{Code: CodeMemberNotFound, Message: msg} }
func ErrLoanNotFound(msg string) *APIError   { return &APIError{Code: CodeLoanNotFound, Message: msg} }
func ErrNoCopiesAvailable(msg string) *APIError {
	return &APIError{Code: CodeNoCopiesAvailable, Message: msg}
}
func ErrMemberInactive(msg string) *APIError { return &APIError{Code: CodeMemberInactive, Message: msg} }
func ErrAlreadyReturned(msg string) *APIError {
	return &APIError{Code: CodeAlreadyReturned, Message: msg}
}
func ErrConflict(msg string) *APIError {
	return &APIError{Code: CodeConcurrentConflict, Message: msg}
}
func ErrCompensationFailed(msg string) *APIError {
	return &APIError{Code: CodeCompensationFailed, Message: msg}
}
func ErrInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

// CodeOf extracts the stable error code, CodeInternal for unknown errors.
func CodeOf(err error) Code {
	var api *APIError
	if errors.As(err, &api) {
		return api.Code
	}
	return CodeInternal
}

// isRetryable: リトライ対象は CONCURRENT_CONFLICT のみ。
// NotFound / 前提条件違反は terminal、タイムアウト系のリトライは過負荷を悪化させるだけなので対象外。
func isRetryable(err error) bool {
	return CodeOf(err) == CodeConcurrentConflict
}

func ToHTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeTitleNotFound, CodeMemberNotFound, CodeLoanNotFound:
		return http.StatusNotFound
	case CodeNoCopiesAvailable, CodeMemberInactive, CodeAlreadyReturned, CodeConcurrentConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
