package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"menuapi/internal/validator"
)

// handlerがそのままJSONにするエラー
type HTTPError struct {
	Status  int
	Message string
	// 400のときだけ。フィールド名 => 理由
	Fields map[string]string
	// 500の原因（ログ用、レスポンスには出さない）
	Err error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d: %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

// FieldErrorsなら各フィールドの理由も返す
func NewValidationError(err error) error {
	if fe, ok := validator.AsFieldErrors(err); ok {
		return &HTTPError{
			Status:  http.StatusBadRequest,
			Message: "validation failed",
			Fields:  fe,
		}
	}
	return &HTTPError{Status: http.StatusBadRequest, Message: err.Error()}
}

func internalError(err error) error {
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Message: "internal error",
		Err:     err,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

var (
	errUnauthorized = NewHTTPError(http.StatusUnauthorized, "authentication credentials were not provided")
	errNotFound     = NewHTTPError(http.StatusNotFound, "not found")
)
