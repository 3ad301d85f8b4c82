// Package apperrors определяет таксономию ошибок клиента NoteHub.
package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind - класс ошибки.
type Kind int

// Классы ошибок.
const (
	KindNetwork Kind = iota + 1
	KindServer
	KindValidation
	KindNotFound
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Сентинелы для errors.Is.
var (
	ErrNetwork      = errors.New("network error")
	ErrServer       = errors.New("server error")
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrDeleteDeclined возвращается, когда пользователь не подтвердил удаление.
	ErrDeleteDeclined = errors.New("delete not confirmed")
)

// Error - ошибка обращения к NoteHub. Message пригоден для показа пользователю.
type Error struct {
	Kind    Kind
	Status  int
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is сопоставляет Kind с сентинелами. Validation, NotFound и Unauthorized
// являются подвидами ServerError.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrServer:
		return e.Kind == KindServer || e.Kind == KindValidation ||
			e.Kind == KindNotFound || e.Kind == KindUnauthorized
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	}
	return false
}

// Network создает ошибку транспорта.
func Network(op string, err error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Op:      op,
		Message: fmt.Sprintf("network error: %v", err),
		Err:     err,
	}
}

// Validation создает ошибку валидации без обращения к серверу.
func Validation(op, message string, err error) *Error {
	return &Error{
		Kind:    KindValidation,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// FromStatus создает ошибку по коду ответа сервера.
// Пустое сообщение заменяется описанием статуса.
func FromStatus(op string, status int, message string) *Error {
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
		if text := http.StatusText(status); text != "" {
			message = fmt.Sprintf("request failed with status %d: %s", status, text)
		}
	}

	kind := KindServer
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = KindValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = KindUnauthorized
	case http.StatusNotFound:
		kind = KindNotFound
	}

	return &Error{
		Kind:    kind,
		Status:  status,
		Op:      op,
		Message: message,
	}
}

// As возвращает *Error из цепочки, если он там есть.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Unavailable сообщает, указывает ли ошибка на недоступность сервиса
// (сеть или 5xx), а не на проблему конкретного запроса.
// Отмена контекста вызывающей стороной недоступностью не считается.
func Unavailable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	appErr, ok := As(err)
	if !ok {
		return true
	}
	switch appErr.Kind {
	case KindNetwork:
		return true
	case KindServer:
		return appErr.Status == 0 || appErr.Status >= http.StatusInternalServerError
	default:
		return false
	}
}
