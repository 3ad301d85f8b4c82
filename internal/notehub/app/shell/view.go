package shell

import (
	"notehub/internal/notehub/app/query"
	"notehub/internal/notehub/domain/apperrors"
	"notehub/internal/notehub/domain/entities"
)

// Тексты представления.
const (
	Title           = "NoteHub"
	MsgLoading      = "Loading notes..."
	MsgErrorPrefix  = "Error: "
	MsgEmpty        = "No notes found"
	MsgGenericError = "Something went wrong"
)

// Status - взаимоисключающее состояние области списка.
type Status string

const (
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusEmpty   Status = "empty"
	StatusList    Status = "list"
)

// Pager описывает пагинатор. Показывается только при TotalPages > 1.
type Pager struct {
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
}

// View - снимок того, что должен отрисовать интерфейс.
type View struct {
	Title             string          `json:"title"`
	Search            string          `json:"search"`
	DebouncedSearch   string          `json:"debouncedSearch"`
	Page              int             `json:"page"`
	ModalOpen         bool            `json:"modalOpen"`
	Status            Status          `json:"status"`
	Message           string          `json:"message,omitempty"`
	Notes             []entities.Note `json:"notes"`
	Pager             *Pager          `json:"pager,omitempty"`
	IsFetching        bool            `json:"isFetching"`
	IsPlaceholderData bool            `json:"isPlaceholderData"`
}

// ErrorMessage возвращает текст ошибки для пользователя.
func ErrorMessage(err error) string {
	if appErr, ok := apperrors.As(err); ok && appErr.Message != "" {
		return appErr.Message
	}
	return MsgGenericError
}

// buildView заполняет область списка по состоянию запроса.
func buildView(base View, state query.State) View {
	v := base
	v.Title = Title
	v.Notes = []entities.Note{}
	v.IsFetching = state.IsFetching
	v.IsPlaceholderData = state.IsPlaceholderData

	switch {
	case state.IsLoading || (state.Data == nil && !state.IsError):
		v.Status = StatusLoading
		v.Message = MsgLoading
		return v
	case state.IsError:
		v.Status = StatusError
		v.Message = MsgErrorPrefix + ErrorMessage(state.Err)
		return v
	}

	if len(state.Data.Notes) == 0 {
		v.Status = StatusEmpty
		v.Message = MsgEmpty
	} else {
		v.Status = StatusList
		v.Notes = state.Data.Notes
	}

	if state.Data.TotalPages > 1 {
		v.Pager = &Pager{Page: base.Page, TotalPages: state.Data.TotalPages}
	}
	return v
}
