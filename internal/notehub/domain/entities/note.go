// Package entities описывает модель данных клиента NoteHub.
package entities

import (
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Tag - категория заметки.
type Tag string

// Допустимые теги NoteHub.
const (
	TagTodo     Tag = "Todo"
	TagWork     Tag = "Work"
	TagPersonal Tag = "Personal"
	TagMeeting  Tag = "Meeting"
	TagShopping Tag = "Shopping"
)

// Tags возвращает все допустимые теги.
func Tags() []Tag {
	return []Tag{TagTodo, TagWork, TagPersonal, TagMeeting, TagShopping}
}

// Note - заметка, как ее возвращает удаленный API. Клиент ее не изменяет.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tag       Tag       `json:"tag"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateNoteData - данные формы создания заметки.
type CreateNoteData struct {
	Title   string `json:"title" validate:"required,min=3,max=50"`
	Content string `json:"content" validate:"max=500"`
	Tag     Tag    `json:"tag" validate:"required,oneof=Todo Work Personal Meeting Shopping"`
}

// NotesPage - одна страница списка заметок.
type NotesPage struct {
	Notes      []Note `json:"notes"`
	TotalPages int    `json:"totalPages"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate проверяет данные формы. Возвращает validator.ValidationErrors при нарушении правил.
func (d CreateNoteData) Validate() error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate.Struct(d)
}
