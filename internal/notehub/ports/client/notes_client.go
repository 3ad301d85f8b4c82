// Package client определяет порт удаленного NoteHub API.
package client

import (
	"context"

	"notehub/internal/notehub/domain/entities"
)

// ListParams - параметры запроса страницы заметок.
type ListParams struct {
	Page    int
	PerPage int
	Search  string
}

// NotesClient определяет операции удаленного API заметок.
// Ошибки возвращаются как *apperrors.Error.
type NotesClient interface {
	// List получает страницу заметок, отфильтрованных по строке поиска.
	List(ctx context.Context, params ListParams) (*entities.NotesPage, error)

	// Create создает заметку и возвращает ее с назначенным сервером ID.
	Create(ctx context.Context, data entities.CreateNoteData) (*entities.Note, error)

	// Remove удаляет заметку и возвращает удаленную запись.
	Remove(ctx context.Context, id string) (*entities.Note, error)
}
