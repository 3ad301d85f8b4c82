// Package services определяет интерфейсы прикладных сервисов клиента.
package services

import (
	"context"

	"notehub/internal/notehub/domain/entities"
	"notehub/internal/notehub/ports/client"
)

// NotesService определяет операции над заметками, доступные оболочке.
type NotesService interface {
	// ListNotes получает страницу заметок.
	ListNotes(ctx context.Context, params client.ListParams) (*entities.NotesPage, error)

	// CreateNote создает заметку.
	CreateNote(ctx context.Context, data entities.CreateNoteData) (*entities.Note, error)

	// DeleteNote удаляет заметку и возвращает удаленную запись.
	DeleteNote(ctx context.Context, id string) (*entities.Note, error)
}
