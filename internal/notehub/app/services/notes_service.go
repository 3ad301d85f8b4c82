// Package services реализует прикладные сервисы клиента NoteHub.
package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"notehub/internal/notehub/domain/apperrors"
	"notehub/internal/notehub/domain/entities"
	"notehub/internal/notehub/ports/client"
	"notehub/internal/notehub/ports/services"
	"notehub/internal/notehub/resilience"
	"notehub/pkg/logger"
)

// Константы для логирования.
const (
	LogServiceListNotes  = "notes service: list notes"
	LogServiceCreateNote = "notes service: create note"
	LogServiceDeleteNote = "notes service: delete note"

	ErrorListNotesFailed  = "failed to list notes"
	ErrorCreateNoteFailed = "failed to create note"
	ErrorDeleteNoteFailed = "failed to delete note"

	MsgServiceUnavailable = "notes service is temporarily unavailable"
)

// NotesServiceImpl реализация интерфейса NotesService.
type NotesServiceImpl struct {
	notesClient client.NotesClient
	breaker     *resilience.CircuitBreaker
}

// NewNotesService создает сервис заметок. Сбоями для breaker считаются только
// сетевые ошибки и ответы 5xx.
func NewNotesService(notesClient client.NotesClient, breakerCfg resilience.CircuitBreakerConfig) services.NotesService {
	breakerCfg.IsFailure = apperrors.Unavailable
	return &NotesServiceImpl{
		notesClient: notesClient,
		breaker:     resilience.NewCircuitBreaker("notehub-api", breakerCfg),
	}
}

// ListNotes получает страницу заметок.
func (s *NotesServiceImpl) ListNotes(ctx context.Context, params client.ListParams) (*entities.NotesPage, error) {
	log := logger.Log(ctx).With(zap.Int("page", params.Page), zap.String("search", params.Search))
	log.Debug(ctx, LogServiceListNotes)

	var page *entities.NotesPage
	err := s.execute(ctx, "List", func() error {
		var err error
		page, err = s.notesClient.List(ctx, params)
		return err
	})
	if err != nil {
		log.Warn(ctx, ErrorListNotesFailed, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrorListNotesFailed, err)
	}

	return page, nil
}

// CreateNote создает заметку.
func (s *NotesServiceImpl) CreateNote(ctx context.Context, data entities.CreateNoteData) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("title", data.Title), zap.String("tag", string(data.Tag)))
	log.Info(ctx, LogServiceCreateNote)

	var note *entities.Note
	err := s.execute(ctx, "Create", func() error {
		var err error
		note, err = s.notesClient.Create(ctx, data)
		return err
	})
	if err != nil {
		log.Warn(ctx, ErrorCreateNoteFailed, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrorCreateNoteFailed, err)
	}

	return note, nil
}

// DeleteNote удаляет заметку.
func (s *NotesServiceImpl) DeleteNote(ctx context.Context, id string) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("note_id", id))
	log.Info(ctx, LogServiceDeleteNote)

	var note *entities.Note
	err := s.execute(ctx, "Remove", func() error {
		var err error
		note, err = s.notesClient.Remove(ctx, id)
		return err
	})
	if err != nil {
		log.Warn(ctx, ErrorDeleteNoteFailed, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrorDeleteNoteFailed, err)
	}

	return note, nil
}

// execute прогоняет операцию через circuit breaker. Отказ breaker
// превращается в сетевую ошибку.
func (s *NotesServiceImpl) execute(ctx context.Context, op string, fn func() error) error {
	err := s.breaker.Execute(ctx, fn)
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return &apperrors.Error{
			Kind:    apperrors.KindNetwork,
			Op:      op,
			Message: MsgServiceUnavailable,
			Err:     err,
		}
	}
	return err
}
