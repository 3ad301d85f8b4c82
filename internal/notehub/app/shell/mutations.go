package shell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"notehub/internal/notehub/domain/apperrors"
	"notehub/internal/notehub/domain/entities"
	"notehub/pkg/logger"
)

// Константы для логирования.
const (
	LogCreateNote     = "shell: create note"
	LogNoteCreated    = "shell: note created"
	LogDeleteNote     = "shell: delete note"
	LogNoteDeleted    = "shell: note deleted"
	LogDeleteDeclined = "shell: delete declined"
	LogMutationFailed = "shell: mutation failed"
	LogAlert          = "shell: alert"

	OpCreate = "CreateNote"
	OpDelete = "DeleteNote"

	ErrorNoteIDRequired = "note id is required"
)

// Notifier сообщает пользователю об ошибке операции.
type Notifier interface {
	Alert(ctx context.Context, message string)
}

// NotifierFunc адаптирует функцию к Notifier.
type NotifierFunc func(ctx context.Context, message string)

func (f NotifierFunc) Alert(ctx context.Context, message string) {
	f(ctx, message)
}

type logNotifier struct{}

func (logNotifier) Alert(ctx context.Context, message string) {
	logger.Log(ctx).Warn(ctx, LogAlert, zap.String("message", message))
}

// Confirmer спрашивает подтверждение удаления.
type Confirmer interface {
	Confirm(ctx context.Context, noteID string) bool
}

// ConfirmFunc адаптирует функцию к Confirmer.
type ConfirmFunc func(ctx context.Context, noteID string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, noteID string) bool {
	return f(ctx, noteID)
}

// CreateNote проверяет данные и создает заметку. При успехе закрывает
// модальное окно и инвалидирует списки. При ошибке показывает сообщение,
// окно остается открытым.
func (s *Shell) CreateNote(ctx context.Context, data entities.CreateNoteData) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("title", data.Title), zap.String("tag", string(data.Tag)))
	log.Info(ctx, LogCreateNote)

	if err := data.Validate(); err != nil {
		return nil, s.fail(ctx, OpCreate, validationError(OpCreate, err))
	}

	note, err := s.service.CreateNote(ctx, data)
	if err != nil {
		return nil, s.fail(ctx, OpCreate, err)
	}

	s.setModal(ctx, false)
	s.cache.InvalidateAll(ctx)

	log.Info(ctx, LogNoteCreated, zap.String("note_id", note.ID))
	return note, nil
}

// DeleteNote удаляет заметку после подтверждения. Отказ возвращает
// apperrors.ErrDeleteDeclined без обращения к API.
func (s *Shell) DeleteNote(ctx context.Context, id string, confirmer Confirmer) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("note_id", id))
	log.Info(ctx, LogDeleteNote)

	if confirmer == nil || !confirmer.Confirm(ctx, id) {
		log.Info(ctx, LogDeleteDeclined)
		return nil, apperrors.ErrDeleteDeclined
	}

	if strings.TrimSpace(id) == "" {
		return nil, s.fail(ctx, OpDelete, apperrors.Validation(OpDelete, ErrorNoteIDRequired, nil))
	}

	note, err := s.service.DeleteNote(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, OpDelete, err)
	}

	s.cache.InvalidateAll(ctx)

	log.Info(ctx, LogNoteDeleted)
	return note, nil
}

// fail сообщает об ошибке один раз и возвращает ее.
func (s *Shell) fail(ctx context.Context, op string, err error) error {
	logger.Log(ctx).Warn(ctx, LogMutationFailed, zap.String("op", op), zap.Error(err))
	s.notifier.Alert(ctx, ErrorMessage(err))
	return err
}

// validationError превращает ошибки validator в *apperrors.Error с понятным текстом.
func validationError(op string, err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.Validation(op, err.Error(), err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return apperrors.Validation(op, strings.Join(msgs, "; "), err)
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
