// Package view содержит HTTP-обработчики модели представления NoteHub.
package view

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"notehub/internal/notehub/adapters/http/middleware"
	"notehub/internal/notehub/app/dto"
	"notehub/internal/notehub/app/shell"
	"notehub/internal/notehub/domain/apperrors"
	"notehub/internal/notehub/domain/entities"
	"notehub/pkg/logger"
)

// Константы ошибок и сообщений для логирования.
const (
	LogHandlerView       = "handling view request"
	LogHandlerSearch     = "handling search request"
	LogHandlerPage       = "handling page request"
	LogHandlerModal      = "handling modal request"
	LogHandlerCreateNote = "handling create note request"
	LogHandlerDeleteNote = "handling delete note request"
	LogAwaitFailed       = "failed to await active query"

	ErrMsgInvalidRequestBody = "invalid request body"
	ErrMsgInvalidNoteID      = "invalid note id"
	ErrMsgDeleteDeclined     = "delete was not confirmed"
	ErrMsgInternal           = "internal error"

	StatusOK = "ok"
)

// Shell - операции модели представления, доступные по HTTP.
type Shell interface {
	View() shell.View
	Await(ctx context.Context) (shell.View, error)
	SetSearch(ctx context.Context, raw string)
	GoToPage(ctx context.Context, n int) int
	OpenModal(ctx context.Context)
	CloseModal(ctx context.Context)
	CreateNote(ctx context.Context, data entities.CreateNoteData) (*entities.Note, error)
	DeleteNote(ctx context.Context, id string, confirmer shell.Confirmer) (*entities.Note, error)
}

// Handler обработчик HTTP-запросов к модели представления.
type Handler struct {
	shell       Shell
	waitTimeout time.Duration
}

// NewHandler создает обработчик. waitTimeout ограничивает GET /view?wait=true.
func NewHandler(s Shell, waitTimeout time.Duration) *Handler {
	return &Handler{shell: s, waitTimeout: waitTimeout}
}

// GetView возвращает текущее представление. С wait=true сначала дожидается
// завершения запроса активного ключа.
func (h *Handler) GetView(c fiber.Ctx) error {
	ctx := middleware.RequestContext(c)
	log := logger.Log(ctx).With(zap.String("handler", "Handler.GetView"))
	log.Debug(ctx, LogHandlerView)

	if c.Query("wait") != "true" {
		return sendJSON(c, fiber.StatusOK, h.shell.View())
	}

	waitCtx, cancel := context.WithTimeout(ctx, h.waitTimeout)
	defer cancel()

	v, err := h.shell.Await(waitCtx)
	if err != nil {
		log.Warn(ctx, LogAwaitFailed, zap.Error(err))
		v = h.shell.View()
	}
	return sendJSON(c, fiber.StatusOK, v)
}

// SetSearch обновляет текст поиска.
func (h *Handler) SetSearch(c fiber.Ctx) error {
	ctx := middleware.RequestContext(c)
	log := logger.Log(ctx).With(zap.String("handler", "Handler.SetSearch"))
	log.Debug(ctx, LogHandlerSearch)

	var req dto.SearchRequest
	if err := c.Bind().Body(&req); err != nil {
		log.Warn(ctx, ErrMsgInvalidRequestBody, zap.Error(err))
		return sendError(c, fiber.StatusBadRequest, ErrMsgInvalidRequestBody)
	}

	h.shell.SetSearch(ctx, req.Value)
	return sendJSON(c, fiber.StatusAccepted, h.shell.View())
}

// GoToPage переходит на страницу.
func (h *Handler) GoToPage(c fiber.Ctx) error {
	ctx := middleware.RequestContext(c)
	log := logger.Log(ctx).With(zap.String("handler", "Handler.GoToPage"))
	log.Debug(ctx, LogHandlerPage)

	var req dto.PageRequest
	if err := c.Bind().Body(&req); err != nil {
		log.Warn(ctx, ErrMsgInvalidRequestBody, zap.Error(err))
		return sendError(c, fiber.StatusBadRequest, ErrMsgInvalidRequestBody)
	}

	page := h.shell.GoToPage(ctx, req.Page)
	return sendJSON(c, fiber.StatusOK, dto.PageResponse{Page: page, ScrollToTop: true})
}

// OpenModal открывает форму создания заметки.
func (h *Handler) OpenModal(c fiber.Ctx) error {
	ctx := middleware.RequestContext(c)
	logger.Log(ctx).Debug(ctx, LogHandlerModal, zap.Bool("open", true))

	h.shell.OpenModal(ctx)
	return sendJSON(c, fiber.StatusOK, dto.ModalResponse{ModalOpen: true})
}

// CloseModal закрывает форму создания заметки.
func (h *Handler) CloseModal(c fiber.Ctx) error {
	ctx := middleware.RequestContext(c)
	logger.Log(ctx).Debug(ctx, LogHandlerModal, zap.Bool("open", false))

	h.shell.CloseModal(ctx)
	return sendJSON(c, fiber.StatusOK, dto.ModalResponse{ModalOpen: false})
}

// CreateNote создает заметку.
func (h *Handler) CreateNote(c fiber.Ctx) error {
	ctx := middleware.RequestContext(c)
	log := logger.Log(ctx).With(zap.String("handler", "Handler.CreateNote"))
	log.Debug(ctx, LogHandlerCreateNote)

	var req dto.CreateNoteRequest
	if err := c.Bind().Body(&req); err != nil {
		log.Warn(ctx, ErrMsgInvalidRequestBody, zap.Error(err))
		return sendError(c, fiber.StatusBadRequest, ErrMsgInvalidRequestBody)
	}

	note, err := h.shell.CreateNote(ctx, req.ToEntity())
	if err != nil {
		return handleError(c, err)
	}
	return sendJSON(c, fiber.StatusCreated, note)
}

// DeleteNote удаляет заметку. Без confirm=true удаление считается отклоненным.
func (h *Handler) DeleteNote(c fiber.Ctx) error {
	ctx := middleware.RequestContext(c)
	log := logger.Log(ctx).With(zap.String("handler", "Handler.DeleteNote"))
	log.Debug(ctx, LogHandlerDeleteNote)

	noteID := c.Params("note_id")
	if noteID == "" {
		return sendError(c, fiber.StatusBadRequest, ErrMsgInvalidNoteID)
	}

	confirmed := c.Query("confirm") == "true"
	confirmer := shell.ConfirmFunc(func(context.Context, string) bool { return confirmed })

	note, err := h.shell.DeleteNote(ctx, noteID, confirmer)
	if err != nil {
		return handleError(c, err)
	}
	return sendJSON(c, fiber.StatusOK, note)
}

// Health сообщает, что сервер жив.
func (h *Handler) Health(c fiber.Ctx) error {
	return sendJSON(c, fiber.StatusOK, dto.HealthResponse{Status: StatusOK})
}

// handleError переводит ошибку операции в HTTP-статус.
func handleError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrDeleteDeclined):
		return sendError(c, fiber.StatusConflict, ErrMsgDeleteDeclined)
	case errors.Is(err, apperrors.ErrValidation):
		return sendError(c, fiber.StatusUnprocessableEntity, shell.ErrorMessage(err))
	case errors.Is(err, apperrors.ErrNotFound):
		return sendError(c, fiber.StatusNotFound, shell.ErrorMessage(err))
	case errors.Is(err, apperrors.ErrUnauthorized):
		return sendError(c, fiber.StatusUnauthorized, shell.ErrorMessage(err))
	case errors.Is(err, apperrors.ErrNetwork), errors.Is(err, apperrors.ErrServer):
		return sendError(c, fiber.StatusBadGateway, shell.ErrorMessage(err))
	default:
		return sendError(c, fiber.StatusInternalServerError, ErrMsgInternal)
	}
}

func sendError(c fiber.Ctx, status int, msg string) error {
	return sendJSON(c, status, dto.ErrorResponse{Error: msg})
}

func sendJSON(c fiber.Ctx, status int, body any) error {
	if err := c.Status(status).JSON(body); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}
