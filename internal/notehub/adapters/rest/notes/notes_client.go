// Package notes содержит REST-клиент удаленного NoteHub API.
package notes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/client"
	"go.uber.org/zap"

	"notehub/internal/notehub/config"
	"notehub/internal/notehub/domain/apperrors"
	"notehub/internal/notehub/domain/entities"
	ports "notehub/internal/notehub/ports/client"
	"notehub/pkg/logger"
)

// Константы для логирования.
const (
	LogMethodList   = "List"
	LogMethodCreate = "Create"
	LogMethodRemove = "Remove"

	LogSendingRequest  = "sending request to notehub"
	LogRequestFailed   = "notehub request failed"
	LogUnexpectedReply = "notehub returned non-2xx status"

	ErrorFailedToDecode = "failed to decode notehub response"
)

// HeaderRequestID - заголовок, в котором передается идентификатор запроса.
const HeaderRequestID = "X-Request-ID"

const notesPath = "/notes"

// Client реализует ports.NotesClient поверх HTTP-клиента fiber.
type Client struct {
	http *client.Client
}

// errorBody - тело ошибки NoteHub.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// NewClient создает клиент. Токен читается из cfg один раз и прикрепляется ко всем запросам.
// Пустой токен означает неаутентифицированные запросы.
func NewClient(cfg *config.APIConfig) ports.NotesClient {
	httpClient := client.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout)

	if header := formatAuthorizationToken(cfg.Token); header != "" {
		httpClient.SetHeader(fiber.HeaderAuthorization, header)
	}

	return &Client{http: httpClient}
}

// formatAuthorizationToken добавляет префикс "Bearer ", если его нет.
func formatAuthorizationToken(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	if !strings.HasPrefix(token, "Bearer ") {
		return "Bearer " + token
	}
	return token
}

// List получает страницу заметок.
func (c *Client) List(ctx context.Context, params ports.ListParams) (*entities.NotesPage, error) {
	log := logger.Log(ctx).With(
		zap.String("method", LogMethodList),
		zap.Int("page", params.Page),
		zap.Int("per_page", params.PerPage),
		zap.String("search", params.Search),
	)
	log.Debug(ctx, LogSendingRequest)

	req := c.request(ctx).
		SetParam("page", strconv.Itoa(params.Page)).
		SetParam("perPage", strconv.Itoa(params.PerPage)).
		SetParam("search", params.Search)

	resp, err := req.Get(notesPath)
	if err != nil {
		log.Warn(ctx, LogRequestFailed, zap.Error(err))
		return nil, apperrors.Network(LogMethodList, err)
	}
	defer resp.Close()

	var page entities.NotesPage
	if err := decode(ctx, LogMethodList, resp, &page); err != nil {
		return nil, err
	}
	if page.Notes == nil {
		page.Notes = []entities.Note{}
	}
	return &page, nil
}

// Create создает заметку.
func (c *Client) Create(ctx context.Context, data entities.CreateNoteData) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", LogMethodCreate))
	log.Debug(ctx, LogSendingRequest)

	resp, err := c.request(ctx).SetJSON(data).Post(notesPath)
	if err != nil {
		log.Warn(ctx, LogRequestFailed, zap.Error(err))
		return nil, apperrors.Network(LogMethodCreate, err)
	}
	defer resp.Close()

	var note entities.Note
	if err := decode(ctx, LogMethodCreate, resp, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// Remove удаляет заметку по ID.
func (c *Client) Remove(ctx context.Context, id string) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", LogMethodRemove), zap.String("note_id", id))
	log.Debug(ctx, LogSendingRequest)

	resp, err := c.request(ctx).Delete(notesPath + "/" + url.PathEscape(id))
	if err != nil {
		log.Warn(ctx, LogRequestFailed, zap.Error(err))
		return nil, apperrors.Network(LogMethodRemove, err)
	}
	defer resp.Close()

	var note entities.Note
	if err := decode(ctx, LogMethodRemove, resp, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (c *Client) request(ctx context.Context) *client.Request {
	req := c.http.R().SetContext(ctx)
	if id, ok := logger.GetRequestID(ctx); ok {
		req.SetHeader(HeaderRequestID, id)
	}
	return req
}

// decode разбирает успешный ответ в out или превращает ответ с ошибкой в *apperrors.Error.
func decode(ctx context.Context, op string, resp *client.Response, out any) error {
	status := resp.StatusCode()
	body := resp.Body()

	if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
		var eb errorBody
		if len(body) > 0 {
			_ = json.Unmarshal(body, &eb)
		}
		msg := eb.Message
		if msg == "" {
			msg = eb.Error
		}
		logger.Log(ctx).Warn(ctx, LogUnexpectedReply,
			zap.String("method", op),
			zap.Int("status", status),
			zap.String("message", msg))
		return apperrors.FromStatus(op, status, msg)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &apperrors.Error{
			Kind:    apperrors.KindServer,
			Status:  status,
			Op:      op,
			Message: fmt.Sprintf("%s: %v", ErrorFailedToDecode, err),
			Err:     err,
		}
	}
	return nil
}
