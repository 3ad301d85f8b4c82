// Package http содержит компоненты для HTTP сервера.
package http

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"notehub/internal/notehub/adapters/http/middleware"
	"notehub/internal/notehub/adapters/http/view"
	"notehub/internal/notehub/app/dto"
)

const ErrMsgRouteNotFound = "Route not found"

// SetupRouter настраивает маршрутизацию для HTTP сервера.
func SetupRouter(app *fiber.App, s view.Shell, waitTimeout time.Duration) {
	handler := view.NewHandler(s, waitTimeout)

	// Middleware для всех запросов.
	app.Use(middleware.NewLoggerMiddleware())
	app.Use(middleware.NewRecoveryMiddleware())

	// API версии 1.
	apiV1 := app.Group("/api/v1")

	apiV1.Get("/health", handler.Health)
	apiV1.Get("/view", handler.GetView)
	apiV1.Post("/search", handler.SetSearch)
	apiV1.Post("/page", handler.GoToPage)

	modalRoutes := apiV1.Group("/modal")
	modalRoutes.Post("/open", handler.OpenModal)
	modalRoutes.Post("/close", handler.CloseModal)

	notesRoutes := apiV1.Group("/notes")
	notesRoutes.Post("/", handler.CreateNote)
	notesRoutes.Delete("/:note_id", handler.DeleteNote)

	// Обработчик для несуществующих маршрутов.
	app.Use(func(c fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: ErrMsgRouteNotFound})
	})
}
