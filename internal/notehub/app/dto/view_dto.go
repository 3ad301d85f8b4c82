// Package dto содержит структуры запросов и ответов HTTP-интерфейса.
package dto

import "notehub/internal/notehub/domain/entities"

// SearchRequest содержит текущий текст поля поиска.
type SearchRequest struct {
	Value string `json:"value"`
}

// PageRequest содержит номер выбранной страницы.
type PageRequest struct {
	Page int `json:"page"`
}

// PageResponse содержит итоговую страницу после ограничения диапазоном.
type PageResponse struct {
	Page        int  `json:"page"`
	ScrollToTop bool `json:"scrollToTop"`
}

// CreateNoteRequest содержит данные формы создания заметки.
type CreateNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Tag     string `json:"tag"`
}

// ToEntity преобразует запрос в данные для создания заметки.
func (r CreateNoteRequest) ToEntity() entities.CreateNoteData {
	return entities.CreateNoteData{
		Title:   r.Title,
		Content: r.Content,
		Tag:     entities.Tag(r.Tag),
	}
}

// ModalResponse содержит состояние модального окна.
type ModalResponse struct {
	ModalOpen bool `json:"modalOpen"`
}

// HealthResponse - ответ проверки живости.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse - тело ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}
