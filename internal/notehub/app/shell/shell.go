// Package shell - модель представления клиента NoteHub: поиск с задержкой,
// пагинация, модальное окно создания и операции над заметками.
package shell

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"notehub/internal/notehub/app/query"
	"notehub/internal/notehub/domain/entities"
	"notehub/internal/notehub/ports/client"
	"notehub/internal/notehub/ports/services"
	"notehub/pkg/debounce"
	"notehub/pkg/logger"
)

// Константы для логирования.
const (
	LogSearchTyped   = "shell: search input"
	LogSearchSettled = "shell: search settled"
	LogPageChanged   = "shell: page changed"
	LogModalToggled  = "shell: modal toggled"
	LogShellStarted  = "shell: started"
	LogShellClosed   = "shell: closed"
)

const (
	DefaultPerPage    = 6
	DefaultSearchWait = 300 * time.Millisecond
)

// Options настраивает Shell.
type Options struct {
	PerPage  int
	Debounce time.Duration
	Notifier Notifier
	Scroller Scroller
	// AfterFunc подменяет таймеры поиска.
	AfterFunc debounce.AfterFunc
}

// Shell связывает поиск, пагинацию, кэш запросов и операции над заметками.
type Shell struct {
	service   services.NotesService
	cache     *query.Cache
	paginator *Paginator
	search    *debounce.Debouncer[string]
	notifier  Notifier
	perPage   int

	// ctx используется для активаций по таймеру поиска.
	ctx context.Context

	mu              sync.Mutex
	rawSearch       string
	debouncedSearch string
	modalOpen       bool
}

// ListFetcher строит query.Fetcher поверх сервиса заметок.
func ListFetcher(service services.NotesService) query.Fetcher {
	return func(ctx context.Context, key query.Key) (*entities.NotesPage, error) {
		return service.ListNotes(ctx, client.ListParams{
			Page:    key.Page,
			PerPage: key.PerPage,
			Search:  key.Search,
		})
	}
}

// New создает Shell и запрашивает первую страницу без поиска.
func New(ctx context.Context, service services.NotesService, cache *query.Cache, opts Options) *Shell {
	if opts.PerPage <= 0 {
		opts.PerPage = DefaultPerPage
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultSearchWait
	}
	if opts.Notifier == nil {
		opts.Notifier = logNotifier{}
	}

	s := &Shell{
		service:   service,
		cache:     cache,
		paginator: NewPaginator(opts.Scroller),
		notifier:  opts.Notifier,
		perPage:   opts.PerPage,
		ctx:       context.WithoutCancel(ctx),
	}

	var debounceOpts []debounce.Option
	if opts.AfterFunc != nil {
		debounceOpts = append(debounceOpts, debounce.WithAfterFunc(opts.AfterFunc))
	}
	s.search = debounce.New(opts.Debounce, s.onSearchSettled, debounceOpts...)

	s.mu.Lock()
	s.cache.Activate(ctx, s.keyLocked())
	s.mu.Unlock()

	logger.Log(ctx).Info(ctx, LogShellStarted,
		zap.Int("per_page", opts.PerPage),
		zap.Duration("debounce", opts.Debounce))
	return s
}

// SetSearch сразу обновляет текст поиска и передает его в debouncer.
// Запрос уходит только после периода тишины.
func (s *Shell) SetSearch(ctx context.Context, raw string) {
	s.mu.Lock()
	s.rawSearch = raw
	s.mu.Unlock()

	logger.Log(ctx).Debug(ctx, LogSearchTyped, zap.String("search", raw))
	s.search.Push(raw)
}

// onSearchSettled вызывается debouncer'ом. Новое значение поиска
// и возврат на первую страницу применяются вместе.
func (s *Shell) onSearchSettled(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if value == s.debouncedSearch {
		return
	}
	s.debouncedSearch = value
	s.paginator.SearchChanged()

	logger.Log(s.ctx).Info(s.ctx, LogSearchSettled, zap.String("search", value))
	s.cache.Activate(s.ctx, s.keyLocked())
}

// GoToPage переходит на страницу n, ограниченную диапазоном
// [1, max(TotalPages, 1)] по последним полученным данным. Возвращает итоговую страницу.
// Прокрутка вызывается после снятия блокировки, Scroller может читать View.
func (s *Shell) GoToPage(ctx context.Context, n int) int {
	s.mu.Lock()
	if data := s.cache.State().Data; data != nil && n > max(data.TotalPages, 1) {
		n = max(data.TotalPages, 1)
	}
	if n < 1 {
		n = 1
	}

	s.paginator.setPage(n)
	s.cache.Activate(ctx, s.keyLocked())
	s.mu.Unlock()

	logger.Log(ctx).Info(ctx, LogPageChanged, zap.Int("page", n))
	s.paginator.scrollToTop(ctx)
	return n
}

// OpenModal открывает форму создания заметки.
func (s *Shell) OpenModal(ctx context.Context) {
	s.setModal(ctx, true)
}

// CloseModal закрывает форму создания заметки.
func (s *Shell) CloseModal(ctx context.Context) {
	s.setModal(ctx, false)
}

func (s *Shell) setModal(ctx context.Context, open bool) {
	s.mu.Lock()
	s.modalOpen = open
	s.mu.Unlock()
	logger.Log(ctx).Debug(ctx, LogModalToggled, zap.Bool("open", open))
}

// View возвращает текущий снимок представления.
func (s *Shell) View() View {
	s.mu.Lock()
	base := s.baseLocked()
	s.mu.Unlock()

	return buildView(base, s.cache.State())
}

// Await ждет завершения запросов активного ключа и возвращает представление.
func (s *Shell) Await(ctx context.Context) (View, error) {
	s.mu.Lock()
	key := s.keyLocked()
	s.mu.Unlock()

	if _, err := s.cache.Await(ctx, key); err != nil {
		return View{}, err
	}
	return s.View(), nil
}

// Close отменяет ожидающий поиск и фоновые запросы.
func (s *Shell) Close() {
	s.search.Dispose()
	s.cache.Close()
	logger.Log(s.ctx).Info(s.ctx, LogShellClosed)
}

func (s *Shell) keyLocked() query.Key {
	return query.Key{
		Page:    s.paginator.Page(),
		Search:  s.debouncedSearch,
		PerPage: s.perPage,
	}
}

func (s *Shell) baseLocked() View {
	return View{
		Search:          s.rawSearch,
		DebouncedSearch: s.debouncedSearch,
		Page:            s.paginator.Page(),
		ModalOpen:       s.modalOpen,
	}
}
