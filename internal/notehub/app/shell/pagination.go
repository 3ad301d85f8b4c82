package shell

import (
	"context"
	"sync"

	"notehub/pkg/logger"
)

const LogScrollToTop = "shell: scroll to top"

// Scroller прокручивает представление к началу списка.
type Scroller interface {
	ScrollToTop(ctx context.Context)
}

// ScrollerFunc адаптирует функцию к Scroller.
type ScrollerFunc func(ctx context.Context)

func (f ScrollerFunc) ScrollToTop(ctx context.Context) {
	f(ctx)
}

type logScroller struct{}

func (logScroller) ScrollToTop(ctx context.Context) {
	logger.Log(ctx).Debug(ctx, LogScrollToTop)
}

// Paginator хранит номер текущей страницы. Страница начинается с 1.
type Paginator struct {
	mu       sync.Mutex
	page     int
	scroller Scroller
}

// NewPaginator создает Paginator на первой странице.
func NewPaginator(scroller Scroller) *Paginator {
	if scroller == nil {
		scroller = logScroller{}
	}
	return &Paginator{page: 1, scroller: scroller}
}

// Page возвращает текущую страницу.
func (p *Paginator) Page() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

// GoToPage переходит на страницу n и прокручивает список к началу.
func (p *Paginator) GoToPage(ctx context.Context, n int) {
	p.setPage(n)
	p.scrollToTop(ctx)
}

func (p *Paginator) setPage(n int) {
	p.mu.Lock()
	p.page = n
	p.mu.Unlock()
}

func (p *Paginator) scrollToTop(ctx context.Context) {
	p.scroller.ScrollToTop(ctx)
}

// SearchChanged возвращает на первую страницу.
func (p *Paginator) SearchChanged() {
	p.mu.Lock()
	p.page = 1
	p.mu.Unlock()
}
