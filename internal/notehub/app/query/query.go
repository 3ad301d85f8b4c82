// Package query кэширует результаты запросов списка заметок по ключу (страница, поиск)
// и отслеживает состояние загрузки для активного ключа.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"notehub/internal/notehub/domain/entities"
	"notehub/internal/notehub/ports/cache"
	"notehub/pkg/logger"
)

// KeyPrefix - общий префикс ключей списков в общем уровне кэша.
const KeyPrefix = "notes:"

// Константы для логирования.
const (
	LogFetchStarted      = "query: fetch started"
	LogFetchFinished     = "query: fetch finished"
	LogStaleResponse     = "query: dropping superseded response"
	LogSharedTierHit     = "query: served from shared cache"
	LogSharedTierFailed  = "query: shared cache operation failed"
	LogInvalidated       = "query: list entries invalidated"
	LogActiveKeyChanged  = "query: active key changed"
	LogEntriesEvicted    = "query: idle entries evicted"
	ErrorFetchAbandoned  = "fetch abandoned"
	ErrorUnexpectedValue = "unexpected coalesced result"
)

// Key идентифицирует запрос списка. Равные ключи эквивалентны для кэша.
type Key struct {
	Page    int
	Search  string
	PerPage int
}

// String возвращает каноническое представление ключа.
func (k Key) String() string {
	return fmt.Sprintf("%s%d:%d:%s", KeyPrefix, k.PerPage, k.Page, k.Search)
}

// Fetcher выполняет запрос списка для ключа.
type Fetcher func(ctx context.Context, key Key) (*entities.NotesPage, error)

// Options настраивает Cache.
type Options struct {
	// KeepPreviousData показывает данные предыдущего активного ключа,
	// пока новый ключ загружается.
	KeepPreviousData bool
	// StaleTime - время, в течение которого успешный результат считается свежим.
	// Неположительное значение означает перезапрос при каждой активации.
	StaleTime time.Duration
	// GCTime - сколько неактивная запись без запросов хранится в памяти.
	// Неположительное значение отключает вытеснение.
	GCTime time.Duration
	// Shared - необязательный общий уровень кэша.
	Shared cache.Cache
	// Now подменяет часы.
	Now func() time.Time
}

// State - состояние запроса для ключа.
type State struct {
	Key  Key
	Data *entities.NotesPage
	Err  error
	// IsLoading - данных для показа нет, идет загрузка.
	IsLoading bool
	// IsFetching - для ключа выполняется или поставлен запрос.
	IsFetching bool
	IsError    bool
	// IsPlaceholderData - Data принадлежит предыдущему активному ключу.
	IsPlaceholderData bool
	UpdatedAt         time.Time
}

type entry struct {
	data      *entities.NotesPage
	err       error
	updatedAt time.Time
	stale     bool

	// issued - номер последнего выданного запроса, accepted - последнего принятого.
	// Результаты с номером меньше minGen выданы до инвалидации и отбрасываются.
	issued   uint64
	accepted uint64
	minGen   uint64

	inflightGen uint64
	// cancel отменяет запрос inflightGen.
	cancel context.CancelFunc
	queued int

	// lastUsed - последняя активация, уход из активных или принятый ответ.
	lastUsed time.Time

	// changed закрывается и заменяется при каждом изменении записи.
	changed chan struct{}
}

func (e *entry) fetching() bool {
	return e.inflightGen != 0 || e.queued > 0
}

// Cache - кэш списков заметок. Не более одного сетевого запроса на ключ
// выполняется одновременно.
type Cache struct {
	fetch Fetcher
	opts  Options
	now   func() time.Time

	sf singleflight.Group

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// sharedMu упорядочивает запись в общий уровень относительно его очистки.
	sharedMu sync.RWMutex

	mu        sync.Mutex
	entries   map[Key]*entry
	active    Key
	hasActive bool
	lastShown *entities.NotesPage
}

// New создает Cache.
func New(fetch Fetcher, opts Options) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Cache{
		fetch:   fetch,
		opts:    opts,
		now:     now,
		baseCtx: ctx,
		cancel:  cancel,
		entries: make(map[Key]*entry),
	}
}

// Fetch возвращает результат для ключа, выполняя запрос. Одновременные вызовы
// с одинаковым ключом разделяют один запрос. Отмена ctx прекращает ожидание,
// но не сам разделяемый запрос.
func (c *Cache) Fetch(ctx context.Context, key Key) (*entities.NotesPage, error) {
	ch := c.sf.DoChan(key.String(), func() (any, error) {
		fetchCtx, release := c.detach(ctx)
		defer release()
		return c.load(fetchCtx, key)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		page, ok := res.Val.(*entities.NotesPage)
		if !ok {
			return nil, fmt.Errorf("%s: %T", ErrorUnexpectedValue, res.Val)
		}
		return page, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", ErrorFetchAbandoned, ctx.Err())
	}
}

// Activate делает key активным и запускает фоновую загрузку, если запись
// отсутствует, устарела или завершилась ошибкой.
func (c *Cache) Activate(ctx context.Context, key Key) State {
	c.mu.Lock()
	evicted := c.sweepLocked()
	changed := !c.hasActive || c.active != key
	if changed && c.hasActive {
		if prev, ok := c.entries[c.active]; ok {
			prev.lastUsed = c.now()
		}
	}
	c.active = key
	c.hasActive = true

	e := c.entryLocked(key)
	e.lastUsed = c.now()
	if e.data != nil {
		c.lastShown = e.data
	}
	need := c.needsFetchLocked(e)
	if need {
		e.queued++
		c.signalLocked(e)
	}
	state := c.stateLocked(key)
	c.mu.Unlock()

	if evicted > 0 {
		logger.Log(ctx).Debug(ctx, LogEntriesEvicted, zap.Int("count", evicted))
	}
	if changed {
		logger.Log(ctx).Debug(ctx, LogActiveKeyChanged, zap.Stringer("key", key))
	}
	if need {
		c.background(ctx, key)
	}
	return state
}

// State возвращает состояние активного ключа.
func (c *Cache) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasActive {
		return State{}
	}
	return c.stateLocked(c.active)
}

// Active возвращает активный ключ.
func (c *Cache) Active() (Key, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active, c.hasActive
}

// Await ждет, пока для ключа не останется запросов, и возвращает его состояние.
func (c *Cache) Await(ctx context.Context, key Key) (State, error) {
	for {
		c.mu.Lock()
		e, ok := c.entries[key]
		if !ok || !e.fetching() {
			state := c.stateLocked(key)
			c.mu.Unlock()
			return state, nil
		}
		changed := e.changed
		c.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return State{}, ctx.Err()
		}
	}
}

// InvalidateAll помечает все записи устаревшими, очищает общий уровень
// и перезапрашивает активный ключ. Выполняющиеся запросы отменяются,
// а их ответы свежими уже не станут.
func (c *Cache) InvalidateAll(ctx context.Context) {
	log := logger.Log(ctx)

	c.mu.Lock()
	c.sweepLocked()
	forget := make([]string, 0)
	cancels := make([]context.CancelFunc, 0)
	for key, e := range c.entries {
		e.stale = true
		if e.inflightGen != 0 {
			e.minGen = e.issued + 1
			forget = append(forget, key.String())
			if e.cancel != nil {
				cancels = append(cancels, e.cancel)
			}
		}
	}
	active, hasActive := c.active, c.hasActive
	var refetch bool
	if hasActive {
		e := c.entryLocked(active)
		e.queued++
		c.signalLocked(e)
		refetch = true
	}
	count := len(c.entries)
	c.mu.Unlock()

	for _, key := range forget {
		c.sf.Forget(key)
	}
	for _, cancel := range cancels {
		cancel()
	}

	if c.opts.Shared != nil {
		c.sharedMu.Lock()
		if err := c.opts.Shared.DeletePrefix(ctx, KeyPrefix); err != nil {
			log.Warn(ctx, LogSharedTierFailed, zap.Error(err))
		}
		c.sharedMu.Unlock()
	}

	log.Info(ctx, LogInvalidated, zap.Int("entries", count), zap.Int("in_flight", len(forget)))

	if refetch {
		c.background(ctx, active)
	}
}

// Close отменяет фоновые запросы и ждет их завершения.
func (c *Cache) Close() {
	c.cancel()
	c.wg.Wait()
}

// background выполняет Fetch в отдельной горутине. queued для ключа уже увеличен.
func (c *Cache) background(ctx context.Context, key Key) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		_, _ = c.Fetch(context.WithoutCancel(ctx), key)

		c.mu.Lock()
		e := c.entryLocked(key)
		e.queued--
		c.signalLocked(e)
		c.mu.Unlock()
	}()
}

// load выполняется ровно одним вызывающим на ключ среди одновременных.
// Если отмененный инвалидацией запрос еще не вернулся, load ждет его.
func (c *Cache) load(ctx context.Context, key Key) (*entities.NotesPage, error) {
	log := logger.Log(ctx).With(zap.Stringer("key", key))

	c.mu.Lock()
	e := c.entryLocked(key)
	for e.inflightGen != 0 {
		changed := e.changed
		c.mu.Unlock()
		select {
		case <-changed:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		c.mu.Lock()
		e = c.entryLocked(key)
	}
	e.issued++
	gen := e.issued
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.inflightGen = gen
	e.cancel = cancel
	cold := e.accepted == 0 && e.data == nil
	c.signalLocked(e)
	c.mu.Unlock()

	log.Debug(ctx, LogFetchStarted, zap.Uint64("generation", gen))

	var (
		page *entities.NotesPage
		err  error
	)
	if cold {
		page = c.readShared(ctx, key)
	}
	if page == nil {
		page, err = c.fetch(ctx, key)
	}

	c.mu.Lock()
	accepted := c.resolveLocked(key, e, gen, page, err)
	if e.inflightGen == gen {
		e.inflightGen = 0
		e.cancel = nil
	}
	c.signalLocked(e)
	c.mu.Unlock()

	if !accepted {
		log.Debug(ctx, LogStaleResponse, zap.Uint64("generation", gen))
	} else {
		log.Debug(ctx, LogFetchFinished, zap.Uint64("generation", gen), zap.Bool("error", err != nil))
		if err == nil {
			c.writeShared(ctx, key, e, gen, page)
		}
	}

	return page, err
}

// resolveLocked применяет результат запроса gen, если он не устарел.
func (c *Cache) resolveLocked(key Key, e *entry, gen uint64, page *entities.NotesPage, err error) bool {
	if gen < e.minGen || gen <= e.accepted {
		return false
	}
	e.accepted = gen
	e.lastUsed = c.now()

	if err != nil {
		e.err = err
		return true
	}

	e.data = page
	e.err = nil
	e.stale = false
	e.updatedAt = c.now()
	if c.hasActive && c.active == key {
		c.lastShown = page
	}
	return true
}

func (c *Cache) readShared(ctx context.Context, key Key) *entities.NotesPage {
	if c.opts.Shared == nil {
		return nil
	}

	c.sharedMu.RLock()
	raw, err := c.opts.Shared.Get(ctx, key.String())
	c.sharedMu.RUnlock()

	if err != nil {
		logger.Log(ctx).Warn(ctx, LogSharedTierFailed, zap.Error(err))
		return nil
	}
	if raw == "" {
		return nil
	}

	var page entities.NotesPage
	if err := json.Unmarshal([]byte(raw), &page); err != nil {
		logger.Log(ctx).Warn(ctx, LogSharedTierFailed, zap.Error(err))
		return nil
	}
	logger.Log(ctx).Debug(ctx, LogSharedTierHit, zap.Stringer("key", key))
	return &page
}

// writeShared записывает принятый результат, если он все еще актуален.
func (c *Cache) writeShared(ctx context.Context, key Key, e *entry, gen uint64, page *entities.NotesPage) {
	if c.opts.Shared == nil {
		return
	}

	raw, err := json.Marshal(page)
	if err != nil {
		logger.Log(ctx).Warn(ctx, LogSharedTierFailed, zap.Error(err))
		return
	}

	c.sharedMu.RLock()
	defer c.sharedMu.RUnlock()

	c.mu.Lock()
	current := e.accepted == gen && !e.stale
	c.mu.Unlock()
	if !current {
		return
	}

	if err := c.opts.Shared.Set(ctx, key.String(), string(raw), c.opts.StaleTime); err != nil {
		logger.Log(ctx).Warn(ctx, LogSharedTierFailed, zap.Error(err))
	}
}

func (c *Cache) entryLocked(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{changed: make(chan struct{})}
		c.entries[key] = e
	}
	return e
}

// sweepLocked удаляет неактивные записи без запросов, простаивающие дольше GCTime.
func (c *Cache) sweepLocked() int {
	if c.opts.GCTime <= 0 {
		return 0
	}
	now := c.now()
	evicted := 0
	for key, e := range c.entries {
		if c.hasActive && key == c.active {
			continue
		}
		if e.fetching() || now.Sub(e.lastUsed) < c.opts.GCTime {
			continue
		}
		delete(c.entries, key)
		evicted++
	}
	return evicted
}

func (c *Cache) signalLocked(e *entry) {
	close(e.changed)
	e.changed = make(chan struct{})
}

func (c *Cache) needsFetchLocked(e *entry) bool {
	if e.fetching() {
		return false
	}
	if e.data == nil || e.err != nil || e.stale {
		return true
	}
	return c.opts.StaleTime <= 0 || c.now().Sub(e.updatedAt) >= c.opts.StaleTime
}

func (c *Cache) stateLocked(key Key) State {
	state := State{Key: key}
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
	}
	fetching := e.fetching()
	state.IsFetching = fetching

	switch {
	case e.err != nil && !fetching:
		state.IsError = true
		state.Err = e.err
		state.Data = e.data
		state.UpdatedAt = e.updatedAt
	case e.data != nil:
		state.Data = e.data
		state.UpdatedAt = e.updatedAt
	case c.opts.KeepPreviousData && c.lastShown != nil && c.hasActive && c.active == key:
		state.Data = c.lastShown
		state.IsPlaceholderData = true
	default:
		state.IsLoading = true
	}
	return state
}

// detach возвращает контекст со значениями ctx, который отменяется только при Close.
func (c *Cache) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	detached, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(c.baseCtx, cancel)
	var once sync.Once
	return detached, func() {
		once.Do(func() {
			stop()
			cancel()
		})
	}
}
