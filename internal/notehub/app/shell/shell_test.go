package shell_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"notehub/internal/notehub/app/query"
	"notehub/internal/notehub/app/shell"
	"notehub/internal/notehub/domain/apperrors"
	"notehub/internal/notehub/domain/entities"
	"notehub/internal/notehub/ports/client"
	"notehub/pkg/debounce"
)

type mockNotesService struct {
	mock.Mock
}

func (m *mockNotesService) ListNotes(ctx context.Context, params client.ListParams) (*entities.NotesPage, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.NotesPage), args.Error(1)
}

func (m *mockNotesService) CreateNote(ctx context.Context, data entities.CreateNoteData) (*entities.Note, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Note), args.Error(1)
}

func (m *mockNotesService) DeleteNote(ctx context.Context, id string) (*entities.Note, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Note), args.Error(1)
}

// fakeClock срабатывает таймеры поиска синхронно внутри Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *fakeClock
	at    time.Duration
	fn    func()
	done  bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) debounce.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.done && t.at <= c.now {
			t.done = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

type recorder struct {
	mu      sync.Mutex
	alerts  []string
	scrolls int
}

func (r *recorder) alert(_ context.Context, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, msg)
}

func (r *recorder) scroll(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scrolls++
}

func (r *recorder) gotAlerts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.alerts...)
}

func (r *recorder) gotScrolls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scrolls
}

type fixture struct {
	shell   *shell.Shell
	service *mockNotesService
	clock   *fakeClock
	rec     *recorder
}

func params(page int, search string) client.ListParams {
	return client.ListParams{Page: page, PerPage: 6, Search: search}
}

func notesPage(totalPages int, titles ...string) *entities.NotesPage {
	notes := make([]entities.Note, 0, len(titles))
	for i, title := range titles {
		notes = append(notes, entities.Note{ID: fmt.Sprintf("n%d", i+1), Title: title, Tag: entities.TagWork})
	}
	return &entities.NotesPage{Notes: notes, TotalPages: totalPages}
}

// newFixture создает Shell. Ожидания сервиса задаются в setup до первого запроса.
func newFixture(t *testing.T, setup func(m *mockNotesService)) *fixture {
	t.Helper()

	m := &mockNotesService{}
	setup(m)

	f := &fixture{service: m, clock: &fakeClock{}, rec: &recorder{}}
	cache := query.New(shell.ListFetcher(m), query.Options{KeepPreviousData: true, StaleTime: time.Minute})
	f.shell = shell.New(context.Background(), m, cache, shell.Options{
		PerPage:   6,
		Debounce:  300 * time.Millisecond,
		Notifier:  shell.NotifierFunc(f.rec.alert),
		Scroller:  shell.ScrollerFunc(f.rec.scroll),
		AfterFunc: f.clock.AfterFunc,
	})
	t.Cleanup(f.shell.Close)
	return f
}

func (f *fixture) await(t *testing.T) shell.View {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	v, err := f.shell.Await(ctx)
	require.NoError(t, err)
	return v
}

func TestInitialView(t *testing.T) {
	f := newFixture(t, func(m *mockNotesService) {
		m.On("ListNotes", mock.Anything, params(1, "")).Return(notesPage(3, "Standup", "Groceries"), nil)
	})

	v := f.await(t)
	assert.Equal(t, shell.Title, v.Title)
	assert.Equal(t, shell.StatusList, v.Status)
	assert.Empty(t, v.Message)
	assert.Len(t, v.Notes, 2)
	assert.Equal(t, 1, v.Page)
	assert.False(t, v.ModalOpen)
	require.NotNil(t, v.Pager)
	assert.Equal(t, shell.Pager{Page: 1, TotalPages: 3}, *v.Pager)
}

func TestEmptyPageShowsEmptyStateWithoutPager(t *testing.T) {
	f := newFixture(t, func(m *mockNotesService) {
		m.On("ListNotes", mock.Anything, params(1, "")).Return(&entities.NotesPage{Notes: []entities.Note{}, TotalPages: 0}, nil)
	})

	v := f.await(t)
	assert.Equal(t, shell.StatusEmpty, v.Status)
	assert.Equal(t, shell.MsgEmpty, v.Message)
	assert.Empty(t, v.Notes)
	assert.Nil(t, v.Pager)
}

func TestSinglePageHasNoPager(t *testing.T) {
	f := newFixture(t, func(m *mockNotesService) {
		m.On("ListNotes", mock.Anything, params(1, "")).Return(notesPage(1, "Only"), nil)
	})

	v := f.await(t)
	assert.Equal(t, shell.StatusList, v.Status)
	assert.Nil(t, v.Pager)
}

func TestErrorView(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{
			name:    "known error shows its message",
			err:     fmt.Errorf("failed to list notes: %w", apperrors.FromStatus("List", http.StatusInternalServerError, "database down")),
			message: "Error: database down",
		},
		{
			name:    "unknown error shows fallback",
			err:     errors.New("boom"),
			message: "Error: " + shell.MsgGenericError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, func(m *mockNotesService) {
				m.On("ListNotes", mock.Anything, params(1, "")).Return(nil, tt.err)
			})

			v := f.await(t)
			assert.Equal(t, shell.StatusError, v.Status)
			assert.Equal(t, tt.message, v.Message)
			assert.Empty(t, v.Notes)
			assert.Nil(t, v.Pager)
		})
	}
}

func TestTypingOnPageTwoFetchesOnceWithSettledSearch(t *testing.T) {
	f := newFixture(t, func(m *mockNotesService) {
		m.On("ListNotes", mock.Anything, mock.Anything).Return(notesPage(3, "a", "b"), nil)
	})
	f.await(t)

	assert.Equal(t, 2, f.shell.GoToPage(context.Background(), 2))
	f.await(t)

	ctx := context.Background()
	f.shell.SetSearch(ctx, "meeting")
	f.clock.Advance(100 * time.Millisecond)
	f.shell.SetSearch(ctx, "meeting notes")

	v := f.shell.View()
	assert.Equal(t, "meeting notes", v.Search)
	assert.Empty(t, v.DebouncedSearch)
	assert.Equal(t, 2, v.Page)

	f.clock.Advance(300 * time.Millisecond)
	v = f.await(t)

	assert.Equal(t, 1, v.Page)
	assert.Equal(t, "meeting notes", v.DebouncedSearch)
	f.service.AssertNumberOfCalls(t, "ListNotes", 3)
	f.service.AssertCalled(t, "ListNotes", mock.Anything, params(1, "meeting notes"))
	f.service.AssertNotCalled(t, "ListNotes", mock.Anything, params(1, "meeting"))
	f.service.AssertNotCalled(t, "ListNotes", mock.Anything, params(2, "meeting notes"))
}

func TestSettledUnchangedSearchKeepsPage(t *testing.T) {
	f := newFixture(t, func(m *mockNotesService) {
		m.On("ListNotes", mock.Anything, mock.Anything).Return(notesPage(3, "a"), nil)
	})
	f.await(t)
	f.shell.GoToPage(context.Background(), 3)
	f.await(t)

	f.shell.SetSearch(context.Background(), "x")
	f.shell.SetSearch(context.Background(), "")
	f.clock.Advance(time.Second)

	v := f.await(t)
	assert.Equal(t, 3, v.Page)
	f.service.AssertNumberOfCalls(t, "ListNotes", 2)
}

func TestGoToPageClampsAndScrolls(t *testing.T) {
	f := newFixture(t, func(m *mockNotesService) {
		m.On("ListNotes", mock.Anything, mock.Anything).Return(notesPage(3, "a"), nil)
	})
	f.await(t)

	ctx := context.Background()
	assert.Equal(t, 3, f.shell.GoToPage(ctx, 10))
	assert.Equal(t, 1, f.shell.GoToPage(ctx, -4))
	assert.Equal(t, 2, f.shell.GoToPage(ctx, 2))
	assert.Equal(t, 3, f.rec.gotScrolls())

	v := f.await(t)
	assert.Equal(t, 2, v.Page)
	assert.Equal(t, 2, v.Pager.Page)
}

func TestScrollerCanReadViewDuringGoToPage(t *testing.T) {
	m := &mockNotesService{}
	m.On("ListNotes", mock.Anything, mock.Anything).Return(notesPage(3, "a"), nil)

	var (
		sh       *shell.Shell
		seenPage = make(chan int, 1)
	)
	cache := query.New(shell.ListFetcher(m), query.Options{StaleTime: time.Minute})
	sh = shell.New(context.Background(), m, cache, shell.Options{
		Scroller: shell.ScrollerFunc(func(context.Context) {
			seenPage <- sh.View().Page
		}),
		AfterFunc: (&fakeClock{}).AfterFunc,
	})
	t.Cleanup(sh.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := sh.Await(ctx)
	require.NoError(t, err)

	done := make(chan int)
	go func() { done <- sh.GoToPage(context.Background(), 2) }()

	select {
	case page := <-done:
		assert.Equal(t, 2, page)
	case <-time.After(2 * time.Second):
		t.Fatal("GoToPage deadlocked while the scroller read the view")
	}
	assert.Equal(t, 2, <-seenPage)
}

func TestCreateNoteClosesModalAndRefetches(t *testing.T) {
	data := entities.CreateNoteData{Title: "Buy milk", Content: "2L", Tag: entities.TagShopping}
	f := newFixture(t, func(m *mockNotesService) {
		m.On("ListNotes", mock.Anything, params(1, "")).Return(notesPage(1, "a"), nil)
		m.On("CreateNote", mock.Anything, data).Return(&entities.Note{ID: "new", Title: data.Title}, nil).Once()
	})
	f.await(t)

	ctx := context.Background()
	f.shell.OpenModal(ctx)
	assert.True(t, f.shell.View().ModalOpen)

	note, err := f.shell.CreateNote(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, "new", note.ID)

	v := f.await(t)
	assert.False(t, v.ModalOpen)
	assert.Empty(t, f.rec.gotAlerts())
	f.service.AssertNumberOfCalls(t, "ListNotes", 2)
}

func TestCreateNoteLocalValidationFailure(t *testing.T) {
	f := newFixture(t, func(m *mockNotesService) {
		m.On("ListNotes", mock.Anything, params(1, "")).Return(notesPage(1, "a"), nil)
	})
	f.await(t)

	ctx := context.Background()
	f.shell.OpenModal(ctx)

	_, err := f.shell.CreateNote(ctx, entities.CreateNoteData{Title: "ab", Tag: "Urgent"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	alerts := f.rec.gotAlerts()
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0], "title must be at least 3 characters")
	assert.Contains(t, alerts[0], "tag must be one of")

	v := f.await(t)
	assert.True(t, v.ModalOpen)
	f.service.AssertNotCalled(t, "CreateNote", mock.Anything, mock.Anything)
	f.service.AssertNumberOfCalls(t, "ListNotes", 1)
}

func TestCreateNoteServerValidationErrorKeepsModalOpen(t *testing.T) {
	data := entities.CreateNoteData{Title: "Valid title", Tag: entities.TagTodo}
	serverErr := fmt.Errorf("failed to create note: %w",
		apperrors.FromStatus("Create", http.StatusBadRequest, "Title already exists"))

	f := newFixture(t, func(m *mockNotesService) {
		m.On("ListNotes", mock.Anything, params(1, "")).Return(notesPage(1, "a"), nil)
		m.On("CreateNote", mock.Anything, data).Return(nil, serverErr).Once()
	})
	f.await(t)

	ctx := context.Background()
	f.shell.OpenModal(ctx)

	_, err := f.shell.CreateNote(ctx, data)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	assert.Equal(t, []string{"Title already exists"}, f.rec.gotAlerts())
	v := f.await(t)
	assert.True(t, v.ModalOpen)
	assert.Equal(t, shell.StatusList, v.Status)
	f.service.AssertNumberOfCalls(t, "ListNotes", 1)
}

func TestDeleteNoteDeclined(t *testing.T) {
	f := newFixture(t, func(m *mockNotesService) {
		m.On("ListNotes", mock.Anything, params(1, "")).Return(notesPage(1, "keep me"), nil)
	})
	before := f.await(t)

	decline := shell.ConfirmFunc(func(context.Context, string) bool { return false })
	_, err := f.shell.DeleteNote(context.Background(), "n1", decline)
	require.ErrorIs(t, err, apperrors.ErrDeleteDeclined)

	after := f.await(t)
	assert.Equal(t, before, after)
	assert.Empty(t, f.rec.gotAlerts())
	f.service.AssertNotCalled(t, "DeleteNote", mock.Anything, mock.Anything)
	f.service.AssertNumberOfCalls(t, "ListNotes", 1)
}

func TestDeleteNoteConfirmedRefetches(t *testing.T) {
	f := newFixture(t, func(m *mockNotesService) {
		m.On("ListNotes", mock.Anything, params(1, "")).Return(notesPage(1, "a"), nil)
		m.On("DeleteNote", mock.Anything, "n1").Return(&entities.Note{ID: "n1"}, nil).Once()
	})
	f.await(t)

	var asked string
	confirm := shell.ConfirmFunc(func(_ context.Context, id string) bool {
		asked = id
		return true
	})

	note, err := f.shell.DeleteNote(context.Background(), "n1", confirm)
	require.NoError(t, err)
	assert.Equal(t, "n1", note.ID)
	assert.Equal(t, "n1", asked)

	f.await(t)
	f.service.AssertNumberOfCalls(t, "ListNotes", 2)
}

func TestDeleteNoteFailureAlertsWithoutInvalidation(t *testing.T) {
	f := newFixture(t, func(m *mockNotesService) {
		m.On("ListNotes", mock.Anything, params(1, "")).Return(notesPage(1, "a"), nil)
		m.On("DeleteNote", mock.Anything, "n1").
			Return(nil, apperrors.FromStatus("Remove", http.StatusNotFound, "Note not found")).Once()
	})
	f.await(t)

	confirm := shell.ConfirmFunc(func(context.Context, string) bool { return true })
	_, err := f.shell.DeleteNote(context.Background(), "n1", confirm)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.Equal(t, []string{"Note not found"}, f.rec.gotAlerts())
	v := f.await(t)
	assert.Len(t, v.Notes, 1)
	f.service.AssertNumberOfCalls(t, "ListNotes", 1)
}

func TestCloseDiscardsPendingSearch(t *testing.T) {
	f := newFixture(t, func(m *mockNotesService) {
		m.On("ListNotes", mock.Anything, params(1, "")).Return(notesPage(1, "a"), nil)
	})
	f.await(t)

	f.shell.SetSearch(context.Background(), "late")
	f.shell.Close()
	f.clock.Advance(time.Second)

	f.service.AssertNumberOfCalls(t, "ListNotes", 1)
	f.service.AssertNotCalled(t, "ListNotes", mock.Anything, params(1, "late"))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "network error: dial", shell.ErrorMessage(apperrors.Network("List", errors.New("dial"))))
	assert.Equal(t, shell.MsgGenericError, shell.ErrorMessage(errors.New("plain")))
}
