package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"backend/internal/app/ds"
	"backend/internal/app/dto"
	"backend/internal/app/lifecycle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI — подменный сервер с функциями-полями
type fakeAPI struct {
	fetchSummaries func(ctx context.Context) ([]dto.RequestSummary, error)
	fetchFull      func(ctx context.Context, id string) (*ds.QuoteRequest, error)
	search         func(ctx context.Context, query string, limit int) ([]dto.RequestSummary, error)
}

func (f *fakeAPI) FetchSummaries(ctx context.Context) ([]dto.RequestSummary, error) {
	return f.fetchSummaries(ctx)
}

func (f *fakeAPI) FetchFull(ctx context.Context, id string) (*ds.QuoteRequest, error) {
	return f.fetchFull(ctx, id)
}

func (f *fakeAPI) SearchRequests(ctx context.Context, query string, limit int) ([]dto.RequestSummary, error) {
	return f.search(ctx, query, limit)
}

// fakeTicker — тикер, управляемый из теста
type fakeTicker struct {
	ch chan time.Time
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               {}

func TestPollSuccessUpdatesState(t *testing.T) {
	api := &fakeAPI{
		fetchSummaries: func(ctx context.Context) ([]dto.RequestSummary, error) {
			return []dto.RequestSummary{summary("r1", lifecycle.StatusDraft, t0)}, nil
		},
	}
	s := New(api, NewStore(), time.Second)
	s.now = func() time.Time { return t0.Add(time.Hour) }

	s.PollOnce(context.Background())

	state := s.SyncState()
	assert.Equal(t, StateOK, state.State)
	assert.Equal(t, t0.Add(time.Hour), state.LastSyncAt)
	assert.Empty(t, state.LastError)
	assert.Equal(t, 1, s.Store().Len())
}

// Ошибка опроса: состояние error, отметка последней успешной синхронизации
// и данные в кэше сохраняются
func TestPollFailureRetainsStaleData(t *testing.T) {
	calls := 0
	api := &fakeAPI{
		fetchSummaries: func(ctx context.Context) ([]dto.RequestSummary, error) {
			calls++
			if calls == 1 {
				return []dto.RequestSummary{summary("r1", lifecycle.StatusDraft, t0)}, nil
			}
			return nil, errors.New("connection refused")
		},
	}
	s := New(api, NewStore(), time.Second)
	s.now = func() time.Time { return t0.Add(time.Hour) }

	s.PollOnce(context.Background())
	s.PollOnce(context.Background())

	state := s.SyncState()
	assert.Equal(t, StateError, state.State)
	assert.Equal(t, t0.Add(time.Hour), state.LastSyncAt, "отметка успешного опроса сохраняется")
	assert.Contains(t, state.LastError, "connection refused")

	// Устаревшие данные доступны, кэш не очищен
	assert.Equal(t, 1, s.Store().Len())
}

func TestStartStopLifecycle(t *testing.T) {
	ticker := &fakeTicker{ch: make(chan time.Time)}
	var mu sync.Mutex
	polls := 0
	api := &fakeAPI{
		fetchSummaries: func(ctx context.Context) ([]dto.RequestSummary, error) {
			mu.Lock()
			polls++
			mu.Unlock()
			return nil, nil
		},
	}
	s := New(api, NewStore(), time.Second)
	s.newTicker = func(d time.Duration) Ticker { return ticker }

	s.Start()
	s.Start() // повторный Start игнорируется

	ticker.ch <- time.Now()
	ticker.ch <- time.Now()
	s.Stop()
	s.Stop() // повторный Stop безопасен

	mu.Lock()
	got := polls
	mu.Unlock()
	// Первый опрос при старте плюс два тика
	assert.Equal(t, 3, got)
}

// Каждый Start получает свои каналы: перезапуск после Stop не трогает
// завершённое поколение цикла и не зависает
func TestRestartAfterStop(t *testing.T) {
	var mu sync.Mutex
	polls := 0
	api := &fakeAPI{
		fetchSummaries: func(ctx context.Context) ([]dto.RequestSummary, error) {
			mu.Lock()
			polls++
			mu.Unlock()
			return nil, nil
		},
	}
	s := New(api, NewStore(), time.Second)
	s.newTicker = func(d time.Duration) Ticker {
		return &fakeTicker{ch: make(chan time.Time)}
	}

	s.Start()
	s.Stop()
	s.Start()
	s.Stop()

	mu.Lock()
	got := polls
	mu.Unlock()
	// По одному стартовому опросу на каждое поколение
	assert.Equal(t, 2, got)
}

// Настроенный предел поиска доходит до API
func TestSearcherPassesConfiguredLimit(t *testing.T) {
	gotLimit := make(chan int, 1)
	api := &fakeAPI{
		search: func(ctx context.Context, query string, limit int) ([]dto.RequestSummary, error) {
			gotLimit <- limit
			return nil, nil
		},
	}

	searcher := NewSearcher(api, 0, 35)
	searcher.Query("ось", func(_ []dto.RequestSummary, _ error) {})

	select {
	case limit := <-gotLimit:
		assert.Equal(t, 35, limit)
	case <-time.After(2 * time.Second):
		t.Fatal("поисковый запрос не выполнен")
	}
}

func TestGetFullPromotesAndCaches(t *testing.T) {
	full := fullRecord("r1", lifecycle.StatusSubmitted)
	api := &fakeAPI{
		fetchFull: func(ctx context.Context, id string) (*ds.QuoteRequest, error) {
			require.Equal(t, "r1", id)
			return full, nil
		},
	}
	store := NewStore()
	store.MergeSummaries([]dto.RequestSummary{summary("r1", lifecycle.StatusSubmitted, t0)})
	s := New(api, store, time.Second)

	got, err := s.GetFull(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, full, got)

	rec, _ := store.Get("r1")
	assert.Equal(t, KindFull, rec.Kind)
}

// Неуспешная загрузка полной записи: ErrNotFound, кэш не изменяется
func TestGetFullFailureDoesNotMutateCache(t *testing.T) {
	api := &fakeAPI{
		fetchFull: func(ctx context.Context, id string) (*ds.QuoteRequest, error) {
			return nil, errors.New("status 500")
		},
	}
	store := NewStore()
	store.MergeSummaries([]dto.RequestSummary{summary("r1", lifecycle.StatusDraft, t0)})
	s := New(api, store, time.Second)

	_, err := s.GetFull(context.Background(), "r1")
	require.ErrorIs(t, err, ErrNotFound)

	rec, ok := store.Get("r1")
	require.True(t, ok)
	assert.Equal(t, KindSummary, rec.Kind)
}

func TestGetFullCancelledContext(t *testing.T) {
	api := &fakeAPI{
		fetchFull: func(ctx context.Context, id string) (*ds.QuoteRequest, error) {
			return nil, ctx.Err()
		},
	}
	store := NewStore()
	s := New(api, store, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetFull(ctx, "r1")
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, store.Len())
}

func TestCommitWriteReplacesEntry(t *testing.T) {
	store := NewStore()
	store.MergeSummaries([]dto.RequestSummary{summary("r1", lifecycle.StatusDraft, t0)})
	s := New(&fakeAPI{}, store, time.Second)

	s.CommitWrite(fullRecord("r1", lifecycle.StatusSubmitted))

	rec, _ := store.Get("r1")
	require.Equal(t, KindFull, rec.Kind)
	assert.Equal(t, lifecycle.StatusSubmitted, rec.Full.Status)

	s.Forget("r1")
	assert.Zero(t, store.Len())
}

func TestSearchDebounceCancelsPrevious(t *testing.T) {
	started := make(chan string, 2)
	release := make(chan struct{})
	api := &fakeAPI{
		search: func(ctx context.Context, query string, limit int) ([]dto.RequestSummary, error) {
			started <- query
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-release:
			}
			return []dto.RequestSummary{summary("r1", lifecycle.StatusDraft, t0)}, nil
		},
	}

	searcher := NewSearcher(api, 0, 20)
	results := make(chan string, 2)
	deliver := func(q string) func([]dto.RequestSummary, error) {
		return func(_ []dto.RequestSummary, err error) {
			if err == nil {
				results <- q
			}
		}
	}

	searcher.Query("ось", deliver("ось"))
	<-started // первый запрос ушёл в сеть

	// Новый ввод обрывает первый запрос
	searcher.Query("ось портальная", deliver("ось портальная"))
	<-started
	close(release)

	select {
	case q := <-results:
		assert.Equal(t, "ось портальная", q)
	case <-time.After(2 * time.Second):
		t.Fatal("результат поиска не доставлен")
	}

	// Ответ первого (отменённого) запроса отброшен
	select {
	case q := <-results:
		t.Fatalf("устаревший результат доставлен: %s", q)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSearchCancelDiscardsResponse(t *testing.T) {
	inFlight := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{
		search: func(ctx context.Context, query string, limit int) ([]dto.RequestSummary, error) {
			close(inFlight)
			<-release
			// Сервер успел ответить, но запрос уже отменён
			return []dto.RequestSummary{summary("r1", lifecycle.StatusDraft, t0)}, nil
		},
	}

	searcher := NewSearcher(api, 0, 20)
	delivered := make(chan struct{}, 1)
	searcher.Query("колесо", func(_ []dto.RequestSummary, _ error) {
		delivered <- struct{}{}
	})

	<-inFlight
	searcher.Cancel()
	close(release)

	select {
	case <-delivered:
		t.Fatal("ответ после отмены должен быть отброшен")
	case <-time.After(100 * time.Millisecond):
	}
}
