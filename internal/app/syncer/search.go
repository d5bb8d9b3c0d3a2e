package syncer

import (
	"context"
	"sync"
	"time"

	"backend/internal/app/dto"
)

// Searcher — поиск по мере ввода с debounce и отменой незавершённого запроса.
// Смена запроса или Cancel обрывают текущий сетевой вызов; устаревшие ответы,
// пришедшие после отмены, отбрасываются и до подписчика не доходят.
type Searcher struct {
	api      API
	debounce time.Duration
	limit    int

	afterFunc func(d time.Duration, f func()) *time.Timer

	mu     sync.Mutex
	gen    int
	timer  *time.Timer
	cancel context.CancelFunc
}

func NewSearcher(api API, debounce time.Duration, limit int) *Searcher {
	if debounce < 0 {
		debounce = 0
	}
	return &Searcher{
		api:       api,
		debounce:  debounce,
		limit:     limit,
		afterFunc: time.AfterFunc,
	}
}

// Query планирует поиск после debounce-паузы. Каждый новый вызов отменяет
// предыдущий: и отложенный таймер, и запрос в полёте.
func (s *Searcher) Query(query string, deliver func([]dto.RequestSummary, error)) {
	s.mu.Lock()
	s.abortLocked()
	s.gen++
	gen := s.gen

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.timer = s.afterFunc(s.debounce, func() {
		s.run(ctx, gen, query, deliver)
	})
	s.mu.Unlock()
}

// Cancel обрывает отложенный и выполняющийся поиск (размонтирование компонента)
func (s *Searcher) Cancel() {
	s.mu.Lock()
	s.abortLocked()
	s.gen++
	s.mu.Unlock()
}

// abortLocked останавливает таймер и отменяет контекст текущего запроса
func (s *Searcher) abortLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Searcher) run(ctx context.Context, gen int, query string, deliver func([]dto.RequestSummary, error)) {
	results, err := s.api.SearchRequests(ctx, query, s.limit)

	// Ответ отменённого запроса отбрасывается молча
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	stale := gen != s.gen
	s.mu.Unlock()
	if stale {
		return
	}

	deliver(results, err)
}
