package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"backend/internal/app/ds"
	"backend/internal/app/dto"

	"github.com/sirupsen/logrus"
)

// ErrNotFound возвращается при неуспешной загрузке полной записи;
// кэш при этом не изменяется
var ErrNotFound = errors.New("заявка не найдена")

// API — серверный интерфейс слоя синхронизации
type API interface {
	FetchSummaries(ctx context.Context) ([]dto.RequestSummary, error)
	FetchFull(ctx context.Context, id string) (*ds.QuoteRequest, error)
	SearchRequests(ctx context.Context, query string, limit int) ([]dto.RequestSummary, error)
}

// Ticker абстрагирует источник тиков опроса; в тестах подменяется каналом
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// Состояние синхронизации
type State string

const (
	StateIdle  State = "idle"  // опрос ещё не выполнялся
	StateOK    State = "ok"    // последний опрос успешен
	StateError State = "error" // опрос упал, данные в кэше устаревшие, но доступны
)

// SyncState — наблюдаемое состояние слоя синхронизации.
// При ошибке LastSyncAt сохраняет отметку последнего успешного опроса.
type SyncState struct {
	State      State     `json:"state"`
	LastSyncAt time.Time `json:"lastSyncAt"`
	LastError  string    `json:"lastError,omitempty"`
}

// Syncer — явный экземпляр службы синхронизации с внедрёнными часами и
// тикером и явным жизненным циклом Start/Stop (привязан к видимости страницы)
type Syncer struct {
	api   API
	store *Store

	interval  time.Duration
	now       func() time.Time
	newTicker func(d time.Duration) Ticker

	mu    sync.Mutex
	state SyncState

	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
}

func New(api API, store *Store, pollInterval time.Duration) *Syncer {
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	return &Syncer{
		api:      api,
		store:    store,
		interval: pollInterval,
		now:      time.Now,
		newTicker: func(d time.Duration) Ticker {
			return realTicker{t: time.NewTicker(d)}
		},
		state: SyncState{State: StateIdle},
	}
}

// Store возвращает кэш, которым владеет служба
func (s *Syncer) Store() *Store {
	return s.store
}

// Start запускает периодический опрос. Повторный Start без Stop игнорируется.
func (s *Syncer) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	go s.loop(stopCh, doneCh)
}

// Stop останавливает опрос и дожидается завершения цикла
func (s *Syncer) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stopCh)
	<-doneCh
}

// Каналы передаются параметрами: цикл закрывает ровно свой doneCh
// и слушает ровно свой stopCh, даже если Start/Stop успели смениться
func (s *Syncer) loop(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	// Первый опрос сразу при старте, дальше по тикеру
	s.PollOnce(context.Background())

	ticker := s.newTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C():
			s.PollOnce(context.Background())
		}
	}
}

// PollOnce выполняет один цикл опроса summary-набора и вливает его в кэш.
// Ошибка опроса переводит состояние в error, данные в кэше сохраняются.
func (s *Syncer) PollOnce(ctx context.Context) {
	summaries, err := s.api.FetchSummaries(ctx)
	if err != nil {
		logrus.Warnf("sync poll failed: %v", err)
		s.mu.Lock()
		s.state.State = StateError
		s.state.LastError = err.Error()
		s.mu.Unlock()
		return
	}

	s.store.MergeSummaries(summaries)

	s.mu.Lock()
	s.state.State = StateOK
	s.state.LastSyncAt = s.now()
	s.state.LastError = ""
	s.mu.Unlock()
}

// SyncState возвращает текущее состояние синхронизации
func (s *Syncer) SyncState() SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// GetFull выполняет promotion: загружает полную запись и помещает её в кэш.
// Параллельные promotion по одному id идемпотентны: запись ключуется по id,
// побеждает последний завершившийся ответ. При ошибке кэш не изменяется.
func (s *Syncer) GetFull(ctx context.Context, id string) (*ds.QuoteRequest, error) {
	full, err := s.api.FetchFull(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			// Отменённый запрос не трогает кэш и не считается ошибкой данных
			return nil, ctx.Err()
		}
		logrus.Warnf("fetch full %s failed: %v", id, err)
		return nil, ErrNotFound
	}

	s.store.ApplyFull(full)
	return full, nil
}

// CommitWrite фиксирует авторитетный ответ мутирующей команды
// (create/update/status): безусловная замена локальной записи
func (s *Syncer) CommitWrite(full *ds.QuoteRequest) {
	s.store.ApplyFull(full)
}

// Forget убирает заявку из кэша после подтверждённого удаления на сервере
func (s *Syncer) Forget(id string) {
	s.store.Delete(id)
}
