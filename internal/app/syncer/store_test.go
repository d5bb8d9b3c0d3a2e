package syncer

import (
	"testing"
	"time"

	"backend/internal/app/ds"
	"backend/internal/app/dto"
	"backend/internal/app/lifecycle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func summary(id string, status lifecycle.Status, updated time.Time) dto.RequestSummary {
	return dto.RequestSummary{
		ID:            id,
		Status:        status,
		Priority:      lifecycle.PriorityNormal,
		ClientName:    "ООО Спецтехника",
		VehicleType:   "Полуприцеп",
		Country:       "Казахстан",
		CreatedBy:     "7",
		CreatedByName: "Алексей",
		CreatedAt:     t0,
		UpdatedAt:     updated,
	}
}

func fullRecord(id string, status lifecycle.Status) *ds.QuoteRequest {
	return &ds.QuoteRequest{
		ID:          id,
		Status:      status,
		Priority:    lifecycle.PriorityNormal,
		ClientName:  "ООО Спецтехника",
		VehicleType: "Полуприцеп",
		Country:     "Казахстан",
		CreatedBy:   "7",
		CreatedAt:   t0,
		UpdatedAt:   t0,
		Products:    []ds.Product{{ID: "p1", AxleType: "rigid"}},
		History: []ds.HistoryEntry{
			{ID: "h1", Status: lifecycle.StatusDraft, Timestamp: t0},
		},
	}
}

func TestMergeReplacesSummaryEntries(t *testing.T) {
	s := NewStore()
	s.MergeSummaries([]dto.RequestSummary{summary("r1", lifecycle.StatusDraft, t0)})

	rec, ok := s.Get("r1")
	require.True(t, ok)
	assert.Equal(t, KindSummary, rec.Kind)

	// Повторный опрос с новым статусом — прямая замена
	s.MergeSummaries([]dto.RequestSummary{summary("r1", lifecycle.StatusSubmitted, t0.Add(time.Minute))})
	rec, _ = s.Get("r1")
	assert.Equal(t, lifecycle.StatusSubmitted, rec.Summary.Status)
}

// Ключевое правило: опрос не понижает Full до Summary, патчит только общие
// поля, эксклюзивные поля полной записи сохраняются
func TestMergeNeverDowngradesFull(t *testing.T) {
	s := NewStore()
	full := fullRecord("r1", lifecycle.StatusDraft)
	s.ApplyFull(full)

	s.MergeSummaries([]dto.RequestSummary{summary("r1", lifecycle.StatusSubmitted, t0.Add(time.Minute))})

	rec, ok := s.Get("r1")
	require.True(t, ok)
	require.Equal(t, KindFull, rec.Kind)

	// Общие поля обновлены опросом
	assert.Equal(t, lifecycle.StatusSubmitted, rec.Full.Status)
	assert.Equal(t, t0.Add(time.Minute), rec.Full.UpdatedAt)

	// Эксклюзивные поля полной записи не тронуты
	assert.Len(t, rec.Full.Products, 1)
	assert.Len(t, rec.Full.History, 1)
}

// Идемпотентность: повторное применение того же опроса без записей между
// ними оставляет кэш неизменным
func TestMergeIdempotent(t *testing.T) {
	s := NewStore()
	poll := []dto.RequestSummary{
		summary("r1", lifecycle.StatusDraft, t0),
		summary("r2", lifecycle.StatusSubmitted, t0),
	}
	s.ApplyFull(fullRecord("r1", lifecycle.StatusDraft))

	s.MergeSummaries(poll)
	first := s.Summaries()

	s.MergeSummaries(poll)
	second := s.Summaries()

	assert.Equal(t, first, second)
	rec, _ := s.Get("r1")
	assert.Equal(t, KindFull, rec.Kind)
}

// Id, пропавшие из свежего опроса, сохраняются в кэше
func TestMergeRetainsMissingIds(t *testing.T) {
	s := NewStore()
	s.MergeSummaries([]dto.RequestSummary{
		summary("r1", lifecycle.StatusDraft, t0),
		summary("r2", lifecycle.StatusSubmitted, t0),
	})
	s.ApplyFull(fullRecord("r3", lifecycle.StatusInCosting))

	// Следующий опрос вернул только r1
	s.MergeSummaries([]dto.RequestSummary{summary("r1", lifecycle.StatusUnderReview, t0.Add(time.Minute))})

	assert.Equal(t, 3, s.Len())
	_, ok := s.Get("r2")
	assert.True(t, ok)
	_, ok = s.Get("r3")
	assert.True(t, ok)

	// Но присутствующие в опросе id обновлены
	rec, _ := s.Get("r1")
	assert.Equal(t, lifecycle.StatusUnderReview, rec.Summary.Status)
}

// Promotion идемпотентен и ключуется по id: побеждает последний
// применённый ответ, независимо от порядка запуска запросов
func TestPromotionLastResponseWins(t *testing.T) {
	s := NewStore()
	s.MergeSummaries([]dto.RequestSummary{summary("r1", lifecycle.StatusDraft, t0)})

	older := fullRecord("r1", lifecycle.StatusDraft)
	newer := fullRecord("r1", lifecycle.StatusSubmitted)
	newer.History = append(newer.History, ds.HistoryEntry{
		ID: "h2", Status: lifecycle.StatusSubmitted, Timestamp: t0.Add(time.Minute),
	})

	// Ответы пришли в обратном порядке запуска
	s.ApplyFull(older)
	s.ApplyFull(newer)

	rec, _ := s.Get("r1")
	require.Equal(t, KindFull, rec.Kind)
	assert.Equal(t, lifecycle.StatusSubmitted, rec.Full.Status)
	assert.Len(t, rec.Full.History, 2)

	// Записи других id не затронуты
	assert.Equal(t, 1, s.Len())
}

// Ответ мутирующей команды авторитетен: безусловная замена даже при
// более «свежей» summary в кэше
func TestWriteResponseOverwritesUnconditionally(t *testing.T) {
	s := NewStore()
	s.MergeSummaries([]dto.RequestSummary{summary("r1", lifecycle.StatusUnderReview, t0.Add(time.Hour))})

	written := fullRecord("r1", lifecycle.StatusClarificationNeeded)
	s.ApplyFull(written)

	rec, _ := s.Get("r1")
	require.Equal(t, KindFull, rec.Kind)
	assert.Equal(t, lifecycle.StatusClarificationNeeded, rec.Full.Status)
}

func TestSummariesProjection(t *testing.T) {
	s := NewStore()
	s.MergeSummaries([]dto.RequestSummary{summary("r1", lifecycle.StatusDraft, t0)})
	full := fullRecord("r2", lifecycle.StatusInCosting)
	full.UpdatedAt = t0.Add(time.Hour)
	s.ApplyFull(full)

	out := s.Summaries()
	require.Len(t, out, 2)
	// Сортировка по updatedAt, новые выше
	assert.Equal(t, "r2", out[0].ID)
	assert.Equal(t, lifecycle.StatusInCosting, out[0].Status)
	assert.Equal(t, "r1", out[1].ID)
}

func TestDelete(t *testing.T) {
	s := NewStore()
	s.ApplyFull(fullRecord("r1", lifecycle.StatusDraft))
	s.Delete("r1")
	_, ok := s.Get("r1")
	assert.False(t, ok)
	assert.Zero(t, s.Len())
}
