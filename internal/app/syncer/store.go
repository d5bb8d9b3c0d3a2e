package syncer

import (
	"sort"
	"sync"

	"backend/internal/app/ds"
	"backend/internal/app/dto"
)

// Вид локальной записи кэша
type RecordKind int

const (
	KindSummary RecordKind = iota // лёгкая проекция для списков
	KindFull                      // полный агрегат для детального просмотра
)

// Record — тегированная запись кэша: либо summary-проекция, либо полный агрегат
type Record struct {
	Kind    RecordKind
	Summary dto.RequestSummary
	Full    *ds.QuoteRequest
}

// ID возвращает идентификатор заявки независимо от вида записи
func (r Record) ID() string {
	if r.Kind == KindFull && r.Full != nil {
		return r.Full.ID
	}
	return r.Summary.ID
}

// Store — клиентский кэш заявок: карта id -> тегированная запись.
// Реализует merge-on-refresh: опрос никогда не понижает Full до Summary
// и не трогает поля, которых нет в summary-проекции.
type Store struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewStore() *Store {
	return &Store{
		records: make(map[string]Record),
	}
}

// MergeSummaries вливает результат периодического опроса в кэш.
// Правила:
//   - нет записи или есть Summary -> прямая замена;
//   - есть Full -> патчим только общие поля, полные данные сохраняются;
//   - id, пропавшие из свежего опроса, остаются в кэше (возможны
//     временные расхождения пагинации/фильтров на сервере).
func (s *Store) MergeSummaries(summaries []dto.RequestSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sum := range summaries {
		existing, ok := s.records[sum.ID]
		if !ok || existing.Kind == KindSummary {
			s.records[sum.ID] = Record{Kind: KindSummary, Summary: sum}
			continue
		}

		// Full-запись: только патч общих полей, без замены
		patchShared(existing.Full, sum)
		s.records[sum.ID] = existing
	}
}

// patchShared накладывает на полный агрегат поля, присутствующие в summary
func patchShared(full *ds.QuoteRequest, sum dto.RequestSummary) {
	full.Status = sum.Status
	full.Priority = sum.Priority
	full.ClientName = sum.ClientName
	full.VehicleType = sum.VehicleType
	full.Country = sum.Country
	full.CreatedBy = sum.CreatedBy
	full.CreatedByName = sum.CreatedByName
	full.CreatedAt = sum.CreatedAt
	full.UpdatedAt = sum.UpdatedAt
}

// ApplyFull безусловно замещает запись полным агрегатом. Используется и для
// promotion (Summary -> Full), и для ответов мутирующих команд: после записи
// сервер авторитетен, побеждает последний ответ по данному id.
func (s *Store) ApplyFull(full *ds.QuoteRequest) {
	if full == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[full.ID] = Record{Kind: KindFull, Full: full}
}

// Get возвращает запись кэша по id
func (s *Store) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	return rec, ok
}

// Delete убирает запись из кэша (после удаления заявки на сервере)
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
}

// Len возвращает число записей в кэше
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Summaries отдаёт summary-проекцию всего кэша для списковых представлений.
// Full-записи проецируются на общие поля. Порядок — по updatedAt, новые выше.
func (s *Store) Summaries() []dto.RequestSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]dto.RequestSummary, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.summaryView())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

func (r Record) summaryView() dto.RequestSummary {
	if r.Kind == KindFull && r.Full != nil {
		return dto.RequestSummary{
			ID:            r.Full.ID,
			Status:        r.Full.Status,
			Priority:      r.Full.Priority,
			ClientName:    r.Full.ClientName,
			VehicleType:   r.Full.VehicleType,
			Country:       r.Full.Country,
			CreatedBy:     r.Full.CreatedBy,
			CreatedByName: r.Full.CreatedByName,
			CreatedAt:     r.Full.CreatedAt,
			UpdatedAt:     r.Full.UpdatedAt,
		}
	}
	return r.Summary
}
