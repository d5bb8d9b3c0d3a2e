// Пакет history — журнал изменений заявки (append-only).
// Записи никогда не редактируются и не удаляются; порядок вставки
// авторитетен (временные метки не используются для сортировки —
// сознательный допуск на рассинхронизацию клиентских часов).
package history

import (
	"time"

	"backend/internal/app/lifecycle"
)

// Entry — неизменяемая запись журнала
type Entry struct {
	ID        string           `json:"id"`
	Status    lifecycle.Status `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	UserID    string           `json:"userId"`
	UserName  string           `json:"userName"`
	Comment   string           `json:"comment,omitempty"`
}

// Ledger — упорядоченный журнал записей
type Ledger []Entry

// Append возвращает новый журнал с добавленной записью
func (l Ledger) Append(e Entry) Ledger {
	out := make(Ledger, 0, len(l)+1)
	out = append(out, l...)
	return append(out, e)
}

// Last возвращает последнюю запись журнала
func (l Ledger) Last() (Entry, bool) {
	if len(l) == 0 {
		return Entry{}, false
	}
	return l[len(l)-1], true
}

// LastEntryMatching возвращает самую свежую запись с одним из указанных
// статусов. Нужна для восстановления «что произошло на этапе X», когда
// этапы посещались повторно (например, цикл gm_rejected → sales_followup).
func (l Ledger) LastEntryMatching(statuses ...lifecycle.Status) (Entry, bool) {
	set := make(map[lifecycle.Status]struct{}, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	for i := len(l) - 1; i >= 0; i-- {
		if _, ok := set[l[i].Status]; ok {
			return l[i], true
		}
	}
	return Entry{}, false
}

// FilterLifecycle убирает отметки edited. Только для отображения:
// инвариант «status заявки == статус последней записи перехода»
// проверяется по CurrentStage, а не по этому срезу.
func (l Ledger) FilterLifecycle() Ledger {
	out := make(Ledger, 0, len(l))
	for _, e := range l {
		if e.Status.IsLifecycle() {
			out = append(out, e)
		}
	}
	return out
}

// CurrentStage возвращает статус последней записи настоящего перехода,
// пропуская отметки edited
func (l Ledger) CurrentStage() (lifecycle.Status, bool) {
	for i := len(l) - 1; i >= 0; i-- {
		if l[i].Status.IsLifecycle() {
			return l[i].Status, true
		}
	}
	return "", false
}
