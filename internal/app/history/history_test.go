package history

import (
	"fmt"
	"testing"
	"time"

	"backend/internal/app/lifecycle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func entry(i int, status lifecycle.Status) Entry {
	return Entry{
		ID:        fmt.Sprintf("e%d", i),
		Status:    status,
		Timestamp: base.Add(time.Duration(i) * time.Minute),
		UserID:    "u1",
		UserName:  "Алексей",
	}
}

func TestAppendPreservesOrder(t *testing.T) {
	var l Ledger
	l = l.Append(entry(1, lifecycle.StatusDraft))
	l = l.Append(entry(2, lifecycle.StatusSubmitted))
	l = l.Append(entry(3, lifecycle.StatusUnderReview))

	require.Len(t, l, 3)
	assert.Equal(t, "e1", l[0].ID)
	assert.Equal(t, "e3", l[2].ID)

	last, ok := l.Last()
	require.True(t, ok)
	assert.Equal(t, lifecycle.StatusUnderReview, last.Status)
}

func TestAppendDoesNotMutateOriginal(t *testing.T) {
	l := Ledger{entry(1, lifecycle.StatusDraft)}
	l2 := l.Append(entry(2, lifecycle.StatusSubmitted))

	assert.Len(t, l, 1)
	assert.Len(t, l2, 2)
}

// Порядок вставки авторитетен: запись с более ранней временной меткой,
// добавленная позже, всё равно считается более свежей
func TestInsertionOrderBeatsTimestamps(t *testing.T) {
	var l Ledger
	older := entry(1, lifecycle.StatusSubmitted)
	older.Timestamp = base.Add(time.Hour)
	newer := entry(2, lifecycle.StatusUnderReview)
	newer.Timestamp = base // часы клиента отстали

	l = l.Append(older)
	l = l.Append(newer)

	last, ok := l.Last()
	require.True(t, ok)
	assert.Equal(t, lifecycle.StatusUnderReview, last.Status)
}

func TestLastEntryMatchingAfterRejectCycle(t *testing.T) {
	var l Ledger
	seq := []lifecycle.Status{
		lifecycle.StatusDraft,
		lifecycle.StatusSubmitted,
		lifecycle.StatusGMApprovalPending,
		lifecycle.StatusGMRejected,
		lifecycle.StatusSalesFollowup,
		lifecycle.StatusGMApprovalPending,
		lifecycle.StatusGMApproved,
	}
	for i, s := range seq {
		l = l.Append(entry(i+1, s))
	}

	// Самое свежее прохождение этапа утверждения — запись номер 6
	e, ok := l.LastEntryMatching(lifecycle.StatusGMApprovalPending)
	require.True(t, ok)
	assert.Equal(t, "e6", e.ID)

	// Поиск по набору статусов: исход утверждения
	e, ok = l.LastEntryMatching(lifecycle.StatusGMApproved, lifecycle.StatusGMRejected)
	require.True(t, ok)
	assert.Equal(t, lifecycle.StatusGMApproved, e.Status)

	_, ok = l.LastEntryMatching(lifecycle.StatusClosed)
	assert.False(t, ok)
}

func TestFilterLifecycleStripsEditedMarks(t *testing.T) {
	var l Ledger
	l = l.Append(entry(1, lifecycle.StatusDraft))
	l = l.Append(entry(2, lifecycle.StatusSubmitted))
	l = l.Append(entry(3, lifecycle.StatusEdited))
	l = l.Append(entry(4, lifecycle.StatusEdited))

	filtered := l.FilterLifecycle()
	require.Len(t, filtered, 2)
	assert.Equal(t, lifecycle.StatusSubmitted, filtered[1].Status)

	// Исходный журнал не изменился
	assert.Len(t, l, 4)
}

// Инвариант: статус заявки равен статусу последней записи настоящего
// перехода, отметки edited его не сдвигают
func TestCurrentStageSkipsEdited(t *testing.T) {
	var l Ledger
	l = l.Append(entry(1, lifecycle.StatusDraft))
	l = l.Append(entry(2, lifecycle.StatusSubmitted))
	l = l.Append(entry(3, lifecycle.StatusEdited))

	stage, ok := l.CurrentStage()
	require.True(t, ok)
	assert.Equal(t, lifecycle.StatusSubmitted, stage)

	var empty Ledger
	_, ok = empty.CurrentStage()
	assert.False(t, ok)

	onlyEdited := Ledger{entry(1, lifecycle.StatusEdited)}
	_, ok = onlyEdited.CurrentStage()
	assert.False(t, ok)
}
