package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streak-service/internal/domain/entity"
)

var day0 = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func dayN(n int) time.Time {
	return day0.AddDate(0, 0, n)
}

func complete() entity.CompletionEvent {
	return entity.CompletionEvent{HabitID: "read", Action: entity.ActionComplete, Source: entity.SourceDirect}
}

func uncomplete() entity.CompletionEvent {
	return entity.CompletionEvent{HabitID: "read", Action: entity.ActionUncomplete, Source: entity.SourceDirect}
}

// habitWithRun builds a habit completed on each of the given days in order.
func habitWithRun(t *testing.T, e *Engine, days ...int) *entity.Habit {
	t.Helper()
	h := &entity.Habit{ID: "read", UserID: "u1", Title: "Read"}
	for _, d := range days {
		tr := e.Next(h, complete(), dayN(d))
		require.True(t, tr.Changed)
		h = tr.Habit
	}
	return h
}

func TestNext_CompleteConsecutiveDays(t *testing.T) {
	e := New(DefaultConfig())
	h := &entity.Habit{ID: "read", Title: "Read"}

	for i := 0; i < 5; i++ {
		tr := e.Next(h, complete(), dayN(i))
		require.True(t, tr.Changed)
		assert.Equal(t, i+1, tr.Habit.Streak)
		assert.Equal(t, 1, tr.StreakDelta)
		h = tr.Habit
	}
	require.NotNil(t, h.LastCompletedOn)
	assert.True(t, h.LastCompletedOn.Equal(dayN(4)))
}

func TestNext_CompleteIsIdempotent(t *testing.T) {
	e := New(DefaultConfig())
	h := habitWithRun(t, e, 0, 1, 2)

	tr := e.Next(h, complete(), dayN(2))
	assert.False(t, tr.Changed)
	assert.False(t, tr.MilestoneCrossed)
	assert.Equal(t, 3, tr.Habit.Streak)
	assert.Equal(t, 0, tr.StreakDelta)
}

func TestNext_UncompleteNotCompletedTodayIsNoop(t *testing.T) {
	e := New(DefaultConfig())
	h := habitWithRun(t, e, 0, 1)

	tr := e.Next(h, uncomplete(), dayN(2))
	assert.False(t, tr.Changed)
	assert.Equal(t, 2, tr.Habit.Streak)
}

func TestNext_GapResetsToOne(t *testing.T) {
	e := New(DefaultConfig())
	h := habitWithRun(t, e, 0, 1, 2)

	// day 3 missed, gap of 2 days
	tr := e.Next(h, complete(), dayN(4))
	assert.Equal(t, 1, tr.Habit.Streak)
	assert.Equal(t, -2, tr.StreakDelta)
}

func TestNext_GraceDayWithWiderGap(t *testing.T) {
	e := New(Config{MilestoneInterval: 7, GapResetDays: 3, WindowDays: 30})
	h := habitWithRun(t, e, 0, 1, 2)

	tr := e.Next(h, complete(), dayN(4))
	assert.Equal(t, 4, tr.Habit.Streak)
}

func TestNext_RoundTripRestoresPriorStreak(t *testing.T) {
	e := New(DefaultConfig())

	tests := []struct {
		name string
		days []int
		on   int
	}{
		{"continuing run", []int{0, 1, 2, 3, 4, 5}, 6},
		{"after gap", []int{0, 1, 2}, 6},
		{"first ever", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := habitWithRun(t, e, tt.days...)
			before := h.Streak

			done := e.Next(h, complete(), dayN(tt.on))
			require.True(t, done.Changed)

			undone := e.Next(done.Habit, uncomplete(), dayN(tt.on))
			require.True(t, undone.Changed)
			assert.Equal(t, before, undone.Habit.Streak)
			assert.False(t, undone.MilestoneCrossed)
			assert.False(t, undone.Habit.CompletedOn(dayN(tt.on)))
		})
	}
}

func TestNext_UncompleteDecrementsContinuingStreak(t *testing.T) {
	e := New(DefaultConfig())
	h := habitWithRun(t, e, 0, 1, 2, 3, 4, 5, 6)
	require.Equal(t, 7, h.Streak)

	tr := e.Next(h, uncomplete(), dayN(6))
	assert.Equal(t, 6, tr.Habit.Streak)
	assert.Equal(t, -1, tr.StreakDelta)
	assert.False(t, tr.MilestoneCrossed)
	require.NotNil(t, tr.Habit.LastCompletedOn)
	assert.True(t, tr.Habit.LastCompletedOn.Equal(dayN(5)))
}

func TestNext_UncompleteFloorsAtZero(t *testing.T) {
	e := New(DefaultConfig())
	today := dayN(0)
	h := &entity.Habit{
		ID:              "read",
		Streak:          0,
		LastCompletedOn: &today,
		Record:          []entity.DayCompletion{{Day: today, Completed: true, Streak: 0}},
	}

	tr := e.Next(h, uncomplete(), today)
	assert.Equal(t, 0, tr.Habit.Streak)
	assert.Nil(t, tr.Habit.LastCompletedOn)
}

func TestNext_MilestoneFiresOnlyAtCrossing(t *testing.T) {
	e := New(DefaultConfig())
	h := &entity.Habit{ID: "read", Title: "Read"}

	var fired []int
	for i := 0; i < 14; i++ {
		tr := e.Next(h, complete(), dayN(i))
		if tr.MilestoneCrossed {
			fired = append(fired, tr.Habit.Streak)
		}
		h = tr.Habit
	}
	assert.Equal(t, []int{7, 14}, fired)
}

func TestNext_MilestoneEdgeAfterToggleBack(t *testing.T) {
	e := New(DefaultConfig())
	h := habitWithRun(t, e, 0, 1, 2, 3, 4, 5)

	first := e.Next(h, complete(), dayN(6))
	require.True(t, first.MilestoneCrossed)

	down := e.Next(first.Habit, uncomplete(), dayN(6))
	assert.Equal(t, 6, down.Habit.Streak)
	assert.False(t, down.MilestoneCrossed)

	// the engine is edge-triggered; suppressing the repeat is the dispatcher's job
	up := e.Next(down.Habit, complete(), dayN(6))
	assert.Equal(t, 7, up.Habit.Streak)
	assert.True(t, up.MilestoneCrossed)
}

func TestNext_ReadScenario(t *testing.T) {
	e := New(DefaultConfig())
	yesterday := dayN(9)
	h := &entity.Habit{
		ID:              "read",
		Title:           "Read",
		Streak:          6,
		LastCompletedOn: &yesterday,
		Record:          []entity.DayCompletion{{Day: yesterday, Completed: true, Streak: 6}},
	}

	tr := e.Next(h, complete(), dayN(10))
	assert.Equal(t, 7, tr.Habit.Streak)
	assert.True(t, tr.MilestoneCrossed)

	back := e.Next(tr.Habit, uncomplete(), dayN(10))
	assert.Equal(t, 6, back.Habit.Streak)
	assert.False(t, back.MilestoneCrossed)
}

func TestNext_DoesNotMutateInput(t *testing.T) {
	e := New(DefaultConfig())
	h := habitWithRun(t, e, 0, 1)
	snapshot := h.Clone()

	_ = e.Next(h, complete(), dayN(2))
	assert.Equal(t, snapshot, h)
}

func TestNext_TrimsRecordToWindow(t *testing.T) {
	e := New(Config{MilestoneInterval: 7, GapResetDays: 2, WindowDays: 5})
	h := habitWithRun(t, e, 0, 1, 2, 3, 4, 5, 6, 7)

	assert.Len(t, h.Record, 5)
	assert.True(t, h.Record[0].Day.Equal(dayN(3)))
	assert.Equal(t, 8, h.Streak)
}

func TestNext_Deterministic(t *testing.T) {
	e := New(DefaultConfig())
	h := habitWithRun(t, e, 0, 1, 2)

	a := e.Next(h, complete(), dayN(3))
	b := e.Next(h, complete(), dayN(3))
	assert.Equal(t, a, b)
}

func TestReconcile_RepairsDrift(t *testing.T) {
	e := New(DefaultConfig())
	h := habitWithRun(t, e, 0, 1, 2)

	drifted := h.Clone()
	drifted.Streak = 42

	fixed, changed := e.Reconcile(drifted, dayN(3))
	assert.True(t, changed)
	assert.Equal(t, 3, fixed.Streak)

	_, changed = e.Reconcile(h, dayN(3))
	assert.False(t, changed)
}

func TestReconcile_SeedsFromOldestStoredValue(t *testing.T) {
	e := New(DefaultConfig())
	h := &entity.Habit{
		ID:     "read",
		Streak: 0,
		Record: []entity.DayCompletion{
			{Day: dayN(0), Completed: true, Streak: 40},
			{Day: dayN(1), Completed: true, Streak: 0},
		},
	}

	fixed, changed := e.Reconcile(h, dayN(2))
	assert.True(t, changed)
	assert.Equal(t, 41, fixed.Streak)
	require.NotNil(t, fixed.LastCompletedOn)
	assert.True(t, fixed.LastCompletedOn.Equal(dayN(1)))
}

func TestReconcile_ClearsLastCompletedMissingFromRecord(t *testing.T) {
	e := New(DefaultConfig())
	last := dayN(1)
	h := &entity.Habit{ID: "read", Streak: 5, LastCompletedOn: &last}

	fixed, changed := e.Reconcile(h, dayN(2))
	assert.True(t, changed)
	assert.Equal(t, 0, fixed.Streak)
	assert.Nil(t, fixed.LastCompletedOn)
}

func TestStats(t *testing.T) {
	e := New(DefaultConfig())
	h := habitWithRun(t, e, 0, 1, 2, 3, 5, 6)
	h.CreatedAt = dayN(0)

	stats := e.Stats(h, dayN(9))
	assert.Equal(t, 2, stats.CurrentStreak)
	assert.Equal(t, 4, stats.LongestStreak)
	assert.Equal(t, 6, stats.CompletedDays)
	assert.InDelta(t, 0.6, stats.CompletionRate, 0.0001)
}

func TestNew_NormalizesConfig(t *testing.T) {
	e := New(Config{MilestoneInterval: 0, GapResetDays: 1, WindowDays: 1})
	cfg := e.Config()
	assert.Equal(t, DefaultMilestoneInterval, cfg.MilestoneInterval)
	assert.Equal(t, DefaultGapResetDays, cfg.GapResetDays)
	assert.Equal(t, DefaultGapResetDays, cfg.WindowDays)
}
