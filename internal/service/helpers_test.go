package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"streak-service/internal/domain/entity"
	"streak-service/internal/domain/repository"
	"streak-service/internal/domain/streak"
	"streak-service/internal/errors"
	"streak-service/internal/infrastructure/memory"
)

var testNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func day(offset int) time.Time {
	return entity.DayOf(testNow).AddDate(0, 0, offset)
}

// habitWithRun builds a habit completed on each of the last n days before today
func habitWithRun(id string, n int) *entity.Habit {
	h := &entity.Habit{
		ID:        id,
		UserID:    "u1",
		Title:     "Read",
		CreatedAt: testNow.AddDate(0, 0, -60),
	}
	for i := n; i >= 1; i-- {
		h.Record = append(h.Record, entity.DayCompletion{Day: day(-i), Completed: true, Streak: n - i + 1})
	}
	if n > 0 {
		last := day(-1)
		h.LastCompletedOn = &last
		h.Streak = n
	}
	return h
}

type recordingListener struct {
	mu    sync.Mutex
	calls []string
	done  chan struct{}
}

func newRecordingListener() *recordingListener {
	return &recordingListener{done: make(chan struct{}, 64)}
}

func (l *recordingListener) record(s string) {
	l.mu.Lock()
	l.calls = append(l.calls, s)
	l.mu.Unlock()
	l.done <- struct{}{}
}

func (l *recordingListener) Completed(habitID string, streak int) {
	l.record(fmt.Sprintf("completed(%d)", streak))
}

func (l *recordingListener) Uncompleted(habitID string, streak int) {
	l.record(fmt.Sprintf("uncompleted(%d)", streak))
}

func (l *recordingListener) StreakUpdated(habitID string, streak int) {
	l.record(fmt.Sprintf("streakUpdated(%d)", streak))
}

func (l *recordingListener) Error(habitID string, message string) {
	l.record(fmt.Sprintf("error(%s)", message))
}

func (l *recordingListener) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type recordingDispatcher struct {
	mu         sync.Mutex
	milestones []entity.NotificationIntent
	reminders  []entity.NotificationIntent
}

func (d *recordingDispatcher) NotifyMilestone(ctx context.Context, intent entity.NotificationIntent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.milestones = append(d.milestones, intent)
}

func (d *recordingDispatcher) NotifyReminder(ctx context.Context, intent entity.NotificationIntent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reminders = append(d.reminders, intent)
}

func (d *recordingDispatcher) Milestones() []entity.NotificationIntent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]entity.NotificationIntent(nil), d.milestones...)
}

func (d *recordingDispatcher) Reminders() []entity.NotificationIntent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]entity.NotificationIntent(nil), d.reminders...)
}

// flakyRepository wraps a repository, counting calls and failing on demand
type flakyRepository struct {
	repository.HabitRepository
	loads    atomic.Int32
	saves    atomic.Int32
	failLoad atomic.Bool
	failSave atomic.Bool
	conflict atomic.Bool
}

func (r *flakyRepository) Load(ctx context.Context, userID, habitID string) (*entity.Habit, error) {
	r.loads.Add(1)
	if r.failLoad.Load() {
		return nil, fmt.Errorf("connection refused")
	}
	return r.HabitRepository.Load(ctx, userID, habitID)
}

func (r *flakyRepository) Save(ctx context.Context, habit *entity.Habit) error {
	r.saves.Add(1)
	if r.failSave.Load() {
		return fmt.Errorf("connection refused")
	}
	if r.conflict.Load() {
		return errors.NewConflict(habit.ID)
	}
	return r.HabitRepository.Save(ctx, habit)
}

// gatedRepository pauses the next armed Load after it has read the habit
type gatedRepository struct {
	repository.HabitRepository
	armed   atomic.Bool
	loaded  chan struct{}
	release chan struct{}
}

func newGatedRepository(repo repository.HabitRepository) *gatedRepository {
	return &gatedRepository{
		HabitRepository: repo,
		loaded:          make(chan struct{}),
		release:         make(chan struct{}),
	}
}

func (r *gatedRepository) Load(ctx context.Context, userID, habitID string) (*entity.Habit, error) {
	habit, err := r.HabitRepository.Load(ctx, userID, habitID)
	if r.armed.CompareAndSwap(true, false) {
		close(r.loaded)
		<-r.release
	}
	return habit, err
}

type recordingChannel struct {
	mu   sync.Mutex
	got  []*entity.Notification
	fail bool
}

func (c *recordingChannel) Name() string { return "recording" }

func (c *recordingChannel) Deliver(ctx context.Context, n *entity.Notification) error {
	if c.fail {
		return fmt.Errorf("display unavailable")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, n)
	return nil
}

func (c *recordingChannel) Delivered() []*entity.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*entity.Notification(nil), c.got...)
}

type fixture struct {
	repo        *flakyRepository
	store       *HabitStore
	dispatcher  *recordingDispatcher
	coordinator *completionService
}

func newFixture(habits ...*entity.Habit) *fixture {
	repo := &flakyRepository{HabitRepository: memory.NewHabitRepository()}
	for _, h := range habits {
		if err := repo.Create(context.Background(), h); err != nil {
			panic(err)
		}
	}

	engine := streak.New(streak.DefaultConfig())
	store := NewHabitStore(repo, engine, fixedClock)
	dispatcher := &recordingDispatcher{}

	return &fixture{
		repo:        repo,
		store:       store,
		dispatcher:  dispatcher,
		coordinator: NewCompletionService(store, engine, dispatcher, fixedClock).(*completionService),
	}
}
