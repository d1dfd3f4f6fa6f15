package background

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/metrics"
	"github.com/robfig/cron/v3"
)

var (
	ErrUnknownTask = errors.New("unknown task")
	ErrTaskRunning = errors.New("task is already running")
	ErrStopped     = errors.New("scheduler is stopped")
)

// Task is a named job fired on a standard five-field cron schedule.
type Task struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

type TaskStatus struct {
	Name         string     `json:"name"`
	Schedule     string     `json:"schedule"`
	Running      bool       `json:"running"`
	Runs         int64      `json:"runs"`
	LastRun      *time.Time `json:"lastRun,omitempty"`
	LastDuration string     `json:"lastDuration,omitempty"`
	LastError    string     `json:"lastError,omitempty"`
	NextRun      *time.Time `json:"nextRun,omitempty"`
}

type taskState struct {
	task    Task
	entry   cron.EntryID
	lock    sync.Mutex
	mu      sync.Mutex
	running bool
	runs    int64
	lastRun time.Time
	lastDur time.Duration
	lastErr string
}

// Scheduler runs tasks in a fixed time zone. A task never overlaps with itself:
// a tick that finds the previous run still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	metrics *metrics.GatewayMetrics
	tasks   map[string]*taskState
	order   []string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(loc *time.Location, gatewayMetrics *metrics.GatewayMetrics) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	logger := cronLogger{log: slog.Default().With("component", "scheduler")}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger)),
		),
		metrics: gatewayMetrics,
		tasks:   make(map[string]*taskState),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (s *Scheduler) Add(task Task) error {
	if _, ok := s.tasks[task.Name]; ok {
		return fmt.Errorf("task %q registered twice", task.Name)
	}
	st := &taskState{task: task}
	id, err := s.cron.AddFunc(task.Schedule, func() {
		if !s.execute(s.ctx, st) {
			slog.Warn("previous run still in progress, tick skipped", "task", task.Name)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for task %s: %w", task.Schedule, task.Name, err)
	}
	st.entry = id
	s.tasks[task.Name] = st
	s.order = append(s.order, task.Name)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started", "tasks", len(s.tasks), "timezone", s.cron.Location().String())
}

// Stop halts new ticks, cancels the context handed to running tasks and waits
// for them to return until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	s.cancel()
	done := make(chan struct{})
	go func() {
		<-stopped.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// Trigger starts a task outside its schedule and returns without waiting for it.
func (s *Scheduler) Trigger(name string) error {
	st, ok := s.tasks[name]
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrUnknownTask)
	}
	if s.ctx.Err() != nil {
		return fmt.Errorf("%s: %w", name, ErrStopped)
	}
	if !st.lock.TryLock() {
		return fmt.Errorf("%s: %w", name, ErrTaskRunning)
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer st.lock.Unlock()
		s.run(s.ctx, st)
	}()
	return nil
}

// RunNow runs a task synchronously under the same run-lock as its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	st, ok := s.tasks[name]
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrUnknownTask)
	}
	if !st.lock.TryLock() {
		return fmt.Errorf("%s: %w", name, ErrTaskRunning)
	}
	defer st.lock.Unlock()
	s.wg.Add(1)
	defer s.wg.Done()
	return s.run(ctx, st)
}

func (s *Scheduler) Status() []TaskStatus {
	out := make([]TaskStatus, 0, len(s.order))
	for _, name := range s.order {
		st := s.tasks[name]
		st.mu.Lock()
		ts := TaskStatus{
			Name:      name,
			Schedule:  st.task.Schedule,
			Running:   st.running,
			Runs:      st.runs,
			LastError: st.lastErr,
		}
		if !st.lastRun.IsZero() {
			last := st.lastRun
			ts.LastRun = &last
			ts.LastDuration = st.lastDur.String()
		}
		st.mu.Unlock()
		if next := s.cron.Entry(st.entry).Next; !next.IsZero() {
			ts.NextRun = &next
		}
		out = append(out, ts)
	}
	return out
}

func (s *Scheduler) execute(ctx context.Context, st *taskState) bool {
	if !st.lock.TryLock() {
		return false
	}
	defer st.lock.Unlock()
	s.wg.Add(1)
	defer s.wg.Done()
	s.run(ctx, st)
	return true
}

func (s *Scheduler) run(ctx context.Context, st *taskState) error {
	st.mu.Lock()
	st.running = true
	st.mu.Unlock()

	start := time.Now()
	err := st.task.Run(ctx)
	dur := time.Since(start)

	st.mu.Lock()
	st.running = false
	st.runs++
	st.lastRun = start
	st.lastDur = dur
	st.lastErr = ""
	if err != nil {
		st.lastErr = err.Error()
	}
	st.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ObserveTask(st.task.Name, dur, err)
	}
	if err != nil {
		slog.Error("scheduled task failed", "task", st.task.Name, "duration", dur, "error", err)
	} else {
		slog.Debug("scheduled task finished", "task", st.task.Name, "duration", dur)
	}
	return err
}

type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
