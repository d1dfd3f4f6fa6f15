package background

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/usecase/reconcile"
)

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(time.UTC, nil)
	err := s.Add(Task{Name: "bad", Schedule: "every minute", Run: func(context.Context) error { return nil }})
	if err == nil {
		t.Fatal("expected invalid schedule error")
	}
	ok := Task{Name: "ok", Schedule: "*/5 * * * *", Run: func(context.Context) error { return nil }}
	if err := s.Add(ok); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(ok); err == nil {
		t.Fatal("expected duplicate task error")
	}
}

func TestRunNowRecordsStatus(t *testing.T) {
	s := NewScheduler(time.UTC, nil)
	calls := 0
	fail := errors.New("provider down")
	if err := s.Add(Task{Name: "poll", Schedule: "*/5 * * * *", Run: func(context.Context) error {
		calls++
		if calls == 2 {
			return fail
		}
		return nil
	}}); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := s.RunNow(context.Background(), "poll"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := s.RunNow(context.Background(), "poll"); !errors.Is(err, fail) {
		t.Fatalf("expected task error, got %v", err)
	}
	if err := s.RunNow(context.Background(), "missing"); !errors.Is(err, ErrUnknownTask) {
		t.Fatalf("expected ErrUnknownTask, got %v", err)
	}

	status := s.Status()
	if len(status) != 1 {
		t.Fatalf("expected one task, got %+v", status)
	}
	st := status[0]
	if st.Runs != 2 || st.LastRun == nil || st.LastError != "provider down" || st.Running {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestTriggerDoesNotOverlapAndStopWaits(t *testing.T) {
	s := NewScheduler(time.UTC, nil)
	release := make(chan struct{})
	started := make(chan struct{})
	var finished atomic.Bool
	if err := s.Add(Task{Name: "cleanup", Schedule: "0 3 * * *", Run: func(context.Context) error {
		close(started)
		<-release
		finished.Store(true)
		return nil
	}}); err != nil {
		t.Fatalf("add: %v", err)
	}
	s.Start()

	if err := s.Trigger("cleanup"); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	<-started
	if err := s.Trigger("cleanup"); !errors.Is(err, ErrTaskRunning) {
		t.Fatalf("expected ErrTaskRunning, got %v", err)
	}
	if err := s.RunNow(context.Background(), "cleanup"); !errors.Is(err, ErrTaskRunning) {
		t.Fatalf("expected ErrTaskRunning, got %v", err)
	}
	if st := s.Status()[0]; !st.Running || st.NextRun == nil {
		t.Fatalf("expected running task with next run, got %+v", st)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !finished.Load() {
		t.Fatal("stop returned before the running task finished")
	}
}

func TestStopHonoursDeadline(t *testing.T) {
	s := NewScheduler(time.UTC, nil)
	block := make(chan struct{})
	defer close(block)
	if err := s.Add(Task{Name: "slow", Schedule: "* * * * *", Run: func(context.Context) error {
		<-block
		return nil
	}}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Trigger("slow"); err != nil {
		t.Fatalf("trigger: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestStopCancelsRunningTask(t *testing.T) {
	s := NewScheduler(time.UTC, nil)
	started := make(chan struct{})
	var exited atomic.Bool
	if err := s.Add(Task{Name: "pending-poll", Schedule: "*/5 * * * *", Run: func(ctx context.Context) error {
		close(started)
		defer exited.Store(true)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(500 * time.Millisecond):
			}
		}
	}}); err != nil {
		t.Fatalf("add: %v", err)
	}
	s.Start()
	if err := s.Trigger("pending-poll"); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	begin := time.Now()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !exited.Load() {
		t.Fatal("task still running after stop returned")
	}
	if took := time.Since(begin); took > 500*time.Millisecond {
		t.Fatalf("stop waited %s for a cancellable task", took)
	}
	if err := s.Trigger("pending-poll"); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped after stop, got %v", err)
	}
}

func TestBackgroundTasksRegisterDefaults(t *testing.T) {
	s := NewScheduler(time.UTC, nil)
	bt := NewBackgroundTasks(nil, nil, nil)
	if err := bt.Register(s); err != nil {
		t.Fatalf("register: %v", err)
	}
	want := map[string]string{
		TaskPendingPoll:     "*/5 * * * *",
		TaskCallbackRetry:   "* * * * *",
		TaskBankOrderExpiry: "*/5 * * * *",
		TaskCleanup:         "0 3 * * *",
		TaskDBMaintenance:   "0 4 * * 0",
		TaskDailyStats:      "5 0 * * *",
	}
	status := s.Status()
	if len(status) != len(want) {
		t.Fatalf("expected %d tasks, got %d", len(want), len(status))
	}
	for _, st := range status {
		if want[st.Name] != st.Schedule {
			t.Errorf("task %s schedule %q, want %q", st.Name, st.Schedule, want[st.Name])
		}
	}
}

type countingReconciler struct {
	reconcile.ReconcileUsecase
	polls int
}

func (c *countingReconciler) PollPending(context.Context) (*reconcile.PollReport, error) {
	c.polls++
	return &reconcile.PollReport{Checked: 3, Settled: 1, StillPending: 2}, nil
}

func TestPendingPollTaskLeavesSummaryToReconciler(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer slog.SetDefault(prev)

	rec := &countingReconciler{}
	s := NewScheduler(time.UTC, nil)
	if err := NewBackgroundTasks(rec, nil, nil).Register(s); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := s.RunNow(context.Background(), TaskPendingPoll); err != nil {
		t.Fatalf("run: %v", err)
	}
	if rec.polls != 1 {
		t.Fatalf("expected one poll, got %d", rec.polls)
	}
	if strings.Contains(buf.String(), "poll finished") {
		t.Fatalf("task logged its own sweep summary:\n%s", buf.String())
	}
}
