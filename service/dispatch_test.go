package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"audio-diary/constant"
	"audio-diary/repository"
)

type panicRunner struct{}

func (panicRunner) Run(ctx context.Context, rid string, mode constant.RunMode) {
	panic("transcription model segfaulted")
}

type blockingRunner struct {
	release chan struct{}
}

func (r *blockingRunner) Run(ctx context.Context, rid string, mode constant.RunMode) {
	<-r.release
}

func waitForState(t *testing.T, status repository.StatusTracker, rid string, want constant.PipelineState) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			got := status.Read(context.Background(), rid)
			t.Fatalf("timed out waiting for state %s, got %s", want, got.State)
		default:
		}
		if status.Read(context.Background(), rid).State == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDispatchRecoversFromPanic(t *testing.T) {
	status, err := repository.NewStatusTracker(t.TempDir())
	if err != nil {
		t.Fatalf("new status tracker: %v", err)
	}

	d := NewDispatcher(panicRunner{}, status)
	d.Dispatch(context.Background(), "rid1", constant.ModeAll)

	waitForState(t, status, "rid1", constant.StateError)
	doc := status.Read(context.Background(), "rid1")
	if !strings.Contains(doc.Error, "pipeline panic") {
		t.Fatalf("error = %q, want panic detail", doc.Error)
	}
}

func TestRequeueResetsStatusBeforeRunStarts(t *testing.T) {
	status, err := repository.NewStatusTracker(t.TempDir())
	if err != nil {
		t.Fatalf("new status tracker: %v", err)
	}
	ctx := context.Background()

	// Record finished a previous run.
	status.Write(ctx, "rid1", constant.StateDone, constant.ModeAll, "", "", 100)

	runner := &blockingRunner{release: make(chan struct{})}
	d := NewDispatcher(runner, status)
	d.Requeue(ctx, "rid1", constant.ModeSummarize)

	// The new run has not started; a poller must already see queued.
	doc := status.Read(ctx, "rid1")
	if doc.State != constant.StateQueued {
		t.Fatalf("state = %s, want queued", doc.State)
	}
	if doc.Mode != constant.ModeSummarize {
		t.Fatalf("mode = %s, want summarize", doc.Mode)
	}
	close(runner.release)
}

func TestDispatchDoesNotBlockCaller(t *testing.T) {
	status, err := repository.NewStatusTracker(t.TempDir())
	if err != nil {
		t.Fatalf("new status tracker: %v", err)
	}

	runner := &blockingRunner{release: make(chan struct{})}
	d := NewDispatcher(runner, status)

	done := make(chan struct{})
	go func() {
		d.Dispatch(context.Background(), "rid1", constant.ModeAll)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked the caller")
	}
	close(runner.release)
}
