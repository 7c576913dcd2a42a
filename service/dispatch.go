package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"audio-diary/constant"
	"audio-diary/repository"
)

// Dispatcher schedules pipeline runs to execute after the triggering
// request has been answered. There is no per-rid mutual exclusion: two
// rapid reruns for the same rid race and the last status write wins.
type Dispatcher struct {
	runner Runner
	status repository.StatusTracker
}

func NewDispatcher(runner Runner, status repository.StatusTracker) *Dispatcher {
	return &Dispatcher{runner: runner, status: status}
}

// Dispatch starts one pipeline run for (rid, mode) without making the
// caller wait. A panicking run still leaves a terminal error status behind.
func (d *Dispatcher) Dispatch(ctx context.Context, rid string, mode constant.RunMode) {
	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				zerolog.Ctx(runCtx).Error().
					Str("rid", rid).
					Interface("panic", rec).
					Msg("pipeline run panicked")
				d.status.Write(runCtx, rid, constant.StateError, mode,
					"pipeline crashed", fmt.Sprintf("pipeline panic: %v", rec), 0)
			}
		}()
		d.runner.Run(runCtx, rid, mode)
	}()
}

// Requeue overwrites the status to queued before scheduling, so a poller
// never observes a stale terminal document while a new run is pending.
func (d *Dispatcher) Requeue(ctx context.Context, rid string, mode constant.RunMode) {
	d.status.Write(ctx, rid, constant.StateQueued, mode, "", "", 0)
	d.Dispatch(ctx, rid, mode)
}
