package supervisor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Runnable is anything supervisor can drive: a blocking event loop that
// returns once ctx is cancelled. WebSocketWorker, EventsWriterWorker, and
// DBWorker all satisfy this.
type Runnable interface {
	Run(ctx context.Context)
}

// Supervise runs factory()'s worker until ctx is cancelled, restarting it
// fresh (a brand new instance, built by calling factory again) whenever its
// Run returns for any reason other than ctx being cancelled - a panic, a
// failed connection attempt, or a dropped transport all trigger a restart.
// onStart, if non-nil, is called with each fresh instance before Run is
// invoked, so callers can rewire anything that held a reference to the
// previous instance (e.g. a sibling's copy of its inbox channel).
//
// Supervise blocks until ctx is cancelled and the current instance's Run
// has returned; call it in its own goroutine.
func Supervise(ctx context.Context, logger zerolog.Logger, name string, factory func() Runnable, onStart func(Runnable)) {
	for {
		if ctx.Err() != nil {
			return
		}

		worker := factory()
		if onStart != nil {
			onStart(worker)
		}

		if runOnce(ctx, logger, name, worker) {
			return
		}

		logger.Warn().Str("worker", name).Msg("worker exited, restarting")
	}
}

// runOnce runs worker.Run to completion, recovering a panic. Run returning
// at all - whether it panicked, lost its connection, or failed to connect -
// means the worker should be rebuilt and restarted; the only reason to stop
// supervising is ctx being cancelled. runOnce reports true when the caller
// should stop, false when it should restart.
func runOnce(ctx context.Context, logger zerolog.Logger, name string, worker Runnable) (stopped bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Str("worker", name).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("worker run loop recovered from panic")
			stopped = ctx.Err() != nil
		}
	}()

	worker.Run(ctx)
	return ctx.Err() != nil
}
