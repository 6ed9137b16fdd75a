package eventswriter

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ubinix-warun/suibase/pkg/events"
	"github.com/ubinix-warun/suibase/pkg/log"
	"github.com/ubinix-warun/suibase/pkg/metrics"
	"github.com/ubinix-warun/suibase/pkg/types"
)

// Worker is EventsWriterWorker: the fan-out/dedup stage between a workdir's
// WebSocketWorker pool and its DBWorker.
type Worker struct {
	WorkdirIdx  types.WorkdirIdx
	WorkdirName string

	inbox      chan events.Message
	dbWorkerTx chan<- events.Message

	childrenMu sync.RWMutex
	children   []chan<- events.Message

	dedup  *fingerprintCache
	logger zerolog.Logger
}

// NewWorker creates an EventsWriterWorker for one workdir. children are the
// inboxes of every sibling WebSocketWorker in that workdir (today: always
// one); dbWorkerTx is DBWorker's inbox.
func NewWorker(workdirIdx types.WorkdirIdx, workdirName string, children []chan<- events.Message, dbWorkerTx chan<- events.Message) *Worker {
	return &Worker{
		WorkdirIdx:  workdirIdx,
		WorkdirName: workdirName,
		inbox:       events.NewMailbox(),
		children:    children,
		dbWorkerTx:  dbWorkerTx,
		dedup:       newFingerprintCache(fingerprintCacheCapacity),
		logger:      log.WithComponent("eventswriter").With().Str("workdir", workdirName).Logger(),
	}
}

// Inbox returns the worker's inbound mailbox.
func (w *Worker) Inbox() chan<- events.Message {
	return w.inbox
}

// ReplaceChildren swaps the set of sibling inboxes a broadcast fans out to.
// Callers use this to rewire the WebSocketWorker pool after pkg/supervisor
// restarts one with a fresh inbox channel.
func (w *Worker) ReplaceChildren(children []chan<- events.Message) {
	w.childrenMu.Lock()
	defer w.childrenMu.Unlock()
	w.children = children
}

func (w *Worker) childSnapshot() []chan<- events.Message {
	w.childrenMu.RLock()
	defer w.childrenMu.RUnlock()
	return w.children
}

// Run drives the event loop until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	events.CollapseDuplicates(w.inbox)

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-w.inbox:
			metrics.MailboxDepth.WithLabelValues("eventswriter", w.WorkdirName).Set(float64(len(w.inbox)))
			w.dispatch(ctx, msg)
		}
	}
}

func (w *Worker) dispatch(ctx context.Context, msg events.Message) {
	switch msg.EventID {
	case events.EventAudit, events.EventUpdate:
		w.broadcast(ctx, msg)
	case events.EventExec:
		w.handleExec(ctx, msg)
	default:
		w.logger.Error().Str("event", msg.EventID.String()).Msg("unknown event id: dropping")
	}
}

// broadcast forwards an AUDIT/UPDATE verbatim to every child and to
// DBWorker. Forwarded() clears any response-routing metadata so a fanned-out
// copy never carries routing state meant for a single reply.
func (w *Worker) broadcast(ctx context.Context, msg events.Message) {
	forwarded := msg.Forwarded()
	for _, child := range w.childSnapshot() {
		events.Send(ctx, child, forwarded, w.logger)
	}
	events.Send(ctx, w.dbWorkerTx, forwarded, w.logger)
}

func (w *Worker) handleExec(ctx context.Context, msg events.Message) {
	if msg.Command != events.CommandAddSuiEvent {
		w.logger.Error().Str("command", msg.Command).Msg("unknown command: dropping")
		return
	}
	if len(msg.Params) != 2 {
		w.logger.Error().Strs("params", msg.Params).Msg("malformed add_sui_event params: dropping")
		return
	}

	packageUUID := msg.Params[0]
	fp := fingerprint(packageUUID, msg.DataJSON)
	if w.dedup.seen(fp) {
		metrics.EventsDedupedTotal.WithLabelValues(w.WorkdirName).Inc()
		w.logger.Debug().Str("fingerprint", fp).Msg("duplicate add_sui_event suppressed")
		return
	}

	events.Send(ctx, w.dbWorkerTx, msg.Forwarded(), w.logger)
}
