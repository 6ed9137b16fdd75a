package dbworker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ubinix-warun/suibase/pkg/events"
	"github.com/ubinix-warun/suibase/pkg/log"
	"github.com/ubinix-warun/suibase/pkg/metrics"
	"github.com/ubinix-warun/suibase/pkg/types"
)

// Worker is DBWorker: the terminal sink for one workdir's event stream.
type Worker struct {
	WorkdirIdx  types.WorkdirIdx
	WorkdirName string

	inbox  chan events.Message
	store  *Store
	logger zerolog.Logger
}

// NewWorker creates a DBWorker writing into store.
func NewWorker(workdirIdx types.WorkdirIdx, workdirName string, store *Store) *Worker {
	return &Worker{
		WorkdirIdx:  workdirIdx,
		WorkdirName: workdirName,
		inbox:       events.NewMailbox(),
		store:       store,
		logger:      log.WithComponent("dbworker").With().Str("workdir", workdirName).Logger(),
	}
}

// Inbox returns the worker's inbound mailbox.
func (w *Worker) Inbox() chan<- events.Message {
	return w.inbox
}

// Run drives the event loop until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-w.inbox:
			metrics.MailboxDepth.WithLabelValues("dbworker", w.WorkdirName).Set(float64(len(w.inbox)))
			w.dispatch(msg)
		}
	}
}

func (w *Worker) dispatch(msg events.Message) {
	switch msg.EventID {
	case events.EventAudit, events.EventUpdate:
		w.logger.Debug().Str("event", msg.EventID.String()).Msg("no reconcilable state: ignoring")
	case events.EventExec:
		w.handleExec(msg)
	default:
		w.logger.Error().Str("event", msg.EventID.String()).Msg("unknown event id: dropping")
	}
}

func (w *Worker) handleExec(msg events.Message) {
	if msg.Command != events.CommandAddSuiEvent {
		w.logger.Error().Str("command", msg.Command).Msg("unknown command: dropping")
		return
	}
	if len(msg.Params) != 2 {
		w.logger.Error().Strs("params", msg.Params).Msg("malformed add_sui_event params: dropping")
		return
	}

	row := types.EventRow{
		WorkdirIdx:  msg.WorkdirIdx,
		PackageUUID: msg.Params[0],
		PackageName: msg.Params[1],
		ReceivedAt:  time.Now(),
		Payload:     msg.DataJSON,
	}

	if err := w.store.PutEvent(row); err != nil {
		w.logger.Error().Err(err).Str("package_uuid", row.PackageUUID).Msg("failed to persist event")
	}
}
