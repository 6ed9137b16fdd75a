package events

import (
	"context"

	"github.com/rs/zerolog"
)

// MailboxSize is the bounded capacity of every inter-worker queue, a
// build-time constant.
const MailboxSize = 256

// NewMailbox allocates one worker's inbound queue.
func NewMailbox() chan Message {
	return make(chan Message, MailboxSize)
}

// Send enqueues msg, applying backpressure if the mailbox is full. If ctx
// is cancelled first, the send is abandoned and logged.
func Send(ctx context.Context, mailbox chan<- Message, msg Message, logger zerolog.Logger) {
	select {
	case mailbox <- msg:
	case <-ctx.Done():
		logger.Error().
			Str("event", msg.EventID.String()).
			Str("workdir", msg.WorkdirIdx.String()).
			Msg("failed to send internal message: shutting down")
	}
}

// CollapseDuplicates drains every message currently sitting in mailbox and
// re-enqueues it with consecutive AUDIT/AUDIT or UPDATE/UPDATE duplicates
// (for the same workdir) collapsed to one. AUDIT/UPDATE reconciliation is
// idempotent, so redundant copies only waste CPU; EXEC and non-consecutive
// messages are left untouched. Must be called before any concurrent
// producer can race the drain (event-loop entry, single-consumer mailbox).
func CollapseDuplicates(mailbox chan Message) {
	pending := make([]Message, 0, len(mailbox))
drain:
	for {
		select {
		case msg := <-mailbox:
			pending = append(pending, msg)
		default:
			break drain
		}
	}
	if len(pending) == 0 {
		return
	}

	collapsed := make([]Message, 0, len(pending))
	for _, msg := range pending {
		if isReconcileTrigger(msg.EventID) && len(collapsed) > 0 {
			last := collapsed[len(collapsed)-1]
			if last.EventID == msg.EventID && last.WorkdirIdx == msg.WorkdirIdx {
				continue
			}
		}
		collapsed = append(collapsed, msg)
	}

	for _, msg := range collapsed {
		mailbox <- msg // capacity is sufficient: we drained at least len(collapsed) messages
	}
}

func isReconcileTrigger(id EventID) bool {
	return id == EventAudit || id == EventUpdate
}
