package events

import (
	"encoding/json"

	"github.com/ubinix-warun/suibase/pkg/types"
)

// EventID identifies the kind of control-plane message flowing between
// workers: AUDIT, UPDATE, or EXEC.
type EventID int

const (
	// EventAudit drives read-only reconciliation against the desired set.
	EventAudit EventID = iota
	// EventUpdate drives reconciliation that starts tracking packages newly
	// found in the desired set. The desired set itself is not modified.
	EventUpdate
	// EventExec carries a named command (today: "add_sui_event").
	EventExec
)

func (e EventID) String() string {
	switch e {
	case EventAudit:
		return "AUDIT"
	case EventUpdate:
		return "UPDATE"
	case EventExec:
		return "EXEC"
	default:
		return "UNKNOWN"
	}
}

// CommandAddSuiEvent is the only EXEC command defined today: a validated
// Sui event notification forwarded upstream for dedup + persistence.
const CommandAddSuiEvent = "add_sui_event"

// Message is the generic envelope exchanged between WebSocketWorker,
// EventsWriterWorker, and DBWorker.
type Message struct {
	EventID    EventID
	Command    string
	Params     []string
	DataJSON   json.RawMessage
	WorkdirIdx types.WorkdirIdx
}

// Audit builds a self- or parent-addressed AUDIT message for a workdir.
func Audit(workdir types.WorkdirIdx) Message {
	return Message{EventID: EventAudit, WorkdirIdx: workdir}
}

// Update builds a self- or parent-addressed UPDATE message for a workdir.
func Update(workdir types.WorkdirIdx) Message {
	return Message{EventID: EventUpdate, WorkdirIdx: workdir}
}

// AddSuiEvent builds the EXEC message a WebSocketWorker emits upstream once
// a notification has been validated and correlated to a tracked package.
func AddSuiEvent(workdir types.WorkdirIdx, packageUUID, packageName string, payload json.RawMessage) Message {
	return Message{
		EventID:    EventExec,
		Command:    CommandAddSuiEvent,
		Params:     []string{packageUUID, packageName},
		DataJSON:   payload,
		WorkdirIdx: workdir,
	}
}

// Forwarded returns a copy of msg suitable for forwarding to a sibling or
// child: any response-routing metadata is stripped. suibase messages carry
// none today, but the method exists so forwarding call sites document the
// intent.
func (m Message) Forwarded() Message {
	return m
}
