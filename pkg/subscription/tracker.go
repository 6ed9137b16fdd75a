package subscription

import (
	"time"

	"github.com/ubinix-warun/suibase/pkg/types"
)

// Action names the frame (if any) a Tick asks the caller to send.
type Action int

const (
	ActionNone Action = iota
	ActionSendSubscribe
	ActionSendUnsubscribe
)

// Tick is the outcome of one TryToSubscribe/TryToUnsubscribe call: whether
// to send a frame, with which sequence number and (for unsubscribe) which
// handle, and whether the caller should log a retry error this round.
type Tick struct {
	Action         Action
	Seq            uint64
	UnsubscribedID uint64
	RetryLogDue    bool
}

// resendWindow is the minimum spacing between repeated subscribe/
// unsubscribe attempts for the same record.
const resendWindow = 2 * time.Second

// unsubscribeAbandonRetries is how many Unsubscribing retries are allowed
// before the record is force-evicted.
const unsubscribeAbandonRetries = 10

// Tracker is one package's tracking record. All accessor and mutator
// methods are meant to be called from the single WebSocketWorker
// goroutine that owns the tracker; there is no internal locking.
type Tracker struct {
	PackageID        string
	PackageUUID      string
	PackageName      string
	PackageTimestamp string

	state                 types.SubscriptionState
	subscriptionNumber    uint64
	hasSubscriptionNumber bool
	unsubscribedID        uint64
	hasUnsubscribedID     bool
	lastRequestSeq        uint64
	lastRequestTime       time.Time
	requestRetry          int
	removeRequested       bool
}

// NewTracker returns a fresh record in Disconnected for a desired-set
// package instance.
func NewTracker(pkg types.PackageIdentity) *Tracker {
	return &Tracker{
		PackageID:        pkg.PackageID,
		PackageUUID:      pkg.PackageUUID,
		PackageName:      pkg.PackageName,
		PackageTimestamp: pkg.PackageTimestamp,
		state:            types.StateDisconnected,
	}
}

func (t *Tracker) State() types.SubscriptionState { return t.state }

// CanBeDeleted reports whether the record is safe to evict from a
// reconciliation pass.
func (t *Tracker) CanBeDeleted() bool { return t.state == types.StateReadyToDelete }

func (t *Tracker) RemoveRequested() bool { return t.removeRequested }

// ReportRemoveRequest sets the sticky remove_requested flag. Idempotent.
func (t *Tracker) ReportRemoveRequest() { t.removeRequested = true }

// SubscriptionNumber returns the server-assigned id used to route
// incoming notifications back to this record, if one has been received.
func (t *Tracker) SubscriptionNumber() (uint64, bool) {
	return t.subscriptionNumber, t.hasSubscriptionNumber
}

// LastRequestSeq is the JSON-RPC id of the most recent pending request,
// used by the worker's response-correlation scan.
func (t *Tracker) LastRequestSeq() uint64 { return t.lastRequestSeq }

// MatchesPendingRequest reports whether seq correlates to this record's
// most recent outstanding subscribe/unsubscribe request.
func (t *Tracker) MatchesPendingRequest(seq uint64) bool {
	if t.lastRequestSeq == 0 || seq != t.lastRequestSeq {
		return false
	}
	return t.state == types.StateSubscribing || t.state == types.StateUnsubscribing
}

func (t *Tracker) secsSinceLastRequest() time.Duration {
	if t.lastRequestTime.IsZero() {
		return resendWindow * 1000 // effectively "long ago"
	}
	return time.Since(t.lastRequestTime)
}

func (t *Tracker) changeState(to types.SubscriptionState) bool {
	if t.state == to {
		return false
	}
	t.state = to
	t.requestRetry = 0
	return true
}

// OnSubscribeResponse records a successful subscribe response. The same
// wire value doubles as the routing key for later notifications
// (subscription_number) and the handle used to later unsubscribe
// (unsubscribed_id); Sui's subscribeEvent RPC returns a single id serving
// both purposes. Valid only while Subscribing; returns whether the
// caller should trigger an AUDIT.
func (t *Tracker) OnSubscribeResponse(id uint64) (trigAudit bool) {
	if t.state != types.StateSubscribing {
		return false
	}
	t.subscriptionNumber = id
	t.hasSubscriptionNumber = true
	t.unsubscribedID = id
	t.hasUnsubscribedID = true
	return true
}

// OnUnsubscribeResponse clears the unsubscribe handle on confirmation.
// Valid only while Unsubscribing; returns whether the caller should
// trigger an AUDIT.
func (t *Tracker) OnUnsubscribeResponse() (trigAudit bool) {
	if t.state != types.StateUnsubscribing {
		return false
	}
	t.hasUnsubscribedID = false
	return true
}

// TryToSubscribe drives the Disconnected/Subscribing transitions and,
// unless a request was already sent within the resend window, asks the
// caller to (re)send a subscribe frame. nextSeq mints the request's
// JSON-RPC id.
func (t *Tracker) TryToSubscribe(nextSeq func() uint64) (stateChanged bool, tick Tick) {
	switch t.state {
	case types.StateDisconnected:
		stateChanged = t.changeState(types.StateSubscribing)
	case types.StateSubscribing:
		if t.hasUnsubscribedID {
			return t.changeState(types.StateSubscribed), Tick{}
		}
	default:
		return false, Tick{}
	}

	if t.secsSinceLastRequest() < resendWindow {
		return stateChanged, Tick{}
	}

	retryLogDue := t.requestRetry%3 == 1
	seq := nextSeq()
	t.lastRequestSeq = seq
	t.lastRequestTime = time.Now()
	t.requestRetry++
	return stateChanged, Tick{Action: ActionSendSubscribe, Seq: seq, RetryLogDue: retryLogDue}
}

// TryToUnsubscribe drives the remove_requested path: Disconnected ->
// ReadyToDelete (nothing to undo), Subscribing -> Unsubscribing (once the
// in-flight subscribe isn't freshly pending), Subscribed ->
// Unsubscribing, and Unsubscribing -> ReadyToDelete on confirmation or
// after too many retries.
func (t *Tracker) TryToUnsubscribe(nextSeq func() uint64) (stateChanged bool, tick Tick) {
	switch t.state {
	case types.StateDisconnected:
		return t.changeState(types.StateReadyToDelete), Tick{}
	case types.StateSubscribing:
		if t.lastRequestSeq != 0 && t.secsSinceLastRequest() < resendWindow {
			// A subscribe is still freshly pending: wait for its response
			// (or for the resend window to lapse) before unsubscribing.
			return false, Tick{}
		}
		return t.changeState(types.StateUnsubscribing), Tick{}
	case types.StateSubscribed:
		return t.changeState(types.StateUnsubscribing), Tick{}
	case types.StateUnsubscribing:
		if !t.hasUnsubscribedID || t.requestRetry > unsubscribeAbandonRetries {
			return t.changeState(types.StateReadyToDelete), Tick{}
		}
	case types.StateReadyToDelete:
		return false, Tick{}
	default:
		return false, Tick{}
	}

	if !t.hasUnsubscribedID {
		return t.changeState(types.StateReadyToDelete), Tick{}
	}

	if t.secsSinceLastRequest() < resendWindow {
		return stateChanged, Tick{}
	}

	retryLogDue := t.requestRetry%3 == 1
	seq := nextSeq()
	unsubID := t.unsubscribedID
	t.lastRequestSeq = seq
	t.lastRequestTime = time.Now()
	t.requestRetry++
	return stateChanged, Tick{Action: ActionSendUnsubscribe, Seq: seq, UnsubscribedID: unsubID, RetryLogDue: retryLogDue}
}
