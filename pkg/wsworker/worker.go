package wsworker

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ubinix-warun/suibase/pkg/config"
	"github.com/ubinix-warun/suibase/pkg/events"
	"github.com/ubinix-warun/suibase/pkg/log"
	"github.com/ubinix-warun/suibase/pkg/metrics"
	"github.com/ubinix-warun/suibase/pkg/subscription"
	"github.com/ubinix-warun/suibase/pkg/types"
)

// connectBackoff is how long a failed connection attempt sleeps before
// letting the supervisor restart the worker.
const connectBackoff = 6 * time.Second

// Stats is a point-in-time snapshot of a Worker's tracking state,
// refreshed at the end of every AUDIT/UPDATE cycle so callers on other
// goroutines (health checks, the admin API) never touch tracker state
// directly.
type Stats struct {
	Connected    bool
	TrackerCount int
	ByState      map[string]int
}

// Worker is WebSocketWorker. One instance per workdir.
type Worker struct {
	WorkdirIdx  types.WorkdirIdx
	WorkdirName string
	Endpoint    string

	dialer         Dialer
	desiredSet     *config.PackagesConfig
	inbox          chan events.Message
	eventsWriterTx chan<- events.Message
	depthBroker    *events.DepthBroker
	logger         zerolog.Logger

	conn        Conn
	seqNumber   uint64
	packageSubs map[string]*subscription.Tracker // keyed by package_id

	statsMu     sync.RWMutex
	cachedStats Stats
}

// NewWorker builds a Worker for one workdir. eventsWriterTx is the parent
// EventsWriterWorker's inbound queue; depthBroker may be nil in tests
// that don't care about the metrics diagnostic hook.
func NewWorker(
	workdirIdx types.WorkdirIdx,
	workdirName string,
	endpoint string,
	desiredSet *config.PackagesConfig,
	eventsWriterTx chan<- events.Message,
	depthBroker *events.DepthBroker,
) *Worker {
	return &Worker{
		WorkdirIdx:     workdirIdx,
		WorkdirName:    workdirName,
		Endpoint:       endpoint,
		dialer:         gorillaDialer{},
		desiredSet:     desiredSet,
		inbox:          events.NewMailbox(),
		eventsWriterTx: eventsWriterTx,
		depthBroker:    depthBroker,
		logger:         log.WithComponent("wsworker").With().Str("workdir", workdirName).Logger(),
		packageSubs:    make(map[string]*subscription.Tracker),
	}
}

// Inbox is the send-only handle other workers use to deliver control
// messages to this one.
func (w *Worker) Inbox() chan<- events.Message { return w.inbox }

// Stats returns the most recent tracking-state snapshot.
func (w *Worker) Stats() Stats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	return w.cachedStats
}

// Run is one supervised session: connect (or back off), then pump
// websocket frames and inbound control messages until the transport
// drops, the connection attempt fails, or ctx is cancelled. A return for
// any reason but ctx cancellation tells pkg/supervisor to rebuild this
// worker from scratch and try again, which is how a dropped connection or
// a node that isn't reachable yet gets retried.
func (w *Worker) Run(ctx context.Context) {
	if w.conn == nil {
		if !w.openConnection() {
			metrics.ConnectFailuresTotal.WithLabelValues(w.WorkdirName).Inc()
			select {
			case <-time.After(connectBackoff):
			case <-ctx.Done():
			}
			return
		}
		metrics.ReconnectsTotal.WithLabelValues(w.WorkdirName).Inc()
	}

	stop := make(chan struct{})
	frames := make(chan []byte, 1)
	readErrs := make(chan error, 1)
	go w.readLoop(frames, readErrs, stop)

	defer func() {
		close(stop)
		w.closeConnection()
	}()

	events.CollapseDuplicates(w.inbox)

	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-frames:
			if !ok {
				return
			}
			w.processFrame(ctx, raw)
		case <-readErrs:
			return
		case msg := <-w.inbox:
			w.publishDepth()
			switch msg.EventID {
			case events.EventAudit:
				w.processAudit(ctx, msg)
			case events.EventUpdate:
				w.processUpdate(ctx, msg)
			default:
				w.logger.Error().Str("event", msg.EventID.String()).Msg("unexpected event kind in WebSocketWorker inbox")
				metrics.EventsDroppedTotal.WithLabelValues(w.WorkdirName, "unexpected_event_kind").Inc()
			}
		}
	}
}

func (w *Worker) readLoop(frames chan<- []byte, errs chan<- error, stop <-chan struct{}) {
	for {
		msgType, data, err := w.conn.ReadMessage()
		if err != nil {
			select {
			case errs <- err:
			case <-stop:
			}
			return
		}
		if msgType != websocket.TextMessage {
			w.logger.Error().Int("message_type", msgType).Msg("unexpected non-text websocket frame")
			metrics.EventsDroppedTotal.WithLabelValues(w.WorkdirName, "non_text_frame").Inc()
			continue
		}
		select {
		case frames <- data:
		case <-stop:
			return
		}
	}
}

func (w *Worker) openConnection() bool {
	conn, err := w.dialer.Dial(w.Endpoint)
	if err != nil {
		if strings.Contains(err.Error(), "connection refused") {
			w.logger.Debug().Str("endpoint", w.Endpoint).Msg("connection refused, node likely not running")
		} else {
			w.logger.Warn().Err(err).Str("endpoint", w.Endpoint).Msg("failed to connect to node")
		}
		return false
	}
	w.conn = conn
	return true
}

func (w *Worker) closeConnection() {
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
}

func (w *Worker) nextSeq() uint64 {
	w.seqNumber++
	return w.seqNumber
}

func (w *Worker) sendFrame(text string) {
	if w.conn == nil {
		return
	}
	if err := w.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		w.logger.Error().Err(err).Msg("failed to write websocket frame")
	}
}

// processFrame correlates an incoming JSON-RPC frame to a pending
// tracker request, or else treats it as an event notification.
func (w *Worker) processFrame(ctx context.Context, raw []byte) {
	frame, err := decodeFrame(raw)
	if err != nil {
		w.logger.Error().Err(err).Str("frame", string(raw)).Msg("failed to parse JSON-RPC frame")
		metrics.EventsDroppedTotal.WithLabelValues(w.WorkdirName, "decode_error").Inc()
		return
	}

	id, _ := asU64(field(frame, "id"))

	correlated := false
	trigAudit := false
	if id != 0 {
		for _, tracker := range w.packageSubs {
			if !tracker.MatchesPendingRequest(id) {
				continue
			}
			correlated = true
			switch tracker.State() {
			case types.StateSubscribing:
				result, ok := asU64(field(frame, "result"))
				if !ok {
					w.logger.Error().Interface("frame", frame).Msg("missing result field in subscribe response")
					metrics.EventsDroppedTotal.WithLabelValues(w.WorkdirName, "missing_result").Inc()
					return
				}
				if tracker.OnSubscribeResponse(result) {
					trigAudit = true
				}
			case types.StateUnsubscribing:
				if tracker.OnUnsubscribeResponse() {
					trigAudit = true
				}
			}
			break
		}
	}

	if !correlated {
		w.processNotification(ctx, frame)
	}

	if trigAudit {
		events.Send(ctx, w.inbox, events.Audit(w.WorkdirIdx), w.logger)
	}
}

func (w *Worker) processNotification(ctx context.Context, frame map[string]interface{}) {
	method, ok := asString(field(frame, "method"))
	if !ok || method != "suix_subscribeEvent" {
		w.logger.Error().Interface("frame", frame).Msg("unexpected or missing method in notification frame")
		metrics.EventsDroppedTotal.WithLabelValues(w.WorkdirName, "unknown_method").Inc()
		return
	}

	params, ok := asObject(field(frame, "params"))
	if !ok {
		w.logger.Error().Interface("frame", frame).Msg("missing params in notification frame")
		metrics.EventsDroppedTotal.WithLabelValues(w.WorkdirName, "missing_params").Inc()
		return
	}

	subscriptionNumber, ok := asU64(field(params, "subscription"))
	if !ok {
		w.logger.Error().Interface("frame", frame).Msg("missing subscription in notification frame")
		metrics.EventsDroppedTotal.WithLabelValues(w.WorkdirName, "missing_subscription").Inc()
		return
	}

	result, ok := asObject(field(params, "result"))
	if !ok {
		w.logger.Error().Interface("frame", frame).Msg("missing result object in notification frame")
		metrics.EventsDroppedTotal.WithLabelValues(w.WorkdirName, "missing_result_object").Inc()
		return
	}

	var matched *subscription.Tracker
	for _, tracker := range w.packageSubs {
		if tracker.State() != types.StateSubscribed {
			continue
		}
		num, has := tracker.SubscriptionNumber()
		if has && num == subscriptionNumber {
			matched = tracker
			break
		}
	}
	if matched == nil {
		w.logger.Warn().Uint64("subscription", subscriptionNumber).Msg("notification for unknown or unsubscribed subscription number")
		metrics.EventsDroppedTotal.WithLabelValues(w.WorkdirName, "unknown_subscription").Inc()
		return
	}

	packageID, ok := asString(field(result, "packageId"))
	if !ok || !strings.HasPrefix(packageID, "0x") {
		w.logger.Error().Interface("frame", frame).Msg("missing or malformed packageId in notification result")
		metrics.EventsDroppedTotal.WithLabelValues(w.WorkdirName, "missing_package_id").Inc()
		return
	}
	if strings.TrimPrefix(packageID, "0x") != matched.PackageID {
		w.logger.Error().Str("got_package_id", packageID).Str("tracked_package_id", matched.PackageID).Msg("packageId mismatch in notification result")
		metrics.EventsDroppedTotal.WithLabelValues(w.WorkdirName, "package_id_mismatch").Inc()
		return
	}

	payload, err := json.Marshal(frame)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to re-marshal notification payload")
		metrics.EventsDroppedTotal.WithLabelValues(w.WorkdirName, "remarshal_error").Inc()
		return
	}

	metrics.EventsIngestedTotal.WithLabelValues(w.WorkdirName).Inc()
	events.Send(ctx, w.eventsWriterTx, events.AddSuiEvent(w.WorkdirIdx, matched.PackageUUID, matched.PackageName, payload), w.logger)
}

// processAudit reconciles local trackers against the desired set, then
// ticks every tracker's state machine.
func (w *Worker) processAudit(ctx context.Context, msg events.Message) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.ReconcileDuration, w.WorkdirName, "audit")

	if msg.WorkdirIdx != w.WorkdirIdx {
		w.logger.Error().Str("got_workdir", msg.WorkdirIdx.String()).Msg("AUDIT message for unexpected workdir")
		return
	}

	if w.desiredSet != nil {
		for _, pkg := range w.desiredSet.IterMostRecentPackageInstance() {
			if _, tracked := w.packageSubs[pkg.PackageID]; !tracked {
				w.packageSubs[pkg.PackageID] = subscription.NewTracker(pkg)
			}
		}
		for packageID, tracker := range w.packageSubs {
			if w.desiredSet.IsMostRecent(tracker.PackageUUID, tracker.PackageTimestamp) {
				continue
			}
			if tracker.CanBeDeleted() {
				w.logger.Info().Str("package_id", packageID).Msg("deleting tracking record")
				delete(w.packageSubs, packageID)
				continue
			}
			if !tracker.RemoveRequested() {
				tracker.ReportRemoveRequest()
			}
		}
	}

	stateChanged := false
	for _, tracker := range w.packageSubs {
		changed := w.tick(tracker)
		stateChanged = stateChanged || changed
	}

	if stateChanged {
		events.Send(ctx, w.inbox, events.Update(w.WorkdirIdx), w.logger)
	}

	w.refreshStats()
}

// processUpdate admits newly discovered packages from the desired set
// into local tracking.
func (w *Worker) processUpdate(ctx context.Context, msg events.Message) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.ReconcileDuration, w.WorkdirName, "update")

	if msg.WorkdirIdx != w.WorkdirIdx {
		w.logger.Error().Str("got_workdir", msg.WorkdirIdx.String()).Msg("UPDATE message for unexpected workdir")
		return
	}

	trigAudit := false
	if w.desiredSet != nil {
		for _, pkg := range w.desiredSet.IterMostRecentPackageInstance() {
			if _, tracked := w.packageSubs[pkg.PackageID]; !tracked {
				w.packageSubs[pkg.PackageID] = subscription.NewTracker(pkg)
				trigAudit = true
			}
		}
	}

	if trigAudit {
		events.Send(ctx, w.inbox, events.Audit(w.WorkdirIdx), w.logger)
	}

	w.refreshStats()
}

// tick runs the per-state handler for one tracker and, if it asked to
// send a frame, writes it to the transport.
func (w *Worker) tick(tracker *subscription.Tracker) bool {
	if tracker.RemoveRequested() {
		return w.tickUnsubscribe(tracker)
	}
	switch tracker.State() {
	case types.StateDisconnected, types.StateSubscribing:
		return w.tickSubscribe(tracker)
	case types.StateUnsubscribing:
		return w.tickUnsubscribe(tracker)
	default:
		return false
	}
}

func (w *Worker) tickSubscribe(tracker *subscription.Tracker) bool {
	changed, t := tracker.TryToSubscribe(w.nextSeq)
	if t.Action == subscription.ActionSendSubscribe {
		if t.RetryLogDue {
			w.logger.Error().Str("package_id", tracker.PackageID).Msg("failed to subscribe, retrying")
			metrics.RequestRetriesTotal.WithLabelValues(w.WorkdirName, "subscribe").Inc()
		}
		w.sendFrame(subscribeRequest(t.Seq, tracker.PackageID))
	}
	return changed
}

func (w *Worker) tickUnsubscribe(tracker *subscription.Tracker) bool {
	changed, t := tracker.TryToUnsubscribe(w.nextSeq)
	if t.Action == subscription.ActionSendUnsubscribe {
		if t.RetryLogDue {
			w.logger.Error().Str("package_id", tracker.PackageID).Msg("failed to unsubscribe, retrying")
			metrics.RequestRetriesTotal.WithLabelValues(w.WorkdirName, "unsubscribe").Inc()
		}
		w.sendFrame(unsubscribeRequest(t.Seq, t.UnsubscribedID))
	}
	return changed
}

func (w *Worker) refreshStats() {
	byState := make(map[string]int, 5)
	for _, tracker := range w.packageSubs {
		byState[tracker.State().String()]++
	}
	for _, st := range []types.SubscriptionState{
		types.StateDisconnected, types.StateSubscribing, types.StateSubscribed,
		types.StateUnsubscribing, types.StateReadyToDelete,
	} {
		metrics.TrackersByState.WithLabelValues(w.WorkdirName, st.String()).Set(float64(byState[st.String()]))
	}

	w.statsMu.Lock()
	w.cachedStats = Stats{Connected: w.conn != nil, TrackerCount: len(w.packageSubs), ByState: byState}
	w.statsMu.Unlock()
}

func (w *Worker) publishDepth() {
	if w.depthBroker == nil {
		return
	}
	w.depthBroker.Publish(events.DepthSample{
		Worker:    "wsworker",
		Workdir:   w.WorkdirName,
		Depth:     len(w.inbox),
		Capacity:  cap(w.inbox),
		Timestamp: time.Now(),
	})
}
