package eventswriter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubinix-warun/suibase/pkg/events"
	"github.com/ubinix-warun/suibase/pkg/types"
)

func newTestWorker(t *testing.T, childCount int) (*Worker, []chan events.Message, chan events.Message) {
	t.Helper()
	children := make([]chan<- events.Message, childCount)
	rawChildren := make([]chan events.Message, childCount)
	for i := 0; i < childCount; i++ {
		ch := make(chan events.Message, 8)
		rawChildren[i] = ch
		children[i] = ch
	}
	dbWorkerTx := make(chan events.Message, 8)
	w := NewWorker(types.WorkdirIdxLocalnet, "localnet", children, dbWorkerTx)
	return w, rawChildren, dbWorkerTx
}

func TestWorker_BroadcastsAuditToAllChildrenAndDBWorker(t *testing.T) {
	w, children, dbWorkerTx := newTestWorker(t, 2)

	w.dispatch(context.Background(), events.Audit(types.WorkdirIdxLocalnet))

	for _, ch := range children {
		require.Len(t, ch, 1)
		msg := <-ch
		assert.Equal(t, events.EventAudit, msg.EventID)
	}
	require.Len(t, dbWorkerTx, 1)
}

func TestWorker_BroadcastsUpdateToAllChildrenAndDBWorker(t *testing.T) {
	w, children, dbWorkerTx := newTestWorker(t, 1)

	w.dispatch(context.Background(), events.Update(types.WorkdirIdxLocalnet))

	assert.Len(t, children[0], 1)
	assert.Len(t, dbWorkerTx, 1)
}

func TestWorker_ExecForwardsToDBWorkerOnlyNotChildren(t *testing.T) {
	w, children, dbWorkerTx := newTestWorker(t, 1)

	msg := events.AddSuiEvent(types.WorkdirIdxLocalnet, "uuid-1", "pkg", []byte(`{"params":{"result":{"id":{"txDigest":"tx1","eventSeq":"0"}}}}`))
	w.dispatch(context.Background(), msg)

	assert.Empty(t, children[0])
	require.Len(t, dbWorkerTx, 1)
	forwarded := <-dbWorkerTx
	assert.Equal(t, events.EventExec, forwarded.EventID)
	assert.Equal(t, events.CommandAddSuiEvent, forwarded.Command)
}

func TestWorker_ExecDuplicateFingerprintSuppressed(t *testing.T) {
	w, _, dbWorkerTx := newTestWorker(t, 1)

	payload := []byte(`{"params":{"result":{"id":{"txDigest":"tx1","eventSeq":"0"}}}}`)
	msg := events.AddSuiEvent(types.WorkdirIdxLocalnet, "uuid-1", "pkg", payload)

	w.dispatch(context.Background(), msg)
	w.dispatch(context.Background(), msg)

	assert.Len(t, dbWorkerTx, 1)
}

func TestWorker_ExecDifferentFingerprintsBothForwarded(t *testing.T) {
	w, _, dbWorkerTx := newTestWorker(t, 1)

	payloadA := []byte(`{"params":{"result":{"id":{"txDigest":"tx1","eventSeq":"0"}}}}`)
	payloadB := []byte(`{"params":{"result":{"id":{"txDigest":"tx2","eventSeq":"0"}}}}`)

	w.dispatch(context.Background(), events.AddSuiEvent(types.WorkdirIdxLocalnet, "uuid-1", "pkg", payloadA))
	w.dispatch(context.Background(), events.AddSuiEvent(types.WorkdirIdxLocalnet, "uuid-1", "pkg", payloadB))

	assert.Len(t, dbWorkerTx, 2)
}

func TestWorker_UnknownCommandDropped(t *testing.T) {
	w, _, dbWorkerTx := newTestWorker(t, 1)

	msg := events.Message{EventID: events.EventExec, Command: "not_a_real_command", WorkdirIdx: types.WorkdirIdxLocalnet}
	w.dispatch(context.Background(), msg)

	assert.Empty(t, dbWorkerTx)
}

func TestWorker_RunStopsOnContextCancel(t *testing.T) {
	w, _, _ := newTestWorker(t, 1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestWorker_RunForwardsAuditReceivedViaInbox(t *testing.T) {
	w, children, _ := newTestWorker(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	w.Inbox() <- events.Audit(types.WorkdirIdxLocalnet)

	require.Eventually(t, func() bool {
		return len(children[0]) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
