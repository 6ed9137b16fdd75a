package dbworker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubinix-warun/suibase/pkg/events"
	"github.com/ubinix-warun/suibase/pkg/types"
)

func TestWorker_ExecPersistsEvent(t *testing.T) {
	store := newTestStore(t)
	w := NewWorker(types.WorkdirIdxLocalnet, "localnet", store)

	msg := events.AddSuiEvent(types.WorkdirIdxLocalnet, "uuid-1", "pkg", []byte(`{"hello":"world"}`))
	w.dispatch(msg)

	rows, err := store.ListByWorkdir(types.WorkdirIdxLocalnet)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "uuid-1", rows[0].PackageUUID)
	assert.Equal(t, "pkg", rows[0].PackageName)
}

func TestWorker_AuditAndUpdateAreNoOps(t *testing.T) {
	store := newTestStore(t)
	w := NewWorker(types.WorkdirIdxLocalnet, "localnet", store)

	w.dispatch(events.Audit(types.WorkdirIdxLocalnet))
	w.dispatch(events.Update(types.WorkdirIdxLocalnet))

	n, err := store.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWorker_UnknownCommandDropped(t *testing.T) {
	store := newTestStore(t)
	w := NewWorker(types.WorkdirIdxLocalnet, "localnet", store)

	w.dispatch(events.Message{EventID: events.EventExec, Command: "bogus", WorkdirIdx: types.WorkdirIdxLocalnet})

	n, err := store.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWorker_MalformedParamsDropped(t *testing.T) {
	store := newTestStore(t)
	w := NewWorker(types.WorkdirIdxLocalnet, "localnet", store)

	w.dispatch(events.Message{EventID: events.EventExec, Command: events.CommandAddSuiEvent, Params: []string{"only-one"}, WorkdirIdx: types.WorkdirIdxLocalnet})

	n, err := store.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWorker_RunPersistsAndStopsOnCancel(t *testing.T) {
	store := newTestStore(t)
	w := NewWorker(types.WorkdirIdxLocalnet, "localnet", store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	w.Inbox() <- events.AddSuiEvent(types.WorkdirIdxLocalnet, "uuid-1", "pkg", []byte(`{}`))

	require.Eventually(t, func() bool {
		n, err := store.Count()
		return err == nil && n == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
