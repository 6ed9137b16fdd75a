package dbworker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubinix-warun/suibase/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_PutAndListByWorkdir(t *testing.T) {
	store := newTestStore(t)

	row := types.EventRow{
		WorkdirIdx:  types.WorkdirIdxLocalnet,
		PackageUUID: "uuid-1",
		PackageName: "pkg",
		ReceivedAt:  time.Now(),
		Payload:     []byte(`{"foo":"bar"}`),
	}
	require.NoError(t, store.PutEvent(row))

	rows, err := store.ListByWorkdir(types.WorkdirIdxLocalnet)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "uuid-1", rows[0].PackageUUID)
}

func TestStore_ListByWorkdirScopesToWorkdir(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.PutEvent(types.EventRow{
		WorkdirIdx: types.WorkdirIdxLocalnet, PackageUUID: "a", ReceivedAt: time.Now(),
	}))
	require.NoError(t, store.PutEvent(types.EventRow{
		WorkdirIdx: types.WorkdirIdxDevnet, PackageUUID: "b", ReceivedAt: time.Now(),
	}))

	localnetRows, err := store.ListByWorkdir(types.WorkdirIdxLocalnet)
	require.NoError(t, err)
	assert.Len(t, localnetRows, 1)

	devnetRows, err := store.ListByWorkdir(types.WorkdirIdxDevnet)
	require.NoError(t, err)
	assert.Len(t, devnetRows, 1)
}

func TestStore_Count(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.PutEvent(types.EventRow{
			WorkdirIdx: types.WorkdirIdxLocalnet, PackageUUID: "uuid", ReceivedAt: time.Now().Add(time.Duration(i) * time.Millisecond),
		}))
	}

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
