package wsworker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeRequest_ExactWireFormat(t *testing.T) {
	got := subscribeRequest(7, "abc123")
	want := `{"jsonrpc":"2.0","method":"suix_subscribeEvent","id":7,"params":[{"Package":"abc123"}]}`
	assert.Equal(t, want, got)
}

func TestUnsubscribeRequest_ExactWireFormat(t *testing.T) {
	got := unsubscribeRequest(8, 555)
	want := `{"jsonrpc":"2.0","method":"suix_unsubscribeEvent","id":8,"params":[555]}`
	assert.Equal(t, want, got)
}

func TestDecodeFrame_PreservesLargeIntegers(t *testing.T) {
	frame, err := decodeFrame([]byte(`{"id":1,"result":9007199254740993}`))
	require.NoError(t, err)
	v, ok := asU64(frame["result"])
	require.True(t, ok)
	assert.Equal(t, uint64(9007199254740993), v)
}

func TestDecodeFrame_InvalidJSON(t *testing.T) {
	_, err := decodeFrame([]byte(`not json`))
	assert.Error(t, err)
}

func TestAsU64_RejectsWrongShapes(t *testing.T) {
	_, ok := asU64("not a number")
	assert.False(t, ok)
	_, ok = asU64(nil)
	assert.False(t, ok)
}

func TestAsObject_RejectsNonObject(t *testing.T) {
	_, ok := asObject([]interface{}{1, 2})
	assert.False(t, ok)
}

func TestField_NilFrameIsSafe(t *testing.T) {
	assert.Nil(t, field(nil, "id"))
}
