package wsworker

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// subscribeRequest renders the exact byte pattern Sui's suix_subscribeEvent
// expects: packageID must already have any "0x" prefix stripped.
func subscribeRequest(id uint64, packageID string) string {
	return fmt.Sprintf(
		`{"jsonrpc":"2.0","method":"suix_subscribeEvent","id":%d,"params":[{"Package":"%s"}]}`,
		id, packageID,
	)
}

// unsubscribeRequest renders the exact byte pattern Sui's
// suix_unsubscribeEvent expects.
func unsubscribeRequest(id, unsubscribedID uint64) string {
	return fmt.Sprintf(
		`{"jsonrpc":"2.0","method":"suix_unsubscribeEvent","id":%d,"params":[%d]}`,
		id, unsubscribedID,
	)
}

// decodeFrame parses a text frame into an untyped map, preserving integers
// exactly (json.Number) rather than losing precision through float64.
func decodeFrame(raw []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var frame map[string]interface{}
	if err := dec.Decode(&frame); err != nil {
		return nil, err
	}
	return frame, nil
}

// The following accessors never panic: a missing key or a value of the
// wrong shape yields (zero, false) rather than an index/type panic. All
// JSON field access in this package must go through them, since a
// malformed or unexpected notification from the node must never crash
// the worker.

func asU64(v interface{}) (uint64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil || i < 0 {
			return 0, false
		}
		return uint64(i), true
	case float64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	default:
		return 0, false
	}
}

func asString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asObject(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}

func field(frame map[string]interface{}, key string) interface{} {
	if frame == nil {
		return nil
	}
	return frame[key]
}
