package eventswriter

import (
	"container/list"
	"encoding/json"
)

// fingerprintCacheCapacity bounds the LRU below: a reasonable ceiling for
// a single-process dedup window.
const fingerprintCacheCapacity = 65536

// fingerprintCache is a bounded LRU set of event fingerprints, used to
// suppress duplicate add_sui_event forwards across sibling WebSocket
// workers. Built on container/list + map rather than a pulled-in LRU
// library: the structure is tiny, single-purpose, and has no eviction
// policy beyond plain recency, so a generic dependency would buy nothing
// here.
type fingerprintCache struct {
	capacity int
	order    *list.List
	index    map[string]*list.Element
}

func newFingerprintCache(capacity int) *fingerprintCache {
	return &fingerprintCache{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[string]*list.Element, capacity),
	}
}

// seen reports whether fingerprint has already been recorded, and records
// it (marking it most-recently-used either way). The first call for a
// fingerprint returns false; every subsequent call until eviction returns
// true.
func (c *fingerprintCache) seen(fingerprint string) bool {
	if elem, ok := c.index[fingerprint]; ok {
		c.order.MoveToFront(elem)
		return true
	}

	elem := c.order.PushFront(fingerprint)
	c.index[fingerprint] = elem

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.index, oldest.Value.(string))
		}
	}
	return false
}

// len reports the number of fingerprints currently retained.
func (c *fingerprintCache) len() int {
	return c.order.Len()
}

// eventIdentity is the subset of a Sui event notification's "result" object
// that identifies one specific on-chain event emission.
type eventIdentity struct {
	TxDigest string `json:"txDigest"`
	EventSeq string `json:"eventSeq"`
}

// fingerprint derives the dedup key: (package_uuid, txDigest, eventSeq).
// packageUUID is the caller's own correlation key (msg.Params[0]);
// txDigest/eventSeq come from the notification's
// result.id object where Sui places them. Fault-tolerant: a malformed or
// absent id yields empty strings rather than an error, so a fingerprint is
// always produced (degrading to coarser dedup rather than dropping the
// event).
func fingerprint(packageUUID string, payload json.RawMessage) string {
	var envelope struct {
		Params struct {
			Result struct {
				ID eventIdentity `json:"id"`
			} `json:"result"`
		} `json:"params"`
	}
	_ = json.Unmarshal(payload, &envelope)

	id := envelope.Params.Result.ID
	return packageUUID + "|" + id.TxDigest + "|" + id.EventSeq
}
