package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// WorkdirIdx identifies one isolated deployment target (localnet, devnet,
// testnet, mainnet). Each workdir runs its own independent instance of the
// subscription/dedup core.
type WorkdirIdx int

const (
	WorkdirIdxLocalnet WorkdirIdx = iota
	WorkdirIdxDevnet
	WorkdirIdxTestnet
	WorkdirIdxMainnet
)

// WorkdirsKeys lists the built-in workdir names in WorkdirIdx order.
var WorkdirsKeys = [...]string{
	WorkdirIdxLocalnet: "localnet",
	WorkdirIdxDevnet:   "devnet",
	WorkdirIdxTestnet:  "testnet",
	WorkdirIdxMainnet:  "mainnet",
}

// DefaultEndpoints are the well-known transport URLs per workdir.
var DefaultEndpoints = [...]string{
	WorkdirIdxLocalnet: "ws://localhost:9000",
	WorkdirIdxDevnet:   "wss://fullnode.devnet.sui.io:443",
	WorkdirIdxTestnet:  "wss://fullnode.testnet.sui.io:443",
	WorkdirIdxMainnet:  "wss://fullnode.mainnet.sui.io:443",
}

// String returns the workdir's well-known name, or "unknown" if idx is out
// of the built-in range.
func (w WorkdirIdx) String() string {
	if int(w) < 0 || int(w) >= len(WorkdirsKeys) {
		return "unknown"
	}
	return WorkdirsKeys[w]
}

// ParseWorkdirIdx resolves a workdir by its well-known name.
func ParseWorkdirIdx(name string) (WorkdirIdx, error) {
	for i, key := range WorkdirsKeys {
		if key == name {
			return WorkdirIdx(i), nil
		}
	}
	return 0, fmt.Errorf("unknown workdir %q", name)
}

// SubscriptionState is the lifecycle state of one package tracking record.
// See pkg/subscription for the transition table.
type SubscriptionState int

const (
	StateDisconnected SubscriptionState = iota
	StateSubscribing
	StateSubscribed
	StateUnsubscribing
	StateReadyToDelete
)

func (s SubscriptionState) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateSubscribing:
		return "Subscribing"
	case StateSubscribed:
		return "Subscribed"
	case StateUnsubscribing:
		return "Unsubscribing"
	case StateReadyToDelete:
		return "ReadyToDelete"
	default:
		return "Unknown"
	}
}

// PackageIdentity is one entry of the externally-owned desired set: the
// package a workdir wants subscribed, identified by package_id on the wire
// and by (uuid, timestamp) for "most recent instance" comparisons.
type PackageIdentity struct {
	PackageID        string // hex object id, no 0x prefix
	PackageUUID      string
	PackageName      string
	PackageTimestamp string
}

// EventRow is the minimal persisted shape DBWorker writes. The full
// downstream schema is out of scope; this is only what the pipeline needs
// to prove an event was deduplicated and forwarded.
type EventRow struct {
	WorkdirIdx  WorkdirIdx      `json:"workdir_idx"`
	PackageUUID string          `json:"package_uuid"`
	PackageName string          `json:"package_name"`
	ReceivedAt  time.Time       `json:"received_at"`
	Payload     json.RawMessage `json:"payload"`
}
