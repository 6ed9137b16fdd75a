// Package wsworker implements WebSocketWorker: one workdir's JSON-RPC
// connection to a Sui full node, the package tracking records it drives
// through pkg/subscription's state machine, and the AUDIT/UPDATE
// reconciliation against the desired set (pkg/config). Every tracking
// record and the connection itself are owned exclusively by the
// Worker's own goroutine; the only shared state touched is the desired
// set, and only under its own lock.
package wsworker
