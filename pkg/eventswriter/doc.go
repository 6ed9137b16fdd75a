// Package eventswriter implements EventsWriterWorker: the fan-out and
// cross-connection dedup stage sitting between one workdir's WebSocketWorker
// pool and its DBWorker.
//
// AUDIT and UPDATE are control-plane messages and are broadcast verbatim to
// every child WebSocketWorker and to DBWorker. EXEC add_sui_event messages
// are deduplicated against a bounded fingerprint cache and, when novel,
// forwarded to DBWorker only.
package eventswriter
