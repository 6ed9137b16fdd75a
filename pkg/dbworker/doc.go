// Package dbworker implements DBWorker: the terminal sink of the pipeline.
// It persists validated, deduplicated Sui events to a bbolt-backed store
// and no-ops on AUDIT/UPDATE control-plane messages, since it owns no
// reconcilable state of its own.
package dbworker
