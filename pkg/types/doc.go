/*
Package types defines the core data structures shared across suibase's
event subscription and deduplication core.

It holds the workdir catalog (the set of isolated deployment targets this
process can serve), the package tracking record described by the
subscription state machine, and the minimal persisted event row written by
DBWorker. These types are deliberately thin: suibase has no central
orchestration state to model, only the bookkeeping needed to correlate a
websocket subscription lifecycle with the packages a workdir wants watched.
*/
package types
