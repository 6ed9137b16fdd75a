// Package config holds the two pieces of externally maintained state the
// core reconciles against: the per-workdir transport catalog (endpoint
// URLs) and the desired set of tracked packages (the UI-maintained
// configuration a deployment operator edits). Neither is itself part of
// the subscription/reconciliation core; both are the concrete shape of
// the black-box collaborators the reconciliation loop depends on.
package config
