// Package supervisor generalizes the Start/Stop/stopCh loop idiom used
// throughout this codebase into one reusable wrapper: run a worker's Run
// method in a goroutine, rebuild and restart it fresh whenever Run returns
// for any reason short of context cancellation (panic, connect failure,
// dropped transport), and stop it cooperatively via context cancellation.
package supervisor
