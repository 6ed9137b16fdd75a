// Package subscription implements the per-package subscription tracking
// state machine: Disconnected -> Subscribing -> Subscribed ->
// Unsubscribing -> ReadyToDelete, request/response correlation via a
// monotonic sequence number, the 2-second resend suppression window, and
// retry bookkeeping. It knows nothing about transport: TryToSubscribe and
// TryToUnsubscribe return a Tick describing what frame (if any) the
// caller should send, and the caller (pkg/wsworker) performs the actual
// I/O and feeds responses back via OnSubscribeResponse/OnUnsubscribeResponse.
package subscription
