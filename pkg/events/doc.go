/*
Package events defines suibase's internal control-plane messages and the
mailbox primitives the worker tree uses to exchange them.

Two shapes live here, grounded on different needs:

  - Message / Mailbox: the point-to-point, bounded inbound queue each
    worker owns. AUDIT and UPDATE drive reconciliation; EXEC carries a
    command plus payload (today only "add_sui_event"). CollapseDuplicates
    implements a queue-hygiene pass: consecutive AUDIT/UPDATE messages
    already sitting in a worker's mailbox collapse to one before the
    event loop processes them.

  - Broker: a one-to-many, non-blocking pub/sub channel. It has exactly
    one consumer in this repo: pkg/metrics' queue-depth gauge subscribes
    to per-worker depth samples instead of polling each mailbox, so
    Broker earns its keep as a diagnostics side-channel rather than the
    message bus itself.
*/
package events
