// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// booking engine and handlers to distinguish between different failure
// scenarios. For example, ErrStaleVersion indicates that a conditional
// save lost a race with a concurrent writer, while ErrTicketNotFound
// signals that no ticket row exists for the requested (event, seat)
// pair.
package repository

import "errors"

// ErrTicketNotFound is returned when no ticket exists for the
// requested identifiers. Handlers should translate this into an
// HTTP 404 response; the booking engine treats it as a hard abort
// of the whole batch.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrStaleVersion is returned when a conditional save detects that
// the stored version no longer matches the expected one. The store
// never retries on its own; callers decide whether the conflict is
// fatal. Distinct from ErrTicketNotFound so that callers can tell a
// lost race apart from a missing row.
var ErrStaleVersion = errors.New("stale version")

// ErrVenueNotFound is returned when a referenced venue does not exist.
var ErrVenueNotFound = errors.New("venue not found")

// ErrEventNotFound is returned when a referenced event does not exist.
var ErrEventNotFound = errors.New("event not found")
