package booking

import "errors"

// Sentinel errors returned by the engine. Each Purchase failure wraps
// one of these together with the seat that caused it, so handlers can
// classify with errors.Is and still name the seat in the response.
// All of them are non-fatal to the process.

// ErrSeatContended is returned when a needed seat lock was already
// held by another in-flight purchase. Callers should retry later, not
// immediately.
var ErrSeatContended = errors.New("seat is currently selected by another user")

// ErrSeatNotFound is returned when a referenced seat has no ticket
// record for the event.
var ErrSeatNotFound = errors.New("seat has no ticket for this event")

// ErrAlreadyBooked is returned when a seat's ticket is not AVAILABLE.
var ErrAlreadyBooked = errors.New("seat is already booked")

// ErrVersionConflict is returned when a persistent write raced past
// the distributed lock. With a correct lock coordinator this should
// not happen; the version check is a second line of defense. Same
// retry guidance as ErrSeatContended.
var ErrVersionConflict = errors.New("ticket was modified concurrently")

// ErrUnavailable is returned when the lock store or the ticket store
// is unreachable. It is transient: callers should retry with backoff
// and must never treat it as "seat unavailable".
var ErrUnavailable = errors.New("booking infrastructure unavailable")

// ErrInvalidRequest is returned for requests the engine refuses to
// start: empty seat set or missing buyer.
var ErrInvalidRequest = errors.New("invalid purchase request")
