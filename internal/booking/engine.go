// Package booking implements the purchase engine: the protocol that
// combines a short-lived distributed lock with a version-checked
// ticket store to make seat allocation race free, plus the canonical
// batch ordering that prevents deadlock when several seats are locked
// at once. The engine is stateless between calls; all shared state
// lives behind the TicketStore and lock.Coordinator it is given.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/deepika/ticketvelo/internal/lock"
	"github.com/deepika/ticketvelo/internal/model"
	"github.com/deepika/ticketvelo/internal/queue"
	"github.com/deepika/ticketvelo/internal/repository"
)

// DefaultLockTTL must exceed the expected duration of the critical
// section for a whole batch. There is no renewal: the TTL is only a
// crash-recovery backstop, every normal path releases explicitly.
const DefaultLockTTL = 5 * time.Second

// TicketStore is the persistent record store the engine transitions
// tickets through. Save must perform a compare-and-swap on the stored
// version and fail with repository.ErrStaleVersion on mismatch,
// distinct from repository.ErrTicketNotFound.
type TicketStore interface {
	FindByEventAndSeat(ctx context.Context, eventID, seatID uint64) (*model.Ticket, error)
	Save(ctx context.Context, t *model.Ticket) error
	ListByEvent(ctx context.Context, eventID uint64) ([]model.Ticket, error)
}

// ConfirmationPublisher appends a confirmation message to the ordered
// feed. The send result never affects the sale.
type ConfirmationPublisher interface {
	PublishTicketConfirmed(ctx context.Context, event queue.TicketConfirmedEvent) error
}

// PurchaseResult is the outcome of a successful purchase. Tickets
// holds the now-BOOKED records in canonical seat order. PublishFailed
// lists ticket ids whose confirmation event could not be sent; the
// sale itself is durable regardless, so this is a soft warning only.
type PurchaseResult struct {
	Tickets       []model.Ticket
	PublishFailed []uint64
}

// Engine executes logical purchase requests with all-or-nothing seat
// allocation per request.
type Engine struct {
	store   TicketStore
	locks   lock.Coordinator
	pub     ConfirmationPublisher
	lockTTL time.Duration
}

// NewEngine constructs an Engine. A non-positive ttl falls back to
// DefaultLockTTL.
func NewEngine(store TicketStore, locks lock.Coordinator, pub ConfirmationPublisher, ttl time.Duration) *Engine {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &Engine{store: store, locks: locks, pub: pub, lockTTL: ttl}
}

// Purchase sells the given seats of an event to buyerID as one atomic
// unit: either every seat ends up BOOKED by this call or none does.
//
// Seat ids are deduplicated and sorted ascending before any lock is
// taken. The fixed total order is mandatory: two concurrent requests
// that both touch seats {A, B} must attempt their locks in the same
// relative order, or each may hold one lock and wait forever for the
// other. Locks are then acquired for every seat, every ticket row is
// read and validated under those locks before any row is written, the
// validated rows are transitioned with a version-checked save, one
// confirmation event per sold seat is published best effort, and all
// locks are released on every exit path.
func (e *Engine) Purchase(ctx context.Context, eventID uint64, seatIDs []uint64, buyerID uint64) (*PurchaseResult, error) {
	if buyerID == 0 {
		return nil, fmt.Errorf("buyer id required: %w", ErrInvalidRequest)
	}
	seats := canonicalize(seatIDs)
	if len(seats) == 0 {
		return nil, fmt.Errorf("no seats requested: %w", ErrInvalidRequest)
	}

	// Phase 1: acquire all locks in canonical order. Nothing has been
	// mutated yet, so aborting here needs no compensating writes.
	acquired := make([]string, 0, len(seats))
	defer func() {
		// Phase 4: locks never outlive the request logically, even
		// though the TTL would eventually reclaim them. The request
		// context may already be cancelled or past its deadline on
		// this path, so release runs detached from it.
		rctx := context.WithoutCancel(ctx)
		for _, key := range acquired {
			if err := e.locks.Release(rctx, key); err != nil {
				log.Printf("booking: release %s failed (TTL will reclaim): %v", key, err)
			}
		}
	}()
	for _, seatID := range seats {
		key := lock.SeatKey(eventID, seatID)
		ok, err := e.locks.Acquire(ctx, key, e.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("seat %d: lock store: %v: %w", seatID, err, ErrUnavailable)
		}
		if !ok {
			return nil, fmt.Errorf("seat %d: %w", seatID, ErrSeatContended)
		}
		acquired = append(acquired, key)
	}

	// Phase 2a: read and validate every ticket under the locks before
	// any of them is written. A batch that cannot fully succeed aborts
	// here with no record touched, so the common failures (missing
	// seat, already booked) never leave partial BOOKED state behind.
	pending := make([]*model.Ticket, 0, len(seats))
	for _, seatID := range seats {
		t, err := e.store.FindByEventAndSeat(ctx, eventID, seatID)
		if err != nil {
			if errors.Is(err, repository.ErrTicketNotFound) {
				return nil, fmt.Errorf("seat %d: %w", seatID, ErrSeatNotFound)
			}
			return nil, fmt.Errorf("seat %d: ticket store: %v: %w", seatID, err, ErrUnavailable)
		}
		if !t.IsAvailable() {
			return nil, fmt.Errorf("seat %d: %w", seatID, ErrAlreadyBooked)
		}
		pending = append(pending, t)
	}

	// Phase 2b: transition the validated tickets. Every seat passed
	// its checks and all locks are held, so a failure here means the
	// store itself rejected a write; seats already written in this
	// batch are reverted before the abort surfaces.
	sold := make([]model.Ticket, 0, len(seats))
	for _, t := range pending {
		t.Status = model.TicketBooked
		owner := buyerID
		t.OwnerID = &owner
		if err := e.store.Save(ctx, t); err != nil {
			e.revert(ctx, sold)
			if errors.Is(err, repository.ErrStaleVersion) {
				// Two writers both believed they held the lock. The
				// version check is the second line of defense.
				return nil, fmt.Errorf("seat %d: %w", t.SeatID, ErrVersionConflict)
			}
			if errors.Is(err, repository.ErrTicketNotFound) {
				return nil, fmt.Errorf("seat %d: %w", t.SeatID, ErrSeatNotFound)
			}
			return nil, fmt.Errorf("seat %d: ticket store: %v: %w", t.SeatID, err, ErrUnavailable)
		}
		sold = append(sold, *t)
	}

	// Phase 3: publish one confirmation per sold seat. The sale is
	// durable once phase 2 committed; a failed send loses only the
	// notification, never the sale.
	result := &PurchaseResult{Tickets: sold}
	for _, t := range sold {
		ev := queue.TicketConfirmedEvent{
			TicketID:    t.ID,
			EventID:     t.EventID,
			SeatID:      t.SeatID,
			OwnerID:     buyerID,
			Message:     queue.ConfirmationMessage(t.ID, buyerID),
			ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := e.pub.PublishTicketConfirmed(ctx, ev); err != nil {
			log.Printf("booking: confirmation publish for ticket %d failed: %v", t.ID, err)
			result.PublishFailed = append(result.PublishFailed, t.ID)
		}
	}

	return result, nil
}

// revert returns tickets written earlier in an aborted batch to
// AVAILABLE. The batch still holds every seat's lock, so the
// version-checked save is expected to land; a revert that fails anyway
// is logged and the row left for operators, since retrying against a
// store that just rejected a write rarely helps.
func (e *Engine) revert(ctx context.Context, written []model.Ticket) {
	for i := range written {
		t := written[i]
		t.Status = model.TicketAvailable
		t.OwnerID = nil
		if err := e.store.Save(ctx, &t); err != nil {
			log.Printf("booking: revert ticket %d failed: %v", t.ID, err)
		}
	}
}

// ListSoldForEvent returns every BOOKED ticket of an event. Pure read
// path, no locking: it is not part of a mutating critical section.
func (e *Engine) ListSoldForEvent(ctx context.Context, eventID uint64) ([]model.Ticket, error) {
	all, err := e.store.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("ticket store: %v: %w", err, ErrUnavailable)
	}
	sold := make([]model.Ticket, 0, len(all))
	for _, t := range all {
		if t.Status == model.TicketBooked {
			sold = append(sold, t)
		}
	}
	return sold, nil
}

// ListForEvent returns every ticket of an event regardless of status.
func (e *Engine) ListForEvent(ctx context.Context, eventID uint64) ([]model.Ticket, error) {
	all, err := e.store.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("ticket store: %v: %w", err, ErrUnavailable)
	}
	return all, nil
}

// canonicalize deduplicates the requested seat ids and sorts them into
// the fixed ascending order every purchase locks in.
func canonicalize(seatIDs []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(seatIDs))
	out := make([]uint64, 0, len(seatIDs))
	for _, id := range seatIDs {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
