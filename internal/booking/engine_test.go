package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepika/ticketvelo/internal/model"
	"github.com/deepika/ticketvelo/internal/queue"
	"github.com/deepika/ticketvelo/internal/repository"
)

// memLock is an in-memory Coordinator with real TTL expiry. It mirrors
// the Redis semantics the engine relies on: system-wide
// acquire-if-absent and idempotent release.
type memLock struct {
	mu       sync.Mutex
	held     map[string]time.Time
	blockErr error // when set, Acquire reports the store unreachable
}

func newMemLock() *memLock {
	return &memLock{held: make(map[string]time.Time)}
}

func (l *memLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.blockErr != nil {
		return false, l.blockErr
	}
	if exp, ok := l.held[key]; ok && time.Now().Before(exp) {
		return false, nil
	}
	l.held[key] = time.Now().Add(ttl)
	return true, nil
}

func (l *memLock) Release(ctx context.Context, key string) error {
	// A dead request context fails the network round trip, same as the
	// real client.
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

func (l *memLock) heldCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, exp := range l.held {
		if time.Now().Before(exp) {
			n++
		}
	}
	return n
}

// memStore is an in-memory TicketStore with the same version CAS the
// MySQL repository performs.
type memStore struct {
	mu      sync.Mutex
	tickets  map[[2]uint64]*model.Ticket
	nextID   uint64
	saveErr  error   // when set, Save fails with this before the CAS
	failSeat uint64  // when set, saveErr applies only to this seat
	findErr  error   // when set, FindByEventAndSeat fails with this
	onSave   func() // called after every successful save
}

func newMemStore() *memStore {
	return &memStore{tickets: make(map[[2]uint64]*model.Ticket), nextID: 1}
}

func (s *memStore) seed(eventID, seatID uint64) *model.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &model.Ticket{
		ID:      s.nextID,
		EventID: eventID,
		SeatID:  seatID,
		Status:  model.TicketAvailable,
		Version: 0,
	}
	s.nextID++
	s.tickets[[2]uint64{eventID, seatID}] = t
	return t
}

func (s *memStore) get(eventID, seatID uint64) model.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.tickets[[2]uint64{eventID, seatID}]
}

func (s *memStore) FindByEventAndSeat(ctx context.Context, eventID, seatID uint64) (*model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	t, ok := s.tickets[[2]uint64{eventID, seatID}]
	if !ok {
		return nil, repository.ErrTicketNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memStore) Save(ctx context.Context, t *model.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil && (s.failSeat == 0 || s.failSeat == t.SeatID) {
		return s.saveErr
	}
	cur, ok := s.tickets[[2]uint64{t.EventID, t.SeatID}]
	if !ok {
		return repository.ErrTicketNotFound
	}
	if cur.Version != t.Version {
		return repository.ErrStaleVersion
	}
	cp := *t
	cp.Version++
	s.tickets[[2]uint64{t.EventID, t.SeatID}] = &cp
	t.Version = cp.Version
	if s.onSave != nil {
		s.onSave()
	}
	return nil
}

func (s *memStore) ListByEvent(ctx context.Context, eventID uint64) ([]model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Ticket
	for _, t := range s.tickets {
		if t.EventID == eventID {
			out = append(out, *t)
		}
	}
	return out, nil
}

// recordPub captures published confirmations.
type recordPub struct {
	mu     sync.Mutex
	events []queue.TicketConfirmedEvent
	err    error
}

func (p *recordPub) PublishTicketConfirmed(ctx context.Context, ev queue.TicketConfirmedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordPub) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func newTestEngine(ttl time.Duration) (*Engine, *memStore, *memLock, *recordPub) {
	store := newMemStore()
	locks := newMemLock()
	pub := &recordPub{}
	return NewEngine(store, locks, pub, ttl), store, locks, pub
}

func TestPurchase_SingleSeat(t *testing.T) {
	engine, store, locks, pub := newTestEngine(time.Second)
	store.seed(1, 1)

	result, err := engine.Purchase(context.Background(), 1, []uint64{1}, 42)
	require.NoError(t, err)
	require.Len(t, result.Tickets, 1)

	got := store.get(1, 1)
	assert.Equal(t, model.TicketBooked, got.Status)
	require.NotNil(t, got.OwnerID)
	assert.Equal(t, uint64(42), *got.OwnerID)
	assert.Equal(t, uint32(1), got.Version, "one successful purchase bumps version 0 -> 1")

	assert.Equal(t, 1, pub.count())
	assert.Equal(t, 0, locks.heldCount(), "no lock outlives the request")
	assert.Contains(t, pub.events[0].Message, "confirmed for user 42")
}

func TestPurchase_ConcurrentBuyersSingleSeat(t *testing.T) {
	engine, store, locks, _ := newTestEngine(time.Second)
	store.seed(1, 1)

	const buyers = 10
	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.Purchase(context.Background(), 1, []uint64{1}, uint64(i+1))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		if !errors.Is(err, ErrSeatContended) && !errors.Is(err, ErrAlreadyBooked) {
			t.Errorf("loser got unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, winners, "exactly one buyer wins the seat")

	got := store.get(1, 1)
	assert.Equal(t, model.TicketBooked, got.Status)
	require.NotNil(t, got.OwnerID)
	assert.GreaterOrEqual(t, *got.OwnerID, uint64(1))
	assert.LessOrEqual(t, *got.OwnerID, uint64(buyers))
	assert.Equal(t, uint32(1), got.Version, "losers must not bump the version")
	assert.Equal(t, 0, locks.heldCount())
}

func TestPurchase_BatchAbortsWhenOneSeatContended(t *testing.T) {
	engine, store, locks, pub := newTestEngine(time.Second)
	store.seed(1, 1)
	store.seed(1, 2)

	// Another in-flight request already holds seat 2.
	ok, err := locks.Acquire(context.Background(), "lock:event:1:seat:2", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = engine.Purchase(context.Background(), 1, []uint64{1, 2}, 7)
	require.ErrorIs(t, err, ErrSeatContended)
	assert.Contains(t, err.Error(), "seat 2")

	// No partial state: seat 1 was locked first, then rolled back.
	got := store.get(1, 1)
	assert.Equal(t, model.TicketAvailable, got.Status)
	assert.Nil(t, got.OwnerID)
	assert.Equal(t, uint32(0), got.Version)
	assert.Equal(t, 0, pub.count())
	assert.Equal(t, 1, locks.heldCount(), "only the foreign lock remains held")
}

func TestPurchase_OverlappingBatchesNeverDeadlock(t *testing.T) {
	const ttl = 2 * time.Second
	engine, store, _, _ := newTestEngine(ttl)
	store.seed(1, 1)
	store.seed(1, 2)

	// Opposite input orders; canonical sorting must make both lock
	// seat 1 before seat 2.
	done := make(chan error, 2)
	go func() {
		_, err := engine.Purchase(context.Background(), 1, []uint64{1, 2}, 100)
		done <- err
	}()
	go func() {
		_, err := engine.Purchase(context.Background(), 1, []uint64{2, 1}, 200)
		done <- err
	}()

	// Completion must be bounded well under twice the lock TTL.
	deadline := time.After(2*ttl - 500*time.Millisecond)
	var results []error
	for i := 0; i < 2; i++ {
		select {
		case err := <-done:
			results = append(results, err)
		case <-deadline:
			t.Fatal("purchases deadlocked")
		}
	}

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		}
	}
	assert.LessOrEqual(t, wins, 1, "both batches cannot win the same seats")

	got := store.get(1, 1)
	if wins == 1 {
		assert.Equal(t, model.TicketBooked, got.Status)
	}
}

func TestPurchase_AlreadyBookedIsStable(t *testing.T) {
	engine, store, _, _ := newTestEngine(time.Second)
	store.seed(1, 1)

	_, err := engine.Purchase(context.Background(), 1, []uint64{1}, 5)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = engine.Purchase(context.Background(), 1, []uint64{1}, 6)
		require.ErrorIs(t, err, ErrAlreadyBooked)
	}

	got := store.get(1, 1)
	require.NotNil(t, got.OwnerID)
	assert.Equal(t, uint64(5), *got.OwnerID, "owner never changes once BOOKED")
	assert.Equal(t, uint32(1), got.Version, "rejected purchases must not double-increment")
}

func TestPurchase_MissingSeatAbortsBatch(t *testing.T) {
	engine, store, locks, pub := newTestEngine(time.Second)
	store.seed(1, 1)
	// seat 2 has no ticket for this event

	_, err := engine.Purchase(context.Background(), 1, []uint64{1, 2}, 9)
	require.ErrorIs(t, err, ErrSeatNotFound)
	assert.Contains(t, err.Error(), "seat 2")

	got := store.get(1, 1)
	assert.Equal(t, model.TicketAvailable, got.Status)
	assert.Equal(t, uint32(0), got.Version)
	assert.Equal(t, 0, pub.count())
	assert.Equal(t, 0, locks.heldCount())
}

func TestPurchase_BookedSeatAbortsBatch(t *testing.T) {
	engine, store, locks, pub := newTestEngine(time.Second)
	store.seed(1, 1)
	store.seed(1, 2)
	_, err := engine.Purchase(context.Background(), 1, []uint64{2}, 5)
	require.NoError(t, err)

	_, err = engine.Purchase(context.Background(), 1, []uint64{1, 2}, 7)
	require.ErrorIs(t, err, ErrAlreadyBooked)
	assert.Contains(t, err.Error(), "seat 2")

	got := store.get(1, 1)
	assert.Equal(t, model.TicketAvailable, got.Status, "seat 1 validated first must not be sold")
	assert.Nil(t, got.OwnerID)
	assert.Equal(t, uint32(0), got.Version)

	got = store.get(1, 2)
	require.NotNil(t, got.OwnerID)
	assert.Equal(t, uint64(5), *got.OwnerID, "the earlier sale is untouched")
	assert.Equal(t, 1, pub.count(), "only the first sale published")
	assert.Equal(t, 0, locks.heldCount())
}

func TestPurchase_WriteFailureRevertsEarlierSeats(t *testing.T) {
	engine, store, locks, pub := newTestEngine(time.Second)
	store.seed(1, 1)
	store.seed(1, 2)
	store.saveErr = repository.ErrStaleVersion
	store.failSeat = 2

	_, err := engine.Purchase(context.Background(), 1, []uint64{1, 2}, 9)
	require.ErrorIs(t, err, ErrVersionConflict)
	assert.Contains(t, err.Error(), "seat 2")

	got := store.get(1, 1)
	assert.Equal(t, model.TicketAvailable, got.Status, "seat written before the failure is reverted")
	assert.Nil(t, got.OwnerID)
	assert.Equal(t, 0, pub.count())
	assert.Equal(t, 0, locks.heldCount())
}

func TestPurchase_ReleaseSurvivesRequestCancellation(t *testing.T) {
	engine, store, locks, _ := newTestEngine(time.Second)
	store.seed(1, 1)

	// The request deadline passes while the write is in flight.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.onSave = cancel

	_, err := engine.Purchase(ctx, 1, []uint64{1}, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, locks.heldCount(), "locks are released even after the request context died")
}

func TestPurchase_StaleVersionAbortsBatch(t *testing.T) {
	engine, store, locks, _ := newTestEngine(time.Second)
	store.seed(1, 1)
	store.saveErr = repository.ErrStaleVersion

	_, err := engine.Purchase(context.Background(), 1, []uint64{1}, 3)
	require.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, 0, locks.heldCount())
}

func TestPurchase_LockStoreDownFailsClosed(t *testing.T) {
	engine, store, locks, _ := newTestEngine(time.Second)
	store.seed(1, 1)
	locks.blockErr = errors.New("connection refused")

	_, err := engine.Purchase(context.Background(), 1, []uint64{1}, 3)
	require.ErrorIs(t, err, ErrUnavailable)

	got := store.get(1, 1)
	assert.Equal(t, model.TicketAvailable, got.Status, "unreachable lock store must never sell a seat")
}

func TestPurchase_PublishFailureDoesNotRollBack(t *testing.T) {
	engine, store, _, pub := newTestEngine(time.Second)
	seeded := store.seed(1, 1)
	pub.err = errors.New("broker down")

	result, err := engine.Purchase(context.Background(), 1, []uint64{1}, 8)
	require.NoError(t, err, "the sale is durable once the write committed")
	assert.Equal(t, []uint64{seeded.ID}, result.PublishFailed)

	got := store.get(1, 1)
	assert.Equal(t, model.TicketBooked, got.Status)
}

func TestPurchase_ValidatesRequest(t *testing.T) {
	engine, store, _, _ := newTestEngine(time.Second)
	store.seed(1, 1)

	_, err := engine.Purchase(context.Background(), 1, []uint64{1}, 0)
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = engine.Purchase(context.Background(), 1, nil, 4)
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = engine.Purchase(context.Background(), 1, []uint64{0}, 4)
	require.ErrorIs(t, err, ErrInvalidRequest, "zero seat ids are discarded")
}

func TestPurchase_DeduplicatesSeats(t *testing.T) {
	engine, store, _, pub := newTestEngine(time.Second)
	store.seed(1, 1)

	result, err := engine.Purchase(context.Background(), 1, []uint64{1, 1, 1}, 4)
	require.NoError(t, err)
	assert.Len(t, result.Tickets, 1)
	assert.Equal(t, 1, pub.count())
	assert.Equal(t, uint32(1), store.get(1, 1).Version)
}

func TestListSoldForEvent_FiltersBooked(t *testing.T) {
	engine, store, _, _ := newTestEngine(time.Second)
	store.seed(1, 1)
	store.seed(1, 2)
	store.seed(2, 1)

	_, err := engine.Purchase(context.Background(), 1, []uint64{2}, 11)
	require.NoError(t, err)

	sold, err := engine.ListSoldForEvent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, sold, 1)
	assert.Equal(t, uint64(2), sold[0].SeatID)

	all, err := engine.ListForEvent(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCanonicalize(t *testing.T) {
	assert.Equal(t, []uint64{1, 2, 9}, canonicalize([]uint64{9, 2, 1, 2, 0}))
	assert.Empty(t, canonicalize([]uint64{0}))
}
