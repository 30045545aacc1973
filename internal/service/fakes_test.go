package service_test

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/eventlyhq/evently/internal/domain/attendee"
	"github.com/eventlyhq/evently/internal/domain/event"
	"github.com/eventlyhq/evently/internal/domain/job"
	"github.com/eventlyhq/evently/internal/domain/registration"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Shared fakes for the service tests. Function fields so each test case
// plugs in only the behavior it needs.

// fakeTx satisfies pgx.Tx just enough to observe commit/rollback. The
// repos under test here are fakes too, so no SQL ever reaches it.
type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }

func (t *fakeTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (t *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }

func (t *fakeTx) Conn() *pgx.Conn { return nil }

type fakeRegsRepo struct {
	tx                *fakeTx
	createTxFn        func(ctx context.Context, tx pgx.Tx, eventID, attendeeID string) (registration.Registration, event.Event, attendee.Attendee, error)
	listByEventFn     func(ctx context.Context, eventID string) ([]registration.WithSummary, error)
	countForEventFn   func(ctx context.Context, eventID string) (int, error)
	countAttendeeFn   func(ctx context.Context, attendeeID string) (int, error)
	getByIDTxFn       func(ctx context.Context, tx pgx.Tx, id string) (registration.Registration, event.Event, attendee.Attendee, error)
	deleteTxFn        func(ctx context.Context, tx pgx.Tx, id string) error
	countForEventTxFn func(ctx context.Context, tx pgx.Tx, eventID string) (int, error)
}

func (f *fakeRegsRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	if f.tx == nil {
		f.tx = &fakeTx{}
	}
	return f.tx, nil
}

func (f *fakeRegsRepo) CreateTx(ctx context.Context, tx pgx.Tx, eventID, attendeeID string) (registration.Registration, event.Event, attendee.Attendee, error) {
	if f.createTxFn != nil {
		return f.createTxFn(ctx, tx, eventID, attendeeID)
	}
	return registration.Registration{}, event.Event{}, attendee.Attendee{}, nil
}

func (f *fakeRegsRepo) ListByEvent(ctx context.Context, eventID string) ([]registration.WithSummary, error) {
	if f.listByEventFn != nil {
		return f.listByEventFn(ctx, eventID)
	}
	return nil, nil
}

func (f *fakeRegsRepo) CountForEvent(ctx context.Context, eventID string) (int, error) {
	if f.countForEventFn != nil {
		return f.countForEventFn(ctx, eventID)
	}
	return 0, nil
}

func (f *fakeRegsRepo) CountForAttendee(ctx context.Context, attendeeID string) (int, error) {
	if f.countAttendeeFn != nil {
		return f.countAttendeeFn(ctx, attendeeID)
	}
	return 0, nil
}

func (f *fakeRegsRepo) GetByIDTx(ctx context.Context, tx pgx.Tx, id string) (registration.Registration, event.Event, attendee.Attendee, error) {
	if f.getByIDTxFn != nil {
		return f.getByIDTxFn(ctx, tx, id)
	}
	return registration.Registration{}, event.Event{}, attendee.Attendee{}, nil
}

func (f *fakeRegsRepo) DeleteTx(ctx context.Context, tx pgx.Tx, id string) error {
	if f.deleteTxFn != nil {
		return f.deleteTxFn(ctx, tx, id)
	}
	return nil
}

func (f *fakeRegsRepo) CountForEventTx(ctx context.Context, tx pgx.Tx, eventID string) (int, error) {
	if f.countForEventTxFn != nil {
		return f.countForEventTxFn(ctx, tx, eventID)
	}
	return 0, nil
}

type fakeEventsRepo struct {
	createFn     func(ctx context.Context, req event.CreateEventRequest) (event.Event, error)
	overlapFn    func(ctx context.Context, date time.Time, location string, window time.Duration, excludeID string) (bool, error)
	listFn       func(ctx context.Context, filter event.ListEventsFilter) ([]event.Event, int, error)
	getFn        func(ctx context.Context, id string) (event.Event, error)
	updateFn     func(ctx context.Context, e event.Event) (event.Event, error)
	deleteFn     func(ctx context.Context, id string) error
	mostRegsFn   func(ctx context.Context) (event.EventWithCount, error)
	overlapCalls int
}

func (f *fakeEventsRepo) Create(ctx context.Context, req event.CreateEventRequest) (event.Event, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req)
	}
	return event.Event{}, nil
}

func (f *fakeEventsRepo) FindOverlapping(ctx context.Context, date time.Time, location string, window time.Duration, excludeID string) (bool, error) {
	f.overlapCalls++
	if f.overlapFn != nil {
		return f.overlapFn(ctx, date, location, window, excludeID)
	}
	return false, nil
}

func (f *fakeEventsRepo) List(ctx context.Context, filter event.ListEventsFilter) ([]event.Event, int, error) {
	if f.listFn != nil {
		return f.listFn(ctx, filter)
	}
	return nil, 0, nil
}

func (f *fakeEventsRepo) GetByID(ctx context.Context, id string) (event.Event, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return event.Event{}, nil
}

func (f *fakeEventsRepo) Update(ctx context.Context, e event.Event) (event.Event, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, e)
	}
	return e, nil
}

func (f *fakeEventsRepo) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

func (f *fakeEventsRepo) MostRegistrations(ctx context.Context) (event.EventWithCount, error) {
	if f.mostRegsFn != nil {
		return f.mostRegsFn(ctx)
	}
	return event.EventWithCount{}, nil
}

type fakeAttendeesRepo struct {
	createFn func(ctx context.Context, req attendee.CreateAttendeeRequest) (attendee.Attendee, error)
	existsFn func(ctx context.Context, email string) (bool, error)
	getFn    func(ctx context.Context, id string) (attendee.Attendee, error)
	listFn   func(ctx context.Context, filter attendee.ListAttendeesFilter) ([]attendee.Attendee, error)
	deleteFn func(ctx context.Context, id string) error
}

func (f *fakeAttendeesRepo) Create(ctx context.Context, req attendee.CreateAttendeeRequest) (attendee.Attendee, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req)
	}
	return attendee.Attendee{}, nil
}

func (f *fakeAttendeesRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if f.existsFn != nil {
		return f.existsFn(ctx, email)
	}
	return false, nil
}

func (f *fakeAttendeesRepo) GetByID(ctx context.Context, id string) (attendee.Attendee, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return attendee.Attendee{}, nil
}

func (f *fakeAttendeesRepo) List(ctx context.Context, filter attendee.ListAttendeesFilter) ([]attendee.Attendee, error) {
	if f.listFn != nil {
		return f.listFn(ctx, filter)
	}
	return nil, nil
}

func (f *fakeAttendeesRepo) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

type fakeJobs struct {
	created   []job.CreateRequest
	createdTx []job.CreateRequest
}

func (f *fakeJobs) Create(ctx context.Context, req job.CreateRequest) (job.Job, error) {
	f.created = append(f.created, req)
	return job.New(req), nil
}

func (f *fakeJobs) CreateTx(ctx context.Context, tx pgx.Tx, req job.CreateRequest) (job.Job, error) {
	f.createdTx = append(f.createdTx, req)
	return job.New(req), nil
}

// fakeCache is a tiny in-memory stand-in for the redis gateway.
type fakeCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (c *fakeCache) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, out)
}

func (c *fakeCache) SetJSON(ctx context.Context, key string, val any) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, k := range keys {
		delete(c.data, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

type broadcastCall struct {
	room  string // empty for global broadcasts
	event string
	data  any
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []broadcastCall
}

func (n *fakeNotifier) Broadcast(eventName string, data any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, broadcastCall{event: eventName, data: data})
}

func (n *fakeNotifier) BroadcastToEvent(eventID, eventName string, data any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, broadcastCall{room: eventID, event: eventName, data: data})
}

func (n *fakeNotifier) events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]string, 0, len(n.calls))
	for _, c := range n.calls {
		out = append(out, c.event)
	}
	return out
}
