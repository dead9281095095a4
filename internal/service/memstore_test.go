package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iliyamo/event-ticketing/internal/domain"
	"github.com/iliyamo/event-ticketing/internal/model"
)

type memTxKey struct{}

type memCustomer struct {
	name      string
	tier      string
	purchases int
}

type memState struct {
	customers map[string]memCustomer
	events    map[model.EventKey]string
	seats     map[model.SeatKey]model.EventSeat
	orders    map[uint64]model.Order
	tickets   map[string]model.Ticket
	checkins  map[string]model.CheckIn
	nextOrder uint64
}

func (s memState) clone() memState {
	c := memState{
		customers: make(map[string]memCustomer, len(s.customers)),
		events:    make(map[model.EventKey]string, len(s.events)),
		seats:     make(map[model.SeatKey]model.EventSeat, len(s.seats)),
		orders:    make(map[uint64]model.Order, len(s.orders)),
		tickets:   make(map[string]model.Ticket, len(s.tickets)),
		checkins:  make(map[string]model.CheckIn, len(s.checkins)),
		nextOrder: s.nextOrder,
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	for k, v := range s.seats {
		c.seats[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.tickets {
		c.tickets[k] = v
	}
	for k, v := range s.checkins {
		c.checkins[k] = v
	}
	return c
}

// memStore is an in-memory store for the workflows.  WithTx serializes
// transactions and restores a snapshot when the callback fails, which
// models the row locks and rollback of the real store.
type memStore struct {
	mu sync.Mutex
	memState

	// commitConflicts makes the next n commits fail with ErrTxConflict.
	commitConflicts int
	// ticketErr, when set, is consulted before every ticket insert.
	ticketErr func(call int) error

	// afterCandidates runs after LoyaltyCandidates, inside the same
	// transaction, to stand in for a write the candidate read missed.
	afterCandidates func(m *memStore)

	txCalls     int
	ticketCalls int
}

func newMemStore() *memStore {
	return &memStore{memState: memState{
		customers: map[string]memCustomer{},
		events:    map[model.EventKey]string{},
		seats:     map[model.SeatKey]model.EventSeat{},
		orders:    map[uint64]model.Order{},
		tickets:   map[string]model.Ticket{},
		checkins:  map[string]model.CheckIn{},
	}}
}

var testEvent = model.EventKey{
	Name:         "Rock Night",
	Date:         "2025-12-01",
	VenueName:    "Main Arena",
	VenueAddress: "1 Main St",
}

func (m *memStore) addCustomer(email, name, tier string, purchases int) {
	m.customers[email] = memCustomer{name: name, tier: tier, purchases: purchases}
}

func (m *memStore) addEvent(key model.EventKey, status string) { m.events[key] = status }

func (m *memStore) addSeat(key model.EventKey, section, row, number string, price model.Money, status string) {
	ref := model.SeatRef{Section: section, Row: row, Number: number}
	m.seats[model.SeatKey{Event: key, Seat: ref}] = model.EventSeat{SeatRef: ref, Price: price, AvailabilityStatus: status}
}

func (m *memStore) seatStatus(key model.EventKey, section, row, number string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seats[model.SeatKey{Event: key, Seat: model.SeatRef{Section: section, Row: row, Number: number}}].AvailabilityStatus
}

func (m *memStore) counts() (orders, tickets int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders), len(m.tickets)
}

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCalls++

	snap := m.memState.clone()
	err := fn(context.WithValue(ctx, memTxKey{}, true))
	if err == nil && m.commitConflicts > 0 {
		m.commitConflicts--
		err = errors.Join(domain.ErrTxConflict, errors.New("Deadlock found when trying to get lock"))
	}
	if err != nil {
		m.memState = snap
		return err
	}
	return nil
}

func mustTx(ctx context.Context) {
	if ctx.Value(memTxKey{}) == nil {
		panic("store method called outside WithTx")
	}
}

func (m *memStore) CustomerExists(ctx context.Context, email string) (bool, error) {
	mustTx(ctx)
	_, ok := m.customers[email]
	return ok, nil
}

func (m *memStore) EventExists(ctx context.Context, key model.EventKey) (bool, error) {
	mustTx(ctx)
	_, ok := m.events[key]
	return ok, nil
}

func (m *memStore) LockSeat(ctx context.Context, key model.SeatKey) (model.EventSeat, bool, error) {
	mustTx(ctx)
	s, ok := m.seats[key]
	return s, ok, nil
}

func (m *memStore) CreateOrder(ctx context.Context, o *model.Order) error {
	mustTx(ctx)
	m.nextOrder++
	o.OrderNum = m.nextOrder
	o.OrderDate = time.Now()
	m.orders[o.OrderNum] = *o
	return nil
}

func (m *memStore) CreateTicket(ctx context.Context, t *model.Ticket) error {
	mustTx(ctx)
	m.ticketCalls++
	if m.ticketErr != nil {
		if err := m.ticketErr(m.ticketCalls); err != nil {
			return err
		}
	}
	if _, dup := m.tickets[t.QRCode]; dup {
		return domain.ErrDuplicateQRCode
	}
	for _, existing := range m.tickets {
		if existing.Seat == t.Seat {
			return domain.Storage("create ticket", fmt.Errorf("duplicate seat %s", t.Seat.Seat.Label()))
		}
	}
	t.IssueDate = time.Now()
	m.tickets[t.QRCode] = *t
	return nil
}

func (m *memStore) MarkSeatSold(ctx context.Context, key model.SeatKey) (bool, error) {
	mustTx(ctx)
	s, ok := m.seats[key]
	if !ok || s.AvailabilityStatus != model.SeatAvailable {
		return false, nil
	}
	s.AvailabilityStatus = model.SeatSold
	m.seats[key] = s
	return true, nil
}

func (m *memStore) TicketForUpdate(ctx context.Context, qrCode string) (model.TicketDetail, error) {
	mustTx(ctx)
	t, ok := m.tickets[qrCode]
	if !ok {
		return model.TicketDetail{}, domain.ErrTicketNotFound
	}
	return model.TicketDetail{
		QRCode:       t.QRCode,
		Status:       t.Status,
		OrderNum:     t.OrderNum,
		EventName:    t.Seat.Event.Name,
		EventDate:    t.Seat.Event.Date,
		VenueName:    t.Seat.Event.VenueName,
		VenueAddress: t.Seat.Event.VenueAddress,
		Section:      t.Seat.Seat.Section,
		Row:          t.Seat.Seat.Row,
		Number:       t.Seat.Seat.Number,
		Seat:         t.Seat.Seat.Label(),
	}, nil
}

func (m *memStore) CheckInFor(ctx context.Context, qrCode string) (*model.CheckIn, error) {
	mustTx(ctx)
	ci, ok := m.checkins[qrCode]
	if !ok {
		return nil, nil
	}
	return &ci, nil
}

func (m *memStore) CreateCheckIn(ctx context.Context, qrCode, gate string) (model.CheckIn, error) {
	mustTx(ctx)
	if _, ok := m.checkins[qrCode]; ok {
		return model.CheckIn{}, domain.ErrAlreadyCheckedIn
	}
	ci := model.CheckIn{QRCode: qrCode, CheckinTime: time.Now().Truncate(time.Second), Gate: gate}
	m.checkins[qrCode] = ci
	return ci, nil
}

func (m *memStore) LoyaltyCandidates(ctx context.Context, minPurchases int, belowTiers []string) ([]model.LoyaltyCandidate, error) {
	mustTx(ctx)
	below := map[string]bool{"": true}
	for _, t := range belowTiers {
		below[t] = true
	}
	var out []model.LoyaltyCandidate
	for email, c := range m.customers {
		if c.purchases >= minPurchases && below[c.tier] {
			out = append(out, model.LoyaltyCandidate{Email: email, Name: c.name, CurrentTier: c.tier, PurchaseCount: c.purchases})
		}
	}
	if m.afterCandidates != nil {
		m.afterCandidates(m)
	}
	return out, nil
}

func (m *memStore) UpdateTier(ctx context.Context, emails []string, tier string, fromTiers []string) (int64, error) {
	mustTx(ctx)
	from := map[string]bool{"": true}
	for _, t := range fromTiers {
		from[t] = true
	}
	var n int64
	for _, e := range emails {
		c, ok := m.customers[e]
		if !ok || !from[c.tier] {
			continue
		}
		c.tier = tier
		m.customers[e] = c
		n++
	}
	return n, nil
}

func (m *memStore) EventForUpdate(ctx context.Context, key model.EventKey) (model.Event, error) {
	mustTx(ctx)
	st, ok := m.events[key]
	if !ok {
		return model.Event{}, domain.ErrEventNotFound
	}
	return model.Event{EventKey: key, Status: st}, nil
}

func (m *memStore) UpdateEventStatus(ctx context.Context, key model.EventKey, status string) error {
	mustTx(ctx)
	if _, ok := m.events[key]; !ok {
		return domain.ErrEventNotFound
	}
	m.events[key] = status
	return nil
}
