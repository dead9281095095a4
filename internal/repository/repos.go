package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// Repos bundles the table repositories over one Store.  It satisfies the
// storage interfaces of the service package so that every workflow sees
// a single transaction scope.
type Repos struct {
	*Store
	Customers *CustomerRepo
	Events    *EventRepo
	Seats     *EventSeatRepo
	Orders    *OrderRepo
	Tickets   *TicketRepo
	CheckIns  *CheckInRepo
	Venues    *VenueRepo
	Reports   *ReportRepo
}

func NewRepos(db *sql.DB) *Repos {
	s := NewStore(db)
	return &Repos{
		Store:     s,
		Customers: NewCustomerRepo(s),
		Events:    NewEventRepo(s),
		Seats:     NewEventSeatRepo(s),
		Orders:    NewOrderRepo(s),
		Tickets:   NewTicketRepo(s),
		CheckIns:  NewCheckInRepo(s),
		Venues:    NewVenueRepo(s),
		Reports:   NewReportRepo(s),
	}
}

// purchase

func (r *Repos) CustomerExists(ctx context.Context, email string) (bool, error) {
	return r.Customers.Exists(ctx, email)
}

func (r *Repos) EventExists(ctx context.Context, key model.EventKey) (bool, error) {
	return r.Events.Exists(ctx, key)
}

func (r *Repos) LockSeat(ctx context.Context, key model.SeatKey) (model.EventSeat, bool, error) {
	return r.Seats.GetForUpdate(ctx, key)
}

func (r *Repos) CreateOrder(ctx context.Context, o *model.Order) error {
	return r.Orders.Create(ctx, o)
}

func (r *Repos) CreateTicket(ctx context.Context, t *model.Ticket) error {
	return r.Tickets.Create(ctx, t)
}

func (r *Repos) MarkSeatSold(ctx context.Context, key model.SeatKey) (bool, error) {
	return r.Seats.UpdateStatus(ctx, key, model.SeatAvailable, model.SeatSold)
}

// check-in

func (r *Repos) TicketForUpdate(ctx context.Context, qrCode string) (model.TicketDetail, error) {
	return r.Tickets.GetDetailForUpdate(ctx, qrCode)
}

func (r *Repos) CheckInFor(ctx context.Context, qrCode string) (*model.CheckIn, error) {
	return r.CheckIns.Get(ctx, qrCode)
}

func (r *Repos) CreateCheckIn(ctx context.Context, qrCode, gate string) (model.CheckIn, error) {
	return r.CheckIns.Create(ctx, qrCode, gate)
}

// loyalty

func (r *Repos) LoyaltyCandidates(ctx context.Context, minPurchases int, belowTiers []string) ([]model.LoyaltyCandidate, error) {
	return r.Customers.LoyaltyCandidatesForUpdate(ctx, minPurchases, belowTiers)
}

func (r *Repos) UpdateTier(ctx context.Context, emails []string, tier string, fromTiers []string) (int64, error) {
	return r.Customers.UpdateTier(ctx, emails, tier, fromTiers)
}

// event status

func (r *Repos) EventForUpdate(ctx context.Context, key model.EventKey) (model.Event, error) {
	return r.Events.GetForUpdate(ctx, key)
}

func (r *Repos) UpdateEventStatus(ctx context.Context, key model.EventKey, status string) error {
	return r.Events.UpdateStatus(ctx, key, status)
}

// read side

func (r *Repos) ListEvents(ctx context.Context, f model.EventFilter) ([]model.EventSummary, error) {
	return r.Events.List(ctx, f)
}

func (r *Repos) History(ctx context.Context, email string) ([]model.HistoryEntry, error) {
	return r.Customers.History(ctx, email)
}

func (r *Repos) TicketByQRCode(ctx context.Context, qrCode string) (model.TicketDetail, error) {
	return r.Tickets.GetDetail(ctx, qrCode)
}

func (r *Repos) SalesReport(ctx context.Context, f model.SalesFilter) ([]model.SalesReport, error) {
	return r.Reports.Sales(ctx, f)
}

func (r *Repos) ListVenues(ctx context.Context) ([]model.Venue, error) {
	return r.Venues.List(ctx)
}

func (r *Repos) ListSeats(ctx context.Context, eventName, eventDate string) ([]model.EventSeat, error) {
	return r.Seats.ListByEvent(ctx, eventName, eventDate)
}
