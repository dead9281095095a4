// Package service holds the transactional workflows of the ticketing
// application.  Each workflow receives its store through a small
// interface, opens exactly one transaction scope through WithTx and
// reports failures with the error values of package domain.
package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/iliyamo/event-ticketing/internal/domain"
	"github.com/iliyamo/event-ticketing/internal/model"
)

const (
	defaultMaxQRAttempts = 3
	defaultMaxTxAttempts = 3
)

// PurchaseStore is the storage contract of the purchase workflow.  Every
// method except WithTx must be called with the context WithTx passes to
// its callback so that all reads and writes share one transaction.
type PurchaseStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CustomerExists(ctx context.Context, email string) (bool, error)
	EventExists(ctx context.Context, key model.EventKey) (bool, error)
	// LockSeat re-reads the seat inside the transaction and holds its row
	// lock until commit or rollback.
	LockSeat(ctx context.Context, key model.SeatKey) (seat model.EventSeat, found bool, err error)
	CreateOrder(ctx context.Context, o *model.Order) error
	// CreateTicket returns domain.ErrDuplicateQRCode on a code collision.
	CreateTicket(ctx context.Context, t *model.Ticket) error
	// MarkSeatSold moves the seat from AVAILABLE to SOLD and reports
	// whether a row changed.
	MarkSeatSold(ctx context.Context, key model.SeatKey) (bool, error)
}

// PurchaseRequest asks for one ticket per listed seat of a single event.
type PurchaseRequest struct {
	CustomerEmail string
	Event         model.EventKey
	PaymentMethod string
	Seats         []model.SeatRef
}

// Validate checks the request shape before any storage access.
func (r PurchaseRequest) Validate() error {
	if strings.TrimSpace(r.CustomerEmail) == "" {
		return domain.Invalid("customer_email is required")
	}
	if err := r.Event.Validate(); err != nil {
		return domain.Invalid("%s", err.Error())
	}
	if strings.TrimSpace(r.PaymentMethod) == "" {
		return domain.Invalid("payment_method is required")
	}
	if len(r.Seats) == 0 {
		return domain.Invalid("at least one seat is required")
	}
	for i, s := range r.Seats {
		if strings.TrimSpace(s.Section) == "" || strings.TrimSpace(s.Row) == "" || strings.TrimSpace(s.Number) == "" {
			return domain.Invalid("seat %d requires section, row and number", i+1)
		}
	}
	return nil
}

// PurchaseService issues tickets.  It performs no locking of its own:
// seat contention is resolved by the store's row locks inside the single
// transaction each purchase runs in.
type PurchaseService struct {
	store         PurchaseStore
	newCode       CodeFunc
	maxQRAttempts int
	maxTxAttempts int
}

// PurchaseOption customizes a PurchaseService.
type PurchaseOption func(*PurchaseService)

// WithCodeFunc replaces the QR code generator.
func WithCodeFunc(fn CodeFunc) PurchaseOption {
	return func(s *PurchaseService) { s.newCode = fn }
}

// WithMaxQRAttempts bounds how many codes are tried per ticket.
func WithMaxQRAttempts(n int) PurchaseOption {
	return func(s *PurchaseService) {
		if n > 0 {
			s.maxQRAttempts = n
		}
	}
}

// WithMaxTxAttempts bounds how often an aborted transaction is rerun.
func WithMaxTxAttempts(n int) PurchaseOption {
	return func(s *PurchaseService) {
		if n > 0 {
			s.maxTxAttempts = n
		}
	}
}

func NewPurchaseService(store PurchaseStore, opts ...PurchaseOption) *PurchaseService {
	s := &PurchaseService{
		store:         store,
		newCode:       NewQRCode,
		maxQRAttempts: defaultMaxQRAttempts,
		maxTxAttempts: defaultMaxTxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Purchase sells every requested seat or none of them.  On success it
// returns one ticket per seat in request order.  Failures are
// domain.ErrInvalidRequest, domain.ErrCustomerNotFound,
// domain.ErrEventNotFound, *domain.SeatUnavailableError or
// domain.ErrStorage; in every case the store is left unchanged.
func (s *PurchaseService) Purchase(ctx context.Context, req PurchaseRequest) ([]model.PurchasedTicket, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxTxAttempts; attempt++ {
		tickets, err := s.purchaseOnce(ctx, req)
		if err == nil {
			return tickets, nil
		}
		if !errors.Is(err, domain.ErrTxConflict) {
			return nil, err
		}
		lastErr = err
		log.Printf("purchase: transaction aborted by store (attempt %d/%d): %v", attempt, s.maxTxAttempts, err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, domain.Storage("purchase", lastErr)
}

// purchaseOnce runs the whole workflow in one transaction.  Any error
// returned from the callback rolls everything back.
func (s *PurchaseService) purchaseOnce(ctx context.Context, req PurchaseRequest) ([]model.PurchasedTicket, error) {
	var tickets []model.PurchasedTicket

	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		ok, err := s.store.CustomerExists(txCtx, req.CustomerEmail)
		if err != nil {
			return storeErr("check customer", err)
		}
		if !ok {
			return domain.ErrCustomerNotFound
		}

		ok, err = s.store.EventExists(txCtx, req.Event)
		if err != nil {
			return storeErr("check event", err)
		}
		if !ok {
			return domain.ErrEventNotFound
		}

		tickets = make([]model.PurchasedTicket, 0, len(req.Seats))
		for _, ref := range req.Seats {
			t, err := s.sellSeat(txCtx, req, model.SeatKey{Event: req.Event, Seat: ref})
			if err != nil {
				return err
			}
			tickets = append(tickets, t)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("purchase", err)
	}
	return tickets, nil
}

func (s *PurchaseService) sellSeat(ctx context.Context, req PurchaseRequest, key model.SeatKey) (model.PurchasedTicket, error) {
	unavailable := &domain.SeatUnavailableError{Section: key.Seat.Section, Row: key.Seat.Row, Number: key.Seat.Number}

	seat, found, err := s.store.LockSeat(ctx, key)
	if err != nil {
		return model.PurchasedTicket{}, storeErr("lock seat", err)
	}
	if !found || seat.AvailabilityStatus != model.SeatAvailable {
		return model.PurchasedTicket{}, unavailable
	}

	order := &model.Order{
		Subtotal:       seat.Price,
		DiscountAmount: 0,
		Status:         model.OrderPaid,
		CustomerEmail:  req.CustomerEmail,
		PaymentMethod:  req.PaymentMethod,
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		return model.PurchasedTicket{}, storeErr("create order", err)
	}

	code, err := s.issueTicket(ctx, order.OrderNum, key)
	if err != nil {
		return model.PurchasedTicket{}, err
	}

	changed, err := s.store.MarkSeatSold(ctx, key)
	if err != nil {
		return model.PurchasedTicket{}, storeErr("mark seat sold", err)
	}
	if !changed {
		// Only reachable if the row lock was not honoured.
		return model.PurchasedTicket{}, unavailable
	}

	return model.PurchasedTicket{
		QRCode:  code,
		Section: key.Seat.Section,
		Row:     key.Seat.Row,
		Number:  key.Seat.Number,
		Price:   seat.Price,
		OrderID: order.OrderNum,
	}, nil
}

// issueTicket inserts the ticket, drawing a fresh code after each
// collision.  Exhausting the attempts is a storage failure.
func (s *PurchaseService) issueTicket(ctx context.Context, orderNum uint64, key model.SeatKey) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxQRAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return "", domain.Storage("generate qr code", err)
		}
		err = s.store.CreateTicket(ctx, &model.Ticket{
			QRCode:   code,
			Status:   model.TicketIssued,
			OrderNum: orderNum,
			Seat:     key,
		})
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, domain.ErrDuplicateQRCode) {
			return "", storeErr("create ticket", err)
		}
		lastErr = err
		log.Printf("purchase: qr code collision (attempt %d/%d)", attempt, s.maxQRAttempts)
	}
	return "", domain.Storage("create ticket", lastErr)
}

// storeErr passes domain errors through and wraps anything else as a
// storage failure.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrTxConflict),
		errors.Is(err, domain.ErrStorage),
		errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrCustomerNotFound),
		errors.Is(err, domain.ErrEventNotFound),
		errors.Is(err, domain.ErrSeatUnavailable),
		errors.Is(err, domain.ErrTicketNotFound),
		errors.Is(err, domain.ErrAlreadyCheckedIn),
		errors.Is(err, domain.ErrInvalidTier),
		errors.Is(err, domain.ErrInvalidStatus):
		return err
	}
	return domain.Storage(op, err)
}
