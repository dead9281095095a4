package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-ticketing/internal/domain"
	"github.com/iliyamo/event-ticketing/internal/model"
)

// TicketRepo inserts tickets and resolves QR codes back to their seat and
// event.
type TicketRepo struct{ store *Store }

func NewTicketRepo(store *Store) *TicketRepo { return &TicketRepo{store: store} }

// Create inserts t with issue_date = NOW().  A primary key collision on
// qr_code is reported as domain.ErrDuplicateQRCode.  InnoDB rolls back
// only the failed statement, so the caller can retry with a new code in
// the same transaction.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
	const q = "INSERT INTO Ticket (qr_code, issue_date, status, order_num," +
		" event_name, event_date, venue_name, venue_address, `section`, `row`, `number`)" +
		" VALUES (?, NOW(), ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := r.store.conn(ctx).ExecContext(ctx, q,
		t.QRCode, t.Status, t.OrderNum,
		t.Seat.Event.Name, t.Seat.Event.Date, t.Seat.Event.VenueName, t.Seat.Event.VenueAddress,
		t.Seat.Seat.Section, t.Seat.Seat.Row, t.Seat.Seat.Number)
	if err != nil {
		if isDuplicate(err) && duplicateOnQRCode(err) {
			return domain.ErrDuplicateQRCode
		}
		return classify("create ticket", err)
	}
	return nil
}

// duplicateOnQRCode distinguishes a qr_code collision from a violation of
// the one-ticket-per-seat unique key, which must never be retried.
func duplicateOnQRCode(err error) bool {
	return !containsKey(err, "uq_ticket_seat")
}

const ticketDetailSelect = `SELECT t.qr_code, t.status, t.issue_date, t.order_num,
                                  o.customer_email, o.subtotal,
                                  e.name, DATE_FORMAT(e.date, '%Y-%m-%d'), e.status,
                                  e.venue_name, e.venue_address,
                                  t.` + "`section`, t.`row`, t.`number`" + `
                           FROM Ticket t
                           INNER JOIN Event e ON e.name = t.event_name AND e.date = t.event_date
                                             AND e.venue_name = t.venue_name AND e.venue_address = t.venue_address
                           INNER JOIN ` + "`Order`" + ` o ON o.order_num = t.order_num
                           WHERE t.qr_code = ?`

// GetDetail resolves a QR code to its ticket, order and event.  It
// returns domain.ErrTicketNotFound for unknown codes.
func (r *TicketRepo) GetDetail(ctx context.Context, qrCode string) (model.TicketDetail, error) {
	return r.getDetail(ctx, qrCode, "")
}

// GetDetailForUpdate is GetDetail with the ticket row locked, used by
// check-in to serialize concurrent scans of the same code.
func (r *TicketRepo) GetDetailForUpdate(ctx context.Context, qrCode string) (model.TicketDetail, error) {
	return r.getDetail(ctx, qrCode, " FOR UPDATE OF t")
}

func (r *TicketRepo) getDetail(ctx context.Context, qrCode, lock string) (model.TicketDetail, error) {
	var d model.TicketDetail
	err := r.store.conn(ctx).QueryRowContext(ctx, ticketDetailSelect+lock, qrCode).Scan(
		&d.QRCode, &d.Status, &d.IssueDate, &d.OrderNum,
		&d.CustomerEmail, &d.Price,
		&d.EventName, &d.EventDate, &d.EventStatus,
		&d.VenueName, &d.VenueAddress,
		&d.Section, &d.Row, &d.Number,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TicketDetail{}, domain.ErrTicketNotFound
	}
	if err != nil {
		return model.TicketDetail{}, classify("get ticket", err)
	}
	d.Seat = model.SeatRef{Section: d.Section, Row: d.Row, Number: d.Number}.Label()
	return d, nil
}
