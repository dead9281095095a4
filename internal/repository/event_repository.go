package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-ticketing/internal/domain"
	"github.com/iliyamo/event-ticketing/internal/model"
)

// EventRepo provides lookups, listings and status updates for events.
type EventRepo struct{ store *Store }

func NewEventRepo(store *Store) *EventRepo { return &EventRepo{store: store} }

const eventKeyWhere = "name = ? AND date = ? AND venue_name = ? AND venue_address = ?"

func eventKeyArgs(k model.EventKey) []any {
	return []any{k.Name, k.Date, k.VenueName, k.VenueAddress}
}

// Exists reports whether an event matches the full composite key.
func (r *EventRepo) Exists(ctx context.Context, key model.EventKey) (bool, error) {
	var status string
	err := r.store.conn(ctx).QueryRowContext(ctx,
		"SELECT status FROM Event WHERE "+eventKeyWhere+" LIMIT 1", eventKeyArgs(key)...).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, classify("event exists", err)
	}
	return true, nil
}

// Get returns the event or domain.ErrEventNotFound.
func (r *EventRepo) Get(ctx context.Context, key model.EventKey) (model.Event, error) {
	return r.get(ctx, key, "")
}

// GetForUpdate is Get with the event row locked until the surrounding
// transaction ends.
func (r *EventRepo) GetForUpdate(ctx context.Context, key model.EventKey) (model.Event, error) {
	return r.get(ctx, key, " FOR UPDATE")
}

func (r *EventRepo) get(ctx context.Context, key model.EventKey, lock string) (model.Event, error) {
	q := `SELECT name, DATE_FORMAT(date, '%Y-%m-%d'), venue_name, venue_address, status
          FROM Event WHERE ` + eventKeyWhere + lock
	var e model.Event
	err := r.store.conn(ctx).QueryRowContext(ctx, q, eventKeyArgs(key)...).
		Scan(&e.Name, &e.Date, &e.VenueName, &e.VenueAddress, &e.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, domain.ErrEventNotFound
	}
	if err != nil {
		return model.Event{}, classify("get event", err)
	}
	return e, nil
}

// UpdateStatus sets the event status.  It returns domain.ErrEventNotFound
// when no row matches the key.
func (r *EventRepo) UpdateStatus(ctx context.Context, key model.EventKey, status string) error {
	args := append([]any{status}, eventKeyArgs(key)...)
	res, err := r.store.conn(ctx).ExecContext(ctx, "UPDATE Event SET status = ? WHERE "+eventKeyWhere, args...)
	if err != nil {
		return classify("update event status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("update event status", err)
	}
	// RowsAffected is 0 both for a missing row and for an unchanged value,
	// so confirm existence before reporting not found.
	if n == 0 {
		ok, err := r.Exists(ctx, key)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrEventNotFound
		}
	}
	return nil
}

// List returns events with venue details and seat counts, ordered by date
// then name.
func (r *EventRepo) List(ctx context.Context, f model.EventFilter) ([]model.EventSummary, error) {
	q := `SELECT e.name,
                 DATE_FORMAT(e.date, '%Y-%m-%d') AS event_date,
                 e.status,
                 v.name,
                 v.address,
                 v.capacity,
                 COUNT(DISTINCT es.` + "`section`" + `) AS sections,
                 COUNT(es.` + "`number`" + `) AS total_seats,
                 COALESCE(SUM(CASE WHEN es.availability_status = 'AVAILABLE' THEN 1 ELSE 0 END), 0) AS available_seats
          FROM Event e
          INNER JOIN Venue v ON v.name = e.venue_name AND v.address = e.venue_address
          LEFT JOIN EventSeat es ON es.event_name = e.name AND es.event_date = e.date
                                AND es.venue_name = e.venue_name AND es.venue_address = e.venue_address
          WHERE 1=1`
	args := []any{}
	if f.Venue != "" {
		q += " AND v.name LIKE ?"
		args = append(args, "%"+f.Venue+"%")
	}
	if f.Status != "" {
		q += " AND e.status = ?"
		args = append(args, f.Status)
	}
	if f.DateFrom != "" {
		q += " AND e.date >= ?"
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		q += " AND e.date <= ?"
		args = append(args, f.DateTo)
	}
	q += `
          GROUP BY e.name, e.date, e.venue_name, e.venue_address, v.name, v.address, v.capacity, e.status
          ORDER BY e.date ASC, e.name ASC`

	rows, err := r.store.conn(ctx).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, classify("list events", err)
	}
	defer rows.Close()
	out := []model.EventSummary{}
	for rows.Next() {
		var s model.EventSummary
		if err := rows.Scan(&s.Name, &s.Date, &s.Status, &s.VenueName, &s.VenueAddress,
			&s.Capacity, &s.Sections, &s.TotalSeats, &s.AvailableSeats); err != nil {
			return nil, classify("scan event", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list events", err)
	}
	return out, nil
}
