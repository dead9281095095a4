package repository // repository for event seat persistence

import (
    "context"      // context for cancellation and the active transaction
    "database/sql" // sql provides ErrNoRows
    "errors"       // errors.Is for sentinel comparison

    "github.com/iliyamo/event-ticketing/internal/model"
)

// EventSeatRepo encapsulates database operations for EventSeat.
type EventSeatRepo struct{ store *Store }

// NewEventSeatRepo constructs an EventSeatRepo on the shared store.
func NewEventSeatRepo(store *Store) *EventSeatRepo { return &EventSeatRepo{store: store} }

const seatKeyWhere = "event_name = ? AND event_date = ? AND venue_name = ? AND venue_address = ?" +
    " AND `section` = ? AND `row` = ? AND `number` = ?"

func seatKeyArgs(k model.SeatKey) []any {
    return []any{k.Event.Name, k.Event.Date, k.Event.VenueName, k.Event.VenueAddress,
        k.Seat.Section, k.Seat.Row, k.Seat.Number}
}

// GetForUpdate reads the seat's current status and price and locks the
// row until the surrounding transaction commits or rolls back.  A
// concurrent caller locking the same seat blocks here.  found is false
// when the seat does not exist.
func (r *EventSeatRepo) GetForUpdate(ctx context.Context, key model.SeatKey) (seat model.EventSeat, found bool, err error) {
    q := "SELECT `section`, `row`, `number`, price, availability_status FROM EventSeat WHERE " + seatKeyWhere + " FOR UPDATE"
    err = r.store.conn(ctx).QueryRowContext(ctx, q, seatKeyArgs(key)...).
        Scan(&seat.Section, &seat.Row, &seat.Number, &seat.Price, &seat.AvailabilityStatus)
    if errors.Is(err, sql.ErrNoRows) {
        return model.EventSeat{}, false, nil
    }
    if err != nil {
        return model.EventSeat{}, false, classify("lock seat", err)
    }
    return seat, true, nil
}

// UpdateStatus moves a seat to the given availability status.  The
// expected current status is part of the WHERE clause, so the update
// touches zero rows if another writer changed the seat first; changed
// reports whether the transition happened.
func (r *EventSeatRepo) UpdateStatus(ctx context.Context, key model.SeatKey, from, to string) (changed bool, err error) {
    args := append([]any{to}, seatKeyArgs(key)...)
    args = append(args, from)
    res, err := r.store.conn(ctx).ExecContext(ctx,
        "UPDATE EventSeat SET availability_status = ? WHERE "+seatKeyWhere+" AND availability_status = ?", args...)
    if err != nil {
        return false, classify("update seat status", err)
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, classify("update seat status", err)
    }
    return n == 1, nil
}

// ListByEvent returns every seat of events with the given name and date,
// ordered by section, row and number.
func (r *EventSeatRepo) ListByEvent(ctx context.Context, eventName, eventDate string) ([]model.EventSeat, error) {
    const q = "SELECT `section`, `row`, `number`, price, availability_status FROM EventSeat" +
        " WHERE event_name = ? AND event_date = ? ORDER BY `section`, `row`, `number`"
    rows, err := r.store.conn(ctx).QueryContext(ctx, q, eventName, eventDate)
    if err != nil {
        return nil, classify("list seats", err)
    }
    defer rows.Close()
    out := []model.EventSeat{}
    for rows.Next() {
        var s model.EventSeat
        if err := rows.Scan(&s.Section, &s.Row, &s.Number, &s.Price, &s.AvailabilityStatus); err != nil {
            return nil, classify("scan seat", err)
        }
        out = append(out, s)
    }
    if err := rows.Err(); err != nil {
        return nil, classify("list seats", err)
    }
    return out, nil
}
