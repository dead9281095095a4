package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-ticketing/internal/domain"
	"github.com/iliyamo/event-ticketing/internal/model"
)

// CheckInRepo records ticket scans.  The CheckIn primary key on qr_code
// enforces at most one check-in per ticket.
type CheckInRepo struct{ store *Store }

func NewCheckInRepo(store *Store) *CheckInRepo { return &CheckInRepo{store: store} }

// Get returns the existing check-in for the code, or nil when the ticket
// has not been scanned yet.
func (r *CheckInRepo) Get(ctx context.Context, qrCode string) (*model.CheckIn, error) {
	var ci model.CheckIn
	err := r.store.conn(ctx).QueryRowContext(ctx,
		"SELECT qr_code, checkin_time, gate FROM CheckIn WHERE qr_code = ?", qrCode).
		Scan(&ci.QRCode, &ci.CheckinTime, &ci.Gate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("get check-in", err)
	}
	return &ci, nil
}

// Create inserts a check-in stamped with the database clock and returns
// the stored row.  A second insert for the same code fails with
// domain.ErrAlreadyCheckedIn.
func (r *CheckInRepo) Create(ctx context.Context, qrCode, gate string) (model.CheckIn, error) {
	_, err := r.store.conn(ctx).ExecContext(ctx,
		"INSERT INTO CheckIn (qr_code, checkin_time, gate) VALUES (?, NOW(), ?)", qrCode, gate)
	if err != nil {
		if isDuplicate(err) {
			return model.CheckIn{}, domain.ErrAlreadyCheckedIn
		}
		return model.CheckIn{}, classify("create check-in", err)
	}
	ci, err := r.Get(ctx, qrCode)
	if err != nil {
		return model.CheckIn{}, err
	}
	if ci == nil {
		return model.CheckIn{}, domain.Storage("create check-in", errors.New("inserted row not readable"))
	}
	return *ci, nil
}
