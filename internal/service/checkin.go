package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/event-ticketing/internal/domain"
	"github.com/iliyamo/event-ticketing/internal/model"
)

// CheckInStore is the storage contract of the check-in workflow.
type CheckInStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	// TicketForUpdate returns domain.ErrTicketNotFound for unknown codes.
	TicketForUpdate(ctx context.Context, qrCode string) (model.TicketDetail, error)
	// CheckInFor returns nil when the ticket has not been scanned.
	CheckInFor(ctx context.Context, qrCode string) (*model.CheckIn, error)
	// CreateCheckIn returns domain.ErrAlreadyCheckedIn on a second insert.
	CreateCheckIn(ctx context.Context, qrCode, gate string) (model.CheckIn, error)
}

// CheckInResult is a successful scan: the ticket and the new record.
type CheckInResult struct {
	Ticket  model.TicketDetail
	CheckIn model.CheckIn
}

type CheckInService struct {
	store CheckInStore
}

func NewCheckInService(store CheckInStore) *CheckInService {
	return &CheckInService{store: store}
}

// CheckIn admits a ticket once.  A repeated scan fails with
// *domain.AlreadyCheckedInError carrying the first scan's time.
func (s *CheckInService) CheckIn(ctx context.Context, qrCode, gate string) (CheckInResult, error) {
	qrCode = strings.TrimSpace(qrCode)
	gate = strings.TrimSpace(gate)
	if qrCode == "" {
		return CheckInResult{}, domain.Invalid("qr_code is required")
	}
	if gate == "" {
		return CheckInResult{}, domain.Invalid("gate is required")
	}

	var res CheckInResult
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		ticket, err := s.store.TicketForUpdate(ctx, qrCode)
		if err != nil {
			return storeErr("lock ticket", err)
		}

		prev, err := s.store.CheckInFor(ctx, qrCode)
		if err != nil {
			return storeErr("get check-in", err)
		}
		if prev != nil {
			return &domain.AlreadyCheckedInError{CheckinTime: prev.CheckinTime, Gate: prev.Gate}
		}

		ci, err := s.store.CreateCheckIn(ctx, qrCode, gate)
		if errors.Is(err, domain.ErrAlreadyCheckedIn) {
			// Lost a race with a scan that committed after our read.
			return s.alreadyCheckedIn(ctx, qrCode)
		}
		if err != nil {
			return storeErr("create check-in", err)
		}
		res = CheckInResult{Ticket: ticket, CheckIn: ci}
		return nil
	})
	if err != nil {
		return CheckInResult{}, storeErr("check in", err)
	}
	return res, nil
}

func (s *CheckInService) alreadyCheckedIn(ctx context.Context, qrCode string) error {
	prev, err := s.store.CheckInFor(ctx, qrCode)
	if err != nil || prev == nil {
		return &domain.AlreadyCheckedInError{}
	}
	return &domain.AlreadyCheckedInError{CheckinTime: prev.CheckinTime, Gate: prev.Gate}
}
