// Package domain holds the error taxonomy shared by the purchase
// coordinator, the repositories and the HTTP handlers. Handlers translate
// these values into status codes; repositories translate driver errors into
// them so that nothing above the storage layer inspects MySQL error numbers.
package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrCustomerNotFound = errors.New("Customer not found")
	ErrEventNotFound    = errors.New("Event not found")
	ErrVenueNotFound    = errors.New("Venue not found")
	ErrSeatUnavailable  = errors.New("seat unavailable")
	ErrTicketNotFound   = errors.New("Invalid QR code")
	ErrAlreadyCheckedIn = errors.New("Ticket already checked in")
	ErrInvalidTier      = errors.New("Invalid tier")
	ErrInvalidStatus    = errors.New("Invalid status")

	// ErrDuplicateQRCode is returned by the ticket insert when the generated
	// code collides with an existing one. The coordinator retries it.
	ErrDuplicateQRCode = errors.New("duplicate qr code")

	// ErrTxConflict means the store aborted the whole transaction (deadlock
	// victim or lock wait timeout). Nothing was written; the caller may rerun.
	ErrTxConflict = errors.New("transaction conflict")

	// ErrStorage wraps connectivity and unexpected statement failures.
	ErrStorage = errors.New("storage failure")
)

// SeatUnavailableError names the first seat of a request that could not be
// sold. errors.Is(err, ErrSeatUnavailable) reports true for it.
type SeatUnavailableError struct {
	Section string
	Row     string
	Number  string
}

func (e *SeatUnavailableError) Error() string {
	return fmt.Sprintf("Seat %s-%s-%s is not available", e.Section, e.Row, e.Number)
}

func (e *SeatUnavailableError) Is(target error) bool { return target == ErrSeatUnavailable }

// InvalidRequestError carries a human readable reason for a rejected input.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string { return e.Reason }

func (e *InvalidRequestError) Is(target error) bool { return target == ErrInvalidRequest }

// Invalid builds an InvalidRequestError with a formatted reason.
func Invalid(format string, args ...any) error {
	return &InvalidRequestError{Reason: fmt.Sprintf(format, args...)}
}

// Storage wraps err so that errors.Is(err, ErrStorage) holds while the
// original cause stays reachable for logging.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// AlreadyCheckedInError reports the time of the earlier check-in.
// errors.Is(err, ErrAlreadyCheckedIn) reports true for it.
type AlreadyCheckedInError struct {
	CheckinTime time.Time
	Gate        string
}

func (e *AlreadyCheckedInError) Error() string { return ErrAlreadyCheckedIn.Error() }

func (e *AlreadyCheckedInError) Is(target error) bool { return target == ErrAlreadyCheckedIn }
