package model

import "fmt"

// Seat availability values stored in EventSeat.availability_status.
const (
    SeatAvailable = "AVAILABLE"
    SeatSold      = "SOLD"
)

// SeatRef identifies a seat within an event.
type SeatRef struct {
    Section string `json:"section"`
    Row     string `json:"row"`
    Number  string `json:"number"`
}

// Label renders the seat as "section-row-number", the format used in
// messages and history listings.
func (s SeatRef) Label() string {
    return fmt.Sprintf("%s-%s-%s", s.Section, s.Row, s.Number)
}

// SeatKey is the full composite key of an EventSeat row.
type SeatKey struct {
    Event EventKey
    Seat  SeatRef
}

// EventSeat is a purchasable seat of one event.  It is the contended
// resource of the purchase workflow: exactly one transaction may move it
// from AVAILABLE to SOLD.
//
// Fields:
//  Seat               – section/row/number within the event.
//  Price              – EventSeat.price in cents.
//  AvailabilityStatus – AVAILABLE or SOLD.
type EventSeat struct {
    SeatRef
    Price              Money  `json:"price"`
    AvailabilityStatus string `json:"availability_status"`
}
