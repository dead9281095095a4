package model

import (
    "fmt"
    "strings"
    "time"
)

// Event status values stored in Event.status.
const (
    EventScheduled = "SCHEDULED"
    EventCancelled = "CANCELLED"
    EventCompleted = "COMPLETED"
)

// DateLayout is the wire and storage format of Event.date.
const DateLayout = "2006-01-02"

// EventKey is the composite identity of an event: its name, its date and
// the venue that hosts it.
type EventKey struct {
    Name         string `json:"event_name"`
    Date         string `json:"event_date"`
    VenueName    string `json:"venue_name"`
    VenueAddress string `json:"venue_address"`
}

// Validate reports the first missing or malformed field.
func (k EventKey) Validate() error {
    switch {
    case strings.TrimSpace(k.Name) == "":
        return fmt.Errorf("event_name is required")
    case strings.TrimSpace(k.Date) == "":
        return fmt.Errorf("event_date is required")
    case strings.TrimSpace(k.VenueName) == "":
        return fmt.Errorf("venue_name is required")
    case strings.TrimSpace(k.VenueAddress) == "":
        return fmt.Errorf("venue_address is required")
    }
    if _, err := time.Parse(DateLayout, k.Date); err != nil {
        return fmt.Errorf("event_date must be YYYY-MM-DD")
    }
    return nil
}

// Event represents a row of the Event table.
//
// Fields:
//  Key    – composite identity (name, date, venue name, venue address).
//  Status – SCHEDULED, CANCELLED or COMPLETED.
type Event struct {
    EventKey
    Status string `json:"status"`
}

// ValidEventStatus reports whether s is one of the known statuses.
func ValidEventStatus(s string) bool {
    switch s {
    case EventScheduled, EventCancelled, EventCompleted:
        return true
    }
    return false
}

// EventSummary is one row of the browse listing: an event with its venue
// and aggregated seat counts.
type EventSummary struct {
    Name           string `json:"event_name"`
    Date           string `json:"event_date"`
    Status         string `json:"status"`
    VenueName      string `json:"venue_name"`
    VenueAddress   string `json:"venue_address"`
    Capacity       int    `json:"capacity"`
    Sections       int    `json:"sections"`
    TotalSeats     int    `json:"total_seats"`
    AvailableSeats int    `json:"available_seats"`
}

// EventFilter narrows the browse listing.  Empty fields are ignored.
type EventFilter struct {
    Venue    string
    Status   string
    DateFrom string
    DateTo   string
}
