// Package queue defines the audit messages exchanged over RabbitMQ and the
// consumer that appends them to the audit log.
package queue

import "github.com/iliyamo/event-ticketing/internal/model"

// Message types, carried in the AMQP Type property.
const (
    TypeTicketsPurchased   = "tickets.purchased"
    TypeTicketCheckedIn    = "ticket.checked_in"
    TypeEventStatusChanged = "event.status_changed"
)

// PurchasedSeat is one ticket of a TicketsPurchasedEvent.
type PurchasedSeat struct {
    QRCode   string      `json:"qr_code"`
    Seat     string      `json:"seat"`
    Price    model.Money `json:"price"`
    OrderNum uint64      `json:"order_num"`
}

// TicketsPurchasedEvent is published after a purchase commits.  It carries
// enough for the audit trail without querying the database.
type TicketsPurchasedEvent struct {
    CustomerEmail string          `json:"customer_email"`
    EventName     string          `json:"event_name"`
    EventDate     string          `json:"event_date"`
    VenueName     string          `json:"venue_name"`
    PaymentMethod string          `json:"payment_method"`
    Tickets       []PurchasedSeat `json:"tickets"`
    Total         model.Money     `json:"total"`
    PurchasedAt   string          `json:"purchased_at"`
}

// TicketCheckedInEvent is published after a check-in commits.
type TicketCheckedInEvent struct {
    QRCode      string `json:"qr_code"`
    Gate        string `json:"gate"`
    EventName   string `json:"event_name"`
    EventDate   string `json:"event_date"`
    Seat        string `json:"seat"`
    CheckedInAt string `json:"checked_in_at"`
}

// EventStatusChangedEvent is published after an event status update.
type EventStatusChangedEvent struct {
    EventName string `json:"event_name"`
    EventDate string `json:"event_date"`
    VenueName string `json:"venue_name"`
    OldStatus string `json:"old_status"`
    NewStatus string `json:"new_status"`
    ChangedAt string `json:"changed_at"`
}
