package model

import "time"

// Ticket status values.
const TicketIssued = "ISSUED"

// Ticket is issued for exactly one sold seat.  QRCode is its unique
// public identifier and the key used at check-in.
type Ticket struct {
    QRCode    string
    IssueDate time.Time
    Status    string
    OrderNum  uint64
    Seat      SeatKey
}

// PurchasedTicket is the per-seat result of a successful purchase.
type PurchasedTicket struct {
    QRCode  string `json:"qr_code"`
    Section string `json:"section"`
    Row     string `json:"row"`
    Number  string `json:"number"`
    Price   Money  `json:"price"`
    OrderID uint64 `json:"order_id"`
}

// TicketDetail is a ticket joined with its event and order.  It is what a
// QR code lookup and a successful check-in return.
type TicketDetail struct {
    QRCode        string    `json:"qr_code"`
    Status        string    `json:"status"`
    IssueDate     time.Time `json:"issue_date"`
    OrderNum      uint64    `json:"order_num"`
    CustomerEmail string    `json:"customer_email"`
    EventName     string    `json:"event_name"`
    EventDate     string    `json:"event_date"`
    EventStatus   string    `json:"event_status"`
    VenueName     string    `json:"venue_name"`
    VenueAddress  string    `json:"venue_address"`
    Section       string    `json:"section"`
    Row           string    `json:"row"`
    Number        string    `json:"number"`
    Seat          string    `json:"seat"`
    Price         Money     `json:"price"`
}

// HistoryEntry is one ticket in a customer's purchase history.  Customers
// without tickets yield a single entry with the ticket fields empty.
type HistoryEntry struct {
    Email         string     `json:"email"`
    CustomerName  string     `json:"customer_name"`
    LoyaltyTier   string     `json:"loyalty_tier"`
    QRCode        *string    `json:"qr_code"`
    PaymentMethod *string    `json:"payment_method"`
    PurchaseDate  *time.Time `json:"purchase_date"`
    TotalPrice    *Money     `json:"total_price"`
    EventName     *string    `json:"event_name"`
    EventDate     *string    `json:"event_date"`
    EventStatus   *string    `json:"event_status"`
    VenueName     *string    `json:"venue_name"`
    SeatLocation  *string    `json:"seat_location"`
    CheckinStatus string     `json:"checkin_status"`
}
