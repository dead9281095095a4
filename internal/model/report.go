package model

// SalesReport aggregates ticket sales and attendance for one event.
type SalesReport struct {
    EventName       string   `json:"event_name"`
    EventDate       string   `json:"event_date"`
    Status          string   `json:"status"`
    VenueName       string   `json:"venue_name"`
    Capacity        int      `json:"capacity"`
    TicketsSold     int      `json:"tickets_sold"`
    UniqueCustomers int      `json:"unique_customers"`
    TotalRevenue    Money    `json:"total_revenue"`
    AvgTicketPrice  Money    `json:"avg_ticket_price"`
    MinPrice        Money    `json:"min_price"`
    MaxPrice        Money    `json:"max_price"`
    CheckedInCount  int      `json:"checked_in_count"`
    CheckinRate     *float64 `json:"checkin_rate"`
}

// SalesFilter narrows the sales report.  MinTickets of zero disables the
// HAVING clause.
type SalesFilter struct {
    EventName  string
    MinTickets int
}
