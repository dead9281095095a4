package model

// Venue is a physical location hosting events.  Venues are reference
// data: the application reads them but never mutates them.  Identity is
// the (Name, Address) pair.
//
// Fields:
//  Name     – Venue.name
//  Address  – Venue.address
//  Capacity – Venue.capacity, the maximum number of attendees.
type Venue struct {
    Name     string `json:"name"`
    Address  string `json:"address"`
    Capacity int    `json:"capacity,omitempty"`
}
