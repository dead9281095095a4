package model

import "time"

// CheckIn records that a ticket was scanned at a gate.  There is at most
// one per QR code.
type CheckIn struct {
    QRCode      string    `json:"qr_code"`
    CheckinTime time.Time `json:"checkin_time"`
    Gate        string    `json:"gate"`
}
