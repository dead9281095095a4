package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/model"
    "github.com/iliyamo/event-ticketing/internal/queue"
    "github.com/iliyamo/event-ticketing/internal/service"
)

// Purchaser runs the ticket purchase workflow.
type Purchaser interface {
    Purchase(ctx context.Context, req service.PurchaseRequest) ([]model.PurchasedTicket, error)
}

// PurchaseHandler serves POST /api/purchase.
type PurchaseHandler struct {
    Svc Purchaser
    Notifier
}

func NewPurchaseHandler(svc Purchaser, n Notifier) *PurchaseHandler {
    if svc == nil {
        panic("nil purchaser passed to NewPurchaseHandler")
    }
    return &PurchaseHandler{Svc: svc, Notifier: n}
}

type seatBody struct {
    Section text `json:"section"`
    Row     text `json:"row"`
    Number  text `json:"number"`
}

type purchaseBody struct {
    CustomerEmail string     `json:"customer_email"`
    EventName     string     `json:"event_name"`
    EventDate     string     `json:"event_date"`
    VenueName     string     `json:"venue_name"`
    VenueAddress  string     `json:"venue_address"`
    PaymentMethod string     `json:"payment_method"`
    Seats         []seatBody `json:"seats"`
}

func (b purchaseBody) request() service.PurchaseRequest {
    seats := make([]model.SeatRef, 0, len(b.Seats))
    for _, s := range b.Seats {
        seats = append(seats, model.SeatRef{Section: string(s.Section), Row: string(s.Row), Number: string(s.Number)})
    }
    return service.PurchaseRequest{
        CustomerEmail: strings.TrimSpace(b.CustomerEmail),
        Event: model.EventKey{
            Name:         strings.TrimSpace(b.EventName),
            Date:         strings.TrimSpace(b.EventDate),
            VenueName:    strings.TrimSpace(b.VenueName),
            VenueAddress: strings.TrimSpace(b.VenueAddress),
        },
        PaymentMethod: strings.TrimSpace(b.PaymentMethod),
        Seats:         seats,
    }
}

// Purchase issues one ticket per requested seat or none.  Responses:
// 200 with the tickets, 400 for a malformed request, 404 for an unknown
// customer or event, 409 when a seat is not available and 500 with a
// generic message for storage failures.
func (h *PurchaseHandler) Purchase(c echo.Context) error {
    var body purchaseBody
    if err := c.Bind(&body); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    req := body.request()

    tickets, err := h.Svc.Purchase(c.Request().Context(), req)
    if err != nil {
        return writeError(c, err, "purchase failed")
    }

    h.committed(c, queue.TypeTicketsPurchased, purchasedEvent(req, tickets))
    return c.JSON(http.StatusOK, echo.Map{
        "success": true,
        "message": "Tickets purchased successfully",
        "tickets": tickets,
    })
}

func purchasedEvent(req service.PurchaseRequest, tickets []model.PurchasedTicket) queue.TicketsPurchasedEvent {
    ev := queue.TicketsPurchasedEvent{
        CustomerEmail: req.CustomerEmail,
        EventName:     req.Event.Name,
        EventDate:     req.Event.Date,
        VenueName:     req.Event.VenueName,
        PaymentMethod: req.PaymentMethod,
        Tickets:       make([]queue.PurchasedSeat, 0, len(tickets)),
        PurchasedAt:   time.Now().UTC().Format(time.RFC3339),
    }
    for _, t := range tickets {
        ref := model.SeatRef{Section: t.Section, Row: t.Row, Number: t.Number}
        ev.Tickets = append(ev.Tickets, queue.PurchasedSeat{
            QRCode:   t.QRCode,
            Seat:     ref.Label(),
            Price:    t.Price,
            OrderNum: t.OrderID,
        })
        ev.Total += t.Price
    }
    return ev
}
