package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/domain"
    "github.com/iliyamo/event-ticketing/internal/model"
    "github.com/iliyamo/event-ticketing/internal/queue"
    "github.com/iliyamo/event-ticketing/internal/service"
)

// CheckInner admits tickets at the gate.
type CheckInner interface {
    CheckIn(ctx context.Context, qrCode, gate string) (service.CheckInResult, error)
}

// TicketReader looks a ticket up by its QR code.
type TicketReader interface {
    TicketByQRCode(ctx context.Context, qrCode string) (model.TicketDetail, error)
}

type TicketHandler struct {
    Svc     CheckInner
    Tickets TicketReader
    Notifier
}

func NewTicketHandler(svc CheckInner, tickets TicketReader, n Notifier) *TicketHandler {
    return &TicketHandler{Svc: svc, Tickets: tickets, Notifier: n}
}

// CheckIn handles POST /api/checkin with {qr_code, gate}.  A repeated scan
// answers 409 with the time of the first one.
func (h *TicketHandler) CheckIn(c echo.Context) error {
    var body struct {
        QRCode string `json:"qr_code"`
        Gate   text   `json:"gate"`
    }
    if err := c.Bind(&body); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }

    res, err := h.Svc.CheckIn(c.Request().Context(), body.QRCode, string(body.Gate))
    if err != nil {
        var ace *domain.AlreadyCheckedInError
        if errors.As(err, &ace) {
            out := echo.Map{"success": false, "error": ace.Error()}
            if !ace.CheckinTime.IsZero() {
                out["checkin_time"] = ace.CheckinTime
                out["gate"] = ace.Gate
            }
            return c.JSON(http.StatusConflict, out)
        }
        return writeError(c, err, "check-in failed")
    }

    h.committed(c, queue.TypeTicketCheckedIn, queue.TicketCheckedInEvent{
        QRCode:      res.Ticket.QRCode,
        Gate:        res.CheckIn.Gate,
        EventName:   res.Ticket.EventName,
        EventDate:   res.Ticket.EventDate,
        Seat:        res.Ticket.Seat,
        CheckedInAt: res.CheckIn.CheckinTime.UTC().Format(time.RFC3339),
    })
    return c.JSON(http.StatusOK, echo.Map{
        "success":      true,
        "message":      "Check-in successful",
        "ticket":       res.Ticket,
        "checkin_time": res.CheckIn.CheckinTime,
        "gate":         res.CheckIn.Gate,
    })
}

// GetTicket handles GET /api/tickets/:qr_code.
func (h *TicketHandler) GetTicket(c echo.Context) error {
    qr := strings.TrimSpace(c.Param("qr_code"))
    if qr == "" {
        return fail(c, http.StatusBadRequest, "qr_code is required")
    }
    t, err := h.Tickets.TicketByQRCode(c.Request().Context(), qr)
    if err != nil {
        return writeError(c, err, "database error")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "ticket": t})
}
