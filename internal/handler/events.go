package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/domain"
    "github.com/iliyamo/event-ticketing/internal/model"
    "github.com/iliyamo/event-ticketing/internal/queue"
    "github.com/iliyamo/event-ticketing/internal/service"
)

// Catalog is the read side used for browsing.
type Catalog interface {
    ListEvents(ctx context.Context, f model.EventFilter) ([]model.EventSummary, error)
    ListVenues(ctx context.Context) ([]model.Venue, error)
    ListSeats(ctx context.Context, eventName, eventDate string) ([]model.EventSeat, error)
}

// StatusSetter changes an event's status.
type StatusSetter interface {
    SetStatus(ctx context.Context, key model.EventKey, status string) (service.StatusChange, error)
}

// EventHandler serves event browsing, the venue and seat helpers, and
// status management.
type EventHandler struct {
    Catalog Catalog
    Status  StatusSetter
    Notifier
}

func NewEventHandler(catalog Catalog, status StatusSetter, n Notifier) *EventHandler {
    return &EventHandler{Catalog: catalog, Status: status, Notifier: n}
}

func validDate(s string) bool {
    _, err := time.Parse(model.DateLayout, s)
    return err == nil
}

// ListEvents handles GET /api/events?venue=&status=&dateFrom=&dateTo=.
func (h *EventHandler) ListEvents(c echo.Context) error {
    f := model.EventFilter{
        Venue:    strings.TrimSpace(c.QueryParam("venue")),
        Status:   strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))),
        DateFrom: strings.TrimSpace(c.QueryParam("dateFrom")),
        DateTo:   strings.TrimSpace(c.QueryParam("dateTo")),
    }
    if f.Status != "" && !model.ValidEventStatus(f.Status) {
        return fail(c, http.StatusBadRequest, domain.ErrInvalidStatus.Error())
    }
    if (f.DateFrom != "" && !validDate(f.DateFrom)) || (f.DateTo != "" && !validDate(f.DateTo)) {
        return fail(c, http.StatusBadRequest, "dates must be YYYY-MM-DD")
    }
    events, err := h.Catalog.ListEvents(c.Request().Context(), f)
    if err != nil {
        return writeError(c, err, "database error")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "events": events})
}

// UpdateStatus handles PUT /api/events/status.
func (h *EventHandler) UpdateStatus(c echo.Context) error {
    var body struct {
        model.EventKey
        NewStatus string `json:"new_status"`
    }
    if err := c.Bind(&body); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    key := model.EventKey{
        Name:         strings.TrimSpace(body.Name),
        Date:         strings.TrimSpace(body.Date),
        VenueName:    strings.TrimSpace(body.VenueName),
        VenueAddress: strings.TrimSpace(body.VenueAddress),
    }
    status := strings.ToUpper(strings.TrimSpace(body.NewStatus))

    change, err := h.Status.SetStatus(c.Request().Context(), key, status)
    if err != nil {
        return writeError(c, err, "status update failed")
    }

    h.committed(c, queue.TypeEventStatusChanged, queue.EventStatusChangedEvent{
        EventName: key.Name,
        EventDate: key.Date,
        VenueName: key.VenueName,
        OldStatus: change.Before.Status,
        NewStatus: change.After.Status,
        ChangedAt: time.Now().UTC().Format(time.RFC3339),
    })
    return c.JSON(http.StatusOK, echo.Map{
        "success": true,
        "message": change.Message,
        "before":  change.Before,
        "after":   change.After,
    })
}

// ListVenues handles GET /api/venues.
func (h *EventHandler) ListVenues(c echo.Context) error {
    venues, err := h.Catalog.ListVenues(c.Request().Context())
    if err != nil {
        return writeError(c, err, "database error")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "venues": venues})
}

// ListSeats handles GET /api/seats/:event_name/:event_date.
func (h *EventHandler) ListSeats(c echo.Context) error {
    name := strings.TrimSpace(c.Param("event_name"))
    date := strings.TrimSpace(c.Param("event_date"))
    if name == "" || !validDate(date) {
        return fail(c, http.StatusBadRequest, "event_name and event_date (YYYY-MM-DD) are required")
    }
    seats, err := h.Catalog.ListSeats(c.Request().Context(), name, date)
    if err != nil {
        return writeError(c, err, "database error")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "seats": seats})
}
