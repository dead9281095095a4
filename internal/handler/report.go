package handler

import (
    "context"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/model"
)

// SalesReporter aggregates sales per event.
type SalesReporter interface {
    SalesReport(ctx context.Context, f model.SalesFilter) ([]model.SalesReport, error)
}

type ReportHandler struct {
    Reports SalesReporter
}

func NewReportHandler(r SalesReporter) *ReportHandler { return &ReportHandler{Reports: r} }

// Sales handles GET /api/reports/sales?event_name=&min_tickets=.
func (h *ReportHandler) Sales(c echo.Context) error {
    minTickets, err := intParam(c.QueryParam("min_tickets"), 0)
    if err != nil {
        return fail(c, http.StatusBadRequest, "min_tickets must be a non-negative integer")
    }
    reports, err := h.Reports.SalesReport(c.Request().Context(), model.SalesFilter{
        EventName:  strings.TrimSpace(c.QueryParam("event_name")),
        MinTickets: minTickets,
    })
    if err != nil {
        return writeError(c, err, "database error")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "reports": reports})
}
