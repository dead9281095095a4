package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/handler"
)

// Handlers groups the API handlers registered by RegisterAPI.
type Handlers struct {
	Purchase *handler.PurchaseHandler
	Events   *handler.EventHandler
	Tickets  *handler.TicketHandler
	Customer *handler.CustomerHandler
	Reports  *handler.ReportHandler
}

// Limits holds the rate limiting middleware of the write endpoints.  Nil
// entries disable limiting for that endpoint.
type Limits struct {
	Purchase echo.MiddlewareFunc
	CheckIn  echo.MiddlewareFunc
}

func orPass(m echo.MiddlewareFunc) echo.MiddlewareFunc {
	if m == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return m
}

// RegisterAPI registers the ticketing endpoints under /api.  Read endpoints
// run behind the response cache; purchase and check-in run behind their
// rate limits.  POST /purchase is kept as an alias of /api/purchase.
func RegisterAPI(e *echo.Echo, h Handlers, cache echo.MiddlewareFunc, limits Limits) {
	cache = orPass(cache)
	purchaseLimit, checkInLimit := orPass(limits.Purchase), orPass(limits.CheckIn)

	api := e.Group("/api")

	// Browsing and reporting, cached.
	api.GET("/events", h.Events.ListEvents, cache)
	api.GET("/venues", h.Events.ListVenues, cache)
	api.GET("/seats/:event_name/:event_date", h.Events.ListSeats, cache)
	api.GET("/history/:email", h.Customer.GetHistory, cache)
	api.GET("/reports/sales", h.Reports.Sales, cache)
	// Not cached; clients confirm a purchase with it right away.
	api.GET("/tickets/:qr_code", h.Tickets.GetTicket)

	// Writes.
	api.POST("/purchase", h.Purchase.Purchase, purchaseLimit)
	e.POST("/purchase", h.Purchase.Purchase, purchaseLimit)
	api.POST("/checkin", h.Tickets.CheckIn, checkInLimit)
	api.PUT("/events/status", h.Events.UpdateStatus)
	api.POST("/loyalty/update", h.Customer.UpdateLoyalty)
}
