package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/event-ticketing/internal/handler" // import the handlers that implement business logic
)

// Options carries the cross-cutting settings applied by Setup.
type Options struct {
	CORSOrigins []string // empty allows any origin
	StaticDir   string   // served at / when set
}

// Setup installs the global middleware chain: panic recovery, request IDs,
// CORS, access logging and, optionally, the static front end.
func Setup(e *echo.Echo, opts Options) {
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderXRequestID},
	}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				c.Logger().Warnf("request id=%s method=%s uri=%s status=%d latency=%s err=%v",
					v.RequestID, v.Method, v.URI, v.Status, v.Latency, v.Error)
				return nil
			}
			c.Logger().Infof("request id=%s method=%s uri=%s status=%d latency=%s",
				v.RequestID, v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	if opts.StaticDir != "" {
		e.Use(echomw.StaticWithConfig(echomw.StaticConfig{Root: opts.StaticDir, Index: "index.html"}))
	}
}

// RegisterRoutes registers non-API routes on the provided Echo instance.
// At the moment it only exposes a health check endpoint.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	// Map GET /healthz to the Health handler.  Load balancers use it to
	// verify that the service and its database are reachable.
	e.GET("/healthz", handler.Health(db))
}
