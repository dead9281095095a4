// Package handler exposes the HTTP handlers of the ticketing API.  Every
// response is a JSON object with a "success" flag; failures carry an
// "error" message.  Domain errors are mapped to status codes here and
// internal details are logged, never returned.
package handler

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/domain"
)

// Auditor publishes audit messages after a write commits.
type Auditor interface {
    Publish(ctx context.Context, msgType string, payload any) error
}

// CachePurger drops cached read responses after a write commits.
type CachePurger interface {
    Purge(ctx context.Context)
}

// Notifier bundles the post-commit side effects shared by the write
// handlers.  Either field may be nil.
type Notifier struct {
    Audit Auditor
    Cache CachePurger
}

// committed purges the response cache and publishes the audit message in
// the background.  The request does not wait for the broker.
func (n Notifier) committed(c echo.Context, msgType string, payload any) {
    if n.Cache != nil {
        n.Cache.Purge(c.Request().Context())
    }
    if n.Audit == nil {
        return
    }
    logger := c.Logger()
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer cancel()
        if err := n.Audit.Publish(ctx, msgType, payload); err != nil {
            logger.Warnf("audit: publish %s failed: %v", msgType, err)
        }
    }()
}

func fail(c echo.Context, status int, msg string) error {
    return c.JSON(status, echo.Map{"success": false, "error": msg})
}

// statusFor maps the domain taxonomy onto HTTP status codes.  Anything
// unknown is a server error.
func statusFor(err error) int {
    switch {
    case errors.Is(err, domain.ErrInvalidRequest),
        errors.Is(err, domain.ErrInvalidTier),
        errors.Is(err, domain.ErrInvalidStatus):
        return http.StatusBadRequest
    case errors.Is(err, domain.ErrCustomerNotFound),
        errors.Is(err, domain.ErrEventNotFound),
        errors.Is(err, domain.ErrVenueNotFound),
        errors.Is(err, domain.ErrTicketNotFound):
        return http.StatusNotFound
    case errors.Is(err, domain.ErrSeatUnavailable),
        errors.Is(err, domain.ErrAlreadyCheckedIn):
        return http.StatusConflict
    }
    return http.StatusInternalServerError
}

// writeError renders err.  Server errors are logged with their cause and
// answered with the generic message.
func writeError(c echo.Context, err error, generic string) error {
    status := statusFor(err)
    if status == http.StatusInternalServerError {
        c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
        return fail(c, status, generic)
    }
    return fail(c, status, err.Error())
}

// text accepts a JSON string or number.  Seat rows and numbers arrive as
// either depending on the client.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
    if string(b) == "null" {
        *t = ""
        return nil
    }
    var s string
    if err := json.Unmarshal(b, &s); err == nil {
        *t = text(strings.TrimSpace(s))
        return nil
    }
    var n json.Number
    if err := json.Unmarshal(b, &n); err != nil {
        return fmt.Errorf("expected string or number, got %s", b)
    }
    *t = text(n.String())
    return nil
}

// intParam parses an optional non-negative integer.  Empty yields def.
func intParam(s string, def int) (int, error) {
    s = strings.TrimSpace(s)
    if s == "" {
        return def, nil
    }
    n, err := strconv.Atoi(s)
    if err != nil || n < 0 {
        return 0, fmt.Errorf("invalid integer %q", s)
    }
    return n, nil
}
