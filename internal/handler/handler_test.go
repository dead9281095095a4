package handler

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/domain"
    "github.com/iliyamo/event-ticketing/internal/model"
    "github.com/iliyamo/event-ticketing/internal/queue"
    "github.com/iliyamo/event-ticketing/internal/service"
)

type stubPurchaser struct {
    got     service.PurchaseRequest
    tickets []model.PurchasedTicket
    err     error
}

func (s *stubPurchaser) Purchase(_ context.Context, req service.PurchaseRequest) ([]model.PurchasedTicket, error) {
    s.got = req
    return s.tickets, s.err
}

type recordingAuditor struct {
    sent chan string
}

func newRecordingAuditor() *recordingAuditor { return &recordingAuditor{sent: make(chan string, 4)} }

func (a *recordingAuditor) Publish(_ context.Context, msgType string, _ any) error {
    a.sent <- msgType
    return nil
}

func (a *recordingAuditor) wait(t *testing.T) string {
    t.Helper()
    select {
    case m := <-a.sent:
        return m
    case <-time.After(2 * time.Second):
        t.Fatalf("no audit message published")
        return ""
    }
}

type countingCache struct{ purges int }

func (c *countingCache) Purge(context.Context) { c.purges++ }

func doJSON(t *testing.T, method, target, body string, h echo.HandlerFunc, params ...string) (*httptest.ResponseRecorder, map[string]any) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(method, target, strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    if len(params) > 0 {
        names, values := []string{}, []string{}
        for i := 0; i+1 < len(params); i += 2 {
            names = append(names, params[i])
            values = append(values, params[i+1])
        }
        c.SetParamNames(names...)
        c.SetParamValues(values...)
    }
    if err := h(c); err != nil {
        t.Fatalf("handler returned error: %v", err)
    }
    var out map[string]any
    if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
        if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
            t.Fatalf("decode %q: %v", rec.Body.String(), err)
        }
    }
    return rec, out
}

const purchaseJSON = `{"customer_email":"a@b.com","event_name":"Concert","event_date":"2024-06-01",
"venue_name":"Arena","venue_address":"1 Main St","payment_method":"CREDIT_CARD",
"seats":[{"section":"A","row":1,"number":"5"}]}`

func TestPurchaseHandlerSuccess(t *testing.T) {
    t.Parallel()
    svc := &stubPurchaser{tickets: []model.PurchasedTicket{{QRCode: "QRX", Section: "A", Row: "1", Number: "5", Price: 5000, OrderID: 9}}}
    audit := newRecordingAuditor()
    cache := &countingCache{}
    h := NewPurchaseHandler(svc, Notifier{Audit: audit, Cache: cache})

    rec, out := doJSON(t, http.MethodPost, "/api/purchase", purchaseJSON, h.Purchase)
    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
    }
    if out["success"] != true {
        t.Errorf("success = %v", out["success"])
    }
    if !strings.Contains(rec.Body.String(), `"price":50.00`) {
        t.Errorf("price not rendered as 50.00: %s", rec.Body)
    }
    tickets := out["tickets"].([]any)
    first := tickets[0].(map[string]any)
    if first["qr_code"] != "QRX" || first["order_id"] != float64(9) || first["row"] != "1" {
        t.Errorf("ticket = %v", first)
    }

    want := service.PurchaseRequest{
        CustomerEmail: "a@b.com",
        Event:         model.EventKey{Name: "Concert", Date: "2024-06-01", VenueName: "Arena", VenueAddress: "1 Main St"},
        PaymentMethod: "CREDIT_CARD",
        Seats:         []model.SeatRef{{Section: "A", Row: "1", Number: "5"}},
    }
    if svc.got.CustomerEmail != want.CustomerEmail || svc.got.Event != want.Event || svc.got.PaymentMethod != want.PaymentMethod ||
        len(svc.got.Seats) != 1 || svc.got.Seats[0] != want.Seats[0] {
        t.Errorf("request = %+v", svc.got)
    }
    if got := audit.wait(t); got != queue.TypeTicketsPurchased {
        t.Errorf("audit type = %s", got)
    }
    if cache.purges != 1 {
        t.Errorf("purges = %d, want 1", cache.purges)
    }
}

func TestPurchaseHandlerErrors(t *testing.T) {
    t.Parallel()
    tests := []struct {
        name       string
        body       string
        err        error
        wantStatus int
        wantMsg    string
    }{
        {name: "seat taken", body: purchaseJSON, err: &domain.SeatUnavailableError{Section: "A", Row: "1", Number: "5"},
            wantStatus: http.StatusConflict, wantMsg: "Seat A-1-5 is not available"},
        {name: "no customer", body: purchaseJSON, err: domain.ErrCustomerNotFound, wantStatus: http.StatusNotFound, wantMsg: "Customer not found"},
        {name: "no event", body: purchaseJSON, err: domain.ErrEventNotFound, wantStatus: http.StatusNotFound, wantMsg: "Event not found"},
        {name: "invalid", body: purchaseJSON, err: domain.Invalid("at least one seat is required"), wantStatus: http.StatusBadRequest, wantMsg: "at least one seat is required"},
        {name: "storage", body: purchaseJSON, err: domain.Storage("create order", errors.New("dial tcp: refused")),
            wantStatus: http.StatusInternalServerError, wantMsg: "purchase failed"},
        {name: "malformed body", body: `{"seats":"A-1-5"}`, wantStatus: http.StatusBadRequest, wantMsg: "invalid request body"},
    }
    for _, tt := range tests {
        tt := tt
        t.Run(tt.name, func(t *testing.T) {
            t.Parallel()
            cache := &countingCache{}
            h := NewPurchaseHandler(&stubPurchaser{err: tt.err}, Notifier{Cache: cache})
            rec, out := doJSON(t, http.MethodPost, "/api/purchase", tt.body, h.Purchase)
            if rec.Code != tt.wantStatus {
                t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
            }
            if out["success"] != false || out["error"] != tt.wantMsg {
                t.Errorf("body = %v", out)
            }
            if cache.purges != 0 {
                t.Errorf("cache purged on failure")
            }
        })
    }
}

type stubCheckIn struct {
    res service.CheckInResult
    err error
}

func (s stubCheckIn) CheckIn(context.Context, string, string) (service.CheckInResult, error) {
    return s.res, s.err
}

type stubTickets struct {
    t   model.TicketDetail
    err error
}

func (s stubTickets) TicketByQRCode(context.Context, string) (model.TicketDetail, error) { return s.t, s.err }

func TestCheckInHandler(t *testing.T) {
    t.Parallel()
    at := time.Date(2025, 12, 1, 19, 0, 0, 0, time.UTC)

    t.Run("ok", func(t *testing.T) {
        t.Parallel()
        audit := newRecordingAuditor()
        h := NewTicketHandler(stubCheckIn{res: service.CheckInResult{
            Ticket:  model.TicketDetail{QRCode: "QR1", Seat: "A-1-5"},
            CheckIn: model.CheckIn{QRCode: "QR1", CheckinTime: at, Gate: "North"},
        }}, nil, Notifier{Audit: audit})
        rec, out := doJSON(t, http.MethodPost, "/api/checkin", `{"qr_code":"QR1","gate":"North"}`, h.CheckIn)
        if rec.Code != http.StatusOK || out["message"] != "Check-in successful" {
            t.Fatalf("status=%d body=%v", rec.Code, out)
        }
        if got := audit.wait(t); got != queue.TypeTicketCheckedIn {
            t.Errorf("audit type = %s", got)
        }
    })

    t.Run("already checked in", func(t *testing.T) {
        t.Parallel()
        h := NewTicketHandler(stubCheckIn{err: &domain.AlreadyCheckedInError{CheckinTime: at, Gate: "North"}}, nil, Notifier{})
        rec, out := doJSON(t, http.MethodPost, "/api/checkin", `{"qr_code":"QR1","gate":3}`, h.CheckIn)
        if rec.Code != http.StatusConflict {
            t.Fatalf("status = %d", rec.Code)
        }
        if out["error"] != "Ticket already checked in" || out["checkin_time"] != "2025-12-01T19:00:00Z" {
            t.Errorf("body = %v", out)
        }
    })

    t.Run("unknown code", func(t *testing.T) {
        t.Parallel()
        h := NewTicketHandler(stubCheckIn{err: domain.ErrTicketNotFound}, nil, Notifier{})
        rec, out := doJSON(t, http.MethodPost, "/api/checkin", `{"qr_code":"QRX","gate":"N"}`, h.CheckIn)
        if rec.Code != http.StatusNotFound || out["error"] != "Invalid QR code" {
            t.Errorf("status=%d body=%v", rec.Code, out)
        }
    })
}

func TestGetTicket(t *testing.T) {
    t.Parallel()
    h := NewTicketHandler(nil, stubTickets{t: model.TicketDetail{QRCode: "QR1", EventName: "Concert", Seat: "A-1-5"}}, Notifier{})
    rec, out := doJSON(t, http.MethodGet, "/api/tickets/QR1", "", h.GetTicket, "qr_code", "QR1")
    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d", rec.Code)
    }
    tk := out["ticket"].(map[string]any)
    if tk["event_name"] != "Concert" || tk["seat"] != "A-1-5" {
        t.Errorf("ticket = %v", tk)
    }

    h = NewTicketHandler(nil, stubTickets{err: domain.ErrTicketNotFound}, Notifier{})
    rec, _ = doJSON(t, http.MethodGet, "/api/tickets/NOPE", "", h.GetTicket, "qr_code", "NOPE")
    if rec.Code != http.StatusNotFound {
        t.Errorf("status = %d, want 404", rec.Code)
    }
}

type stubCatalog struct {
    filter model.EventFilter
    err    error
}

func (s *stubCatalog) ListEvents(_ context.Context, f model.EventFilter) ([]model.EventSummary, error) {
    s.filter = f
    return []model.EventSummary{{Name: "Concert", Date: "2024-06-01", TotalSeats: 10, AvailableSeats: 9}}, s.err
}

func (s *stubCatalog) ListVenues(context.Context) ([]model.Venue, error) {
    return []model.Venue{{Name: "Arena", Address: "1 Main St"}}, s.err
}

func (s *stubCatalog) ListSeats(context.Context, string, string) ([]model.EventSeat, error) {
    return []model.EventSeat{{SeatRef: model.SeatRef{Section: "A", Row: "1", Number: "5"}, Price: 5000, AvailabilityStatus: model.SeatAvailable}}, s.err
}

type stubStatus struct {
    change service.StatusChange
    err    error
}

func (s stubStatus) SetStatus(context.Context, model.EventKey, string) (service.StatusChange, error) {
    return s.change, s.err
}

func TestEventHandlers(t *testing.T) {
    t.Parallel()

    t.Run("list with filters", func(t *testing.T) {
        t.Parallel()
        cat := &stubCatalog{}
        h := NewEventHandler(cat, nil, Notifier{})
        rec, out := doJSON(t, http.MethodGet, "/api/events?venue=Arena&status=scheduled&dateFrom=2024-01-01", "", h.ListEvents)
        if rec.Code != http.StatusOK || len(out["events"].([]any)) != 1 {
            t.Fatalf("status=%d body=%v", rec.Code, out)
        }
        if cat.filter != (model.EventFilter{Venue: "Arena", Status: model.EventScheduled, DateFrom: "2024-01-01"}) {
            t.Errorf("filter = %+v", cat.filter)
        }
    })

    t.Run("list rejects bad status", func(t *testing.T) {
        t.Parallel()
        h := NewEventHandler(&stubCatalog{}, nil, Notifier{})
        rec, _ := doJSON(t, http.MethodGet, "/api/events?status=POSTPONED", "", h.ListEvents)
        if rec.Code != http.StatusBadRequest {
            t.Errorf("status = %d", rec.Code)
        }
    })

    t.Run("list storage failure", func(t *testing.T) {
        t.Parallel()
        h := NewEventHandler(&stubCatalog{err: domain.Storage("list events", errors.New("boom"))}, nil, Notifier{})
        rec, out := doJSON(t, http.MethodGet, "/api/events", "", h.ListEvents)
        if rec.Code != http.StatusInternalServerError || out["error"] != "database error" {
            t.Errorf("status=%d body=%v", rec.Code, out)
        }
    })

    t.Run("status update", func(t *testing.T) {
        t.Parallel()
        audit := newRecordingAuditor()
        cache := &countingCache{}
        key := model.EventKey{Name: "Concert", Date: "2024-06-01", VenueName: "Arena", VenueAddress: "1 Main St"}
        h := NewEventHandler(nil, stubStatus{change: service.StatusChange{
            Message: "Event status updated from SCHEDULED to CANCELLED",
            Before:  model.Event{EventKey: key, Status: model.EventScheduled},
            After:   model.Event{EventKey: key, Status: model.EventCancelled},
        }}, Notifier{Audit: audit, Cache: cache})
        body := `{"event_name":"Concert","event_date":"2024-06-01","venue_name":"Arena","venue_address":"1 Main St","new_status":"CANCELLED"}`
        rec, out := doJSON(t, http.MethodPut, "/api/events/status", body, h.UpdateStatus)
        if rec.Code != http.StatusOK || out["message"] != "Event status updated from SCHEDULED to CANCELLED" {
            t.Fatalf("status=%d body=%v", rec.Code, out)
        }
        if after := out["after"].(map[string]any); after["status"] != model.EventCancelled || after["event_name"] != "Concert" {
            t.Errorf("after = %v", after)
        }
        if got := audit.wait(t); got != queue.TypeEventStatusChanged {
            t.Errorf("audit type = %s", got)
        }
        if cache.purges != 1 {
            t.Errorf("purges = %d", cache.purges)
        }
    })

    t.Run("status invalid", func(t *testing.T) {
        t.Parallel()
        h := NewEventHandler(nil, stubStatus{err: domain.ErrInvalidStatus}, Notifier{})
        rec, out := doJSON(t, http.MethodPut, "/api/events/status", `{"new_status":"X"}`, h.UpdateStatus)
        if rec.Code != http.StatusBadRequest || out["error"] != "Invalid status" {
            t.Errorf("status=%d body=%v", rec.Code, out)
        }
    })

    t.Run("seats", func(t *testing.T) {
        t.Parallel()
        h := NewEventHandler(&stubCatalog{}, nil, Notifier{})
        rec, out := doJSON(t, http.MethodGet, "/api/seats/Concert/2024-06-01", "", h.ListSeats, "event_name", "Concert", "event_date", "2024-06-01")
        if rec.Code != http.StatusOK || len(out["seats"].([]any)) != 1 {
            t.Fatalf("status=%d body=%v", rec.Code, out)
        }
        rec, _ = doJSON(t, http.MethodGet, "/api/seats/Concert/june", "", h.ListSeats, "event_name", "Concert", "event_date", "june")
        if rec.Code != http.StatusBadRequest {
            t.Errorf("bad date status = %d", rec.Code)
        }
    })

    t.Run("venues", func(t *testing.T) {
        t.Parallel()
        h := NewEventHandler(&stubCatalog{}, nil, Notifier{})
        rec, out := doJSON(t, http.MethodGet, "/api/venues", "", h.ListVenues)
        if rec.Code != http.StatusOK || len(out["venues"].([]any)) != 1 {
            t.Errorf("status=%d body=%v", rec.Code, out)
        }
    })
}

type stubHistory struct{ err error }

func (s stubHistory) History(context.Context, string) ([]model.HistoryEntry, error) {
    return []model.HistoryEntry{{Email: "a@b.com", CheckinStatus: "Not Checked In"}}, s.err
}

type stubLoyalty struct {
    min  int
    tier string
    res  service.LoyaltyResult
    err  error
}

func (s *stubLoyalty) Upgrade(_ context.Context, min int, tier string) (service.LoyaltyResult, error) {
    s.min, s.tier = min, tier
    return s.res, s.err
}

func TestCustomerHandlers(t *testing.T) {
    t.Parallel()

    h := NewCustomerHandler(stubHistory{}, nil, Notifier{})
    rec, out := doJSON(t, http.MethodGet, "/api/history/a@b.com", "", h.GetHistory, "email", "a@b.com")
    if rec.Code != http.StatusOK || len(out["history"].([]any)) != 1 {
        t.Fatalf("history status=%d body=%v", rec.Code, out)
    }

    h = NewCustomerHandler(stubHistory{err: domain.ErrCustomerNotFound}, nil, Notifier{})
    rec, _ = doJSON(t, http.MethodGet, "/api/history/x@y.com", "", h.GetHistory, "email", "x@y.com")
    if rec.Code != http.StatusNotFound {
        t.Errorf("unknown customer status = %d", rec.Code)
    }

    loyalty := &stubLoyalty{res: service.LoyaltyResult{
        Message: "Updated 1 customers to Gold tier",
        Updated: []service.TierChange{{Email: "a@b.com", OldTier: "Silver", NewTier: "Gold", PurchaseCount: 7}},
    }}
    cache := &countingCache{}
    h = NewCustomerHandler(nil, loyalty, Notifier{Cache: cache})
    rec, out = doJSON(t, http.MethodPost, "/api/loyalty/update", `{"min_purchases":"5","target_tier":"Gold"}`, h.UpdateLoyalty)
    if rec.Code != http.StatusOK || out["message"] != "Updated 1 customers to Gold tier" {
        t.Fatalf("loyalty status=%d body=%v", rec.Code, out)
    }
    if loyalty.min != 5 || loyalty.tier != "Gold" || cache.purges != 1 {
        t.Errorf("min=%d tier=%s purges=%d", loyalty.min, loyalty.tier, cache.purges)
    }

    h = NewCustomerHandler(nil, &stubLoyalty{err: domain.ErrInvalidTier}, Notifier{})
    rec, out = doJSON(t, http.MethodPost, "/api/loyalty/update", `{"min_purchases":5,"target_tier":"Platinum"}`, h.UpdateLoyalty)
    if rec.Code != http.StatusBadRequest || out["error"] != "Invalid tier" {
        t.Errorf("invalid tier status=%d body=%v", rec.Code, out)
    }

    rec, _ = doJSON(t, http.MethodPost, "/api/loyalty/update", `{"min_purchases":-2,"target_tier":"Gold"}`, h.UpdateLoyalty)
    if rec.Code != http.StatusBadRequest {
        t.Errorf("negative min status = %d", rec.Code)
    }
}

type stubReports struct{ f model.SalesFilter }

func (s *stubReports) SalesReport(_ context.Context, f model.SalesFilter) ([]model.SalesReport, error) {
    s.f = f
    return []model.SalesReport{{EventName: "Concert", TicketsSold: 3, TotalRevenue: 15000}}, nil
}

func TestSalesReport(t *testing.T) {
    t.Parallel()
    r := &stubReports{}
    h := NewReportHandler(r)

    rec, out := doJSON(t, http.MethodGet, "/api/reports/sales?event_name=Con&min_tickets=2", "", h.Sales)
    if rec.Code != http.StatusOK || len(out["reports"].([]any)) != 1 {
        t.Fatalf("status=%d body=%v", rec.Code, out)
    }
    if r.f != (model.SalesFilter{EventName: "Con", MinTickets: 2}) {
        t.Errorf("filter = %+v", r.f)
    }
    if !strings.Contains(rec.Body.String(), `"total_revenue":150.00`) {
        t.Errorf("revenue not rendered: %s", rec.Body)
    }

    rec, _ = doJSON(t, http.MethodGet, "/api/reports/sales?min_tickets=many", "", h.Sales)
    if rec.Code != http.StatusBadRequest {
        t.Errorf("bad min_tickets status = %d", rec.Code)
    }
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
    t.Parallel()
    rec, _ := doJSON(t, http.MethodGet, "/healthz", "", Health(stubPinger{}))
    if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
        t.Errorf("status=%d body=%q", rec.Code, rec.Body)
    }
    rec, _ = doJSON(t, http.MethodGet, "/healthz", "", Health(stubPinger{err: errors.New("down")}))
    if rec.Code != http.StatusServiceUnavailable {
        t.Errorf("status = %d, want 503", rec.Code)
    }
}

func TestText(t *testing.T) {
    t.Parallel()
    var v struct{ A, B, C text }
    if err := json.Unmarshal([]byte(`{"A":" x ","B":12,"C":null}`), &v); err != nil {
        t.Fatalf("unmarshal: %v", err)
    }
    if v.A != "x" || v.B != "12" || v.C != "" {
        t.Errorf("got %+v", v)
    }
    if err := json.Unmarshal([]byte(`{"A":true}`), &v); err == nil {
        t.Errorf("bool accepted")
    }
}
