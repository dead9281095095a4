package router

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/handler"
)

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func TestRegisterAPI(t *testing.T) {
	t.Parallel()
	e := echo.New()
	RegisterRoutes(e, nil)
	RegisterAPI(e, Handlers{
		Purchase: &handler.PurchaseHandler{},
		Events:   &handler.EventHandler{},
		Tickets:  &handler.TicketHandler{},
		Customer: &handler.CustomerHandler{},
		Reports:  &handler.ReportHandler{},
	}, passthrough, Limits{Purchase: passthrough})

	want := map[string]bool{}
	for _, k := range []string{
		"GET /healthz",
		"GET /api/events",
		"GET /api/venues",
		"GET /api/seats/:event_name/:event_date",
		"GET /api/history/:email",
		"GET /api/reports/sales",
		"GET /api/tickets/:qr_code",
		"POST /api/purchase",
		"POST /purchase",
		"POST /api/checkin",
		"PUT /api/events/status",
		"POST /api/loyalty/update",
	} {
		want[k] = false
	}
	for _, r := range e.Routes() {
		k := r.Method + " " + r.Path
		if _, ok := want[k]; ok {
			want[k] = true
		}
	}
	for k, seen := range want {
		if !seen {
			t.Errorf("route %s not registered", k)
		}
	}
}

func TestHealthRoute(t *testing.T) {
	t.Parallel()
	e := echo.New()
	Setup(e, Options{})
	RegisterRoutes(e, nil)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body)
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Errorf("missing request id header")
	}
}

func TestStaticFrontEnd(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>tickets</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	e := echo.New()
	Setup(e, Options{StaticDir: dir})
	RegisterRoutes(e, nil)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "tickets") {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Body.String() != "ok" {
		t.Fatalf("static middleware shadowed /healthz: %q", rec.Body)
	}
}
