// Package testutil connects integration tests to a disposable MySQL
// database.  Tests are skipped when the server is unreachable.
package testutil

import (
	"context"
	"database/sql"
	_ "embed"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/event-ticketing/internal/database"
	"github.com/iliyamo/event-ticketing/internal/model"
)

const (
	defaultTestDSN = "root@tcp(localhost:3306)/ticketing_test?parseTime=true&loc=UTC"
	testDBLockName = "event_ticketing_tests"
)

//go:embed schema.sql
var schema string

// NewTestDB opens TEST_MYSQL_DSN, applies the schema and holds a named
// lock for the life of the test so packages sharing the database do not
// interleave.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		dsn = defaultTestDSN
	}
	db, err := database.OpenDSN(dsn)
	if err != nil {
		t.Skipf("skipping MySQL integration tests: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	lockTestDB(t, db)
	ApplySchema(t, db)
	return db
}

// ApplySchema creates the tables if they do not exist.
func ApplySchema(t *testing.T, db *sql.DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("apply schema: %v\n%s", err, stmt)
		}
	}
}

// TruncateAll empties every table, children first.
func TruncateAll(t *testing.T, db *sql.DB) {
	t.Helper()
	for _, table := range []string{"CheckIn", "Ticket", "`Order`", "EventSeat", "Event", "Customer", "Person", "Venue"} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
}

// InsertCustomer creates a Person and Customer row.
func InsertCustomer(t *testing.T, db *sql.DB, email, first, last, tier string) {
	t.Helper()
	if _, err := db.Exec("INSERT INTO Person (email, first_name, last_name) VALUES (?, ?, ?)", email, first, last); err != nil {
		t.Fatalf("insert person: %v", err)
	}
	var tierArg any
	if tier != "" {
		tierArg = tier
	}
	if _, err := db.Exec("INSERT INTO Customer (email, loyalty_tier) VALUES (?, ?)", email, tierArg); err != nil {
		t.Fatalf("insert customer: %v", err)
	}
}

// InsertEvent creates the venue (if missing) and a SCHEDULED event.
func InsertEvent(t *testing.T, db *sql.DB, key model.EventKey, capacity int) {
	t.Helper()
	if _, err := db.Exec("INSERT IGNORE INTO Venue (name, address, capacity) VALUES (?, ?, ?)",
		key.VenueName, key.VenueAddress, capacity); err != nil {
		t.Fatalf("insert venue: %v", err)
	}
	if _, err := db.Exec("INSERT INTO Event (name, date, venue_name, venue_address, status) VALUES (?, ?, ?, ?, 'SCHEDULED')",
		key.Name, key.Date, key.VenueName, key.VenueAddress); err != nil {
		t.Fatalf("insert event: %v", err)
	}
}

// InsertSeat creates an AVAILABLE seat with the given price.
func InsertSeat(t *testing.T, db *sql.DB, key model.EventKey, seat model.SeatRef, price model.Money) {
	t.Helper()
	_, err := db.Exec("INSERT INTO EventSeat (event_name, event_date, venue_name, venue_address, `section`, `row`, `number`, price, availability_status)"+
		" VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'AVAILABLE')",
		key.Name, key.Date, key.VenueName, key.VenueAddress, seat.Section, seat.Row, seat.Number, price)
	if err != nil {
		t.Fatalf("insert seat: %v", err)
	}
}

// Count returns SELECT COUNT(*) for the given table and optional WHERE
// clause.
func Count(t *testing.T, db *sql.DB, table, where string, args ...any) int {
	t.Helper()
	q := "SELECT COUNT(*) FROM " + table
	if where != "" {
		q += " WHERE " + where
	}
	var n int
	if err := db.QueryRow(q, args...).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func lockTestDB(t *testing.T, db *sql.DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	conn, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("acquire lock conn: %v", err)
	}
	var got sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, 60)", testDBLockName).Scan(&got); err != nil || got.Int64 != 1 {
		_ = conn.Close()
		t.Fatalf("acquire test lock: got=%v err=%v", got, err)
	}

	t.Cleanup(func() {
		_, _ = conn.ExecContext(context.Background(), "SELECT RELEASE_LOCK(?)", testDBLockName)
		_ = conn.Close()
	})
}
