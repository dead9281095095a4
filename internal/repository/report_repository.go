package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// ReportRepo runs read-only aggregate queries for staff reports.
type ReportRepo struct{ store *Store }

func NewReportRepo(store *Store) *ReportRepo { return &ReportRepo{store: store} }

// Sales aggregates tickets, revenue and attendance per event.  Events
// without sales are included with zero counts unless MinTickets filters
// them out.  Results are ordered by revenue, then tickets sold.
func (r *ReportRepo) Sales(ctx context.Context, f model.SalesFilter) ([]model.SalesReport, error) {
	q := `SELECT e.name,
                 DATE_FORMAT(e.date, '%Y-%m-%d') AS event_date,
                 e.status,
                 v.name,
                 v.capacity,
                 COUNT(DISTINCT t.qr_code) AS tickets_sold,
                 COUNT(DISTINCT o.customer_email) AS unique_customers,
                 COALESCE(SUM(o.subtotal), 0) AS total_revenue,
                 COALESCE(ROUND(AVG(o.subtotal), 2), 0) AS avg_ticket_price,
                 COALESCE(MIN(o.subtotal), 0) AS min_price,
                 COALESCE(MAX(o.subtotal), 0) AS max_price,
                 COUNT(DISTINCT ci.qr_code) AS checked_in_count,
                 ROUND(COUNT(DISTINCT ci.qr_code) * 100.0 / NULLIF(COUNT(DISTINCT t.qr_code), 0), 2) AS checkin_rate
          FROM Event e
          INNER JOIN Venue v ON v.name = e.venue_name AND v.address = e.venue_address
          LEFT JOIN Ticket t ON t.event_name = e.name AND t.event_date = e.date
                            AND t.venue_name = e.venue_name AND t.venue_address = e.venue_address
          LEFT JOIN ` + "`Order`" + ` o ON o.order_num = t.order_num
          LEFT JOIN CheckIn ci ON ci.qr_code = t.qr_code
          WHERE 1=1`
	args := []any{}
	if f.EventName != "" {
		q += " AND e.name LIKE ?"
		args = append(args, "%"+f.EventName+"%")
	}
	q += `
          GROUP BY e.name, e.date, e.venue_name, e.venue_address, e.status, v.name, v.capacity`
	if f.MinTickets > 0 {
		q += " HAVING tickets_sold >= ?"
		args = append(args, f.MinTickets)
	}
	q += " ORDER BY total_revenue DESC, tickets_sold DESC"

	rows, err := r.store.conn(ctx).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, classify("sales report", err)
	}
	defer rows.Close()
	out := []model.SalesReport{}
	for rows.Next() {
		var (
			s    model.SalesReport
			rate sql.NullFloat64
		)
		if err := rows.Scan(&s.EventName, &s.EventDate, &s.Status, &s.VenueName, &s.Capacity,
			&s.TicketsSold, &s.UniqueCustomers, &s.TotalRevenue, &s.AvgTicketPrice,
			&s.MinPrice, &s.MaxPrice, &s.CheckedInCount, &rate); err != nil {
			return nil, classify("scan sales report", err)
		}
		if rate.Valid {
			v := rate.Float64
			s.CheckinRate = &v
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("sales report", err)
	}
	return out, nil
}
