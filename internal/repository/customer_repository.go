package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/event-ticketing/internal/domain"
	"github.com/iliyamo/event-ticketing/internal/model"
)

// CustomerRepo reads customers (joined with Person for names) and updates
// loyalty tiers.
type CustomerRepo struct{ store *Store }

func NewCustomerRepo(store *Store) *CustomerRepo { return &CustomerRepo{store: store} }

// Exists reports whether a customer with the given email is registered.
func (r *CustomerRepo) Exists(ctx context.Context, email string) (bool, error) {
	var found string
	err := r.store.conn(ctx).QueryRowContext(ctx,
		"SELECT email FROM Customer WHERE email = ? LIMIT 1", email).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, classify("customer exists", err)
	}
	return true, nil
}

// Get loads a customer and its display name.  It returns
// domain.ErrCustomerNotFound when no row matches.
func (r *CustomerRepo) Get(ctx context.Context, email string) (model.Customer, error) {
	const q = `SELECT c.email, COALESCE(p.first_name, ''), COALESCE(p.last_name, ''), c.loyalty_tier
               FROM Customer c
               LEFT JOIN Person p ON p.email = c.email
               WHERE c.email = ?`
	var c model.Customer
	err := r.store.conn(ctx).QueryRowContext(ctx, q, email).
		Scan(&c.Email, &c.FirstName, &c.LastName, &c.LoyaltyTier)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Customer{}, domain.ErrCustomerNotFound
	}
	if err != nil {
		return model.Customer{}, classify("get customer", err)
	}
	return c, nil
}

// LoyaltyCandidatesForUpdate returns customers holding at least
// minPurchases tickets whose current tier is empty or one of belowTiers.
// Customer rows in those tiers are locked first and the tier reported is
// the one read under the lock, so a tier raised by a concurrent update is
// never reported or overwritten.
func (r *CustomerRepo) LoyaltyCandidatesForUpdate(ctx context.Context, minPurchases int, belowTiers []string) ([]model.LoyaltyCandidate, error) {
	if len(belowTiers) == 0 {
		return []model.LoyaltyCandidate{}, nil
	}
	conn := r.store.conn(ctx)

	tierCond, tierArgs := tierBelowClause("loyalty_tier", belowTiers)
	lrows, err := conn.QueryContext(ctx,
		"SELECT email, COALESCE(loyalty_tier, '') FROM Customer WHERE "+tierCond+" ORDER BY email FOR UPDATE", tierArgs...)
	if err != nil {
		return nil, classify("lock customers", err)
	}
	locked := map[string]string{}
	for lrows.Next() {
		var email, tier string
		if err := lrows.Scan(&email, &tier); err != nil {
			_ = lrows.Close()
			return nil, classify("scan locked customer", err)
		}
		locked[email] = tier
	}
	if err := lrows.Err(); err != nil {
		_ = lrows.Close()
		return nil, classify("lock customers", err)
	}
	if err := lrows.Close(); err != nil {
		return nil, classify("lock customers", err)
	}
	if len(locked) == 0 {
		return []model.LoyaltyCandidate{}, nil
	}

	emailIn := strings.TrimSuffix(strings.Repeat("?,", len(locked)), ",")
	args := make([]any, 0, len(locked)+1)
	for email := range locked {
		args = append(args, email)
	}
	args = append(args, minPurchases)
	q := `SELECT c.email,
                 TRIM(CONCAT(COALESCE(p.first_name, ''), ' ', COALESCE(p.last_name, ''))) AS name,
                 COUNT(t.qr_code) AS purchase_count,
                 COALESCE(SUM(o.subtotal), 0) AS total_spent
          FROM Customer c
          LEFT JOIN Person p ON p.email = c.email
          LEFT JOIN ` + "`Order`" + ` o ON o.customer_email = c.email
          LEFT JOIN Ticket t ON t.order_num = o.order_num
          WHERE c.email IN (` + emailIn + `)
          GROUP BY c.email, p.first_name, p.last_name
          HAVING purchase_count >= ?
          ORDER BY c.email`

	rows, err := conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, classify("loyalty candidates", err)
	}
	defer rows.Close()
	out := []model.LoyaltyCandidate{}
	for rows.Next() {
		var c model.LoyaltyCandidate
		if err := rows.Scan(&c.Email, &c.Name, &c.PurchaseCount, &c.TotalSpent); err != nil {
			return nil, classify("scan loyalty candidate", err)
		}
		c.CurrentTier = locked[c.Email]
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("loyalty candidates", err)
	}
	return out, nil
}

// UpdateTier sets tier on the listed customers whose current tier is
// still empty or one of fromTiers, and returns the number of rows changed.
func (r *CustomerRepo) UpdateTier(ctx context.Context, emails []string, tier string, fromTiers []string) (int64, error) {
	if len(emails) == 0 {
		return 0, nil
	}
	in := strings.TrimSuffix(strings.Repeat("?,", len(emails)), ",")
	tierCond, tierArgs := tierBelowClause("loyalty_tier", fromTiers)
	args := make([]any, 0, len(emails)+len(tierArgs)+1)
	args = append(args, tier)
	for _, e := range emails {
		args = append(args, e)
	}
	args = append(args, tierArgs...)
	res, err := r.store.conn(ctx).ExecContext(ctx,
		"UPDATE Customer SET loyalty_tier = ? WHERE email IN ("+in+") AND ("+tierCond+")", args...)
	if err != nil {
		return 0, classify("update tier", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify("update tier", err)
	}
	return n, nil
}

// tierBelowClause matches an empty tier or one of tiers.
func tierBelowClause(col string, tiers []string) (string, []any) {
	cond := col + " IS NULL OR " + col + " = ''"
	if len(tiers) == 0 {
		return cond, nil
	}
	args := make([]any, 0, len(tiers))
	for _, t := range tiers {
		args = append(args, t)
	}
	return cond + " OR " + col + " IN (" + strings.TrimSuffix(strings.Repeat("?,", len(tiers)), ",") + ")", args
}

// History lists every ticket bought by the customer, newest first, with
// event, venue and check-in state.  A customer without purchases yields a
// single entry carrying only the customer fields.  Unknown customers
// return domain.ErrCustomerNotFound.
func (r *CustomerRepo) History(ctx context.Context, email string) ([]model.HistoryEntry, error) {
	const q = `SELECT c.email,
                      TRIM(CONCAT(COALESCE(p.first_name, ''), ' ', COALESCE(p.last_name, ''))) AS customer_name,
                      COALESCE(c.loyalty_tier, ''),
                      t.qr_code,
                      o.payment_method,
                      o.order_date,
                      o.subtotal,
                      e.name,
                      DATE_FORMAT(e.date, '%Y-%m-%d'),
                      e.status,
                      v.name,
                      CASE WHEN t.qr_code IS NULL THEN NULL
                           ELSE CONCAT(t.` + "`section`, '-', t.`row`, '-', t.`number`" + `) END AS seat_location,
                      CASE WHEN ci.qr_code IS NOT NULL THEN 'Checked In' ELSE 'Not Checked In' END AS checkin_status
               FROM Customer c
               LEFT JOIN Person p ON p.email = c.email
               LEFT JOIN (` + "`Order`" + ` o JOIN Ticket t ON t.order_num = o.order_num)
                      ON o.customer_email = c.email
               LEFT JOIN Event e ON e.name = t.event_name AND e.date = t.event_date
                                AND e.venue_name = t.venue_name AND e.venue_address = t.venue_address
               LEFT JOIN Venue v ON v.name = e.venue_name AND v.address = e.venue_address
               LEFT JOIN CheckIn ci ON ci.qr_code = t.qr_code
               WHERE c.email = ?
               ORDER BY o.order_date DESC, t.qr_code`
	rows, err := r.store.conn(ctx).QueryContext(ctx, q, email)
	if err != nil {
		return nil, classify("purchase history", err)
	}
	defer rows.Close()
	out := []model.HistoryEntry{}
	for rows.Next() {
		var (
			h            model.HistoryEntry
			qr, payment  sql.NullString
			orderDate    sql.NullTime
			subtotal     *model.Money
			eventName    sql.NullString
			eventDate    sql.NullString
			eventStatus  sql.NullString
			venueName    sql.NullString
			seatLocation sql.NullString
		)
		if err := rows.Scan(&h.Email, &h.CustomerName, &h.LoyaltyTier, &qr, &payment, &orderDate,
			&subtotal, &eventName, &eventDate, &eventStatus, &venueName, &seatLocation, &h.CheckinStatus); err != nil {
			return nil, classify("scan history", err)
		}
		h.QRCode = nullString(qr)
		h.PaymentMethod = nullString(payment)
		if orderDate.Valid {
			d := orderDate.Time.UTC()
			h.PurchaseDate = &d
		}
		h.TotalPrice = subtotal
		h.EventName = nullString(eventName)
		h.EventDate = nullString(eventDate)
		h.EventStatus = nullString(eventStatus)
		h.VenueName = nullString(venueName)
		h.SeatLocation = nullString(seatLocation)
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("purchase history", err)
	}
	if len(out) == 0 {
		return nil, domain.ErrCustomerNotFound
	}
	return out, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
