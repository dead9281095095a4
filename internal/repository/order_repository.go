package repository

import (
	"context"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// OrderRepo inserts orders.  Orders are never updated by the
// application once written.
type OrderRepo struct{ store *Store }

// NewOrderRepo returns an OrderRepo bound to the shared store.
func NewOrderRepo(store *Store) *OrderRepo { return &OrderRepo{store: store} }

// Create inserts o with order_date = NOW() and populates o.OrderNum with
// the generated key.  It must run inside the purchase transaction.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	const q = "INSERT INTO `Order` (order_date, subtotal, discount_amount, order_status, customer_email, payment_method)" +
		" VALUES (NOW(), ?, ?, ?, ?, ?)"
	res, err := r.store.conn(ctx).ExecContext(ctx, q,
		o.Subtotal, o.DiscountAmount, o.Status, o.CustomerEmail, o.PaymentMethod)
	if err != nil {
		return classify("create order", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return classify("create order", err)
	}
	o.OrderNum = uint64(id)
	return nil
}
