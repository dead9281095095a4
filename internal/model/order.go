package model

import "time"

// Order status values.
const OrderPaid = "PAID"

// Order is created once per purchased seat.  OrderNum is assigned by the
// database on insert.
//
// Fields:
//  OrderNum       – `Order`.order_num (auto increment)
//  OrderDate      – `Order`.order_date
//  Subtotal       – seat price at the time of purchase
//  DiscountAmount – always zero for now
//  Status         – `Order`.order_status
//  CustomerEmail  – owning customer
//  PaymentMethod  – free text supplied by the client
type Order struct {
    OrderNum       uint64
    OrderDate      time.Time
    Subtotal       Money
    DiscountAmount Money
    Status         string
    CustomerEmail  string
    PaymentMethod  string
}
