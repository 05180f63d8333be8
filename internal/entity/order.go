package domain

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending_payment"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "payment_failed"
	PaymentRefunded PaymentStatus = "refunded"
)

var ErrIllegalTransition = errors.New("illegal order status transition")

// transitions is the full set of legal (from, to) pairs for operator-driven
// status changes. Payment-driven changes (gateway result, webhook) do not go
// through this table.
var transitions = map[Status][]Status{
	StatusConfirmed: {StatusShipped},
	StatusShipped:   {StatusDelivered},
}

func CanTransition(from, to Status) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Transition mutates the order status, or fails without mutation.
func (o *Order) Transition(to Status) error {
	if !CanTransition(o.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.Status, to)
	}
	o.Status = to
	return nil
}

// InitialStatus is the gateway's synchronous payment outcome classification,
// distinct from the asynchronous confirmation that may follow via webhook.
type InitialStatus string

const (
	InitialConfirmed      InitialStatus = "confirmed"
	InitialPendingPayment InitialStatus = "pending_payment"
)

// StatusesFor maps the gateway's initial result onto the two status axes of a
// freshly created order.
func StatusesFor(initial InitialStatus) (Status, PaymentStatus) {
	if initial == InitialConfirmed {
		return StatusConfirmed, PaymentPaid
	}
	return StatusPending, PaymentPending
}

type Order struct {
	ID                    string
	OrderNumber           string
	UserID                int64
	TotalAmountCents      int64
	TotalQuantity         int64
	Status                Status
	PaymentStatus         PaymentStatus
	Address               string
	ExternalOrderRef      string
	ExternalTransactionID string
	ArchivedAt            *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
	Items                 []OrderItem
}

// OrderItem snapshots the product price at order time; it is never re-read
// from the product afterward.
type OrderItem struct {
	OrderID        string
	ProductID      int64
	Quantity       int64
	UnitPriceCents int64
}

const orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewOrderNumber returns an externally shareable identifier of the form
// ORD-XXXXXXXXXX.
func NewOrderNumber() string {
	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	for i, b := range buf {
		buf[i] = orderNumberAlphabet[int(b)%len(orderNumberAlphabet)]
	}
	return "ORD-" + string(buf)
}
