package payment

import (
	"context"
	"errors"
)

var (
	ErrInvalidAmount  = errors.New("payment: amount must be greater than zero")
	ErrUnknownGateway = errors.New("payment: gateway is not registered")
)

type ResultStatus string

const (
	ResultSuccess ResultStatus = "success"
	ResultFailed  ResultStatus = "failed"
)

type InitialStatus string

const (
	InitialConfirmed      InitialStatus = "confirmed"
	InitialPendingPayment InitialStatus = "pending_payment"
)

// Result is the synchronous outcome of a charge attempt. It is transient and
// never persisted as its own entity.
type Result struct {
	Status           ResultStatus
	InitialStatus    InitialStatus
	ExternalOrderRef string
	TransactionID    string
	PaymentToken     string
	RedirectURL      string
	Message          string
}

type Refund struct {
	Refunded      bool
	RefundID      string
	TransactionID string
	Message       string
}

// BillingContext carries the customer data a gateway needs to describe the
// payer. Fields may be empty; gateways substitute placeholder defaults.
type BillingContext struct {
	UserID int64
	Name   string
	Email  string
	Phone  string
}

// Gateway is the single contract the order orchestrator talks to, regardless
// of backend. Implementations must reject amounts <= 0 before any external
// call, and must not retry partial external state on their own: retry policy
// belongs to the caller.
type Gateway interface {
	Name() string
	ProcessPayment(ctx context.Context, amountCents int64, bill BillingContext) (*Result, error)
	Refund(ctx context.Context, transactionID string, amountCents int64) (*Refund, error)
}
