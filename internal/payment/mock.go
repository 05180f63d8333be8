package payment

import (
	"context"

	"github.com/google/uuid"
)

const GatewayMock = "mock"

// MockGateway settles inline without any external call. It backs local
// development and is the fallback when the real gateway is misconfigured.
type MockGateway struct{}

func NewMockGateway() *MockGateway { return &MockGateway{} }

func (g *MockGateway) Name() string { return GatewayMock }

func (g *MockGateway) ProcessPayment(_ context.Context, amountCents int64, _ BillingContext) (*Result, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	return &Result{
		Status:        ResultSuccess,
		InitialStatus: InitialConfirmed,
		TransactionID: "txn_" + uuid.NewString(),
	}, nil
}

func (g *MockGateway) Refund(_ context.Context, transactionID string, amountCents int64) (*Refund, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	return &Refund{
		Refunded:      true,
		RefundID:      "ref_" + uuid.NewString(),
		TransactionID: transactionID,
	}, nil
}

var _ Gateway = (*MockGateway)(nil)
