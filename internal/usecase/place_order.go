package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/google/uuid"

	domain "github.com/karenkamal24/softigitalshop/internal/entity"
	"github.com/karenkamal24/softigitalshop/internal/payment"
)

type OrderLine struct {
	ProductID int64
	Quantity  int64
}

type PlaceOrderInput struct {
	UserID         int64
	Items          []OrderLine
	Address        string
	IdempotencyKey string
}

type PlaceOrderOutput struct {
	Order      *domain.Order
	PaymentURL string
}

// PlaceOrder converts a cart of line items into a durable order. Inventory
// reservation, the gateway charge, order creation and the fulfillment outbox
// row all happen in one transaction: any failure rolls everything back, so a
// failed charge never leaves an order row or a stock decrement behind.
type PlaceOrder struct {
	store   Store
	orders  OrderRepo
	users   UserRepo
	gateway payment.Gateway
	idem    IdempotencyStore
	log     *slog.Logger
}

func NewPlaceOrder(store Store, orders OrderRepo, users UserRepo, gateway payment.Gateway, idem IdempotencyStore, log *slog.Logger) *PlaceOrder {
	return &PlaceOrder{store: store, orders: orders, users: users, gateway: gateway, idem: idem, log: log}
}

func (uc *PlaceOrder) Execute(ctx context.Context, in PlaceOrderInput) (PlaceOrderOutput, error) {
	lines, err := mergeLines(in.Items)
	if err != nil {
		return PlaceOrderOutput{}, err
	}

	scope := strconv.FormatInt(in.UserID, 10)
	if in.IdempotencyKey != "" {
		if id, ok, _ := uc.idem.Recall(ctx, scope, in.IdempotencyKey); ok {
			existing, err := uc.orders.GetByID(ctx, id)
			if err != nil {
				return PlaceOrderOutput{}, err
			}
			return PlaceOrderOutput{Order: existing}, nil
		}
		ok, err := uc.idem.TryLock(ctx, scope, in.IdempotencyKey)
		if err != nil {
			return PlaceOrderOutput{}, err
		}
		if !ok {
			return PlaceOrderOutput{}, ErrDuplicate
		}
	}

	user, err := uc.users.GetByID(ctx, in.UserID)
	if err != nil {
		return PlaceOrderOutput{}, fmt.Errorf("load user %d: %w", in.UserID, err)
	}

	var out PlaceOrderOutput
	err = uc.store.InTx(ctx, func(tx Tx) error {
		order, redirect, err := uc.placeInTx(ctx, tx, user, lines, in.Address)
		if err != nil {
			return err
		}
		out = PlaceOrderOutput{Order: order, PaymentURL: redirect}
		return nil
	})
	if err != nil {
		return PlaceOrderOutput{}, err
	}

	if in.IdempotencyKey != "" {
		_ = uc.idem.Remember(ctx, scope, in.IdempotencyKey, out.Order.ID)
	}
	return out, nil
}

func (uc *PlaceOrder) placeInTx(ctx context.Context, tx Tx, user *domain.User, lines []OrderLine, address string) (*domain.Order, string, error) {
	var (
		items            []domain.OrderItem
		totalAmountCents int64
		totalQuantity    int64
	)

	// Reservations are acquired in ascending product-id order so two orders
	// sharing two products cannot deadlock by locking in opposite sequence.
	for _, line := range lines {
		product, err := tx.ReserveStock(ctx, line.ProductID, line.Quantity)
		if err != nil {
			return nil, "", err
		}

		// totals come from the locked product price, never from the client
		totalAmountCents += product.PriceInCents * line.Quantity
		totalQuantity += line.Quantity
		items = append(items, domain.OrderItem{
			ProductID:      product.ID,
			Quantity:       line.Quantity,
			UnitPriceCents: product.PriceInCents,
		})
	}

	// resolve the delivery address before touching the gateway: never charge
	// for an undeliverable order
	if address == "" {
		address = user.Address
	}
	if address == "" {
		return nil, "", ErrMissingAddress
	}

	res, err := uc.gateway.ProcessPayment(ctx, totalAmountCents, payment.BillingContext{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Phone:  user.Phone,
	})
	if err != nil {
		uc.log.Error("payment gateway error", "gateway", uc.gateway.Name(), "err", err)
		return nil, "", fmt.Errorf("%w: gateway error", ErrPaymentFailed)
	}
	if res.Status != payment.ResultSuccess {
		uc.log.Warn("payment declined", "gateway", uc.gateway.Name(), "reason", res.Message)
		return nil, "", fmt.Errorf("%w: %s", ErrPaymentFailed, res.Message)
	}

	status, paymentStatus := domain.StatusesFor(domain.InitialStatus(res.InitialStatus))
	order := &domain.Order{
		ID:                    uuid.NewString(),
		OrderNumber:           domain.NewOrderNumber(),
		UserID:                user.ID,
		TotalAmountCents:      totalAmountCents,
		TotalQuantity:         totalQuantity,
		Status:                status,
		PaymentStatus:         paymentStatus,
		Address:               address,
		ExternalOrderRef:      res.ExternalOrderRef,
		ExternalTransactionID: res.TransactionID,
		Items:                 items,
	}
	if err := tx.CreateOrder(ctx, order); err != nil {
		return nil, "", err
	}

	payload, err := json.Marshal(FulfillmentNotifyMsg{
		OrderID:       order.OrderNumber,
		AmountInCents: order.TotalAmountCents,
		TotalQuantity: order.TotalQuantity,
		CustomerName:  user.Name,
		Address:       order.Address,
	})
	if err != nil {
		return nil, "", err
	}
	// written in the same transaction, drained by the relay after commit, so
	// a queue outage cannot fail or undo the committed order
	if err := tx.InsertOutbox(ctx, ChannelFulfillmentNotify, payload); err != nil {
		return nil, "", err
	}

	return order, res.RedirectURL, nil
}

// mergeLines validates quantities, collapses duplicate product lines and
// returns them sorted by ascending product id.
func mergeLines(items []OrderLine) ([]OrderLine, error) {
	if len(items) == 0 {
		return nil, ErrInvalidItems
	}
	merged := map[int64]int64{}
	for _, it := range items {
		if it.Quantity < 1 || it.ProductID <= 0 {
			return nil, ErrInvalidItems
		}
		merged[it.ProductID] += it.Quantity
	}
	out := make([]OrderLine, 0, len(merged))
	for id, qty := range merged {
		out = append(out, OrderLine{ProductID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}
