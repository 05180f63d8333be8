package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	domain "github.com/karenkamal24/softigitalshop/internal/entity"
	"github.com/karenkamal24/softigitalshop/internal/payment"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore backs InTx with in-memory state and all-or-nothing semantics:
// mutations land only when the callback returns nil.
type fakeStore struct {
	products map[int64]*domain.Product
	orders   []*domain.Order
	outbox   []OutboxMessage

	reservedOrder []int64 // product ids in reservation order
}

func newFakeStore(products ...*domain.Product) *fakeStore {
	s := &fakeStore{products: map[int64]*domain.Product{}}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *fakeStore) InTx(_ context.Context, fn func(tx Tx) error) error {
	tx := &fakeTx{store: s, stock: map[int64]int64{}}
	for id, p := range s.products {
		tx.stock[id] = p.Stock
	}
	if err := fn(tx); err != nil {
		return err // discard staged changes
	}
	for id, st := range tx.stock {
		s.products[id].Stock = st
	}
	s.orders = append(s.orders, tx.orders...)
	s.outbox = append(s.outbox, tx.outbox...)
	s.reservedOrder = append(s.reservedOrder, tx.reserved...)
	return nil
}

type fakeTx struct {
	store    *fakeStore
	stock    map[int64]int64
	orders   []*domain.Order
	outbox   []OutboxMessage
	reserved []int64
}

func (t *fakeTx) ReserveStock(_ context.Context, productID, quantity int64) (*domain.Product, error) {
	t.reserved = append(t.reserved, productID)
	p, ok := t.store.products[productID]
	if !ok || !p.IsActive {
		return nil, fmt.Errorf("%w: product %d", ErrProductUnavailable, productID)
	}
	if quantity > t.stock[productID] {
		return nil, fmt.Errorf("%w for product %q", ErrInsufficientStock, p.Name)
	}
	t.stock[productID] -= quantity
	locked := *p
	locked.Stock = t.stock[productID]
	return &locked, nil
}

func (t *fakeTx) CreateOrder(_ context.Context, o *domain.Order) error {
	t.orders = append(t.orders, o)
	return nil
}

func (t *fakeTx) InsertOutbox(_ context.Context, channel string, payload []byte) error {
	t.outbox = append(t.outbox, OutboxMessage{Channel: channel, Payload: payload})
	return nil
}

// fakeGateway records invocations and returns a scripted result.
type fakeGateway struct {
	result *payment.Result
	err    error

	calls   int
	amounts []int64
	bills   []payment.BillingContext
}

func confirmedGateway() *fakeGateway {
	return &fakeGateway{result: &payment.Result{
		Status:        payment.ResultSuccess,
		InitialStatus: payment.InitialConfirmed,
		TransactionID: "txn_test",
	}}
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) ProcessPayment(_ context.Context, amountCents int64, bill payment.BillingContext) (*payment.Result, error) {
	g.calls++
	g.amounts = append(g.amounts, amountCents)
	g.bills = append(g.bills, bill)
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

func (g *fakeGateway) Refund(_ context.Context, transactionID string, _ int64) (*payment.Refund, error) {
	return &payment.Refund{Refunded: true, TransactionID: transactionID}, nil
}

type fakeUserRepo struct {
	users map[int64]*domain.User
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d not found", id)
	}
	return u, nil
}

type fakeOrderRepo struct {
	byID    map[string]*domain.Order
	updates []outcomeUpdate
}

type outcomeUpdate struct {
	ID            string
	Status        domain.Status
	PaymentStatus domain.PaymentStatus
	TransactionID string
}

func newFakeOrderRepo(orders ...*domain.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{byID: map[string]*domain.Order{}}
	for _, o := range orders {
		r.byID[o.ID] = o
	}
	return r
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	o, ok := r.byID[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (r *fakeOrderRepo) ListByUser(_ context.Context, userID int64, _, _ int) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range r.byID {
		if o.UserID == userID && o.ArchivedAt == nil {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeOrderRepo) GetByExternalRef(_ context.Context, ref string) (*domain.Order, error) {
	for _, o := range r.byID {
		if o.ExternalOrderRef == ref {
			return o, nil
		}
	}
	return nil, ErrOrderNotFound
}

func (r *fakeOrderRepo) UpdatePaymentOutcome(_ context.Context, id string, status domain.Status, pay domain.PaymentStatus, transactionID string) error {
	o, ok := r.byID[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = status
	o.PaymentStatus = pay
	if transactionID != "" {
		o.ExternalTransactionID = transactionID
	}
	r.updates = append(r.updates, outcomeUpdate{id, status, pay, transactionID})
	return nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id string, to domain.Status) error {
	o, ok := r.byID[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = to
	return nil
}

func (r *fakeOrderRepo) ArchiveOlderThan(_ context.Context, threshold time.Time, limit int64) (int64, error) {
	var n int64
	now := time.Now()
	for _, o := range r.byID {
		if n >= limit {
			break
		}
		if o.ArchivedAt == nil && o.CreatedAt.Before(threshold) {
			o.ArchivedAt = &now
			n++
		}
	}
	return n, nil
}

type fakeCache struct {
	statuses map[string]string
}

func (c *fakeCache) SetStatus(_ context.Context, orderID, status string) error {
	if c.statuses == nil {
		c.statuses = map[string]string{}
	}
	c.statuses[orderID] = status
	return nil
}

func (c *fakeCache) GetStatus(_ context.Context, orderID string) (string, bool, error) {
	s, ok := c.statuses[orderID]
	return s, ok, nil
}

type fakeEvents struct {
	published []OrderStatusChangedMsg
}

func (e *fakeEvents) PublishStatusChanged(_ context.Context, msg OrderStatusChangedMsg) error {
	e.published = append(e.published, msg)
	return nil
}

type fakeIdem struct {
	locks map[string]bool
	vals  map[string]string
}

func newFakeIdem() *fakeIdem {
	return &fakeIdem{locks: map[string]bool{}, vals: map[string]string{}}
}

func (s *fakeIdem) TryLock(_ context.Context, scope, key string) (bool, error) {
	k := scope + ":" + key
	if s.locks[k] {
		return false, nil
	}
	s.locks[k] = true
	return true, nil
}

func (s *fakeIdem) Remember(_ context.Context, scope, key, value string) error {
	s.vals[scope+":"+key] = value
	return nil
}

func (s *fakeIdem) Recall(_ context.Context, scope, key string) (string, bool, error) {
	v, ok := s.vals[scope+":"+key]
	return v, ok, nil
}

type fakeOutboxRepo struct {
	due    []OutboxMessage
	sent   []int64
	failed map[int64]time.Time
}

func (r *fakeOutboxRepo) PickDue(_ context.Context, limit int) ([]OutboxMessage, error) {
	if len(r.due) > limit {
		return r.due[:limit], nil
	}
	return r.due, nil
}

func (r *fakeOutboxRepo) MarkSent(_ context.Context, id int64) error {
	r.sent = append(r.sent, id)
	return nil
}

func (r *fakeOutboxRepo) MarkFailed(_ context.Context, id int64, next time.Time) error {
	if r.failed == nil {
		r.failed = map[int64]time.Time{}
	}
	r.failed[id] = next
	return nil
}
