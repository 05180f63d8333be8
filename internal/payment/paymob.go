package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const GatewayPaymob = "paymob"

type PaymobConfig struct {
	APIKey        string
	IntegrationID int64
	IframeID      string
	MerchantID    string
	BaseURL       string
}

// PaymobGateway implements the asynchronous redirect flow: authenticate,
// create a remote order, request a payment key bound to that order, and hand
// the client a redirect URL. The charge is confirmed later via webhook.
type PaymobGateway struct {
	cfg  PaymobConfig
	http *http.Client
	log  *slog.Logger
}

func NewPaymobGateway(cfg PaymobConfig, log *slog.Logger) *PaymobGateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://accept.paymob.com/api"
	}
	return &PaymobGateway{
		cfg:  cfg,
		http: &http.Client{Timeout: 15 * time.Second},
		log:  log,
	}
}

func (g *PaymobGateway) Name() string { return GatewayPaymob }

func (g *PaymobGateway) ProcessPayment(ctx context.Context, amountCents int64, bill BillingContext) (*Result, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	authToken, err := g.authToken(ctx)
	if err != nil {
		g.log.Error("paymob auth failed", "err", err)
		return &Result{Status: ResultFailed, Message: "failed to authenticate with Paymob"}, nil
	}

	remoteOrderID, err := g.createRemoteOrder(ctx, authToken, amountCents)
	if err != nil {
		g.log.Error("paymob create order failed",
			"err", err, "amount_cents", amountCents, "merchant_id", g.cfg.MerchantID)
		return &Result{Status: ResultFailed, Message: "failed to create order in Paymob"}, nil
	}

	paymentToken, err := g.paymentKey(ctx, authToken, remoteOrderID, amountCents, billingData(bill))
	if err != nil {
		g.log.Error("paymob payment key failed", "err", err, "remote_order_id", remoteOrderID)
		return &Result{Status: ResultFailed, Message: "failed to get payment key from Paymob"}, nil
	}

	return &Result{
		Status:        ResultSuccess,
		InitialStatus: InitialPendingPayment, // order waits for webhook confirmation
		// placeholder until the webhook delivers the provider's transaction id
		TransactionID:    fmt.Sprintf("paymob_%d_%s", remoteOrderID, uuid.NewString()[:8]),
		ExternalOrderRef: fmt.Sprintf("%d", remoteOrderID),
		PaymentToken:     paymentToken,
		RedirectURL:      fmt.Sprintf("%s/acceptance/iframes/%s?payment_token=%s", g.cfg.BaseURL, g.cfg.IframeID, paymentToken),
	}, nil
}

func (g *PaymobGateway) Refund(ctx context.Context, transactionID string, amountCents int64) (*Refund, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	authToken, err := g.authToken(ctx)
	if err != nil {
		g.log.Error("paymob auth failed", "err", err)
		return &Refund{Refunded: false, TransactionID: transactionID, Message: "failed to authenticate with Paymob"}, nil
	}

	var resp struct {
		ID                  int64  `json:"id"`
		RefundedAmountCents int64  `json:"refunded_amount_cents"`
		Message             string `json:"message"`
	}
	err = g.post(ctx, "/acceptance/void_refund/refund", map[string]any{
		"auth_token":     authToken,
		"transaction_id": transactionID,
		"amount_cents":   amountCents,
	}, &resp)
	if err != nil {
		g.log.Error("paymob refund failed", "err", err, "transaction_id", transactionID)
		return &Refund{Refunded: false, TransactionID: transactionID, Message: "refund request failed"}, nil
	}

	return &Refund{
		Refunded:      resp.RefundedAmountCents >= amountCents,
		RefundID:      fmt.Sprintf("%d", resp.ID),
		TransactionID: transactionID,
		Message:       resp.Message,
	}, nil
}

func (g *PaymobGateway) authToken(ctx context.Context) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	err := g.post(ctx, "/auth/tokens", map[string]any{"api_key": g.cfg.APIKey}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("no token in auth response")
	}
	return resp.Token, nil
}

func (g *PaymobGateway) createRemoteOrder(ctx context.Context, authToken string, amountCents int64) (int64, error) {
	payload := map[string]any{
		"auth_token":      authToken,
		"delivery_needed": false,
		"amount_cents":    amountCents,
		"currency":        "EGP",
		"items":           []any{},
	}
	// merchant_id is optional, only sent when explicitly configured
	if g.cfg.MerchantID != "" {
		payload["merchant_id"] = g.cfg.MerchantID
	}

	var resp struct {
		ID int64 `json:"id"`
	}
	if err := g.post(ctx, "/ecommerce/orders", payload, &resp); err != nil {
		return 0, err
	}
	if resp.ID == 0 {
		return 0, fmt.Errorf("no order id in response")
	}
	return resp.ID, nil
}

func (g *PaymobGateway) paymentKey(ctx context.Context, authToken string, remoteOrderID, amountCents int64, bill map[string]string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	err := g.post(ctx, "/acceptance/payment_keys", map[string]any{
		"auth_token":     authToken,
		"amount_cents":   amountCents,
		"expiration":     3600,
		"order_id":       remoteOrderID,
		"billing_data":   bill,
		"currency":       "EGP",
		"integration_id": g.cfg.IntegrationID,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("no payment token in response")
	}
	return resp.Token, nil
}

func (g *PaymobGateway) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("paymob %s: unexpected status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// billingData builds the provider's payer description from the user profile,
// with literal placeholder defaults when fields are absent.
func billingData(bill BillingContext) map[string]string {
	firstName, lastName := splitName(bill.Name)
	email := bill.Email
	if email == "" {
		email = "customer@example.com"
	}
	phone := bill.Phone
	if phone == "" {
		phone = "01000000000"
	}

	return map[string]string{
		"apartment":       "NA",
		"email":           email,
		"floor":           "NA",
		"first_name":      firstName,
		"street":          "NA",
		"building":        "NA",
		"phone_number":    phone,
		"shipping_method": "NA",
		"postal_code":     "NA",
		"city":            "Cairo",
		"country":         "EGY",
		"last_name":       lastName,
		"state":           "NA",
	}
}

func splitName(name string) (first, last string) {
	first, last = "Customer", "User"
	parts := strings.SplitN(strings.TrimSpace(name), " ", 2)
	if parts[0] != "" {
		first = parts[0]
	}
	if len(parts) == 2 && parts[1] != "" {
		last = parts[1]
	}
	return first, last
}

var _ Gateway = (*PaymobGateway)(nil)
