package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

var ErrInvalidSignature = errors.New("payment: invalid webhook signature")

// hmacFields is the provider-specified, alphabetically fixed list of
// transaction fields included in the signature. Dotted names address nested
// objects. The ordering must not change.
var hmacFields = []string{
	"amount_cents",
	"created_at",
	"currency",
	"error_occured",
	"has_parent_transaction",
	"id",
	"integration_id",
	"is_3d_secure",
	"is_auth",
	"is_capture",
	"is_refunded",
	"is_standalone_payment",
	"is_voided",
	"order.id",
	"owner",
	"pending",
	"source_data.pan",
	"source_data.sub_type",
	"source_data.type",
	"success",
}

// WebhookEvent is the reconciler's view of a provider callback.
type WebhookEvent struct {
	ExternalOrderRef string
	TransactionID    string
	Success          bool
	Pending          bool
}

// ParseWebhook decodes the raw callback body. The transaction object usually
// arrives wrapped in "obj" but some provider flows send it at the top level.
func ParseWebhook(body []byte) (*WebhookEvent, map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, nil, err
	}

	obj := data
	if wrapped, ok := data["obj"].(map[string]any); ok {
		obj = wrapped
	}

	ev := &WebhookEvent{
		TransactionID: stringify(obj["id"]),
		Success:       truthy(obj["success"]),
		Pending:       truthy(obj["pending"]),
	}
	if order, ok := obj["order"].(map[string]any); ok {
		ev.ExternalOrderRef = stringify(order["id"])
	}
	return ev, data, nil
}

// VerifyWebhookHMAC checks the HMAC-SHA512 signature over the concatenated
// transaction fields against the hex signature in the payload, in constant
// time. An empty secret skips verification entirely; that is a development
// escape hatch and must never be enabled where real money moves.
func VerifyWebhookHMAC(secret string, data map[string]any) error {
	if secret == "" {
		return nil
	}

	received := stringify(data["hmac"])

	obj := data
	if wrapped, ok := data["obj"].(map[string]any); ok {
		obj = wrapped
	}

	var sb strings.Builder
	for _, field := range hmacFields {
		sb.WriteString(hmacFieldValue(obj, field))
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(sb.String()))
	computed := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(computed), []byte(received)) {
		return ErrInvalidSignature
	}
	return nil
}

func hmacFieldValue(obj map[string]any, field string) string {
	if parent, child, found := strings.Cut(field, "."); found {
		if nested, ok := obj[parent].(map[string]any); ok {
			return stringify(nested[child])
		}
		return ""
	}
	return stringify(obj[field])
}

// stringify renders a JSON value the way the provider serializes it before
// hashing: booleans as the literal strings "true"/"false", numbers without
// exponent notation, absent values as the empty string.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		if t {
			return "true"
		}
		return "false"
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// truthy mirrors permissive boolean parsing on provider flags, which arrive
// as JSON booleans in webhooks but as strings on redirect query parameters.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "true" || s == "1" || s == "yes" || s == "on"
	case float64:
		return t != 0
	default:
		return false
	}
}

// Truthy is exported for the redirect-landing handler, which receives the
// success flag as a query-string value.
func Truthy(v any) bool { return truthy(v) }
