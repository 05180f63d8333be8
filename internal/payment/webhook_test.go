package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "hmac-test-secret"

func signedPayload(t *testing.T) ([]byte, map[string]any) {
	t.Helper()
	obj := map[string]any{
		"amount_cents":           float64(3000),
		"created_at":             "2026-02-24T10:00:00",
		"currency":               "EGP",
		"error_occured":          false,
		"has_parent_transaction": false,
		"id":                     float64(9912345),
		"integration_id":         float64(44001),
		"is_3d_secure":           true,
		"is_auth":                false,
		"is_capture":             false,
		"is_refunded":            false,
		"is_standalone_payment":  true,
		"is_voided":              false,
		"order":                  map[string]any{"id": float64(777001)},
		"owner":                  float64(45),
		"pending":                false,
		"source_data": map[string]any{
			"pan":      "2346",
			"sub_type": "MasterCard",
			"type":     "card",
		},
		"success": true,
	}

	// build the signature the way the provider does: concatenate the fixed
	// field list and HMAC-SHA512 it
	concat := "3000" + "2026-02-24T10:00:00" + "EGP" + "false" + "false" +
		"9912345" + "44001" + "true" + "false" + "false" + "false" + "true" +
		"false" + "777001" + "45" + "false" + "2346" + "MasterCard" + "card" + "true"
	mac := hmac.New(sha512.New, []byte(testSecret))
	mac.Write([]byte(concat))

	data := map[string]any{
		"type": "TRANSACTION",
		"obj":  obj,
		"hmac": hex.EncodeToString(mac.Sum(nil)),
	}
	body, err := json.Marshal(data)
	require.NoError(t, err)

	// round-trip so nested maps have the same dynamic types as a real request
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(body, &parsed))
	return body, parsed
}

func TestVerifyWebhookHMAC(t *testing.T) {
	_, data := signedPayload(t)
	require.NoError(t, VerifyWebhookHMAC(testSecret, data))
}

func TestVerifyWebhookHMACTampered(t *testing.T) {
	_, data := signedPayload(t)
	obj := data["obj"].(map[string]any)
	obj["amount_cents"] = float64(1)
	assert.ErrorIs(t, VerifyWebhookHMAC(testSecret, data), ErrInvalidSignature)
}

func TestVerifyWebhookHMACWrongSecret(t *testing.T) {
	_, data := signedPayload(t)
	assert.ErrorIs(t, VerifyWebhookHMAC("other-secret", data), ErrInvalidSignature)
}

func TestVerifyWebhookHMACNoSecretConfigured(t *testing.T) {
	// development escape hatch: verification skipped entirely
	require.NoError(t, VerifyWebhookHMAC("", map[string]any{"hmac": "junk"}))
}

func TestParseWebhook(t *testing.T) {
	body, _ := signedPayload(t)
	ev, data, err := ParseWebhook(body)
	require.NoError(t, err)
	assert.Equal(t, "777001", ev.ExternalOrderRef)
	assert.Equal(t, "9912345", ev.TransactionID)
	assert.True(t, ev.Success)
	assert.False(t, ev.Pending)
	assert.Contains(t, data, "hmac")
}

func TestParseWebhookUnwrapped(t *testing.T) {
	// some provider flows deliver the transaction at the top level
	body := []byte(`{"id": 5, "order": {"id": 42}, "success": "true", "pending": false}`)
	ev, _, err := ParseWebhook(body)
	require.NoError(t, err)
	assert.Equal(t, "42", ev.ExternalOrderRef)
	assert.True(t, ev.Success, "string flags must parse like booleans")
}

func TestParseWebhookMissingOrder(t *testing.T) {
	ev, _, err := ParseWebhook([]byte(`{"obj": {"id": 5, "success": true}}`))
	require.NoError(t, err)
	assert.Empty(t, ev.ExternalOrderRef)
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", stringify(nil))
	assert.Equal(t, "true", stringify(true))
	assert.Equal(t, "false", stringify(false))
	assert.Equal(t, "100", stringify(float64(100)))
	assert.Equal(t, "10.5", stringify(float64(10.5)))
	assert.Equal(t, "abc", stringify("abc"))
}
