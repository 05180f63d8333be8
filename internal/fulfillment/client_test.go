package fulfillment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karenkamal24/softigitalshop/internal/usecase"
)

func TestNotifyOrder(t *testing.T) {
	var got usecase.FulfillmentNotifyMsg
	var gotKey, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "sekret")
	err := c.NotifyOrder(context.Background(), usecase.FulfillmentNotifyMsg{
		OrderID:       "ORD-AAAA111122",
		AmountInCents: 3000,
		TotalQuantity: 2,
		CustomerName:  "Nadia",
		Address:       "1 Nile St, Cairo",
	})
	require.NoError(t, err)
	assert.Equal(t, "/orders", gotPath)
	assert.Equal(t, "sekret", gotKey)
	assert.Equal(t, "ORD-AAAA111122", got.OrderID)
	assert.Equal(t, int64(3000), got.AmountInCents)
}

func TestNotifyOrderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "warehouse offline", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	err := c.NotifyOrder(context.Background(), usecase.FulfillmentNotifyMsg{OrderID: "ORD-BBBB222233"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.Contains(t, err.Error(), "warehouse offline")
}

func TestNotifyOrderConnectionRefused(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "")
	assert.Error(t, c.NotifyOrder(context.Background(), usecase.FulfillmentNotifyMsg{OrderID: "ORD-CCCC333344"}))
}
