package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/karenkamal24/softigitalshop/internal/adapter/http/middleware"
	"github.com/karenkamal24/softigitalshop/internal/logging"
	"github.com/karenkamal24/softigitalshop/internal/payment"
	"github.com/karenkamal24/softigitalshop/internal/usecase"
)

// WebhookHandler terminates provider payment callbacks. It verifies the
// signature over the exact raw bytes before any business logic runs.
type WebhookHandler struct {
	reconcile  *usecase.ReconcileWebhook
	hmacSecret string
}

func NewWebhookHandler(reconcile *usecase.ReconcileWebhook, hmacSecret string) *WebhookHandler {
	return &WebhookHandler{reconcile: reconcile, hmacSecret: hmacSecret}
}

// HandleCallback processes POST callbacks from the payment provider.
func (h *WebhookHandler) HandleCallback(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		middleware.CountWebhook("bad_payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_payload"})
		return
	}

	ev, data, err := payment.ParseWebhook(body)
	if err != nil {
		middleware.CountWebhook("bad_payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_payload"})
		return
	}

	// the provider may carry the signature as a query parameter instead of a
	// body field
	if q := c.Query("hmac"); q != "" {
		data["hmac"] = q
	}
	if err := payment.VerifyWebhookHMAC(h.hmacSecret, data); err != nil {
		middleware.CountWebhook("invalid_signature")
		logging.From(c).Warn("webhook signature rejected", "err", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_signature"})
		return
	}

	out, err := h.reconcile.Execute(c.Request.Context(), usecase.ReconcileInput{
		ExternalOrderRef: ev.ExternalOrderRef,
		TransactionID:    ev.TransactionID,
		Success:          ev.Success,
		Pending:          ev.Pending,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrMissingOrderRef):
			middleware.CountWebhook("bad_payload")
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_order_id"})
		case errors.Is(err, usecase.ErrOrderNotFound):
			middleware.CountWebhook("order_not_found")
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
		default:
			logging.From(c).Error("webhook reconciliation failed", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		}
		return
	}

	middleware.CountWebhook("ok")
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"order_number":   out.OrderNumber,
		"payment_status": string(out.PaymentStatus),
	})
}

// HandleResponse is the browser landing page after a hosted-checkout redirect.
// It renders the provider's query flags without mutating any order: the
// authoritative outcome arrives on the server-to-server callback.
func (h *WebhookHandler) HandleResponse(c *gin.Context) {
	success := payment.Truthy(c.Query("success"))
	pending := payment.Truthy(c.Query("pending"))

	// hosted-checkout redirects carry the reference as "order"; some provider
	// flows use "merchant_order_id" instead
	orderRef := c.Query("order")
	if orderRef == "" {
		orderRef = c.Query("merchant_order_id")
	}

	msg := "Payment failed. Please try again."
	if success {
		msg = "Payment received. Thank you for your order."
	} else if pending {
		msg = "Payment is being processed. We will confirm shortly."
	}

	c.JSON(http.StatusOK, gin.H{
		"success": success,
		"pending": pending,
		"message": msg,
		"order":   orderRef,
	})
}
