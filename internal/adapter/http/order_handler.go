package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/karenkamal24/softigitalshop/internal/adapter/http/middleware"
	domain "github.com/karenkamal24/softigitalshop/internal/entity"
	"github.com/karenkamal24/softigitalshop/internal/logging"
	"github.com/karenkamal24/softigitalshop/internal/usecase"
)

type OrderHandler struct {
	place *usecase.PlaceOrder
	query usecase.OrderRepo
	cache usecase.OrderCache
}

func NewOrderHandler(place *usecase.PlaceOrder, query usecase.OrderRepo, cache usecase.OrderCache) *OrderHandler {
	return &OrderHandler{place: place, query: query, cache: cache}
}

type orderLineReq struct {
	ProductID int64 `json:"product_id" binding:"required,gt=0"`
	Quantity  int64 `json:"quantity" binding:"required,gte=1"`
}

type placeOrderReq struct {
	Items   []orderLineReq `json:"items" binding:"required,min=1,dive"`
	Address string         `json:"address"`
}

type orderResp struct {
	ID            string          `json:"id"`
	OrderNumber   string          `json:"order_number"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	AmountCents   int64           `json:"amount_cents"`
	TotalQuantity int64           `json:"total_quantity"`
	Address       string          `json:"address"`
	CreatedAt     time.Time       `json:"created_at"`
	Items         []orderItemResp `json:"items,omitempty"`
	PaymentURL    string          `json:"payment_url,omitempty"`
}

type orderItemResp struct {
	ProductID      int64 `json:"product_id"`
	Quantity       int64 `json:"quantity"`
	UnitPriceCents int64 `json:"unit_price_cents"`
}

func toOrderResp(o *domain.Order, paymentURL string) orderResp {
	resp := orderResp{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		AmountCents:   o.TotalAmountCents,
		TotalQuantity: o.TotalQuantity,
		Address:       o.Address,
		CreatedAt:     o.CreatedAt,
		PaymentURL:    paymentURL,
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, orderItemResp{
			ProductID:      it.ProductID,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
		})
	}
	return resp
}

// PlaceOrder handler: translate to use case input
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req placeOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	userID := middleware.UserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "token has no subject"})
		return
	}

	idemKey := c.GetHeader("X-Idempotency-Key") // prevent duplicated requests

	lines := make([]usecase.OrderLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, usecase.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	out, err := h.place.Execute(ctx, usecase.PlaceOrderInput{
		UserID:         userID,
		Items:          lines,
		Address:        req.Address,
		IdempotencyKey: idemKey,
	})
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, usecase.ErrInvalidItems):
			status = http.StatusBadRequest
		case errors.Is(err, usecase.ErrProductUnavailable),
			errors.Is(err, usecase.ErrInsufficientStock),
			errors.Is(err, usecase.ErrMissingAddress):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, usecase.ErrPaymentFailed):
			status = http.StatusPaymentRequired
		case errors.Is(err, usecase.ErrDuplicate):
			status = http.StatusConflict
		}
		if status == http.StatusInternalServerError {
			logging.From(c).Error("order placement failed", "err", err)
			c.JSON(status, gin.H{"error": "server_error"})
			return
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	middleware.CountOrderPlaced(string(out.Order.PaymentStatus))
	c.JSON(http.StatusCreated, toOrderResp(out.Order, out.PaymentURL))
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "token has no subject"})
		return
	}

	limit := intQuery(c, "limit", 20, 100)
	offset := intQuery(c, "offset", 0, 1<<30)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	orders, err := h.query.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		logging.From(c).Error("order list failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	resp := make([]orderResp, 0, len(orders))
	for i := range orders {
		resp = append(resp, toOrderResp(&orders[i], ""))
	}
	c.JSON(http.StatusOK, gin.H{"orders": resp})
}

func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	order, err := h.query.GetByID(ctx, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	// callers only see their own orders; back-office clients carry no subject
	if uid := middleware.UserID(c); uid != 0 && order.UserID != uid {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusOK, toOrderResp(order, ""))
}

// GetOrderStatus serves the hot status poll from cache, falling back to the
// database and repopulating on a miss. The cached entry carries no owner, so
// user-scoped callers are checked against the database before anything is
// served; only subject-less back-office clients take the cache fast path.
func (h *OrderHandler) GetOrderStatus(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	uid := middleware.UserID(c)
	if uid == 0 {
		if status, ok, err := h.cache.GetStatus(ctx, id); err == nil && ok {
			c.JSON(http.StatusOK, gin.H{"id": id, "status": status})
			return
		}
	}

	order, err := h.query.GetByID(ctx, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if uid != 0 && order.UserID != uid {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err := h.cache.SetStatus(ctx, id, string(order.Status)); err != nil {
		logging.From(c).Warn("status cache repopulate failed", "order_id", id, "err", err)
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": string(order.Status)})
}

func intQuery(c *gin.Context, name string, def, max int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
