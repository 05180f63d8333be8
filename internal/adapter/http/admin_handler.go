package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/karenkamal24/softigitalshop/internal/entity"
	"github.com/karenkamal24/softigitalshop/internal/logging"
	"github.com/karenkamal24/softigitalshop/internal/usecase"
)

// AdminHandler hosts back-office operations.
type AdminHandler struct {
	update *usecase.UpdateOrderStatus
}

func NewAdminHandler(update *usecase.UpdateOrderStatus) *AdminHandler {
	return &AdminHandler{update: update}
}

type updateStatusReq struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus moves an order along the fulfillment lifecycle. Transitions
// outside the allowed table are rejected without touching the order.
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	order, err := h.update.Execute(ctx, c.Param("id"), domain.Status(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		case errors.Is(err, domain.ErrIllegalTransition):
			c.JSON(http.StatusConflict, gin.H{"error": "illegal_transition", "error_description": err.Error()})
		default:
			logging.From(c).Error("status update failed", "order_id", c.Param("id"), "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		}
		return
	}

	c.JSON(http.StatusOK, toOrderResp(order, ""))
}
