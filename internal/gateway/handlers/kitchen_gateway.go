package handlers

import (
	"net/http"

	"lightfoot-pos/internal/gateway/clients"
	"lightfoot-pos/internal/services/kitchen"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// KitchenHTTPHandler serves the kitchen screen. feed is the remote display
// feed and may be nil when no kitchen service is configured.
type KitchenHTTPHandler struct {
	queue *kitchen.Queue
	feed  *clients.KitchenClient
	log   *zap.Logger
}

func NewKitchenHTTPHandler(queue *kitchen.Queue, feed *clients.KitchenClient, log *zap.Logger) *KitchenHTTPHandler {
	return &KitchenHTTPHandler{queue: queue, feed: feed, log: log}
}

func (h *KitchenHTTPHandler) ListCurrent(c *gin.Context) {
	ctx, cancel := readContext(c)
	defer cancel()

	tickets, err := h.queue.ListCurrent(ctx)
	if err != nil {
		writeError(c, h.log, "Failed to list kitchen orders", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Kitchen orders retrieved successfully", tickets))
}

func (h *KitchenHTTPHandler) Complete(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := writeContext(c)
	defer cancel()

	completedAt, err := h.queue.Complete(ctx, orderID)
	if err != nil {
		writeError(c, h.log, "Failed to complete order", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Order completed successfully", gin.H{
		"order_id":     orderID,
		"completed_at": completedAt,
	}))
}

func (h *KitchenHTTPHandler) ListCompletedToday(c *gin.Context) {
	ctx, cancel := readContext(c)
	defer cancel()

	tickets, err := h.queue.ListCompletedToday(ctx)
	if err != nil {
		writeError(c, h.log, "Failed to list completed orders", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Completed orders retrieved successfully", tickets))
}

// Feed relays the open tickets as seen by the kitchen display service.
func (h *KitchenHTTPHandler) Feed(c *gin.Context) {
	if h.feed == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse("Kitchen service is currently unavailable"))
		return
	}

	ctx, cancel := readContext(c)
	defer cancel()

	list, err := h.feed.ListOrders(ctx)
	if err != nil {
		st := status.Convert(err)
		switch st.Code() {
		case codes.Unavailable, codes.DeadlineExceeded:
			h.log.Warn("kitchen feed unavailable", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, errorResponse("Kitchen service is currently unavailable"))
		default:
			h.log.Error("kitchen feed failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, errorResponse("Failed to read kitchen feed"))
		}
		return
	}
	c.JSON(http.StatusOK, successResponse("Kitchen feed retrieved successfully", list.AsSlice()))
}
