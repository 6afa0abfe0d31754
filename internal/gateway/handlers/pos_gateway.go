package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"lightfoot-pos/internal/services/orders"
	"lightfoot-pos/internal/services/reports"
	"lightfoot-pos/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OrdersHTTPHandler serves order history and the manager reports.
type OrdersHTTPHandler struct {
	history *orders.History
	reports *reports.Aggregator
	loc     *time.Location
	log     *zap.Logger
}

func NewOrdersHTTPHandler(history *orders.History, aggregator *reports.Aggregator, loc *time.Location, log *zap.Logger) *OrdersHTTPHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &OrdersHTTPHandler{
		history: history,
		reports: aggregator,
		loc:     loc,
		log:     log,
	}
}

// Query structs
type DateRangeQuery struct {
	StartDate string `form:"startDate" binding:"required"`
	EndDate   string `form:"endDate" binding:"required"`
}

type NamedRangeQuery struct {
	Name      string `form:"name" binding:"required"`
	StartDate string `form:"startDate" binding:"required"`
	EndDate   string `form:"endDate" binding:"required"`
}

type OrderIDsQuery struct {
	Orders string `form:"orders" binding:"required"`
}

func (h *OrdersHTTPHandler) bindRange(c *gin.Context, start, end string) (utils.Range, bool) {
	r, err := utils.ParseRange(start, end, h.loc)
	if err != nil {
		writeError(c, h.log, "Invalid date range", err)
		return utils.Range{}, false
	}
	return r, true
}

// --- Order History Handlers ---

func (h *OrdersHTTPHandler) ListOrders(c *gin.Context) {
	var q DateRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	r, ok := h.bindRange(c, q.StartDate, q.EndDate)
	if !ok {
		return
	}

	ctx, cancel := readContext(c)
	defer cancel()

	list, err := h.history.ListByRange(ctx, r)
	if err != nil {
		writeError(c, h.log, "Failed to list orders", err)
		return
	}
	c.JSON(http.StatusOK, successWithMetaResponse("Orders retrieved successfully", list, gin.H{
		"total": len(list),
		"from":  r.From,
		"to":    r.To,
	}))
}

func (h *OrdersHTTPHandler) GetOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := readContext(c)
	defer cancel()

	order, err := h.history.Get(ctx, id)
	if err != nil {
		writeError(c, h.log, "Failed to get order", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Order retrieved successfully", order))
}

func (h *OrdersHTTPHandler) ListReportable(c *gin.Context) {
	ctx, cancel := readContext(c)
	defer cancel()

	list, err := h.history.ListReportable(ctx)
	if err != nil {
		writeError(c, h.log, "Failed to list reportable orders", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Reportable orders retrieved successfully", list))
}

func (h *OrdersHTTPHandler) MenuItemIDs(c *gin.Context) {
	var q OrderIDsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	ids, err := parseIDList(q.Orders)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("orders must be a comma separated list of ids"))
		return
	}

	ctx, cancel := readContext(c)
	defer cancel()

	refs, err := h.history.MenuItemIDs(ctx, ids)
	if err != nil {
		writeError(c, h.log, "Failed to resolve order items", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Order items retrieved successfully", refs))
}

func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (h *OrdersHTTPHandler) ResetReportable(c *gin.Context) {
	ctx, cancel := writeContext(c)
	defer cancel()

	n, err := h.history.ResetReportable(ctx)
	if err != nil {
		writeError(c, h.log, "Failed to reset reportable orders", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Reportable orders reset successfully", gin.H{"orders": n}))
}

func (h *OrdersHTTPHandler) Favorites(c *gin.Context) {
	ctx, cancel := readContext(c)
	defer cancel()

	fav, err := h.reports.Favorites(ctx)
	if err != nil {
		writeError(c, h.log, "Failed to get favorites", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Favorites retrieved successfully", fav))
}

// --- Report Handlers ---

func (h *OrdersHTTPHandler) XReport(c *gin.Context) {
	ctx, cancel := readContext(c)
	defer cancel()

	report, err := h.reports.XReport(ctx)
	if err != nil {
		writeError(c, h.log, "Failed to build X report", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("X report generated successfully", report))
}

func (h *OrdersHTTPHandler) ZReport(c *gin.Context) {
	ctx, cancel := writeContext(c)
	defer cancel()

	report, err := h.reports.ZReport(ctx)
	if err != nil {
		writeError(c, h.log, "Failed to build Z report", err)
		return
	}
	msg := "Z report generated successfully"
	if report.Empty() {
		msg = "No reportable orders since the last Z report"
	}
	c.JSON(http.StatusOK, successResponse(msg, report))
}

func (h *OrdersHTTPHandler) Sales(c *gin.Context) {
	var q NamedRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	r, ok := h.bindRange(c, q.StartDate, q.EndDate)
	if !ok {
		return
	}

	ctx, cancel := readContext(c)
	defer cancel()

	report, err := h.reports.Sales(ctx, q.Name, r)
	if err != nil {
		writeError(c, h.log, "Failed to build sales report", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Sales report generated successfully", report))
}

func (h *OrdersHTTPHandler) ItemUsage(c *gin.Context) {
	var q NamedRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	r, ok := h.bindRange(c, q.StartDate, q.EndDate)
	if !ok {
		return
	}

	ctx, cancel := readContext(c)
	defer cancel()

	series, err := h.reports.ItemUsage(ctx, q.Name, r)
	if err != nil {
		writeError(c, h.log, "Failed to build usage report", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Item usage retrieved successfully", series))
}

func (h *OrdersHTTPHandler) Reviews(c *gin.Context) {
	var q DateRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	r, ok := h.bindRange(c, q.StartDate, q.EndDate)
	if !ok {
		return
	}

	ctx, cancel := readContext(c)
	defer cancel()

	reviews, err := h.reports.Reviews(ctx, r)
	if err != nil {
		writeError(c, h.log, "Failed to list reviews", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Reviews retrieved successfully", reviews))
}
