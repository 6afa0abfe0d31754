package handlers

import (
	"net/http"

	"lightfoot-pos/internal/services/inventory"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type InventoryHTTPHandler struct {
	ledger *inventory.Ledger
	log    *zap.Logger
}

func NewInventoryHTTPHandler(ledger *inventory.Ledger, log *zap.Logger) *InventoryHTTPHandler {
	return &InventoryHTTPHandler{ledger: ledger, log: log}
}

func (h *InventoryHTTPHandler) List(c *gin.Context) {
	ctx, cancel := readContext(c)
	defer cancel()

	items, err := h.ledger.List(ctx)
	if err != nil {
		writeError(c, h.log, "Failed to list inventory", err)
		return
	}
	c.JSON(http.StatusOK, successWithMetaResponse("Inventory retrieved successfully", items, gin.H{"total": len(items)}))
}

func (h *InventoryHTTPHandler) ListUsage(c *gin.Context) {
	ctx, cancel := readContext(c)
	defer cancel()

	usage, err := h.ledger.ListUsage(ctx)
	if err != nil {
		writeError(c, h.log, "Failed to list ingredient usage", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Ingredient usage retrieved successfully", usage))
}

func (h *InventoryHTTPHandler) Lookup(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := readContext(c)
	defer cancel()

	ref, err := h.ledger.Lookup(ctx, id)
	if err != nil {
		writeError(c, h.log, "Failed to get ingredient", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Ingredient retrieved successfully", ref))
}

func (h *InventoryHTTPHandler) FindByName(c *gin.Context) {
	ctx, cancel := readContext(c)
	defer cancel()

	ing, err := h.ledger.FindByName(ctx, c.Param("name"))
	if err != nil {
		writeError(c, h.log, "Failed to get ingredient", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Ingredient retrieved successfully", ing))
}

func (h *InventoryHTTPHandler) Movements(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := readContext(c)
	defer cancel()

	movements, err := h.ledger.Movements(ctx, id)
	if err != nil {
		writeError(c, h.log, "Failed to list stock movements", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Stock movements retrieved successfully", movements))
}

func (h *InventoryHTTPHandler) Restock(c *gin.Context) {
	ctx, cancel := writeContext(c)
	defer cancel()

	restocked, err := h.ledger.RestockBelowMinimum(ctx)
	if err != nil {
		writeError(c, h.log, "Failed to restock inventory", err)
		return
	}
	if len(restocked) == 0 {
		c.JSON(http.StatusOK, successResponse("No items need restocking.", []interface{}{}))
		return
	}
	c.JSON(http.StatusOK, successWithMetaResponse("Inventory restocked successfully", restocked, gin.H{"restocked": len(restocked)}))
}

func (h *InventoryHTTPHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := writeContext(c)
	defer cancel()

	if err := h.ledger.Delete(ctx, id); err != nil {
		writeError(c, h.log, "Failed to delete ingredient", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Ingredient deleted successfully", nil))
}
