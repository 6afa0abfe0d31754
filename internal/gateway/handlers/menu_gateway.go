package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"lightfoot-pos/internal/database/models"
	"lightfoot-pos/internal/gateway/middleware"
	"lightfoot-pos/internal/services/customers"
	"lightfoot-pos/internal/services/inventory"
	"lightfoot-pos/internal/services/menu"
	"lightfoot-pos/internal/services/orders"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MenuHTTPHandler serves the menu, the kiosk and the POS order entry.
type MenuHTTPHandler struct {
	menu    *menu.Service
	intake  *orders.Intake
	history *orders.History
	ledger  *inventory.Ledger
	rewards *customers.Rewards
	log     *zap.Logger
}

func NewMenuHTTPHandler(menuService *menu.Service, intake *orders.Intake, history *orders.History, ledger *inventory.Ledger, rewards *customers.Rewards, log *zap.Logger) *MenuHTTPHandler {
	return &MenuHTTPHandler{
		menu:    menuService,
		intake:  intake,
		history: history,
		ledger:  ledger,
		rewards: rewards,
		log:     log,
	}
}

// Request structs
type POSOrderRequest struct {
	Total      *decimal.Decimal `json:"total" binding:"required"`
	EmployeeID models.FlexInt   `json:"employee_id"`
	Order      models.Cart      `json:"order" binding:"required"`
}

type KioskOrderRequest struct {
	Total        *decimal.Decimal          `json:"total" binding:"required"`
	Order        models.Cart               `json:"order"`
	GroupedOrder []models.GroupedComponent `json:"groupedOrder"`
	Rating       models.FlexInt            `json:"rating"`
	Email        string                    `json:"email,omitempty"`
}

type InventoryDeductRequest struct {
	Order models.Cart `json:"order" binding:"required"`
}

type SeasonalItemRequest struct {
	Name                 string                      `json:"name" binding:"required"`
	Type                 string                      `json:"type" binding:"required"`
	Price                *decimal.Decimal            `json:"price" binding:"required"`
	Calories             models.FlexInt              `json:"calories"`
	Protein              models.FlexFloat            `json:"protein"`
	Carbohydrate         models.FlexFloat            `json:"carbohydrate"`
	SaturatedFat         models.FlexFloat            `json:"saturated_fat"`
	Spicy                bool                        `json:"spicy"`
	Premium              bool                        `json:"premium"`
	Allergens            string                      `json:"allergens"`
	IngredientQuantities map[string]models.FlexFloat `json:"ingredientQuantities"`
	IngredientUnits      map[string]string           `json:"ingredientUnits"`
}

type IngredientRequest struct {
	Name         string           `json:"ingname" binding:"required"`
	Stock        models.FlexFloat `json:"stock"`
	Unit         string           `json:"ingunit" binding:"required"`
	Min          models.FlexFloat `json:"min"`
	Max          models.FlexFloat `json:"max"`
	Restock      models.FlexFloat `json:"restock"`
	CurrentPrice *decimal.Decimal `json:"currprice"`
}

// --- Menu Handlers ---

func (h *MenuHTTPHandler) ListItems(c *gin.Context) {
	ctx, cancel := readContext(c)
	defer cancel()

	items, err := h.menu.ListItems(ctx)
	if err != nil {
		writeError(c, h.log, "Failed to list menu items", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Menu items retrieved successfully", items))
}

func (h *MenuHTTPHandler) CoreFoodNames(c *gin.Context) {
	ctx, cancel := readContext(c)
	defer cancel()

	names, err := h.menu.CoreFoodNames(ctx)
	if err != nil {
		writeError(c, h.log, "Failed to list core foods", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Core foods retrieved successfully", names))
}

func (h *MenuHTTPHandler) GetByName(c *gin.Context) {
	ctx, cancel := readContext(c)
	defer cancel()

	items, err := h.menu.GetByName(ctx, c.Param("name"))
	if err != nil {
		writeError(c, h.log, "Failed to get menu item", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Menu item retrieved successfully", items))
}

func (h *MenuHTTPHandler) PlacePOSOrder(c *gin.Context) {
	var req POSOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	// The signed-in employee owns the order; the body id only counts with auth off.
	employeeID := req.EmployeeID.Int64()
	if id, ok := c.Get(middleware.ContextEmployeeID); ok {
		employeeID = id.(int64)
	}
	if employeeID <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse("employee_id is required"))
		return
	}

	ctx, cancel := writeContext(c)
	defer cancel()

	placed, err := h.intake.PlacePOSOrder(ctx, orders.POSOrder{
		Total:      *req.Total,
		EmployeeID: employeeID,
		Cart:       req.Order,
	})
	if err != nil {
		writeError(c, h.log, "Failed to place order", err)
		return
	}
	c.JSON(http.StatusCreated, successResponse("Order placed successfully", placed))
}

// --- Kiosk Handlers ---

func (h *MenuHTTPHandler) KioskMenu(c *gin.Context) {
	ctx, cancel := readContext(c)
	defer cancel()

	items, err := h.menu.KioskMenu(ctx)
	if err != nil {
		writeError(c, h.log, "Failed to load kiosk menu", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Kiosk menu retrieved successfully", items))
}

func (h *MenuHTTPHandler) LatestOrder(c *gin.Context) {
	ctx, cancel := readContext(c)
	defer cancel()

	id, err := h.history.LatestOrderID(ctx)
	if err != nil {
		writeError(c, h.log, "Failed to get latest order", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Latest order retrieved successfully", gin.H{"order_id": id}))
}

func (h *MenuHTTPHandler) PlaceKioskOrder(c *gin.Context) {
	var req KioskOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	ctx, cancel := writeContext(c)
	defer cancel()

	placed, err := h.intake.PlaceKioskOrder(ctx, orders.KioskOrder{
		Total:  *req.Total,
		Rating: int(req.Rating.Int64()),
		Cart:   req.Order,
		Groups: req.GroupedOrder,
	})
	if err != nil {
		writeError(c, h.log, "Failed to place order", err)
		return
	}

	meta := gin.H{"order_id": placed.Order.OrderID}
	if email := strings.TrimSpace(req.Email); email != "" {
		points := customers.PointsForTotal(placed.Order.Total)
		if points > 0 {
			balance, err := h.rewards.AddPoints(ctx, email, points)
			if err != nil {
				h.log.Warn("failed to award points", zap.Int64("order_id", placed.Order.OrderID), zap.Error(err))
			} else {
				meta["points_awarded"] = points
				meta["points"] = balance
			}
		}
	}

	c.JSON(http.StatusCreated, successWithMetaResponse("Order placed successfully", placed, meta))
}

func (h *MenuHTTPHandler) DeductInventory(c *gin.Context) {
	var req InventoryDeductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	ctx, cancel := writeContext(c)
	defer cancel()

	deductions, err := h.ledger.DeductForOrder(ctx, req.Order)
	if err != nil {
		writeError(c, h.log, "Failed to update inventory", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Inventory updated successfully", deductions))
}

// --- Seasonal Handlers ---

func (h *MenuHTTPHandler) AddSeasonalItem(c *gin.Context) {
	var req SeasonalItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	item := menu.NewItem{
		Name:         req.Name,
		Type:         req.Type,
		Price:        *req.Price,
		Calories:     req.Calories.Int64(),
		Protein:      req.Protein.Float64(),
		Carbohydrate: req.Carbohydrate.Float64(),
		SaturatedFat: req.SaturatedFat.Float64(),
		Spicy:        req.Spicy,
		Premium:      req.Premium,
		Allergens:    splitAllergens(req.Allergens),
		Ingredients:  make(map[int64]float64, len(req.IngredientQuantities)),
		Units:        make(map[int64]string, len(req.IngredientUnits)),
	}
	for key, qty := range req.IngredientQuantities {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid ingredient id "+key))
			return
		}
		item.Ingredients[id] = qty.Float64()
	}
	for key, unit := range req.IngredientUnits {
		if id, err := strconv.ParseInt(key, 10, 64); err == nil {
			item.Units[id] = unit
		}
	}

	ctx, cancel := writeContext(c)
	defer cancel()

	created, err := h.menu.AddItem(ctx, item)
	if err != nil {
		writeError(c, h.log, "Failed to add menu item", err)
		return
	}
	c.JSON(http.StatusCreated, successResponse("Menu item added successfully", created))
}

func splitAllergens(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (h *MenuHTTPHandler) DeleteSeasonalItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := writeContext(c)
	defer cancel()

	if err := h.menu.DeleteItem(ctx, id); err != nil {
		writeError(c, h.log, "Failed to delete menu item", err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Menu item deleted successfully", nil))
}

func (h *MenuHTTPHandler) AddIngredient(c *gin.Context) {
	var req IngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	price := decimal.Zero
	if req.CurrentPrice != nil {
		price = *req.CurrentPrice
	}

	ctx, cancel := writeContext(c)
	defer cancel()

	ing, err := h.menu.AddIngredient(ctx, inventory.NewIngredient{
		Name:            req.Name,
		Unit:            req.Unit,
		Stock:           req.Stock.Float64(),
		MinThreshold:    req.Min.Float64(),
		MaxThreshold:    req.Max.Float64(),
		RestockQuantity: req.Restock.Float64(),
		CurrentPrice:    price,
	})
	if err != nil {
		writeError(c, h.log, "Failed to add ingredient", err)
		return
	}
	c.JSON(http.StatusCreated, successResponse("Ingredient added successfully", ing))
}
