package gateway

import (
	"lightfoot-pos/internal/database/models"
	"lightfoot-pos/internal/gateway/handlers"
	"lightfoot-pos/internal/gateway/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterConfig struct {
	AuthEnabled bool
	JWTSecret   []byte
	RateLimit   string
	CORSOrigins []string
}

type Handlers struct {
	Menu      *handlers.MenuHTTPHandler
	Kitchen   *handlers.KitchenHTTPHandler
	Inventory *handlers.InventoryHTTPHandler
	Orders    *handlers.OrdersHTTPHandler
	User      *handlers.UserHTTPHandler
	Health    *handlers.HealthHTTPHandler
}

// NewRouter wires middleware and every /api/v1 route.
func NewRouter(cfg RouterConfig, h Handlers, log *zap.Logger) (*gin.Engine, error) {
	r := gin.New()

	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	if cfg.RateLimit != "" {
		limit, err := middleware.RateLimit(cfg.RateLimit)
		if err != nil {
			return nil, err
		}
		r.Use(limit)
	}

	employee := requireRole(cfg, models.RoleCashier)
	manager := requireRole(cfg, models.RoleManager)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", h.User.Login)
		}

		items := api.Group("/items")
		{
			items.GET("", h.Menu.ListItems)
			items.GET("/onlyfood", h.Menu.CoreFoodNames)
			items.GET("/:name", h.Menu.GetByName)
			items.POST("", employee, h.Menu.PlacePOSOrder)
		}

		kiosk := api.Group("/kiosk")
		{
			kiosk.GET("", h.Menu.KioskMenu)
			kiosk.GET("/nextorder", h.Menu.LatestOrder)
			kiosk.POST("/orders", h.Menu.PlaceKioskOrder)
			kiosk.PUT("/inventory", h.Menu.DeductInventory)
		}

		kitchen := api.Group("/kitchen")
		{
			kitchen.GET("/orders", h.Kitchen.ListCurrent)
			kitchen.DELETE("/orders/:id", h.Kitchen.Complete)
			kitchen.GET("/completed", h.Kitchen.ListCompletedToday)
			kitchen.GET("/feed", h.Kitchen.Feed)
		}

		inventory := api.Group("/inventory", manager)
		{
			inventory.GET("", h.Inventory.List)
			inventory.GET("/usage", h.Inventory.ListUsage)
			inventory.GET("/by-name/:name", h.Inventory.FindByName)
			inventory.GET("/:id", h.Inventory.Lookup)
			inventory.GET("/:id/movements", h.Inventory.Movements)
			inventory.POST("/restock", h.Inventory.Restock)
			inventory.DELETE("/:id", h.Inventory.Delete)
		}

		api.GET("/orders/favorites", h.Orders.Favorites)
		orders := api.Group("/orders", manager)
		{
			orders.GET("", h.Orders.ListOrders)
			orders.GET("/reportable", h.Orders.ListReportable)
			orders.GET("/menu-items", h.Orders.MenuItemIDs)
			orders.GET("/:id", h.Orders.GetOrder)
			orders.POST("/reset", h.Orders.ResetReportable)
		}

		reports := api.Group("/reports", manager)
		{
			reports.GET("/x", h.Orders.XReport)
			reports.POST("/z", h.Orders.ZReport)
			reports.GET("/sales", h.Orders.Sales)
			reports.GET("/usage", h.Orders.ItemUsage)
		}
		api.GET("/reviews", manager, h.Orders.Reviews)

		seasonal := api.Group("/seasonal", manager)
		{
			seasonal.GET("/ingredients", h.Inventory.List)
			seasonal.POST("/ingredients", h.Menu.AddIngredient)
			seasonal.POST("/items", h.Menu.AddSeasonalItem)
			seasonal.DELETE("/items/:id", h.Menu.DeleteSeasonalItem)
		}

		employees := api.Group("/employees")
		{
			employees.GET("/:sub", h.User.GetEmployeeBySubject)
			employees.POST("", h.User.EnsureEmployee)
			employees.GET("", manager, h.User.ListEmployees)
			employees.POST("/manual", manager, h.User.AddManualEmployee)
			employees.PUT("/:id/position", manager, h.User.UpdatePosition)
			employees.PUT("/:id/role", manager, h.User.UpdateRole)
			employees.PUT("/:id/name", manager, h.User.UpdateName)
			employees.PUT("/:id/active", manager, h.User.SetActive)
			employees.DELETE("/:id", manager, h.User.DeleteEmployee)
		}

		customers := api.Group("/customers")
		{
			customers.GET("/check-email", h.User.CheckEmail)
			customers.POST("", h.User.CreateCustomer)
			customers.POST("/add-points", h.User.AddPoints)
			customers.POST("/redeem-points", h.User.RedeemPoints)
		}
	}

	r.GET("/health", h.Health.Live)
	r.GET("/health/detailed", h.Health.Detailed)

	return r, nil
}

func requireRole(cfg RouterConfig, minRole int) gin.HandlerFunc {
	if !cfg.AuthEnabled {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.JWTAuth(cfg.JWTSecret, minRole)
}
