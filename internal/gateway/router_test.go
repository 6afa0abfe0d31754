package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lightfoot-pos/internal/database"
	"lightfoot-pos/internal/database/models"
	"lightfoot-pos/internal/events"
	"lightfoot-pos/internal/gateway/handlers"
	"lightfoot-pos/internal/services/customers"
	"lightfoot-pos/internal/services/employees"
	"lightfoot-pos/internal/services/inventory"
	"lightfoot-pos/internal/services/kitchen"
	"lightfoot-pos/internal/services/menu"
	"lightfoot-pos/internal/services/orders"
	"lightfoot-pos/internal/services/reports"
	"lightfoot-pos/internal/testutil"
	"lightfoot-pos/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testSecret = []byte("router-test")

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    json.RawMessage        `json:"data"`
	Meta    map[string]interface{} `json:"meta"`
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
}

func newTestServer(t *testing.T, cfg RouterConfig) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	rdb, _ := testutil.NewRedis(t)
	log := testutil.Logger()
	pub := events.NewPublisher(rdb, log)

	ledger := inventory.NewLedger(db, pub, log)
	history := orders.NewHistory(db, log)
	rewards := customers.NewRewards(db, log)
	queue := kitchen.NewQueue(db, pub, time.UTC, log)

	cfg.JWTSecret = testSecret
	router, err := NewRouter(cfg, Handlers{
		Menu:      handlers.NewMenuHTTPHandler(menu.NewService(db, rdb, ledger, log), orders.NewIntake(db, ledger, pub, log), history, ledger, rewards, log),
		Kitchen:   handlers.NewKitchenHTTPHandler(queue, nil, log),
		Inventory: handlers.NewInventoryHTTPHandler(ledger, log),
		Orders:    handlers.NewOrdersHTTPHandler(history, reports.NewAggregator(db, pub, time.UTC, log), time.UTC, log),
		User:      handlers.NewUserHTTPHandler(employees.NewService(db, testSecret, time.Hour, log), rewards, log),
		Health:    handlers.NewHealthHTTPHandler(db, rdb, nil),
	}, log)
	require.NoError(t, err)

	return testServer{router: router, db: db}
}

func (s testServer) do(t *testing.T, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func token(t *testing.T, employeeID int64, role int) string {
	t.Helper()
	tok, _, err := utils.GenerateToken(testSecret, employeeID, "Test User", role, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestHealthRoutes(t *testing.T) {
	s := newTestServer(t, RouterConfig{})

	w, _ := s.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w, _ = s.do(t, http.MethodGet, "/health/detailed", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Overall  string                       `json:"overall_status"`
		Services map[string]map[string]string `json:"services"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Overall)
	assert.Equal(t, "healthy", body.Services["database"]["status"])
	assert.Equal(t, "healthy", body.Services["redis"]["status"])
	assert.Equal(t, "unavailable", body.Services["kitchen"]["status"])

	w, env := s.do(t, http.MethodGet, "/api/v1/kitchen/feed", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.False(t, env.Success)
}

func TestKioskOrderFlow(t *testing.T) {
	s := newTestServer(t, RouterConfig{})

	bowl := testutil.CreateMenuItem(t, s.db, "Bowl", models.CategoryMeal, "8.30")
	rice := testutil.CreateMenuItem(t, s.db, "Fried Rice", models.CategorySide, "0")
	chicken := testutil.CreateMenuItem(t, s.db, "Orange Chicken", models.CategoryEntree, "0")

	w, _ := s.do(t, http.MethodPost, "/api/v1/customers", gin.H{"email": "fan@example.com"}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	ref := func(id int64) gin.H { return gin.H{"menu_item_id": id} }
	w, env := s.do(t, http.MethodPost, "/api/v1/kiosk/orders", gin.H{
		"total":  8.30,
		"rating": 5,
		"email":  "fan@example.com",
		"order":  gin.H{models.CategoryMeal: []gin.H{ref(bowl.MenuItemID)}},
		"groupedOrder": []gin.H{{
			"type":     models.GroupMeal,
			"groupNum": 1,
			"meal":     ref(bowl.MenuItemID),
			"sides":    []gin.H{ref(rice.MenuItemID)},
			"entrees":  []gin.H{ref(chicken.MenuItemID)},
		}},
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, env.Success)
	assert.EqualValues(t, 8, env.Meta["points_awarded"])
	orderID := int64(env.Meta["order_id"].(float64))

	w, env = s.do(t, http.MethodGet, "/api/v1/kitchen/orders", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var tickets []kitchen.Ticket
	require.NoError(t, json.Unmarshal(env.Data, &tickets))
	require.Len(t, tickets, 1)
	assert.Equal(t, orderID, tickets[0].OrderID)
	assert.Len(t, tickets[0].Items, 3)

	w, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/kitchen/orders/%d", orderID), nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, env = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/kitchen/orders/%d", orderID), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)

	w, env = s.do(t, http.MethodGet, "/api/v1/customers/check-email?email=fan@example.com", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var status customers.EmailStatus
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.True(t, status.Exists)
	require.NotNil(t, status.Points)
	assert.Equal(t, int64(8), *status.Points)
}

func TestErrorStatusMapping(t *testing.T) {
	s := newTestServer(t, RouterConfig{})

	w, env := s.do(t, http.MethodGet, "/api/v1/items/Nothing", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)

	w, _ = s.do(t, http.MethodGet, "/api/v1/orders?startDate=yesterday&endDate=2024-01-01", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/orders", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/api/v1/kitchen/orders/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/kiosk/orders", gin.H{"total": 5, "rating": 9, "order": gin.H{}}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(t, http.MethodPost, "/api/v1/reports/z", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "No reportable orders since the last Z report", env.Message)
}

func TestCustomerSignup(t *testing.T) {
	s := newTestServer(t, RouterConfig{})

	w, env := s.do(t, http.MethodGet, "/api/v1/customers/check-email?email=new@example.com", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"exists":false}`, string(env.Data))

	w, _ = s.do(t, http.MethodPost, "/api/v1/customers", gin.H{"email": "new@example.com"}, "")
	assert.Equal(t, http.StatusCreated, w.Code)

	w, env = s.do(t, http.MethodPost, "/api/v1/customers", gin.H{"email": "new@example.com"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Email already exists.", env.Message)

	w, env = s.do(t, http.MethodPost, "/api/v1/customers/redeem-points", gin.H{"email": "ghost@example.com", "remainingPoints": 0}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found.", env.Message)
}

func TestAuthGuards(t *testing.T) {
	s := newTestServer(t, RouterConfig{AuthEnabled: true})

	w, _ := s.do(t, http.MethodGet, "/api/v1/inventory", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/inventory", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/inventory", nil, token(t, 7, models.RoleCashier))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/inventory", nil, token(t, 1, models.RoleManager))
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/kiosk", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	bowl := testutil.CreateMenuItem(t, s.db, "Plate", models.CategoryMeal, "9.80")
	order := gin.H{"total": 9.80, "order": gin.H{models.CategoryMeal: []gin.H{{"menu_item_id": bowl.MenuItemID}}}}

	w, _ = s.do(t, http.MethodPost, "/api/v1/items", order, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := s.do(t, http.MethodPost, "/api/v1/items", order, token(t, 7, models.RoleCashier))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var placed orders.Placed
	require.NoError(t, json.Unmarshal(env.Data, &placed))
	assert.Equal(t, int64(7), placed.Order.EmployeeID)

	order["employee_id"] = 9
	w, env = s.do(t, http.MethodPost, "/api/v1/items", order, token(t, 7, models.RoleCashier))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &placed))
	assert.Equal(t, int64(7), placed.Order.EmployeeID)

	var stored models.Order
	require.NoError(t, s.db.Order("order_id desc").First(&stored).Error)
	assert.Equal(t, int64(7), stored.EmployeeID)
}

func TestLoginIssuesManagerToken(t *testing.T) {
	s := newTestServer(t, RouterConfig{AuthEnabled: true})
	require.NoError(t, database.SeedManager(s.db, testutil.Logger()))

	var manager models.Employee
	require.NoError(t, s.db.First(&manager).Error)

	w, _ := s.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{"employee_id": manager.EmployeeID, "pin": "1111"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := s.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{"employee_id": manager.EmployeeID, "pin": "0000"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var res employees.LoginResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotEmpty(t, res.Token)

	w, _ = s.do(t, http.MethodGet, "/api/v1/reports/x", nil, res.Token)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/employees/unknown-subject", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/employees", gin.H{"userId": "oidc|42", "name": "Lin Wei"}, "")
	assert.Equal(t, http.StatusCreated, w.Code)
	w, _ = s.do(t, http.MethodPost, "/api/v1/employees", gin.H{"userId": "oidc|42", "name": "Lin Wei"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, RouterConfig{RateLimit: "2-M"})

	for i := 0; i < 2; i++ {
		w, _ := s.do(t, http.MethodGet, "/health", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
	}
	w, _ := s.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestInvalidRateLimit(t *testing.T) {
	_, err := NewRouter(RouterConfig{RateLimit: "lots"}, Handlers{}, testutil.Logger())
	assert.Error(t, err)
}

func TestSeasonalAndInventoryRoutes(t *testing.T) {
	s := newTestServer(t, RouterConfig{})

	w, env := s.do(t, http.MethodPost, "/api/v1/seasonal/ingredients", gin.H{
		"ingname": "Green Onion", "stock": 10, "ingunit": "lbs", "min": 2, "max": 20, "restock": 18, "currprice": "1.25",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var ing models.Ingredient
	require.NoError(t, json.Unmarshal(env.Data, &ing))
	assert.Equal(t, "green_onion", ing.Name)

	w, _ = s.do(t, http.MethodGet, "/api/v1/inventory/by-name/Green%20Onion", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(t, http.MethodPost, "/api/v1/inventory/restock", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "No items need restocking.", env.Message)

	w, env = s.do(t, http.MethodPost, "/api/v1/seasonal/items", gin.H{
		"name": "Lunar Dumplings", "type": models.CategoryAppetizer, "price": "3.50", "calories": 280,
		"ingredientQuantities": gin.H{fmt.Sprint(ing.IngredientID): 0.25},
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var item models.MenuItem
	require.NoError(t, json.Unmarshal(env.Data, &item))

	w, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/seasonal/items/%d", item.MenuItemID), nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/seasonal/items/%d", item.MenuItemID), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
