package orders

import (
	"context"
	"testing"
	"time"

	"lightfoot-pos/internal/apperr"
	"lightfoot-pos/internal/database/models"
	"lightfoot-pos/internal/events"
	"lightfoot-pos/internal/services/inventory"
	"lightfoot-pos/internal/testutil"
	"lightfoot-pos/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	intake  *Intake
	history *History
	pub     *events.Publisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testutil.NewDB(t)
	rdb, _ := testutil.NewRedis(t)
	pub := events.NewPublisher(rdb, testutil.Logger())
	ledger := inventory.NewLedger(db, pub, testutil.Logger())
	return fixture{
		db:      db,
		intake:  NewIntake(db, ledger, pub, testutil.Logger()),
		history: NewHistory(db, testutil.Logger()),
		pub:     pub,
	}
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func item(id int64) *models.CartItem {
	ci := testutil.Item(id)
	return &ci
}

func TestPlaceKioskOrder_MealBundle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bowl := testutil.CreateMenuItem(t, f.db, "Bowl", models.CategoryMeal, "8.30")
	rice := testutil.CreateMenuItem(t, f.db, "Fried Rice", models.CategorySide, "0")
	noodles := testutil.CreateMenuItem(t, f.db, "Chow Mein", models.CategorySide, "0")
	chicken := testutil.CreateMenuItem(t, f.db, "Orange Chicken", models.CategoryEntree, "0")

	placed, err := f.intake.PlaceKioskOrder(ctx, KioskOrder{
		Total:  decimal.RequireFromString("8.30"),
		Rating: 4,
		Cart:   models.Cart{models.CategoryMeal: {testutil.Item(bowl.MenuItemID)}},
		Groups: []models.GroupedComponent{{
			Type:     models.GroupMeal,
			GroupNum: 1,
			Meal:     item(bowl.MenuItemID),
			Sides:    []models.CartItem{testutil.Item(rice.MenuItemID), testutil.Item(noodles.MenuItemID)},
			Entrees:  []models.CartItem{testutil.Item(chicken.MenuItemID)},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), count(t, f.db, &models.Order{}))
	assert.Equal(t, int64(1), count(t, f.db, &models.OrderLine{}))
	assert.Equal(t, int64(4), count(t, f.db, &models.CurrentOrderLine{}))

	var order models.Order
	require.NoError(t, f.db.First(&order, placed.Order.OrderID).Error)
	assert.Equal(t, int64(KioskEmployeeID), order.EmployeeID)
	assert.True(t, order.Reportable)
	assert.Equal(t, 4, order.Review)
	assert.True(t, decimal.RequireFromString("8.30").Equal(order.Total))

	var kitchen []models.CurrentOrderLine
	require.NoError(t, f.db.Where("order_id = ?", order.OrderID).Find(&kitchen).Error)
	require.Len(t, kitchen, 4)
	for _, k := range kitchen {
		assert.Equal(t, 1, k.ItemGroup)
		assert.Equal(t, 1, k.Quantity)
		assert.True(t, k.OrderCreated.Equal(kitchen[0].OrderCreated))
	}
}

func TestPlaceKioskOrder_IDsIncrease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	roll := testutil.CreateMenuItem(t, f.db, "Egg Roll", models.CategoryAppetizer, "2.00")

	var last int64
	for i := 0; i < 3; i++ {
		placed, err := f.intake.PlaceKioskOrder(ctx, KioskOrder{
			Total: decimal.RequireFromString("2.00"),
			Cart:  models.Cart{models.CategoryAppetizer: {testutil.Item(roll.MenuItemID)}},
			Groups: []models.GroupedComponent{{
				Type: models.CategoryAppetizer, GroupNum: 1, Item: item(roll.MenuItemID),
			}},
		})
		require.NoError(t, err)
		assert.Greater(t, placed.Order.OrderID, last)
		last = placed.Order.OrderID
	}

	latest, err := f.history.LatestOrderID(ctx)
	require.NoError(t, err)
	assert.Equal(t, last, latest)
}

func TestPlaceKioskOrder_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	roll := testutil.CreateMenuItem(t, f.db, "Egg Roll", models.CategoryAppetizer, "2.00")
	cart := models.Cart{models.CategoryAppetizer: {testutil.Item(roll.MenuItemID)}}

	cases := map[string]KioskOrder{
		"negative total":  {Total: decimal.NewFromInt(-1), Cart: cart},
		"rating too high": {Total: decimal.Zero, Rating: 6, Cart: cart},
		"empty":           {Total: decimal.Zero},
		"meal without meal item": {Total: decimal.Zero, Cart: cart, Groups: []models.GroupedComponent{
			{Type: models.GroupMeal, GroupNum: 1},
		}},
		"a-la-carte without size": {Total: decimal.Zero, Cart: cart, Groups: []models.GroupedComponent{
			{Type: models.GroupLaCarte, GroupNum: 1, Item: item(roll.MenuItemID)},
		}},
		"unknown item": {Total: decimal.Zero, Cart: models.Cart{models.CategoryEntree: {testutil.Item(404)}}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.intake.PlaceKioskOrder(ctx, in)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
	assert.Equal(t, int64(0), count(t, f.db, &models.Order{}))
}

func TestPlacePOSOrder_DeductsInSameTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rice := testutil.CreateMenuItem(t, f.db, "Fried Rice", models.CategorySide, "0")
	chicken := testutil.CreateMenuItem(t, f.db, "Orange Chicken", models.CategoryEntree, "0")
	riceIng := testutil.CreateIngredient(t, f.db, "rice", 10, 1, 20)
	chickenIng := testutil.CreateIngredient(t, f.db, "chicken", 3, 1, 20)
	testutil.MapUsage(t, f.db, rice.MenuItemID, riceIng.IngredientID, 1)
	testutil.MapUsage(t, f.db, chicken.MenuItemID, chickenIng.IngredientID, 5)

	placed, err := f.intake.PlacePOSOrder(ctx, POSOrder{
		Total:      decimal.RequireFromString("9.80"),
		EmployeeID: 7,
		Cart: models.Cart{
			models.CategorySide:   {testutil.Item(rice.MenuItemID)},
			models.CategoryEntree: {testutil.Item(chicken.MenuItemID)},
		},
	})
	require.NoError(t, err)
	assert.Len(t, placed.Deductions, 2)
	assert.Equal(t, int64(7), placed.Order.EmployeeID)
	assert.InDelta(t, 9.5, testutil.Stock(t, f.db, riceIng.IngredientID), 1e-9)
	assert.Equal(t, 0.0, testutil.Stock(t, f.db, chickenIng.IngredientID))
	assert.Equal(t, int64(2), count(t, f.db, &models.OrderLine{}))
	assert.Equal(t, int64(0), count(t, f.db, &models.CurrentOrderLine{}))

	var movements []models.StockMovement
	require.NoError(t, f.db.Find(&movements).Error)
	require.Len(t, movements, 2)
	require.NotNil(t, movements[0].ReferenceID)
	assert.Equal(t, placed.Order.OrderID, *movements[0].ReferenceID)
}

func TestPlacePOSOrder_FailureLeavesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	small := testutil.CreateMenuItem(t, f.db, "Small Entree", models.CategoryLaCarte, "5.20")
	ing := testutil.CreateIngredient(t, f.db, "rice", 10, 1, 20)
	testutil.MapUsage(t, f.db, small.MenuItemID, ing.IngredientID, 1)

	_, err := f.intake.PlacePOSOrder(ctx, POSOrder{
		Total:      decimal.RequireFromString("5.20"),
		EmployeeID: 2,
		Cart: models.Cart{
			models.CategoryLaCarte: {testutil.Item(small.MenuItemID)},
			models.CategoryEntree:  {testutil.Item(9999)},
		},
	})
	require.ErrorIs(t, err, apperr.ErrValidation)

	assert.Equal(t, int64(0), count(t, f.db, &models.Order{}))
	assert.Equal(t, int64(0), count(t, f.db, &models.OrderLine{}))
	assert.Equal(t, 10.0, testutil.Stock(t, f.db, ing.IngredientID))
}

func TestPlacePOSOrder_LaCarteWithoutPair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	small := testutil.CreateMenuItem(t, f.db, "Small A La Carte", models.CategoryLaCarte, "5.20")
	ing := testutil.CreateIngredient(t, f.db, "orange_chicken", 3, 1, 20)
	testutil.MapUsage(t, f.db, small.MenuItemID, ing.IngredientID, 5)

	line := testutil.Item(small.MenuItemID)
	line.ItemType = models.CategoryLaCarte
	placed, err := f.intake.PlacePOSOrder(ctx, POSOrder{
		Total:      decimal.RequireFromString("5.20"),
		EmployeeID: 3,
		Cart:       models.Cart{models.CategoryLaCarte: {line}},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), count(t, f.db, &models.Order{}))
	assert.Equal(t, int64(1), count(t, f.db, &models.OrderLine{}))
	require.Len(t, placed.Deductions, 1)
	assert.InDelta(t, 5.0, placed.Deductions[0].Amount, 1e-9)
	assert.Equal(t, 0.0, testutil.Stock(t, f.db, ing.IngredientID))
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	roll := testutil.CreateMenuItem(t, f.db, "Egg Roll", models.CategoryAppetizer, "2.00")

	_, err := f.history.LatestOrderID(ctx)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	base := time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC)
	f.intake.now = func() time.Time { return base }
	first, err := f.intake.PlaceKioskOrder(ctx, KioskOrder{
		Total: decimal.RequireFromString("4.00"),
		Cart:  models.Cart{models.CategoryAppetizer: {testutil.Item(roll.MenuItemID), testutil.Item(roll.MenuItemID)}},
	})
	require.NoError(t, err)

	f.intake.now = func() time.Time { return base.AddDate(0, 0, 2) }
	second, err := f.intake.PlaceKioskOrder(ctx, KioskOrder{
		Total: decimal.RequireFromString("2.00"),
		Cart:  models.Cart{models.CategoryAppetizer: {testutil.Item(roll.MenuItemID)}},
	})
	require.NoError(t, err)

	r, err := utils.ParseRange("2024-03-05", "2024-03-05", time.UTC)
	require.NoError(t, err)
	inRange, err := f.history.ListByRange(ctx, r)
	require.NoError(t, err)
	require.Len(t, inRange, 1)
	assert.Equal(t, first.Order.OrderID, inRange[0].OrderID)

	refs, err := f.history.MenuItemIDs(ctx, []int64{first.Order.OrderID, second.Order.OrderID})
	require.NoError(t, err)
	assert.Len(t, refs, 3)

	reportable, err := f.history.ListReportable(ctx)
	require.NoError(t, err)
	assert.Len(t, reportable, 2)

	n, err := f.history.ResetReportable(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	reportable, err = f.history.ListReportable(ctx)
	require.NoError(t, err)
	assert.Empty(t, reportable)

	got, err := f.history.Get(ctx, first.Order.OrderID)
	require.NoError(t, err)
	assert.Len(t, got.Lines, 2)
}
