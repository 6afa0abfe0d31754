// Package testutil wires in-memory SQLite and Redis for package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"lightfoot-pos/internal/database"
	"lightfoot-pos/internal/database/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var dbSeq int64

// NewDB returns a migrated private in-memory database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := fmt.Sprintf("file:lightfoot_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", atomic.AddInt64(&dbSeq, 1))
	db, err := database.Open(sqlite.Open(name), database.Options{
		MaxOpenConns: 1,
		LogLevel:     gormlogger.Silent,
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// NewRedis starts a miniredis server and returns a client bound to it.
func NewRedis(t testing.TB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func Logger() *zap.Logger { return zap.NewNop() }

func CreateMenuItem(t testing.TB, db *gorm.DB, name, itemType, price string) models.MenuItem {
	t.Helper()
	item := models.MenuItem{Name: name, ItemType: itemType, Price: decimal.RequireFromString(price)}
	require.NoError(t, db.Create(&item).Error)
	return item
}

func CreateIngredient(t testing.TB, db *gorm.DB, name string, stock, min, max float64) models.Ingredient {
	t.Helper()
	ing := models.Ingredient{
		Name:            name,
		QuantityStock:   stock,
		Unit:            "lbs",
		MinThreshold:    min,
		MaxThreshold:    max,
		RestockQuantity: max - min,
		CurrentPrice:    decimal.RequireFromString("1.00"),
	}
	require.NoError(t, db.Create(&ing).Error)
	return ing
}

func MapUsage(t testing.TB, db *gorm.DB, menuItemID, ingredientID int64, qty float64) {
	t.Helper()
	require.NoError(t, db.Create(&models.IngredientUsage{
		MenuItemID:   menuItemID,
		IngredientID: ingredientID,
		QuantityUsed: qty,
		Unit:         "lbs",
	}).Error)
}

func Stock(t testing.TB, db *gorm.DB, ingredientID int64) float64 {
	t.Helper()
	var ing models.Ingredient
	require.NoError(t, db.First(&ing, ingredientID).Error)
	return ing.QuantityStock
}

func Item(id int64) models.CartItem {
	return models.CartItem{MenuItemID: models.FlexInt(id)}
}
