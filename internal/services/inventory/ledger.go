package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"lightfoot-pos/internal/apperr"
	"lightfoot-pos/internal/database/models"
	"lightfoot-pos/internal/events"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	SidePortion   = 0.5
	SmallPortion  = 1.0
	MediumPortion = 1.5
	LargePortion  = 2.0
)

// PortionMultiplier scales an item's ingredient usage by its category and, for a-la-carte, by the size name.
func PortionMultiplier(category, sizeName string) float64 {
	switch category {
	case models.CategorySide:
		return SidePortion
	case models.CategoryLaCarte:
		switch {
		case strings.Contains(sizeName, "Small"):
			return SmallPortion
		case strings.Contains(sizeName, "Medium"):
			return MediumPortion
		default:
			return LargePortion
		}
	}
	return 1
}

type Deduction struct {
	IngredientID int64   `json:"ingredient_id"`
	Amount       float64 `json:"amount"`
	StockAfter   float64 `json:"stock_after"`
}

type Ledger struct {
	db     *gorm.DB
	events *events.Publisher
	log    *zap.Logger
}

func NewLedger(db *gorm.DB, publisher *events.Publisher, log *zap.Logger) *Ledger {
	return &Ledger{
		db:     db,
		events: publisher,
		log:    log,
	}
}

// DeductForOrder removes the cart's ingredient consumption from stock in its own transaction.
func (l *Ledger) DeductForOrder(ctx context.Context, cart models.Cart) ([]Deduction, error) {
	tx := l.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	deductions, err := l.DeductTx(tx, cart, nil)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit deduction: %w", err)
	}
	return deductions, nil
}

// DeductTx applies the deduction inside the caller's transaction. Stock is floored at zero.
func (l *Ledger) DeductTx(tx *gorm.DB, cart models.Cart, orderID *int64) ([]Deduction, error) {
	amounts, err := l.plan(tx, cart)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(amounts))
	for id, amt := range amounts {
		if amt > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	now := time.Now().UTC()
	deductions := make([]Deduction, 0, len(ids))
	for _, id := range ids {
		amt := amounts[id]
		res := tx.Model(&models.Ingredient{}).
			Where("ingredient_id = ?", id).
			Update("quantity_stock", gorm.Expr("CASE WHEN quantity_stock > ? THEN quantity_stock - ? ELSE 0 END", amt, amt))
		if res.Error != nil {
			return nil, fmt.Errorf("failed to deduct ingredient %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			l.log.Warn("usage mapping references missing ingredient", zap.Int64("ingredient_id", id))
			continue
		}

		var after []float64
		if err := tx.Model(&models.Ingredient{}).Where("ingredient_id = ?", id).Pluck("quantity_stock", &after).Error; err != nil {
			return nil, err
		}
		stockAfter := 0.0
		if len(after) > 0 {
			stockAfter = after[0]
		}

		movement := models.StockMovement{
			IngredientID:  id,
			MovementType:  models.MovementDeduct,
			Quantity:      amt,
			StockAfter:    stockAfter,
			ReferenceType: models.ReferenceOrder,
			ReferenceID:   orderID,
			CreatedAt:     now,
		}
		if err := tx.Create(&movement).Error; err != nil {
			return nil, fmt.Errorf("failed to record stock movement: %w", err)
		}

		deductions = append(deductions, Deduction{IngredientID: id, Amount: amt, StockAfter: stockAfter})
	}

	return deductions, nil
}

// plan sums the ingredient amounts the cart consumes, keyed by ingredient id.
func (l *Ledger) plan(tx *gorm.DB, cart models.Cart) (map[int64]float64, error) {
	ids := uniqueIDs(cart.ItemIDs())
	if len(ids) == 0 {
		return map[int64]float64{}, nil
	}
	for _, id := range ids {
		if id <= 0 {
			return nil, apperr.Validation("invalid menu item id %d", id)
		}
	}

	var items []models.MenuItem
	if err := tx.Where("menu_item_id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	byID := make(map[int64]models.MenuItem, len(items))
	for _, it := range items {
		byID[it.MenuItemID] = it
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, apperr.Validation("unknown menu item %d", id)
		}
	}

	var usages []models.IngredientUsage
	if err := tx.Where("menu_item_id IN ?", ids).Find(&usages).Error; err != nil {
		return nil, err
	}
	usageByItem := make(map[int64][]models.IngredientUsage)
	for _, u := range usages {
		usageByItem[u.MenuItemID] = append(usageByItem[u.MenuItemID], u)
	}

	amounts := make(map[int64]float64)
	pairs := cart[models.CartCarteItems]
	for _, key := range cart.Keys() {
		if key == models.CartCarteItems {
			continue
		}
		for idx, ci := range cart[key] {
			id := ci.MenuItemID.Int64()
			stored := byID[id]
			category := categoryOf(ci, stored, key)

			source := id
			multiplier := PortionMultiplier(category, "")
			if category == models.CategoryLaCarte {
				// Without a paired item the line carries its own usage at one portion.
				multiplier = SmallPortion
				if idx < len(pairs) {
					source = pairs[idx].MenuItemID.Int64()
					multiplier = PortionMultiplier(category, stored.Name)
				}
			}

			for _, u := range usageByItem[source] {
				amounts[u.IngredientID] += u.QuantityUsed * multiplier
			}
		}
	}
	return amounts, nil
}

func categoryOf(ci models.CartItem, stored models.MenuItem, key string) string {
	if ci.ItemType != "" {
		return strings.ToUpper(ci.ItemType)
	}
	if stored.ItemType != "" {
		return strings.ToUpper(stored.ItemType)
	}
	return strings.ToUpper(key)
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// RestockBelowMinimum raises every ingredient under its minimum to its maximum threshold.
// It returns the restocked ingredients; an empty result means nothing qualified.
func (l *Ledger) RestockBelowMinimum(ctx context.Context) ([]models.Ingredient, error) {
	tx := l.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	var low []models.Ingredient
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("quantity_stock < min_threshold").
		Order("ingredient_id").
		Find(&low).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if len(low) == 0 {
		tx.Rollback()
		return nil, nil
	}

	now := time.Now().UTC()
	restocked := make([]models.Ingredient, 0, len(low))
	for _, ing := range low {
		added := ing.MaxThreshold - ing.QuantityStock
		if err := tx.Model(&models.Ingredient{}).
			Where("ingredient_id = ?", ing.IngredientID).
			Update("quantity_stock", ing.MaxThreshold).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to restock ingredient %d: %w", ing.IngredientID, err)
		}

		if err := tx.Create(&models.StockMovement{
			IngredientID:  ing.IngredientID,
			MovementType:  models.MovementRestock,
			Quantity:      added,
			StockAfter:    ing.MaxThreshold,
			ReferenceType: models.ReferenceRestock,
			CreatedAt:     now,
		}).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to record stock movement: %w", err)
		}

		ing.QuantityStock = ing.MaxThreshold
		restocked = append(restocked, ing)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit restock: %w", err)
	}

	l.log.Info("inventory restocked", zap.Int("ingredients", len(restocked)))
	l.events.PublishBestEffort(ctx, events.Event{EventType: events.InventoryRestocked, Count: len(restocked)})

	return restocked, nil
}

func (l *Ledger) List(ctx context.Context) ([]models.Ingredient, error) {
	var out []models.Ingredient
	if err := l.db.WithContext(ctx).Order("ingredient_id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Ledger) ListUsage(ctx context.Context) ([]models.IngredientUsage, error) {
	var out []models.IngredientUsage
	if err := l.db.WithContext(ctx).Order("menu_item_id, ingredient_id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type IngredientRef struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

func (l *Ledger) Lookup(ctx context.Context, id int64) (*IngredientRef, error) {
	var ing models.Ingredient
	if err := l.db.WithContext(ctx).Select("name", "unit").Where("ingredient_id = ?", id).First(&ing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("ingredient %d not found", id)
		}
		return nil, err
	}
	return &IngredientRef{Name: ing.Name, Unit: ing.Unit}, nil
}

func (l *Ledger) FindByName(ctx context.Context, name string) (*models.Ingredient, error) {
	var ing models.Ingredient
	if err := l.db.WithContext(ctx).Where("name = ?", NormalizeName(name)).First(&ing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("ingredient %q not found", name)
		}
		return nil, err
	}
	return &ing, nil
}

// Delete removes the ingredient and every usage row that references it.
func (l *Ledger) Delete(ctx context.Context, id int64) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ingredient_id = ?", id).Delete(&models.IngredientUsage{}).Error; err != nil {
			return err
		}
		res := tx.Where("ingredient_id = ?", id).Delete(&models.Ingredient{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("ingredient %d not found", id)
		}
		return nil
	})
}

type NewIngredient struct {
	Name            string
	Unit            string
	Stock           float64
	MinThreshold    float64
	MaxThreshold    float64
	RestockQuantity float64
	CurrentPrice    decimal.Decimal
}

// NormalizeName lowercases and joins words with underscores, the stored ingredient naming.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

func (l *Ledger) AddIngredient(ctx context.Context, in NewIngredient) (*models.Ingredient, error) {
	name := NormalizeName(in.Name)
	if name == "" {
		return nil, apperr.Validation("ingredient name is required")
	}
	if strings.TrimSpace(in.Unit) == "" {
		return nil, apperr.Validation("ingredient unit is required")
	}
	for field, v := range map[string]float64{
		"stock":   in.Stock,
		"min":     in.MinThreshold,
		"max":     in.MaxThreshold,
		"restock": in.RestockQuantity,
	} {
		if v < 0 {
			return nil, apperr.Validation("%s must be non-negative", field)
		}
	}
	if in.CurrentPrice.IsNegative() {
		return nil, apperr.Validation("price must be non-negative")
	}
	if in.MaxThreshold < in.MinThreshold {
		return nil, apperr.Validation("max threshold must not be below min threshold")
	}

	ing := models.Ingredient{
		Name:            name,
		Unit:            strings.TrimSpace(in.Unit),
		QuantityStock:   in.Stock,
		MinThreshold:    in.MinThreshold,
		MaxThreshold:    in.MaxThreshold,
		RestockQuantity: in.RestockQuantity,
		CurrentPrice:    in.CurrentPrice,
	}
	if err := l.db.WithContext(ctx).Create(&ing).Error; err != nil {
		return nil, fmt.Errorf("failed to create ingredient: %w", err)
	}
	return &ing, nil
}

func (l *Ledger) Movements(ctx context.Context, ingredientID int64) ([]models.StockMovement, error) {
	var out []models.StockMovement
	if err := l.db.WithContext(ctx).Where("ingredient_id = ?", ingredientID).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
