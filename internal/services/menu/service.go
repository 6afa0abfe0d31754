package menu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"lightfoot-pos/internal/apperr"
	"lightfoot-pos/internal/database/models"
	"lightfoot-pos/internal/services/inventory"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	CACHE_TTL_MEDIUM = 30 * time.Minute

	KioskMenuCacheKey = "menu:kiosk"

	// Core food items occupy this id range in the seeded menu.
	CoreFirstID = 4
	CoreLastID  = 26

	MaxIngredientQuantity = 10.0
)

var noAllergens = []string{"None"}

type KioskItem struct {
	MenuItemID   int64           `json:"menu_item_id"`
	Name         string          `json:"name"`
	ItemType     string          `json:"item_type"`
	Price        decimal.Decimal `json:"price"`
	Calories     int64           `json:"calories"`
	Protein      float64         `json:"protein"`
	Carbohydrate float64         `json:"carbohydrate"`
	SaturatedFat float64         `json:"saturated_fat"`
	Spicy        bool            `json:"spicy"`
	Premium      bool            `json:"premium"`
	Allergens    []string        `json:"allergens"`
}

type CoreFood struct {
	Name string `json:"name"`
}

// NewItem is a seasonal menu addition. Ingredients maps ingredient id to quantity used per item.
type NewItem struct {
	Name         string
	Type         string
	Price        decimal.Decimal
	Calories     int64
	Protein      float64
	Carbohydrate float64
	SaturatedFat float64
	Spicy        bool
	Premium      bool
	Allergens    []string
	Ingredients  map[int64]float64
	Units        map[int64]string
}

type Service struct {
	db     *gorm.DB
	redis  *redis.Client
	ledger *inventory.Ledger
	log    *zap.Logger
}

func NewService(db *gorm.DB, redisClient *redis.Client, ledger *inventory.Ledger, log *zap.Logger) *Service {
	return &Service{
		db:     db,
		redis:  redisClient,
		ledger: ledger,
		log:    log,
	}
}

func (s *Service) ListItems(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := s.db.WithContext(ctx).Order("menu_item_id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	return items, nil
}

func (s *Service) CoreFoodNames(ctx context.Context) ([]CoreFood, error) {
	var out []CoreFood
	if err := s.db.WithContext(ctx).
		Model(&models.MenuItem{}).
		Select("name").
		Where("menu_item_id BETWEEN ? AND ?", CoreFirstID, CoreLastID).
		Order("menu_item_id").
		Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list core foods: %w", err)
	}
	if out == nil {
		out = []CoreFood{}
	}
	return out, nil
}

func (s *Service) GetByName(ctx context.Context, name string) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := s.db.WithContext(ctx).Where("name = ?", name).Order("menu_item_id").Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperr.NotFound("menu item %q not found", name)
	}
	return items, nil
}

// KioskMenu lists every item with nutrition facts, serving from Redis when warm.
func (s *Service) KioskMenu(ctx context.Context) ([]KioskItem, error) {
	val, err := s.redis.Get(ctx, KioskMenuCacheKey).Result()
	if err == nil {
		var cached []KioskItem
		if err := json.Unmarshal([]byte(val), &cached); err == nil {
			return cached, nil
		}
	} else if err != redis.Nil {
		s.log.Warn("kiosk menu cache read failed, falling back to db", zap.Error(err))
	}

	items, err := s.loadKioskMenu(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(items); err == nil {
		if err := s.redis.Set(ctx, KioskMenuCacheKey, data, CACHE_TTL_MEDIUM).Err(); err != nil {
			s.log.Warn("failed to cache kiosk menu", zap.Error(err))
		}
	}
	return items, nil
}

func (s *Service) loadKioskMenu(ctx context.Context) ([]KioskItem, error) {
	var items []models.MenuItem
	if err := s.db.WithContext(ctx).Order("menu_item_id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to load menu: %w", err)
	}
	var infos []models.MenuItemInfo
	if err := s.db.WithContext(ctx).Find(&infos).Error; err != nil {
		return nil, fmt.Errorf("failed to load nutrition info: %w", err)
	}
	byItem := make(map[int64]models.MenuItemInfo, len(infos))
	for _, info := range infos {
		byItem[info.MenuItemID] = info
	}

	out := make([]KioskItem, 0, len(items))
	for _, mi := range items {
		k := KioskItem{
			MenuItemID: mi.MenuItemID,
			Name:       mi.Name,
			ItemType:   mi.ItemType,
			Price:      mi.Price,
			Allergens:  noAllergens,
		}
		if info, ok := byItem[mi.MenuItemID]; ok {
			k.Calories = info.Calories
			k.Protein = info.Protein
			k.Carbohydrate = info.Carbohydrate
			k.SaturatedFat = info.SaturatedFat
			k.Spicy = info.Spicy
			k.Premium = info.Premium
			if len(info.Allergens) > 0 {
				k.Allergens = info.Allergens
			}
		}
		out = append(out, k)
	}
	return out, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.redis.Del(ctx, KioskMenuCacheKey).Err(); err != nil {
		s.log.Warn("failed to invalidate kiosk menu cache", zap.Error(err))
	}
}

// itemOnly reports whether a category is stored without nutrition or usage rows.
func itemOnly(itemType string) bool {
	switch itemType {
	case models.CategoryDrink, models.CategoryReward, "REWARDS", models.CategoryMeal:
		return true
	}
	return false
}

func validateNewItem(in *NewItem) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Type = strings.ToUpper(strings.TrimSpace(in.Type))
	if in.Name == "" {
		return apperr.Validation("name is required")
	}
	if in.Type == "" {
		return apperr.Validation("type is required")
	}
	if in.Price.IsNegative() || in.Calories < 0 || in.Protein < 0 || in.Carbohydrate < 0 || in.SaturatedFat < 0 {
		return apperr.Validation("price and nutrition values must be non-negative")
	}
	if itemOnly(in.Type) {
		return nil
	}
	if len(in.Ingredients) == 0 {
		return apperr.Validation("at least one ingredient is required for %s items", in.Type)
	}
	for id, qty := range in.Ingredients {
		if id <= 0 {
			return apperr.Validation("invalid ingredient id %d", id)
		}
		if qty <= 0 || qty > MaxIngredientQuantity {
			return apperr.Validation("ingredient %d quantity must be in (0, %.0f]", id, MaxIngredientQuantity)
		}
	}
	if in.Calories <= 0 {
		return apperr.Validation("calories must be positive for %s items", in.Type)
	}
	return nil
}

// AddItem inserts a seasonal item with its nutrition and usage rows in one transaction.
func (s *Service) AddItem(ctx context.Context, in NewItem) (*models.MenuItem, error) {
	if err := validateNewItem(&in); err != nil {
		return nil, err
	}

	item := models.MenuItem{Name: in.Name, ItemType: in.Type, Price: in.Price.Round(2)}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&item).Error; err != nil {
			return fmt.Errorf("failed to create menu item: %w", err)
		}
		if itemOnly(in.Type) {
			return nil
		}

		ids := make([]int64, 0, len(in.Ingredients))
		for id := range in.Ingredients {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		var stocked []models.Ingredient
		if err := tx.Where("ingredient_id IN ?", ids).Find(&stocked).Error; err != nil {
			return err
		}
		if len(stocked) != len(ids) {
			return apperr.Validation("one or more ingredients do not exist")
		}
		units := make(map[int64]string, len(stocked))
		for _, ing := range stocked {
			units[ing.IngredientID] = ing.Unit
		}

		allergens := models.StringArray(in.Allergens)
		if len(allergens) == 0 {
			allergens = models.StringArray(noAllergens)
		}
		info := models.MenuItemInfo{
			MenuItemID:   item.MenuItemID,
			Name:         item.Name,
			Calories:     in.Calories,
			Protein:      in.Protein,
			Carbohydrate: in.Carbohydrate,
			SaturatedFat: in.SaturatedFat,
			Spicy:        in.Spicy,
			Premium:      in.Premium,
			Allergens:    allergens,
		}
		if err := tx.Create(&info).Error; err != nil {
			return fmt.Errorf("failed to create nutrition info: %w", err)
		}

		usage := make([]models.IngredientUsage, 0, len(ids))
		for _, id := range ids {
			unit := units[id]
			if u := strings.TrimSpace(in.Units[id]); u != "" {
				unit = u
			}
			usage = append(usage, models.IngredientUsage{
				MenuItemID:   item.MenuItemID,
				IngredientID: id,
				QuantityUsed: in.Ingredients[id],
				Unit:         unit,
			})
		}
		if err := tx.Create(&usage).Error; err != nil {
			return fmt.Errorf("failed to create usage rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.log.Info("seasonal item added", zap.Int64("menu_item_id", item.MenuItemID), zap.String("name", item.Name))
	return &item, nil
}

// DeleteItem removes the item, its nutrition info and usage rows together.
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("menu_item_id = ?", id).Delete(&models.MenuItemInfo{}).Error; err != nil {
			return err
		}
		if err := tx.Where("menu_item_id = ?", id).Delete(&models.IngredientUsage{}).Error; err != nil {
			return err
		}
		res := tx.Where("menu_item_id = ?", id).Delete(&models.MenuItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("menu item %d not found", id)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			s.log.Error("failed to delete menu item", zap.Int64("menu_item_id", id), zap.Error(err))
		}
		return err
	}

	s.invalidate(ctx)
	s.log.Info("seasonal item removed", zap.Int64("menu_item_id", id))
	return nil
}

func (s *Service) AddIngredient(ctx context.Context, in inventory.NewIngredient) (*models.Ingredient, error) {
	return s.ledger.AddIngredient(ctx, in)
}
