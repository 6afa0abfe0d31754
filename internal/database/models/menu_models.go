package models

import "github.com/shopspring/decimal"

const (
	CategoryMeal      = "MEAL"
	CategorySide      = "SIDE"
	CategoryEntree    = "ENTREE"
	CategoryAppetizer = "APPETIZER"
	CategoryDrink     = "DRINK"
	CategoryLaCarte   = "LACARTE"
	CategorySpecial   = "SPECIAL"
	CategoryReward    = "REWARD"

	// CartCarteItems holds the food paired by index with each LACARTE size entry.
	CartCarteItems = "CARTEITEMS"
)

type MenuItem struct {
	MenuItemID int64           `gorm:"column:menu_item_id;primaryKey;autoIncrement" json:"menu_item_id"`
	Name       string          `gorm:"column:name;size:128;not null;index" json:"name"`
	ItemType   string          `gorm:"column:item_type;size:32;not null" json:"item_type"`
	Price      decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null" json:"price"`
}

func (MenuItem) TableName() string { return "menu_items" }

type MenuItemInfo struct {
	ID           int64       `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	MenuItemID   int64       `gorm:"column:menu_item_id;uniqueIndex;not null" json:"menu_item_id"`
	Name         string      `gorm:"column:name;size:128" json:"name"`
	Calories     int64       `gorm:"column:calories" json:"calories"`
	Protein      float64     `gorm:"column:protein" json:"protein"`
	Carbohydrate float64     `gorm:"column:carbohydrate" json:"carbohydrate"`
	SaturatedFat float64     `gorm:"column:saturated_fat" json:"saturated_fat"`
	Spicy        bool        `gorm:"column:spicy" json:"spicy"`
	Premium      bool        `gorm:"column:premium" json:"premium"`
	Allergens    StringArray `gorm:"column:allergens;type:text" json:"allergens"`
}

func (MenuItemInfo) TableName() string { return "menu_items_info" }

// IngredientUsage is the quantity of one ingredient consumed by one unit of a menu item.
type IngredientUsage struct {
	ID           int64   `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	MenuItemID   int64   `gorm:"column:menu_item_id;index;not null" json:"menu_item_id"`
	IngredientID int64   `gorm:"column:ingredient_id;index;not null" json:"ingredient_id"`
	QuantityUsed float64 `gorm:"column:quantity_used;not null" json:"quantity_used"`
	Unit         string  `gorm:"column:unit;size:32" json:"unit"`
}

func (IngredientUsage) TableName() string { return "menu_items_inventory" }
