package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MovementDeduct  = "DEDUCT"
	MovementRestock = "RESTOCK"

	ReferenceOrder   = "ORDER"
	ReferenceRestock = "RESTOCK"
)

type Ingredient struct {
	IngredientID    int64           `gorm:"column:ingredient_id;primaryKey;autoIncrement" json:"ingredient_id"`
	Name            string          `gorm:"column:name;size:128;not null;index" json:"name"`
	QuantityStock   float64         `gorm:"column:quantity_stock;not null" json:"quantity_stock"`
	Unit            string          `gorm:"column:unit;size:32" json:"unit"`
	MinThreshold    float64         `gorm:"column:min_threshold" json:"min_threshold"`
	MaxThreshold    float64         `gorm:"column:max_threshold" json:"max_threshold"`
	RestockQuantity float64         `gorm:"column:restock_quantity" json:"restock_quantity"`
	CurrentPrice    decimal.Decimal `gorm:"column:current_price;type:numeric(10,2)" json:"current_price"`
}

func (Ingredient) TableName() string { return "inventory" }

type StockMovement struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	IngredientID  int64     `gorm:"index;not null" json:"ingredient_id"`
	MovementType  string    `gorm:"size:16;not null" json:"movement_type"`
	Quantity      float64   `gorm:"not null" json:"quantity"`
	StockAfter    float64   `json:"stock_after"`
	ReferenceType string    `gorm:"size:16" json:"reference_type"`
	ReferenceID   *int64    `json:"reference_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
