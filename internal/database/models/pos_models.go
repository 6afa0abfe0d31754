package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	OrderID    int64           `gorm:"column:order_id;primaryKey;autoIncrement" json:"order_id"`
	EmployeeID int64           `gorm:"column:employee_id;not null;index" json:"employee_id"`
	Timestamp  time.Time       `gorm:"column:timestamp;not null;index" json:"timestamp"`
	Total      decimal.Decimal `gorm:"column:total;type:numeric(10,2);not null" json:"total"`
	Review     int             `gorm:"column:review;not null" json:"review"`
	Reportable bool            `gorm:"column:reportable;not null;index" json:"reportable"`

	Lines []OrderLine `gorm:"foreignKey:OrderID;references:OrderID" json:"lines,omitempty"`
}

func (Order) TableName() string { return "orders" }

type OrderLine struct {
	MenuOrderID int64 `gorm:"column:menu_order_id;primaryKey;autoIncrement" json:"menu_order_id"`
	OrderID     int64 `gorm:"column:order_id;index;not null" json:"order_id"`
	MenuItemID  int64 `gorm:"column:menu_item_id;index;not null" json:"menu_item_id"`
	Quantity    int   `gorm:"column:quantity;not null" json:"quantity"`
}

func (OrderLine) TableName() string { return "menu_orders" }

// CurrentOrderLine is a kitchen-queue row for an order still being prepared.
type CurrentOrderLine struct {
	MenuOrderID  int64     `gorm:"column:menu_order_id;primaryKey;autoIncrement" json:"menu_order_id"`
	OrderID      int64     `gorm:"column:order_id;index;not null" json:"order_id"`
	MenuItemID   int64     `gorm:"column:menu_item_id;not null" json:"menu_item_id"`
	Quantity     int       `gorm:"column:quantity;not null" json:"quantity"`
	OrderCreated time.Time `gorm:"column:order_created;not null" json:"order_created"`
	ItemGroup    int       `gorm:"column:itemgroup;not null" json:"itemgroup"`
}

func (CurrentOrderLine) TableName() string { return "currentorders" }

type CompletedOrderLine struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	OrderID      int64     `gorm:"column:order_id;index;not null" json:"order_id"`
	OrderCreated time.Time `gorm:"column:order_created;not null" json:"order_created"`
	MenuItemID   int64     `gorm:"column:menu_item_id;not null" json:"menu_item_id"`
	Quantity     int       `gorm:"column:quantity;not null" json:"quantity"`
	ItemGroup    int       `gorm:"column:itemgroup;not null" json:"itemgroup"`
	CompletedAt  time.Time `gorm:"column:completed_at;not null;index" json:"completed_at"`
}

func (CompletedOrderLine) TableName() string { return "completedorders" }
