package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lightfoot-pos/internal/apperr"
	"lightfoot-pos/internal/database/models"
	"lightfoot-pos/internal/events"
	"lightfoot-pos/internal/services/inventory"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	KioskEmployeeID = 0
	MaxRating       = 5
)

type KioskOrder struct {
	Total  decimal.Decimal
	Rating int
	Cart   models.Cart
	Groups []models.GroupedComponent
}

type POSOrder struct {
	Total      decimal.Decimal
	EmployeeID int64
	Cart       models.Cart
}

// Placed is the durable result of an order placement.
type Placed struct {
	Order        models.Order              `json:"order"`
	KitchenLines []models.CurrentOrderLine `json:"kitchen_lines,omitempty"`
	Deductions   []inventory.Deduction     `json:"deductions,omitempty"`
}

type Intake struct {
	db     *gorm.DB
	ledger *inventory.Ledger
	events *events.Publisher
	log    *zap.Logger
	now    func() time.Time
}

func NewIntake(db *gorm.DB, ledger *inventory.Ledger, publisher *events.Publisher, log *zap.Logger) *Intake {
	return &Intake{
		db:     db,
		ledger: ledger,
		events: publisher,
		log:    log,
		now:    time.Now,
	}
}

// PlaceKioskOrder records a customer order and queues its grouped components for the kitchen.
// Inventory is deducted separately by the kiosk through the ledger.
func (s *Intake) PlaceKioskOrder(ctx context.Context, in KioskOrder) (*Placed, error) {
	if err := validateTotals(in.Total, in.Rating); err != nil {
		return nil, err
	}
	if in.Cart.Len() == 0 && len(in.Groups) == 0 {
		return nil, apperr.Validation("order has no items")
	}
	if err := validateGroups(in.Groups); err != nil {
		return nil, err
	}

	return s.place(ctx, placement{
		employeeID: KioskEmployeeID,
		total:      in.Total,
		rating:     in.Rating,
		cart:       in.Cart,
		groups:     in.Groups,
	})
}

// PlacePOSOrder records a cashier order and deducts its ingredients in the same transaction.
func (s *Intake) PlacePOSOrder(ctx context.Context, in POSOrder) (*Placed, error) {
	if err := validateTotals(in.Total, 0); err != nil {
		return nil, err
	}
	if in.EmployeeID < 0 {
		return nil, apperr.Validation("invalid employee id")
	}
	if in.Cart.Len() == 0 {
		return nil, apperr.Validation("order has no items")
	}

	return s.place(ctx, placement{
		employeeID: in.EmployeeID,
		total:      in.Total,
		cart:       in.Cart,
		deduct:     true,
	})
}

type placement struct {
	employeeID int64
	total      decimal.Decimal
	rating     int
	cart       models.Cart
	groups     []models.GroupedComponent
	deduct     bool
}

func (s *Intake) place(ctx context.Context, p placement) (*Placed, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := ensureMenuItems(tx, p.cart, p.groups); err != nil {
		tx.Rollback()
		return nil, err
	}

	now := s.now().UTC()
	order := models.Order{
		EmployeeID: p.employeeID,
		Timestamp:  now,
		Total:      p.total.Round(2),
		Review:     p.rating,
		Reportable: true,
	}
	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	var lines []models.OrderLine
	for _, key := range p.cart.Keys() {
		for _, item := range p.cart[key] {
			lines = append(lines, models.OrderLine{
				OrderID:    order.OrderID,
				MenuItemID: item.MenuItemID.Int64(),
				Quantity:   1,
			})
		}
	}
	if len(lines) > 0 {
		if err := tx.Create(&lines).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to create order lines: %w", err)
		}
	}
	order.Lines = lines

	var kitchenLines []models.CurrentOrderLine
	for _, g := range p.groups {
		for _, c := range g.Components() {
			kitchenLines = append(kitchenLines, models.CurrentOrderLine{
				OrderID:      order.OrderID,
				MenuItemID:   c.MenuItemID.Int64(),
				Quantity:     1,
				OrderCreated: now,
				ItemGroup:    int(g.GroupNum),
			})
		}
	}
	if len(kitchenLines) > 0 {
		if err := tx.Create(&kitchenLines).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to queue kitchen lines: %w", err)
		}
	}

	var deductions []inventory.Deduction
	if p.deduct {
		var err error
		deductions, err = s.ledger.DeductTx(tx, p.cart, &order.OrderID)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	s.log.Info("order placed",
		zap.Int64("order_id", order.OrderID),
		zap.Int64("employee_id", order.EmployeeID),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Int("lines", len(lines)),
		zap.Int("kitchen_lines", len(kitchenLines)),
	)

	total := order.Total
	s.events.PublishBestEffort(ctx, events.Event{
		EventType:  events.OrderPlaced,
		OrderID:    order.OrderID,
		EmployeeID: order.EmployeeID,
		Total:      &total,
		Items:      p.cart.ItemIDs(),
		Timestamp:  now,
	})

	return &Placed{Order: order, KitchenLines: kitchenLines, Deductions: deductions}, nil
}

func validateTotals(total decimal.Decimal, rating int) error {
	if total.IsNegative() {
		return apperr.Validation("total must be non-negative")
	}
	if rating < 0 || rating > MaxRating {
		return apperr.Validation("rating must be between 0 and %d", MaxRating)
	}
	return nil
}

func validateGroups(groups []models.GroupedComponent) error {
	for i, g := range groups {
		switch strings.ToUpper(g.Type) {
		case models.GroupMeal:
			if g.Meal == nil {
				return apperr.Validation("group %d: meal item is required", i)
			}
		case models.GroupLaCarte:
			if g.Size == nil || g.Item == nil {
				return apperr.Validation("group %d: a-la-carte needs a size and an item", i)
			}
		default:
			if g.Item == nil {
				return apperr.Validation("group %d: item is required", i)
			}
		}
		if g.GroupNum < 0 {
			return apperr.Validation("group %d: group number must be non-negative", i)
		}
	}
	return nil
}

// ensureMenuItems rejects carts that reference ids missing from the menu.
func ensureMenuItems(tx *gorm.DB, cart models.Cart, groups []models.GroupedComponent) error {
	ids := cart.ItemIDs()
	for _, g := range groups {
		for _, c := range g.Components() {
			ids = append(ids, c.MenuItemID.Int64())
		}
	}

	unique := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return apperr.Validation("invalid menu item id %d", id)
		}
		unique[id] = struct{}{}
	}
	if len(unique) == 0 {
		return nil
	}

	list := make([]int64, 0, len(unique))
	for id := range unique {
		list = append(list, id)
	}

	var count int64
	if err := tx.Model(&models.MenuItem{}).Where("menu_item_id IN ?", list).Count(&count).Error; err != nil {
		return err
	}
	if int(count) != len(list) {
		return apperr.Validation("order references unknown menu items")
	}
	return nil
}
