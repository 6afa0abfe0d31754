package kitchen

import (
	"context"
	"fmt"
	"sort"
	"time"

	"lightfoot-pos/internal/apperr"
	"lightfoot-pos/internal/database/models"
	"lightfoot-pos/internal/events"
	"lightfoot-pos/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	UnknownItemName = "Unknown Item"
	UnknownItemType = "Unknown Type"
)

type Item struct {
	MenuItemID int64  `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
	ItemGroup  int    `json:"itemgroup"`
	Name       string `json:"name"`
	ItemType   string `json:"item_type"`
}

// Ticket is one in-progress order as the kitchen board shows it.
type Ticket struct {
	OrderID      int64     `json:"order_id"`
	OrderCreated time.Time `json:"order_created"`
	Items        []Item    `json:"items"`
}

type CompletedTicket struct {
	OrderID     int64     `json:"order_id"`
	CompletedAt time.Time `json:"completed_at"`
	Items       []Item    `json:"items"`
}

type Queue struct {
	db     *gorm.DB
	events *events.Publisher
	log    *zap.Logger
	loc    *time.Location
	now    func() time.Time
}

func NewQueue(db *gorm.DB, publisher *events.Publisher, loc *time.Location, log *zap.Logger) *Queue {
	if loc == nil {
		loc = time.UTC
	}
	return &Queue{
		db:     db,
		events: publisher,
		log:    log,
		loc:    loc,
		now:    time.Now,
	}
}

type lineRow struct {
	OrderID      int64
	MenuItemID   int64
	Quantity     int
	ItemGroup    int
	OrderCreated time.Time
	CompletedAt  time.Time
	Name         *string
	ItemType     *string
}

func (r lineRow) item() Item {
	it := Item{
		MenuItemID: r.MenuItemID,
		Quantity:   r.Quantity,
		ItemGroup:  r.ItemGroup,
		Name:       UnknownItemName,
		ItemType:   UnknownItemType,
	}
	if r.Name != nil {
		it.Name = *r.Name
	}
	if r.ItemType != nil {
		it.ItemType = *r.ItemType
	}
	return it
}

// ListCurrent groups in-progress lines per order, oldest order first, items by descending group number.
func (q *Queue) ListCurrent(ctx context.Context) ([]Ticket, error) {
	var rows []lineRow
	if err := q.db.WithContext(ctx).
		Table("currentorders AS co").
		Select("co.order_id, co.menu_item_id, co.quantity, co.itemgroup AS item_group, co.order_created, mi.name, mi.item_type").
		Joins("LEFT JOIN menu_items mi ON mi.menu_item_id = co.menu_item_id").
		Order("co.order_id, co.menu_order_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list kitchen queue: %w", err)
	}

	tickets := make([]Ticket, 0)
	index := make(map[int64]int)
	for _, r := range rows {
		i, ok := index[r.OrderID]
		if !ok {
			i = len(tickets)
			index[r.OrderID] = i
			tickets = append(tickets, Ticket{OrderID: r.OrderID, OrderCreated: r.OrderCreated})
		}
		tickets[i].Items = append(tickets[i].Items, r.item())
	}
	for i := range tickets {
		sortByGroupDesc(tickets[i].Items)
	}
	return tickets, nil
}

func sortByGroupDesc(items []Item) {
	sort.SliceStable(items, func(a, b int) bool { return items[a].ItemGroup > items[b].ItemGroup })
}

// Complete moves every queued line of the order to the completed table in one transaction.
func (q *Queue) Complete(ctx context.Context, orderID int64) (time.Time, error) {
	if orderID <= 0 {
		return time.Time{}, apperr.Validation("invalid order id %d", orderID)
	}

	tx := q.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return time.Time{}, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	var current []models.CurrentOrderLine
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", orderID).
		Order("menu_order_id").
		Find(&current).Error; err != nil {
		tx.Rollback()
		return time.Time{}, err
	}
	if len(current) == 0 {
		tx.Rollback()
		return time.Time{}, apperr.NotFound("No current order found with ID %d", orderID)
	}

	completedAt := q.now().UTC()
	completed := make([]models.CompletedOrderLine, 0, len(current))
	for _, c := range current {
		completed = append(completed, models.CompletedOrderLine{
			OrderID:      c.OrderID,
			OrderCreated: c.OrderCreated,
			MenuItemID:   c.MenuItemID,
			Quantity:     c.Quantity,
			ItemGroup:    c.ItemGroup,
			CompletedAt:  completedAt,
		})
	}
	if err := tx.Create(&completed).Error; err != nil {
		tx.Rollback()
		return time.Time{}, fmt.Errorf("failed to archive order %d: %w", orderID, err)
	}

	if err := tx.Where("order_id = ?", orderID).Delete(&models.CurrentOrderLine{}).Error; err != nil {
		tx.Rollback()
		return time.Time{}, fmt.Errorf("failed to clear order %d: %w", orderID, err)
	}

	if err := tx.Commit().Error; err != nil {
		return time.Time{}, fmt.Errorf("failed to commit completion: %w", err)
	}

	q.log.Info("order completed", zap.Int64("order_id", orderID), zap.Int("lines", len(completed)))

	items := make([]int64, 0, len(completed))
	for _, c := range completed {
		items = append(items, c.MenuItemID)
	}
	q.events.PublishBestEffort(ctx, events.Event{
		EventType: events.OrderCompleted,
		OrderID:   orderID,
		Items:     items,
		Timestamp: completedAt,
	})

	return completedAt, nil
}

// ListCompletedToday returns orders completed during the current store-local day, newest first.
func (q *Queue) ListCompletedToday(ctx context.Context) ([]CompletedTicket, error) {
	day := utils.Day(q.now(), q.loc)

	var rows []lineRow
	if err := q.db.WithContext(ctx).
		Table("completedorders AS co").
		Select("co.order_id, co.menu_item_id, co.quantity, co.itemgroup AS item_group, co.order_created, co.completed_at, mi.name, mi.item_type").
		Joins("LEFT JOIN menu_items mi ON mi.menu_item_id = co.menu_item_id").
		Where("co.completed_at >= ? AND co.completed_at < ?", day.From, day.To).
		Order("co.completed_at DESC, co.order_id, co.id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list completed orders: %w", err)
	}

	tickets := make([]CompletedTicket, 0)
	index := make(map[int64]int)
	for _, r := range rows {
		i, ok := index[r.OrderID]
		if !ok {
			i = len(tickets)
			index[r.OrderID] = i
			tickets = append(tickets, CompletedTicket{OrderID: r.OrderID, CompletedAt: r.CompletedAt})
		}
		tickets[i].Items = append(tickets[i].Items, r.item())
	}
	return tickets, nil
}
