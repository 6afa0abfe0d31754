package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"lightfoot-pos/internal/apperr"
	"lightfoot-pos/internal/database/models"
	"lightfoot-pos/internal/events"
	"lightfoot-pos/internal/services/inventory"
	"lightfoot-pos/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Core menu range considered for the favorites strip.
const (
	FavoritesFirstID = 4
	FavoritesLastID  = 22
	FavoritesWindow  = 100
	FavoritesLimit   = 5
)

type HourBucket struct {
	Hour   int             `json:"hour"`
	Orders int             `json:"orders"`
	Total  decimal.Decimal `json:"total"`
}

type XReport struct {
	Date       string          `json:"date"`
	Hours      []HourBucket    `json:"hours"`
	OrderCount int             `json:"order_count"`
	Total      decimal.Decimal `json:"total"`
}

type IngredientTotal struct {
	IngredientID int64   `json:"ingredient_id"`
	Name         string  `json:"name"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
}

type ItemCount struct {
	MenuItemID int64 `json:"menu_item_id"`
	Count      int64 `json:"count"`
}

type ZReport struct {
	Hours       []HourBucket      `json:"hours"`
	OrderCount  int               `json:"order_count"`
	Total       decimal.Decimal   `json:"total"`
	Items       []ItemCount       `json:"items"`
	Ingredients []IngredientTotal `json:"ingredients"`
	OrderIDs    []int64           `json:"order_ids"`
}

func (z *ZReport) Empty() bool { return z.OrderCount == 0 }

type SalesReport struct {
	Name     string          `json:"name"`
	Quantity int64           `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type UsagePoint struct {
	UsageDate  string  `json:"usage_date"`
	TotalUsage float64 `json:"total_usage"`
}

type Favorites struct {
	TopMenuItems []int64 `json:"top_menu_items"`
}

type Review struct {
	OrderID    int64     `json:"order_id"`
	EmployeeID int64     `json:"employee_id"`
	Timestamp  time.Time `json:"timestamp"`
	Review     int       `json:"review"`
	Reportable bool      `json:"reportable"`
}

// Aggregator derives sales and usage summaries from order history.
type Aggregator struct {
	db     *gorm.DB
	events *events.Publisher
	log    *zap.Logger
	loc    *time.Location
	now    func() time.Time
}

func NewAggregator(db *gorm.DB, publisher *events.Publisher, loc *time.Location, log *zap.Logger) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{
		db:     db,
		events: publisher,
		log:    log,
		loc:    loc,
		now:    time.Now,
	}
}

// XReport summarizes today's reportable orders by store-local hour. It never mutates.
func (a *Aggregator) XReport(ctx context.Context) (*XReport, error) {
	now := a.now()
	day := utils.Day(now, a.loc)

	var orders []models.Order
	if err := a.db.WithContext(ctx).
		Where("reportable = ? AND timestamp >= ? AND timestamp < ?", true, day.From, day.To).
		Order("order_id").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to load reportable orders: %w", err)
	}

	hours, total := a.bucketByHour(orders)
	return &XReport{
		Date:       now.In(a.loc).Format("2006-01-02"),
		Hours:      hours,
		OrderCount: len(orders),
		Total:      total,
	}, nil
}

// ZReport drains every reportable order: it builds the summary and flips the
// same orders to non-reportable inside one transaction.
func (a *Aggregator) ZReport(ctx context.Context) (*ZReport, error) {
	tx := a.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	var orders []models.Order
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reportable = ?", true).
		Order("order_id").
		Find(&orders).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to load reportable orders: %w", err)
	}

	report := &ZReport{
		Hours:       []HourBucket{},
		Total:       decimal.Zero,
		Items:       []ItemCount{},
		Ingredients: []IngredientTotal{},
		OrderIDs:    make([]int64, 0, len(orders)),
	}
	if len(orders) == 0 {
		tx.Rollback()
		return report, nil
	}

	for _, o := range orders {
		report.OrderIDs = append(report.OrderIDs, o.OrderID)
	}
	report.OrderCount = len(orders)
	report.Hours, report.Total = a.bucketByHour(orders)

	var lines []models.OrderLine
	if err := tx.Where("order_id IN ?", report.OrderIDs).Find(&lines).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to load order lines: %w", err)
	}
	counts := make(map[int64]int64)
	for _, l := range lines {
		counts[l.MenuItemID] += int64(l.Quantity)
	}
	for id, n := range counts {
		report.Items = append(report.Items, ItemCount{MenuItemID: id, Count: n})
	}
	sort.Slice(report.Items, func(i, j int) bool { return report.Items[i].MenuItemID < report.Items[j].MenuItemID })

	ingredients, err := ingredientTotals(tx, counts)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	report.Ingredients = ingredients

	if err := tx.Model(&models.Order{}).
		Where("order_id IN ?", report.OrderIDs).
		Update("reportable", false).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to close report window: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit z report: %w", err)
	}

	a.log.Info("z report drained",
		zap.Int("orders", report.OrderCount),
		zap.String("total", report.Total.StringFixed(2)),
	)
	total := report.Total
	a.events.PublishBestEffort(ctx, events.Event{
		EventType: events.ReportDrained,
		Count:     report.OrderCount,
		Total:     &total,
	})

	return report, nil
}

type usageRow struct {
	MenuItemID   int64
	IngredientID int64
	QuantityUsed float64
	Name         string
	Unit         string
}

func ingredientTotals(tx *gorm.DB, counts map[int64]int64) ([]IngredientTotal, error) {
	ids := make([]int64, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}

	var rows []usageRow
	if err := tx.Table("menu_items_inventory AS mii").
		Select("mii.menu_item_id, mii.ingredient_id, mii.quantity_used, i.name, i.unit").
		Joins("JOIN inventory i ON i.ingredient_id = mii.ingredient_id").
		Where("mii.menu_item_id IN ?", ids).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load usage mapping: %w", err)
	}

	byID := make(map[int64]*IngredientTotal)
	for _, r := range rows {
		t, ok := byID[r.IngredientID]
		if !ok {
			t = &IngredientTotal{IngredientID: r.IngredientID, Name: r.Name, Unit: r.Unit}
			byID[r.IngredientID] = t
		}
		t.Quantity += r.QuantityUsed * float64(counts[r.MenuItemID])
	}

	out := make([]IngredientTotal, 0, len(byID))
	for _, t := range byID {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IngredientID < out[j].IngredientID })
	return out, nil
}

func (a *Aggregator) bucketByHour(orders []models.Order) ([]HourBucket, decimal.Decimal) {
	byHour := make(map[int]*HourBucket)
	total := decimal.Zero
	for _, o := range orders {
		h := o.Timestamp.In(a.loc).Hour()
		b, ok := byHour[h]
		if !ok {
			b = &HourBucket{Hour: h, Total: decimal.Zero}
			byHour[h] = b
		}
		b.Orders++
		b.Total = b.Total.Add(o.Total)
		total = total.Add(o.Total)
	}

	hours := make([]HourBucket, 0, len(byHour))
	for _, b := range byHour {
		hours = append(hours, *b)
	}
	sort.Slice(hours, func(i, j int) bool { return hours[i].Hour < hours[j].Hour })
	return hours, total
}

type saleRow struct {
	Quantity int64
	Price    decimal.Decimal
}

// Sales totals quantity and revenue for one menu item name within r.
func (a *Aggregator) Sales(ctx context.Context, name string, r utils.Range) (*SalesReport, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}

	var rows []saleRow
	if err := a.db.WithContext(ctx).
		Table("menu_orders AS mo").
		Select("mo.quantity, mi.price").
		Joins("JOIN orders o ON o.order_id = mo.order_id").
		Joins("JOIN menu_items mi ON mi.menu_item_id = mo.menu_item_id").
		Where("mi.name = ? AND o.timestamp >= ? AND o.timestamp < ?", name, r.From, r.To).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}

	report := &SalesReport{Name: name, Revenue: decimal.Zero}
	for _, row := range rows {
		report.Quantity += row.Quantity
		report.Revenue = report.Revenue.Add(row.Price.Mul(decimal.NewFromInt(row.Quantity)))
	}
	report.Revenue = report.Revenue.Round(2)
	return report, nil
}

type ingredientUseRow struct {
	Timestamp    time.Time
	QuantityUsed float64
}

// ItemUsage returns the per-day ingredient consumption implied by orders in r.
func (a *Aggregator) ItemUsage(ctx context.Context, ingredient string, r utils.Range) ([]UsagePoint, error) {
	if strings.TrimSpace(ingredient) == "" {
		return nil, apperr.Validation("name is required")
	}
	// Rows added through the seasonal flow are stored normalized; older rows keep their given name.
	names := []string{ingredient, inventory.NormalizeName(ingredient)}

	var rows []ingredientUseRow
	if err := a.db.WithContext(ctx).
		Table("orders AS o").
		Select("o.timestamp, mii.quantity_used").
		Joins("JOIN menu_orders mo ON mo.order_id = o.order_id").
		Joins("JOIN menu_items_inventory mii ON mii.menu_item_id = mo.menu_item_id").
		Joins("JOIN inventory i ON i.ingredient_id = mii.ingredient_id").
		Where("i.name IN ? AND o.timestamp >= ? AND o.timestamp < ?", names, r.From, r.To).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load item usage: %w", err)
	}

	byDay := make(map[string]float64)
	for _, row := range rows {
		byDay[row.Timestamp.In(a.loc).Format("2006-01-02")] += row.QuantityUsed
	}
	out := make([]UsagePoint, 0, len(byDay))
	for day, total := range byDay {
		out = append(out, UsagePoint{UsageDate: day, TotalUsage: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UsageDate < out[j].UsageDate })
	return out, nil
}

// Favorites ranks core items among the most recent order lines.
func (a *Aggregator) Favorites(ctx context.Context) (*Favorites, error) {
	var lines []models.OrderLine
	if err := a.db.WithContext(ctx).
		Order("menu_order_id DESC").
		Limit(FavoritesWindow).
		Find(&lines).Error; err != nil {
		return nil, fmt.Errorf("failed to load recent order lines: %w", err)
	}

	counts := make(map[int64]int)
	for _, l := range lines {
		if l.MenuItemID >= FavoritesFirstID && l.MenuItemID <= FavoritesLastID {
			counts[l.MenuItemID]++
		}
	}
	ids := make([]int64, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > FavoritesLimit {
		ids = ids[:FavoritesLimit]
	}
	return &Favorites{TopMenuItems: ids}, nil
}

func (a *Aggregator) Reviews(ctx context.Context, r utils.Range) ([]Review, error) {
	var out []Review
	if err := a.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("order_id", "employee_id", "timestamp", "review", "reportable").
		Where("timestamp >= ? AND timestamp < ?", r.From, r.To).
		Order("timestamp DESC, order_id DESC").
		Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	if out == nil {
		out = []Review{}
	}
	return out, nil
}
