package orders

import (
	"context"
	"errors"
	"fmt"

	"lightfoot-pos/internal/apperr"
	"lightfoot-pos/internal/database/models"
	"lightfoot-pos/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type History struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewHistory(db *gorm.DB, log *zap.Logger) *History {
	return &History{db: db, log: log}
}

func (h *History) ListByRange(ctx context.Context, r utils.Range) ([]models.Order, error) {
	var out []models.Order
	if err := h.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp < ?", r.From, r.To).
		Order("order_id DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (h *History) ListReportable(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	if err := h.db.WithContext(ctx).
		Where("reportable = ?", true).
		Order("order_id").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type OrderItemRef struct {
	OrderID    int64 `json:"order_id"`
	MenuItemID int64 `json:"menu_item_id"`
}

// MenuItemIDs resolves the line items of the given orders.
func (h *History) MenuItemIDs(ctx context.Context, orderIDs []int64) ([]OrderItemRef, error) {
	if len(orderIDs) == 0 {
		return []OrderItemRef{}, nil
	}
	var out []OrderItemRef
	if err := h.db.WithContext(ctx).
		Model(&models.OrderLine{}).
		Select("order_id", "menu_item_id").
		Where("order_id IN ?", orderIDs).
		Order("menu_order_id").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ResetReportable closes the current report window without producing a report.
func (h *History) ResetReportable(ctx context.Context) (int64, error) {
	res := h.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("reportable = ?", true).
		Update("reportable", false)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to reset reportable orders: %w", res.Error)
	}
	h.log.Info("reportable orders reset", zap.Int64("orders", res.RowsAffected))
	return res.RowsAffected, nil
}

func (h *History) LatestOrderID(ctx context.Context) (int64, error) {
	var order models.Order
	err := h.db.WithContext(ctx).Select("order_id").Order("order_id DESC").First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperr.NotFound("No orders found")
	}
	if err != nil {
		return 0, err
	}
	return order.OrderID, nil
}

func (h *History) Get(ctx context.Context, orderID int64) (*models.Order, error) {
	var order models.Order
	err := h.db.WithContext(ctx).Preload("Lines").Where("order_id = ?", orderID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("order %d not found", orderID)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}
