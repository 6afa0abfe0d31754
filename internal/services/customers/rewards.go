package customers

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"lightfoot-pos/internal/apperr"
	"lightfoot-pos/internal/database/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	msgEmailExists  = "Email already exists."
	msgUserNotFound = "User not found."
)

type EmailStatus struct {
	Exists bool   `json:"exists"`
	Points *int64 `json:"points,omitempty"`
}

// Rewards manages customer loyalty balances keyed by email.
type Rewards struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewRewards(db *gorm.DB, log *zap.Logger) *Rewards {
	return &Rewards{db: db, log: log}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperr.Validation("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", apperr.Validation("invalid email %q", email)
	}
	return email, nil
}

func (r *Rewards) CheckEmail(ctx context.Context, email string) (*EmailStatus, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	var c models.Customer
	err = r.db.WithContext(ctx).Where("email = ?", email).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &EmailStatus{Exists: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	return &EmailStatus{Exists: true, Points: &c.Points}, nil
}

// Create registers an email with a zero balance. A duplicate email is a conflict.
func (r *Rewards) Create(ctx context.Context, email string) (*models.Customer, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	c := models.Customer{Email: email}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&c)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to create customer: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.Conflict(msgEmailExists)
	}

	r.log.Info("customer created", zap.Int64("user_id", c.UserID))
	return &c, nil
}

// AddPoints increments the balance atomically and returns the new total.
func (r *Rewards) AddPoints(ctx context.Context, email string, points int64) (int64, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return 0, err
	}
	if points <= 0 {
		return 0, apperr.Validation("points must be positive")
	}

	var balance int64
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Customer{}).
			Where("email = ?", email).
			Update("points", gorm.Expr("points + ?", points))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound(msgUserNotFound)
		}
		return tx.Model(&models.Customer{}).Where("email = ?", email).Pluck("points", &balance).Error
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// RedeemPoints sets the balance left after a redemption.
func (r *Rewards) RedeemPoints(ctx context.Context, email string, remaining int64) (int64, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return 0, err
	}
	if remaining < 0 {
		return 0, apperr.Validation("remaining points must be non-negative")
	}

	res := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("email = ?", email).
		Update("points", remaining)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to redeem points: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, apperr.NotFound(msgUserNotFound)
	}
	return remaining, nil
}

// PointsForTotal awards one point per whole currency unit spent.
func PointsForTotal(total decimal.Decimal) int64 {
	if total.IsNegative() {
		return 0
	}
	return total.Floor().IntPart()
}
