package database

import (
	"errors"
	"fmt"
	"time"

	"lightfoot-pos/internal/database/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogLevel        gormlogger.LogLevel
}

func DefaultOptions(production bool) Options {
	level := gormlogger.Info
	if production {
		level = gormlogger.Warn
	}
	return Options{
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		LogLevel:        level,
	}
}

// NewConnection opens the PostgreSQL pool shared by every service.
func NewConnection(dsn string, opts Options, log *zap.Logger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("DATABASE_DSN is required")
	}
	return Open(postgres.Open(dsn), opts, log)
}

// Open configures a pool on any gorm dialector.
func Open(dialector gorm.Dialector, opts Options, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(zap.NewStdLog(log), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  opts.LogLevel,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	return db, nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.MenuItem{},
		&models.MenuItemInfo{},
		&models.IngredientUsage{},
		&models.Ingredient{},
		&models.StockMovement{},
		&models.Order{},
		&models.OrderLine{},
		&models.CurrentOrderLine{},
		&models.CompletedOrderLine{},
		&models.Customer{},
		&models.Employee{},
	)
}

const (
	seedManagerFirstName = "Store"
	seedManagerLastName  = "Manager"
	seedManagerPIN       = "0000"
)

// SeedManager creates a default manager account when the employee table is empty.
func SeedManager(db *gorm.DB, log *zap.Logger) error {
	var count int64
	if err := db.Model(&models.Employee{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seedManagerPIN), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash seed pin: %w", err)
	}

	manager := models.Employee{
		FirstName: seedManagerFirstName,
		LastName:  seedManagerLastName,
		Position:  "Manager",
		IsActive:  true,
		PinHash:   string(hash),
		Role:      models.RoleAdmin,
	}
	if err := db.Where(models.Employee{FirstName: seedManagerFirstName, LastName: seedManagerLastName}).
		FirstOrCreate(&manager).Error; err != nil {
		return err
	}

	log.Warn("seeded default manager; change the PIN", zap.Int64("employee_id", manager.EmployeeID))
	return nil
}
