package employees

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"lightfoot-pos/internal/apperr"
	"lightfoot-pos/internal/database/models"
	"lightfoot-pos/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const DefaultPosition = "None"

var pinPattern = regexp.MustCompile(`^\d{4,6}$`)

type Service struct {
	db        *gorm.DB
	jwtSecret []byte
	tokenTTL  time.Duration
	log       *zap.Logger
}

func NewService(db *gorm.DB, jwtSecret []byte, tokenTTL time.Duration, log *zap.Logger) *Service {
	return &Service{
		db:        db,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
	}
}

func ValidRole(role int) bool {
	return role >= models.RoleNone && role <= models.RoleAdmin
}

func ValidPIN(pin string) bool {
	return pinPattern.MatchString(pin)
}

// HashPIN bcrypt-hashes an employee PIN.
func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash pin: %w", err)
	}
	return string(hash), nil
}

func (s *Service) List(ctx context.Context) ([]models.Employee, error) {
	var out []models.Employee
	if err := s.db.WithContext(ctx).Order("employee_id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return out, nil
}

func (s *Service) GetBySubject(ctx context.Context, sub string) (*models.Employee, error) {
	if strings.TrimSpace(sub) == "" {
		return nil, apperr.Validation("subject is required")
	}
	var e models.Employee
	if err := s.db.WithContext(ctx).Where("sub = ?", sub).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}
	return &e, nil
}

// EnsureForSubject returns the employee bound to an identity-provider subject,
// creating an inactive-role record on first sign-in. created reports whether a row was inserted.
func (s *Service) EnsureForSubject(ctx context.Context, sub string, role int, name string) (*models.Employee, bool, error) {
	sub = strings.TrimSpace(sub)
	if sub == "" {
		return nil, false, apperr.Validation("userId is required")
	}
	if !ValidRole(role) {
		return nil, false, apperr.Validation("Invalid role. Must be between -1 and 4")
	}

	var (
		e       models.Employee
		created bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("sub = ?", sub).First(&e).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		first, last := splitName(name)
		e = models.Employee{
			FirstName: first,
			LastName:  last,
			Position:  DefaultPosition,
			IsActive:  true,
			Role:      models.RoleNone,
			Sub:       &sub,
		}
		if err := tx.Create(&e).Error; err != nil {
			return fmt.Errorf("failed to create employee: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.log.Info("employee registered", zap.Int64("employee_id", e.EmployeeID), zap.String("sub", sub))
	}
	return &e, created, nil
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

type ManualEmployee struct {
	FirstName string
	LastName  string
	Position  string
	PIN       string
	Role      *int
}

// AddManual creates an employee who signs in with a PIN instead of an external identity.
func (s *Service) AddManual(ctx context.Context, in ManualEmployee) (*models.Employee, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Position = strings.TrimSpace(in.Position)
	if in.FirstName == "" || in.LastName == "" || in.Position == "" {
		return nil, apperr.Validation("first name, last name and position are required")
	}
	if !ValidPIN(in.PIN) {
		return nil, apperr.Validation("pin must be 4 to 6 digits")
	}
	role := models.RoleCashier
	if in.Role != nil {
		if !ValidRole(*in.Role) {
			return nil, apperr.Validation("Invalid role. Must be between -1 and 4")
		}
		role = *in.Role
	}

	hash, err := HashPIN(in.PIN)
	if err != nil {
		return nil, err
	}

	e := models.Employee{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Position:  in.Position,
		IsActive:  true,
		PinHash:   hash,
		Role:      role,
	}
	if err := s.db.WithContext(ctx).Create(&e).Error; err != nil {
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}
	s.log.Info("employee added", zap.Int64("employee_id", e.EmployeeID))
	return &e, nil
}

func (s *Service) update(ctx context.Context, id int64, values map[string]interface{}) error {
	res := s.db.WithContext(ctx).
		Model(&models.Employee{}).
		Where("employee_id = ?", id).
		Updates(values)
	if res.Error != nil {
		return fmt.Errorf("failed to update employee %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("employee %d not found", id)
	}
	return nil
}

func (s *Service) UpdatePosition(ctx context.Context, id int64, position string) error {
	position = strings.TrimSpace(position)
	if position == "" {
		return apperr.Validation("position is required")
	}
	return s.update(ctx, id, map[string]interface{}{"position": position})
}

func (s *Service) UpdateRole(ctx context.Context, id int64, role int) error {
	if !ValidRole(role) {
		return apperr.Validation("Invalid role. Must be between -1 and 4")
	}
	return s.update(ctx, id, map[string]interface{}{"role": role})
}

func (s *Service) UpdateName(ctx context.Context, id int64, first, last string) error {
	first = strings.TrimSpace(first)
	if first == "" {
		return apperr.Validation("first name is required")
	}
	return s.update(ctx, id, map[string]interface{}{
		"first_name": first,
		"last_name":  strings.TrimSpace(last),
	})
}

func (s *Service) SetActive(ctx context.Context, id int64, active bool) error {
	return s.update(ctx, id, map[string]interface{}{"is_active": active})
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Where("employee_id = ?", id).Delete(&models.Employee{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete employee %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("employee %d not found", id)
	}
	s.log.Info("employee removed", zap.Int64("employee_id", id))
	return nil
}

type LoginResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Employee  models.Employee `json:"employee"`
}

// Login checks an employee PIN and issues a signed session token.
func (s *Service) Login(ctx context.Context, employeeID int64, pin string) (*LoginResult, error) {
	var e models.Employee
	err := s.db.WithContext(ctx).Where("employee_id = ?", employeeID).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if !e.IsActive || e.PinHash == "" {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(e.PinHash), []byte(pin)); err != nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}

	token, exp, err := utils.GenerateToken(s.jwtSecret, e.EmployeeID, e.FullName(), e.Role, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	s.log.Info("employee signed in", zap.Int64("employee_id", e.EmployeeID), zap.Int("role", e.Role))
	return &LoginResult{Token: token, ExpiresAt: exp, Employee: e}, nil
}
