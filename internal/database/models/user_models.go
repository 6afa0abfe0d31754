package models

const (
	RoleNone    = -1
	RoleKiosk   = 0
	RoleCashier = 1
	RoleKitchen = 2
	RoleManager = 3
	RoleAdmin   = 4
)

// Customer is a rewards account keyed by email.
type Customer struct {
	UserID int64  `gorm:"column:user_id;primaryKey;autoIncrement" json:"user_id"`
	Email  string `gorm:"column:email;size:255;uniqueIndex;not null" json:"email"`
	Points int64  `gorm:"column:points;not null" json:"points"`
}

func (Customer) TableName() string { return "users" }

type Employee struct {
	EmployeeID int64   `gorm:"column:employee_id;primaryKey;autoIncrement" json:"employee_id"`
	FirstName  string  `gorm:"column:first_name;size:64;not null" json:"first_name"`
	LastName   string  `gorm:"column:last_name;size:64" json:"last_name"`
	Position   string  `gorm:"column:position;size:64" json:"position"`
	IsActive   bool    `gorm:"column:is_active;not null" json:"is_active"`
	PinHash    string  `gorm:"column:pin_hash;size:128" json:"-"`
	Role       int     `gorm:"column:role;not null" json:"role"`
	Sub        *string `gorm:"column:sub;size:255;uniqueIndex" json:"sub,omitempty"`
}

func (Employee) TableName() string { return "employee" }

func (e Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}
