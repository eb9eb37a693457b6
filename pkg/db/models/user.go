package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/marsos-sa/marketplace-backend/pkg/enums"
)

// User represents the canonical identity entity. Credentials live with the
// external identity provider; this row carries marketplace profile data.
type User struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email       string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	Name        string         `gorm:"column:name;not null"`
	CompanyName *string        `gorm:"column:company_name"`
	Phone       *string        `gorm:"column:phone"`
	Role        enums.UserRole `gorm:"column:role;type:user_role;not null;default:'buyer'"`
	NationalID  *string        `gorm:"column:national_id"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true"`
	LastLoginAt *time.Time     `gorm:"column:last_login_at"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
