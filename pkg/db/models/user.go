package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/riezafm/levelpos-backend/pkg/enums"
)

// User represents the canonical identity entity. The role is immutable
// once a reseller or affiliate profile is attached.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Username     string         `gorm:"column:username;not null;uniqueIndex"`
	Email        string         `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	FullName     string         `gorm:"column:full_name;not null"`
	Phone        *string        `gorm:"column:phone"`
	Role         enums.UserRole `gorm:"column:role;type:user_role;not null;default:'consumer'"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true"`

	ResellerProfile  *ResellerProfile  `gorm:"foreignKey:UserID"`
	AffiliateProfile *AffiliateProfile `gorm:"foreignKey:UserID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
