package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups products. ParentCategoryID forms a tree that must stay
// acyclic; the catalog service validates that at write time.
type Category struct {
	ID               uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name             string     `gorm:"column:name;not null"`
	Description      *string    `gorm:"column:description"`
	ParentCategoryID *uuid.UUID `gorm:"column:parent_category_id;type:uuid"`
	IsActive         bool       `gorm:"column:is_active;not null;default:true"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
}
