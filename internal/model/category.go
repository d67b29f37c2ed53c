package model

import "time"

const (
	// DefaultCategoryID identifies the category that always exists and
	// receives the notes of deleted categories.
	DefaultCategoryID uint = 1
	// DefaultCategoryName is the fixed name of the default category.
	DefaultCategoryName = "Default"
	// DefaultCategoryColor is the display color of the default category.
	DefaultCategoryColor = "#2196F3"
)

// Category groups notes (work, shopping, ideas, etc.).
type Category struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;not null;uniqueIndex"`
	Color     string    `gorm:"column:color;not null"`
	CreatedAt time.Time `gorm:"column:created;autoCreateTime"`
}

func (Category) TableName() string { return "categories" }

// IsDefault reports whether c is the undeletable default category.
func (c Category) IsDefault() bool {
	return c.ID == DefaultCategoryID
}
