package db

import "gorm.io/gorm"

// Category represents static reference data for grouping posts. The admin
// never mutates categories; they are seeded at startup.
type Category struct {
	gorm.Model
	Name string `gorm:"unique;not null"`
}
