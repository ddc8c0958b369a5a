package db

import (
	"time"

	"gorm.io/gorm"
)

// Post 定义了文章的语言无关核心模型
type Post struct {
	gorm.Model
	UserID      string `gorm:"size:36;not null"`
	User        User
	CategoryID  uint `gorm:"not null"`
	Category    Category
	ImageID     *uint
	Image       *Image
	ThumbnailID *uint
	Thumbnail   *Image
	IsPublished bool      `gorm:"default:false"`
	Date        time.Time `gorm:"not null"`

	Translations []PostTranslation `gorm:"constraint:OnDelete:CASCADE"`
}
