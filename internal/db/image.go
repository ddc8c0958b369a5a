package db

import "gorm.io/gorm"

// Image 定义了图片资源模型
type Image struct {
	gorm.Model
	URL    string `gorm:"not null"`
	Title  string
	Alt    string
	Width  int
	Height int
}
