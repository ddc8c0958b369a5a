package db

import "gorm.io/gorm"

// Keyword 定义了关键词模型，按语言独立存储。
// Keyword text is unique per language case-insensitively, which a plain index
// cannot express; lookups normalize case in the service layer.
type Keyword struct {
	gorm.Model
	Keyword  string `gorm:"not null;index:idx_keyword_language"`
	Language string `gorm:"size:8;not null;index:idx_keyword_language"`

	Translations []PostTranslation `gorm:"many2many:post_translation_keywords;"`
}
