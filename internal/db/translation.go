package db

import "gorm.io/gorm"

// StringList 以 JSON 文本的形式持久化字符串数组
type StringList []string

// PostTranslation holds the language-specific content of a post. A post has
// at most one live translation per language; the service layer enforces this
// so that soft-deleted rows never block re-creating a language.
type PostTranslation struct {
	gorm.Model
	PostID           uint   `gorm:"not null;index:idx_post_language"`
	Post             Post   `gorm:"constraint:OnDelete:CASCADE"`
	Language         string `gorm:"size:8;not null;index:idx_post_language"`
	Title            string `gorm:"not null"`
	Content          string `gorm:"type:text"`
	Slug             string `gorm:"size:60;index"`
	ReferencesImages StringList `gorm:"serializer:json;type:text"`
	ReferencesTexts  StringList `gorm:"serializer:json;type:text"`
	Keywords         []Keyword  `gorm:"many2many:post_translation_keywords;"`
}

// TableName 指定自定义表名。
func (PostTranslation) TableName() string {
	return "post_translations"
}
