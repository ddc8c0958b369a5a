package service

import (
	"errors"
	"strings"

	"github.com/reflexions/internal/db"
	"github.com/reflexions/internal/locale"
	"gorm.io/gorm"
)

var ErrKeywordNotFound = errors.New("keyword not found")

// searchLimit caps keyword suggestions returned to the search box.
const searchLimit = 10

// KeywordService wraps keyword lookup and lazy creation.
type KeywordService struct {
	db *gorm.DB
}

// NewKeywordService creates a KeywordService instance.
func NewKeywordService(gdb *gorm.DB) *KeywordService {
	return &KeywordService{db: gdb}
}

// Search returns up to ten keywords of a language whose text contains the
// query, case-insensitively.
func (s *KeywordService) Search(query, language string) ([]db.Keyword, error) {
	lang := locale.Normalize(language)
	if lang == "" {
		return nil, ErrLanguageInvalid
	}

	like := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	var keywords []db.Keyword
	if err := s.db.
		Where("language = ? AND LOWER(keyword) LIKE ?", lang, like).
		Order("keyword asc").
		Limit(searchLimit).
		Find(&keywords).Error; err != nil {
		return nil, err
	}
	return keywords, nil
}

// ListByLanguage returns all keywords of a language.
func (s *KeywordService) ListByLanguage(language string) ([]db.Keyword, error) {
	lang := locale.Normalize(language)
	if lang == "" {
		return nil, ErrLanguageInvalid
	}

	var keywords []db.Keyword
	if err := s.db.Where("language = ?", lang).Order("keyword asc").Find(&keywords).Error; err != nil {
		return nil, err
	}
	return keywords, nil
}

// Ensure returns the stored keyword matching text and language, creating it
// when missing. Matching is case-insensitive, so "Web" and "web" resolve to
// the same record.
func (s *KeywordService) Ensure(text, language string) (*db.Keyword, error) {
	lang := locale.Normalize(language)
	if lang == "" {
		return nil, ErrLanguageInvalid
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, errors.New("keyword text is required")
	}

	var keyword db.Keyword
	err := s.db.Where("LOWER(keyword) = ? AND language = ?", strings.ToLower(trimmed), lang).First(&keyword).Error
	if err == nil {
		return &keyword, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	keyword = db.Keyword{Keyword: trimmed, Language: lang}
	if err := s.db.Create(&keyword).Error; err != nil {
		return nil, err
	}
	return &keyword, nil
}

// Get fetches a keyword by id.
func (s *KeywordService) Get(id uint) (*db.Keyword, error) {
	var keyword db.Keyword
	if err := s.db.First(&keyword, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKeywordNotFound
		}
		return nil, err
	}
	return &keyword, nil
}
