package service

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/reflexions/internal/db"
	"github.com/reflexions/internal/locale"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound        = errors.New("post not found")
	ErrTranslationNotFound = errors.New("translation not found")
	ErrTranslationExists   = errors.New("translation already exists for this language")
	ErrLastTranslation     = errors.New("post must keep at least one translation")
	ErrNoTranslations      = errors.New("post needs at least one titled translation")
	ErrLanguageInvalid     = errors.New("language is not supported")
)

// PostService wraps post and translation related database operations.
type PostService struct {
	db *gorm.DB
}

// NewPostService creates a PostService instance.
func NewPostService(gdb *gorm.DB) *PostService {
	return &PostService{db: gdb}
}

// TranslationForm carries the per-language fields accepted when saving a post.
type TranslationForm struct {
	Title            string   `json:"title"`
	Content          string   `json:"content"`
	Slug             string   `json:"slug"`
	Keywords         []string `json:"keywords"`
	ReferencesImages []string `json:"references_images"`
	ReferencesTexts  []string `json:"references_texts"`
}

// PostForm represents fields accepted when creating a post, keyed by language
// for the translation entries.
type PostForm struct {
	CategoryID   uint                       `json:"category_id"`
	ImageID      *uint                      `json:"image_id"`
	ThumbnailID  *uint                      `json:"thumbnail_id"`
	IsPublished  bool                       `json:"is_published"`
	Date         time.Time                  `json:"date"`
	UserID       string                     `json:"-"`
	Translations map[string]TranslationForm `json:"translations"`
}

// OptionalID distinguishes an absent patch field from one set to null.
type OptionalID struct {
	Set   bool
	Value *uint
}

func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

func (o OptionalID) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Value)
}

// PostPatch applies a partial update; nil or unset fields keep their stored
// values.
type PostPatch struct {
	CategoryID   *uint                      `json:"category_id"`
	ImageID      OptionalID                 `json:"image_id"`
	ThumbnailID  OptionalID                 `json:"thumbnail_id"`
	IsPublished  *bool                      `json:"is_published"`
	Date         *time.Time                 `json:"date"`
	Translations map[string]TranslationForm `json:"translations"`
}

// TranslationPatch applies a partial update to a single translation. Nil
// slices leave the stored lists untouched.
type TranslationPatch struct {
	Title            *string  `json:"title"`
	Content          *string  `json:"content"`
	Slug             *string  `json:"slug"`
	Keywords         []string `json:"keywords"`
	ReferencesImages []string `json:"references_images"`
	ReferencesTexts  []string `json:"references_texts"`
}

// DefaultTranslation is the representative translation shown in list views.
type DefaultTranslation struct {
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	Language string `json:"language"`
}

// PostListItem is the summary row returned by List.
type PostListItem struct {
	ID                 uint                `json:"id"`
	CategoryID         uint                `json:"category_id"`
	IsPublished        bool                `json:"is_published"`
	Date               time.Time           `json:"date"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	Image              *db.Image           `json:"image,omitempty"`
	Thumbnail          *db.Image           `json:"thumbnail,omitempty"`
	DefaultTranslation *DefaultTranslation `json:"default_translation,omitempty"`
	TranslationCount   int                 `json:"translation_count"`
}

// PostDetail aggregates a post with all of its translations.
type PostDetail struct {
	Post         db.Post              `json:"post"`
	Translations []db.PostTranslation `json:"translations"`
}

// List returns post summaries ordered by created time descending. Each summary
// carries its default translation (Catalan when present, otherwise the oldest
// one) and the translation count.
func (s *PostService) List() ([]PostListItem, error) {
	var posts []db.Post
	if err := s.db.Preload("Image").Preload("Thumbnail").Order("created_at desc").Find(&posts).Error; err != nil {
		return nil, err
	}

	var translations []db.PostTranslation
	if err := s.db.Order("id asc").Find(&translations).Error; err != nil {
		return nil, err
	}

	byPost := make(map[uint][]db.PostTranslation)
	for _, tr := range translations {
		byPost[tr.PostID] = append(byPost[tr.PostID], tr)
	}

	items := make([]PostListItem, 0, len(posts))
	for _, post := range posts {
		item := PostListItem{
			ID:               post.ID,
			CategoryID:       post.CategoryID,
			IsPublished:      post.IsPublished,
			Date:             post.Date,
			CreatedAt:        post.CreatedAt,
			UpdatedAt:        post.UpdatedAt,
			Image:            post.Image,
			Thumbnail:        post.Thumbnail,
			TranslationCount: len(byPost[post.ID]),
		}
		if chosen := pickDefaultTranslation(byPost[post.ID]); chosen != nil {
			item.DefaultTranslation = &DefaultTranslation{
				Title:    chosen.Title,
				Slug:     chosen.Slug,
				Language: chosen.Language,
			}
		}
		items = append(items, item)
	}

	return items, nil
}

// pickDefaultTranslation prefers the primary language and falls back to the
// oldest available translation.
func pickDefaultTranslation(candidates []db.PostTranslation) *db.PostTranslation {
	if len(candidates) == 0 {
		return nil
	}
	for i := range candidates {
		if candidates[i].Language == locale.Default {
			return &candidates[i]
		}
	}
	return &candidates[0]
}

// Get fetches a post with all translations, keywords hydrated.
func (s *PostService) Get(id uint) (*PostDetail, error) {
	var post db.Post
	if err := s.db.Preload("Image").Preload("Thumbnail").Preload("Category").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	var translations []db.PostTranslation
	if err := s.db.Preload("Keywords").Where("post_id = ?", id).Order("id asc").Find(&translations).Error; err != nil {
		return nil, err
	}

	return &PostDetail{Post: post, Translations: translations}, nil
}

// Create persists a new post together with its translation entries in one
// transaction. At least one entry with a non-empty title is required.
func (s *PostService) Create(form PostForm) (*PostDetail, error) {
	if err := validateTranslationLanguages(form.Translations); err != nil {
		return nil, err
	}
	if countTitled(form.Translations) == 0 {
		return nil, ErrNoTranslations
	}

	post := db.Post{
		UserID:      form.UserID,
		CategoryID:  form.CategoryID,
		ImageID:     form.ImageID,
		ThumbnailID: form.ThumbnailID,
		IsPublished: form.IsPublished,
		Date:        form.Date,
	}
	if post.Date.IsZero() {
		post.Date = time.Now()
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		for _, lang := range sortedLanguages(form.Translations) {
			if err := createTranslation(tx, post.ID, lang, form.Translations[lang]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(post.ID)
}

// Update merges supplied core fields and upserts the supplied translation
// entries, all within one transaction.
func (s *PostService) Update(id uint, patch PostPatch) (*PostDetail, error) {
	if err := validateTranslationLanguages(patch.Translations); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var post db.Post
		if err := tx.First(&post, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}

		if patch.CategoryID != nil {
			post.CategoryID = *patch.CategoryID
		}
		if patch.ImageID.Set {
			post.ImageID = patch.ImageID.Value
		}
		if patch.ThumbnailID.Set {
			post.ThumbnailID = patch.ThumbnailID.Value
		}
		if patch.IsPublished != nil {
			post.IsPublished = *patch.IsPublished
		}
		if patch.Date != nil {
			post.Date = *patch.Date
		}
		if err := tx.Save(&post).Error; err != nil {
			return err
		}

		for _, lang := range sortedLanguages(patch.Translations) {
			form := patch.Translations[lang]

			var existing db.PostTranslation
			err := tx.Where("post_id = ? AND language = ?", id, lang).First(&existing).Error
			if err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				if err := createTranslation(tx, id, lang, form); err != nil {
					return err
				}
				continue
			}

			existing.Title = form.Title
			existing.Content = form.Content
			existing.Slug = form.Slug
			if existing.Slug == "" {
				existing.Slug = GenerateSlug(form.Title)
			}
			existing.ReferencesImages = form.ReferencesImages
			existing.ReferencesTexts = form.ReferencesTexts
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			if err := replaceKeywords(tx, &existing, lang, form.Keywords); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(id)
}

// Delete removes a post and cascades deletion of all its translations.
func (s *PostService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var post db.Post
		if err := tx.First(&post, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}

		if err := tx.Where("post_id = ?", id).Delete(&db.PostTranslation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
}

// TogglePublish flips the publish flag and bumps the updated timestamp.
func (s *PostService) TogglePublish(id uint) (*db.Post, error) {
	var post db.Post
	if err := s.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	post.IsPublished = !post.IsPublished
	if err := s.db.Save(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// GetTranslation fetches a single translation by post and language.
func (s *PostService) GetTranslation(postID uint, language string) (*db.PostTranslation, error) {
	lang := locale.Normalize(language)
	if lang == "" {
		return nil, ErrLanguageInvalid
	}

	var translation db.PostTranslation
	err := s.db.Preload("Keywords").Where("post_id = ? AND language = ?", postID, lang).First(&translation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTranslationNotFound
		}
		return nil, err
	}
	return &translation, nil
}

// CreateTranslation adds a translation for a language the post does not have
// yet.
func (s *PostService) CreateTranslation(postID uint, language string, form TranslationForm) (*db.PostTranslation, error) {
	lang := locale.Normalize(language)
	if lang == "" {
		return nil, ErrLanguageInvalid
	}

	var created *db.PostTranslation
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var post db.Post
		if err := tx.First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}

		var existing db.PostTranslation
		if err := tx.Where("post_id = ? AND language = ?", postID, lang).First(&existing).Error; err == nil {
			return ErrTranslationExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := createTranslation(tx, postID, lang, form); err != nil {
			return err
		}

		var stored db.PostTranslation
		if err := tx.Preload("Keywords").Where("post_id = ? AND language = ?", postID, lang).First(&stored).Error; err != nil {
			return err
		}
		created = &stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateTranslation applies a partial update to a translation. The slug is
// regenerated from the title only when the patch clears it.
func (s *PostService) UpdateTranslation(translationID uint, patch TranslationPatch) (*db.PostTranslation, error) {
	var updated *db.PostTranslation
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var translation db.PostTranslation
		if err := tx.First(&translation, translationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTranslationNotFound
			}
			return err
		}

		if patch.Title != nil {
			translation.Title = *patch.Title
		}
		if patch.Content != nil {
			translation.Content = *patch.Content
		}
		if patch.Slug != nil {
			translation.Slug = *patch.Slug
		}
		if translation.Slug == "" {
			translation.Slug = GenerateSlug(translation.Title)
		}
		if patch.ReferencesImages != nil {
			translation.ReferencesImages = patch.ReferencesImages
		}
		if patch.ReferencesTexts != nil {
			translation.ReferencesTexts = patch.ReferencesTexts
		}
		if err := tx.Save(&translation).Error; err != nil {
			return err
		}

		if patch.Keywords != nil {
			if err := replaceKeywords(tx, &translation, translation.Language, patch.Keywords); err != nil {
				return err
			}
		}

		var stored db.PostTranslation
		if err := tx.Preload("Keywords").First(&stored, translationID).Error; err != nil {
			return err
		}
		updated = &stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTranslation removes a translation, refusing to drop the last one a
// post still has.
func (s *PostService) DeleteTranslation(translationID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var translation db.PostTranslation
		if err := tx.First(&translation, translationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTranslationNotFound
			}
			return err
		}

		var siblings int64
		if err := tx.Model(&db.PostTranslation{}).Where("post_id = ?", translation.PostID).Count(&siblings).Error; err != nil {
			return err
		}
		if siblings <= 1 {
			return ErrLastTranslation
		}

		return tx.Delete(&translation).Error
	})
}

// createTranslation inserts one translation row with slug fallback and keyword
// upserts. Callers are expected to have validated the language tag.
func createTranslation(tx *gorm.DB, postID uint, lang string, form TranslationForm) error {
	translation := db.PostTranslation{
		PostID:           postID,
		Language:         lang,
		Title:            form.Title,
		Content:          form.Content,
		Slug:             form.Slug,
		ReferencesImages: form.ReferencesImages,
		ReferencesTexts:  form.ReferencesTexts,
	}
	if translation.Slug == "" {
		translation.Slug = GenerateSlug(form.Title)
	}
	if err := tx.Create(&translation).Error; err != nil {
		return err
	}
	return replaceKeywords(tx, &translation, lang, form.Keywords)
}

// replaceKeywords swaps a translation's keyword set, creating missing keyword
// records lazily. Keyword text is unique per language, case-insensitively.
func replaceKeywords(tx *gorm.DB, translation *db.PostTranslation, lang string, names []string) error {
	keywords := make([]db.Keyword, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		folded := strings.ToLower(trimmed)
		if _, dup := seen[folded]; dup {
			continue
		}
		seen[folded] = struct{}{}

		var keyword db.Keyword
		err := tx.Where("LOWER(keyword) = ? AND language = ?", folded, lang).First(&keyword).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			keyword = db.Keyword{Keyword: trimmed, Language: lang}
			if err := tx.Create(&keyword).Error; err != nil {
				return err
			}
		}
		keywords = append(keywords, keyword)
	}

	return tx.Model(translation).Association("Keywords").Replace(keywords)
}

func validateTranslationLanguages(entries map[string]TranslationForm) error {
	for lang := range entries {
		if !locale.Supported(lang) || locale.Normalize(lang) != lang {
			return ErrLanguageInvalid
		}
	}
	return nil
}

func countTitled(entries map[string]TranslationForm) int {
	count := 0
	for _, form := range entries {
		if strings.TrimSpace(form.Title) != "" {
			count++
		}
	}
	return count
}

// sortedLanguages keeps map iteration deterministic when writing rows.
func sortedLanguages(entries map[string]TranslationForm) []string {
	langs := make([]string, 0, len(entries))
	for lang := range entries {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}
