package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/reflexions/internal/db"
	"github.com/reflexions/internal/locale"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupPostServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:post-service-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if err := gdb.AutoMigrate(
		&db.User{},
		&db.Category{},
		&db.Image{},
		&db.Post{},
		&db.PostTranslation{},
		&db.Keyword{},
	); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return gdb
}

func bilingualForm() PostForm {
	return PostForm{
		CategoryID:  1,
		IsPublished: false,
		Date:        time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		UserID:      "550e8400-e29b-41d4-a716-446655440000",
		Translations: map[string]TranslationForm{
			"ca": {
				Title:            "Café del Mar",
				Content:          "<p>Una reflexió</p>",
				Keywords:         []string{"disseny", "web"},
				ReferencesImages: []string{"https://example.com/a.jpg"},
				ReferencesTexts:  []string{"Llibre de referència"},
			},
			"en": {
				Title:    "Café del Mar",
				Content:  "<p>A reflection</p>",
				Slug:     "cafe-english",
				Keywords: []string{"design", "web"},
			},
		},
	}
}

func TestPostServiceCreateRoundTrip(t *testing.T) {
	svc := NewPostService(setupPostServiceTestDB(t))

	detail, err := svc.Create(bilingualForm())
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if detail.Post.ID == 0 {
		t.Fatalf("expected persisted id to be assigned")
	}
	if len(detail.Translations) != 2 {
		t.Fatalf("expected 2 translations, got %d", len(detail.Translations))
	}

	fetched, err := svc.Get(detail.Post.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}

	byLang := make(map[string]db.PostTranslation)
	for _, tr := range fetched.Translations {
		byLang[tr.Language] = tr
	}

	ca := byLang["ca"]
	if ca.Title != "Café del Mar" || ca.Content != "<p>Una reflexió</p>" {
		t.Fatalf("unexpected ca translation: %+v", ca)
	}
	if ca.Slug != "cafe-del-mar" {
		t.Fatalf("expected generated slug cafe-del-mar, got %q", ca.Slug)
	}
	if len(ca.Keywords) != 2 {
		t.Fatalf("expected 2 ca keywords, got %d", len(ca.Keywords))
	}
	if len(ca.ReferencesImages) != 1 || ca.ReferencesImages[0] != "https://example.com/a.jpg" {
		t.Fatalf("unexpected image references: %+v", ca.ReferencesImages)
	}
	if len(ca.ReferencesTexts) != 1 {
		t.Fatalf("unexpected text references: %+v", ca.ReferencesTexts)
	}

	if byLang["en"].Slug != "cafe-english" {
		t.Fatalf("expected supplied slug to be kept, got %q", byLang["en"].Slug)
	}
}

func TestPostServiceCreateRequiresTitledTranslation(t *testing.T) {
	svc := NewPostService(setupPostServiceTestDB(t))

	form := bilingualForm()
	form.Translations = map[string]TranslationForm{
		"ca": {Title: "   ", Content: "<p>sense títol</p>"},
	}

	if _, err := svc.Create(form); !errors.Is(err, ErrNoTranslations) {
		t.Fatalf("expected ErrNoTranslations, got %v", err)
	}
}

func TestPostServiceCreateRejectsUnknownLanguage(t *testing.T) {
	svc := NewPostService(setupPostServiceTestDB(t))

	form := bilingualForm()
	form.Translations["fr"] = TranslationForm{Title: "Réflexions"}

	if _, err := svc.Create(form); !errors.Is(err, ErrLanguageInvalid) {
		t.Fatalf("expected ErrLanguageInvalid, got %v", err)
	}
}

func TestPostServiceListCountsAndDefaultTranslation(t *testing.T) {
	svc := NewPostService(setupPostServiceTestDB(t))

	bilingual, err := svc.Create(bilingualForm())
	if err != nil {
		t.Fatalf("create bilingual post: %v", err)
	}

	englishOnly := bilingualForm()
	delete(englishOnly.Translations, "ca")
	enPost, err := svc.Create(englishOnly)
	if err != nil {
		t.Fatalf("create english-only post: %v", err)
	}

	items, err := svc.List()
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(items))
	}

	byID := make(map[uint]PostListItem)
	for _, item := range items {
		byID[item.ID] = item
	}

	if got := byID[bilingual.Post.ID]; got.TranslationCount != 2 {
		t.Fatalf("expected translation_count 2, got %d", got.TranslationCount)
	}
	if got := byID[bilingual.Post.ID]; got.DefaultTranslation == nil || got.DefaultTranslation.Language != locale.LanguageCatalan {
		t.Fatalf("expected ca default translation, got %+v", got.DefaultTranslation)
	}

	enItem := byID[enPost.Post.ID]
	if enItem.TranslationCount != 1 {
		t.Fatalf("expected translation_count 1, got %d", enItem.TranslationCount)
	}
	if enItem.DefaultTranslation == nil || enItem.DefaultTranslation.Language != locale.LanguageEnglish {
		t.Fatalf("expected en fallback default translation, got %+v", enItem.DefaultTranslation)
	}
}

func TestPostServiceUpdateMergesCoreFieldsAndUpsertsTranslations(t *testing.T) {
	gdb := setupPostServiceTestDB(t)
	svc := NewPostService(gdb)

	catalanOnly := bilingualForm()
	delete(catalanOnly.Translations, "en")
	created, err := svc.Create(catalanOnly)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	image := db.Image{URL: "https://example.com/cover.jpg", Title: "Cover"}
	if err := gdb.Create(&image).Error; err != nil {
		t.Fatalf("seed image: %v", err)
	}

	published := true
	detail, err := svc.Update(created.Post.ID, PostPatch{
		ImageID:     OptionalID{Set: true, Value: &image.ID},
		IsPublished: &published,
		Translations: map[string]TranslationForm{
			"en": {Title: "New English Title", Content: "<p>fresh</p>", Keywords: []string{"design"}},
		},
	})
	if err != nil {
		t.Fatalf("update post: %v", err)
	}

	if !detail.Post.IsPublished {
		t.Fatalf("expected post to be published")
	}
	if detail.Post.ImageID == nil || *detail.Post.ImageID != image.ID {
		t.Fatalf("expected image id %d, got %+v", image.ID, detail.Post.ImageID)
	}
	if detail.Post.CategoryID != 1 {
		t.Fatalf("expected untouched category, got %d", detail.Post.CategoryID)
	}
	if len(detail.Translations) != 2 {
		t.Fatalf("expected en translation to be created, got %d translations", len(detail.Translations))
	}

	for _, tr := range detail.Translations {
		if tr.Language == "en" && tr.Slug != "new-english-title" {
			t.Fatalf("expected regenerated slug, got %q", tr.Slug)
		}
	}
}

func TestPostServiceUpdateClearsImageWithNullPatch(t *testing.T) {
	gdb := setupPostServiceTestDB(t)
	svc := NewPostService(gdb)

	image := db.Image{URL: "https://example.com/cover.jpg"}
	if err := gdb.Create(&image).Error; err != nil {
		t.Fatalf("seed image: %v", err)
	}

	form := bilingualForm()
	form.ImageID = &image.ID
	created, err := svc.Create(form)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	detail, err := svc.Update(created.Post.ID, PostPatch{ImageID: OptionalID{Set: true, Value: nil}})
	if err != nil {
		t.Fatalf("update post: %v", err)
	}
	if detail.Post.ImageID != nil {
		t.Fatalf("expected image reference cleared, got %v", *detail.Post.ImageID)
	}
}

func TestPostServiceUpdateNotFound(t *testing.T) {
	svc := NewPostService(setupPostServiceTestDB(t))

	if _, err := svc.Update(999, PostPatch{}); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestPostServiceDeleteCascadesTranslations(t *testing.T) {
	svc := NewPostService(setupPostServiceTestDB(t))

	created, err := svc.Create(bilingualForm())
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	if err := svc.Delete(created.Post.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}

	if _, err := svc.Get(created.Post.ID); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
	for _, lang := range []string{"ca", "en"} {
		if _, err := svc.GetTranslation(created.Post.ID, lang); !errors.Is(err, ErrTranslationNotFound) {
			t.Fatalf("expected %s translation gone, got %v", lang, err)
		}
	}
}

func TestPostServiceDeleteNotFound(t *testing.T) {
	svc := NewPostService(setupPostServiceTestDB(t))

	if err := svc.Delete(42); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestPostServiceTogglePublish(t *testing.T) {
	svc := NewPostService(setupPostServiceTestDB(t))

	created, err := svc.Create(bilingualForm())
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if created.Post.IsPublished {
		t.Fatalf("expected post to start unpublished")
	}

	toggled, err := svc.TogglePublish(created.Post.ID)
	if err != nil {
		t.Fatalf("toggle publish: %v", err)
	}
	if !toggled.IsPublished {
		t.Fatalf("expected publish flag flipped on")
	}

	toggled, err = svc.TogglePublish(created.Post.ID)
	if err != nil {
		t.Fatalf("toggle publish again: %v", err)
	}
	if toggled.IsPublished {
		t.Fatalf("expected publish flag flipped back off")
	}

	if _, err := svc.TogglePublish(999); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestPostServiceCreateTranslationDuplicateLanguage(t *testing.T) {
	svc := NewPostService(setupPostServiceTestDB(t))

	created, err := svc.Create(bilingualForm())
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	_, err = svc.CreateTranslation(created.Post.ID, "ca", TranslationForm{Title: "Segona versió"})
	if !errors.Is(err, ErrTranslationExists) {
		t.Fatalf("expected ErrTranslationExists, got %v", err)
	}

	// The stored translation must be untouched by the failed create.
	stored, err := svc.GetTranslation(created.Post.ID, "ca")
	if err != nil {
		t.Fatalf("get translation: %v", err)
	}
	if stored.Title != "Café del Mar" {
		t.Fatalf("expected original title preserved, got %q", stored.Title)
	}
}

func TestPostServiceCreateTranslationForMissingPost(t *testing.T) {
	svc := NewPostService(setupPostServiceTestDB(t))

	if _, err := svc.CreateTranslation(123, "en", TranslationForm{Title: "Ghost"}); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestPostServiceUpdateTranslationPartialPatch(t *testing.T) {
	svc := NewPostService(setupPostServiceTestDB(t))

	created, err := svc.Create(bilingualForm())
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	var caID uint
	for _, tr := range created.Translations {
		if tr.Language == "ca" {
			caID = tr.ID
		}
	}

	title := "Nou títol"
	updated, err := svc.UpdateTranslation(caID, TranslationPatch{Title: &title})
	if err != nil {
		t.Fatalf("update translation: %v", err)
	}
	if updated.Title != "Nou títol" {
		t.Fatalf("expected patched title, got %q", updated.Title)
	}
	if updated.Content != "<p>Una reflexió</p>" {
		t.Fatalf("expected untouched content, got %q", updated.Content)
	}
	if updated.Slug != "cafe-del-mar" {
		t.Fatalf("expected slug kept when not cleared, got %q", updated.Slug)
	}
	if len(updated.Keywords) != 2 {
		t.Fatalf("expected keyword set untouched, got %d", len(updated.Keywords))
	}

	empty := ""
	updated, err = svc.UpdateTranslation(caID, TranslationPatch{Slug: &empty})
	if err != nil {
		t.Fatalf("update translation slug: %v", err)
	}
	if updated.Slug != "nou-titol" {
		t.Fatalf("expected slug regenerated from title, got %q", updated.Slug)
	}
}

func TestPostServiceDeleteTranslationKeepsLastOne(t *testing.T) {
	svc := NewPostService(setupPostServiceTestDB(t))

	created, err := svc.Create(bilingualForm())
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	var caID, enID uint
	for _, tr := range created.Translations {
		switch tr.Language {
		case "ca":
			caID = tr.ID
		case "en":
			enID = tr.ID
		}
	}

	if err := svc.DeleteTranslation(enID); err != nil {
		t.Fatalf("delete en translation: %v", err)
	}
	if err := svc.DeleteTranslation(caID); !errors.Is(err, ErrLastTranslation) {
		t.Fatalf("expected ErrLastTranslation, got %v", err)
	}

	// Deleting must not have touched the survivor.
	if _, err := svc.GetTranslation(created.Post.ID, "ca"); err != nil {
		t.Fatalf("expected ca translation to remain: %v", err)
	}
}

func TestPostServiceKeywordsDedupedCaseInsensitively(t *testing.T) {
	gdb := setupPostServiceTestDB(t)
	svc := NewPostService(gdb)

	form := bilingualForm()
	delete(form.Translations, "en")
	form.Translations["ca"] = TranslationForm{
		Title:    "Paraules clau",
		Keywords: []string{"Disseny", "disseny", "web"},
	}

	created, err := svc.Create(form)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	stored, err := svc.GetTranslation(created.Post.ID, "ca")
	if err != nil {
		t.Fatalf("get translation: %v", err)
	}
	if len(stored.Keywords) != 2 {
		t.Fatalf("expected 2 keywords after case-insensitive dedupe, got %d", len(stored.Keywords))
	}

	var count int64
	if err := gdb.Model(&db.Keyword{}).Where("language = ?", "ca").Count(&count).Error; err != nil {
		t.Fatalf("count keywords: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 keyword records, got %d", count)
	}
}

func TestPostServiceKeywordsSharedAcrossPosts(t *testing.T) {
	gdb := setupPostServiceTestDB(t)
	svc := NewPostService(gdb)

	first := bilingualForm()
	if _, err := svc.Create(first); err != nil {
		t.Fatalf("create first post: %v", err)
	}

	second := bilingualForm()
	second.Translations["ca"] = TranslationForm{Title: "Una altra", Keywords: []string{"DISSENY"}}
	delete(second.Translations, "en")
	if _, err := svc.Create(second); err != nil {
		t.Fatalf("create second post: %v", err)
	}

	var count int64
	if err := gdb.Model(&db.Keyword{}).Where("language = ? AND LOWER(keyword) = ?", "ca", "disseny").Count(&count).Error; err != nil {
		t.Fatalf("count keywords: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single shared keyword record, got %d", count)
	}
}
