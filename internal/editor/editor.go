// Package editor holds the working copy of a post while it is being edited:
// the language-agnostic core fields plus a translations map keyed by language.
// It mediates all edits and flattens into the form shape the post service
// expects on save.
package editor

import (
	"errors"
	"strings"
	"time"

	"github.com/reflexions/internal/locale"
	"github.com/reflexions/internal/service"
)

var (
	ErrLanguageInvalid = errors.New("language is not supported")
	ErrLastTranslation = errors.New("post must keep at least one translation")
)

// placeholderContent seeds a freshly provisioned translation.
const placeholderContent = "<p>Comença a escriure el teu contingut aquí...</p>"

// ReferenceKind selects one of a translation's two reference lists.
type ReferenceKind string

const (
	ReferenceImages ReferenceKind = "images"
	ReferenceTexts  ReferenceKind = "texts"
)

// Translation is the working copy of one language's content.
type Translation struct {
	ID               uint
	Title            string
	Content          string
	Slug             string
	Keywords         []string
	ReferencesImages []string
	ReferencesTexts  []string
}

// PostStore is the persistence boundary the editor saves through. It is
// satisfied by *service.PostService.
type PostStore interface {
	Get(id uint) (*service.PostDetail, error)
	Create(form service.PostForm) (*service.PostDetail, error)
	Update(id uint, patch service.PostPatch) (*service.PostDetail, error)
}

// Editor mediates edits on a single post working copy. It is not safe for
// concurrent use; each editing session owns its own Editor.
type Editor struct {
	store PostStore

	id          uint // 0 while the post is unsaved
	userID      string
	categoryID  uint
	imageID     *uint
	thumbnailID *uint
	isPublished bool
	date        time.Time
	createdAt   time.Time
	updatedAt   time.Time

	translations map[string]*Translation
	active       string

	err error
}

// New returns an editor for a fresh post. The primary language starts
// provisioned with an empty translation, matching how the edit form opens.
func New(store PostStore, userID string) *Editor {
	now := time.Now()
	e := &Editor{
		store:        store,
		userID:       userID,
		categoryID:   1,
		date:         now,
		createdAt:    now,
		updatedAt:    now,
		translations: make(map[string]*Translation),
		active:       locale.Default,
	}
	e.translations[locale.Default] = emptyTranslation()
	return e
}

// Load builds an editor from a persisted post.
func Load(store PostStore, id uint) (*Editor, error) {
	detail, err := store.Get(id)
	if err != nil {
		return nil, err
	}

	e := &Editor{
		store:        store,
		id:           detail.Post.ID,
		userID:       detail.Post.UserID,
		categoryID:   detail.Post.CategoryID,
		imageID:      detail.Post.ImageID,
		thumbnailID:  detail.Post.ThumbnailID,
		isPublished:  detail.Post.IsPublished,
		date:         detail.Post.Date,
		createdAt:    detail.Post.CreatedAt,
		updatedAt:    detail.Post.UpdatedAt,
		translations: make(map[string]*Translation, len(detail.Translations)),
		active:       locale.Default,
	}

	for _, tr := range detail.Translations {
		keywords := make([]string, 0, len(tr.Keywords))
		for _, kw := range tr.Keywords {
			keywords = append(keywords, kw.Keyword)
		}
		e.translations[tr.Language] = &Translation{
			ID:               tr.ID,
			Title:            tr.Title,
			Content:          tr.Content,
			Slug:             tr.Slug,
			Keywords:         keywords,
			ReferencesImages: append([]string(nil), tr.ReferencesImages...),
			ReferencesTexts:  append([]string(nil), tr.ReferencesTexts...),
		}
	}

	if _, ok := e.translations[e.active]; !ok {
		for _, lang := range locale.Languages() {
			if _, ok := e.translations[lang]; ok {
				e.active = lang
				break
			}
		}
	}

	return e, nil
}

func emptyTranslation() *Translation {
	return &Translation{
		Content:          placeholderContent,
		Keywords:         []string{},
		ReferencesImages: []string{},
		ReferencesTexts:  []string{},
	}
}

// ID returns the persisted post id, 0 while unsaved.
func (e *Editor) ID() uint { return e.id }

// Category returns the working copy's category id.
func (e *Editor) Category() uint { return e.categoryID }

// Published returns the working copy's publish flag.
func (e *Editor) Published() bool { return e.isPublished }

// Date returns the working copy's display date.
func (e *Editor) Date() time.Time { return e.date }

// Translations returns a copy of every working translation, keyed by
// language. Mutating the copies does not touch the working copy.
func (e *Editor) Translations() map[string]Translation {
	out := make(map[string]Translation, len(e.translations))
	for lang, tr := range e.translations {
		copied := *tr
		copied.Keywords = append([]string(nil), tr.Keywords...)
		copied.ReferencesImages = append([]string(nil), tr.ReferencesImages...)
		copied.ReferencesTexts = append([]string(nil), tr.ReferencesTexts...)
		out[lang] = copied
	}
	return out
}

// Saved reports whether the working copy is backed by a persisted post.
func (e *Editor) Saved() bool { return e.id > 0 }

// UpdatedAt returns the working copy's last modification time.
func (e *Editor) UpdatedAt() time.Time { return e.updatedAt }

// Err returns the error recorded by the last Save.
func (e *Editor) Err() error { return e.err }

func (e *Editor) touch() { e.updatedAt = time.Now() }

// ActiveLanguage returns the language currently being edited.
func (e *Editor) ActiveLanguage() string { return e.active }

// SetActiveLanguage switches which translation is edited. The translation
// does not need to exist yet.
func (e *Editor) SetActiveLanguage(language string) error {
	lang := locale.Normalize(language)
	if lang == "" {
		return ErrLanguageInvalid
	}
	e.active = lang
	return nil
}

// HasTranslation reports whether the working copy holds a translation for the
// language.
func (e *Editor) HasTranslation(language string) bool {
	_, ok := e.translations[locale.Normalize(language)]
	return ok
}

// TranslationLanguages returns the languages present in the working copy, in
// display order.
func (e *Editor) TranslationLanguages() []string {
	langs := make([]string, 0, len(e.translations))
	for _, lang := range locale.Languages() {
		if _, ok := e.translations[lang]; ok {
			langs = append(langs, lang)
		}
	}
	return langs
}

// Core field setters. These touch the language-agnostic half of the post.

func (e *Editor) SetCategory(id uint) {
	e.categoryID = id
	e.touch()
}

func (e *Editor) SetPublished(published bool) {
	e.isPublished = published
	e.touch()
}

func (e *Editor) SetDate(date time.Time) {
	e.date = date
	e.touch()
}

func (e *Editor) SetImageID(id *uint) {
	e.imageID = id
	e.touch()
}

func (e *Editor) SetThumbnailID(id *uint) {
	e.thumbnailID = id
	e.touch()
}

// translation returns the active language's working translation, provisioning
// an empty one on first touch. Every translation-scoped edit shares this rule:
// writing to an untouched language creates that language's translation.
func (e *Editor) translation() *Translation {
	tr, ok := e.translations[e.active]
	if !ok {
		tr = emptyTranslation()
		e.translations[e.active] = tr
	}
	return tr
}

// SetTitle sets the active translation's title.
func (e *Editor) SetTitle(title string) {
	e.translation().Title = title
	e.touch()
}

// SetContent sets the active translation's HTML body.
func (e *Editor) SetContent(content string) {
	e.translation().Content = content
	e.touch()
}

// SetSlug sets the active translation's slug. An empty slug is regenerated
// from the title on save.
func (e *Editor) SetSlug(slug string) {
	e.translation().Slug = slug
	e.touch()
}

// AddKeyword appends a keyword to the active translation, de-duplicating
// case-insensitively.
func (e *Editor) AddKeyword(keyword string) {
	trimmed := strings.TrimSpace(keyword)
	if trimmed == "" {
		return
	}

	tr := e.translation()
	if containsFold(tr.Keywords, trimmed) {
		return
	}
	tr.Keywords = append(tr.Keywords, trimmed)
	e.touch()
}

// RemoveKeyword drops a keyword from the active translation. Removing from a
// language with no translation is a no-op.
func (e *Editor) RemoveKeyword(keyword string) {
	tr, ok := e.translations[e.active]
	if !ok {
		return
	}
	tr.Keywords = removeExact(tr.Keywords, keyword)
	e.touch()
}

// Keywords returns a copy of the active translation's keyword list.
func (e *Editor) Keywords() []string {
	tr, ok := e.translations[e.active]
	if !ok {
		return nil
	}
	return append([]string(nil), tr.Keywords...)
}

// AddReference appends a reference string, de-duplicating by exact match.
func (e *Editor) AddReference(kind ReferenceKind, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}

	tr := e.translation()
	list := tr.referenceList(kind)
	if list == nil {
		return
	}
	for _, existing := range *list {
		if existing == value {
			return
		}
	}
	*list = append(*list, value)
	e.touch()
}

// RemoveReference drops a reference string; no-op when the active language
// has no translation.
func (e *Editor) RemoveReference(kind ReferenceKind, value string) {
	tr, ok := e.translations[e.active]
	if !ok {
		return
	}
	list := tr.referenceList(kind)
	if list == nil {
		return
	}
	*list = removeExact(*list, value)
	e.touch()
}

// References returns a copy of the active translation's reference list.
func (e *Editor) References(kind ReferenceKind) []string {
	tr, ok := e.translations[e.active]
	if !ok {
		return nil
	}
	list := tr.referenceList(kind)
	if list == nil {
		return nil
	}
	return append([]string(nil), *list...)
}

func (t *Translation) referenceList(kind ReferenceKind) *[]string {
	switch kind {
	case ReferenceImages:
		return &t.ReferencesImages
	case ReferenceTexts:
		return &t.ReferencesTexts
	}
	return nil
}

// CreateTranslation provisions an empty translation for a language not yet
// present; no-op when it already exists.
func (e *Editor) CreateTranslation(language string) error {
	lang := locale.Normalize(language)
	if lang == "" {
		return ErrLanguageInvalid
	}
	if _, ok := e.translations[lang]; ok {
		return nil
	}
	e.translations[lang] = emptyTranslation()
	e.touch()
	return nil
}

// DeleteTranslation removes a language from the working copy. It refuses to
// remove the last remaining translation.
func (e *Editor) DeleteTranslation(language string) error {
	lang := locale.Normalize(language)
	if lang == "" {
		return ErrLanguageInvalid
	}
	if _, ok := e.translations[lang]; !ok {
		return nil
	}
	if len(e.translations) <= 1 {
		return ErrLastTranslation
	}

	delete(e.translations, lang)
	if e.active == lang {
		e.active = e.TranslationLanguages()[0]
	}
	e.touch()
	return nil
}

// Form flattens the working copy into the service form shape. Translations
// without a title are left out; they were provisioned but never written.
func (e *Editor) Form() service.PostForm {
	form := service.PostForm{
		CategoryID:   e.categoryID,
		ImageID:      e.imageID,
		ThumbnailID:  e.thumbnailID,
		IsPublished:  e.isPublished,
		Date:         e.date,
		UserID:       e.userID,
		Translations: make(map[string]service.TranslationForm),
	}

	for lang, tr := range e.translations {
		if strings.TrimSpace(tr.Title) == "" {
			continue
		}
		form.Translations[lang] = service.TranslationForm{
			Title:            tr.Title,
			Content:          tr.Content,
			Slug:             tr.Slug,
			Keywords:         append([]string(nil), tr.Keywords...),
			ReferencesImages: append([]string(nil), tr.ReferencesImages...),
			ReferencesTexts:  append([]string(nil), tr.ReferencesTexts...),
		}
	}

	return form
}

// Save persists the working copy, creating the post on first save and
// updating it afterwards. On a successful create the editor adopts the
// server-assigned id and timestamps. The error is also recorded for Err.
func (e *Editor) Save() (*service.PostDetail, error) {
	form := e.Form()

	var detail *service.PostDetail
	var err error
	if e.Saved() {
		patch := service.PostPatch{
			CategoryID:   &form.CategoryID,
			ImageID:      service.OptionalID{Set: true, Value: form.ImageID},
			ThumbnailID:  service.OptionalID{Set: true, Value: form.ThumbnailID},
			IsPublished:  &form.IsPublished,
			Date:         &form.Date,
			Translations: form.Translations,
		}
		detail, err = e.store.Update(e.id, patch)
	} else {
		detail, err = e.store.Create(form)
	}

	e.err = err
	if err != nil {
		return nil, err
	}

	e.id = detail.Post.ID
	e.createdAt = detail.Post.CreatedAt
	e.updatedAt = detail.Post.UpdatedAt
	for _, tr := range detail.Translations {
		if working, ok := e.translations[tr.Language]; ok {
			working.ID = tr.ID
			if working.Slug == "" {
				working.Slug = tr.Slug
			}
		}
	}

	return detail, nil
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}

func removeExact(list []string, value string) []string {
	filtered := list[:0]
	for _, item := range list {
		if item != value {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
