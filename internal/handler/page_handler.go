package handler

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reflexions/internal/db"
	"github.com/reflexions/internal/editor"
	"github.com/reflexions/internal/locale"
	"github.com/reflexions/internal/service"
)

// ShowPostList 渲染后台文章列表页面
func (a *API) ShowPostList(c *gin.Context) {
	posts, err := a.posts.List()
	if err != nil {
		c.HTML(http.StatusInternalServerError, "post_list.html", gin.H{
			"title": "Reflexions",
			"error": "Failed to fetch posts",
		})
		return
	}

	c.HTML(http.StatusOK, "post_list.html", gin.H{
		"title": "Reflexions",
		"posts": posts,
	})
}

// ShowPostEditor 渲染文章编辑页面
// With no id parameter an empty working copy for a new post is opened;
// otherwise the persisted post is loaded into one. The lang query parameter
// selects the active translation tab.
func (a *API) ShowPostEditor(c *gin.Context) {
	var ed *editor.Editor
	if raw := c.Param("id"); raw != "" {
		id, err := parseUintParam(c, "id")
		if err != nil {
			c.HTML(http.StatusBadRequest, "post_edit.html", gin.H{
				"title": "Editor",
				"error": "Invalid post id",
			})
			return
		}

		ed, err = editor.Load(a.posts, id)
		if err != nil {
			status := http.StatusInternalServerError
			message := "Failed to fetch post"
			if errors.Is(err, service.ErrPostNotFound) {
				status = http.StatusNotFound
				message = "Post not found"
			}
			c.HTML(status, "post_edit.html", gin.H{
				"title": "Editor",
				"error": message,
			})
			return
		}
	} else {
		ed = editor.New(a.posts, currentUserID(c))
	}

	// An invalid lang keeps the working copy's own active language.
	if lang := c.Query("lang"); lang != "" {
		_ = ed.SetActiveLanguage(lang)
	}

	data := gin.H{
		"title":        "Editor",
		"languages":    locale.Languages(),
		"present":      ed.TranslationLanguages(),
		"active":       ed.ActiveLanguage(),
		"translations": ed.Translations(),
		"categoryID":   ed.Category(),
		"isPublished":  ed.Published(),
		"date":         ed.Date(),
	}
	if ed.Saved() {
		data["postID"] = ed.ID()
	}

	c.HTML(http.StatusOK, "post_edit.html", data)
}

// ShowPost 渲染单篇文章的预览页面
// The translation is picked from the lang query parameter, falling back to
// the default language and then to any translation the post has.
func (a *API) ShowPost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		c.HTML(http.StatusBadRequest, "post_view.html", gin.H{
			"title": "Reflexió",
			"error": "Invalid post id",
		})
		return
	}

	detail, err := a.posts.Get(id)
	if err != nil {
		status := http.StatusInternalServerError
		message := "Failed to fetch post"
		if errors.Is(err, service.ErrPostNotFound) {
			status = http.StatusNotFound
			message = "Post not found"
		}
		c.HTML(status, "post_view.html", gin.H{
			"title": "Reflexió",
			"error": message,
		})
		return
	}

	lang := locale.Normalize(c.Query("lang"))
	if lang == "" {
		lang = locale.FromAcceptLanguage(c.GetHeader("Accept-Language"))
	}
	translation := pickTranslation(detail.Translations, lang)
	if translation == nil {
		c.HTML(http.StatusNotFound, "post_view.html", gin.H{
			"title": "Reflexió",
			"error": "Post has no translations",
		})
		return
	}

	languages := make([]string, 0, len(detail.Translations))
	for _, tr := range detail.Translations {
		languages = append(languages, tr.Language)
	}

	rendered := service.SanitizeHTML(translation.Content)

	c.HTML(http.StatusOK, "post_view.html", gin.H{
		"title":       translation.Title,
		"post":        detail.Post,
		"translation": translation,
		"content":     template.HTML(rendered),
		"languages":   languages,
	})
}

// pickTranslation selects the translation for lang, falling back to the
// default language and then to the first translation the post carries.
func pickTranslation(translations []db.PostTranslation, lang string) *db.PostTranslation {
	var fallback *db.PostTranslation
	for i := range translations {
		tr := &translations[i]
		switch {
		case tr.Language == lang:
			return tr
		case tr.Language == locale.Default && fallback == nil:
			fallback = tr
		}
	}
	if fallback == nil && len(translations) > 0 {
		fallback = &translations[0]
	}
	return fallback
}
