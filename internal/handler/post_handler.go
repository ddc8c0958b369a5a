package handler

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/reflexions/internal/service"
)

// GetPosts returns post summaries with their default translation and
// translation count.
func (a *API) GetPosts(c *gin.Context) {
	posts, err := a.posts.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch posts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// GetPost returns a post with all of its translations.
func (a *API) GetPost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid post id")
		return
	}

	detail, err := a.posts.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "Post not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to fetch post")
		return
	}

	c.JSON(http.StatusOK, detail)
}

// CreatePost persists a new post with its translation entries.
func (a *API) CreatePost(c *gin.Context) {
	var form service.PostForm
	if !bindJSON(c, &form, "Invalid post payload") {
		return
	}
	form.UserID = currentUserID(c)

	detail, err := a.posts.Create(form)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoTranslations):
			respondError(c, http.StatusBadRequest, "Post needs at least one titled translation")
		case errors.Is(err, service.ErrLanguageInvalid):
			respondError(c, http.StatusBadRequest, "Language is not supported")
		default:
			respondError(c, http.StatusInternalServerError, "Failed to create post")
		}
		return
	}

	c.JSON(http.StatusOK, detail)
}

// UpdatePost merges supplied core fields and upserts supplied translations.
func (a *API) UpdatePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid post id")
		return
	}

	var patch service.PostPatch
	if !bindJSON(c, &patch, "Invalid post payload") {
		return
	}

	detail, err := a.posts.Update(id, patch)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			respondError(c, http.StatusNotFound, "Post not found")
		case errors.Is(err, service.ErrLanguageInvalid):
			respondError(c, http.StatusBadRequest, "Language is not supported")
		default:
			respondError(c, http.StatusInternalServerError, "Failed to update post")
		}
		return
	}

	c.JSON(http.StatusOK, detail)
}

// DeletePost removes a post and cascades deletion of its translations.
func (a *API) DeletePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid post id")
		return
	}

	if err := a.posts.Delete(id); err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "Post not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to delete post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}

// TogglePublishPost flips the publish flag.
func (a *API) TogglePublishPost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid post id")
		return
	}

	post, err := a.posts.TogglePublish(id)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "Post not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to toggle publish status")
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}

// currentUserID reads the authenticated user from the session, tolerating
// requests served without the session middleware (tests hit handlers
// directly).
func currentUserID(c *gin.Context) string {
	if _, exists := c.Get(sessions.DefaultKey); !exists {
		return ""
	}
	session := sessions.Default(c)
	if id, ok := session.Get("user_id").(string); ok {
		return id
	}
	return ""
}
