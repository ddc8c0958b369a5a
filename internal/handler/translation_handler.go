package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reflexions/internal/service"
)

// GetTranslation returns one translation of a post by language.
func (a *API) GetTranslation(c *gin.Context) {
	postID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid post id")
		return
	}

	translation, err := a.posts.GetTranslation(postID, c.Param("lang"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLanguageInvalid):
			respondError(c, http.StatusBadRequest, "Language is not supported")
		case errors.Is(err, service.ErrTranslationNotFound):
			respondError(c, http.StatusNotFound, "Translation not found")
		default:
			respondError(c, http.StatusInternalServerError, "Failed to fetch translation")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"translation": translation})
}

// CreateTranslation adds a translation for a language the post does not have
// yet.
func (a *API) CreateTranslation(c *gin.Context) {
	postID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid post id")
		return
	}

	var form service.TranslationForm
	if !bindJSON(c, &form, "Invalid translation payload") {
		return
	}

	translation, err := a.posts.CreateTranslation(postID, c.Param("lang"), form)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLanguageInvalid):
			respondError(c, http.StatusBadRequest, "Language is not supported")
		case errors.Is(err, service.ErrPostNotFound):
			respondError(c, http.StatusNotFound, "Post not found")
		case errors.Is(err, service.ErrTranslationExists):
			respondError(c, http.StatusBadRequest, "Translation already exists for this language")
		default:
			respondError(c, http.StatusInternalServerError, "Failed to create translation")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"translation": translation})
}

// UpdateTranslation applies a partial update to a translation.
func (a *API) UpdateTranslation(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid translation id")
		return
	}

	var patch service.TranslationPatch
	if !bindJSON(c, &patch, "Invalid translation payload") {
		return
	}

	translation, err := a.posts.UpdateTranslation(id, patch)
	if err != nil {
		if errors.Is(err, service.ErrTranslationNotFound) {
			respondError(c, http.StatusNotFound, "Translation not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to update translation")
		return
	}

	c.JSON(http.StatusOK, gin.H{"translation": translation})
}

// DeleteTranslation removes a translation unless it is the post's last one.
func (a *API) DeleteTranslation(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid translation id")
		return
	}

	if err := a.posts.DeleteTranslation(id); err != nil {
		switch {
		case errors.Is(err, service.ErrTranslationNotFound):
			respondError(c, http.StatusNotFound, "Translation not found")
		case errors.Is(err, service.ErrLastTranslation):
			respondError(c, http.StatusBadRequest, "Post must keep at least one translation")
		default:
			respondError(c, http.StatusInternalServerError, "Failed to delete translation")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Translation deleted"})
}
