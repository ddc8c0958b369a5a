package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reflexions/internal/service"
)

// SearchKeywords returns keyword suggestions for the search box.
func (a *API) SearchKeywords(c *gin.Context) {
	keywords, err := a.keywords.Search(c.Query("q"), c.Query("lang"))
	if err != nil {
		if errors.Is(err, service.ErrLanguageInvalid) {
			respondError(c, http.StatusBadRequest, "Language is not supported")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to search keywords")
		return
	}

	c.JSON(http.StatusOK, gin.H{"keywords": keywords})
}

// GetKeyword returns a single keyword by id.
func (a *API) GetKeyword(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid keyword id")
		return
	}

	keyword, err := a.keywords.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrKeywordNotFound) {
			respondError(c, http.StatusNotFound, "Keyword not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to fetch keyword")
		return
	}

	c.JSON(http.StatusOK, gin.H{"keyword": keyword})
}

// GetKeywords lists all keywords of a language.
func (a *API) GetKeywords(c *gin.Context) {
	keywords, err := a.keywords.ListByLanguage(c.Query("lang"))
	if err != nil {
		if errors.Is(err, service.ErrLanguageInvalid) {
			respondError(c, http.StatusBadRequest, "Language is not supported")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to fetch keywords")
		return
	}

	c.JSON(http.StatusOK, gin.H{"keywords": keywords})
}
