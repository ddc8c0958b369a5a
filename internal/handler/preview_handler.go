package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reflexions/internal/service"
)

type previewRequest struct {
	Content string `json:"content"`
}

// PreviewMarkdown 将 Markdown 渲染为净化后的 HTML
func (a *API) PreviewMarkdown(c *gin.Context) {
	var req previewRequest
	if !bindJSON(c, &req, "Invalid preview payload") {
		return
	}

	html, err := service.RenderMarkdown(req.Content)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to render markdown")
		return
	}

	c.JSON(http.StatusOK, gin.H{"html": html})
}
