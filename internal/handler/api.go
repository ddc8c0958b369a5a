package handler

import (
	"github.com/reflexions/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	posts     *service.PostService
	keywords  *service.KeywordService
	images    *service.ImageService
	uploadDir string
	uploadURL string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, uploadDir, uploadURL string) *API {
	return &API{
		posts:     service.NewPostService(gdb),
		keywords:  service.NewKeywordService(gdb),
		images:    service.NewImageService(gdb),
		uploadDir: uploadDir,
		uploadURL: uploadURL,
	}
}
