package handler

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/reflexions/internal/service"
	"golang.org/x/image/draw"
)

const (
	maxUploadSize = 10 << 20 // 10MB
	maxImageWidth = 1600
	jpegQuality   = 85
)

// UploadImage 处理图片上传请求
// The uploaded file is decoded, downscaled when wider than maxImageWidth,
// re-encoded as JPEG and registered as an Image record.
func (a *API) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "No image file provided")
		return
	}
	if file.Size > maxUploadSize {
		respondError(c, http.StatusBadRequest, "File too large (max 10MB)")
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respondError(c, http.StatusBadRequest, "Only image files are allowed")
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to read upload")
		return
	}
	defer src.Close()

	data, width, height, err := processImage(src)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid image file")
		return
	}

	if err := os.MkdirAll(a.uploadDir, 0o755); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to create upload directory")
		return
	}

	// 生成唯一文件名
	filename := fmt.Sprintf("%s-%s.jpg", time.Now().Format("20060102"), uuid.New().String())
	if err := os.WriteFile(filepath.Join(a.uploadDir, filename), data, 0o644); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to store upload")
		return
	}

	record, err := a.images.Create(service.ImageInput{
		URL:    fmt.Sprintf("%s/%s", strings.TrimRight(a.uploadURL, "/"), filename),
		Title:  strings.TrimSuffix(file.Filename, filepath.Ext(file.Filename)),
		Alt:    c.PostForm("alt"),
		Width:  width,
		Height: height,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to register image")
		return
	}

	c.JSON(http.StatusOK, gin.H{"image": record})
}

// GetImages lists registered images, newest first.
func (a *API) GetImages(c *gin.Context) {
	images, err := a.images.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch images")
		return
	}

	c.JSON(http.StatusOK, gin.H{"images": images})
}

// DeleteImage removes an image record. Images still referenced by a post
// cannot be deleted.
func (a *API) DeleteImage(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid image id")
		return
	}

	err = a.images.Delete(id)
	switch {
	case errors.Is(err, service.ErrImageNotFound):
		respondError(c, http.StatusNotFound, "Image not found")
	case errors.Is(err, service.ErrImageInUse):
		respondError(c, http.StatusBadRequest, "Image is referenced by a post")
	case err != nil:
		respondError(c, http.StatusInternalServerError, "Failed to delete image")
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Image deleted"})
	}
}

// processImage decodes an upload, downscales it to maxImageWidth when wider
// and re-encodes it as JPEG. Returns the encoded bytes and final dimensions.
func processImage(src io.Reader) ([]byte, int, int, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = maxImageWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, 0, 0, fmt.Errorf("encode jpeg: %w", err)
	}

	return buf.Bytes(), w, h, nil
}
