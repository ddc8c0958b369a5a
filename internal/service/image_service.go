package service

import (
	"errors"
	"strings"

	"github.com/reflexions/internal/db"
	"gorm.io/gorm"
)

var (
	ErrImageNotFound   = errors.New("image not found")
	ErrImageInUse      = errors.New("image is referenced by posts")
	ErrImageURLMissing = errors.New("image url is required")
)

// ImageService handles image record CRUD.
type ImageService struct {
	db *gorm.DB
}

// ImageInput represents fields accepted when registering an image.
type ImageInput struct {
	URL    string
	Title  string
	Alt    string
	Width  int
	Height int
}

// NewImageService creates an ImageService instance.
func NewImageService(gdb *gorm.DB) *ImageService {
	return &ImageService{db: gdb}
}

// List returns all images, newest first.
func (s *ImageService) List() ([]db.Image, error) {
	var images []db.Image
	if err := s.db.Order("created_at desc").Order("id desc").Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

// Get fetches an image by id.
func (s *ImageService) Get(id uint) (*db.Image, error) {
	var image db.Image
	if err := s.db.First(&image, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	return &image, nil
}

// Create registers an image record.
func (s *ImageService) Create(input ImageInput) (*db.Image, error) {
	if strings.TrimSpace(input.URL) == "" {
		return nil, ErrImageURLMissing
	}

	image := db.Image{
		URL:    strings.TrimSpace(input.URL),
		Title:  strings.TrimSpace(input.Title),
		Alt:    strings.TrimSpace(input.Alt),
		Width:  input.Width,
		Height: input.Height,
	}
	if err := s.db.Create(&image).Error; err != nil {
		return nil, err
	}
	return &image, nil
}

// Delete removes an image unless a post still references it as image or
// thumbnail.
func (s *ImageService) Delete(id uint) error {
	var image db.Image
	if err := s.db.First(&image, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrImageNotFound
		}
		return err
	}

	var count int64
	if err := s.db.Model(&db.Post{}).Where("image_id = ? OR thumbnail_id = ?", id, id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrImageInUse
	}

	return s.db.Delete(&image).Error
}
