package services

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/rentyatra/rentyatra-api/utils"
	"github.com/rs/zerolog"
)

// productImagePrefix is the bucket folder holding listing images
const productImagePrefix = "products"

// ImageService handles listing image upload, retrieval and deletion
type ImageService interface {
	// UploadImage validates and uploads an image file, returns the storage key
	UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error)

	// GetImageURL generates a URL for accessing an uploaded image
	GetImageURL(ctx context.Context, imageKey string) (string, error)

	// DeleteImage removes an image from storage
	DeleteImage(ctx context.Context, imageKey string) error
}

// S3ImageService implements ImageService on top of an S3Interface
type S3ImageService struct {
	s3Service S3Interface
}

// NewImageService creates an image service writing through the given storage
func NewImageService(s3Service S3Interface) *S3ImageService {
	return &S3ImageService{s3Service: s3Service}
}

// UploadImage validates and uploads an image file
func (s *S3ImageService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	contentType, err := utils.ValidateImageFile(fileHeader)
	if err != nil {
		return "", err
	}

	s3Key, err := s.s3Service.UploadFile(ctx, fileHeader, productImagePrefix, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return s3Key, nil
}

// GetImageURL generates a presigned URL for accessing an image
func (s *S3ImageService) GetImageURL(ctx context.Context, imageKey string) (string, error) {
	if imageKey == "" {
		return "", nil
	}

	url, err := s.s3Service.GetPresignedURL(ctx, imageKey)
	if err != nil {
		return "", fmt.Errorf("failed to generate image URL: %w", err)
	}

	return url, nil
}

// DeleteImage deletes an image from storage
func (s *S3ImageService) DeleteImage(ctx context.Context, imageKey string) error {
	if imageKey == "" {
		return nil
	}

	if err := s.s3Service.DeleteFile(ctx, imageKey); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	return nil
}

// ResolveImageURLs turns stored keys into URLs, skipping keys that fail to
// resolve. A nil service yields an empty list.
func ResolveImageURLs(ctx context.Context, images ImageService, keys []string) []string {
	urls := make([]string, 0, len(keys))
	if images == nil {
		return urls
	}
	for _, key := range keys {
		url, err := images.GetImageURL(ctx, key)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to resolve image URL")
			continue
		}
		urls = append(urls, url)
	}
	return urls
}
