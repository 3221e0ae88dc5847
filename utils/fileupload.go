package utils

import (
	"fmt"
	"mime/multipart"

	"github.com/gabriel-vasile/mimetype"
)

const (
	// MaxFileSize is 10MB in bytes
	MaxFileSize = 10 * 1024 * 1024
	// MaxImagesPerProduct caps the number of images attached to one listing
	MaxImagesPerProduct = 5
)

// AllowedImageTypes lists the sniffed content types accepted for listing images
var AllowedImageTypes = []string{"image/png", "image/jpeg", "image/webp"}

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateImageFile checks the size of the uploaded file and sniffs its content.
// It returns the detected content type; the client supplied Content-Type and
// file extension are ignored.
func ValidateImageFile(fileHeader *multipart.FileHeader) (string, error) {
	if fileHeader.Size > MaxFileSize {
		return "", &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", &FileUploadError{Code: "INVALID_FILE", Message: "Uploaded file could not be read"}
	}
	defer file.Close()

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return "", &FileUploadError{Code: "INVALID_FILE", Message: "Uploaded file could not be read"}
	}

	for _, allowed := range AllowedImageTypes {
		if mtype.Is(allowed) {
			return allowed, nil
		}
	}

	return "", &FileUploadError{
		Code:    "INVALID_FILE_FORMAT",
		Message: "Only PNG, JPEG and WebP images are allowed",
	}
}

// ExtensionFor returns the file extension used when storing an image
func ExtensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	}
	return ""
}
