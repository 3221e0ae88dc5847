package services

import (
	"context"
	"errors"

	"github.com/rentyatra/rentyatra-api/models"
	"gorm.io/gorm"
)

// IdentityDirectory resolves user ids to accounts
type IdentityDirectory interface {
	FindByID(ctx context.Context, userID string) (*models.User, error)
	FindByAuth0ID(ctx context.Context, auth0ID string) (*models.User, error)
}

// ListingDirectory resolves product ids to their display form
type ListingDirectory interface {
	FindByID(ctx context.Context, productID string) (*models.ListingSummary, error)
}

// GormIdentityDirectory reads users from the database
type GormIdentityDirectory struct {
	db *gorm.DB
}

// NewIdentityDirectory creates a user directory backed by gorm
func NewIdentityDirectory(db *gorm.DB) *GormIdentityDirectory {
	return &GormIdentityDirectory{db: db}
}

// FindByID returns the user with the given id
func (d *GormIdentityDirectory) FindByID(ctx context.Context, userID string) (*models.User, error) {
	return d.findOne(ctx, "id = ?", userID)
}

// FindByAuth0ID returns the user linked to an Auth0 subject
func (d *GormIdentityDirectory) FindByAuth0ID(ctx context.Context, auth0ID string) (*models.User, error) {
	return d.findOne(ctx, "auth0_id = ?", auth0ID)
}

func (d *GormIdentityDirectory) findOne(ctx context.Context, query string, arg string) (*models.User, error) {
	if arg == "" {
		return nil, NewNotFoundError("USER_NOT_FOUND", "User not found")
	}

	var user models.User
	if err := d.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("USER_NOT_FOUND", "User not found")
		}
		return nil, NewInternalError("Failed to load user", err)
	}
	return &user, nil
}

// GormListingDirectory reads products from the database and resolves their
// image keys to URLs when an image service is available
type GormListingDirectory struct {
	db     *gorm.DB
	images ImageService
}

// NewListingDirectory creates a product directory backed by gorm
func NewListingDirectory(db *gorm.DB, images ImageService) *GormListingDirectory {
	return &GormListingDirectory{db: db, images: images}
}

// FindByID returns the display summary of a product
func (d *GormListingDirectory) FindByID(ctx context.Context, productID string) (*models.ListingSummary, error) {
	if productID == "" {
		return nil, NewNotFoundError("PRODUCT_NOT_FOUND", "Product not found")
	}

	var product models.Product
	if err := d.db.WithContext(ctx).Select("id", "title", "image_keys").First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("PRODUCT_NOT_FOUND", "Product not found")
		}
		return nil, NewInternalError("Failed to load product", err)
	}

	return &models.ListingSummary{
		ID:     product.ID,
		Title:  product.Title,
		Images: ResolveImageURLs(ctx, d.images, product.ImageKeys),
	}, nil
}
