package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentyatra/rentyatra-api/models"
	"github.com/rentyatra/rentyatra-api/services"
	"github.com/rentyatra/rentyatra-api/utils"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// CreateProductRequest represents the multipart fields of a new listing
type CreateProductRequest struct {
	Title       string  `form:"title" binding:"required"`
	Description string  `form:"description"`
	PricePerDay float64 `form:"price_per_day" binding:"required,gt=0"`
}

// ProductController serves rental listings
type ProductController struct {
	db     *gorm.DB
	images services.ImageService
}

// NewProductController creates a product controller
func NewProductController(db *gorm.DB, images services.ImageService) *ProductController {
	return &ProductController{db: db, images: images}
}

// CreateProduct handles POST /api/v1/products - creates a listing with up to
// five images uploaded as multipart form data
func (pc *ProductController) CreateProduct(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateProductRequest
	if err := c.ShouldBind(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	files := imageFiles(c)
	if len(files) > utils.MaxImagesPerProduct {
		respondError(c, http.StatusBadRequest, "TOO_MANY_IMAGES", "A product can have at most 5 images")
		return
	}

	ctx := c.Request.Context()
	log := zerolog.Ctx(ctx)

	keys := make([]string, 0, len(files))
	cleanup := func() {
		for _, key := range keys {
			if err := pc.images.DeleteImage(ctx, key); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("failed to remove orphaned image")
			}
		}
	}

	for _, fh := range files {
		key, err := pc.images.UploadImage(ctx, fh)
		if err != nil {
			cleanup()
			var uploadErr *utils.FileUploadError
			if errors.As(err, &uploadErr) {
				respondError(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
				return
			}
			log.Error().Err(err).Msg("image upload failed")
			respondError(c, http.StatusInternalServerError, "UPLOAD_ERROR", "Failed to upload image")
			return
		}
		keys = append(keys, key)
	}

	product := models.Product{
		OwnerID:     user.ID,
		Title:       req.Title,
		Description: req.Description,
		PricePerDay: req.PricePerDay,
		Status:      models.ProductStatusPending,
		ImageKeys:   keys,
	}

	if err := pc.db.WithContext(ctx).Create(&product).Error; err != nil {
		cleanup()
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create product")
		return
	}

	product.Images = services.ResolveImageURLs(ctx, pc.images, product.ImageKeys)
	respondSuccess(c, http.StatusCreated, product)
}

// GetProduct handles GET /api/v1/products/:id
func (pc *ProductController) GetProduct(c *gin.Context) {
	ctx := c.Request.Context()

	var product models.Product
	if err := pc.db.WithContext(ctx).Preload("Owner").First(&product, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch product")
		return
	}

	product.Images = services.ResolveImageURLs(ctx, pc.images, product.ImageKeys)
	respondSuccess(c, http.StatusOK, product)
}

// imageFiles accepts both "images" and "images[]" field names
func imageFiles(c *gin.Context) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return append(form.File["images"], form.File["images[]"]...)
}
