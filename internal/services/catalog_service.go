// internal/services/catalog_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/digital-storefront/internal/models"
	"github.com/javajoker/digital-storefront/internal/utils"
)

type CatalogService struct {
	db *gorm.DB
}

type ProductDetail struct {
	*models.Product
	ReviewCount   int64          `json:"review_count"`
	AverageRating float64        `json:"average_rating"`
	PriceDisplay  string         `json:"price_display"`
	ViewerReview  *models.Review `json:"viewer_review,omitempty"`
}

// MarkViewerReview points ViewerReview at the review userID left, if any.
func (d *ProductDetail) MarkViewerReview(userID uuid.UUID) {
	for i := range d.Reviews {
		if d.Reviews[i].UserID == userID {
			d.ViewerReview = &d.Reviews[i]
			return
		}
	}
}

type CatalogHealth struct {
	Total       int64    `json:"total"`
	Active      int64    `json:"active"`
	ActiveSlugs []string `json:"active_slugs"`
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// ListProducts returns active products, newest first unless another whitelisted sort is requested.
func (s *CatalogService) ListProducts(params utils.PaginationParams) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{}).Where("active = ?", true)

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	allowedSortFields := []string{"created_at", "title", "price_pennies"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

func (s *CatalogService) GetBySlug(slug string) (*ProductDetail, error) {
	var product models.Product
	err := s.db.Where("slug = ? AND active = ?", slug, true).
		Preload("Reviews", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("Reviews.User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username")
		}).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	detail := &ProductDetail{
		Product:      &product,
		ReviewCount:  int64(len(product.Reviews)),
		PriceDisplay: utils.FormatMinorUnits(product.PricePennies),
	}
	if detail.ReviewCount > 0 {
		var sum int
		for _, review := range product.Reviews {
			sum += review.Rating
		}
		detail.AverageRating = float64(sum) / float64(detail.ReviewCount)
	}

	return detail, nil
}

// GetActiveProduct returns ErrNotFound for inactive products as well as unknown ids.
func (s *CatalogService) GetActiveProduct(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.Where("id = ? AND active = ?", id, true).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

// ActiveProductsByID resolves string-form ids against the current catalog. Unparseable, unknown
// and inactive ids are absent from the result.
func (s *CatalogService) ActiveProductsByID(ids []string) (map[string]*models.Product, error) {
	parsed := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if pid, err := uuid.Parse(id); err == nil {
			parsed = append(parsed, pid)
		}
	}

	result := make(map[string]*models.Product, len(parsed))
	if len(parsed) == 0 {
		return result, nil
	}

	var products []models.Product
	if err := s.db.Where("id IN ? AND active = ?", parsed, true).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	for i := range products {
		result[products[i].ID.String()] = &products[i]
	}
	return result, nil
}

func (s *CatalogService) Health() (*CatalogHealth, error) {
	health := &CatalogHealth{ActiveSlugs: []string{}}

	if err := s.db.Model(&models.Product{}).Count(&health.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	if err := s.db.Model(&models.Product{}).
		Where("active = ?", true).
		Order("slug").
		Pluck("slug", &health.ActiveSlugs).Error; err != nil {
		return nil, fmt.Errorf("failed to list active slugs: %w", err)
	}
	health.Active = int64(len(health.ActiveSlugs))

	return health, nil
}
