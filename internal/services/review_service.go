// internal/services/review_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/digital-storefront/internal/models"
	"github.com/javajoker/digital-storefront/internal/utils"
)

const defaultRating = 5

type ReviewService struct {
	db *gorm.DB
}

type ReviewRequest struct {
	Rating  *int   `json:"rating" form:"rating" validate:"omitempty,min=1,max=5"`
	Comment string `json:"comment" form:"comment" validate:"max=5000"`
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// SubmitReview creates the user's review of an active product, or replaces the rating and
// comment of the one they already left.
func (s *ReviewService) SubmitReview(userID uuid.UUID, slug string, req *ReviewRequest) (*models.Review, error) {
	req.Comment = strings.TrimSpace(req.Comment)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	var product models.Product
	if err := s.db.Where("slug = ? AND active = ?", slug, true).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	rating := defaultRating
	if req.Rating != nil {
		rating = *req.Rating
	}

	review := &models.Review{
		ProductID: product.ID,
		UserID:    userID,
		Rating:    rating,
		Comment:   req.Comment,
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "updated_at"}),
	}).Create(review).Error; err != nil {
		return nil, fmt.Errorf("failed to save review: %w", err)
	}

	var saved models.Review
	if err := s.db.Where("product_id = ? AND user_id = ?", product.ID, userID).First(&saved).Error; err != nil {
		return nil, fmt.Errorf("failed to reload review: %w", err)
	}
	return &saved, nil
}
