// internal/handlers/catalog.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/digital-storefront/internal/i18n"
	"github.com/javajoker/digital-storefront/internal/services"
	"github.com/javajoker/digital-storefront/internal/utils"
)

type CatalogHandler struct {
	catalogService *services.CatalogService
	reviewService  *services.ReviewService
}

func NewCatalogHandler(catalogService *services.CatalogService, reviewService *services.ReviewService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		reviewService:  reviewService,
	}
}

// GET /catalog
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	products, total, err := h.catalogService.ListProducts(params)
	if err != nil {
		respondError(c, err, "product")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(products, total, params))
}

// GET /catalog/:slug
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	detail, err := h.catalogService.GetBySlug(c.Param("slug"))
	if err != nil {
		respondError(c, err, "product")
		return
	}

	if userIDStr, ok := utils.GetUserIDFromContext(c); ok {
		if userID, err := uuid.Parse(userIDStr); err == nil {
			detail.MarkViewerReview(userID)
		}
	}

	utils.SuccessResponse(c, detail)
}

// GET /catalog/health
func (h *CatalogHandler) Health(c *gin.Context) {
	health, err := h.catalogService.Health()
	if err != nil {
		respondError(c, err, "product")
		return
	}

	utils.SuccessResponse(c, health)
}

// POST /catalog/:slug/reviews
func (h *CatalogHandler) SubmitReview(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.ReviewRequest
	if !bindRequest(c, &req) {
		return
	}

	review, err := h.reviewService.SubmitReview(userID, c.Param("slug"), &req)
	if errors.Is(err, services.ErrValidation) {
		validationErrors := utils.GetValidationErrors(err)
		for _, ve := range validationErrors {
			if ve.Field == "rating" {
				utils.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR",
					i18n.T(lang, i18n.KeyReviewBadRating), validationErrors)
				return
			}
		}
	}
	if err != nil {
		respondError(c, err, "product")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyReviewThanks),
		"review":  review,
	})
}
