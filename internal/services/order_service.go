// internal/services/order_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/digital-storefront/internal/models"
	"github.com/javajoker/digital-storefront/internal/utils"
)

type OrderService struct {
	db    *gorm.DB
	store AssetStore
}

type Download struct {
	*AssetObject
	FileName string
}

func NewOrderService(db *gorm.DB, store AssetStore) *OrderService {
	return &OrderService{
		db:    db,
		store: store,
	}
}

func (s *OrderService) GetOrderHistory(userID uuid.UUID, params utils.PaginationParams) ([]models.Order, int64, error) {
	query := s.db.Model(&models.Order{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	allowedSortFields := []string{"created_at", "total_pennies", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	return orders, total, nil
}

// GetOrder returns ErrNotFound for orders owned by someone else.
func (s *OrderService) GetOrder(userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.Where("id = ? AND user_id = ?", orderID, userID).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at")
		}).
		Preload("Items.Product").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &order, nil
}

// GetPurchases lists the user's entitlements, most recently granted first.
func (s *OrderService) GetPurchases(userID uuid.UUID) ([]models.UserAsset, error) {
	var assets []models.UserAsset
	if err := s.db.Where("user_id = ?", userID).
		Preload("Product").
		Preload("DigitalAsset").
		Order("granted_at DESC").
		Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch purchases: %w", err)
	}
	return assets, nil
}

// OpenDownload resolves an entitlement of userID and opens its file. Foreign entitlements,
// dangling asset rows and missing files all yield ErrNotFound.
func (s *OrderService) OpenDownload(ctx context.Context, userID, entitlementID uuid.UUID) (*Download, error) {
	var grant models.UserAsset
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", entitlementID, userID).
		Preload("DigitalAsset").
		First(&grant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if grant.DigitalAsset == nil {
		return nil, ErrNotFound
	}

	obj, err := s.store.Open(ctx, grant.DigitalAsset.FilePath)
	if err != nil {
		return nil, err
	}

	return &Download{
		AssetObject: obj,
		FileName:    grant.DigitalAsset.FileName,
	}, nil
}
