// internal/services/cart_service.go
package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/javajoker/digital-storefront/internal/cache"
	"github.com/javajoker/digital-storefront/internal/models"
	"github.com/javajoker/digital-storefront/internal/utils"
)

type CartService struct {
	store   cache.CartStore
	catalog *CatalogService
}

type CartLine struct {
	Product          *models.Product `json:"product"`
	Quantity         int64           `json:"qty"`
	UnitPricePennies int64           `json:"unit_price"`
	LineTotalPennies int64           `json:"line_total"`
}

// CartSummary is the cart joined against the current catalog. Lines whose product is gone or
// inactive are left out of both Lines and the totals.
type CartSummary struct {
	Lines           []CartLine `json:"lines"`
	Items           int64      `json:"items"`
	SubtotalPennies int64      `json:"subtotal"`
	SubtotalDisplay string     `json:"subtotal_display"`
}

type CartUpdateRequest struct {
	ProductID string `json:"product_id" form:"product_id"`
	Qty       *int64 `json:"qty" form:"qty"`
}

func NewCartService(store cache.CartStore, catalog *CatalogService) *CartService {
	return &CartService{
		store:   store,
		catalog: catalog,
	}
}

func (s *CartService) View(ctx context.Context, sessionID string) (*CartSummary, error) {
	cart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return s.summarize(cart)
}

// Add sums qty into the stored quantity. Non-positive quantities count as 1.
func (s *CartService) Add(ctx context.Context, sessionID string, productID uuid.UUID, qty int64) (*CartSummary, error) {
	product, err := s.catalog.GetActiveProduct(productID)
	if err != nil {
		return nil, err
	}

	if qty <= 0 {
		qty = 1
	}

	cart, err := s.store.Add(ctx, sessionID, product.ID.String(), qty)
	if err != nil {
		return nil, fmt.Errorf("failed to add to cart: %w", err)
	}
	return s.summarize(cart)
}

// Update sets the quantity of a line already in the cart; qty <= 0 removes it.
func (s *CartService) Update(ctx context.Context, sessionID string, req *CartUpdateRequest) (*CartSummary, error) {
	key := strings.TrimSpace(req.ProductID)
	if key == "" {
		return nil, fmt.Errorf("%w: product_id is required", ErrValidation)
	}

	qty := int64(1)
	if req.Qty != nil {
		qty = *req.Qty
	}

	cart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if _, ok := cart[key]; !ok {
		return nil, ErrNotInCart
	}

	cart, err = s.store.Set(ctx, sessionID, key, qty)
	if err != nil {
		return nil, fmt.Errorf("failed to update cart: %w", err)
	}
	return s.summarize(cart)
}

func (s *CartService) Remove(ctx context.Context, sessionID, productID string) (*CartSummary, error) {
	key := strings.TrimSpace(productID)
	if key == "" {
		return nil, fmt.Errorf("%w: product_id is required", ErrValidation)
	}

	cart, err := s.store.Remove(ctx, sessionID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to remove from cart: %w", err)
	}
	return s.summarize(cart)
}

// Clear empties the session's cart.
func (s *CartService) Clear(ctx context.Context, sessionID string) (*CartSummary, error) {
	if err := s.store.Clear(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}
	return s.summarize(cache.Cart{})
}

// Snapshot returns the raw stored cart without joining it against the catalog.
func (s *CartService) Snapshot(ctx context.Context, sessionID string) (cache.Cart, error) {
	cart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return cart, nil
}

func (s *CartService) summarize(cart cache.Cart) (*CartSummary, error) {
	ids := make([]string, 0, len(cart))
	for id := range cart {
		ids = append(ids, id)
	}

	products, err := s.catalog.ActiveProductsByID(ids)
	if err != nil {
		return nil, err
	}

	summary := &CartSummary{Lines: []CartLine{}}
	for id, qty := range cart {
		product, ok := products[id]
		if !ok {
			continue
		}

		line := CartLine{
			Product:          product,
			Quantity:         qty,
			UnitPricePennies: product.PricePennies,
			LineTotalPennies: qty * product.PricePennies,
		}
		summary.Lines = append(summary.Lines, line)
		summary.Items += qty
		summary.SubtotalPennies += line.LineTotalPennies
	}

	sort.Slice(summary.Lines, func(i, j int) bool {
		return summary.Lines[i].Product.Title < summary.Lines[j].Product.Title
	})
	summary.SubtotalDisplay = utils.FormatMinorUnits(summary.SubtotalPennies)

	return summary, nil
}
