// internal/services/checkout_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/digital-storefront/internal/cache"
	"github.com/javajoker/digital-storefront/internal/config"
	"github.com/javajoker/digital-storefront/internal/models"
)

const EventCheckoutSessionCompleted = "checkout.session.completed"

type CheckoutService struct {
	db      *gorm.DB
	cfg     *config.Config
	gateway CheckoutGateway
	catalog *CatalogService
}

type CheckoutResult struct {
	Order       *models.Order
	RedirectURL string
}

type ReconcileResult struct {
	OrderID       uuid.UUID
	Matched       bool
	Transitioned  bool
	GrantsCreated int64
}

func NewCheckoutService(db *gorm.DB, cfg *config.Config, gateway CheckoutGateway, catalog *CatalogService) *CheckoutService {
	return &CheckoutService{
		db:      db,
		cfg:     cfg,
		gateway: gateway,
		catalog: catalog,
	}
}

// Start snapshots the active part of the cart into a pending order and opens a hosted checkout
// session for it. The order rows are committed before the provider is called, so an abandoned
// or failed session leaves a pending order behind.
func (s *CheckoutService) Start(ctx context.Context, userID uuid.UUID, cart cache.Cart) (*CheckoutResult, error) {
	ids := make([]string, 0, len(cart))
	for id := range cart {
		ids = append(ids, id)
	}

	products, err := s.catalog.ActiveProductsByID(ids)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrEmptyCart
	}

	ordered := make([]*models.Product, 0, len(products))
	for _, p := range products {
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Title < ordered[j].Title
	})

	order := &models.Order{
		UserID:   userID,
		Status:   models.OrderStatusPending,
		Currency: s.cfg.Payment.Currency,
	}
	var lineItems []CheckoutLineItem

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		var subtotal int64
		for _, p := range ordered {
			item := models.OrderItem{
				OrderID:          order.ID,
				ProductID:        p.ID,
				Quantity:         cart[p.ID.String()],
				UnitPricePennies: p.PricePennies,
			}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
			subtotal += item.LineTotal()
			order.Items = append(order.Items, item)

			lineItems = append(lineItems, CheckoutLineItem{
				Name:       p.Title,
				Quantity:   item.Quantity,
				UnitAmount: item.UnitPricePennies,
				ProductID:  p.ID.String(),
				Slug:       p.Slug,
			})
		}

		order.SubtotalPennies = subtotal
		order.TotalPennies = subtotal
		return tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
			"subtotal_pennies": subtotal,
			"total_pennies":    subtotal,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	hosted, err := s.gateway.CreateSession(ctx, &CheckoutSessionRequest{
		Currency:   order.Currency,
		LineItems:  lineItems,
		SuccessURL: s.cfg.Frontend.SiteBaseURL + "/v1/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.cfg.Frontend.SiteBaseURL + "/v1/checkout/cancel",
		Metadata: map[string]string{
			"order_id": order.ID.String(),
			"user_id":  userID.String(),
		},
	})
	if err != nil {
		logrus.WithError(err).WithField("order_id", order.ID).Error("Checkout session creation failed")
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("stripe_session_id", hosted.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to store checkout session: %w", err)
	}
	order.StripeSessionID = hosted.ID

	logrus.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"user_id":    userID,
		"session_id": hosted.ID,
		"subtotal":   order.SubtotalPennies,
		"items":      len(order.Items),
	}).Info("Checkout started")

	return &CheckoutResult{
		Order:       order,
		RedirectURL: hosted.URL,
	}, nil
}

// VerifyWebhook authenticates a provider callback. It fails closed when no secret is configured.
func (s *CheckoutService) VerifyWebhook(payload []byte, signature string) (stripe.Event, error) {
	secret := s.cfg.Payment.StripeWebhookSecret
	if secret == "" {
		return stripe.Event{}, ErrWebhookSecretMissing
	}

	// only data.object.id and payment_intent are read, which do not vary across API versions
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	return event, nil
}

// HandleEvent reconciles checkout completions and ignores every other event type.
// ErrInvalidEvent is returned only for a completion whose payload cannot be read.
func (s *CheckoutService) HandleEvent(ctx context.Context, event stripe.Event) (*ReconcileResult, error) {
	if string(event.Type) != EventCheckoutSessionCompleted {
		return nil, nil
	}
	if event.Data == nil {
		return nil, ErrInvalidEvent
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	if cs.ID == "" {
		return nil, ErrInvalidEvent
	}

	paymentIntentID := ""
	if cs.PaymentIntent != nil {
		paymentIntentID = cs.PaymentIntent.ID
	}

	return s.Reconcile(ctx, cs.ID, paymentIntentID)
}

// Reconcile marks the order owning sessionID as paid and grants its assets to the buyer.
// An unknown session is not an error. The pending to paid transition happens at most once;
// a concurrent or repeated delivery finds zero affected rows and stops.
func (s *CheckoutService) Reconcile(ctx context.Context, sessionID, paymentIntentID string) (*ReconcileResult, error) {
	result := &ReconcileResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Where("stripe_session_id = ?", sessionID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to find order: %w", err)
		}
		result.Matched = true
		result.OrderID = order.ID

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status <> ?", order.ID, models.OrderStatusPaid).
			Updates(map[string]interface{}{
				"status":                   models.OrderStatusPaid,
				"stripe_payment_intent_id": paymentIntentID,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to mark order paid: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		result.Transitioned = true

		var productIDs []uuid.UUID
		if err := tx.Model(&models.OrderItem{}).
			Where("order_id = ?", order.ID).
			Pluck("product_id", &productIDs).Error; err != nil {
			return fmt.Errorf("failed to load order items: %w", err)
		}
		if len(productIDs) == 0 {
			return nil
		}

		var assets []models.DigitalAsset
		if err := tx.Where("product_id IN ?", productIDs).Find(&assets).Error; err != nil {
			return fmt.Errorf("failed to load order assets: %w", err)
		}

		for _, asset := range assets {
			grant := models.UserAsset{
				UserID:         order.UserID,
				ProductID:      asset.ProductID,
				DigitalAssetID: asset.ID,
			}
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "digital_asset_id"}},
				DoNothing: true,
			}).Create(&grant)
			if res.Error != nil {
				return fmt.Errorf("failed to grant asset: %w", res.Error)
			}
			result.GrantsCreated += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	entry := logrus.WithFields(logrus.Fields{
		"session_id":     sessionID,
		"payment_intent": paymentIntentID,
	})
	switch {
	case !result.Matched:
		entry.Warn("Webhook references unknown checkout session")
	case result.Transitioned:
		entry.WithFields(logrus.Fields{
			"order_id": result.OrderID,
			"grants":   result.GrantsCreated,
		}).Info("Order paid")
	default:
		entry.WithField("order_id", result.OrderID).Info("Order already paid, ignoring repeat delivery")
	}

	return result, nil
}
