package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"
	"gorm.io/gorm"

	"github.com/javajoker/digital-storefront/internal/cache"
	"github.com/javajoker/digital-storefront/internal/config"
	"github.com/javajoker/digital-storefront/internal/models"
	"github.com/javajoker/digital-storefront/internal/testutil"
)

type CheckoutServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	cfg     *config.Config
	gateway *fakeGateway
	service *CheckoutService
	ctx     context.Context
	buyer   *models.User
}

func (suite *CheckoutServiceTestSuite) SetupTest() {
	suite.db = testutil.NewDB(suite.T())
	suite.cfg = newTestConfig()
	suite.gateway = &fakeGateway{}
	suite.service = NewCheckoutService(suite.db, suite.cfg, suite.gateway, NewCatalogService(suite.db))
	suite.ctx = context.Background()
	suite.buyer = testutil.CreateUser(suite.T(), suite.db, "buyer")
}

func (suite *CheckoutServiceTestSuite) TestStartSnapshotsCartIntoPendingOrder() {
	product := testutil.CreateProduct(suite.T(), suite.db, "track-a", 500, true)

	result, err := suite.service.Start(suite.ctx, suite.buyer.ID, cache.Cart{product.ID.String(): 2})
	suite.Require().NoError(err)
	suite.Equal("https://checkout.stripe.test/pay/cs_test_1", result.RedirectURL)

	var order models.Order
	suite.Require().NoError(suite.db.Preload("Items").First(&order, "id = ?", result.Order.ID).Error)
	suite.Equal(models.OrderStatusPending, order.Status)
	suite.Equal(int64(1000), order.SubtotalPennies)
	suite.Equal(int64(1000), order.TotalPennies)
	suite.Equal("GBP", order.Currency)
	suite.Equal("cs_test_1", order.StripeSessionID)
	suite.Equal(suite.buyer.ID, order.UserID)
	suite.Require().Len(order.Items, 1)
	suite.Equal(int64(2), order.Items[0].Quantity)
	suite.Equal(int64(500), order.Items[0].UnitPricePennies)

	req := suite.gateway.last()
	suite.Require().NotNil(req)
	suite.Equal("GBP", req.Currency)
	suite.Equal("http://shop.test/v1/checkout/success?session_id={CHECKOUT_SESSION_ID}", req.SuccessURL)
	suite.Equal("http://shop.test/v1/checkout/cancel", req.CancelURL)
	suite.Equal(order.ID.String(), req.Metadata["order_id"])
	suite.Equal(suite.buyer.ID.String(), req.Metadata["user_id"])
	suite.Require().Len(req.LineItems, 1)
	suite.Equal(CheckoutLineItem{
		Name:       "track-a",
		Quantity:   2,
		UnitAmount: 500,
		ProductID:  product.ID.String(),
		Slug:       "track-a",
	}, req.LineItems[0])
}

func (suite *CheckoutServiceTestSuite) TestStartSkipsInactiveAndUnknownProducts() {
	active := testutil.CreateProduct(suite.T(), suite.db, "keep", 300, true)
	inactive := testutil.CreateProduct(suite.T(), suite.db, "retired", 900, false)

	result, err := suite.service.Start(suite.ctx, suite.buyer.ID, cache.Cart{
		active.ID.String():   1,
		inactive.ID.String(): 4,
		uuid.NewString():     2,
		"not-a-uuid":         1,
	})
	suite.Require().NoError(err)
	suite.Equal(int64(300), result.Order.SubtotalPennies)
	suite.Len(result.Order.Items, 1)
}

func (suite *CheckoutServiceTestSuite) TestStartWithNothingPurchasable() {
	inactive := testutil.CreateProduct(suite.T(), suite.db, "retired", 900, false)

	_, err := suite.service.Start(suite.ctx, suite.buyer.ID, cache.Cart{})
	suite.ErrorIs(err, ErrEmptyCart)

	_, err = suite.service.Start(suite.ctx, suite.buyer.ID, cache.Cart{inactive.ID.String(): 1})
	suite.ErrorIs(err, ErrEmptyCart)

	var count int64
	suite.db.Model(&models.Order{}).Count(&count)
	suite.Zero(count)
	suite.Nil(suite.gateway.last())
}

func (suite *CheckoutServiceTestSuite) TestStartGatewayFailureLeavesPendingOrder() {
	product := testutil.CreateProduct(suite.T(), suite.db, "track-a", 500, true)
	suite.gateway.fail = true

	_, err := suite.service.Start(suite.ctx, suite.buyer.ID, cache.Cart{product.ID.String(): 1})
	suite.Error(err)

	var order models.Order
	suite.Require().NoError(suite.db.First(&order).Error)
	suite.Equal(models.OrderStatusPending, order.Status)
	suite.Empty(order.StripeSessionID)
}

func (suite *CheckoutServiceTestSuite) TestReconcileIsIdempotent() {
	order, assets := suite.createPendingOrder("cs_live_1")

	first, err := suite.service.Reconcile(suite.ctx, "cs_live_1", "pi_123")
	suite.Require().NoError(err)
	suite.True(first.Matched)
	suite.True(first.Transitioned)
	suite.Equal(int64(len(assets)), first.GrantsCreated)

	second, err := suite.service.Reconcile(suite.ctx, "cs_live_1", "pi_123")
	suite.Require().NoError(err)
	suite.True(second.Matched)
	suite.False(second.Transitioned)
	suite.Zero(second.GrantsCreated)

	var reloaded models.Order
	suite.Require().NoError(suite.db.First(&reloaded, "id = ?", order.ID).Error)
	suite.Equal(models.OrderStatusPaid, reloaded.Status)
	suite.Equal("pi_123", reloaded.StripePaymentIntentID)

	var grants int64
	suite.db.Model(&models.UserAsset{}).Where("user_id = ?", suite.buyer.ID).Count(&grants)
	suite.Equal(int64(len(assets)), grants)
}

func (suite *CheckoutServiceTestSuite) TestReconcileConcurrentDeliveries() {
	order, assets := suite.createPendingOrder("cs_live_race")

	const deliveries = 8
	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		results = make([]*ReconcileResult, deliveries)
		errs    = make([]error, deliveries)
	)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = suite.service.Reconcile(suite.ctx, "cs_live_race", "pi_race")
		}(i)
	}
	close(start)
	wg.Wait()

	transitions := 0
	var grantsCreated int64
	for i := 0; i < deliveries; i++ {
		suite.Require().NoError(errs[i])
		suite.True(results[i].Matched)
		if results[i].Transitioned {
			transitions++
		}
		grantsCreated += results[i].GrantsCreated
	}
	suite.Equal(1, transitions)
	suite.Equal(int64(len(assets)), grantsCreated)

	var reloaded models.Order
	suite.Require().NoError(suite.db.First(&reloaded, "id = ?", order.ID).Error)
	suite.Equal(models.OrderStatusPaid, reloaded.Status)

	for _, asset := range assets {
		var grants int64
		suite.db.Model(&models.UserAsset{}).
			Where("user_id = ? AND digital_asset_id = ?", suite.buyer.ID, asset.ID).
			Count(&grants)
		suite.Equal(int64(1), grants)
	}
}

func (suite *CheckoutServiceTestSuite) TestReconcileToleratesExistingGrant() {
	_, assets := suite.createPendingOrder("cs_live_2")
	testutil.GrantAsset(suite.T(), suite.db, suite.buyer.ID, assets[0])

	result, err := suite.service.Reconcile(suite.ctx, "cs_live_2", "pi_456")
	suite.Require().NoError(err)
	suite.True(result.Transitioned)
	suite.Equal(int64(len(assets)-1), result.GrantsCreated)

	var grants int64
	suite.db.Model(&models.UserAsset{}).Where("user_id = ?", suite.buyer.ID).Count(&grants)
	suite.Equal(int64(len(assets)), grants)
}

func (suite *CheckoutServiceTestSuite) TestReconcileUnknownSessionMutatesNothing() {
	order, _ := suite.createPendingOrder("cs_live_3")

	result, err := suite.service.Reconcile(suite.ctx, "cs_unknown", "pi_789")
	suite.Require().NoError(err)
	suite.False(result.Matched)

	var reloaded models.Order
	suite.Require().NoError(suite.db.First(&reloaded, "id = ?", order.ID).Error)
	suite.Equal(models.OrderStatusPending, reloaded.Status)
	suite.Empty(reloaded.StripePaymentIntentID)

	var grants int64
	suite.db.Model(&models.UserAsset{}).Count(&grants)
	suite.Zero(grants)
}

func (suite *CheckoutServiceTestSuite) TestVerifyWebhook() {
	payload := completedEventPayload("cs_live_4", "pi_1")

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: payload,
		Secret:  testWebhookSecret,
	})
	event, err := suite.service.VerifyWebhook(signed.Payload, signed.Header)
	suite.Require().NoError(err)
	suite.Equal(EventCheckoutSessionCompleted, string(event.Type))

	forged := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: payload,
		Secret:  "whsec_wrong",
	})
	_, err = suite.service.VerifyWebhook(forged.Payload, forged.Header)
	suite.ErrorIs(err, ErrInvalidSignature)

	_, err = suite.service.VerifyWebhook(payload, "garbage")
	suite.ErrorIs(err, ErrInvalidSignature)

	suite.cfg.Payment.StripeWebhookSecret = ""
	_, err = suite.service.VerifyWebhook(signed.Payload, signed.Header)
	suite.ErrorIs(err, ErrWebhookSecretMissing)
}

func (suite *CheckoutServiceTestSuite) TestHandleEventReconcilesCompletedSession() {
	order, _ := suite.createPendingOrder("cs_live_5")

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: completedEventPayload("cs_live_5", "pi_55"),
		Secret:  testWebhookSecret,
	})
	event, err := suite.service.VerifyWebhook(signed.Payload, signed.Header)
	suite.Require().NoError(err)

	result, err := suite.service.HandleEvent(suite.ctx, event)
	suite.Require().NoError(err)
	suite.Require().NotNil(result)
	suite.Equal(order.ID, result.OrderID)
	suite.True(result.Transitioned)

	var reloaded models.Order
	suite.Require().NoError(suite.db.First(&reloaded, "id = ?", order.ID).Error)
	suite.Equal("pi_55", reloaded.StripePaymentIntentID)
}

func (suite *CheckoutServiceTestSuite) TestVerifyWebhookAcceptsOtherAPIVersions() {
	order, _ := suite.createPendingOrder("cs_live_7")
	suite.NotEqual("2023-10-16", stripe.APIVersion)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: completedEventPayloadForVersion("2023-10-16", "cs_live_7", "pi_77"),
		Secret:  testWebhookSecret,
	})
	event, err := suite.service.VerifyWebhook(signed.Payload, signed.Header)
	suite.Require().NoError(err)
	suite.Equal("2023-10-16", event.APIVersion)

	result, err := suite.service.HandleEvent(suite.ctx, event)
	suite.Require().NoError(err)
	suite.True(result.Transitioned)

	var reloaded models.Order
	suite.Require().NoError(suite.db.First(&reloaded, "id = ?", order.ID).Error)
	suite.Equal(models.OrderStatusPaid, reloaded.Status)
	suite.Equal("pi_77", reloaded.StripePaymentIntentID)
}

func (suite *CheckoutServiceTestSuite) TestHandleEventIgnoresOtherTypes() {
	order, _ := suite.createPendingOrder("cs_live_6")

	result, err := suite.service.HandleEvent(suite.ctx, stripe.Event{
		Type: "payment_intent.succeeded",
		Data: &stripe.EventData{Raw: []byte(`{"id":"cs_live_6"}`)},
	})
	suite.NoError(err)
	suite.Nil(result)

	var reloaded models.Order
	suite.Require().NoError(suite.db.First(&reloaded, "id = ?", order.ID).Error)
	suite.Equal(models.OrderStatusPending, reloaded.Status)
}

func (suite *CheckoutServiceTestSuite) TestHandleEventRejectsMalformedSession() {
	_, err := suite.service.HandleEvent(suite.ctx, stripe.Event{
		Type: EventCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: []byte(`{"object":"checkout.session"}`)},
	})
	suite.ErrorIs(err, ErrInvalidEvent)

	_, err = suite.service.HandleEvent(suite.ctx, stripe.Event{Type: EventCheckoutSessionCompleted})
	suite.ErrorIs(err, ErrInvalidEvent)
}

// createPendingOrder builds a pending order for one product backed by two assets.
func (suite *CheckoutServiceTestSuite) createPendingOrder(sessionID string) (*models.Order, []*models.DigitalAsset) {
	product := testutil.CreateProduct(suite.T(), suite.db, "album-"+sessionID, 700, true)
	assets := []*models.DigitalAsset{
		testutil.CreateAsset(suite.T(), suite.db, product.ID, "products/a.mp3", "a.mp3"),
		testutil.CreateAsset(suite.T(), suite.db, product.ID, "products/b.mp3", "b.mp3"),
	}

	order := &models.Order{
		UserID:          suite.buyer.ID,
		Status:          models.OrderStatusPending,
		Currency:        "GBP",
		SubtotalPennies: 700,
		TotalPennies:    700,
		StripeSessionID: sessionID,
	}
	suite.Require().NoError(suite.db.Create(order).Error)
	suite.Require().NoError(suite.db.Create(&models.OrderItem{
		OrderID:          order.ID,
		ProductID:        product.ID,
		Quantity:         1,
		UnitPricePennies: 700,
	}).Error)

	return order, assets
}

func completedEventPayload(sessionID, paymentIntentID string) []byte {
	return completedEventPayloadForVersion(stripe.APIVersion, sessionID, paymentIntentID)
}

func completedEventPayloadForVersion(apiVersion, sessionID, paymentIntentID string) []byte {
	return []byte(fmt.Sprintf(`{
  "id": "evt_test",
  "object": "event",
  "api_version": %q,
  "type": "checkout.session.completed",
  "data": {
    "object": {
      "id": %q,
      "object": "checkout.session",
      "payment_intent": %q
    }
  }
}`, apiVersion, sessionID, paymentIntentID))
}

func TestCheckoutServiceSuite(t *testing.T) {
	suite.Run(t, new(CheckoutServiceTestSuite))
}
