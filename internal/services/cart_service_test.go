package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/digital-storefront/internal/cache"
	"github.com/javajoker/digital-storefront/internal/models"
	"github.com/javajoker/digital-storefront/internal/testutil"
)

type CartServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	store   *cache.RedisCartStore
	service *CartService
	ctx     context.Context
	product *models.Product
}

func (suite *CartServiceTestSuite) SetupTest() {
	suite.db = testutil.NewDB(suite.T())
	suite.store = newTestCartStore(suite.T())
	suite.service = NewCartService(suite.store, NewCatalogService(suite.db))
	suite.ctx = context.Background()
	suite.product = testutil.CreateProduct(suite.T(), suite.db, "track-a", 500, true)
}

func (suite *CartServiceTestSuite) TestAddCoercesNonPositiveQuantity() {
	for _, qty := range []int64{0, -1, -50} {
		sessionID := uuid.NewString()

		summary, err := suite.service.Add(suite.ctx, sessionID, suite.product.ID, qty)
		suite.Require().NoError(err)
		suite.Equal(int64(1), summary.Items, "qty %d", qty)

		cart, err := suite.store.Get(suite.ctx, sessionID)
		suite.Require().NoError(err)
		suite.Equal(int64(1), cart[suite.product.ID.String()])
	}
}

func (suite *CartServiceTestSuite) TestClearEmptiesOnlyThatSession() {
	_, err := suite.service.Add(suite.ctx, "mine", suite.product.ID, 2)
	suite.Require().NoError(err)
	_, err = suite.service.Add(suite.ctx, "theirs", suite.product.ID, 1)
	suite.Require().NoError(err)

	summary, err := suite.service.Clear(suite.ctx, "mine")
	suite.Require().NoError(err)
	suite.Zero(summary.Items)
	suite.Empty(summary.Lines)
	suite.Equal("0.00", summary.SubtotalDisplay)

	snapshot, err := suite.service.Snapshot(suite.ctx, "mine")
	suite.Require().NoError(err)
	suite.Empty(snapshot)

	snapshot, err = suite.service.Snapshot(suite.ctx, "theirs")
	suite.Require().NoError(err)
	suite.Equal(int64(1), snapshot[suite.product.ID.String()])
}

func (suite *CartServiceTestSuite) TestAddSumsQuantities() {
	_, err := suite.service.Add(suite.ctx, "sess", suite.product.ID, 2)
	suite.Require().NoError(err)

	summary, err := suite.service.Add(suite.ctx, "sess", suite.product.ID, 3)
	suite.Require().NoError(err)

	suite.Equal(int64(5), summary.Items)
	suite.Equal(int64(2500), summary.SubtotalPennies)
	suite.Equal("25.00", summary.SubtotalDisplay)
	suite.Require().Len(summary.Lines, 1)
	suite.Equal(int64(500), summary.Lines[0].UnitPricePennies)
}

func (suite *CartServiceTestSuite) TestAddRejectsUnknownOrInactiveProduct() {
	inactive := testutil.CreateProduct(suite.T(), suite.db, "retired", 100, false)

	_, err := suite.service.Add(suite.ctx, "sess", inactive.ID, 1)
	suite.ErrorIs(err, ErrNotFound)

	_, err = suite.service.Add(suite.ctx, "sess", uuid.New(), 1)
	suite.ErrorIs(err, ErrNotFound)

	cart, err := suite.store.Get(suite.ctx, "sess")
	suite.Require().NoError(err)
	suite.Empty(cart)
}

func (suite *CartServiceTestSuite) TestUpdateNonPositiveRemovesLine() {
	for _, qty := range []int64{0, -3} {
		sessionID := uuid.NewString()
		_, err := suite.service.Add(suite.ctx, sessionID, suite.product.ID, 4)
		suite.Require().NoError(err)

		summary, err := suite.service.Update(suite.ctx, sessionID, &CartUpdateRequest{
			ProductID: suite.product.ID.String(),
			Qty:       &qty,
		})
		suite.Require().NoError(err)
		suite.Equal(int64(0), summary.Items)

		cart, err := suite.store.Get(suite.ctx, sessionID)
		suite.Require().NoError(err)
		suite.NotContains(cart, suite.product.ID.String())
	}
}

func (suite *CartServiceTestSuite) TestUpdateSetsQuantity() {
	_, err := suite.service.Add(suite.ctx, "sess", suite.product.ID, 4)
	suite.Require().NoError(err)

	qty := int64(2)
	summary, err := suite.service.Update(suite.ctx, "sess", &CartUpdateRequest{
		ProductID: suite.product.ID.String(),
		Qty:       &qty,
	})
	suite.Require().NoError(err)
	suite.Equal(int64(2), summary.Items)
	suite.Equal(int64(1000), summary.SubtotalPennies)
}

func (suite *CartServiceTestSuite) TestUpdateRequiresLineInCart() {
	qty := int64(2)
	_, err := suite.service.Update(suite.ctx, "sess", &CartUpdateRequest{
		ProductID: suite.product.ID.String(),
		Qty:       &qty,
	})
	suite.ErrorIs(err, ErrNotInCart)

	_, err = suite.service.Update(suite.ctx, "sess", &CartUpdateRequest{Qty: &qty})
	suite.ErrorIs(err, ErrValidation)
}

func (suite *CartServiceTestSuite) TestRemoveIsUnconditional() {
	_, err := suite.service.Add(suite.ctx, "sess", suite.product.ID, 1)
	suite.Require().NoError(err)

	summary, err := suite.service.Remove(suite.ctx, "sess", suite.product.ID.String())
	suite.Require().NoError(err)
	suite.Equal(int64(0), summary.Items)

	_, err = suite.service.Remove(suite.ctx, "sess", "not-there")
	suite.NoError(err)

	_, err = suite.service.Remove(suite.ctx, "sess", "  ")
	suite.ErrorIs(err, ErrValidation)
}

func (suite *CartServiceTestSuite) TestViewDropsStaleProductsWithoutPruning() {
	other := testutil.CreateProduct(suite.T(), suite.db, "track-b", 200, true)
	_, err := suite.service.Add(suite.ctx, "sess", suite.product.ID, 2)
	suite.Require().NoError(err)
	_, err = suite.service.Add(suite.ctx, "sess", other.ID, 1)
	suite.Require().NoError(err)
	_, err = suite.store.Add(suite.ctx, "sess", uuid.NewString(), 9)
	suite.Require().NoError(err)

	suite.Require().NoError(suite.db.Model(other).Update("active", false).Error)

	summary, err := suite.service.View(suite.ctx, "sess")
	suite.Require().NoError(err)
	suite.Equal(int64(2), summary.Items)
	suite.Equal(int64(1000), summary.SubtotalPennies)
	suite.Len(summary.Lines, 1)

	cart, err := suite.service.Snapshot(suite.ctx, "sess")
	suite.Require().NoError(err)
	suite.Len(cart, 3)
}

func TestCartServiceSuite(t *testing.T) {
	suite.Run(t, new(CartServiceTestSuite))
}
