// internal/handlers/checkout.go
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/digital-storefront/internal/i18n"
	"github.com/javajoker/digital-storefront/internal/services"
	"github.com/javajoker/digital-storefront/internal/utils"
)

const maxWebhookBodyBytes = int64(65536)

type CheckoutHandler struct {
	checkoutService *services.CheckoutService
	cartService     *services.CartService
	cartURL         string
}

func NewCheckoutHandler(checkoutService *services.CheckoutService, cartService *services.CartService, cartURL string) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		cartService:     cartService,
		cartURL:         cartURL,
	}
}

// POST /checkout
func (h *CheckoutHandler) Start(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	cart, err := h.cartService.Snapshot(c.Request.Context(), utils.GetSessionIDFromContext(c))
	if err != nil {
		respondError(c, err, "product")
		return
	}

	result, err := h.checkoutService.Start(c.Request.Context(), userID, cart)
	if errors.Is(err, services.ErrEmptyCart) {
		c.Redirect(http.StatusFound, h.cartURL)
		return
	}
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to start checkout")
		utils.InternalErrorResponse(c, i18n.T(lang, i18n.KeyCheckoutFailed))
		return
	}

	if utils.WantsJSON(c) {
		utils.SuccessResponse(c, gin.H{
			"order_id":     result.Order.ID,
			"checkout_url": result.RedirectURL,
		})
		return
	}
	c.Redirect(http.StatusSeeOther, result.RedirectURL)
}

// GET /checkout/success
func (h *CheckoutHandler) Success(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"message":    i18n.T(utils.GetLangFromContext(c), i18n.KeyCheckoutSuccess),
		"session_id": c.Query("session_id"),
	})
}

// GET /checkout/cancel
func (h *CheckoutHandler) Cancel(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyCheckoutCancel),
	})
}

// POST /checkout/webhook answers with a bare status. Only authenticity failures and unreadable
// completions are rejected; everything else is acknowledged so the provider does not retry.
func (h *CheckoutHandler) Webhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		logrus.WithError(err).Warn("Failed to read webhook body")
		c.Status(http.StatusBadRequest)
		return
	}

	event, err := h.checkoutService.VerifyWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		logrus.WithError(err).WithField("ip", c.ClientIP()).Warn("Rejected webhook")
		c.Status(http.StatusBadRequest)
		return
	}

	if _, err := h.checkoutService.HandleEvent(c.Request.Context(), event); err != nil {
		if errors.Is(err, services.ErrInvalidEvent) {
			logrus.WithError(err).WithField("event_id", event.ID).Warn("Malformed webhook event")
			c.Status(http.StatusBadRequest)
			return
		}
		logrus.WithError(err).WithFields(logrus.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
		}).Error("Webhook reconciliation failed")
	}

	c.Status(http.StatusOK)
}
