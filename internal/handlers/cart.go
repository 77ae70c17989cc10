// internal/handlers/cart.go
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/digital-storefront/internal/i18n"
	"github.com/javajoker/digital-storefront/internal/services"
	"github.com/javajoker/digital-storefront/internal/utils"
)

type CartHandler struct {
	cartService *services.CartService
	cartURL     string
}

func NewCartHandler(cartService *services.CartService, cartURL string) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		cartURL:     cartURL,
	}
}

// GET /cart
func (h *CartHandler) View(c *gin.Context) {
	summary, err := h.cartService.View(c.Request.Context(), utils.GetSessionIDFromContext(c))
	if err != nil {
		respondError(c, err, "product")
		return
	}

	utils.SuccessResponse(c, summary)
}

// POST /cart/add/:product_id
func (h *CartHandler) Add(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		h.fail(c, http.StatusNotFound, i18n.KeyProductNotFound)
		return
	}

	qty, ok := h.requestedQty(c)
	if !ok {
		return
	}

	summary, err := h.cartService.Add(c.Request.Context(), utils.GetSessionIDFromContext(c), productID, qty)
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.respond(c, summary)
}

// POST /cart/update
func (h *CartHandler) Update(c *gin.Context) {
	var req services.CartUpdateRequest
	if err := c.ShouldBind(&req); err != nil {
		h.fail(c, http.StatusBadRequest, i18n.KeyValidationInvalid, "qty")
		return
	}

	summary, err := h.cartService.Update(c.Request.Context(), utils.GetSessionIDFromContext(c), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.respond(c, summary)
}

// POST /cart/remove[/:product_id]
func (h *CartHandler) Remove(c *gin.Context) {
	productID := c.Param("product_id")
	if productID == "" {
		var req services.CartUpdateRequest
		if err := c.ShouldBind(&req); err != nil {
			h.fail(c, http.StatusBadRequest, i18n.KeyCartMissingProduct)
			return
		}
		productID = req.ProductID
	}

	summary, err := h.cartService.Remove(c.Request.Context(), utils.GetSessionIDFromContext(c), productID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.respond(c, summary)
}

// POST /cart/clear
func (h *CartHandler) Clear(c *gin.Context) {
	summary, err := h.cartService.Clear(c.Request.Context(), utils.GetSessionIDFromContext(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.respond(c, summary)
}

// requestedQty reads qty from a JSON body, the query string or a form field, defaulting to 1.
func (h *CartHandler) requestedQty(c *gin.Context) (int64, bool) {
	if c.Request.Method == http.MethodPost && c.ContentType() == gin.MIMEJSON {
		var body struct {
			Qty *int64 `json:"qty"`
		}
		if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
			h.fail(c, http.StatusBadRequest, i18n.KeyValidationInvalid, "qty")
			return 0, false
		}
		if body.Qty == nil {
			return 1, true
		}
		return *body.Qty, true
	}

	raw := strings.TrimSpace(c.Query("qty"))
	if raw == "" {
		raw = strings.TrimSpace(c.PostForm("qty"))
	}
	if raw == "" {
		return 1, true
	}

	qty, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.fail(c, http.StatusBadRequest, i18n.KeyValidationInvalid, "qty")
		return 0, false
	}
	return qty, true
}

func (h *CartHandler) respond(c *gin.Context, summary *services.CartSummary) {
	if !utils.WantsJSON(c) {
		c.Redirect(http.StatusFound, h.cartURL)
		return
	}

	utils.OKResponse(c, gin.H{
		"items":            summary.Items,
		"subtotal":         summary.SubtotalPennies,
		"subtotal_display": summary.SubtotalDisplay,
	})
}

func (h *CartHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		h.fail(c, http.StatusNotFound, i18n.KeyProductNotFound)
	case errors.Is(err, services.ErrNotInCart):
		h.fail(c, http.StatusBadRequest, i18n.KeyCartNotInCart)
	case errors.Is(err, services.ErrValidation):
		h.fail(c, http.StatusBadRequest, i18n.KeyCartMissingProduct)
	default:
		respondError(c, err, "product")
	}
}

func (h *CartHandler) fail(c *gin.Context, status int, key string, args ...interface{}) {
	utils.NotOKResponse(c, status, i18n.T(utils.GetLangFromContext(c), key, args...))
}
