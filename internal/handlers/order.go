// internal/handlers/order.go
package handlers

import (
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/digital-storefront/internal/services"
	"github.com/javajoker/digital-storefront/internal/utils"
)

func init() {
	// the platform tables are not guaranteed to know audio types
	for ext, typ := range map[string]string{
		".mp3":  "audio/mpeg",
		".wav":  "audio/wav",
		".flac": "audio/flac",
		".ogg":  "audio/ogg",
		".zip":  "application/zip",
	} {
		mime.AddExtensionType(ext, typ)
	}
}

type OrderHandler struct {
	orderService *services.OrderService
}

func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// GET /orders
func (h *OrderHandler) GetOrderHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	orders, total, err := h.orderService.GetOrderHistory(userID, params)
	if err != nil {
		respondError(c, err, "order")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(orders, total, params))
}

// GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(userID, orderID)
	if err != nil {
		respondError(c, err, "order")
		return
	}

	utils.SuccessResponse(c, order)
}

// GET /orders/downloads
func (h *OrderHandler) GetPurchases(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	purchases, err := h.orderService.GetPurchases(userID)
	if err != nil {
		respondError(c, err, "asset")
		return
	}

	utils.SuccessResponse(c, purchases)
}

// GET /orders/download/:id streams the file behind an entitlement as an attachment.
func (h *OrderHandler) Download(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	entitlementID, ok := uuidParam(c, "id", "asset")
	if !ok {
		return
	}

	download, err := h.orderService.OpenDownload(c.Request.Context(), userID, entitlementID)
	if err != nil {
		respondError(c, err, "asset")
		return
	}
	defer download.Body.Close()

	contentType := mime.TypeByExtension(filepath.Ext(download.FileName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.DataFromReader(http.StatusOK, download.Size, contentType, download.Body, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": download.FileName}),
	})
}
