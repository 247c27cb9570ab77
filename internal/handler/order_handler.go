package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"oshikake/internal/domain"
	"oshikake/internal/export"
	"oshikake/internal/port"
	"oshikake/internal/service"
)

// OrderHandler handles order read, delete, and export endpoints.
type OrderHandler struct {
	orderService service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func listFilter(c *gin.Context) port.OrderListFilter {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if offset < 0 {
		offset = 0
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return port.OrderListFilter{
		Category: domain.Category(c.Query("category")),
		Search:   c.Query("q"),
		Offset:   offset,
		Limit:    limit,
	}
}

// List handles GET /api/v1/orders
func (h *OrderHandler) List(c *gin.Context) {
	filter := listFilter(c)
	headers, total, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, headers, PagMeta{Total: total, Offset: filter.Offset, Limit: filter.Limit})
}

// Get handles GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orderService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, order)
}

// Delete handles DELETE /api/v1/orders/:id
func (h *OrderHandler) Delete(c *gin.Context) {
	if err := h.orderService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

// Stats handles GET /api/v1/orders/stats
func (h *OrderHandler) Stats(c *gin.Context) {
	stats, err := h.orderService.Stats(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, stats)
}

// DocumentURL handles GET /api/v1/orders/:id/document
func (h *OrderHandler) DocumentURL(c *gin.Context) {
	url, err := h.orderService.DocumentURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"url": url})
}

// Export handles GET /api/v1/orders/export
func (h *OrderHandler) Export(c *gin.Context) {
	filter := listFilter(c)
	filter.Offset = 0
	filter.Limit = 10000

	orders, err := h.orderService.Export(c.Request.Context(), filter)
	if err != nil {
		HandleError(c, err)
		return
	}

	data, err := export.OrdersXLSX(orders)
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := fmt.Sprintf("orders-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
