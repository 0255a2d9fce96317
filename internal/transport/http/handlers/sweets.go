package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sweetworks/sweetshop-api/internal/core/domain"
	"github.com/sweetworks/sweetshop-api/internal/transport/http/middleware"
	"github.com/sweetworks/sweetshop-api/internal/usecase"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// SweetHandler exposes the catalog and purchase endpoints.
type SweetHandler struct {
	sweets *usecase.SweetService
}

// NewSweetHandler constructs a SweetHandler.
func NewSweetHandler(sweets *usecase.SweetService) *SweetHandler {
	return &SweetHandler{sweets: sweets}
}

// RegisterRoutes binds catalog routes. Browsing is anonymous; purchasing
// requires authentication and mutating inventory additionally requires the
// admin role.
func (h *SweetHandler) RegisterRoutes(r *gin.RouterGroup, authMiddleware, adminMiddleware gin.HandlerFunc) {
	r.GET("", h.list)
	r.GET("/search", h.search)
	r.GET("/:id", h.get)

	r.POST("/:id/purchase", authMiddleware, h.purchase)

	r.POST("", authMiddleware, adminMiddleware, h.create)
	r.PUT("/:id", authMiddleware, adminMiddleware, h.update)
	r.DELETE("/:id", authMiddleware, adminMiddleware, h.delete)
	r.POST("/:id/restock", authMiddleware, adminMiddleware, h.restock)
}

// RegisterPurchaseRoutes binds the purchase history endpoint.
func (h *SweetHandler) RegisterPurchaseRoutes(r *gin.RouterGroup) {
	r.GET("", h.purchaseHistory)
}

func parsePage(c *gin.Context) domain.Page {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	size, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if err != nil || size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	return domain.Page{Number: page, Size: size}
}

func sweetErrorCases() []ErrorCase {
	return []ErrorCase{
		{Err: usecase.ErrSweetNotFound, Status: http.StatusNotFound, Message: "sweet not found"},
		{Err: usecase.ErrSweetExists, Status: http.StatusConflict, Message: "sweet already exists"},
		{Err: usecase.ErrInvalidSweet, Status: http.StatusBadRequest, Message: "invalid sweet payload"},
		{Err: usecase.ErrInvalidQuantity, Status: http.StatusBadRequest, Message: "quantity must be positive"},
		{Err: usecase.ErrInsufficientStock, Status: http.StatusConflict, Message: "insufficient stock"},
	}
}

func (h *SweetHandler) list(c *gin.Context) {
	page := parsePage(c)

	sweets, total, err := h.sweets.List(c.Request.Context(), page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list sweets"))
		return
	}

	items := make([]SweetResponse, 0, len(sweets))
	for i := range sweets {
		items = append(items, newSweetResponse(&sweets[i]))
	}

	c.JSON(http.StatusOK, PageResponse[SweetResponse]{
		Items:      items,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalItems: total,
	})
}

func (h *SweetHandler) search(c *gin.Context) {
	page := parsePage(c)

	filter := domain.SweetFilter{Name: strings.TrimSpace(c.Query("name"))}

	if category := strings.TrimSpace(c.Query("category")); category != "" {
		value := domain.SweetCategory(category)
		filter.Category = &value
	}
	if raw := c.Query("min_price"); raw != "" {
		cents, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "min_price must be an integer cent amount"))
			return
		}
		filter.MinPriceCents = &cents
	}
	if raw := c.Query("max_price"); raw != "" {
		cents, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "max_price must be an integer cent amount"))
			return
		}
		filter.MaxPriceCents = &cents
	}

	sweets, total, err := h.sweets.Search(c.Request.Context(), filter, page)
	if err != nil {
		RespondWithMappedError(c, err, sweetErrorCases(), http.StatusInternalServerError, "search failed")
		return
	}

	items := make([]SweetResponse, 0, len(sweets))
	for i := range sweets {
		items = append(items, newSweetResponse(&sweets[i]))
	}

	c.JSON(http.StatusOK, PageResponse[SweetResponse]{
		Items:      items,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalItems: total,
	})
}

func (h *SweetHandler) get(c *gin.Context) {
	sweet, err := h.sweets.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, sweetErrorCases(), http.StatusInternalServerError, "failed to load sweet")
		return
	}

	c.JSON(http.StatusOK, newSweetResponse(sweet))
}

func (h *SweetHandler) create(c *gin.Context) {
	var req SweetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid sweet payload"))
		return
	}

	sweet, err := h.sweets.Create(c.Request.Context(), usecase.SweetInput{
		Name:        req.Name,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
		Quantity:    req.Quantity,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		RespondWithMappedError(c, err, sweetErrorCases(), http.StatusInternalServerError, "failed to create sweet")
		return
	}

	c.JSON(http.StatusCreated, newSweetResponse(sweet))
}

func (h *SweetHandler) update(c *gin.Context) {
	var req SweetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid sweet payload"))
		return
	}

	sweet, err := h.sweets.Update(c.Request.Context(), c.Param("id"), usecase.SweetInput{
		Name:        req.Name,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
		Quantity:    req.Quantity,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		RespondWithMappedError(c, err, sweetErrorCases(), http.StatusInternalServerError, "failed to update sweet")
		return
	}

	c.JSON(http.StatusOK, newSweetResponse(sweet))
}

func (h *SweetHandler) delete(c *gin.Context) {
	if err := h.sweets.Delete(c.Request.Context(), c.Param("id")); err != nil {
		RespondWithMappedError(c, err, sweetErrorCases(), http.StatusInternalServerError, "failed to delete sweet")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *SweetHandler) purchase(c *gin.Context) {
	var req PurchaseRequest
	_ = c.ShouldBindJSON(&req)
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	purchase, err := h.sweets.Purchase(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.Quantity)
	if err != nil {
		RespondWithMappedError(c, err, sweetErrorCases(), http.StatusInternalServerError, "purchase failed")
		return
	}

	c.JSON(http.StatusOK, newPurchaseResponse(purchase))
}

func (h *SweetHandler) restock(c *gin.Context) {
	var req RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid restock payload"))
		return
	}

	sweet, err := h.sweets.Restock(c.Request.Context(), c.Param("id"), req.Quantity)
	if err != nil {
		RespondWithMappedError(c, err, sweetErrorCases(), http.StatusInternalServerError, "restock failed")
		return
	}

	c.JSON(http.StatusOK, newSweetResponse(sweet))
}

func (h *SweetHandler) purchaseHistory(c *gin.Context) {
	page := parsePage(c)

	purchases, total, err := h.sweets.PurchaseHistory(c.Request.Context(), middleware.GetUserID(c), page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to load purchase history"))
		return
	}

	items := make([]PurchaseResponse, 0, len(purchases))
	for i := range purchases {
		items = append(items, newPurchaseResponse(&purchases[i]))
	}

	c.JSON(http.StatusOK, PageResponse[PurchaseResponse]{
		Items:      items,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalItems: total,
	})
}
