package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/egannguyen/kiosk-ordering/internal/entity"
	"github.com/egannguyen/kiosk-ordering/internal/service"
)

// SubscriberCounter reports live connections per channel for /health.
type SubscriberCounter interface {
	Count(ch entity.Channel) int
}

// Handler handles HTTP requests for the kiosk API.
type Handler struct {
	carts    *service.CartService
	orders   *service.OrderService
	products *service.ProductService
	hub      SubscriberCounter
}

func NewHandler(carts *service.CartService, orders *service.OrderService, products *service.ProductService, hub SubscriberCounter) *Handler {
	return &Handler{
		carts:    carts,
		orders:   orders,
		products: products,
		hub:      hub,
	}
}

// NewRouter returns a gin engine with the shared middleware installed.
func NewRouter(serviceName string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), otelgin.Middleware(serviceName), RequestLogger(), EnableCORS())
	return r
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.handleHealth)
	r.GET("/products", h.handleListProducts)
	r.GET("/products/:id", h.handleGetProduct)
	r.GET("/products/:id/available", h.handleProductAvailability)

	user := r.Group("", RequireUser())
	user.POST("/cart", h.handleAddToCart)
	user.GET("/cart", h.handleListCart)
	user.PUT("/cart/:id", h.handleUpdateCartLine)
	user.DELETE("/cart/:id", h.handleRemoveCartLine)
	user.POST("/orders", h.handlePlaceOrder)
	user.GET("/orders", h.handleGetOrders)

	staff := r.Group("/staff", RequireUser(), RequireStaff())
	staff.GET("/orders", h.handleListOrders)
	staff.PUT("/orders/:id", h.handleUpdateOrderStatus)
	staff.POST("/products", h.handleAddProduct)
	staff.PUT("/products/:id", h.handleUpdateProduct)
	staff.DELETE("/products/:id", h.handleDeleteProduct)
	staff.GET("/products/category/:category", h.handleProductsByCategory)
}

func (h *Handler) handleHealth(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if h.hub != nil {
		body["subscribers"] = gin.H{
			string(entity.ChannelOrders):   h.hub.Count(entity.ChannelOrders),
			string(entity.ChannelProducts): h.hub.Count(entity.ChannelProducts),
		}
	}
	c.JSON(http.StatusOK, body)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, entity.ValidationFailed("invalid id %q", c.Param("id")))
		return 0, false
	}
	return id, true
}

// --- products ---

type productRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description" binding:"required"`
	Category    string           `json:"category" binding:"required"`
	ImageURL    string           `json:"image_url"`
	Price       decimal.Decimal  `json:"price"`
	Variants    []entity.Variant `json:"variants"`
	Quantity    int              `json:"quantity" binding:"gte=0"`
}

func (r productRequest) toProduct(id int64) *entity.Product {
	return &entity.Product{
		ID:          id,
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		ImageURL:    r.ImageURL,
		Price:       r.Price,
		Variants:    r.Variants,
		Quantity:    r.Quantity,
	}
}

func (h *Handler) handleListProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if products == nil {
		products = []entity.Product{}
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) handleGetProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) handleProductAvailability(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	available, err := h.products.Availability(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_id": id, "available": available})
}

func (h *Handler) handleProductsByCategory(c *gin.Context) {
	products, err := h.products.ByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		writeError(c, err)
		return
	}
	if products == nil {
		products = []entity.Product{}
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) handleAddProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p := req.toProduct(0)
	if err := h.products.Add(c.Request.Context(), p); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) handleUpdateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p := req.toProduct(id)
	if err := h.products.Update(c.Request.Context(), p); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) handleDeleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- cart ---

type addToCartRequest struct {
	ProductID int64           `json:"product_id" binding:"required,gt=0"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity" binding:"required,gte=1"`
	Price     decimal.Decimal `json:"price"`
}

type updateCartLineRequest struct {
	Quantity int    `json:"quantity" binding:"required,gte=1"`
	Size     string `json:"size"`
}

type cartResponse struct {
	Lines []entity.CartLine `json:"lines"`
	Total decimal.Decimal   `json:"total"`
}

func (h *Handler) handleAddToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	line, err := h.carts.AddToCart(c.Request.Context(), entity.AddToCart{
		UserID:    c.GetString(ctxUserID),
		ProductID: req.ProductID,
		Size:      req.Size,
		Quantity:  req.Quantity,
		Price:     req.Price,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, line)
}

func (h *Handler) handleListCart(c *gin.Context) {
	list := h.carts.ListUnordered
	if all, _ := strconv.ParseBool(c.Query("all")); all {
		list = h.carts.ListAll
	}
	lines, err := list(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		writeError(c, err)
		return
	}
	if lines == nil {
		lines = []entity.CartLine{}
	}
	c.JSON(http.StatusOK, cartResponse{Lines: lines, Total: entity.Total(lines)})
}

func (h *Handler) handleUpdateCartLine(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateCartLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	line, err := h.carts.UpdateQuantity(c.Request.Context(), entity.UpdateCartLine{
		LineID:   id,
		UserID:   c.GetString(ctxUserID),
		Quantity: req.Quantity,
		Size:     req.Size,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, line)
}

func (h *Handler) handleRemoveCartLine(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.carts.Remove(c.Request.Context(), c.GetString(ctxUserID), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- orders ---

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handlePlaceOrder(c *gin.Context) {
	order, err := h.orders.PlaceOrder(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) handleGetOrders(c *gin.Context) {
	orders, err := h.orders.OrdersForUser(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		writeError(c, err)
		return
	}
	if orders == nil {
		orders = []entity.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) handleListOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if orders == nil {
		orders = []entity.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) handleUpdateOrderStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	order, err := h.orders.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
