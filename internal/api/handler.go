package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"stationery-store/internal/broker"
	"stationery-store/internal/models"
	"stationery-store/internal/schedule"
	"stationery-store/internal/service"
	"stationery-store/internal/store"
	"stationery-store/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	bookings   *service.BookingService
	stock      *service.StockService
	rushes     *service.RushService
	publisher  broker.Publisher
	adminToken string
	demoMode   bool
}

// NewHandler creates a new HTTP handler
func NewHandler(
	bookings *service.BookingService,
	stock *service.StockService,
	rushes *service.RushService,
	publisher broker.Publisher,
	adminToken string,
	demoMode bool,
) *Handler {
	return &Handler{
		bookings:   bookings,
		stock:      stock,
		rushes:     rushes,
		publisher:  publisher,
		adminToken: adminToken,
		demoMode:   demoMode,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/items", h.listItems)
		v1.GET("/slots", h.listSlots)
		v1.GET("/rush", h.getRushMap)
		v1.POST("/bookings", h.createBooking)
		v1.GET("/orders/:orderNumber", h.getOrderStatus)
		v1.POST("/payments/webhook", h.paymentWebhook)

		admin := v1.Group("/admin", h.adminAuth())
		{
			admin.GET("/bookings", h.listBookings)
			admin.PATCH("/bookings/:id/status", h.updateOrderStatus)
			admin.DELETE("/bookings/:id", h.deleteBooking)
			admin.POST("/items", h.createItem)
			admin.DELETE("/items/:id", h.deleteItem)
			admin.PUT("/items/:id/stock", h.setStock)
			admin.POST("/items/:id/stock/adjust", h.adjustStock)
			admin.PUT("/rush", h.setRushStatus)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"demo":   h.demoMode,
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// listItems returns the catalog with current stock levels.
func (h *Handler) listItems(c *gin.Context) {
	items, err := h.stock.Items(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load items",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// listSlots returns the pickup slots for a date, each annotated with its
// rush status and whether it already passed.
func (h *Handler) listSlots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}

	rushMap, err := h.rushes.RushMap(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to resolve rush statuses",
			"details": err.Error(),
		})
		return
	}

	now := time.Now()
	slots := schedule.Slots()
	out := make([]gin.H, 0, len(slots))
	for _, slot := range slots {
		out = append(out, gin.H{
			"slot": slot,
			"rush": rushMap[slot],
			"past": schedule.IsPast(date, slot, now),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"date":  date,
		"slots": out,
	})
}

// getRushMap returns the resolved rush status for every slot of a date.
func (h *Handler) getRushMap(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}

	rushMap, err := h.rushes.RushMap(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to resolve rush statuses",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date": date,
		"rush": rushMap,
	})
}

// createBooking handles checkout
func (h *Handler) createBooking(c *gin.Context) {
	var req service.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	conf, err := h.bookings.CreateBooking(c.Request.Context(), &req)
	if err != nil {
		h.writeBookingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, conf)
}

func (h *Handler) writeBookingError(c *gin.Context, err error) {
	var preErr *service.PreconditionError
	if errors.As(err, &preErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": preErr.Msg})
		return
	}

	var stockErr *service.StockError
	if errors.As(err, &stockErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   stockErr.Result.Message,
			"details": stockErr.Result.Details,
		})
		return
	}

	if errors.Is(err, service.ErrPaymentCancelled) || errors.Is(err, service.ErrPaymentDeclined) {
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
		return
	}

	var persistErr *service.PersistenceError
	if errors.As(err, &persistErr) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to save your booking",
			"details": persistErr.Err.Error(),
			"hint":    "Retry with allow_demo_fallback to receive a non-durable confirmation",
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Failed to create booking",
		"details": err.Error(),
	})
}

// getOrderStatus handles order lookup by order number
func (h *Handler) getOrderStatus(c *gin.Context) {
	booking, items, err := h.bookings.GetOrderStatus(c.Request.Context(), c.Param("orderNumber"))
	if err != nil {
		var preErr *service.PreconditionError
		switch {
		case errors.As(err, &preErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": preErr.Msg})
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to look up order",
				"details": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order":       booking,
		"items":       items,
		"status_text": models.OrderStatusText(booking.OrderStatus),
	})
}

// paymentWebhookRequest is the provider's capture callback payload.
type paymentWebhookRequest struct {
	EventID     string  `json:"event_id" binding:"required"`
	Type        string  `json:"type" binding:"required"`
	OrderNumber string  `json:"order_number" binding:"required"`
	TxID        string  `json:"tx_id"`
	Amount      float64 `json:"amount"`
	Reason      string  `json:"reason"`
}

// paymentWebhook ingests provider callbacks. In broker mode the event is
// published and the payment worker applies it; in demo mode it is applied
// in-line.
func (h *Handler) paymentWebhook(c *gin.Context) {
	var req paymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid webhook payload",
			"details": err.Error(),
		})
		return
	}

	base := models.BaseEvent{
		EventID:   req.EventID,
		Timestamp: time.Now(),
	}

	ctx := c.Request.Context()
	var err error
	switch req.Type {
	case "payment.captured":
		base.EventType = models.EventTypePaymentCaptured
		event := &models.PaymentCapturedEvent{
			BaseEvent:   base,
			OrderNumber: req.OrderNumber,
			TxID:        req.TxID,
			Amount:      req.Amount,
		}
		if h.demoMode {
			err = h.bookings.HandlePaymentCaptured(ctx, event)
		} else {
			err = h.publisher.PublishPaymentCaptured(ctx, event)
		}
	case "payment.failed":
		base.EventType = models.EventTypePaymentFailed
		event := &models.PaymentFailedEvent{
			BaseEvent:   base,
			OrderNumber: req.OrderNumber,
			Reason:      req.Reason,
		}
		if h.demoMode {
			err = h.bookings.HandlePaymentFailed(ctx, event)
		} else {
			err = h.publisher.PublishPaymentFailed(ctx, event)
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown webhook type"})
		return
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to process webhook",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// adminAuth requires the configured admin token on every admin route.
func (h *Handler) adminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.adminToken == "" || c.GetHeader("X-Admin-Token") != h.adminToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// listBookings handles the admin booking list with optional filters
func (h *Handler) listBookings(c *gin.Context) {
	filter := service.ListFilter{
		Search:        c.Query("search"),
		Date:          c.Query("date"),
		OrderStatus:   c.Query("order_status"),
		PaymentStatus: c.Query("payment_status"),
	}

	bookings, err := h.bookings.ListBookings(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list bookings",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// updateOrderStatus handles admin pickup-status changes
func (h *Handler) updateOrderStatus(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	var req struct {
		OrderStatus string `json:"order_status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.bookings.UpdateOrderStatus(c.Request.Context(), bookingID, req.OrderStatus); err != nil {
		var preErr *service.PreconditionError
		switch {
		case errors.As(err, &preErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": preErr.Msg})
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to update order status",
				"details": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// deleteBooking handles admin booking deletion
func (h *Handler) deleteBooking(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	if err := h.bookings.DeleteBooking(c.Request.Context(), bookingID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to delete booking",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// createItem handles admin catalog additions
func (h *Handler) createItem(c *gin.Context) {
	var req struct {
		Name          string  `json:"name" binding:"required"`
		Price         float64 `json:"price" binding:"required,gt=0"`
		StockQuantity int     `json:"stock_quantity" binding:"min=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	item := &models.Item{
		Name:          req.Name,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
	}
	if err := h.stock.CreateItem(c.Request.Context(), item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to create item",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// deleteItem handles admin catalog removals
func (h *Handler) deleteItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	if err := h.stock.DeleteItem(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to delete item",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// setStock handles absolute stock updates
func (h *Handler) setStock(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	var req struct {
		Quantity int `json:"quantity" binding:"min=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.stock.SetStock(c.Request.Context(), id, req.Quantity); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to set stock",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// adjustStock handles relative stock updates, floored at zero
func (h *Handler) adjustStock(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	var req struct {
		Delta int `json:"delta" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	quantity, err := h.stock.AdjustStock(c.Request.Context(), id, req.Delta)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to adjust stock",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stock_quantity": quantity})
}

// setRushStatus handles admin rush overrides
func (h *Handler) setRushStatus(c *gin.Context) {
	var req struct {
		Date     string `json:"date" binding:"required"`
		TimeSlot string `json:"time_slot" binding:"required"`
		Status   string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.rushes.SetStatus(c.Request.Context(), req.Date, req.TimeSlot, req.Status); err != nil {
		var preErr *service.PreconditionError
		if errors.As(err, &preErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": preErr.Msg})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to set rush status",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
