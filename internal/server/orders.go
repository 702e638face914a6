package server

import (
	"encoding/json"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	orderdomain "github.com/maib-ecomm/maib-gateway/internal/order/domain"
	"gorm.io/datatypes"
)

type createOrderRequest struct {
	Currency      string             `json:"currency" binding:"required,len=3"`
	Amount        float64            `json:"amount" binding:"required,gt=0"`
	ShippingTotal float64            `json:"shipping_total"`
	CustomerID    string             `json:"customer_id"`
	ClientName    string             `json:"client_name"`
	Email         string             `json:"email"`
	Phone         string             `json:"phone"`
	Items         []orderdomain.Item `json:"items"`
}

// CreateOrder
// POST /api/v1/orders
func (s *Server) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var customerID snowflake.ID
	if req.CustomerID != "" {
		id, err := snowflake.ParseString(req.CustomerID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid customer_id"})
			return
		}
		customerID = id
	}

	items, err := json.Marshal(req.Items)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid items"})
		return
	}

	now := s.clock.Now(c.Request.Context())
	order := &orderdomain.Order{
		ID:            s.node.Generate(),
		Status:        orderdomain.StatusPending,
		Currency:      req.Currency,
		Amount:        req.Amount,
		ShippingTotal: req.ShippingTotal,
		CustomerID:    customerID,
		ClientName:    req.ClientName,
		Email:         req.Email,
		Phone:         req.Phone,
		Items:         datatypes.JSON(items),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.orders.Insert(c.Request.Context(), s.db, order); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, order)
}

// GetOrder
// GET /api/v1/orders/:id
func (s *Server) GetOrder(c *gin.Context) {
	orderID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	order, err := s.orders.FindByID(c.Request.Context(), s.db, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	notes, err := s.orders.ListNotes(c.Request.Context(), s.db, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order, "notes": notes})
}

// Checkout
// POST /api/v1/checkout/:id
//
// Starts a payment for a pending order and hands back the hosted payment
// page URL for the storefront to redirect to.
func (s *Server) Checkout(c *gin.Context) {
	orderID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	result, err := s.payments.Initiate(c.Request.Context(), orderID, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, gin.H{"pay_id": result.PayID, "redirect_url": result.RedirectURL})
}

type refundRequest struct {
	// Zero means refund the full order amount.
	Amount float64 `json:"amount" binding:"gte=0"`
}

// RefundOrder
// POST /api/v1/orders/:id/refund
func (s *Server) RefundOrder(c *gin.Context) {
	orderID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	var req refundRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	amount := req.Amount
	if amount == 0 {
		order, err := s.orders.FindByID(c.Request.Context(), s.db, orderID)
		if err != nil {
			respondError(c, err)
			return
		}
		amount = order.Amount
	}

	if err := s.payments.Refund(c.Request.Context(), orderID, amount); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, gin.H{"refunded": amount})
}

// CompleteOrder
// POST /api/v1/orders/:id/complete
//
// Captures a two-step payment that is on hold.
func (s *Server) CompleteOrder(c *gin.Context) {
	orderID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	if err := s.payments.CompleteTwoStep(c.Request.Context(), orderID); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, gin.H{"completed": true})
}
