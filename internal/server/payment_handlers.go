package server

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/maib-ecomm/maib-gateway/internal/nonce"
	"github.com/maib-ecomm/maib-gateway/internal/payment/domain"
	"go.uber.org/zap"
)

// Notification bodies are small JSON documents; anything past this is noise.
const maxCallbackBody = 1 << 20

// PaymentCallback
// POST /maib/callback
//
// The processor expects the literal strings "OK" or "ERROR" as the response
// body, nothing else.
func (s *Server) PaymentCallback(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBody))
	if err != nil {
		s.log.Warn("callback body read failed", zap.Error(err))
		c.String(http.StatusOK, string(domain.AckError))
		return
	}
	ack := s.payments.HandleCallback(c.Request.Context(), body)
	c.String(http.StatusOK, string(ack))
}

// CallbackBrowserAccess
// GET /maib/callback
//
// Shoppers occasionally land here by replaying the URL from their history.
// Send them back to the store instead of showing a bare error.
func (s *Server) CallbackBrowserAccess(c *gin.Context) {
	s.redirectWithNotice(c, s.storeURL(s.cfg.Store.CartURL), "This link is for payment notifications only.")
}

// ReturnOK
// GET /maib/return/ok
func (s *Server) ReturnOK(c *gin.Context) { s.handleReturn(c, "ok") }

// ReturnFail
// GET /maib/return/fail
func (s *Server) ReturnFail(c *gin.Context) { s.handleReturn(c, "fail") }

func (s *Server) handleReturn(c *gin.Context, outcome string) {
	orderID := c.Query("orderId")
	payID := c.Query("payId")

	// Nothing in the query is trusted until the nonce checks out.
	if !nonce.Verify(s.cfg.Maib.SignatureKey, "return:"+orderID, c.Query("nonce")) {
		s.log.Warn("return link with invalid nonce",
			zap.String("orderId", orderID),
			zap.String("outcome", outcome))
		s.redirectWithNotice(c, s.storeURL(s.cfg.Store.CartURL), "Invalid payment return link.")
		return
	}

	result := s.payments.HandleReturn(c.Request.Context(), orderID, payID, outcome)
	s.redirectWithNotice(c, result.URL, result.Notice)
}

func (s *Server) redirectWithNotice(c *gin.Context, target, notice string) {
	if notice != "" {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + "notice=" + url.QueryEscape(notice)
	}
	c.Redirect(http.StatusFound, target)
}

func (s *Server) storeURL(path string) string {
	return strings.TrimRight(s.cfg.Store.BaseURL, "/") + path
}
