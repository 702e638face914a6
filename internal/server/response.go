package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maib-ecomm/maib-gateway/internal/maib"
	orderdomain "github.com/maib-ecomm/maib-gateway/internal/order/domain"
	"github.com/maib-ecomm/maib-gateway/internal/payment/domain"
)

func respondData(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func respondError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusForError(err), gin.H{"error": err.Error()})
}

func statusForError(err error) int {
	var verr *maib.ValidationError
	switch {
	case errors.Is(err, orderdomain.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyRefunded),
		errors.Is(err, domain.ErrMissingTransactionID),
		errors.Is(err, domain.ErrOrderNotPayable):
		return http.StatusConflict
	case errors.Is(err, domain.ErrMissingCredentials),
		errors.Is(err, domain.ErrUnknownTransactionType):
		return http.StatusInternalServerError
	case errors.Is(err, domain.ErrUnsupportedCurrency),
		errors.As(err, &verr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
