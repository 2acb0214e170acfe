package handler

import (
	"errors"
	"net/http"

	"inventory-api/internal/service"
	"inventory-api/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeError maps domain errors onto HTTP statuses and renders the standard
// error envelope.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidCoupon):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrAlreadyPaid),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrAlreadyRefunded):
		status = http.StatusConflict
	case errors.Is(err, service.ErrBusy):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, response.Error(status, err.Error()))
}
