package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/inventory-tracker/backend-go/internal/domain"
)

var errMalformedBody = errors.New("malformed request body")

func statusFor(err error) int {
	switch {
	case errors.Is(err, errMalformedBody):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidItem),
		errors.Is(err, domain.ErrUnknownField),
		errors.Is(err, domain.ErrInvalidSeries):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Server errors keep their
// details out of the body.
func respondError(c *gin.Context, err error, message string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(message)
		c.JSON(status, gin.H{"error": message})
		return
	}
	c.JSON(status, gin.H{"error": message, "details": err.Error()})
}

// asBadRequest classifies a body decoding error as a client error.
func asBadRequest(err error) error {
	if statusFor(err) == http.StatusInternalServerError {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return err
}
