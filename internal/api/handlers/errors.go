package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/produced-go/internal/gaps"
	"github.com/andresuchdata/produced-go/internal/produced"
	"github.com/andresuchdata/produced-go/internal/service"
)

// statusFor maps domain errors to HTTP status codes. Bad data in the exports
// is the caller's problem, everything else is ours.
func statusFor(err error) int {
	var (
		invalid  *produced.InvalidReadingError
		material *produced.UnknownMaterialError
		columns  *produced.MissingColumnsError
		missing  *gaps.MissingValuesError
	)
	switch {
	case errors.As(err, &invalid), errors.As(err, &material),
		errors.As(err, &columns), errors.As(err, &missing):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrUnboundedRange):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error, message string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(message)
		c.JSON(status, gin.H{"error": message})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
