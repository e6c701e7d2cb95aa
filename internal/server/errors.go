package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/recommender"
)

// ValidationError is a malformed client request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

type errorResponse struct {
	Error string `json:"error"`
}

// httpStatus maps domain errors onto response codes.
func httpStatus(err error) int {
	var (
		validationErr *ValidationError
		upstreamErr   *recommender.UpstreamError
		parseErr      *recommender.ParseError
		refreshErr    *catalog.RefreshError
	)

	switch {
	case errors.As(err, &validationErr), errors.Is(err, recommender.ErrEmptyRequest):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrDataUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &upstreamErr), errors.As(err, &parseErr), errors.As(err, &refreshErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondError(c *gin.Context, err error) {
	status := httpStatus(err)
	_ = c.Error(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err),
		)
	}

	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}
