package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/food-order-api/internal/service"
)

// respondError writes the status that matches the error's kind. Errors
// without a kind are attached to the context for the access log and hidden
// from the client.
func respondError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		if status, ok := kindStatus(svcErr.Kind); ok {
			body := gin.H{"error": svcErr.Message}
			if len(svcErr.Missing) > 0 {
				body["missing"] = svcErr.Missing
			}
			c.JSON(status, body)
			return
		}
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func kindStatus(kind error) (int, bool) {
	switch kind {
	case service.ErrInvalidArgument:
		return http.StatusBadRequest, true
	case service.ErrNotFound:
		return http.StatusNotFound, true
	case service.ErrForbidden:
		return http.StatusForbidden, true
	case service.ErrInvalidState:
		return http.StatusUnprocessableEntity, true
	case service.ErrConflict:
		return http.StatusConflict, true
	}
	return 0, false
}

func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
