package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/dapptober/core"
	"go.uber.org/zap"
)

// writeError maps a service error onto a status code and JSON body
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	status, msg := http.StatusInternalServerError, "Internal server error"

	switch {
	case errors.Is(err, core.ErrInvalidRequest):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, core.ErrInvalidSignature):
		status, msg = http.StatusUnauthorized, "Invalid signature"
	case errors.Is(err, core.ErrExpiredOrMissingNonce):
		status, msg = http.StatusUnauthorized, "Nonce expired or missing, request a new one"
	case errors.Is(err, core.ErrTokenExpired):
		status, msg = http.StatusUnauthorized, "Token expired"
	case errors.Is(err, core.ErrTokenInvalidated):
		status, msg = http.StatusUnauthorized, "Token has been invalidated"
	case errors.Is(err, core.ErrInvalidToken):
		status, msg = http.StatusBadRequest, "Invalid token"
	case errors.Is(err, core.ErrForbidden):
		status, msg = http.StatusForbidden, "Forbidden"
	case errors.Is(err, core.ErrNotFound):
		status, msg = http.StatusNotFound, "Not found"
	case errors.Is(err, core.ErrAlreadyExists):
		status, msg = http.StatusConflict, "Already exists"
	default:
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}

	c.JSON(status, gin.H{"error": msg})
}
