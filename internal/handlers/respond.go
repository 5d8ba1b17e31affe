package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bankroll-terminal/internal/services"
)

// respondError maps ledger error kinds to HTTP statuses with the uniform
// {message} body. Unexpected errors stay opaque and are logged server-side.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	switch services.KindOf(err) {
	case services.KindInvalid:
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case services.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case services.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	default:
		log.Error("ledger request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	}
}
