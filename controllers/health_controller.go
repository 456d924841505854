package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	ServiceName    = "parking-slots-api"
	ServiceVersion = "1.0.0"
)

// GET /
func Root() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Parking slots API", "version": ServiceVersion})
	}
}

// GET /health
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			slog.Error("Health check failed", slog.Any("error", err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "service": ServiceName})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": ServiceName})
	}
}
