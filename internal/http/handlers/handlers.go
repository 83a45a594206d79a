// Package handlers implements the ops HTTP endpoints: liveness and a
// read-only snapshot of store counters. The endpoints exist for operators
// and dashboards; the bot itself never calls them.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nrrp/referral-tracker/internal/repo"
)

// Health answers 200 when the process is up and the database reachable.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// Stats returns aggregate store counters as JSON.
func Stats(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := repo.Stats(c.Request.Context(), db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": "storage_error", "message": "failed to gather stats"})
			return
		}
		c.JSON(http.StatusOK, s)
	}
}
