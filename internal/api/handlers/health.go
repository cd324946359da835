package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health returns the health status of the API, including database reachability.
func (h *HealthHandler) Health(c *gin.Context) {
	dbStatus := "disabled"
	if h.db != nil {
		dbStatus = "ok"
		sqlDB, err := h.db.DB()
		if err != nil {
			dbStatus = "error"
		} else if err := sqlDB.Ping(); err != nil {
			log.Printf("⚠️ Health check: database ping failed: %v", err)
			dbStatus = "error"
		}
	}

	status := http.StatusOK
	if dbStatus == "error" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":   "healthy",
		"database": dbStatus,
	})
}
