package handlers

import (
	"context"
	"net/http"
	"time"

	"lightfoot-pos/internal/gateway/clients"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const healthTimeout = 3 * time.Second

type HealthHTTPHandler struct {
	db      *gorm.DB
	redis   *redis.Client
	kitchen *clients.KitchenClient
}

func NewHealthHTTPHandler(db *gorm.DB, rdb *redis.Client, kitchen *clients.KitchenClient) *HealthHTTPHandler {
	return &HealthHTTPHandler{db: db, redis: rdb, kitchen: kitchen}
}

// Live reports that the process is serving.
func (h *HealthHTTPHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"message":   "Server is running",
		"timestamp": time.Now(),
	})
}

// Detailed checks every backing service. The database is required; redis and
// the kitchen feed only degrade the status.
func (h *HealthHTTPHandler) Detailed(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	services := map[string]gin.H{
		"database": checkResult(h.pingDB(ctx)),
		"redis":    checkResult(h.pingRedis(ctx)),
		"kitchen":  checkResult(h.kitchen.Healthy(ctx)),
	}

	overall, httpStatus := "healthy", http.StatusOK
	for name, svc := range services {
		if svc["status"] == "healthy" {
			continue
		}
		if name == "database" {
			overall, httpStatus = "unhealthy", http.StatusServiceUnavailable
			break
		}
		overall = "degraded"
	}

	c.JSON(httpStatus, gin.H{
		"overall_status": overall,
		"services":       services,
		"timestamp":      time.Now(),
	})
}

func (h *HealthHTTPHandler) pingDB(ctx context.Context) bool {
	if h.db == nil {
		return false
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return false
	}
	return sqlDB.PingContext(ctx) == nil
}

func (h *HealthHTTPHandler) pingRedis(ctx context.Context) bool {
	if h.redis == nil {
		return false
	}
	return h.redis.Ping(ctx).Err() == nil
}

func checkResult(ok bool) gin.H {
	if !ok {
		return gin.H{
			"status":  "unavailable",
			"message": "Service not configured or connection lost",
		}
	}
	return gin.H{
		"status":  "healthy",
		"message": "Service is responding",
	}
}
