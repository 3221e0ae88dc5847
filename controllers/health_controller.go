package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ConnectionCounter reports the number of live gateway connections
type ConnectionCounter interface {
	ConnectionCount() int
}

// HealthController serves liveness and database status
type HealthController struct {
	db          *gorm.DB
	connections ConnectionCounter
}

// NewHealthController creates a health controller. connections may be nil.
func NewHealthController(db *gorm.DB, connections ConnectionCounter) *HealthController {
	return &HealthController{db: db, connections: connections}
}

// Health handles GET /api/v1/health
func (hc *HealthController) Health(c *gin.Context) {
	connections := 0
	if hc.connections != nil {
		connections = hc.connections.ConnectionCount()
	}

	c.PureJSON(http.StatusOK, gin.H{
		"success": true,
		"message": "RentYatra API is running",
		"data": gin.H{
			"websocket_connections": connections,
		},
	})
}

// DatabaseStatus checks database connectivity and returns table information
func (hc *HealthController) DatabaseStatus(c *gin.Context) {
	sqlDB, err := hc.db.DB()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to get database instance")
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_CONNECTION_ERROR", "Database connection failed")
		return
	}

	tables, err := hc.db.WithContext(c.Request.Context()).Migrator().GetTables()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_QUERY_ERROR", "Failed to query tables")
		return
	}

	c.PureJSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Database connected",
		"tables":      tables,
		"table_count": len(tables),
	})
}
