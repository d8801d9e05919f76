package handler

import (
	"net/http"

	"entrepeques/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db  *gorm.DB
	rdb *redis.Client
	cb  *infra.CircuitBreaker
}

func NewHealthHandler(db *gorm.DB, rdb *redis.Client, cb *infra.CircuitBreaker) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb, cb: cb}
}

// Health godoc
// @Summary      Estado del servicio
// @Description  Reporta conectividad a Postgres y Redis y el estado del circuit breaker de la pasarela.
// @Tags         salud
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	status := gin.H{"status": "ok"}

	if h.db != nil {
		if sqlDB, err := h.db.DB(); err != nil || sqlDB.Ping() != nil {
			status["status"] = "degraded"
			status["database"] = "down"
		} else {
			status["database"] = "up"
		}
	}
	if h.rdb != nil {
		if err := h.rdb.Ping(c.Request.Context()).Err(); err != nil {
			status["status"] = "degraded"
			status["redis"] = "down"
		} else {
			status["redis"] = "up"
		}
	}
	if h.cb != nil {
		status["pasarela_circuit"] = h.cb.State().String()
	}

	code := http.StatusOK
	if status["status"] == "degraded" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
