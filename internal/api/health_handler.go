package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/refibot/internal/health"
)

// CheckFunc pings a local dependency such as the database or Redis
type CheckFunc func(ctx context.Context) error

// HealthHandler reports dependency and upstream health
type HealthHandler struct {
	registry *health.Registry
	checks   map[string]CheckFunc
}

func NewHealthHandler(registry *health.Registry, checks map[string]CheckFunc) *HealthHandler {
	return &HealthHandler{registry: registry, checks: checks}
}

// GetHealth answers 503 when a local dependency is down. Unhealthy upstreams only mark
// the service degraded.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	code := http.StatusOK
	checks := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			checks[name] = err.Error()
			status = "unavailable"
			code = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	upstreams := h.registry.Statuses()
	if status == "ok" {
		for _, u := range upstreams {
			if !u.IsHealthy {
				status = "degraded"
				break
			}
		}
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"checks":    checks,
		"upstreams": upstreams,
	})
}
