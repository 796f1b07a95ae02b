package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/refibot/internal/auth"
	"github.com/ajharbinger/refibot/internal/services"
)

type DashboardHandler struct {
	dashboardService services.DashboardService
}

func NewDashboardHandler(dashboardService services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetOverview returns the stored loan and its monthly payment
func (h *DashboardHandler) GetOverview(c *gin.Context) {
	sess, _ := auth.CurrentSession(c)
	overview, err := h.dashboardService.Overview(c.Request.Context(), sess)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}
