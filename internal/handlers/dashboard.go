// internal/handlers/dashboard.go
package handlers

import (
	"net/http"

	"questlab/internal/services"

	"github.com/gin-gonic/gin"
)

// GetDashboard returns the per-user aggregate of created quests and own
// submissions.
func GetDashboard(dashboards *services.DashboardService, users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, users)
		if !ok {
			return
		}

		dash, err := dashboards.GetDashboard(user)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dash)
	}
}
