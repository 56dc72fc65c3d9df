package handlers

import (
	"net/http"

	"deployhub/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports the last health snapshot taken by the monitor.
func HealthHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": statusText(status.Healthy), "service": "deployhub", "health": status})
}

func statusText(ok bool) string {
	if ok {
		return "ok"
	}
	return "degraded"
}
