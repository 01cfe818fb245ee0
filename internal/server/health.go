package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	app "github.com/kode4food/remedy"
	"github.com/kode4food/remedy/pkg/api"
)

const statusHealthy = "healthy"

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{
		Service: app.Name,
		Version: app.Version,
		Status:  statusHealthy,
		Engine:  s.engine.Status(),
	})
}
