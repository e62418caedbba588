package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/masahif/seoplanner/internal/planner"
)

type acceptRequest struct {
	Name      string             `json:"name"`
	Framework *planner.Framework `json:"framework"`
}

// discover runs the discovery adapter synchronously. A degraded result is
// still a 200 with confidence "low".
func (s *Server) discover(c *gin.Context) {
	var info planner.BusinessInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		badRequest(c, err)
		return
	}
	fw, err := s.svc.DiscoverFramework(c.Request.Context(), info)
	if err != nil {
		s.metrics.DiscoveryTotal.WithLabelValues("error").Inc()
		respondError(c, err)
		return
	}
	result := "ok"
	if fw.Degraded() {
		result = "degraded"
	}
	s.metrics.DiscoveryTotal.WithLabelValues(result).Inc()
	c.JSON(http.StatusOK, fw)
}

func (s *Server) acceptFramework(c *gin.Context) {
	var req acceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.svc.CreateProjectFromFramework(c.Request.Context(), req.Name, req.Framework)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}
