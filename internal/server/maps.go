package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/masahif/seoplanner/internal/export"
	"github.com/masahif/seoplanner/internal/planner"
)

type scoresRequest struct {
	Prominence int `json:"prominence_score"`
	Popularity int `json:"popularity_score"`
	Relevance  int `json:"relevance_score"`
}

func (s *Server) listTopicalMaps(c *gin.Context) {
	if !parentExists(c, s.svc.GetProject) {
		return
	}
	maps, err := s.svc.ListTopicalMaps(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, maps)
}

func (s *Server) createTopicalMap(c *gin.Context) {
	var m planner.TopicalMap
	if err := c.ShouldBindJSON(&m); err != nil {
		badRequest(c, err)
		return
	}
	m.ProjectID = c.Param("id")
	created, err := s.svc.CreateTopicalMap(c.Request.Context(), m)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) getTopicalMap(c *gin.Context) {
	m, err := s.svc.GetTopicalMap(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) deleteTopicalMap(c *gin.Context) {
	deleted, err := s.svc.DeleteTopicalMap(c.Request.Context(), c.Param("id"))
	respondDeleted(c, deleted, err)
}

// exportTopicalMap returns the map with its entities and attributes,
// as JSON or, with format=markdown, as a topical map document
func (s *Server) exportTopicalMap(c *gin.Context) {
	ctx := c.Request.Context()
	f, err := export.ParseFormat(c.DefaultQuery("format", string(export.FormatJSON)))
	if err != nil {
		respondError(c, err)
		return
	}
	m, err := s.svc.ExportTopicalMap(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	switch f {
	case export.FormatJSON:
		c.JSON(http.StatusOK, m)
	case export.FormatMarkdown:
		p, err := s.svc.GetProject(ctx, m.ProjectID)
		if err != nil {
			respondError(c, err)
			return
		}
		s.attachment(c, m.Name, f, []byte(export.TopicalMapMarkdown(m, p, s.now())))
	default:
		respondError(c, export.ErrUnsupportedFormat)
	}
}

func (s *Server) listEntities(c *gin.Context) {
	if !parentExists(c, s.svc.GetTopicalMap) {
		return
	}
	entities, err := s.svc.ListEntities(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entities)
}

func (s *Server) addEntity(c *gin.Context) {
	var e planner.Entity
	if err := c.ShouldBindJSON(&e); err != nil {
		badRequest(c, err)
		return
	}
	e.TopicalMapID = c.Param("id")
	created, err := s.svc.AddEntity(c.Request.Context(), e)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) updateEntityScores(c *gin.Context) {
	var req scoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	e, err := s.svc.UpdateEntityScores(c.Request.Context(), c.Param("id"), req.Prominence, req.Popularity, req.Relevance)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (s *Server) deleteEntity(c *gin.Context) {
	deleted, err := s.svc.DeleteEntity(c.Request.Context(), c.Param("id"))
	respondDeleted(c, deleted, err)
}

func (s *Server) listAttributes(c *gin.Context) {
	if !parentExists(c, s.svc.GetTopicalMap) {
		return
	}
	attrs, err := s.svc.ListAttributes(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attrs)
}

func (s *Server) addAttribute(c *gin.Context) {
	var a planner.Attribute
	if err := c.ShouldBindJSON(&a); err != nil {
		badRequest(c, err)
		return
	}
	a.TopicalMapID = c.Param("id")
	created, err := s.svc.AddAttribute(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) deleteAttribute(c *gin.Context) {
	deleted, err := s.svc.DeleteAttribute(c.Request.Context(), c.Param("id"))
	respondDeleted(c, deleted, err)
}

func (s *Server) linkEntityAttribute(c *gin.Context) {
	var ea planner.EntityAttribute
	if err := c.ShouldBindJSON(&ea); err != nil {
		badRequest(c, err)
		return
	}
	created, err := s.svc.LinkEntityAttribute(c.Request.Context(), ea)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}
