package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/masahif/seoplanner/internal/export"
	"github.com/masahif/seoplanner/internal/planner"
)

type transitionRequest struct {
	Status planner.BriefStatus `json:"status"`
}

type linksResponse struct {
	Outgoing []planner.InternalLink `json:"outgoing"`
	Incoming []planner.InternalLink `json:"incoming"`
}

func (s *Server) listBriefs(c *gin.Context) {
	if !parentExists(c, s.svc.GetProject) {
		return
	}
	status := planner.BriefStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		respondError(c, fmt.Errorf("%w: unknown status %q", planner.ErrValidation, status))
		return
	}
	briefs, err := s.svc.ListBriefs(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, briefs)
}

func (s *Server) createBrief(c *gin.Context) {
	var b planner.ContentBrief
	if err := c.ShouldBindJSON(&b); err != nil {
		badRequest(c, err)
		return
	}
	b.ProjectID = c.Param("id")
	created, err := s.svc.CreateBrief(c.Request.Context(), b)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) getBrief(c *gin.Context) {
	b, err := s.svc.GetBrief(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *Server) updateBrief(c *gin.Context) {
	var patch planner.BriefPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	b, err := s.svc.UpdateBrief(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *Server) deleteBrief(c *gin.Context) {
	deleted, err := s.svc.DeleteBrief(c.Request.Context(), c.Param("id"))
	respondDeleted(c, deleted, err)
}

// exportBrief returns the brief with its outline and links, as JSON or,
// with format=markdown, as a writer's document
func (s *Server) exportBrief(c *gin.Context) {
	ctx := c.Request.Context()
	f, err := export.ParseFormat(c.DefaultQuery("format", string(export.FormatJSON)))
	if err != nil {
		respondError(c, err)
		return
	}
	b, err := s.svc.ExportBrief(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	switch f {
	case export.FormatJSON:
		c.JSON(http.StatusOK, b)
	case export.FormatMarkdown:
		titles, err := s.briefTitles(c, b.ProjectID)
		if err != nil {
			respondError(c, err)
			return
		}
		s.attachment(c, b.TitleTag, f, []byte(export.BriefMarkdown(b, titles, s.now())))
	case export.FormatCSV:
		data, err := export.BriefsCSV([]planner.BriefExport{*b})
		if err != nil {
			respondError(c, err)
			return
		}
		s.attachment(c, b.TitleTag, f, data)
	default:
		respondError(c, export.ErrUnsupportedFormat)
	}
}

func (s *Server) briefTitles(c *gin.Context, projectID string) (map[string]string, error) {
	briefs, err := s.svc.ListBriefs(c.Request.Context(), projectID, "")
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string, len(briefs))
	for _, b := range briefs {
		titles[b.ID] = b.TitleTag
	}
	return titles, nil
}

func (s *Server) advanceBrief(c *gin.Context) {
	b, err := s.svc.AdvanceBrief(c.Request.Context(), c.Param("id"))
	s.respondMove(c, b, err)
}

func (s *Server) revertBrief(c *gin.Context) {
	b, err := s.svc.RevertBrief(c.Request.Context(), c.Param("id"))
	s.respondMove(c, b, err)
}

func (s *Server) transitionBrief(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b, err := s.svc.TransitionBrief(c.Request.Context(), c.Param("id"), req.Status)
	s.respondMove(c, b, err)
}

func (s *Server) respondMove(c *gin.Context, b *planner.ContentBrief, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	s.metrics.BriefMoves.WithLabelValues(string(b.Status)).Inc()
	c.JSON(http.StatusOK, b)
}

func (s *Server) listSections(c *gin.Context) {
	if !parentExists(c, s.svc.GetBrief) {
		return
	}
	sections, err := s.svc.ListSections(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sections)
}

func (s *Server) addSection(c *gin.Context) {
	var sec planner.BriefSection
	if err := c.ShouldBindJSON(&sec); err != nil {
		badRequest(c, err)
		return
	}
	sec.BriefID = c.Param("id")
	created, err := s.svc.AddSection(c.Request.Context(), sec)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) listLinks(c *gin.Context) {
	if !parentExists(c, s.svc.GetBrief) {
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")
	out, err := s.svc.ListOutgoingLinks(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	in, err := s.svc.ListIncomingLinks(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, linksResponse{Outgoing: out, Incoming: in})
}

func (s *Server) createLink(c *gin.Context) {
	var l planner.InternalLink
	if err := c.ShouldBindJSON(&l); err != nil {
		badRequest(c, err)
		return
	}
	created, err := s.svc.CreateInternalLink(c.Request.Context(), l)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) deleteLink(c *gin.Context) {
	deleted, err := s.svc.DeleteInternalLink(c.Request.Context(), c.Param("id"))
	respondDeleted(c, deleted, err)
}

func (s *Server) createPublication(c *gin.Context) {
	var p planner.Publication
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}
	p.BriefID = c.Param("id")
	created, err := s.svc.CreatePublication(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) getPublication(c *gin.Context) {
	p, err := s.svc.GetPublication(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) listQueryData(c *gin.Context) {
	if !parentExists(c, s.svc.GetPublication) {
		return
	}
	rows, err := s.svc.ListQueryData(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) addQueryData(c *gin.Context) {
	var q planner.QueryData
	if err := c.ShouldBindJSON(&q); err != nil {
		badRequest(c, err)
		return
	}
	q.PublicationID = c.Param("id")
	created, err := s.svc.AddQueryData(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}
