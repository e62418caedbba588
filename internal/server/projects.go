package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/masahif/seoplanner/internal/export"
	"github.com/masahif/seoplanner/internal/planner"
)

type createProjectRequest struct {
	Name                string   `json:"name"`
	SourceContext       string   `json:"source_context"`
	CentralEntity       string   `json:"central_entity"`
	CentralSearchIntent string   `json:"central_search_intent"`
	FunctionalWords     []string `json:"functional_words"`
}

type nameRequest struct {
	Name string `json:"name"`
}

func (s *Server) listProjects(c *gin.Context) {
	projects, err := s.svc.ListProjects(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (s *Server) createProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.svc.CreateProject(c.Request.Context(), planner.NewProject(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) getProject(c *gin.Context) {
	p, err := s.svc.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) updateProject(c *gin.Context) {
	var patch planner.ProjectPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.svc.UpdateProject(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) deleteProject(c *gin.Context) {
	deleted, err := s.svc.DeleteProject(c.Request.Context(), c.Param("id"))
	respondDeleted(c, deleted, err)
}

// respondDeleted answers 204 on deletion and 404 when nothing matched
func respondDeleted(c *gin.Context, deleted bool, err error) {
	switch {
	case err != nil:
		respondError(c, err)
	case !deleted:
		respondError(c, planner.ErrNotFound)
	default:
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) duplicateProject(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.svc.DuplicateProject(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) projectStats(c *gin.Context) {
	stats, err := s.svc.ProjectStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// exportProject streams the project as an attachment.
// Query: format (json|csv|excel|markdown), briefs, maps (default true).
func (s *Server) exportProject(c *gin.Context) {
	f, err := export.ParseFormat(c.DefaultQuery("format", string(export.FormatJSON)))
	if err != nil {
		respondError(c, err)
		return
	}
	opts := planner.ExportOptions{
		IncludeBriefs: queryBool(c, "briefs", true),
		IncludeMaps:   queryBool(c, "maps", true),
	}
	exp, err := s.svc.ExportProject(c.Request.Context(), c.Param("id"), opts)
	if err != nil {
		respondError(c, err)
		return
	}
	var data []byte
	if f == export.FormatMarkdown {
		md, err := export.ProjectMarkdownTemplate(exp, c.Query("template"))
		if err != nil {
			respondError(c, err)
			return
		}
		data = []byte(md)
	} else if data, err = export.Project(exp, f); err != nil {
		respondError(c, err)
		return
	}
	s.attachment(c, exp.Project.Name, f, data)
}

func (s *Server) attachment(c *gin.Context, base string, f export.Format, data []byte) {
	name := export.Filename(base, f.Ext(), s.now())
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, f.ContentType(), data)
}

func queryBool(c *gin.Context, key string, def bool) bool {
	v, ok := c.GetQuery(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func (s *Server) listPublications(c *gin.Context) {
	if !parentExists(c, s.svc.GetProject) {
		return
	}
	pubs, err := s.svc.ListPublications(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pubs)
}
