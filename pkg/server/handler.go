package server

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Kanrog/kanrog.github.io/pkg/macro"
	"github.com/Kanrog/kanrog.github.io/pkg/preview"
	"github.com/Kanrog/kanrog.github.io/pkg/profile"
	"github.com/Kanrog/kanrog.github.io/pkg/resolve"
)

// maxProfileSize bounds request bodies and live messages.
const maxProfileSize = 64 << 10

// Response is the JSON shape of validate, generate and live replies.
type Response struct {
	Valid      bool                `json:"valid"`
	Violations []resolve.Violation `json:"violations"`
	Document   string              `json:"document,omitempty"`
	Sections   []string            `json:"sections,omitempty"`
	Error      string              `json:"error,omitempty"`
}

func newResponse(res resolve.Result) Response {
	violations := res.Violations
	if violations == nil {
		violations = []resolve.Violation{}
	}
	return Response{Valid: res.Valid(), Violations: violations}
}

// readProfile decodes a JSON profile from the request body and writes a 400
// when it cannot.
func (s *Server) readProfile(c *gin.Context) (profile.Profile, bool) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxProfileSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read request body"})
		return profile.Profile{}, false
	}
	p, err := profile.Parse(body, profile.FormatJSON)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return profile.Profile{}, false
	}
	return p, true
}

func (s *Server) recordViolations(res resolve.Result) {
	for _, v := range res.Violations {
		s.metrics.RecordViolation(v.Code, v.Severity == resolve.Blocking)
	}
}

// build validates and generates p, recording the outcome.
func (s *Server) build(p profile.Profile) Response {
	doc, res, err := macro.Generate(p)
	s.recordViolations(res)

	resp := newResponse(res)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	text := doc.String()
	s.metrics.RecordDocument(p.Archetype.String(), len(text))
	resp.Document = text
	resp.Sections = doc.Names()
	return resp
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "up",
		"uptime": time.Since(s.startTime).Seconds(),
	})
}

func (s *Server) materials(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"materials": profile.Presets()})
}

func (s *Server) validate(c *gin.Context) {
	p, ok := s.readProfile(c)
	if !ok {
		return
	}
	res := resolve.Validate(p)
	s.recordViolations(res)
	c.JSON(http.StatusOK, newResponse(res))
}

func (s *Server) generate(c *gin.Context) {
	p, ok := s.readProfile(c)
	if !ok {
		return
	}
	resp := s.build(p)
	if !resp.Valid {
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) download(c *gin.Context) {
	p, ok := s.readProfile(c)
	if !ok {
		return
	}
	resp := s.build(p)
	if !resp.Valid {
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+macro.Filename+`"`)
	c.Data(http.StatusOK, macro.MediaType, []byte(resp.Document))
}

// preview draws whatever the profile describes; invalid extents fall back to
// the defaults rather than failing.
func (s *Server) preview(c *gin.Context) {
	p, ok := s.readProfile(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, preview.MediaType, preview.Render(p))
}
