// Package api exposes a workspace over HTTP for inspection and control.
package api

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vjranagit/gridmapper/pkg/grid"
	"github.com/vjranagit/gridmapper/pkg/types"
)

// Server bundles router and dependencies for the REST API
type Server struct {
	addr      string
	timeout   time.Duration
	workspace *grid.Workspace
	source    grid.Source
	recorder  *grid.Recorder
	engine    *gin.Engine
}

// NewServer creates a new API server. recorder may be nil, in which case the
// diagnostics route returns an empty list.
func NewServer(addr string, timeout time.Duration, ws *grid.Workspace, src grid.Source, recorder *grid.Recorder) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())

	s := &Server{
		addr:      addr,
		timeout:   timeout,
		workspace: ws,
		source:    src,
		recorder:  recorder,
		engine:    engine,
	}
	s.registerRoutes()
	return s
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until ctx is done
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.engine,
		ReadTimeout:  s.timeout,
		WriteTimeout: s.timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	v1 := s.engine.Group("/api/v1")
	{
		v1.GET("/variables", s.handleListVariables)
		v1.POST("/variables", s.handleImport)
		v1.DELETE("/variables/:index", s.handleRemove)
		v1.GET("/roles", s.handleListRoles)
		v1.PUT("/roles/:role", s.handleAssign)
		v1.GET("/ready", s.handleReady)
		v1.GET("/sample", s.handleSample)
		v1.GET("/diagnostics", s.handleDiagnostics)
	}
}

// statsView is Statistics with non-finite values rendered as null
type statsView struct {
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
	Range float64  `json:"range"`
	Count int      `json:"count"`
}

type variableView struct {
	grid.VariableInfo
	Statistics *statsView `json:"statistics,omitempty"`
}

// handleListVariables returns every loaded variable
// GET /api/v1/variables
func (s *Server) handleListVariables(c *gin.Context) {
	infos := s.workspace.Variables()
	views := make([]variableView, 0, len(infos))
	for _, info := range infos {
		view := variableView{VariableInfo: info}
		if info.Statistics != nil {
			view.Statistics = &statsView{
				Min:   finite(info.Statistics.Min),
				Max:   finite(info.Statistics.Max),
				Range: info.Statistics.Range,
				Count: info.Statistics.Count,
			}
		}
		views = append(views, view)
	}

	c.JSON(http.StatusOK, gin.H{
		"data": views,
		"meta": gin.H{"count": len(views)},
	})
}

type importBody struct {
	Path             string `json:"path" binding:"required"`
	Label            string `json:"label"`
	HasRowHeaders    bool   `json:"has_row_headers"`
	HasColumnHeaders bool   `json:"has_column_headers"`
	Role             string `json:"role"`
}

// handleImport loads a file and optionally maps it to a role
// POST /api/v1/variables
func (s *Server) handleImport(c *gin.Context) {
	var body importBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var role grid.Role
	if body.Role != "" {
		r, err := grid.ParseRole(body.Role)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		role = r
	}

	label := body.Label
	if label == "" {
		label = body.Path
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	h, err := s.workspace.Import(ctx, s.source, types.ImportRequest{
		SourcePath:       body.Path,
		HasRowHeaders:    body.HasRowHeaders,
		HasColumnHeaders: body.HasColumnHeaders,
	}, label)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	if body.Role != "" {
		if err := s.workspace.Assign(role, h); err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"handle": h, "label": label}})
}

// handleRemove removes the variable at a registry position
// DELETE /api/v1/variables/:index
func (s *Server) handleRemove(c *gin.Context) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index"})
		return
	}

	h, ok := s.workspace.ByIndex(i)
	if !ok || !s.workspace.RemoveVariable(h) {
		c.JSON(http.StatusNotFound, gin.H{"error": "variable not found"})
		return
	}

	c.Status(http.StatusNoContent)
}

// handleListRoles returns the three role slots
// GET /api/v1/roles
func (s *Server) handleListRoles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.workspace.Roles()})
}

type assignBody struct {
	Index *int   `json:"index"`
	Label string `json:"label"`
}

// handleAssign maps a variable to a role by index or label. An empty body
// unassigns the role.
// PUT /api/v1/roles/:role
func (s *Server) handleAssign(c *gin.Context) {
	role, err := grid.ParseRole(c.Param("role"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var body assignBody
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var h grid.Handle
	switch {
	case body.Label != "":
		h, err = s.workspace.AssignByLabel(role, body.Label)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
	case body.Index != nil:
		var ok bool
		h, ok = s.workspace.ByIndex(*body.Index)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "variable not found"})
			return
		}
		if err := s.workspace.Assign(role, h); err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
	default:
		if err := s.workspace.Assign(role, grid.Handle{}); err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"role": role.String(), "handle": h}})
}

// handleReady reports whether the mapping can be rendered
// GET /api/v1/ready
func (s *Server) handleReady(c *gin.Context) {
	err := s.workspace.CheckReady()
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"ready": true})
		return
	}

	resp := gin.H{"ready": false, "error": err.Error()}
	var ce *grid.ConsistencyError
	if errors.As(err, &ce) && len(ce.Shapes) > 0 {
		resp["shapes"] = ce.Shapes
		mismatched := make([]string, 0, len(ce.Mismatched))
		for _, r := range ce.Mismatched {
			mismatched = append(mismatched, r.String())
		}
		resp["mismatched"] = mismatched
	}
	c.JSON(http.StatusOK, resp)
}

// handleSample reads the three mapped values at one cell
// GET /api/v1/sample?row=&col=
func (s *Server) handleSample(c *gin.Context) {
	row, err := strconv.Atoi(c.Query("row"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid row"})
		return
	}
	col, err := strconv.Atoi(c.Query("col"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid col"})
		return
	}

	sample, err := s.workspace.SampleAt(row, col)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	values := gin.H{}
	labels := gin.H{}
	for _, role := range grid.Roles {
		values[role.String()] = finite(sample.Value(role))
		labels[role.String()] = sample.Label(role)
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"row":        sample.Row,
			"col":        sample.Col,
			"row_header": sample.RowHeader,
			"col_header": sample.ColHeader,
			"values":     values,
			"labels":     labels,
		},
	})
}

// handleDiagnostics returns recent soft diagnostics
// GET /api/v1/diagnostics
func (s *Server) handleDiagnostics(c *gin.Context) {
	entries := []grid.Diagnostic{}
	if s.recorder != nil && s.recorder.Len() > 0 {
		entries = s.recorder.Entries()
	}
	c.JSON(http.StatusOK, gin.H{
		"data": entries,
		"meta": gin.H{"count": len(entries)},
	})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var ie *grid.ImportError
	switch {
	case errors.Is(err, grid.ErrUnknownRole):
		return http.StatusBadRequest
	case errors.Is(err, grid.ErrOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, grid.ErrNotReady):
		return http.StatusConflict
	case errors.As(err, &ie):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// finite returns nil for NaN and infinities, which JSON cannot carry
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
