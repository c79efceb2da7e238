// Package httpapi exposes the console over a JSON API: selection gestures,
// operation control, derived views (losses, report), and the standard
// health/readiness/metrics endpoints.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/floodwatch/opsconsole/internal/domain"
	"github.com/floodwatch/opsconsole/internal/orchestrator"
	"github.com/floodwatch/opsconsole/internal/selector"
)

// Connectivity reports the backend link state maintained by the monitor.
type Connectivity interface {
	Connected() bool
	CheckReadiness(ctx context.Context) error
}

// Options configures optional server behavior.
type Options struct {
	CORSOrigins []string
	Sentry      bool
}

// Server routes console requests to the selector and the orchestrator.
type Server struct {
	httpServer   *http.Server
	engine       *gin.Engine
	selector     *selector.Selector
	orchestrator *orchestrator.Orchestrator
	connectivity Connectivity
	clock        clockwork.Clock
	logger       *slog.Logger
}

// NewServer creates the console API server.
func NewServer(addr string, sel *selector.Selector, orch *orchestrator.Orchestrator, conn Connectivity, clock clockwork.Clock, logger *slog.Logger, opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware(opts.CORSOrigins))
	if opts.Sentry {
		engine.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      engine,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		engine:       engine,
		selector:     sel,
		orchestrator: orch,
		connectivity: conn,
		clock:        clock,
		logger:       logger,
	}

	engine.GET("/healthz", s.handleHealth)
	engine.GET("/readyz", s.handleReady)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	selection := engine.Group("/api/selection")
	{
		selection.POST("/begin", s.handleSelectionBegin)
		selection.POST("/update", s.handleSelectionUpdate)
		selection.POST("/complete", s.handleSelectionComplete)
		selection.POST("/cancel", s.handleSelectionCancel)
		selection.GET("", s.handleSelectionGet)
		selection.DELETE("", s.handleSelectionClear)
	}

	ops := engine.Group("/api/operations")
	{
		ops.POST("/analysis", s.handleStartAnalysis)
		ops.POST("/analysis/demo", s.handleStartAnalysisDemo)
		ops.POST("/prediction", s.handleStartPrediction)
		ops.POST("/prediction/demo", s.handleStartPredictionDemo)
		ops.POST("/clear", s.handleClear)
		ops.GET("/current", s.handleCurrent)
	}

	engine.GET("/api/losses", s.handleLosses)
	engine.GET("/api/report", s.handleReport)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.connectivity.CheckReadiness(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) handleSelectionBegin(c *gin.Context) {
	var req pointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed body: " + err.Error()})
		return
	}
	drawing := s.selector.Begin(req.Lon, req.Lat, req.Modifier)
	c.JSON(http.StatusOK, gin.H{"drawing": drawing})
}

func (s *Server) handleSelectionUpdate(c *gin.Context) {
	var req pointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed body: " + err.Error()})
		return
	}
	bbox, ok := s.selector.Update(req.Lon, req.Lat)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "no selection gesture in progress"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bbox": bbox})
}

func (s *Server) handleSelectionComplete(c *gin.Context) {
	var req pointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed body: " + err.Error()})
		return
	}
	bbox, ok := s.selector.Complete(req.Lon, req.Lat)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "no selection gesture in progress"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bbox": bbox})
}

func (s *Server) handleSelectionCancel(c *gin.Context) {
	s.selector.Cancel()
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSelectionGet(c *gin.Context) {
	bbox, ok := s.selector.Committed()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no committed selection"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bbox": bbox})
}

func (s *Server) handleSelectionClear(c *gin.Context) {
	s.selector.Clear()
	c.Status(http.StatusNoContent)
}

func (s *Server) handleStartAnalysis(c *gin.Context) {
	var req analysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed body: " + err.Error()})
		return
	}

	params := domain.AnalysisParams{
		BBox:         s.resolveBBox(req.BBox),
		Polarization: req.Polarization,
	}
	var err error
	if params.DateBefore, err = parseDate(req.DateBefore); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date_before: " + err.Error()})
		return
	}
	if params.DateAfter, err = parseDate(req.DateAfter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date_after: " + err.Error()})
		return
	}

	id, err := s.orchestrator.StartAnalysis(c.Request.Context(), params)
	if err != nil {
		s.writeStartError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"operation_id": id})
}

func (s *Server) handleStartPrediction(c *gin.Context) {
	var req predictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed body: " + err.Error()})
		return
	}

	params := domain.PredictionParams{
		BBox:         s.resolveBBox(req.BBox),
		HorizonHours: req.HorizonHours,
	}
	id, err := s.orchestrator.StartPrediction(c.Request.Context(), params)
	if err != nil {
		s.writeStartError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"operation_id": id})
}

func (s *Server) handleStartAnalysisDemo(c *gin.Context) {
	id, err := s.orchestrator.StartAnalysisDemo(c.Request.Context())
	if err != nil {
		s.writeStartError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"operation_id": id})
}

func (s *Server) handleStartPredictionDemo(c *gin.Context) {
	id, err := s.orchestrator.StartPredictionDemo(c.Request.Context())
	if err != nil {
		s.writeStartError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"operation_id": id})
}

func (s *Server) handleClear(c *gin.Context) {
	s.orchestrator.Clear()
	c.Status(http.StatusNoContent)
}

func (s *Server) handleCurrent(c *gin.Context) {
	st := s.orchestrator.Snapshot()
	resp := currentResponse{
		Mode:        string(st.Mode),
		Phase:       string(st.Phase),
		OperationID: st.OperationID,
		Connected:   s.connectivity.Connected(),
		Failure:     st.Failure,
	}
	if !st.StartedAt.IsZero() {
		resp.StartedAt = st.StartedAt.UTC().Format(time.RFC3339)
	}
	if !st.CompletedAt.IsZero() {
		resp.CompletedAt = st.CompletedAt.UTC().Format(time.RFC3339)
	}

	if st.Result != nil {
		body, err := encodeResult(st.Result)
		if err != nil {
			s.logger.Error("result encoding failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "result encoding failed"})
			return
		}
		resp.Result = body
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleLosses(c *gin.Context) {
	analysis, ok := s.liveAnalysis()
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "no completed analysis to estimate from"})
		return
	}

	loss, err := domain.EstimateLoss(analysis.BuildingsAffected, analysis.Stats.FloodedAreaKm2)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, loss)
}

func (s *Server) handleReport(c *gin.Context) {
	analysis, ok := s.liveAnalysis()
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "no completed analysis to report on"})
		return
	}

	loss, err := domain.EstimateLoss(analysis.BuildingsAffected, analysis.Stats.FloodedAreaKm2)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	now := s.clock.Now()
	report := domain.RenderReport(*analysis, loss, now)
	c.Header("Content-Disposition", `attachment; filename=`+domain.ReportFilename(now))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(report))
}

// liveAnalysis returns the completed analysis outcome, if one is live.
func (s *Server) liveAnalysis() (*domain.AnalysisOutcome, bool) {
	st := s.orchestrator.Snapshot()
	if st.Phase != orchestrator.PhaseSucceeded || st.Result == nil || st.Result.Analysis == nil {
		return nil, false
	}
	return st.Result.Analysis, true
}

// resolveBBox prefers an explicit request bbox over the committed selection.
func (s *Server) resolveBBox(req *bboxPayload) domain.BoundingBox {
	if req != nil {
		return domain.BoundingBox{MinLon: req.MinLon, MinLat: req.MinLat, MaxLon: req.MaxLon, MaxLat: req.MaxLat}
	}
	bbox, _ := s.selector.Committed()
	return bbox
}

func (s *Server) writeStartError(c *gin.Context, err error) {
	if domain.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.logger.Error("operation start failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", v)
}

// corsMiddleware allows the browser UI, typically served from another origin
// in development, to call the API.
func corsMiddleware(origins []string) gin.HandlerFunc {
	allowed := strings.Join(origins, ", ")
	if allowed == "" {
		allowed = "*"
	}
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", allowed)
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
