package dashboard

import (
	"context"
	"encoding/csv"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"CryptoDash/internal/metrics"
	"CryptoDash/internal/recorder"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const defaultHistoryLimit = 100

// Server is the web presentation of the dashboard.
type Server struct {
	service *Service
	engine  *gin.Engine
	server  *http.Server
	logger  *zap.Logger
}

// NewServer builds the gin engine and its routes. debug keeps gin in
// debug mode.
func NewServer(addr string, service *Service, debug bool, logger *zap.Logger) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(logger))
	engine.SetHTMLTemplate(template.Must(template.New("index").Funcs(pageFuncs).Parse(indexPage)))

	s := &Server{service: service, engine: engine, logger: logger}
	s.routes()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.engine.GET("/", s.handleIndex)
	s.engine.POST("/refresh", s.handleRefresh)

	api := s.engine.Group("/api")
	api.GET("/analysis", s.handleAnalysis)
	api.POST("/refresh", s.handleAPIRefresh)
	api.GET("/history", s.handleHistory)
	api.GET("/insights", s.handleInsights)

	s.engine.GET("/history.csv", s.handleHistoryCSV)
	s.engine.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
}

// Handler exposes the engine, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) Start() error {
	s.logger.Info("starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// handleIndex renders the latest snapshot. The first visit triggers a
// refresh, like opening the page in a browser.
func (s *Server) handleIndex(c *gin.Context) {
	snap, err := s.service.Latest()
	if snap == nil && err == nil {
		snap, err = s.service.Refresh()
	}
	c.HTML(http.StatusOK, "index", newPageView(snap, err))
}

func (s *Server) handleRefresh(c *gin.Context) {
	if _, err := s.service.Refresh(); err != nil {
		s.logger.Warn("refresh failed", zap.Error(err))
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleAPIRefresh(c *gin.Context) {
	snap, err := s.service.Refresh()
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleAnalysis(c *gin.Context) {
	snap, err := s.service.Latest()
	if snap == nil {
		body := gin.H{"error": "no refresh has completed yet"}
		if err != nil {
			body["error"] = UserMessage(err)
		}
		c.JSON(http.StatusNotFound, body)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleHistory(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	rows, err := s.service.History.ListSnapshots(c.Query("symbol"), limit)
	if err != nil {
		s.logger.Error("list snapshots", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
		return
	}
	if rows == nil {
		rows = []recorder.SnapshotRow{}
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handleInsights(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	rows, err := s.service.History.LatestInsights(limit)
	if err != nil {
		s.logger.Error("list insights", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
		return
	}
	if rows == nil {
		rows = []recorder.InsightRow{}
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handleHistoryCSV(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	rows, err := s.service.History.ListSnapshots(c.Query("symbol"), limit)
	if err != nil {
		s.logger.Error("list snapshots", zap.Error(err))
		c.String(http.StatusInternalServerError, "history unavailable")
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="history.csv"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"snapshot_id", "created_at", "source", "symbol", "name", "price", "volume", "quoted_at", "pct_change", "change_24h", "trend"})
	for _, r := range rows {
		_ = w.Write([]string{
			strconv.FormatInt(r.SnapshotID, 10),
			r.CreatedAt.UTC().Format(time.RFC3339),
			r.Source,
			r.Symbol,
			r.Name,
			r.Price.String(),
			r.Volume.String(),
			r.QuotedAt.UTC().Format(time.RFC3339),
			optionalFloat(r.PctChange),
			optionalFloat(r.Change24h),
			r.Trend,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		s.logger.Warn("write csv", zap.Error(err))
	}
}

func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultHistoryLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return 0, false
	}
	return n, true
}

func optionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}
