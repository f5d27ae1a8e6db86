// Package dashboard serves a report as an interactive web page.
package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/KaramelBytes/callscope/internal/analysis"
	"github.com/KaramelBytes/callscope/internal/chart"
	"github.com/KaramelBytes/callscope/internal/report"
	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// LoadFunc reads the source table; it is called on every rebuild.
type LoadFunc func() (*analysis.Frame, error)

// Config controls the dashboard server.
type Config struct {
	Addr     string
	CacheTTL time.Duration
	Report   report.Options
	Logger   *zap.SugaredLogger
}

const reportKey = "report"

// built is one cached build outcome. A partial report carries its error.
type built struct {
	rep *report.Report
	err error
}

// Server holds the cached report and its HTTP routes.
type Server struct {
	cfg      Config
	load     LoadFunc
	log      *zap.SugaredLogger
	cache    *gocache.Cache
	mu       sync.Mutex
	registry *prometheus.Registry
	metrics  *metrics
	engine   *gin.Engine
}

// New wires routes, cache and metrics. Nothing is loaded until the first request.
func New(load LoadFunc, cfg Config) *Server {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	reg := prometheus.NewRegistry()
	s := &Server{
		cfg:      cfg,
		load:     load,
		log:      cfg.Logger,
		cache:    gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		registry: reg,
		metrics:  newMetrics(reg),
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))
	r.GET("/", s.handlePage)
	r.GET("/api/report", s.handleReport)
	r.POST("/api/refresh", s.handleRefresh)
	r.GET("/charts/:id", s.handleChart)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Report returns the cached report, rebuilding it when the cache has expired.
func (s *Server) Report() (*report.Report, error) {
	if v, ok := s.cache.Get(reportKey); ok {
		b := v.(built)
		return b.rep, b.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.cache.Get(reportKey); ok {
		b := v.(built)
		return b.rep, b.err
	}
	return s.rebuildLocked()
}

// Refresh discards the cached report and builds a new one.
func (s *Server) Refresh() (*report.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Flush()
	return s.rebuildLocked()
}

func (s *Server) rebuildLocked() (*report.Report, error) {
	start := time.Now()
	defer func() { s.metrics.buildSeconds.Observe(time.Since(start).Seconds()) }()

	f, err := s.load()
	if err != nil {
		s.metrics.builds.WithLabelValues("error").Inc()
		s.log.Errorw("load source failed", "error", err)
		return nil, fmt.Errorf("load source: %w", err)
	}
	s.metrics.rows.Set(float64(f.Len()))
	opt := s.cfg.Report
	opt.Logger = s.log
	rep, err := report.Build(f, opt)
	outcome := "ok"
	if err != nil {
		outcome = "partial"
	}
	s.metrics.builds.WithLabelValues(outcome).Inc()
	for _, step := range rep.Skipped {
		s.metrics.skipped.WithLabelValues(step).Inc()
	}
	s.cache.SetDefault(reportKey, built{rep: rep, err: err})
	return rep, err
}

func (s *Server) current(c *gin.Context) (*report.Report, bool) {
	rep, err := s.Report()
	if rep == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if err != nil {
		c.Header("X-Report-Failure", rep.Failure)
	}
	return rep, true
}

func (s *Server) handlePage(c *gin.Context) {
	rep, ok := s.current(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	err := rep.HTML(&buf, report.HTMLOptions{
		Live:     true,
		ChartURL: func(id string) string { return "/charts/" + id + "?run=" + rep.RunID },
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) handleReport(c *gin.Context) {
	rep, ok := s.current(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) handleRefresh(c *gin.Context) {
	rep, err := s.Refresh()
	if rep == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	body := gin.H{"run_id": rep.RunID, "rows": rep.Rows, "skipped": rep.Skipped}
	if err != nil {
		body["failure"] = rep.Failure
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleChart(c *gin.Context) {
	rep, ok := s.current(c)
	if !ok {
		return
	}
	id := c.Param("id")
	key := "chart:" + rep.RunID + ":" + id
	if v, ok := s.cache.Get(key); ok {
		c.Data(http.StatusOK, "image/png", v.([]byte))
		return
	}
	spec, found := rep.Chart(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "chart not found"})
		return
	}
	png, err := chart.RenderPNG(spec)
	if err != nil {
		s.log.Warnw("render chart failed", "chart", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.cache.SetDefault(key, png)
	c.Data(http.StatusOK, "image/png", png)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("dashboard listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	s.log.Infow("shutting down dashboard")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
