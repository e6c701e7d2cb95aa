// Package server exposes the recommendation API over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/metrics"
	"github.com/spigell/assessment-recommender/internal/recommender"
)

const (
	DefaultPort = 8000

	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 10 * time.Minute
	defaultShutdownTimeout = 15 * time.Second
)

type Config struct {
	Port            int           `mapstructure:"port"`
	CORSOrigins     []string      `mapstructure:"cors-origins"`
	ReadTimeout     time.Duration `mapstructure:"read-timeout"`
	WriteTimeout    time.Duration `mapstructure:"write-timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
	Debug           bool          `mapstructure:"-"`
}

func (c *Config) setDefaults() {
	if c.Port <= 0 {
		c.Port = DefaultPort
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	// Refreshes scrape the whole catalog, so writes get a generous deadline.
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
}

// Deps are the collaborators the handlers compose.
type Deps struct {
	Catalog     catalog.Provider
	Recommender recommender.Service
	Metrics     *metrics.Metrics
	Version     string
	Logger      *zap.Logger
}

type Server struct {
	cfg     Config
	catalog catalog.Provider
	rec     recommender.Service
	metrics *metrics.Metrics
	version string
	logger  *zap.Logger
	now     func() time.Time

	engine *gin.Engine
}

func New(cfg Config, deps Deps) *Server {
	cfg.setDefaults()

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}

	s := &Server{
		cfg:     cfg,
		catalog: deps.Catalog,
		rec:     deps.Recommender,
		metrics: m,
		version: deps.Version,
		logger:  log,
		now:     time.Now,
	}

	engine := gin.New()
	engine.Use(
		recovery(log),
		requestID(),
		requestLogger(log),
		cors(cfg.CORSOrigins),
		observeRequests(m),
	)
	engine.HandleMethodNotAllowed = true
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	s.engine = engine
	s.routes()

	return s
}

func (s *Server) routes() {
	s.engine.POST("/recommend", s.handleRecommend)
	s.engine.GET("/assessments", s.handleAssessments)
	s.engine.GET("/refresh-assessments", s.handleRefresh)
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
}

// Engine returns the router so other components, such as the UI, can mount routes.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	return serve(ctx, srv, s.cfg.ShutdownTimeout, s.logger)
}

// serve runs srv until ctx is done. It is shared with the standalone UI server.
func serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, log *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting http server", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutting down http server", zap.Duration("timeout", shutdownTimeout))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("http server stopped")
	return nil
}

// Serve runs an arbitrary handler with the same lifecycle as Run.
func Serve(ctx context.Context, addr string, handler http.Handler, shutdownTimeout time.Duration, log *zap.Logger) error {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: defaultReadTimeout,
	}
	return serve(ctx, srv, shutdownTimeout, log)
}
