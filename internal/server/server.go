// Package server exposes scene analysis as an upload form and a JSON API.
package server

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mgpai22/scenesage/internal/config"
	"github.com/mgpai22/scenesage/internal/llm"
	"github.com/mgpai22/scenesage/internal/logging"
	"github.com/mgpai22/scenesage/internal/pipeline"
	"github.com/mgpai22/scenesage/internal/video"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	shutdownTimeout = 5 * time.Second
)

// ClientFactory builds the model client for one request's configuration.
type ClientFactory func(ctx context.Context, cfg *config.Config) (llm.Client, error)

type Options struct {
	// defaults to pipeline.NewClient
	NewClient ClientFactory
	Processor *video.Processor
	Logger    *logging.Logger
}

type Server struct {
	cfg       *config.Config
	newClient ClientFactory
	proc      *video.Processor
	logger    *logging.Logger
	engine    *gin.Engine
}

func New(cfg *config.Config, opts Options) *Server {
	s := &Server{
		cfg:       cfg,
		newClient: opts.NewClient,
		proc:      opts.Processor,
		logger:    logging.OrNop(opts.Logger),
	}
	if s.newClient == nil {
		s.newClient = pipeline.NewClient
	}
	if s.proc == nil {
		s.proc = video.NewProcessor("")
	}

	s.engine = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = s.uploadLimit()
	r.SetHTMLTemplate(template.Must(template.New("pages").Funcs(templateFuncs).Parse(pagesTemplate)))

	r.Use(gin.Recovery())
	r.Use(s.requestID())
	r.Use(s.accessLog())
	r.Use(cors.Default())

	r.GET("/", s.index)
	r.GET("/healthz", s.health)

	upload := r.Group("/", s.limitUpload())
	{
		upload.POST("/analyze", s.analyzeForm)
		upload.POST("/api/analyze", s.analyzeAPI)
	}

	return r
}

// Run serves on cfg.Server.Addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Infow("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) uploadLimit() int64 {
	return int64(s.cfg.Server.MaxUploadMB) << 20
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Infow("Request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start).Round(time.Millisecond),
			"request_id", c.GetString(requestIDKey),
		)
	}
}

func (s *Server) limitUpload() gin.HandlerFunc {
	limit := s.uploadLimit()
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
