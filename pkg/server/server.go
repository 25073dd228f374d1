// Package server exposes the health, metrics and webhook endpoints.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"questionnairebot/pkg/logx"
)

const shutdownTimeout = 5 * time.Second

// Pinger reports whether the record sink is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// UpdateHandler receives updates pushed to the webhook endpoint.
type UpdateHandler func(ctx context.Context, update tgbotapi.Update)

type Options struct {
	Addr     string
	Sink     Pinger
	Sessions func() int
	Metrics  http.Handler
	// WebhookPath enables POST <path> when OnUpdate is set.
	WebhookPath string
	OnUpdate    UpdateHandler
	Logger      *slog.Logger
}

type Server struct {
	opts   Options
	engine *gin.Engine
	logger *slog.Logger
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Sessions int    `json:"sessions"`
}

func New(opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		opts:   opts,
		engine: gin.New(),
		logger: logx.Component(opts.Logger, "http"),
	}
	s.engine.Use(gin.Recovery(), s.requestLog())

	s.engine.GET("/", s.handleRoot)
	s.engine.GET("/healthz", s.handleHealth)
	if opts.Metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(opts.Metrics))
	}
	if opts.WebhookPath != "" && opts.OnUpdate != nil {
		s.engine.POST(opts.WebhookPath, s.handleWebhook)
	}
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http.listen", slog.String("addr", s.opts.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("http.stopped")
	return nil
}

func (s *Server) handleRoot(c *gin.Context) {
	c.String(http.StatusOK, "Questionnaire bot is running")
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := healthResponse{Status: "ok", Database: "ok"}
	if s.opts.Sessions != nil {
		resp.Sessions = s.opts.Sessions()
	}

	status := http.StatusOK
	if s.opts.Sink != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.opts.Sink.Ping(ctx); err != nil {
			s.logger.Warn("http.health_db_failed", slog.String("err", err.Error()))
			resp.Status, resp.Database = "degraded", "unavailable"
			status = http.StatusServiceUnavailable
		}
	}
	c.JSON(status, resp)
}

func (s *Server) handleWebhook(c *gin.Context) {
	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		s.logger.Warn("http.webhook_bad_payload", slog.String("err", err.Error()))
		c.Status(http.StatusBadRequest)
		return
	}
	rid := logx.NewRID()
	ctx := logx.WithRID(context.WithoutCancel(c.Request.Context()), rid)
	s.logger.Debug("http.webhook_update", slog.Int("update_id", update.UpdateID), slog.String("rid", rid))
	s.opts.OnUpdate(ctx, update)
	c.Status(http.StatusOK)
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http.request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("took", time.Since(start)),
		)
	}
}
