// Package postback is the HTTP surface of the funnel: the broker postback
// ingestor and the signed referral redirector.
package postback

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"funnelbot/core/logger"
)

// Server hosts the gin router on a plain http.Server so shutdown is driven
// by the application context.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer builds the HTTP server around the handler set.
func NewServer(addr string, h *Handler) *Server {
	router := newRouter(h)
	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func newRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), accessLog())

	router.GET("/", h.Health)
	router.GET("/pb", h.Postback)
	router.GET("/go/:kind", h.Redirect)
	router.GET("/r/:click_id/:sig", h.ShortRedirect("reg"))
	router.GET("/d/:click_id/:sig", h.ShortRedirect("dep"))

	return router
}

// Start serves until the context is canceled, then drains with a timeout.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.PB.Info("http listening",
			slog.String("event", "http.listen"),
			slog.String("addr", s.addr),
		)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.PB.Info("http stopped", slog.String("event", "http.stop"))
	return nil
}

// requestID tags every request with a UUID for log correlation.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set("rid", rid)
		c.Header("X-Request-ID", rid)
		c.Next()
	}
}

// accessLog emits one structured line per request.
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.PB.Info("request",
			slog.String("event", "http.request"),
			slog.String("rid", c.GetString("rid")),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", logger.Took(start)),
		)
	}
}
