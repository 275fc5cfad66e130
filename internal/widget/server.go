package widget

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/joshuadavidthomas/copilotstatus/internal/logging"
)

// ViewSource produces the view served on each request.
type ViewSource func(ctx context.Context) View

// Server exposes the widget over local HTTP for status bars and scripts
// that would rather poll a URL than a file.
type Server struct {
	source  ViewSource
	limiter *rate.Limiter
}

// NewServer serves views from source, allowing perSecond requests with the
// given burst.
func NewServer(source ViewSource, perSecond float64, burst int) *Server {
	return &Server{source: source, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

// Router returns the configured handler.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := r.Group("/", s.rateLimit())
	api.GET("/widget.json", func(c *gin.Context) {
		c.JSON(http.StatusOK, NewDocument(s.source(c.Request.Context())))
	})
	api.GET("/widget.txt", func(c *gin.Context) {
		c.String(http.StatusOK, s.source(c.Request.Context()).Text())
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logging.FromContext(ctx).Info("widget server listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
