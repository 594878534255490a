// Package server exposes the name pipeline, the author classifier and speech
// playback as a JSON API for a browser front end.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"memorahanzi/internal/app"
	"memorahanzi/pkg/config"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	engine *gin.Engine
	http   *http.Server
}

func New(svc *app.Service, cfg config.ServerConfig) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := newEngine(svc, cfg)

	return &Server{
		engine: engine,
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func newEngine(svc *app.Service, cfg config.ServerConfig) *gin.Engine {
	engine := gin.New()
	// Author ids and keywords travel as path segments and may contain "/".
	engine.UseRawPath = true
	engine.UnescapePathValues = true
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger())
	if collector := svc.Metrics(); collector != nil {
		engine.Use(Metrics(collector))
		engine.GET("/metrics", gin.WrapH(collector.Handler()))
	}
	engine.Use(MaxBodySize(maxBodyBytes))
	engine.Use(CORS(cfg.AllowedOrigins))

	registerRoutes(engine, NewAPI(svc, cfg.AllowedOrigins), RateLimit(cfg.RateLimit, cfg.RateBurst))
	return engine
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	// Hijacked websocket connections outlive Shutdown; tie them to ctx.
	s.http.BaseContext = func(net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Listening", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("Shutting down")
		return s.http.Shutdown(shutdownCtx)
	}
}
