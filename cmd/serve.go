package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/promptdj/internal/server"
	"github.com/urfave/cli/v3"
)

const limiterCleanupInterval = 10 * time.Minute

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("dev") {
		r.config.Server.Dev = true
	}
	addr := r.config.Server.Addr()
	if a := cmd.String("addr"); a != "" {
		addr = a
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, limiter, err := r.newServer(ctx, addr)
	if err != nil {
		return err
	}
	if limiter != nil {
		defer limiter.Stop()
	}

	r.logger.Info("serving recommendation API", "addr", addr, "dev", r.config.Server.Dev)
	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	r.logger.Info("server stopped")
	return nil
}

// newServer assembles handlers, middleware and the per-client limiter. The limiter is nil when
// disabled.
func (r *Runner) newServer(ctx context.Context, addr string) (*server.Server, *server.RateLimiter, error) {
	resolver, err := r.buildResolver(ctx)
	if err != nil {
		return nil, nil, err
	}

	recommendHandler, err := server.NewRecommendHandler(server.RecommendHandlerOpts{
		Resolver:    resolver,
		RecentTurns: r.config.Resolver.RecentTurns,
		Dev:         r.config.Server.Dev,
		Logger:      r.logger,
	})
	if err != nil {
		return nil, nil, err
	}

	// rate_limit = 0 disables limiting
	var limiter *server.RateLimiter
	if r.config.Server.RateLimit > 0 {
		limiter = server.NewRateLimiter(r.config.Server.RateLimit, r.config.Server.RateBurst)
		if err := limiter.TrustProxies(r.config.Server.TrustedProxies); err != nil {
			return nil, nil, err
		}
		limiter.StartCleanup(limiterCleanupInterval)
	}

	router := server.NewRouter(server.RouterOpts{
		Recommend:     recommendHandler,
		Genres:        server.NewGenresHandler(resolver.Classifier()),
		Health:        server.NewHealthHandler(version),
		Limiter:       limiter,
		AllowedOrigin: r.config.Server.AllowedOrigin,
		Dev:           r.config.Server.Dev,
		Logger:        r.logger,
	})

	return server.NewServer(addr, router, r.logger), limiter, nil
}
