package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	adminhandler "medgate/internal/admin/handler"
	adminservice "medgate/internal/admin/service"
	"medgate/internal/auth/guard"
	"medgate/internal/auth/password"
	authservice "medgate/internal/auth/service"
	jwttoken "medgate/internal/jwt_token"
	"medgate/internal/platform/config"
	"medgate/internal/platform/httpserver"
	"medgate/internal/platform/logger"
	"medgate/internal/platform/metrics"
	lockoutsvc "medgate/internal/ratelimit/service/authlockout"
	"medgate/internal/specialty"
	httptransport "medgate/internal/transport/http"
	"medgate/pkg/platform/audit/publisher"
)

const auditBufferSize = 1024

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close()

	m := metrics.New()
	stores := buildStores(infra)

	auditPublisher := publisher.NewPublisher(buildAuditStore(infra),
		publisher.WithAsyncBuffer(auditBufferSize),
		publisher.WithLogger(log),
	)
	defer auditPublisher.Close()

	lockout, err := lockoutsvc.New(buildLockoutStore(infra),
		lockoutsvc.WithConfig(cfg.Lockout),
		lockoutsvc.WithLogger(log),
		lockoutsvc.WithAuditPublisher(auditPublisher),
		lockoutsvc.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("build lockout service: %w", err)
	}

	hasher, err := password.NewHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("build password hasher: %w", err)
	}
	tokens := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	catalog := specialty.NewRegistry(specialty.Default())

	auth, err := authservice.New(stores.whitelist, stores.accounts, stores.registrationTx, hasher, tokens,
		authservice.WithLogger(log),
		authservice.WithAuditPublisher(auditPublisher),
		authservice.WithMetrics(m),
		authservice.WithLockout(lockout),
		authservice.WithSpecialtyResolver(catalog),
		authservice.WithTokenTTL(cfg.Auth.TokenTTL),
	)
	if err != nil {
		return fmt.Errorf("build auth service: %w", err)
	}
	admin, err := adminservice.New(stores.whitelist, stores.accounts,
		adminservice.WithLogger(log),
		adminservice.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		return fmt.Errorf("build admin service: %w", err)
	}

	authorizer := guard.New(tokens, guard.WithMetrics(m))
	router := httptransport.NewRouter(log, []httptransport.Registrar{
		httptransport.NewAuthHandler(auth, authorizer, log),
		httptransport.NewDashboardHandler(catalog, authorizer, log),
		adminhandler.New(admin, log, cfg.AdminAPIToken),
	},
		httptransport.WithMetrics(m, promhttp.Handler()),
		httptransport.WithReadiness(func() error { return infra.Ping(ctx) }),
	)
	if cfg.AdminAPIToken == "" {
		log.Warn("ADMIN_API_TOKEN is not set; admin endpoints will reject every request")
	}

	srv := httpserver.New(cfg.Addr, router)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting medgate", "addr", cfg.Addr, "environment", cfg.Environment, "storage", infra.StorageKind())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func logClose(log *slog.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		log.Warn("close failed", "resource", name, "error", err)
	}
}
