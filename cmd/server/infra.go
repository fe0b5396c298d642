package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	adminservice "medgate/internal/admin/service"
	authservice "medgate/internal/auth/service"
	"medgate/internal/auth/store/account"
	"medgate/internal/auth/store/whitelist"
	"medgate/internal/platform/config"
	"medgate/internal/platform/postgres"
	"medgate/internal/platform/redis"
	lockoutsvc "medgate/internal/ratelimit/service/authlockout"
	lockoutstore "medgate/internal/ratelimit/store/authlockout"
	"medgate/migrations"
	"medgate/pkg/platform/audit"
	"medgate/pkg/platform/audit/publishers/kafka"
	auditmemory "medgate/pkg/platform/audit/store/memory"
	auditpostgres "medgate/pkg/platform/audit/store/postgres"
)

// infra holds the optional external dependencies. Each one is nil when its
// configuration is empty, and the in-memory implementation takes its place.
type infra struct {
	log   *slog.Logger
	db    *sql.DB
	redis *redis.Client
	kafka *kafka.Sink
}

func openInfra(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	in := &infra{log: log}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	in.db = db
	if db != nil {
		if err := migrations.Apply(ctx, db); err != nil {
			in.Close()
			return nil, err
		}
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		in.Close()
		return nil, err
	}
	in.redis = rdb

	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := kafka.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, log)
		if err != nil {
			in.Close()
			return nil, fmt.Errorf("connect kafka: %w", err)
		}
		in.kafka = sink
		if err := sink.EnsureTopic(ctx, cfg.Kafka.Partitions, cfg.Kafka.Replication); err != nil {
			log.Warn("audit topic bootstrap failed", "topic", cfg.Kafka.AuditTopic, "error", err)
		}
	}
	return in, nil
}

func (in *infra) StorageKind() string {
	if in.db != nil {
		return "postgres"
	}
	return "memory"
}

// Ping is the readiness check: every configured backend must answer.
func (in *infra) Ping(ctx context.Context) error {
	var errs []error
	if in.db != nil {
		errs = append(errs, in.db.PingContext(ctx))
	}
	if in.redis != nil {
		errs = append(errs, in.redis.Health(ctx))
	}
	return errors.Join(errs...)
}

func (in *infra) Close() {
	if in.kafka != nil {
		in.kafka.Close()
	}
	if in.redis != nil {
		logClose(in.log, "redis", in.redis.Close)
	}
	if in.db != nil {
		logClose(in.log, "postgres", in.db.Close)
	}
}

type whitelistStore interface {
	authservice.WhitelistStore
	adminservice.WhitelistStore
}

type accountStore interface {
	authservice.AccountStore
	adminservice.AccountStore
}

type stores struct {
	whitelist      whitelistStore
	accounts       accountStore
	registrationTx authservice.RegistrationTx
}

func buildStores(in *infra) stores {
	if in.db != nil {
		wl := whitelist.NewPostgres(in.db)
		accounts := account.NewPostgres(in.db)
		return stores{
			whitelist:      wl,
			accounts:       accounts,
			registrationTx: newRegistrationPostgresTx(in.db, wl, accounts),
		}
	}
	wl := whitelist.New()
	accounts := account.New()
	return stores{
		whitelist:      wl,
		accounts:       accounts,
		registrationTx: authservice.NewInMemoryRegistrationTx(wl, accounts),
	}
}

func buildAuditStore(in *infra) audit.Store {
	var primary audit.Store = auditmemory.NewInMemoryStore()
	if in.db != nil {
		primary = auditpostgres.New(in.db)
	}
	if in.kafka != nil {
		return audit.Fanout(primary, in.kafka)
	}
	return primary
}

// buildLockoutStore prefers Redis so lockout state is shared across
// replicas without touching the primary database on every failed login.
func buildLockoutStore(in *infra) lockoutsvc.Store {
	switch {
	case in.redis != nil:
		return lockoutstore.NewRedis(in.redis.Client)
	case in.db != nil:
		return lockoutstore.NewPostgres(in.db)
	default:
		return lockoutstore.New()
	}
}
