// @title        Login Service API
// @version      1.0
// @description  User registration, login and session tokens.
// @BasePath     /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/workforce/login-service/docs"
	"github.com/workforce/login-service/internal/api"
	"github.com/workforce/login-service/internal/api/handler"
	"github.com/workforce/login-service/internal/core/ports"
	"github.com/workforce/login-service/internal/core/service"
	"github.com/workforce/login-service/internal/infrastructure/crypto"
	mongostore "github.com/workforce/login-service/internal/infrastructure/db/mongo"
	redisstore "github.com/workforce/login-service/internal/infrastructure/db/redis"
	"github.com/workforce/login-service/internal/infrastructure/db/sqlstore"
	"github.com/workforce/login-service/internal/infrastructure/employee"
	"github.com/workforce/login-service/internal/infrastructure/token"
	"github.com/workforce/login-service/internal/infrastructure/tracing"
	"github.com/workforce/login-service/internal/pkg/config"
	"github.com/workforce/login-service/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "login-service:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: cfg.Tracing.ServiceName,
	})

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Env,
	}, log)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	issuer, err := token.NewJWTIssuer(cfg.JWT.Key, cfg.JWT.Issuer, cfg.JWT.Audience)
	if err != nil {
		return err
	}

	users := service.NewUserService(service.Deps{
		Users:     st.users,
		Roles:     st.roles,
		AuditLogs: st.audit,
		Employees: employee.NewClient(cfg.Employee.BaseURL),
		Hasher:    crypto.NewBcryptHasher(cfg.JWT.BcryptCost),
		Tokens:    issuer,
		Journal:   st.journal,
	}, service.Options{
		EmployeeTimeout: cfg.Employee.Timeout,
		AuditStrict:     cfg.AuditStrict,
	}, log)

	e := api.NewRouter(api.Deps{
		Users:   users,
		Tokens:  issuer,
		Journal: st.journal,
		Checks:  st.checks,
		Log:     log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.Store.Driver).Msg("http server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

type stores struct {
	users   ports.UserStore
	roles   ports.RoleStore
	audit   ports.AuditLogStore
	journal ports.CompensationJournal
	checks  map[string]handler.Check
	closers []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	st := &stores{checks: map[string]handler.Check{}}

	switch cfg.Store.Driver {
	case config.StoreMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() { _ = client.Disconnect(context.Background()) })

		if err := mongostore.Bootstrap(ctx, db); err != nil {
			st.close()
			return nil, err
		}
		st.users = mongostore.NewUserRepository(db)
		st.roles = mongostore.NewRoleRepository(db)
		st.audit = mongostore.NewAuditLogRepository(db)
		st.checks["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }

	default:
		db, err := sqlstore.Open(ctx, sqlstore.Config{Driver: cfg.Store.Driver, DSN: cfg.Store.DSN})
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() { _ = db.Close() })

		st.users = sqlstore.NewUserRepository(db)
		st.roles = sqlstore.NewRoleRepository(db)
		st.audit = sqlstore.NewAuditLogRepository(db)
		st.checks[cfg.Store.Driver] = db.PingContext
	}

	if cfg.Redis.Addr == "" {
		log.Warn().Msg("REDIS_ADDR not set: failed compensations are only logged")
		return st, nil
	}

	journal, err := redisstore.OpenJournal(ctx, redisstore.Config{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		TLS:        cfg.Redis.TLS,
		JournalKey: cfg.Redis.JournalKey,
		JournalCap: cfg.Redis.JournalCap,
	})
	if err != nil {
		st.close()
		return nil, err
	}
	st.closers = append(st.closers, func() { _ = journal.Close() })
	st.journal = journal
	st.checks["redis"] = journal.Ping

	return st, nil
}
