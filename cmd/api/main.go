// @title                       Volunteer Registration API
// @version                     1.0
// @description                 Registration of volunteers and interns with admin-only user queries.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/volunteerhub/registration-api/internal/api"
	"github.com/volunteerhub/registration-api/internal/api/handler"
	"github.com/volunteerhub/registration-api/internal/core/service"
	mongodb "github.com/volunteerhub/registration-api/internal/infrastructure/db/mongo"
	redisdb "github.com/volunteerhub/registration-api/internal/infrastructure/db/redis"
	"github.com/volunteerhub/registration-api/internal/infrastructure/security"
	"github.com/volunteerhub/registration-api/internal/pkg/config"
	"github.com/volunteerhub/registration-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "registration-api",
	})
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- MongoDB ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongodb.Disconnect(client); err != nil {
			log.Error().Err(err).Msg("mongo disconnect failed")
		}
	}()
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

	userRepo := mongodb.NewUserRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		return err
	}

	probes := map[string]handler.Probe{
		"mongodb": func(ctx context.Context) error { return client.Ping(ctx, nil) },
	}

	// --- Redis (optional) ---
	var throttle service.LoginThrottle
	redisCfg := redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
	if redisCfg.Enabled() {
		rdb, err := redisdb.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer closeRedis(rdb, log)
		throttle = redisdb.NewLoginThrottle(rdb, int(cfg.Auth.LoginMaxAttempts), cfg.Auth.LoginLockout)
		probes["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info().Str("addr", cfg.Redis.Addr).Msg("admin login throttle enabled")
	} else {
		log.Warn().Msg("REDIS_ADDR not set, admin login throttle disabled")
	}

	// --- Services ---
	tokens := security.NewJWTManager(cfg.Auth.JWTSecret)
	authService := service.NewAuthService(
		userRepo,
		security.NewBcryptHasher(cfg.Auth.BcryptCost),
		tokens,
		throttle,
		service.AuthConfig{
			Admin: service.AdminCredentials{
				Email:    cfg.Auth.AdminEmail,
				Password: cfg.Auth.AdminPassword,
			},
			UserTokenTTL:  cfg.Auth.UserTokenTTL,
			AdminTokenTTL: cfg.Auth.AdminTokenTTL,
		},
		logger.Component("auth"),
	)
	userService := service.NewUserService(userRepo, logger.Component("users"))

	// --- HTTP ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	e, err := api.NewRouter(api.Deps{
		Logger:      logger.Component("http"),
		Development: cfg.IsDevelopment(),
		AuthService: authService,
		UserService: userService,
		Tokens:      tokens,
		Probes:      probes,
		Registry:    reg,

		TrustedProxies: cfg.TrustedProxies,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func closeRedis(rdb *goredis.Client, log zerolog.Logger) {
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("redis close failed")
	}
}
