package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"days-api/service/days"
	"days-api/service/days/domain"
	"days-api/service/days/infra"

	flags "github.com/jessevdk/go-flags"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stderr, nil)
	cancel()
	if err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		fmt.Fprintf(os.Stderr, "days-api: %v\n", err)
		os.Exit(1)
	}
}

// run serve até ctx encerrar e só retorna depois que o Shutdown terminou de
// drenar as requisições em andamento. ready, se não nil, recebe o endereço
// efetivo assim que o listener abre.
func run(ctx context.Context, args []string, stderr io.Writer, ready func(addr string)) error {
	cfg, err := readConfig(args)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log, stderr)

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	stats := infra.NewMemoryStats()
	var observers []domain.HistoryObserver
	if cfg.Stats.RedisEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Stats.RedisAddr,
			Password: cfg.Stats.RedisPassword,
			DB:       cfg.Stats.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			return fmt.Errorf("redis stats ping: %w", err)
		}

		observers = append(observers, infra.NewRedisStats(
			rdb,
			infra.WithStatsPrefix(cfg.Stats.Prefix),
			infra.WithStatsTTL(cfg.Stats.TTL),
		))
	}

	var rate days.RateLimitOptions
	if cfg.Rate.Enabled {
		store := infra.NewLimiterStore(cfg.Rate.RPS, cfg.Rate.Burst,
			infra.WithRouteLimits(domain.RouteDeleteHistory, cfg.Rate.ClearRPS, cfg.Rate.ClearBurst),
		)
		store.StartJanitor(ctx)
		rate = days.RateLimitOptions{
			Store:               store,
			KeyHeader:           cfg.Rate.KeyHeader,
			TrustXForwardedFor:  cfg.Rate.TrustXFF,
			RetryAfter:          cfg.Rate.RetryAfter,
			AddRateLimitHeaders: cfg.Rate.AddHeaders,
		}
	}

	handler := days.NewHandler(days.Options{
		History:   infra.NewMemoryHistory(),
		Stats:     stats,
		Observers: observers,
		Logger:    logger,
		RateLimit: rate,
		Concurrency: days.ConcurrencyOptions{
			Max:            cfg.Concurrency.Max,
			AcquireTimeout: cfg.Concurrency.Timeout,
		},
	})

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	shutdownDone := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownDone <- srv.Shutdown(shutdownCtx)
	}()

	addr := ln.Addr().String()
	logger.Info("days-api listening", "addr", addr)
	logger.Info("rate limit", "enabled", cfg.Rate.Enabled, "rps", cfg.Rate.RPS, "burst", cfg.Rate.Burst, "clearRPS", cfg.Rate.ClearRPS, "clearBurst", cfg.Rate.ClearBurst, "keyHeader", cfg.Rate.KeyHeader, "trustXFF", cfg.Rate.TrustXFF)
	logger.Info("concurrency", "max", cfg.Concurrency.Max, "acquireTimeout", cfg.Concurrency.Timeout)
	logger.Info("stats", "redis", cfg.Stats.RedisEnabled, "redisAddr", cfg.Stats.RedisAddr, "prefix", cfg.Stats.Prefix, "ttl", cfg.Stats.TTL)

	if ready != nil {
		ready(addr)
	}

	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		stop()
		<-shutdownDone
		return fmt.Errorf("server: %w", err)
	}
	// Serve retorna assim que o Shutdown fecha o listener; as requisições
	// em andamento ainda estão sendo drenadas.
	if err := <-shutdownDone; err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("days-api stopped")
	return nil
}
