package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/jthistle/mahjong-back/internal/cache"
	"github.com/jthistle/mahjong-back/internal/database"
	"github.com/jthistle/mahjong-back/internal/registry"
	"github.com/jthistle/mahjong-back/internal/scheduler"
)

func main() {
	_ = godotenv.Load()

	log := logrus.New()
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.Connect(ctx, log)
	if err != nil {
		log.WithError(err).Fatal("connect store")
	}
	defer store.Close()

	cache.InitRedis(ctx, log)

	reg := registry.New(store, log)
	if err := reg.Load(ctx); err != nil {
		log.WithError(err).Fatal("restore games")
	}

	sched := scheduler.New(reg, log,
		envDuration("TICK_MS", scheduler.DefaultTick),
		envDuration("CLAIM_WINDOW_MS", scheduler.DefaultClaimWindow),
	)
	sched.Run(ctx)

	log.Info("shutting down")
}

// envDuration reads a millisecond count from the environment.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		logrus.WithField(key, v).Warn("ignoring invalid duration")
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
