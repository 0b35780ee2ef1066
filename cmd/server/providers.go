package main

import (
	"fmt"

	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/autotest/backend/internal/biz/environment"
	"github.com/autotest/backend/internal/biz/result"
	"github.com/autotest/backend/internal/biz/task"
	"github.com/autotest/backend/internal/provisioner"
	"github.com/autotest/backend/internal/reconcile"
	"github.com/autotest/backend/pkg/config"
)

// ProvideRedisClient builds a redis client from typed config.
// Returns nil when redis is disabled.
func ProvideRedisClient(cfg config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	addr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func ProvideQueue(cfg config.Config, rdb *redis.Client) provisioner.Queue {
	return provisioner.NewQueue(rdb,
		cfg.Provisioner.QueueKey,
		cfg.Provisioner.QueueSize,
		cfg.Provisioner.PollInterval)
}

func ProvideBackend(cfg config.Config) provisioner.Backend {
	return provisioner.NewDockerBackend(cfg.Provisioner.DefaultImage)
}

func ProvideWorker(
	cfg config.Config,
	queue provisioner.Queue,
	backend provisioner.Backend,
	envRepo environment.Repo,
	logger *zap.Logger,
) *provisioner.Worker {
	return provisioner.NewWorker(queue, backend, envRepo, cfg.Provisioner.Workers, logger)
}

// ProvideReconciler returns nil when reconciliation is disabled.
func ProvideReconciler(
	cfg config.Config,
	taskRepo task.Repo,
	resultRepo result.Repo,
	logger *zap.Logger,
) *reconcile.Reconciler {
	if !cfg.Reconcile.Enabled {
		return nil
	}
	return reconcile.New(taskRepo, resultRepo, cfg.Reconcile.Spec, logger)
}
