package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/autotest/backend/internal/api"
	"github.com/autotest/backend/internal/infra/persistence/envrepo"
	"github.com/autotest/backend/internal/infra/persistence/resultrepo"
	"github.com/autotest/backend/internal/infra/persistence/suiterepo"
	"github.com/autotest/backend/internal/infra/persistence/taskrepo"
	"github.com/autotest/backend/internal/orm"
	"github.com/autotest/backend/internal/service"
	"github.com/autotest/backend/pkg/config"
	"github.com/autotest/backend/pkg/logger"
)

func main() {
	// 解析命令行参数
	var configPath string
	flag.StringVar(&configPath, "config", "configs/config.yaml", "path to config file")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 创建日志器
	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting autotest backend",
		zap.Int("port", cfg.Server.Port))

	// 创建存储
	storageConfig := orm.Config{
		Host:                  cfg.Database.Host,
		Port:                  cfg.Database.Port,
		Database:              cfg.Database.Database,
		User:                  cfg.Database.User,
		Password:              cfg.Database.Password,
		MaxConnections:        cfg.Database.MaxConnections,
		MaxIdleConnections:    cfg.Database.MaxIdleConnections,
		ConnectionMaxLifetime: cfg.Database.ConnectionMaxLifetime,
	}

	db, err := orm.New(storageConfig)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// 创建repositories
	taskRepo := taskrepo.NewMysqlRepositoryImpl(db.DB())
	resultRepo := resultrepo.NewMysqlRepositoryImpl(db.DB())
	envRepo := envrepo.NewMysqlRepositoryImpl(db.DB())
	suiteRepo := suiterepo.NewMysqlRepositoryImpl(db.DB())

	// 后台供给与对账
	queue := ProvideQueue(*cfg, ProvideRedisClient(*cfg))
	worker := ProvideWorker(*cfg, queue, ProvideBackend(*cfg), envRepo, zapLogger)
	reconciler := ProvideReconciler(*cfg, taskRepo, resultRepo, zapLogger)

	// 创建services
	audit := service.NewLogAuditSink(zapLogger)
	taskService := service.NewTaskService(taskRepo, suiteRepo, envRepo, audit, zapLogger)
	resultService := service.NewResultService(resultRepo, taskRepo, suiteRepo, zapLogger)
	envService := service.NewEnvironmentService(envRepo, queue, audit, zapLogger)

	// 创建API服务器
	apiServer := api.NewServer(taskService, resultService, envService, zapLogger)

	app := NewApp(apiServer, worker, reconciler)
	if err := app.Start(); err != nil {
		zapLogger.Fatal("Failed to start background tasks", zap.Error(err))
	}

	// 启动HTTP服务器
	httpServer := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        app.Router(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		zapLogger.Info("Starting API server",
			zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start API server", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	zapLogger.Info("Shutting down...")

	// 优雅关闭HTTP服务器
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		zapLogger.Error("Failed to shutdown API server", zap.Error(err))
	}

	// 停止后台任务
	app.Stop()

	zapLogger.Info("Shutdown complete")
}
