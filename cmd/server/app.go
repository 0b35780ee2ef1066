package main

import (
	"github.com/gin-gonic/gin"

	"github.com/autotest/backend/internal/api"
	"github.com/autotest/backend/internal/provisioner"
	"github.com/autotest/backend/internal/reconcile"
)

// App 聚合HTTP服务与后台任务，统一启停
type App struct {
	server     *api.Server
	worker     *provisioner.Worker
	reconciler *reconcile.Reconciler
}

func NewApp(server *api.Server, worker *provisioner.Worker, reconciler *reconcile.Reconciler) *App {
	return &App{
		server:     server,
		worker:     worker,
		reconciler: reconciler,
	}
}

func (a *App) Start() error {
	a.worker.Start()
	if a.reconciler != nil {
		if err := a.reconciler.Start(); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) Stop() {
	if a.reconciler != nil {
		a.reconciler.Stop()
	}
	a.worker.Stop()
}

func (a *App) Router() *gin.Engine {
	return a.server.Router()
}
