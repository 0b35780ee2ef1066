package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/autotest/backend/internal/api/handler"
	"github.com/autotest/backend/internal/api/middleware"
	"github.com/autotest/backend/internal/service"
)

type Server struct {
	router *gin.Engine
}

func NewServer(
	taskService service.ITaskService,
	resultService service.IResultService,
	envService service.IEnvironmentService,
	logger *zap.Logger,
) *Server {
	s := &Server{}

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.ErrorHandlingMiddleware(logger))
	s.router.Use(middleware.Cors())
	s.router.Use(middleware.Identity())

	taskHandler := handler.NewTaskHandler(taskService, logger)
	resultHandler := handler.NewResultHandler(resultService, logger)
	envHandler := handler.NewEnvHandler(envService, logger)

	v1 := s.router.Group("/api/v1")
	{
		tasks := v1.Group("/tasks")
		{
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("", taskHandler.ListTasks)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PUT("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
			tasks.GET("/:id/status", taskHandler.GetTaskStatus)
			tasks.GET("/:id/statistics", taskHandler.GetTaskStatistics)
			tasks.POST("/:id/start", taskHandler.StartTask)
			tasks.POST("/:id/pause", taskHandler.PauseTask)
			tasks.POST("/:id/resume", taskHandler.ResumeTask)
			tasks.POST("/:id/terminate", taskHandler.TerminateTask)
			tasks.POST("/:id/complete", taskHandler.CompleteTask)
		}

		results := v1.Group("/results")
		{
			results.POST("", resultHandler.RecordResult)
			results.GET("", resultHandler.ListResults)
			results.PUT("/:id/triage", resultHandler.UpdateTriage)
			results.GET("/by-task/:task_id", resultHandler.GetResultsByTask)
			results.GET("/by-suite/:suite_id", resultHandler.GetResultsBySuite)
		}

		envs := v1.Group("/envs")
		{
			envs.POST("", envHandler.CreateEnv)
			envs.GET("", envHandler.ListEnvs)
			envs.GET("/:id", envHandler.GetEnv)
			envs.POST("/:id/start", envHandler.StartEnv)
			envs.POST("/:id/stop", envHandler.StopEnv)
		}
	}

	s.router.GET("/health", handler.HealthCheck)

	return s
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}
