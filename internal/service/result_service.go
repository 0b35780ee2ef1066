package service

import (
	"context"
	"errors"
	"time"

	"github.com/autotest/backend/internal/biz/result"
	"github.com/autotest/backend/internal/biz/suite"
	"github.com/autotest/backend/internal/biz/task"
	domainError "github.com/autotest/backend/internal/domain/error"
	"go.uber.org/zap"
)

// RecordResultInput 上报用例结果入参
type RecordResultInput struct {
	TaskID       string            `json:"task_id" binding:"required"`
	CaseID       string            `json:"case_id" binding:"required"`
	Status       result.Status     `json:"status" binding:"required"`
	MarkStatus   result.MarkStatus `json:"mark_status"`
	AnalysisNote string            `json:"analysis_note"`
	ExecuteTime  time.Time         `json:"execute_time"`
	LogPath      string            `json:"log_path"`
}

// TaskResults 任务维度的结果汇总。
// 计数来自结果行扫描，任务上缓存的计数可能滞后，以这里为准。
type TaskResults struct {
	SuiteID     string               `json:"suite_id"`
	SuiteName   string               `json:"suite_name"`
	TaskID      string               `json:"task_id"`
	TaskStatus  task.Status          `json:"task_status"`
	StartTime   *time.Time           `json:"start_time"`
	EndTime     *time.Time           `json:"end_time"`
	Counts      result.StatusCounts  `json:"counts"`
	CaseResults []*result.CaseResult `json:"case_results"`
}

// IResultService 结果汇总服务接口
type IResultService interface {
	Record(ctx context.Context, input RecordResultInput) (*result.CaseResult, error)
	UpdateTriage(ctx context.Context, resultID string, mark result.MarkStatus, note string) (*result.CaseResult, error)
	List(ctx context.Context, filter result.ListFilter, offset, limit int) ([]*result.CaseResult, int64, error)
	ResultsByTask(ctx context.Context, taskID string) (*TaskResults, error)
	ResultsBySuite(ctx context.Context, suiteID string) (*TaskResults, error)
}

type ResultService struct {
	resultRepo result.Repo
	taskRepo   task.Repo
	suiteRepo  suite.Repo
	logger     *zap.Logger
}

// NewResultService 创建结果汇总服务
func NewResultService(
	resultRepo result.Repo,
	taskRepo task.Repo,
	suiteRepo suite.Repo,
	logger *zap.Logger,
) IResultService {
	return &ResultService{
		resultRepo: resultRepo,
		taskRepo:   taskRepo,
		suiteRepo:  suiteRepo,
		logger:     logger,
	}
}

// Record 追加一条用例结果。同一(task, case)允许多条记录，按执行记录留痕。
func (s *ResultService) Record(ctx context.Context, input RecordResultInput) (*result.CaseResult, error) {
	if _, err := s.taskRepo.GetByID(ctx, input.TaskID); err != nil {
		return nil, err
	}
	if ok, err := s.suiteRepo.CaseExists(ctx, input.CaseID); err != nil {
		return nil, err
	} else if !ok {
		return nil, domainError.ErrCaseNotFound
	}

	r, err := result.New(input.TaskID, input.CaseID, input.Status,
		input.ExecuteTime, input.LogPath, input.MarkStatus, input.AnalysisNote)
	if err != nil {
		return nil, err
	}

	if err := s.resultRepo.Create(ctx, r); err != nil {
		return nil, err
	}

	s.logger.Debug("用例结果已记录",
		zap.String("result_id", r.ID),
		zap.String("task_id", r.TaskID),
		zap.String("case_id", r.CaseID),
		zap.String("status", string(r.Status)))
	return r, nil
}

func (s *ResultService) UpdateTriage(ctx context.Context, resultID string, mark result.MarkStatus, note string) (*result.CaseResult, error) {
	r, err := s.resultRepo.GetByID(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if err := r.MarkTriage(mark, note); err != nil {
		return nil, err
	}
	if err := s.resultRepo.Save(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *ResultService) List(ctx context.Context, filter result.ListFilter, offset, limit int) ([]*result.CaseResult, int64, error) {
	return s.resultRepo.List(ctx, filter, offset, limit)
}

func (s *ResultService) ResultsByTask(ctx context.Context, taskID string) (*TaskResults, error) {
	t, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, t)
}

// ResultsBySuite 选取测试套下最近启动的任务并汇总，不跨任务聚合
func (s *ResultService) ResultsBySuite(ctx context.Context, suiteID string) (*TaskResults, error) {
	if ok, err := s.suiteRepo.SuiteExists(ctx, suiteID); err != nil {
		return nil, err
	} else if !ok {
		return nil, domainError.ErrSuiteNotFound
	}

	latest, err := s.taskRepo.LatestBySuite(ctx, suiteID)
	if err != nil {
		if errors.Is(err, domainError.ErrTaskNotFound) {
			return nil, domainError.ErrSuiteNoExecutions
		}
		return nil, err
	}
	return s.summarize(ctx, latest)
}

func (s *ResultService) summarize(ctx context.Context, t *task.ExecutionTask) (*TaskResults, error) {
	results, err := s.resultRepo.ListByTask(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	counts, err := s.resultRepo.CountByTask(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	suiteName := ""
	if ts, err := s.suiteRepo.GetSuite(ctx, t.SuiteID); err == nil {
		suiteName = ts.Name
	}

	return &TaskResults{
		SuiteID:     t.SuiteID,
		SuiteName:   suiteName,
		TaskID:      t.ID,
		TaskStatus:  t.Status,
		StartTime:   t.StartTime,
		EndTime:     t.EndTime,
		Counts:      counts,
		CaseResults: results,
	}, nil
}
