package service

import (
	"context"
	"testing"

	"github.com/autotest/backend/internal/biz/environment"
	domainError "github.com/autotest/backend/internal/domain/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newEnvServiceFixture() (*fakeEnvRepo, *fakeQueue, IEnvironmentService) {
	envRepo := newFakeEnvRepo()
	queue := &fakeQueue{}
	svc := NewEnvironmentService(envRepo, queue, noopAuditSink{}, zap.NewNop())
	return envRepo, queue, svc
}

func TestEnvService_Create(t *testing.T) {
	envRepo, queue, svc := newEnvServiceFixture()
	ctx := context.Background()

	env, err := svc.Create(ctx, CreateEnvInput{
		Name:  "ci-env",
		Image: "ubuntu:20.04",
		Config: map[string]any{
			"environment": map[string]any{"TZ": "Asia/Shanghai"},
		},
	}, "admin")
	require.NoError(t, err)

	assert.Contains(t, env.ID, "env-")
	assert.Equal(t, environment.StatusPending, env.Status)
	assert.Equal(t, "admin", env.Owner)
	assert.NotEmpty(t, env.ProvisionToken)

	// 创建即投递一次异步供给请求
	require.Len(t, queue.requests, 1)
	req := queue.requests[0]
	assert.Equal(t, env.ID, req.EnvID)
	assert.Equal(t, environment.ActionCreate, req.Action)
	assert.Equal(t, env.ProvisionToken, req.Token)

	stored, err := envRepo.GetByID(ctx, env.ID)
	require.NoError(t, err)
	assert.Equal(t, env.ProvisionToken, stored.ProvisionToken)
}

func TestEnvService_Create_EmptyName(t *testing.T) {
	_, _, svc := newEnvServiceFixture()

	_, err := svc.Create(context.Background(), CreateEnvInput{}, "admin")
	var verr *domainError.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)
}

func TestEnvService_Create_EnqueueFailure(t *testing.T) {
	envRepo, queue, svc := newEnvServiceFixture()
	ctx := context.Background()
	queue.failNext = true

	// 投递失败不影响创建，只把环境置为不可用
	env, err := svc.Create(ctx, CreateEnvInput{Name: "ci-env"}, "admin")
	require.NoError(t, err)

	stored, err := envRepo.GetByID(ctx, env.ID)
	require.NoError(t, err)
	assert.Equal(t, environment.StatusUnavailable, stored.Status)
}

func TestEnvService_RequestStart_RotatesToken(t *testing.T) {
	envRepo, queue, svc := newEnvServiceFixture()
	ctx := context.Background()

	env, err := svc.Create(ctx, CreateEnvInput{Name: "ci-env"}, "admin")
	require.NoError(t, err)
	firstToken := env.ProvisionToken

	require.NoError(t, svc.RequestStart(ctx, env.ID, "admin"))

	// 新请求携带新令牌并落库，旧请求在消费侧会被判为过期
	require.Len(t, queue.requests, 2)
	startReq := queue.requests[1]
	assert.Equal(t, environment.ActionStart, startReq.Action)
	assert.NotEqual(t, firstToken, startReq.Token)

	stored, err := envRepo.GetByID(ctx, env.ID)
	require.NoError(t, err)
	assert.Equal(t, startReq.Token, stored.ProvisionToken)
}

func TestEnvService_Request_UnknownEnv(t *testing.T) {
	_, _, svc := newEnvServiceFixture()
	ctx := context.Background()

	assert.ErrorIs(t, svc.RequestStart(ctx, "env-404", "admin"), domainError.ErrEnvNotFound)
	assert.ErrorIs(t, svc.RequestStop(ctx, "env-404", "admin"), domainError.ErrEnvNotFound)
}

func TestEnvService_ReserveRelease(t *testing.T) {
	envRepo, _, svc := newEnvServiceFixture()
	ctx := context.Background()

	env, err := environment.New("ci-env", "ubuntu:20.04", "admin", nil)
	require.NoError(t, err)
	env.Status = environment.StatusAvailable
	require.NoError(t, envRepo.Create(ctx, env))

	require.NoError(t, svc.Reserve(ctx, env.ID, "task-001"))

	// 已占用的环境不能再被别的任务占用
	err = svc.Reserve(ctx, env.ID, "task-002")
	assert.ErrorIs(t, err, domainError.ErrEnvBusy)

	// 非占用者释放不生效
	require.NoError(t, svc.Release(ctx, env.ID, "task-002"))
	stored, err := envRepo.GetByID(ctx, env.ID)
	require.NoError(t, err)
	assert.Equal(t, "task-001", stored.OwnerTask)

	require.NoError(t, svc.Release(ctx, env.ID, "task-001"))
	stored, err = envRepo.GetByID(ctx, env.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.OwnerTask)
	assert.Equal(t, environment.StatusAvailable, stored.Status)
}
