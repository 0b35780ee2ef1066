package provisioner

import (
	"context"
	"fmt"
	"strings"

	"github.com/autotest/backend/internal/biz/environment"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// Backend 容器后端接口，供给worker通过它操作实际执行目标
type Backend interface {
	CreateContainer(ctx context.Context, env *environment.Environment) (string, error)
	StartContainer(ctx context.Context, containerID string) error
	StopContainer(ctx context.Context, containerID string) error
}

// DockerBackend 基于 Docker Engine API 的实现
type DockerBackend struct {
	defaultImage string
}

func NewDockerBackend(defaultImage string) *DockerBackend {
	return &DockerBackend{defaultImage: defaultImage}
}

func (b *DockerBackend) getClient() (*client.Client, error) {
	return client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
}

// CreateContainer 按环境配置创建并启动容器，返回容器ID
func (b *DockerBackend) CreateContainer(ctx context.Context, env *environment.Environment) (string, error) {
	cli, err := b.getClient()
	if err != nil {
		return "", fmt.Errorf("failed to connect docker engine: %w", err)
	}
	defer func() { _ = cli.Close() }()

	image := env.Image
	if image == "" {
		image = b.defaultImage
	}

	cfg := &container.Config{
		Image: image,
		Labels: map[string]string{
			"autotest.env_id": env.ID,
			"autotest.owner":  env.Owner,
		},
	}
	// 环境配置里的变量注入容器
	if raw, ok := env.Config["environment"].(map[string]any); ok {
		for k, v := range raw {
			cfg.Env = append(cfg.Env, fmt.Sprintf("%s=%v", k, v))
		}
	}

	name := containerName(env)
	created, err := cli.ContainerCreate(ctx, cfg, nil, nil, nil, name)
	if err != nil {
		return "", fmt.Errorf("failed to create container: %w", err)
	}

	if err := cli.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return "", fmt.Errorf("failed to start container: %w", err)
	}
	return created.ID, nil
}

func (b *DockerBackend) StartContainer(ctx context.Context, containerID string) error {
	cli, err := b.getClient()
	if err != nil {
		return fmt.Errorf("failed to connect docker engine: %w", err)
	}
	defer func() { _ = cli.Close() }()

	return cli.ContainerStart(ctx, containerID, container.StartOptions{})
}

func (b *DockerBackend) StopContainer(ctx context.Context, containerID string) error {
	cli, err := b.getClient()
	if err != nil {
		return fmt.Errorf("failed to connect docker engine: %w", err)
	}
	defer func() { _ = cli.Close() }()

	return cli.ContainerStop(ctx, containerID, container.StopOptions{})
}

func containerName(env *environment.Environment) string {
	name := strings.ToLower(strings.ReplaceAll(env.Name, " ", "_"))
	return fmt.Sprintf("autotest_%s_%s", name, env.ID)
}
