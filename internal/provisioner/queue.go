package provisioner

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/autotest/backend/internal/biz/environment"
	redis "github.com/go-redis/redis/v8"
)

// Request 一次环境供给请求。Token 是幂等令牌，
// 重复投递携带同一令牌，消费侧据此去重。
type Request struct {
	EnvID  string             `json:"env_id"`
	Action environment.Action `json:"action"`
	Token  string             `json:"token"`
}

// ErrQueueClosed 队列已关闭
var ErrQueueClosed = errors.New("provision queue closed")

// Queue 供给请求队列，至少一次投递语义
type Queue interface {
	Enqueue(ctx context.Context, req Request) error
	Dequeue(ctx context.Context) (Request, error)
	Close() error
}

// NewQueue 构造队列。rdb 为 nil 时退回进程内通道实现。
func NewQueue(rdb *redis.Client, key string, size int, pollInterval time.Duration) Queue {
	if rdb == nil {
		return newMemoryQueue(size)
	}
	return &redisQueue{rdb: rdb, key: key, pollInterval: pollInterval}
}

// redisQueue 基于 Redis 列表的队列，跨进程投递
type redisQueue struct {
	rdb          *redis.Client
	key          string
	pollInterval time.Duration
}

func (q *redisQueue) Enqueue(ctx context.Context, req Request) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, q.key, payload).Err()
}

func (q *redisQueue) Dequeue(ctx context.Context) (Request, error) {
	for {
		vals, err := q.rdb.BRPop(ctx, q.pollInterval, q.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				if ctx.Err() != nil {
					return Request{}, ctx.Err()
				}
				continue
			}
			return Request{}, err
		}
		// BRPop 返回 [key, value]
		var req Request
		if err := json.Unmarshal([]byte(vals[1]), &req); err != nil {
			return Request{}, err
		}
		return req, nil
	}
}

func (q *redisQueue) Close() error {
	return nil
}

// memoryQueue 进程内通道实现，单实例部署或测试用
type memoryQueue struct {
	ch   chan Request
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

func newMemoryQueue(size int) *memoryQueue {
	if size <= 0 {
		size = 256
	}
	return &memoryQueue{
		ch:   make(chan Request, size),
		done: make(chan struct{}),
	}
}

func (q *memoryQueue) Enqueue(ctx context.Context, req Request) error {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return ErrQueueClosed
	}

	select {
	case q.ch <- req:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *memoryQueue) Dequeue(ctx context.Context) (Request, error) {
	select {
	case req := <-q.ch:
		return req, nil
	case <-q.done:
		return Request{}, ErrQueueClosed
	case <-ctx.Done():
		return Request{}, ctx.Err()
	}
}

func (q *memoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.done)
	}
	return nil
}
