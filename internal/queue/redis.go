package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/newsflow/go-sanitizer-service/internal/json"
	"github.com/newsflow/go-sanitizer-service/internal/service"
)

const (
	// TaskQueue 任务列表
	TaskQueue = "sanitizer:tasks"
	// ResultQueue 结果列表
	ResultQueue = "sanitizer:results"

	// transport 指标和审计中的来源标识
	transport = "queue"

	popTimeout = 30 * time.Second
)

// Task 净化任务
type Task struct {
	ID      string            `json:"id"`
	EntryID string            `json:"entryId,omitempty"`
	HTML    *string           `json:"html"`
	Mode    service.Operation `json:"mode,omitempty"` // sanitize, validate, text, conditional
}

// Result 任务结果
type Result struct {
	TaskID      string   `json:"taskId"`
	EntryID     string   `json:"entryId,omitempty"`
	Mode        string   `json:"mode"`
	Success     bool     `json:"success"`
	HTML        *string  `json:"html,omitempty"`
	Text        string   `json:"text,omitempty"`
	Valid       *bool    `json:"valid,omitempty"`
	Sanitized   bool     `json:"sanitized"`
	InvalidTags []string `json:"invalidTags,omitempty"`
	Consumer    string   `json:"consumer"`
	Duration    int64    `json:"duration"`
	Error       string   `json:"error,omitempty"`
}

// RedisQueue Redis 队列消费者
type RedisQueue struct {
	client       *redis.Client
	taskQueue    string
	resultQueue  string
	consumerName string
}

// NewRedisQueue 创建 Redis 队列
func NewRedisQueue(redisURL, consumerName string) (*RedisQueue, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisQueueWithClient(client, consumerName), nil
}

// NewRedisQueueWithClient 基于已有客户端创建队列
func NewRedisQueueWithClient(client *redis.Client, consumerName string) *RedisQueue {
	return &RedisQueue{
		client:       client,
		taskQueue:    TaskQueue,
		resultQueue:  ResultQueue,
		consumerName: consumerName,
	}
}

// Client 底层 Redis 客户端
func (q *RedisQueue) Client() *redis.Client {
	return q.client
}

// ConsumeTask 消费任务（阻塞式）；超时返回 nil, nil
func (q *RedisQueue) ConsumeTask(ctx context.Context) (*Task, error) {
	result, err := q.client.BLPop(ctx, popTimeout, q.taskQueue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	if len(result) < 2 {
		return nil, nil
	}

	var task Task
	if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
		return nil, fmt.Errorf("decode task: %w", err)
	}
	return &task, nil
}

// PublishTask 发布任务
func (q *RedisQueue) PublishTask(ctx context.Context, task *Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, q.taskQueue, data).Err()
}

// PublishResult 发布结果
func (q *RedisQueue) PublishResult(ctx context.Context, result *Result) error {
	result.Consumer = q.consumerName
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, q.resultQueue, data).Err()
}

// Close 关闭连接
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// TaskHandler 任务处理函数
type TaskHandler func(ctx context.Context, task *Task) *Result

// StartConsumer 启动消费者，ctx 取消后返回
func (q *RedisQueue) StartConsumer(ctx context.Context, handler TaskHandler, concurrency int) {
	sem := make(chan struct{}, concurrency)

	for {
		select {
		case <-ctx.Done():
			log.Println("[Queue] consumer stopped")
			return
		default:
		}

		task, err := q.ConsumeTask(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Printf("[Queue] error consuming task: %v", err)
			time.Sleep(time.Second)
			continue
		}

		if task == nil {
			continue
		}

		sem <- struct{}{}

		go func(t *Task) {
			defer func() { <-sem }()

			result := handler(ctx, t)
			if err := q.PublishResult(ctx, result); err != nil {
				log.Printf("[Queue] error publishing result for task %s: %v", t.ID, err)
			}
		}(task)
	}
}

// GetQueueLength 获取任务队列长度
func (q *RedisQueue) GetQueueLength(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.taskQueue).Result()
}
