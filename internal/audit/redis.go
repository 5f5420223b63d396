package audit

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/newsflow/go-sanitizer-service/internal/json"
)

// DefaultRedisMaxLen Redis 列表保留的最大记录数
const DefaultRedisMaxLen = 10000

// RedisSink 以 JSON 写入 Redis 列表头部，超出 maxLen 的旧记录被裁掉
type RedisSink struct {
	client *redis.Client
	list   string
	maxLen int64
}

// NewRedisSink 创建 Redis 审计后端，client 由调用方管理
func NewRedisSink(client *redis.Client, list string) *RedisSink {
	return &RedisSink{client: client, list: list, maxLen: DefaultRedisMaxLen}
}

// Name 实现 Sink
func (s *RedisSink) Name() string { return "redis" }

// Write 实现 Sink
func (s *RedisSink) Write(ctx context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.list, data)
	pipe.LTrim(ctx, s.list, 0, s.maxLen-1)
	_, err = pipe.Exec(ctx)
	return err
}

// Recent 读取最近 n 条记录
func (s *RedisSink) Recent(ctx context.Context, n int64) ([]*Record, error) {
	items, err := s.client.LRange(ctx, s.list, 0, n-1).Result()
	if err != nil {
		return nil, err
	}

	records := make([]*Record, 0, len(items))
	for _, item := range items {
		rec := &Record{}
		if err := json.Unmarshal([]byte(item), rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Close 客户端由调用方关闭
func (s *RedisSink) Close() error {
	return nil
}
