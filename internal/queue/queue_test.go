package queue

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsflow/go-sanitizer-service/internal/json"
	"github.com/newsflow/go-sanitizer-service/internal/sanitizer"
	"github.com/newsflow/go-sanitizer-service/internal/service"
)

func strPtr(s string) *string { return &s }

func TestTaskHandler(t *testing.T) {
	handle := NewTaskHandler(service.New(sanitizer.New(sanitizer.Options{}), nil, nil))
	ctx := context.Background()

	t.Run("sanitize 默认模式", func(t *testing.T) {
		result := handle(ctx, &Task{ID: "1", EntryID: "e", HTML: strPtr("<p onclick=\"x\">a</p>")})
		assert.True(t, result.Success)
		assert.Equal(t, "sanitize", result.Mode)
		require.NotNil(t, result.HTML)
		assert.Equal(t, "<p>a</p>", *result.HTML)
		require.NotNil(t, result.Valid)
		assert.False(t, *result.Valid)
		assert.Equal(t, []string{"p onclick x"}, result.InvalidTags)
		assert.Equal(t, "e", result.EntryID)
	})

	t.Run("validate", func(t *testing.T) {
		result := handle(ctx, &Task{ID: "2", HTML: strPtr("<b>x</b>"), Mode: service.OpValidate})
		assert.True(t, result.Success)
		require.NotNil(t, result.Valid)
		assert.True(t, *result.Valid)
		assert.Nil(t, result.HTML)
	})

	t.Run("text", func(t *testing.T) {
		result := handle(ctx, &Task{ID: "3", HTML: strPtr("<b>x</b>y"), Mode: service.OpText})
		assert.Equal(t, "xy", result.Text)
	})

	t.Run("conditional 可信模式", func(t *testing.T) {
		result := handle(ctx, &Task{ID: "4", HTML: strPtr("<script>x</script>"), Mode: service.OpConditional})
		assert.True(t, result.Success)
		assert.False(t, result.Sanitized)
		assert.Equal(t, "<script>x</script>", *result.HTML)
		assert.Nil(t, result.Valid)
	})

	t.Run("conditional 不可信模式带出诊断", func(t *testing.T) {
		untrusted := NewTaskHandler(service.New(sanitizer.New(sanitizer.Options{UntrustedContentMode: true}), nil, nil))
		result := untrusted(ctx, &Task{ID: "4b", HTML: strPtr("<script>x</script>"), Mode: service.OpConditional})
		assert.True(t, result.Success)
		assert.True(t, result.Sanitized)
		assert.Equal(t, "x", *result.HTML)
		require.NotNil(t, result.Valid)
		assert.False(t, *result.Valid)
		assert.Equal(t, []string{"<script>", "/script"}, result.InvalidTags)

		data, err := json.Marshal(result)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"valid":false`)
	})

	t.Run("conditional null", func(t *testing.T) {
		result := handle(ctx, &Task{ID: "5", Mode: service.OpConditional})
		assert.True(t, result.Success)
		assert.Nil(t, result.HTML)
	})

	t.Run("未知模式", func(t *testing.T) {
		result := handle(ctx, &Task{ID: "6", HTML: strPtr("x"), Mode: "raw"})
		assert.False(t, result.Success)
		assert.Equal(t, "unknown mode raw", result.Error)
	})

	t.Run("缺少 html", func(t *testing.T) {
		result := handle(ctx, &Task{ID: "7"})
		assert.False(t, result.Success)
		assert.Equal(t, "html is required", result.Error)
	})
}

func TestTaskDecoding(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","entryId":"e","html":null,"mode":"conditional"}`), &task))
	assert.Nil(t, task.HTML)
	assert.Equal(t, service.OpConditional, task.Mode)
}

func TestRedisRoundTrip(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	q, err := NewRedisQueue(url, "test-consumer")
	require.NoError(t, err)
	defer q.Close()

	q.taskQueue = "sanitizer:test:tasks"
	q.resultQueue = "sanitizer:test:results"
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	q.Client().Del(ctx, q.taskQueue, q.resultQueue)
	defer q.Client().Del(context.Background(), q.taskQueue, q.resultQueue)

	require.NoError(t, q.PublishTask(ctx, &Task{ID: "t1", HTML: strPtr("<script>x</script>")}))

	consumerCtx, stop := context.WithCancel(ctx)
	go q.StartConsumer(consumerCtx, NewTaskHandler(service.New(sanitizer.New(sanitizer.Options{}), nil, nil)), 2)
	defer stop()

	raw, err := q.Client().BLPop(ctx, 5*time.Second, q.resultQueue).Result()
	require.NoError(t, err)

	var result Result
	require.NoError(t, json.Unmarshal([]byte(raw[1]), &result))
	assert.Equal(t, "t1", result.TaskID)
	assert.Equal(t, "test-consumer", result.Consumer)
	require.NotNil(t, result.HTML)
	assert.Equal(t, "x", *result.HTML)
}
