package audit

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsflow/go-sanitizer-service/internal/sanitizer"
)

type memorySink struct {
	records []*Record
	err     error
	closed  bool
}

func (s *memorySink) Name() string { return "memory" }

func (s *memorySink) Write(_ context.Context, rec *Record) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *memorySink) Close() error {
	s.closed = true
	return nil
}

func TestRecorder(t *testing.T) {
	sink := &memorySink{}
	failing := &memorySink{err: errors.New("down")}
	r := NewRecorder(nil, failing, sink)
	r.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	s := sanitizer.New(sanitizer.Options{})

	r.Record(context.Background(), "e1", "http", s.Process("<p>clean</p>"))
	assert.Empty(t, sink.records)

	r.Record(context.Background(), "e2", "http", s.Process("<script>x</script>"))
	require.Len(t, sink.records, 1)
	rec := sink.records[0]
	assert.Equal(t, "e2", rec.EntryID)
	assert.Equal(t, "http", rec.Source)
	assert.Equal(t, []string{"<script>", "/script"}, rec.Diagnostics)
	assert.Equal(t, 2024, rec.CreatedAt.Year())

	r.Close()
	assert.True(t, sink.closed)
	assert.True(t, failing.closed)
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.False(t, r.Enabled())
	assert.NotPanics(t, func() {
		r.Record(context.Background(), "", "cli", &sanitizer.Result{InvalidTags: []string{"x"}})
		r.Close()
	})
	assert.False(t, NewRecorder(nil).Enabled())
}

func TestRedisSink(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	defer client.Close()

	ctx := context.Background()
	list := "sanitizer:audit:test"
	require.NoError(t, client.Del(ctx, list).Err())
	defer client.Del(ctx, list)

	sink := NewRedisSink(client, list)
	sink.maxLen = 2
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, sink.Write(ctx, &Record{EntryID: id, Source: "test", Diagnostics: []string{"<script>"}}))
	}

	records, err := sink.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "c", records[0].EntryID)
	assert.Equal(t, "b", records[1].EntryID)
}

func TestPostgresSink(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	sink, err := NewPostgresSink(ctx, dsn)
	require.NoError(t, err)
	defer sink.Close()

	entryID := "test-" + time.Now().Format("150405.000000000")
	rec := &Record{
		EntryID:     entryID,
		Source:      "test",
		Raw:         "<script>x</script>",
		Diagnostics: []string{"<script>", "/script"},
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, sink.Write(ctx, rec))

	records, err := sink.Recent(ctx, entryID, 5)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, rec.Diagnostics, records[0].Diagnostics)
	assert.Equal(t, rec.Raw, records[0].Raw)
}
