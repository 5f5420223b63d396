// Package audit 记录被净化器拒绝过内容的文档
//
// 审计失败只写日志，不影响调用方拿到净化结果。
package audit

import (
	"context"
	"log"
	"time"

	"github.com/newsflow/go-sanitizer-service/internal/metrics"
	"github.com/newsflow/go-sanitizer-service/internal/sanitizer"
)

// Record 一条审计记录
type Record struct {
	EntryID     string    `json:"entryId,omitempty"`
	Source      string    `json:"source"`
	Raw         string    `json:"raw"`
	Diagnostics []string  `json:"diagnostics"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Sink 审计记录的存储后端
type Sink interface {
	Name() string
	Write(ctx context.Context, rec *Record) error
	Close() error
}

// Recorder 把审计记录分发给所有 Sink
type Recorder struct {
	sinks   []Sink
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewRecorder 创建分发器，m 可以为 nil
func NewRecorder(m *metrics.Metrics, sinks ...Sink) *Recorder {
	return &Recorder{sinks: sinks, metrics: m, now: time.Now}
}

// Enabled 是否配置了任何 Sink
func (r *Recorder) Enabled() bool {
	return r != nil && len(r.sinks) > 0
}

// Record 结果中有诊断信息时写入审计
func (r *Recorder) Record(ctx context.Context, entryID, source string, res *sanitizer.Result) {
	if !r.Enabled() || res == nil || res.IsValid() {
		return
	}

	rec := &Record{
		EntryID:     entryID,
		Source:      source,
		Raw:         res.Raw,
		Diagnostics: res.InvalidTags,
		CreatedAt:   r.now().UTC(),
	}
	for _, sink := range r.sinks {
		if err := sink.Write(ctx, rec); err != nil {
			log.Printf("[Audit] %s write failed (entry=%q): %v", sink.Name(), entryID, err)
			r.metrics.AuditFailed(sink.Name())
		}
	}
}

// Close 关闭所有 Sink
func (r *Recorder) Close() {
	if r == nil {
		return
	}
	for _, sink := range r.sinks {
		if err := sink.Close(); err != nil {
			log.Printf("[Audit] %s close failed: %v", sink.Name(), err)
		}
	}
}
