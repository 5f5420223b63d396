// Package service 各个入口（HTTP、gRPC、队列、命令行）共用的净化调用
//
// 每次调用都会记录指标，有诊断信息时写入审计。
package service

import (
	"context"
	"time"

	"github.com/newsflow/go-sanitizer-service/internal/audit"
	"github.com/newsflow/go-sanitizer-service/internal/metrics"
	"github.com/newsflow/go-sanitizer-service/internal/sanitizer"
)

// Operation 净化操作
type Operation string

const (
	OpSanitize    Operation = "sanitize"
	OpValidate    Operation = "validate"
	OpText        Operation = "text"
	OpConditional Operation = "conditional"

	// OpImport 远程导入文章的净化，只用于指标和审计标识，不能作为队列任务模式
	OpImport Operation = "import"
)

// Valid 是否为已知操作
func (op Operation) Valid() bool {
	switch op {
	case OpSanitize, OpValidate, OpText, OpConditional:
		return true
	}
	return false
}

// Document 待处理的文档
type Document struct {
	EntryID string
	HTML    string
	// AllowedTags/ForbiddenTags 为空时使用默认策略
	AllowedTags   []string
	ForbiddenTags []string
}

// Service 净化服务
type Service struct {
	sanitizer *sanitizer.Sanitizer
	audit     *audit.Recorder
	metrics   *metrics.Metrics
}

// New 创建服务；rec 和 m 可以为 nil
func New(s *sanitizer.Sanitizer, rec *audit.Recorder, m *metrics.Metrics) *Service {
	return &Service{sanitizer: s, audit: rec, metrics: m}
}

// Sanitizer 底层净化器
func (s *Service) Sanitizer() *sanitizer.Sanitizer {
	return s.sanitizer
}

// Process 按 op 处理文档，返回完整结果；transport 用于指标和审计来源
func (s *Service) Process(ctx context.Context, transport string, op Operation, doc Document) *sanitizer.Result {
	start := time.Now()

	var res *sanitizer.Result
	if len(doc.AllowedTags) == 0 && len(doc.ForbiddenTags) == 0 {
		res = s.sanitizer.Process(doc.HTML)
	} else {
		res = s.sanitizer.SanitizeWithPolicy(doc.HTML, tagSet(doc.AllowedTags, sanitizer.DefaultAllowedTags()),
			tagSet(doc.ForbiddenTags, sanitizer.DefaultForbiddenTags()))
	}

	s.metrics.Observe(transport, string(op), len(doc.HTML), !res.IsValid(), time.Since(start))
	s.audit.Record(ctx, doc.EntryID, transport, res)
	return res
}

// Conditional 不可信内容模式下净化；否则原样返回。nil 输入返回 nil
//
// 没有执行净化时返回的 *sanitizer.Result 为 nil。
func (s *Service) Conditional(ctx context.Context, transport string, entryID string, html *string) (*string, *sanitizer.Result) {
	if html == nil || !s.sanitizer.Enabled() {
		return html, nil
	}
	res := s.Process(ctx, transport, OpConditional, Document{EntryID: entryID, HTML: *html})
	return &res.HTML, res
}

func tagSet(names []string, fallback sanitizer.TagSet) sanitizer.TagSet {
	if len(names) == 0 {
		return fallback
	}
	return sanitizer.NewTagSet(names...)
}
