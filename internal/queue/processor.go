package queue

import (
	"context"
	"time"

	"github.com/newsflow/go-sanitizer-service/internal/service"
)

// NewTaskHandler 用净化服务处理任务
func NewTaskHandler(svc *service.Service) TaskHandler {
	return func(ctx context.Context, task *Task) *Result {
		start := time.Now()
		mode := task.Mode
		if mode == "" {
			mode = service.OpSanitize
		}

		result := &Result{TaskID: task.ID, EntryID: task.EntryID, Mode: string(mode)}
		defer func() { result.Duration = time.Since(start).Milliseconds() }()

		if !mode.Valid() {
			result.Error = "unknown mode " + string(mode)
			return result
		}

		if mode == service.OpConditional {
			out, res := svc.Conditional(ctx, transport, task.EntryID, task.HTML)
			result.Success = true
			result.HTML = out
			// 原样返回时没有做过校验，valid 留空
			if res != nil {
				result.Sanitized = true
				result.Valid = boolPtr(res.IsValid())
				result.InvalidTags = res.InvalidTags
			}
			return result
		}

		if task.HTML == nil {
			result.Error = "html is required"
			return result
		}

		res := svc.Process(ctx, transport, mode, service.Document{EntryID: task.EntryID, HTML: *task.HTML})
		result.Success = true
		result.Valid = boolPtr(res.IsValid())
		result.InvalidTags = res.InvalidTags

		switch mode {
		case service.OpSanitize:
			result.HTML = &res.HTML
			result.Sanitized = true
		case service.OpText:
			result.Text = res.Text
		}
		return result
	}
}

func boolPtr(b bool) *bool { return &b }
