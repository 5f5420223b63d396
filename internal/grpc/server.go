// Package grpc SanitizerService 的 gRPC 实现（JSON 编码，无需 protoc）
package grpc

import (
	"context"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/newsflow/go-sanitizer-service/internal/config"
	"github.com/newsflow/go-sanitizer-service/internal/service"
)

// transport 指标和审计中的来源标识
const transport = "grpc"

// SanitizerService gRPC 服务实现
type SanitizerService struct {
	service   *service.Service
	semaphore chan struct{}
	config    *config.Config
}

// NewSanitizerService 创建服务实现
func NewSanitizerService(cfg *config.Config, svc *service.Service) *SanitizerService {
	return &SanitizerService{
		service:   svc,
		semaphore: make(chan struct{}, cfg.MaxConcurrent),
		config:    cfg,
	}
}

// NewServer 创建已注册 SanitizerService 的 gRPC 服务器
func NewServer(cfg *config.Config, svc *service.Service, opts ...grpc.ServerOption) *grpc.Server {
	s := grpc.NewServer(opts...)
	RegisterSanitizerServer(s, NewSanitizerService(cfg, svc))
	return s
}

// acquire 获取并发槽位，满载时返回 ResourceExhausted
func (s *SanitizerService) acquire(ctx context.Context) (func(), error) {
	select {
	case s.semaphore <- struct{}{}:
		return func() { <-s.semaphore }, nil
	case <-ctx.Done():
		return nil, status.FromContextError(ctx.Err()).Err()
	default:
		return nil, status.Error(codes.ResourceExhausted, "server is busy")
	}
}

func (s *SanitizerService) check(req *SanitizeRequest) error {
	if req == nil {
		return status.Error(codes.InvalidArgument, "request is required")
	}
	if int64(len(req.HTML)) > s.config.MaxBodyBytes {
		return status.Error(codes.InvalidArgument, "document too large")
	}
	return nil
}

func (s *SanitizerService) process(ctx context.Context, op service.Operation, req *SanitizeRequest) (*SanitizeResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	res := s.service.Process(ctx, transport, op, service.Document{
		EntryID:       req.EntryID,
		HTML:          req.HTML,
		AllowedTags:   req.AllowedTags,
		ForbiddenTags: req.ForbiddenTags,
	})
	return &SanitizeResponse{
		HTML:        res.HTML,
		Text:        res.Text,
		Valid:       res.IsValid(),
		InvalidTags: res.InvalidTags,
	}, nil
}

// Sanitize 净化
func (s *SanitizerService) Sanitize(ctx context.Context, req *SanitizeRequest) (*SanitizeResponse, error) {
	return s.process(ctx, service.OpSanitize, req)
}

// Validate 校验
func (s *SanitizerService) Validate(ctx context.Context, req *SanitizeRequest) (*ValidateResponse, error) {
	resp, err := s.process(ctx, service.OpValidate, req)
	if err != nil {
		return nil, err
	}
	return &ValidateResponse{Valid: resp.Valid, InvalidTags: resp.InvalidTags}, nil
}

// Text 纯文本
func (s *SanitizerService) Text(ctx context.Context, req *SanitizeRequest) (*TextResponse, error) {
	resp, err := s.process(ctx, service.OpText, req)
	if err != nil {
		return nil, err
	}
	return &TextResponse{Text: resp.Text}, nil
}

// Conditional 不可信内容模式下净化，否则原样返回
func (s *SanitizerService) Conditional(ctx context.Context, req *ConditionalRequest) (*ConditionalResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if req.HTML != nil && int64(len(*req.HTML)) > s.config.MaxBodyBytes {
		return nil, status.Error(codes.InvalidArgument, "document too large")
	}
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	out, res := s.service.Conditional(ctx, transport, req.EntryID, req.HTML)
	return &ConditionalResponse{HTML: out, Sanitized: res != nil}, nil
}

// HealthCheck 健康检查
func (s *SanitizerService) HealthCheck(ctx context.Context, _ *Empty) (*HealthResponse, error) {
	return &HealthResponse{
		Status:               "ok",
		MaxConcurrent:        int32(s.config.MaxConcurrent),
		Available:            int32(s.config.MaxConcurrent - len(s.semaphore)),
		UntrustedContentMode: s.service.Sanitizer().Enabled(),
	}, nil
}

// SanitizeStream 双向流：每收到一个文档返回一个结果
func (s *SanitizerService) SanitizeStream(stream grpc.BidiStreamingServer[SanitizeRequest, SanitizeResponse]) error {
	ctx := stream.Context()
	for {
		req, err := stream.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if err := s.check(req); err != nil {
			return err
		}

		select {
		case s.semaphore <- struct{}{}:
		case <-ctx.Done():
			return status.FromContextError(ctx.Err()).Err()
		}
		res := s.service.Process(ctx, transport, service.OpSanitize, service.Document{
			EntryID:       req.EntryID,
			HTML:          req.HTML,
			AllowedTags:   req.AllowedTags,
			ForbiddenTags: req.ForbiddenTags,
		})
		<-s.semaphore

		if err := stream.Send(&SanitizeResponse{
			HTML:        res.HTML,
			Text:        res.Text,
			Valid:       res.IsValid(),
			InvalidTags: res.InvalidTags,
		}); err != nil {
			return err
		}
	}
}
