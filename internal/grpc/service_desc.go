package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName gRPC 服务全名
const ServiceName = "sanitizer.SanitizerService"

// SanitizeRequest 净化请求
type SanitizeRequest struct {
	HTML          string   `json:"html"`
	EntryID       string   `json:"entryId,omitempty"`
	AllowedTags   []string `json:"allowedTags,omitempty"`
	ForbiddenTags []string `json:"forbiddenTags,omitempty"`
}

// SanitizeResponse 净化响应
type SanitizeResponse struct {
	HTML        string   `json:"html"`
	Text        string   `json:"text"`
	Valid       bool     `json:"valid"`
	InvalidTags []string `json:"invalidTags"`
}

// ValidateResponse 校验响应
type ValidateResponse struct {
	Valid       bool     `json:"valid"`
	InvalidTags []string `json:"invalidTags"`
}

// TextResponse 纯文本响应
type TextResponse struct {
	Text string `json:"text"`
}

// ConditionalRequest 按配置净化的请求，html 可以为 null
type ConditionalRequest struct {
	HTML    *string `json:"html"`
	EntryID string  `json:"entryId,omitempty"`
}

// ConditionalResponse 按配置净化的响应
type ConditionalResponse struct {
	HTML      *string `json:"html"`
	Sanitized bool    `json:"sanitized"`
}

// Empty 空消息
type Empty struct{}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status               string `json:"status"`
	MaxConcurrent        int32  `json:"maxConcurrent"`
	Available            int32  `json:"available"`
	UntrustedContentMode bool   `json:"untrustedContentMode"`
}

// SanitizerServer 服务端接口
type SanitizerServer interface {
	Sanitize(context.Context, *SanitizeRequest) (*SanitizeResponse, error)
	Validate(context.Context, *SanitizeRequest) (*ValidateResponse, error)
	Text(context.Context, *SanitizeRequest) (*TextResponse, error)
	Conditional(context.Context, *ConditionalRequest) (*ConditionalResponse, error)
	HealthCheck(context.Context, *Empty) (*HealthResponse, error)
	SanitizeStream(grpc.BidiStreamingServer[SanitizeRequest, SanitizeResponse]) error
}

// ServiceDesc 服务描述
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SanitizerServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Sanitize", SanitizerServer.Sanitize),
		unary("Validate", SanitizerServer.Validate),
		unary("Text", SanitizerServer.Text),
		unary("Conditional", SanitizerServer.Conditional),
		unary("HealthCheck", SanitizerServer.HealthCheck),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName: "SanitizeStream",
			Handler: func(srv any, stream grpc.ServerStream) error {
				return srv.(SanitizerServer).SanitizeStream(&grpc.GenericServerStream[SanitizeRequest, SanitizeResponse]{ServerStream: stream})
			},
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "sanitizer.proto",
}

// RegisterSanitizerServer 注册服务
func RegisterSanitizerServer(s grpc.ServiceRegistrar, srv SanitizerServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// unary 构造一元方法描述，走拦截器链
func unary[Req, Resp any](method string, call func(SanitizerServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SanitizerServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(SanitizerServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
