package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// Client SanitizerService 客户端
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient 基于已有连接创建客户端
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, fullMethod(method), in, out, opts...)
}

// Sanitize 净化
func (c *Client) Sanitize(ctx context.Context, in *SanitizeRequest, opts ...grpc.CallOption) (*SanitizeResponse, error) {
	out := new(SanitizeResponse)
	if err := c.invoke(ctx, "Sanitize", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate 校验
func (c *Client) Validate(ctx context.Context, in *SanitizeRequest, opts ...grpc.CallOption) (*ValidateResponse, error) {
	out := new(ValidateResponse)
	if err := c.invoke(ctx, "Validate", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Text 纯文本
func (c *Client) Text(ctx context.Context, in *SanitizeRequest, opts ...grpc.CallOption) (*TextResponse, error) {
	out := new(TextResponse)
	if err := c.invoke(ctx, "Text", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Conditional 按服务端配置净化，html 为 nil 时原样返回
func (c *Client) Conditional(ctx context.Context, in *ConditionalRequest, opts ...grpc.CallOption) (*ConditionalResponse, error) {
	out := new(ConditionalResponse)
	if err := c.invoke(ctx, "Conditional", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// HealthCheck 健康检查
func (c *Client) HealthCheck(ctx context.Context, opts ...grpc.CallOption) (*HealthResponse, error) {
	out := new(HealthResponse)
	if err := c.invoke(ctx, "HealthCheck", &Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// SanitizeStream 双向流式净化
func (c *Client) SanitizeStream(ctx context.Context, opts ...grpc.CallOption) (grpc.BidiStreamingClient[SanitizeRequest, SanitizeResponse], error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], fullMethod("SanitizeStream"), opts...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[SanitizeRequest, SanitizeResponse]{ClientStream: stream}, nil
}
