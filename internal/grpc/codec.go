package grpc

import (
	"google.golang.org/grpc/encoding"

	"github.com/newsflow/go-sanitizer-service/internal/json"
)

// CodecName 客户端通过 grpc.CallContentSubtype(CodecName) 选择 JSON 编码
const CodecName = "json"

// jsonCodec 以 JSON 编码消息，服务不依赖 protoc 生成代码
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
