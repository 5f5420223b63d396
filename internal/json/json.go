// Package json 统一的 JSON 编解码入口，底层使用 jsoniter
package json

import (
	"io"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Marshal 序列化
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal 反序列化
func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// NewEncoder 创建写入 w 的编码器
func NewEncoder(w io.Writer) *jsoniter.Encoder {
	return json.NewEncoder(w)
}

// NewDecoder 创建读取 r 的解码器
func NewDecoder(r io.Reader) *jsoniter.Decoder {
	return json.NewDecoder(r)
}
