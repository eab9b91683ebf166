package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeMsgPack = "application/msgpack"
)

// Codec 响应体编码
type Codec interface {
	ContentType() string
	Encode(w io.Writer, v any) error
}

type JSONCodec struct{}

func (JSONCodec) ContentType() string {
	return contentTypeJSON
}

func (JSONCodec) Encode(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

// MsgPackCodec 复用 json tag 作为字段名，与 JSON 响应保持相同的结构
type MsgPackCodec struct{}

func (MsgPackCodec) ContentType() string {
	return contentTypeMsgPack
}

func (MsgPackCodec) Encode(w io.Writer, v any) error {
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")
	return enc.Encode(v)
}

// negotiate 按 Accept 选择编码，默认 JSON
func negotiate(r *http.Request) Codec {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mediaType {
		case contentTypeMsgPack, "application/x-msgpack":
			return MsgPackCodec{}
		case contentTypeJSON:
			return JSONCodec{}
		}
	}
	return JSONCodec{}
}

// decodeBody 解码请求体，数字保留为 json.Number 以免大整数丢失精度
// Content-Type 为 msgpack 时按 msgpack 解码
func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errors.Wrap(err, "read body failed")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return errors.New("request body is empty")
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == contentTypeMsgPack || mediaType == "application/x-msgpack" {
		dec := msgpack.NewDecoder(bytes.NewReader(body))
		dec.SetCustomStructTag("json")
		return errors.Wrap(dec.Decode(v), "msgpack decode failed")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return errors.Wrap(dec.Decode(v), "json decode failed")
}
