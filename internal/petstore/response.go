package petstore

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Response is what every Backend operation yields: the status code and the
// encoded JSON body. The body is captured once and never changes.
type Response struct {
	StatusCode int
	body       []byte
}

// NewResponse encodes payload and wraps it with the given status code.
func NewResponse(code int, payload any) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode response body: %w", err)
	}
	return &Response{StatusCode: code, body: body}, nil
}

// RawResponse wraps an already encoded body, e.g. one read off the wire.
func RawResponse(code int, body []byte) *Response {
	return &Response{StatusCode: code, body: bytes.Clone(body)}
}

// Body returns a copy of the encoded body.
func (r *Response) Body() []byte {
	return bytes.Clone(r.body)
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.body, v); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// Value decodes the body into generic JSON values: map[string]any, []any or
// a primitive. An empty body decodes to nil.
func (r *Response) Value() (any, error) {
	if len(bytes.TrimSpace(r.body)) == 0 {
		return nil, nil
	}
	var v any
	if err := r.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func (r *Response) String() string {
	return fmt.Sprintf("%d %s", r.StatusCode, r.body)
}
