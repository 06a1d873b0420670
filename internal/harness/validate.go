package harness

import (
	"context"
	"fmt"

	"github.com/stretchr/testify/require"

	"github.com/artefactual-labs/petstore/internal/petstore"
)

// Call runs op as a named step. A transport or precondition error fails the
// test; non-2xx answers are returned for the caller to check.
func Call(t *T, name string, op func(ctx context.Context) (*petstore.Response, error)) *petstore.Response {
	var res *petstore.Response
	t.Step(name, func() {
		var err error
		res, err = op(t.Context())
		require.NoError(t, err)
		require.NotNil(t, res)
	})
	return res
}

// Body decodes the response body into generic JSON values.
func Body(t *T, res *petstore.Response) any {
	var body any
	t.Step("decode response body", func() {
		var err error
		body, err = res.Value()
		require.NoError(t, err)
	})
	return body
}

func StatusCode(t *T, res *petstore.Response, want int) {
	t.Step(fmt.Sprintf("check status code: %d", want), func() {
		require.NotNil(t, res)
		require.Equal(t, want, res.StatusCode, "Expected status %d, but got %d", want, res.StatusCode)
	})
}

func ContainsField(t *T, body any, field string) {
	t.Step(fmt.Sprintf("check response contains field: %s", field), func() {
		obj := requireObject(t, body)
		require.Contains(t, obj, field, "Response doesn't contain field: %s", field)
	})
}

// FieldEquals compares loosely so that JSON numbers match Go integers.
func FieldEquals(t *T, body any, field string, want any) {
	t.Step(fmt.Sprintf("check field value: %s = %v", field, want), func() {
		obj := requireObject(t, body)
		got, ok := obj[field]
		require.True(t, ok, "Response doesn't contain field: %s", field)
		require.EqualValues(t, want, got, "Field %s expected to be %v, but got %v", field, want, got)
	})
}

func IsList(t *T, body any) []any {
	var list []any
	t.Step("check response is a list", func() {
		var ok bool
		list, ok = body.([]any)
		require.True(t, ok, "Response should be a list")
	})
	return list
}

func IsObject(t *T, body any) map[string]any {
	var obj map[string]any
	t.Step("check response is an object", func() {
		obj = requireObject(t, body)
	})
	return obj
}

func NotEmpty(t *T, list []any) {
	t.Step("check list is not empty", func() {
		require.NotEmpty(t, list, "List should not be empty")
	})
}

func requireObject(t *T, body any) map[string]any {
	obj, ok := body.(map[string]any)
	require.True(t, ok, "Response should be an object")
	return obj
}
