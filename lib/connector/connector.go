package connector

import (
	"fmt"

	"github.com/go-resty/resty/v2"
)

type Error struct {
	Code    int
	Message string
	Method  string
	Path    string
}

func (e *Error) Error() string {
	return fmt.Sprintf(
		"connector error, request: %s %s, code: %d, message: %s",
		e.Method, e.Path, e.Code, e.Message,
	)
}

// Receive executes the request and decodes the {ok, error, data} envelope
// every handler of this engine responds with.
func Receive[T any](r *resty.Request, path string, method string) (*T, error) {
	var result struct {
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
		Data  *T     `json:"data,omitempty"`
	}
	r.SetResult(&result)
	r.SetError(&result)
	resp, err := r.Execute(method, path)
	if err != nil {
		return nil, err
	}
	if resp.IsError() || !result.OK {
		return nil, &Error{
			Code:    resp.StatusCode(),
			Message: result.Error,
			Method:  method,
			Path:    path,
		}
	}
	return result.Data, nil
}

// ReceiveEmpty is Receive for endpoints which respond without a data field.
func ReceiveEmpty(r *resty.Request, path string, method string) error {
	_, err := Receive[struct{}](r, path, method)
	return err
}
