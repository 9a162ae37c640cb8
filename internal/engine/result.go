package engine

import (
	"context"
	"errors"
)

// Result is the envelope every public entry point returns: either
// Success with Data, or a structured Error.
type Result[T any] struct {
	Success bool       `json:"success"`
	Data    T          `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo is the serializable view of an *Error.
type ErrorInfo struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Stack   string    `json:"stack,omitempty"`
}

// Ok wraps a successful value.
func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail wraps an error.
func Fail[T any](err error) Result[T] {
	e := classify(err)
	return Result[T]{Error: &ErrorInfo{Code: e.Code, Message: e.Message, Stack: e.stack}}
}

// Err returns the failure as an error, or nil on success.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	if r.Error == nil {
		return errors.New("unsuccessful result without error")
	}
	return &Error{Code: r.Error.Code, Message: r.Error.Message, stack: r.Error.Stack}
}

// Run executes fn as an action and wraps its outcome in a Result.
func Run[T any](ctx context.Context, e *Engine, name string, fn func(ctx context.Context, tx *Tx) (T, error)) Result[T] {
	var data T
	err := e.Do(ctx, name, func(ctx context.Context, tx *Tx) error {
		var err error
		data, err = fn(ctx, tx)
		return err
	})
	if err != nil {
		return Fail[T](err)
	}
	return Ok(data)
}
