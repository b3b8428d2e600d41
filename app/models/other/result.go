package other

// ErrorBody is the error half of the result envelope. Available is only set
// for INSUFFICIENT_STOCK and reports how many more units could still be added.
type ErrorBody struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Available *int   `json:"available,omitempty"`
}

// Result is the uniform envelope every cart operation returns.
type Result[T any] struct {
	Success bool       `json:"success"`
	Data    *T         `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

func OK[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: &data}
}

func Fail[T any](body ErrorBody) Result[T] {
	return Result[T]{Success: false, Error: &body}
}
