package httpapi

// CodeOK is the envelope code of every successful response. Failures carry
// the HTTP status instead.
const CodeOK = 2000

// Result is the JSON envelope of every API response.
type Result[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Result  T      `json:"result,omitempty"`
}

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: CodeOK, Result: result}
}
