package tools

// Kind classifies a failed tool call.
type Kind string

// Failure kinds.
const (
	KindUnauthenticated Kind = "unauthenticated"
	KindUnknownTool     Kind = "unknown_tool"
	KindInvalidInput    Kind = "invalid_input"
	KindUpstream        Kind = "upstream"
)

// Result is the outcome of one tool call: either a payload or a failure.
type Result struct {
	// Payload is a raw platform response, a local object or a plain string.
	Payload any
	Kind    Kind
	Message string
}

// OK wraps a successful payload.
func OK(payload any) Result {
	return Result{Payload: payload}
}

// Fail builds a failed result.
func Fail(kind Kind, message string) Result {
	return Result{Kind: kind, Message: message}
}

// Failed reports whether the call failed.
func (r Result) Failed() bool {
	return r.Kind != ""
}

// Body is what goes on the wire: the payload as-is, or {"error": message}.
func (r Result) Body() any {
	if r.Failed() {
		return ErrorBody{Error: r.Message}
	}
	return r.Payload
}

// ErrorBody is the wire shape of every error.
type ErrorBody struct {
	Error string `json:"error"`
}
