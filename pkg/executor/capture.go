package executor

import (
	"encoding/json"

	"github.com/codebuildervaibhav/Postman-clone-server/pkg/model"
)

// failureBody is the serialized error descriptor recorded when a
// dispatch never produced a real HTTP response.
type failureBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Capture converts a successful dispatch result into a persistable
// response record. Header serialization is JSON and lossless; the body
// is preserved as raw text regardless of shape.
func Capture(res *DispatchResult) *model.ResponseRecord {
	return &model.ResponseRecord{
		StatusCode:     res.StatusCode,
		Headers:        marshalHeaders(res.Headers),
		Body:           string(res.Body),
		ResponseTimeMs: res.Elapsed.Milliseconds(),
	}
}

// CaptureFailure converts a network failure into the sentinel response
// record: status 500, empty headers, and a structured error body. The
// failed attempt is recorded exactly like a successful one.
func CaptureFailure(nerr *NetworkError) *model.ResponseRecord {
	body, _ := json.Marshal(failureBody{
		Error:   "Execution failed",
		Message: nerr.Err.Error(),
	})
	return &model.ResponseRecord{
		StatusCode:     model.StatusNetworkFailure,
		Headers:        "{}",
		Body:           string(body),
		ResponseTimeMs: nerr.Elapsed.Milliseconds(),
	}
}

func marshalHeaders(h map[string]string) string {
	if h == nil {
		h = map[string]string{}
	}
	b, err := json.Marshal(h)
	if err != nil {
		return "{}"
	}
	return string(b)
}
