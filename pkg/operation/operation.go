// Package operation describes the asynchronous actions a caller asks a
// tracked service to perform. An Operation is immutable once submitted; the
// status tracker references it but never owns or mutates it.
package operation

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
)

// Operation is an opaque descriptor of one requested action.
type Operation struct {
	// Title names the operation for logging only.
	Title string
	// Method is the HTTP method used to submit; POST when empty.
	Method string
	// Path is the submission path relative to the agent's base URL.
	Path string
	// Payload is the JSON body submitted with the request.
	Payload []byte
}

// NewPost describes a POST submission, the common case for the tracked
// services.
func NewPost(title, path string, payload []byte) *Operation {
	return &Operation{
		Title:   title,
		Method:  http.MethodPost,
		Path:    path,
		Payload: payload,
	}
}

// HTTPMethod returns the method to submit with, defaulting to POST.
func (o *Operation) HTTPMethod() string {
	if o.Method == "" {
		return http.MethodPost
	}
	return o.Method
}

// MakePayload encodes an arbitrary payload value as a JSON body.
func MakePayload(v interface{}) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "could not encode operation payload")
	}
	return payload, nil
}

// TypeToPayload wraps a single task-style mutation in the service's expected
// envelope: a one-element list of {name: value}.
func TypeToPayload(name string, value interface{}) ([]byte, error) {
	return MakePayload([]map[string]interface{}{{name: value}})
}
