// Package statusdoc decodes the wire bodies exchanged with a tracked service
// into point-in-time snapshots. Submission responses and poll responses carry
// different required fields, so the two phases parse separately. Malformed
// input never produces an error to handle; it produces a Document whose
// ParseFailed reports true, and the caller decides what that means for it.
package statusdoc

import (
	"encoding/json"
)

// Document is one parsed snapshot of an operation's remote-reported state.
// Snapshots are replaced wholesale on every poll and never merged.
type Document struct {
	// ResourceURI is the path to poll for status detail. Populated only by
	// submission responses.
	ResourceURI string
	// RequestID identifies the submitted request. Populated only by
	// submission responses.
	RequestID string

	// Phase is the server's name for the operation's current stage.
	Phase string
	// Completed marks the snapshot as terminal.
	Completed bool
	// Failed marks a completed snapshot as unsuccessful.
	Failed bool
	// Detail carries failure detail of arbitrary shape; treated opaquely.
	Detail json.RawMessage

	invalid bool
}

// Invalid returns the snapshot used to signal that a body could not be
// interpreted.
func Invalid() Document {
	return Document{invalid: true}
}

// ParseFailed reports whether this snapshot stands in for an uninterpretable
// body.
func (d Document) ParseFailed() bool {
	return d.invalid
}

// Clone returns a copy safe to retain independently of the source document's
// backing buffers.
func (d Document) Clone() Document {
	if d.Detail != nil {
		detail := make(json.RawMessage, len(d.Detail))
		copy(detail, d.Detail)
		d.Detail = detail
	}
	return d
}

// Parser interprets raw response bodies for one backend dialect. Parsers are
// stateless and safe for concurrent use.
type Parser interface {
	// ParseSubmit interprets the response to the initiating request. The
	// returned Document reports ParseFailed when the body is not a JSON
	// object or lacks the dialect's identifying fields.
	ParseSubmit(body []byte) Document
	// ParsePoll interprets a status-detail response fetched from the
	// submission's resource URI.
	ParsePoll(body []byte) Document
}

func decodeObject(body []byte) (map[string]json.RawMessage, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, false
	}
	// Unmarshal accepts the literal "null" for a map target.
	if obj == nil {
		return nil, false
	}
	return obj, true
}

func decodeString(raw json.RawMessage) (string, bool) {
	var s string
	if raw == nil || json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}

func decodeBool(raw json.RawMessage) bool {
	var b bool
	if raw == nil || json.Unmarshal(raw, &b) != nil {
		return false
	}
	return b
}
