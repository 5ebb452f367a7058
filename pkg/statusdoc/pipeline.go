package statusdoc

import (
	"encoding/json"

	"github.com/spinops/spinwatch/pkg/marker"
)

// PipelineParser handles the pipeline-style dialect: submissions answer with
// a ref path that doubles as the request identifier, and polls answer with a
// bare status string plus an execution-context variable list that may bury
// failure detail.
type PipelineParser struct{}

var _ Parser = PipelineParser{}

func (PipelineParser) ParseSubmit(body []byte) Document {
	obj, ok := decodeObject(body)
	if !ok {
		return Invalid()
	}
	ref, ok := decodeString(obj[marker.FieldRef])
	if !ok {
		return Invalid()
	}
	return Document{ResourceURI: ref, RequestID: ref}
}

func (PipelineParser) ParsePoll(body []byte) Document {
	obj, ok := decodeObject(body)
	if !ok {
		return Invalid()
	}
	phase, ok := decodeString(obj[marker.FieldStatus])
	if !ok {
		return Invalid()
	}

	doc := Document{Phase: phase}
	switch phase {
	case "", "NOT_STARTED", "RUNNING":
		return doc
	}
	doc.Completed = true
	doc.Failed = phase != marker.StateSucceeded
	if doc.Failed {
		doc.Detail = exceptionDetail(obj[marker.FieldVariables])
	}
	return doc
}

// exceptionDetail digs the most specific failure detail out of the execution
// variables: a top-level exception's details take precedence, otherwise the
// first embedded task exception message.
func exceptionDetail(raw json.RawMessage) json.RawMessage {
	var variables []struct {
		Key   string          `json:"key"`
		Value json.RawMessage `json:"value"`
	}
	if raw == nil || json.Unmarshal(raw, &variables) != nil {
		return nil
	}

	var taskDetail json.RawMessage
	for _, v := range variables {
		switch v.Key {
		case "exception":
			var value struct {
				Details json.RawMessage `json:"details"`
			}
			if json.Unmarshal(v.Value, &value) == nil && value.Details != nil {
				return value.Details
			}
		case "kato.tasks":
			var tasks []struct {
				Exception *struct {
					Message json.RawMessage `json:"message"`
				} `json:"exception"`
			}
			if json.Unmarshal(v.Value, &tasks) != nil {
				continue
			}
			for _, task := range tasks {
				if task.Exception != nil && task.Exception.Message != nil {
					taskDetail = task.Exception.Message
					break
				}
			}
		}
	}
	return taskDetail
}
