package statusdoc

import (
	"encoding/json"

	"github.com/spinops/spinwatch/pkg/marker"
)

// TaskParser handles the task-style dialect: submissions answer with a
// resourceUri and id, and polls answer with a status envelope carrying
// completed/failed/phase.
type TaskParser struct{}

var _ Parser = TaskParser{}

func (TaskParser) ParseSubmit(body []byte) Document {
	obj, ok := decodeObject(body)
	if !ok {
		return Invalid()
	}
	uri, ok := decodeString(obj[marker.FieldResourceURI])
	if !ok {
		return Invalid()
	}
	id, ok := decodeString(obj[marker.FieldRequestID])
	if !ok {
		return Invalid()
	}
	return Document{ResourceURI: uri, RequestID: id}
}

func (TaskParser) ParsePoll(body []byte) Document {
	obj, ok := decodeObject(body)
	if !ok {
		return Invalid()
	}
	var envelope map[string]json.RawMessage
	if raw := obj[marker.FieldStatus]; raw == nil || json.Unmarshal(raw, &envelope) != nil || envelope == nil {
		return Invalid()
	}

	doc := Document{
		Completed: decodeBool(envelope[marker.FieldCompleted]),
		Failed:    decodeBool(envelope[marker.FieldFailed]),
	}
	doc.Phase, _ = decodeString(envelope[marker.FieldPhase])
	if doc.Failed {
		// The envelope's own status member holds the failure detail.
		doc.Detail = envelope[marker.FieldStatus]
	}
	return doc
}
