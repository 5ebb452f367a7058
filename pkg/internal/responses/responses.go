// Package responses holds canned wire bodies shared by tests across
// packages, mirroring what the tracked services actually send back.
package responses

import "fmt"

const (
	// TaskSubmitted is a well-formed task-style submission response.
	TaskSubmitted = `{"id":"task-12648","resourceUri":"/task/12648"}`
	// PipelineSubmitted is a well-formed pipeline-style submission response.
	PipelineSubmitted = `{"ref":"/pipelines/01HXK"}`

	// NotJSON fails decoding entirely.
	NotJSON = `<html>502 Bad Gateway</html>`
	// JSONButNotObject decodes but is not an object.
	JSONButNotObject = `["task-12648"]`
	// MissingIdentifiers decodes to an object lacking the required tracking
	// fields.
	MissingIdentifiers = `{"outcome":"accepted"}`

	// TaskRunning is a mid-flight task poll document.
	TaskRunning = `{"status":{"completed":false,"failed":false,"phase":"RUNNING"}}`
	// TaskSucceeded is a successful terminal task poll document.
	TaskSucceeded = `{"status":{"completed":true,"failed":false,"phase":"SUCCEEDED"}}`
	// TaskFailed is a failed terminal task poll document; its status member
	// doubles as the failure detail.
	TaskFailed = `{"status":{"completed":true,"failed":true,"phase":"FAILED","status":"quota exceeded in zone"}}`

	// PipelineRunning is a mid-flight pipeline poll document.
	PipelineRunning = `{"status":"RUNNING","variables":[]}`
	// PipelineSucceeded is a successful terminal pipeline poll document.
	PipelineSucceeded = `{"status":"SUCCEEDED","variables":[]}`
	// PipelineFailedWithException carries failure detail in the exception
	// variable.
	PipelineFailedWithException = `{"status":"TERMINAL","variables":[` +
		`{"key":"exception","value":{"details":{"error":"access denied"}}}]}`
	// PipelineFailedWithTaskError buries failure detail in an embedded task
	// list instead.
	PipelineFailedWithTaskError = `{"status":"TERMINAL","variables":[` +
		`{"key":"kato.tasks","value":[{"history":[]},{"exception":{"message":"image not found"}}]}]}`
)

// TaskPhase renders a mid-flight task poll document reporting the given
// phase.
func TaskPhase(phase string) string {
	return fmt.Sprintf(`{"status":{"completed":false,"failed":false,"phase":%q}}`, phase)
}
