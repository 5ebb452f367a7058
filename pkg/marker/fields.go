package marker

// Field names used on the wire by the tracked services. Submission responses
// and poll responses use disjoint sets of required fields; see pkg/statusdoc.
type Field = string

const (
	// FieldResourceURI is where a task-style submission response carries the
	// path to poll for status.
	FieldResourceURI Field = "resourceUri"
	// FieldRequestID identifies the submitted request on task-style
	// submission responses.
	FieldRequestID Field = "id"
	// FieldRef is the pipeline-style equivalent of FieldResourceURI; it
	// doubles as the request identifier.
	FieldRef Field = "ref"

	// FieldStatus is the poll-response envelope holding progress fields on
	// task-style backends, and a bare phase string on pipeline-style ones.
	FieldStatus Field = "status"
	// FieldCompleted marks a poll document as terminal.
	FieldCompleted Field = "completed"
	// FieldFailed marks a terminal poll document as unsuccessful.
	FieldFailed Field = "failed"
	// FieldPhase carries the server's name for the operation's current stage.
	FieldPhase Field = "phase"
	// FieldVariables holds pipeline execution context, including failure
	// detail under "exception" entries.
	FieldVariables Field = "variables"
)
