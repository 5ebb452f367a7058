package status

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/spinops/spinwatch/pkg/logging"
	"github.com/spinops/spinwatch/pkg/marker"
	"github.com/spinops/spinwatch/pkg/operation"
	"github.com/spinops/spinwatch/pkg/statusdoc"
)

// OperationStatus follows a submitted Operation to completion through
// repeated status-document ingestion. Once a terminal state is reached every
// further Refresh is a no-op.
type OperationStatus struct {
	op     *operation.Operation
	parser statusdoc.Parser

	// Identifiers are captured from the submission response and never change
	// for the tracker's lifetime.
	resourceURI string
	requestID   string

	current   marker.State
	finished  bool
	failed    bool
	exception json.RawMessage
	last      *statusdoc.Document
}

// New constructs a tracker from the raw body of the submission response. An
// uninterpretable body yields a tracker already in its internal-error
// terminal state rather than an error: callers poll-and-check uniformly and
// never need failure handling at the submission site.
func New(op *operation.Operation, parser statusdoc.Parser, submitBody []byte) *OperationStatus {
	s := &OperationStatus{op: op, parser: parser}
	doc := parser.ParseSubmit(submitBody)
	if doc.ParseFailed() {
		s.markInternalError(submitBody)
		return s
	}
	s.resourceURI = doc.ResourceURI
	s.requestID = doc.RequestID
	s.current = marker.StatePending
	return s
}

// NewInternalError constructs a tracker that is terminally failed from the
// start, recording why. Used when the submission exchange itself went wrong
// (non-2xx response, unreachable server).
func NewInternalError(op *operation.Operation, parser statusdoc.Parser, detail string) *OperationStatus {
	s := &OperationStatus{op: op, parser: parser}
	s.markInternalError([]byte(detail))
	return s
}

// Track constructs a PENDING tracker bound to an explicit status path,
// bypassing submission-response parsing. Used when the initiating call and
// the status endpoint live on different services, as with build triggers.
func Track(op *operation.Operation, parser statusdoc.Parser, statusPath string) *OperationStatus {
	return &OperationStatus{
		op:          op,
		parser:      parser,
		resourceURI: statusPath,
		requestID:   statusPath,
		current:     marker.StatePending,
	}
}

func (s *OperationStatus) markInternalError(detail []byte) {
	s.current = marker.StateInternalError
	s.finished = true
	s.failed = true
	if len(detail) > 0 {
		if quoted, err := json.Marshal(string(detail)); err == nil {
			s.exception = quoted
		}
	}
}

// Refresh folds one freshly fetched document into the tracker. Terminal
// trackers ignore every document; documents that failed to parse are skipped
// so that a transient garbled response reads as "try again later" rather than
// as progress.
func (s *OperationStatus) Refresh(doc statusdoc.Document) {
	if s.finished {
		return
	}
	if doc.ParseFailed() {
		if logging.Debuggable {
			logging.New("status").WithFields(logrus.Fields{
				"id":    s.requestID,
				"state": s.current,
			}).Debug("skipping unparseable poll document")
		}
		return
	}

	kept := doc.Clone()
	s.last = &kept
	s.current = doc.Phase
	if doc.Completed {
		s.finished = true
		s.failed = doc.Failed
	}
	if doc.Failed {
		s.exception = kept.Detail
	} else {
		s.exception = nil
	}
}

// Finished reports whether the tracker reached a terminal state.
func (s *OperationStatus) Finished() bool {
	return s.finished
}

// FinishedOK reports whether the operation finished without failing.
func (s *OperationStatus) FinishedOK() bool {
	return s.finished && !s.failed
}

// Failed reports whether the tracker terminated unsuccessfully.
func (s *OperationStatus) Failed() bool {
	return s.failed
}

// TimedOut always reports false: the tracker has no notion of elapsed time.
// A poll loop that exhausts its budget treats the operation as failed by
// timeout on its own account, without mutating the tracker.
func (s *OperationStatus) TimedOut() bool {
	return false
}

// CurrentState returns the last known state name: PENDING before the first
// poll, then whatever phase the server reported, or the internal-error
// sentinel.
func (s *OperationStatus) CurrentState() marker.State {
	return s.current
}

// ExceptionDetails returns the failure detail captured from the most recent
// failing document, nil otherwise. The value is opaque server data.
func (s *OperationStatus) ExceptionDetails() json.RawMessage {
	return s.exception
}

// ResourceURI is the status path captured at submission.
func (s *OperationStatus) ResourceURI() string {
	return s.resourceURI
}

// RequestID identifies the submitted request.
func (s *OperationStatus) RequestID() string {
	return s.requestID
}

// Operation returns the descriptor this tracker was created for.
func (s *OperationStatus) Operation() *operation.Operation {
	return s.op
}

// Parser returns the document parser the tracker was built with; agents use
// it to interpret poll responses consistently with the submission.
func (s *OperationStatus) Parser() statusdoc.Parser {
	return s.parser
}

// LastDocument returns a copy of the most recent successfully parsed poll
// document, or nil before the first poll.
func (s *OperationStatus) LastDocument() *statusdoc.Document {
	if s.last == nil {
		return nil
	}
	doc := s.last.Clone()
	return &doc
}

func (s *OperationStatus) String() string {
	return fmt.Sprintf("id=%s current_state=%s finished=%t failed=%t",
		s.requestID, s.current, s.finished, s.failed)
}
