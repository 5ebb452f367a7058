package poller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"gotest.tools/assert"

	"github.com/spinops/spinwatch/pkg/internal/responses"
	"github.com/spinops/spinwatch/pkg/internal/testoutput"
	"github.com/spinops/spinwatch/pkg/logging"
	"github.com/spinops/spinwatch/pkg/operation"
	"github.com/spinops/spinwatch/pkg/status"
	"github.com/spinops/spinwatch/pkg/statuscache"
	"github.com/spinops/spinwatch/pkg/statusdoc"
)

// scripted replays a fixed series of poll documents, repeating the last one
// once the script runs out.
type scripted struct {
	mu    sync.Mutex
	docs  []statusdoc.Document
	err   error
	polls int
}

func (s *scripted) Refresh(_ context.Context, _ *status.OperationStatus) (statusdoc.Document, error) {
	if s.err != nil {
		return statusdoc.Invalid(), s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.polls
	if i >= len(s.docs) {
		i = len(s.docs) - 1
	}
	s.polls++
	return s.docs[i], nil
}

func docOf(t *testing.T, body string) statusdoc.Document {
	t.Helper()
	return statusdoc.TaskParser{}.ParsePoll([]byte(body))
}

func tracker(t *testing.T) *status.OperationStatus {
	t.Helper()
	op := operation.NewPost("upsert", "ops", nil)
	return status.New(op, statusdoc.TaskParser{}, []byte(responses.TaskSubmitted))
}

func quickPoller(t *testing.T) Poller {
	t.Helper()
	return Poller{
		Interval: time.Millisecond,
		Budget:   time.Second,
		Log:      testoutput.Logger(t, logging.New("poller")),
	}
}

func TestWaitReachesTerminal(t *testing.T) {
	st := tracker(t)
	r := &scripted{docs: []statusdoc.Document{
		docOf(t, responses.TaskRunning),
		docOf(t, responses.TaskRunning),
		docOf(t, responses.TaskSucceeded),
	}}

	err := quickPoller(t).Wait(context.Background(), r, st)
	assert.NilError(t, err)
	assert.Check(t, st.FinishedOK())
	assert.Equal(t, r.polls, 3)
}

func TestWaitReportsFailureAsTerminal(t *testing.T) {
	st := tracker(t)
	r := &scripted{docs: []statusdoc.Document{docOf(t, responses.TaskFailed)}}

	err := quickPoller(t).Wait(context.Background(), r, st)
	assert.NilError(t, err)
	assert.Check(t, st.Finished())
	assert.Check(t, st.Failed())
}

func TestWaitBudgetExhausted(t *testing.T) {
	st := tracker(t)
	r := &scripted{docs: []statusdoc.Document{docOf(t, responses.TaskRunning)}}

	p := quickPoller(t)
	p.Budget = 5 * time.Millisecond
	err := p.Wait(context.Background(), r, st)
	assert.Equal(t, errors.Cause(err), ErrWaitTimeout)
	// The tracker is untouched by the timeout verdict.
	assert.Check(t, !st.Finished())
	assert.Check(t, !st.TimedOut())
	assert.Equal(t, st.CurrentState(), "RUNNING")
}

func TestWaitToleratesTransientGarbage(t *testing.T) {
	st := tracker(t)
	r := &scripted{docs: []statusdoc.Document{
		statusdoc.Invalid(),
		statusdoc.Invalid(),
		docOf(t, responses.TaskSucceeded),
	}}

	err := quickPoller(t).Wait(context.Background(), r, st)
	assert.NilError(t, err)
	assert.Check(t, st.FinishedOK())
}

func TestWaitPropagatesTransportErrors(t *testing.T) {
	st := tracker(t)
	boom := errors.New("connection refused")
	r := &scripted{err: boom}

	err := quickPoller(t).Wait(context.Background(), r, st)
	assert.Equal(t, errors.Cause(err), boom)
	assert.Check(t, !st.Finished())
}

func TestWaitRecordsSnapshots(t *testing.T) {
	st := tracker(t)
	r := &scripted{docs: []statusdoc.Document{
		docOf(t, responses.TaskRunning),
		docOf(t, responses.TaskSucceeded),
	}}

	p := quickPoller(t)
	p.Cache = statuscache.New()
	err := p.Wait(context.Background(), r, st)
	assert.NilError(t, err)

	last := p.Cache.Last(st.RequestID())
	assert.Check(t, last != nil)
	assert.Check(t, last.Completed)
}

func TestWaitAlreadyTerminal(t *testing.T) {
	op := operation.NewPost("doomed", "ops", nil)
	st := status.NewInternalError(op, statusdoc.TaskParser{}, "rejected")
	r := &scripted{docs: []statusdoc.Document{statusdoc.Invalid()}}

	err := quickPoller(t).Wait(context.Background(), r, st)
	assert.NilError(t, err)
	assert.Equal(t, r.polls, 0)
}

func TestWaitCancelled(t *testing.T) {
	st := tracker(t)
	r := &scripted{docs: []statusdoc.Document{docOf(t, responses.TaskRunning)}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := quickPoller(t).Wait(ctx, r, st)
	assert.Equal(t, err, context.Canceled)
}

func TestWaitAll(t *testing.T) {
	sts := []*status.OperationStatus{tracker(t), tracker(t), tracker(t)}
	r := &scripted{docs: []statusdoc.Document{docOf(t, responses.TaskSucceeded)}}

	err := quickPoller(t).WaitAll(context.Background(), r, sts)
	assert.NilError(t, err)
	for _, st := range sts {
		assert.Check(t, st.FinishedOK())
	}
}
