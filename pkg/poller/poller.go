// Package poller owns the polling policy the status tracker deliberately
// does not: cadence, wall-clock budget, and tolerance for transient garbage.
// Different callers want different budgets, so these knobs live here at the
// edge instead of inside the state machine.
package poller

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/spinops/spinwatch/pkg/logging"
	"github.com/spinops/spinwatch/pkg/status"
	"github.com/spinops/spinwatch/pkg/statuscache"
	"github.com/spinops/spinwatch/pkg/statusdoc"
	"github.com/spinops/spinwatch/pkg/workgroup"
)

const (
	// DefaultInterval is the fixed delay between polls.
	DefaultInterval = time.Second
	// DefaultBudget bounds how long a wait may take overall.
	DefaultBudget = 240 * time.Second
)

// ErrWaitTimeout reports that the wall-clock budget ran out before the
// tracker reached a terminal state. The tracker itself is left untouched and
// may still be polled further by the caller.
var ErrWaitTimeout = errors.New("operation did not reach a terminal state within the wait budget")

// Refresher fetches a fresh status document for a tracker. Implemented by
// agent.Agent.
type Refresher interface {
	Refresh(ctx context.Context, st *status.OperationStatus) (statusdoc.Document, error)
}

// Poller drives trackers to a terminal state over repeated refreshes.
type Poller struct {
	// Interval between polls; DefaultInterval when zero.
	Interval time.Duration
	// Budget is the overall wall-clock allowance; DefaultBudget when zero.
	Budget time.Duration
	// Cache, when set, records every parsed document so other harness code
	// can read recent snapshots without a network fetch.
	Cache statuscache.SnapshotCache
	// Log receives progress entries; a component logger is created when nil.
	Log logging.Logger
}

// Wait polls st through r until it reaches a terminal state, the budget runs
// out, or the context is cancelled. A nil return means the tracker is
// terminal - inspect FinishedOK for the verdict. Transport errors from r
// propagate without retry; documents that fail to parse count as "try again
// later" and only matter if the budget expires first.
func (p Poller) Wait(ctx context.Context, r Refresher, st *status.OperationStatus) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	budget := p.Budget
	if budget <= 0 {
		budget = DefaultBudget
	}
	log := p.Log
	if log == nil {
		log = logging.New("poller")
	}

	if st.Finished() {
		return nil
	}
	deadline := time.Now().Add(budget)

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		doc, err := r.Refresh(ctx, st)
		if err != nil {
			return errors.WithMessage(err, "poll failed")
		}
		if p.Cache != nil {
			p.Cache.Record(st.RequestID(), doc)
		}
		st.Refresh(doc)
		if st.Finished() {
			log.Debugf("%s reached terminal state", st)
			return nil
		}
		if doc.ParseFailed() && logging.Debuggable {
			log.WithField("id", st.RequestID()).Debug("transient unparseable poll response")
		}

		if time.Now().After(deadline) {
			log.WithField("id", st.RequestID()).Debug("wait budget exhausted")
			return ErrWaitTimeout
		}
		timer.Reset(interval)
	}
}

// WaitAll polls each tracker concurrently through r until all are terminal,
// returning the first failure. Trackers must be distinct; the shared
// Refresher is safe because it holds no per-operation state.
func (p Poller) WaitAll(ctx context.Context, r Refresher, sts []*status.OperationStatus) error {
	group := workgroup.WithContext(ctx)
	for _, st := range sts {
		st := st
		group.Work(func(ctx context.Context) error {
			return p.Wait(ctx, r, st)
		})
	}
	return group.Wait()
}
