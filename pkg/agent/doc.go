// Agent binds to one service endpoint and speaks its asynchronous operation
// protocol: submissions answer with a tracking reference, and follow-up GETs
// against that reference answer with status detail. The Agent performs
// network I/O only - it never retries, never sleeps, and holds no mutable
// per-operation state, so one Agent may serve any number of concurrently
// polled operations.
package agent
