package openai

import (
	"context"
	"time"

	"github.com/deepgram/courier/pkg/logger"
	"github.com/sashabaranov/go-openai"
)

const (
	DefaultPollInterval = time.Second
	DefaultPollTimeout  = 60 * time.Second
)

// PollOptions bound a wait on a run. Zero values take the defaults.
type PollOptions struct {
	Interval time.Duration
	Timeout  time.Duration
	// CancelOnTimeout issues one cancel request when the budget runs out.
	CancelOnTimeout bool
}

func (o PollOptions) withDefaults() PollOptions {
	if o.Interval <= 0 {
		o.Interval = DefaultPollInterval
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultPollTimeout
	}
	return o
}

// PollResult is the outcome of waiting on a run. Err is nil only on completion.
type PollResult struct {
	Status    openai.RunStatus
	LastError *openai.RunLastError
	Polls     int
	Elapsed   time.Duration
	Err       error
}

func (r PollResult) Succeeded() bool {
	return r.Err == nil && r.Status == openai.RunStatusCompleted
}

// RunFetcher retrieves the current state of the run being polled.
type RunFetcher func(ctx context.Context) (*openai.Run, error)

// IsTerminalFailure reports statuses from which a run can no longer complete.
func IsTerminalFailure(s openai.RunStatus) bool {
	switch s {
	case openai.RunStatusFailed, openai.RunStatusCancelled, openai.RunStatusExpired, openai.RunStatusIncomplete:
		return true
	}
	return false
}

// Poll fetches the run every interval until it completes, fails, or the
// timeout elapses. A fetch error ends polling at once without a retry.
func Poll(ctx context.Context, runID string, fetch RunFetcher, opts PollOptions) PollResult {
	opts = opts.withDefaults()
	start := time.Now()
	timer := time.NewTimer(opts.Interval)
	timer.Stop()
	defer timer.Stop()

	var res PollResult
	finish := func(outcome string) PollResult {
		res.Elapsed = time.Since(start)
		pollOutcomes.WithLabelValues(outcome).Inc()
		return res
	}

	for time.Since(start) < opts.Timeout {
		run, err := fetch(ctx)
		res.Polls++
		if err != nil {
			logger.Warn(logger.RUN, "Failed to retrieve status of run %s: %v", runID, err)
			res.Err = err
			return finish("retrieve_error")
		}
		res.Status = run.Status
		res.LastError = run.LastError

		switch {
		case run.Status == openai.RunStatusCompleted:
			logger.Debug(logger.RUN, "Run %s completed after %d polls", runID, res.Polls)
			return finish("completed")
		case IsTerminalFailure(run.Status):
			logger.Warn(logger.RUN, "Run %s ended with status %s", runID, run.Status)
			res.Err = newRunFailedError(run)
			return finish(string(run.Status))
		}

		timer.Reset(opts.Interval)
		select {
		case <-ctx.Done():
			res.Err = ctx.Err()
			return finish("cancelled_by_caller")
		case <-timer.C:
		}
	}

	logger.Warn(logger.RUN, "Run %s timed out after %s", runID, opts.Timeout)
	res.Err = NewTimeoutError(runID, opts.Timeout)
	return finish("timeout")
}

// WaitForRun polls a run on a thread. With CancelOnTimeout set, a timed out run
// is cancelled before the timeout failure is returned.
func (c *Client) WaitForRun(ctx context.Context, threadID, runID string, opts PollOptions) PollResult {
	res := Poll(ctx, runID, func(ctx context.Context) (*openai.Run, error) {
		return c.RetrieveRun(ctx, threadID, runID)
	}, opts)

	if opts.CancelOnTimeout && IsCategory(res.Err, CategoryTimeout) {
		if _, err := c.CancelRun(ctx, threadID, runID); err != nil {
			logger.Warn(logger.RUN, "Failed to cancel timed out run %s: %v", runID, err)
		} else {
			logger.Info(logger.RUN, "Cancelled timed out run %s", runID)
		}
	}
	return res
}
