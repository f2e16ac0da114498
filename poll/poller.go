// Package poll waits on asynchronous external jobs (video generation
// tasks, platform media processing) that accept work and report
// completion later.
package poll

import (
	"context"
	"log"
	"time"
)

// Status is what a single check reports back
type Status int

const (
	StatusPending Status = iota
	StatusFinished
	StatusFailed
)

// TerminalState is how a poll ends
type TerminalState int

const (
	Finished TerminalState = iota
	Failed
	TimedOut
)

func (s TerminalState) String() string {
	switch s {
	case Finished:
		return "finished"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed_out"
	}
	return "unknown"
}

// CheckFunc queries a job once. Payload carries the job's result (e.g. a
// download URL) once finished, or a failure detail once failed. A non-nil
// error means the check itself could not be performed; that is treated
// as transient and polling continues.
type CheckFunc func(ctx context.Context) (Status, string, error)

// Result is the terminal outcome of one poll
type Result struct {
	State   TerminalState
	Payload string
	Checks  int
}

// UntilDone queries check at a fixed interval until the job finishes,
// fails, or maxWait elapses. Timing out is a normal outcome, not an
// error: the caller decides whether it is fatal. The first check runs
// after one interval. Context cancellation ends the wait early as a
// timeout without touching the in-flight remote job.
func UntilDone(ctx context.Context, name string, check CheckFunc, maxWait, interval time.Duration) Result {
	deadline := time.Now().Add(maxWait)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	res := Result{}
	for {
		if time.Now().After(deadline) {
			log.Printf("[poll] %s: timed out after %s (%d checks)", name, maxWait, res.Checks)
			res.State = TimedOut
			return res
		}

		select {
		case <-ctx.Done():
			log.Printf("[poll] %s: canceled: %v", name, ctx.Err())
			res.State = TimedOut
			return res
		case <-ticker.C:
		}

		status, payload, err := check(ctx)
		res.Checks++
		if err != nil {
			// Transient query failure, keep polling until the deadline
			log.Printf("[poll] %s: check error (will retry): %v", name, err)
			continue
		}

		switch status {
		case StatusFinished:
			res.State = Finished
			res.Payload = payload
			return res
		case StatusFailed:
			log.Printf("[poll] %s: job reported failure: %s", name, payload)
			res.State = Failed
			res.Payload = payload
			return res
		}
	}
}
