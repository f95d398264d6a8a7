// Package stf implements the shrink-to-fit duration search: given a
// job that cannot run for its full requested duration, it tries
// progressively shorter durations — the next calendar/prime-time
// boundary, the job's minimum walltime, then a binary search over the
// calendar's event timeline — until one is found to be runnable, or
// gives up and restores the original duration.
package stf

import (
	"time"

	"github.com/vnsched/vnsched/schederr"
)

// TryFunc evaluates whether the job can run for the given duration,
// returning nil on success or the strongest failure observed.
type TryFunc func(duration time.Duration) *schederr.Error

// Result reports the outcome of a shrink search.
type Result struct {
	// Duration is the committed duration: the original on total
	// failure, otherwise the largest duration the search proved
	// runnable.
	Duration time.Duration
	// Shrunk is true when Duration is less than the original
	// requested duration.
	Shrunk bool
	// HardDuration is set alongside a successful shrink: the caller
	// should pin the job's hard_duration to this value so later
	// cycles don't re-grow it.
	HardDuration time.Duration
	Err          *schederr.Error
}

// boundaryErrCode reports whether code is one of the boundary-crossing
// errors that shrink_job_algorithm treats specially: on these, the
// search jumps straight to the boundary rather than bisecting events.
func boundaryErrCode(code schederr.Code) bool {
	return code == schederr.CrossPrimeBoundary || code == schederr.CrossDedTimeBoundary
}

// Shrink implements shrink_job_algorithm. minDuration is the job's
// minimum acceptable walltime; nextBoundary, if non-zero, is the time
// remaining until the next prime/dedicated-time edge; events is the
// time-sorted list of event offsets (duration since now) falling
// inside (minDuration, duration] used for the binary-search-by-events
// pass.
func Shrink(try TryFunc, duration, minDuration, nextBoundary time.Duration, events []time.Duration) Result {
	if err := try(duration); err == nil {
		return Result{Duration: duration}
	} else if boundaryErrCode(err.Code) {
		if nextBoundary <= 0 || nextBoundary < minDuration {
			return Result{Duration: duration, Err: schederr.New(err.Code, schederr.Permanent)}
		}
		if berr := try(nextBoundary); berr == nil {
			return Result{Duration: nextBoundary, Shrunk: true, HardDuration: nextBoundary}
		}
		return Result{Duration: duration, Err: err}
	}

	if err := try(minDuration); err != nil {
		return Result{Duration: duration, Err: err}
	}

	best := binarySearchByEvents(try, duration, minDuration, events)
	if best <= 0 {
		// Every bisection point failed but min_duration itself
		// succeeded above, so min_duration is the committed floor.
		return Result{Duration: minDuration, Shrunk: minDuration < duration, HardDuration: minDuration}
	}
	return Result{Duration: best, Shrunk: best < duration, HardDuration: best}
}

// binarySearchByEvents implements step 4 of shrink_job_algorithm: try
// the farthest event inside (minDuration, duration]; on failure it
// works backward through the remaining candidates, shrinking the
// search window's ceiling to the last failure each time, for up to
// retryCount attempts, so the candidates tried converge toward
// minDuration as the budget is spent. events must be sorted ascending
// and may span any range; only offsets within (minDuration, duration]
// are considered. Returns 0 if no candidate duration was found
// runnable within the attempt budget.
func binarySearchByEvents(try TryFunc, duration, minDuration time.Duration, events []time.Duration) time.Duration {
	candidates := inWindow(events, minDuration, duration)
	if len(candidates) == 0 {
		return 0
	}

	const maxRetry = 5
	retryCount := maxRetry
	ceiling := duration

	for retryCount > 0 {
		next := largestBelow(candidates, ceiling)
		if next <= 0 {
			break
		}
		if err := try(next); err == nil {
			return next
		}
		ceiling = next
		retryCount--
	}
	return 0
}

// largestBelow returns the largest candidate strictly less than
// ceiling, or 0 if none qualifies.
func largestBelow(candidates []time.Duration, ceiling time.Duration) time.Duration {
	var best time.Duration
	for _, c := range candidates {
		if c < ceiling && c > best {
			best = c
		}
	}
	return best
}

func inWindow(events []time.Duration, lo, hi time.Duration) []time.Duration {
	var out []time.Duration
	for _, e := range events {
		if e > lo && e <= hi {
			out = append(out, e)
		}
	}
	return out
}
