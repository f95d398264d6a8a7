package calendar

import (
	"time"

	"github.com/hashicorp/cronexpr"
)

// Boundary is a recurring prime-time or dedicated-time window,
// expressed as a pair of cron expressions marking its start and end.
// Prime-time and dedicated-time windows are represented the same way;
// Boundary holds no one-shot range and no precedence between them.
type Boundary struct {
	Name  string
	Start *cronexpr.Expression
	End   *cronexpr.Expression
}

// NewBoundary parses a start/end pair of standard five-field cron
// expressions describing a recurring window (e.g. prime time
// "0 6 * * 1-5" / "0 18 * * 1-5").
func NewBoundary(name, startExpr, endExpr string) (*Boundary, error) {
	start, err := cronexpr.Parse(startExpr)
	if err != nil {
		return nil, err
	}
	end, err := cronexpr.Parse(endExpr)
	if err != nil {
		return nil, err
	}
	return &Boundary{Name: name, Start: start, End: end}, nil
}

// Crosses reports whether the interval [from, to] crosses one of this
// boundary's start or end instants, i.e. whether a job starting at
// from and running until to would straddle a prime/dedicated edge.
func (b *Boundary) Crosses(from, to time.Time) bool {
	if next := b.NextEdge(from); !next.IsZero() && !next.After(to) {
		return true
	}
	return false
}

// NextEdge returns the earliest boundary start or end strictly after
// from, or the zero Time if cronexpr has nothing scheduled (should not
// happen for a valid recurring expression).
func (b *Boundary) NextEdge(from time.Time) time.Time {
	start := b.Start.Next(from)
	end := b.End.Next(from)
	switch {
	case start.IsZero():
		return end
	case end.IsZero():
		return start
	case start.Before(end):
		return start
	default:
		return end
	}
}

// NextBoundaryAfter returns the earliest edge among boundaries after
// from, and the boundary it belongs to. It returns a zero Time and nil
// boundary if none has an upcoming edge.
func NextBoundaryAfter(boundaries []*Boundary, from time.Time) (time.Time, *Boundary) {
	var best time.Time
	var bestB *Boundary
	for _, b := range boundaries {
		edge := b.NextEdge(from)
		if edge.IsZero() {
			continue
		}
		if bestB == nil || edge.Before(best) {
			best = edge
			bestB = b
		}
	}
	return best, bestB
}
