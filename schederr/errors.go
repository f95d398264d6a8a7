// Package schederr defines the boundary error-code enum and the typed
// error chain the placement engine and node-release engine use to
// report why a request could not be satisfied.
package schederr

import (
	"fmt"
	"strings"

	multierror "github.com/hashicorp/go-multierror"
)

// Code is the boundary error-code enum.
type Code int

const (
	Unknown Code = iota
	Success
	NotRun
	NeverRun
	SchdError
	NoNodeResources
	NoFreeNodes
	NoTotalNodes
	InsufficientResource
	InsufficientQueueResource
	InsufficientServerResource
	NodeNotExcl
	InvalidNodeState
	NodeResvEnable
	NodeRunLimitReached
	NodeUserLimitReached
	NodeGroupLimitReached
	NodeNoMultJobs
	NodeUnlicensed
	NodeHighLoad
	SetTooSmall
	CantSpanPset
	CrossPrimeBoundary
	CrossDedTimeBoundary
	DedTime
	PrimeOnly
	NonprimeOnly
	AOENotAvalbl
	EOENotAvalbl
	ProvDisableOnServer
	ProvDisableOnNode
	ProvResresvConflict
	IsMultiVnode
	ReservationConflict
	MaxRunSubjobs
	QueueNotExec
	QueueNotStarted
)

var names = map[Code]string{
	Unknown:                    "UNKNOWN",
	Success:                    "SUCCESS",
	NotRun:                     "NOT_RUN",
	NeverRun:                   "NEVER_RUN",
	SchdError:                  "SCHD_ERROR",
	NoNodeResources:            "NO_NODE_RESOURCES",
	NoFreeNodes:                "NO_FREE_NODES",
	NoTotalNodes:               "NO_TOTAL_NODES",
	InsufficientResource:       "INSUFFICIENT_RESOURCE",
	InsufficientQueueResource:  "INSUFFICIENT_QUEUE_RESOURCE",
	InsufficientServerResource: "INSUFFICIENT_SERVER_RESOURCE",
	NodeNotExcl:                "NODE_NOT_EXCL",
	InvalidNodeState:           "INVALID_NODE_STATE",
	NodeResvEnable:             "NODE_RESV_ENABLE",
	NodeRunLimitReached:        "NODE_RUN_LIMIT_REACHED",
	NodeUserLimitReached:       "NODE_USER_LIMIT_REACHED",
	NodeGroupLimitReached:      "NODE_GROUP_LIMIT_REACHED",
	NodeNoMultJobs:             "NODE_NO_MULT_JOBS",
	NodeUnlicensed:             "NODE_UNLICENSED",
	NodeHighLoad:               "NODE_HIGH_LOAD",
	SetTooSmall:                "SET_TOO_SMALL",
	CantSpanPset:               "CANT_SPAN_PSET",
	CrossPrimeBoundary:         "CROSS_PRIME_BOUNDARY",
	CrossDedTimeBoundary:       "CROSS_DED_TIME_BOUNDRY",
	DedTime:                    "DED_TIME",
	PrimeOnly:                  "PRIME_ONLY",
	NonprimeOnly:               "NONPRIME_ONLY",
	AOENotAvalbl:               "AOE_NOT_AVALBL",
	EOENotAvalbl:               "EOE_NOT_AVALBL",
	ProvDisableOnServer:        "PROV_DISABLE_ON_SERVER",
	ProvDisableOnNode:          "PROV_DISABLE_ON_NODE",
	ProvResresvConflict:        "PROV_RESRESV_CONFLICT",
	IsMultiVnode:               "IS_MULTI_VNODE",
	ReservationConflict:        "RESERVATION_CONFLICT",
	MaxRunSubjobs:              "MAX_RUN_SUBJOBS",
	QueueNotExec:               "QUEUE_NOT_EXEC",
	QueueNotStarted:            "QUEUE_NOT_STARTED",
}

func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return fmt.Sprintf("CODE(%d)", int(c))
}

// Severity classifies whether a failure might succeed on a later cycle
// (Transient) or never will under the current configuration (Permanent).
type Severity int

const (
	// Transient corresponds to NOT_RUN: recoverable this cycle.
	Transient Severity = iota
	// Permanent corresponds to NEVER_RUN: permanent for this configuration.
	Permanent
)

// permanentCodes are the boundary codes that always carry Permanent
// severity regardless of caller intent (e.g. CANT_SPAN_PSET is always
// stronger than an ordinary per-set placement failure).
var permanentCodes = map[Code]bool{
	CantSpanPset:         true,
	CrossPrimeBoundary:   true,
	CrossDedTimeBoundary: true,
	IsMultiVnode:         true,
}

// Error is one boundary failure: a code, an optional resource/vnode
// argument pair, and the severity that governs whether it may be
// downgraded by a later, more transient observation (it may not).
type Error struct {
	Code     Code
	Severity Severity
	Arg1     string
	Arg2     string
	// Resource names the resource definition involved, if any.
	Resource string
	// Requested/Available/Total carry the consumable mismatch detail:
	// requested amount, available amount, and the node/set total, all
	// pre-formatted for display.
	Requested string
	Available string
	Total     string
}

func New(code Code, sev Severity, args ...string) *Error {
	e := &Error{Code: code, Severity: sev}
	if len(args) > 0 {
		e.Arg1 = args[0]
	}
	if len(args) > 1 {
		e.Arg2 = args[1]
	}
	if permanentCodes[code] {
		e.Severity = Permanent
	}
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Code.String())
	if e.Arg1 != "" {
		b.WriteString(": ")
		b.WriteString(e.Arg1)
	}
	if e.Arg2 != "" {
		b.WriteString(" ")
		b.WriteString(e.Arg2)
	}
	if e.Resource != "" {
		fmt.Fprintf(&b, " (resource=%s requested=%s available=%s total=%s)",
			e.Resource, e.Requested, e.Available, e.Total)
	}
	return b.String()
}

// Merge folds a newly observed error into the one previously recorded
// for this evaluation, implementing the "a NEVER_RUN must never be
// downgraded" rule: a Permanent severity always wins over
// a Transient one, regardless of which was observed first.
func Merge(prev, next *Error) *Error {
	if prev == nil {
		return next
	}
	if next == nil {
		return prev
	}
	if prev.Severity == Permanent && next.Severity == Transient {
		return prev
	}
	return next
}

// List accumulates every blocking condition for a single evaluation
// when RETURN_ALL_ERR is requested by the caller. It wraps
// *multierror.Error rather than a hand-rolled linked list because that
// is exactly the shape multierror already provides, and the success
// path never allocates one.
type List struct {
	merr *multierror.Error
}

func (l *List) Add(err *Error) {
	if err == nil {
		return
	}
	l.merr = multierror.Append(l.merr, err)
}

func (l *List) Empty() bool {
	return l == nil || l.merr == nil || len(l.merr.Errors) == 0
}

// Errors returns the accumulated *Error values in the order they were
// added.
func (l *List) Errors() []*Error {
	if l == nil || l.merr == nil {
		return nil
	}
	out := make([]*Error, 0, len(l.merr.Errors))
	for _, e := range l.merr.Errors {
		if se, ok := e.(*Error); ok {
			out = append(out, se)
		}
	}
	return out
}

func (l *List) Error() string {
	if l.Empty() {
		return ""
	}
	return l.merr.Error()
}
