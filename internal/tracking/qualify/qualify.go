// Package qualify decides whether a lead has crossed the qualified
// threshold from two caller-supplied signals: job size and urgency.
// Pure predicate, no side effects; exported so callers can check before
// invoking the qualified-lead emitter.
package qualify

// WindowScope is the ordinal bucket describing job size.
type WindowScope string

const (
	Scope1To5   WindowScope = "1_5"
	Scope6To15  WindowScope = "6_15"
	Scope16To30 WindowScope = "16_30"
	Scope31Plus WindowScope = "31_plus"
)

// Timeline is the ordinal bucket describing urgency.
type Timeline string

const (
	TimelineASAP      Timeline = "asap"
	Timeline30Days    Timeline = "30days"
	Timeline90Days    Timeline = "90days"
	TimelineExploring Timeline = "exploring"
)

// qualifyingScopes are the three largest job-size buckets.
var qualifyingScopes = map[WindowScope]struct{}{
	Scope6To15:  {},
	Scope16To30: {},
	Scope31Plus: {},
}

// qualifyingTimelines are the two most urgent buckets.
var qualifyingTimelines = map[Timeline]struct{}{
	TimelineASAP:   {},
	Timeline30Days: {},
}

// Facts are the two enumerated signals per lead. They are supplied by the
// caller; nothing is inferred here.
type Facts struct {
	WindowScope WindowScope `json:"windowScope"`
	Timeline    Timeline    `json:"timeline"`
}

// Qualifies reports whether the lead crosses the qualified threshold:
// job size in the three largest buckets and urgency in the two most
// urgent buckets.
func Qualifies(facts Facts) bool {
	if _, ok := qualifyingScopes[facts.WindowScope]; !ok {
		return false
	}
	_, ok := qualifyingTimelines[facts.Timeline]
	return ok
}
