package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Status is the lifecycle label of a feedback record.
type Status string

// Known statuses. StatusUnknown covers legacy or externally ingested values
// that match none of them; such values are still stored verbatim.
const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusResolved   Status = "RESOLVED"
	StatusClosed     Status = "CLOSED"
	StatusUnknown    Status = "UNKNOWN"
)

// Priority is the urgency label of a feedback record.
type Priority string

// Known priorities.
const (
	PriorityHigh    Priority = "HIGH"
	PriorityMedium  Priority = "MEDIUM"
	PriorityLow     Priority = "LOW"
	PriorityUnknown Priority = "UNKNOWN"
)

var (
	knownStatuses   = []Status{StatusPending, StatusInProgress, StatusResolved, StatusClosed}
	knownPriorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}
)

// ParseStatus maps a free-form label onto a known Status. Matching ignores
// case, surrounding spaces, and '-' / ' ' vs '_' ("in progress" is
// IN_PROGRESS). Anything else yields StatusUnknown.
func ParseStatus(s string) Status {
	norm := Status(normalizeLabel(s))
	for _, k := range knownStatuses {
		if norm == k {
			return k
		}
	}
	return StatusUnknown
}

// Known reports whether s is one of the named statuses.
func (s Status) Known() bool { return s != StatusUnknown && ParseStatus(string(s)) == s }

// ParsePriority maps a free-form label onto a known Priority, falling back
// to PriorityUnknown.
func ParsePriority(s string) Priority {
	norm := Priority(normalizeLabel(s))
	for _, k := range knownPriorities {
		if norm == k {
			return k
		}
	}
	return PriorityUnknown
}

// Known reports whether p is one of the named priorities.
func (p Priority) Known() bool { return p != PriorityUnknown && ParsePriority(string(p)) == p }

// normalizeLabel trims s, unifies separators to '_' and upper-cases it.
// A cases.Caser is stateful, so one is built per call.
func normalizeLabel(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	return cases.Upper(language.Und).String(s)
}

// CanonicalStatus returns the known spelling of s ("in progress" becomes
// "IN_PROGRESS"), or s unchanged when it names no known status.
func CanonicalStatus(s string) string {
	if st := ParseStatus(s); st != StatusUnknown {
		return string(st)
	}
	return s
}

// CanonicalPriority is the Priority counterpart of CanonicalStatus.
func CanonicalPriority(s string) string {
	if p := ParsePriority(s); p != PriorityUnknown {
		return string(p)
	}
	return s
}
