// Package eventstatus derives a student's standing for one event by
// cross-referencing the event, their registrations, their attendance and
// their feedback, all fetched independently from the API.
package eventstatus

import "campusevents/internal/model"

// Status is the derived standing of the caller for an event.
type Status string

const (
	NotRegistered Status = "not-registered"
	Registered    Status = "registered"
	Attended      Status = "attended"
	Missed        Status = "missed"
	FeedbackGiven Status = "feedback-given"
)

// LookupState tells a missing record apart from a lookup that failed.
type LookupState int

const (
	LookupAbsent LookupState = iota
	LookupFound
	LookupFailed
)

func (s LookupState) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupFailed:
		return "failed"
	default:
		return "absent"
	}
}

// Lookup is the outcome of an auxiliary fetch.
type Lookup[T any] struct {
	State LookupState
	Value T
	Err   error
}

// Found reports whether a matching record exists.
func (l Lookup[T]) Found() bool { return l.State == LookupFound }

func found[T any](v T) Lookup[T] { return Lookup[T]{State: LookupFound, Value: v} }

func failed[T any](err error) Lookup[T] { return Lookup[T]{State: LookupFailed, Err: err} }

// View is everything the event details screen renders.
type View struct {
	Event        model.EventWithStats
	Registration *model.Registration
	Attendance   Lookup[model.Attendance]
	Feedback     Lookup[model.Feedback]
	Past         bool
	Status       Status
}

// CanRegister is true for upcoming events the caller has not joined.
func (v View) CanRegister() bool { return !v.Past && v.Registration == nil }

// CanGiveFeedback is true once a past event was attended and not yet rated.
func (v View) CanGiveFeedback() bool {
	return v.Past && v.Registration != nil && v.Attendance.Found() && !v.Feedback.Found()
}

// ShowCheckInPass is true for upcoming events the caller is registered for.
func (v View) ShowCheckInPass() bool { return !v.Past && v.Registration != nil }

// Derive applies the precedence feedback > attended > missed > registered.
// A failed lookup counts as absent.
func Derive(registered, attended, feedback, past bool) Status {
	switch {
	case !registered:
		return NotRegistered
	case feedback:
		return FeedbackGiven
	case attended:
		return Attended
	case past:
		return Missed
	default:
		return Registered
	}
}
