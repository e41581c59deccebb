// Package roster joins an event's registrations with the attendance
// records for the admin attendance screen.
package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"campusevents/internal/model"
)

const (
	unknownName  = "Unknown Student"
	unknownEmail = "No email provided"
)

// ErrUnknownRegistration is returned when marking a registration that is not
// on the roster.
var ErrUnknownRegistration = errors.New("registration is not on this roster")

// Source is the admin part of the API the roster needs.
type Source interface {
	AllRegistrations(ctx context.Context) ([]model.Registration, error)
	AllAttendance(ctx context.Context) ([]model.Attendance, error)
	CreateAttendance(ctx context.Context, registrationID, eventID model.ID) (model.Attendance, error)
}

// Entry is one registered student.
type Entry struct {
	RegistrationID model.ID
	StudentID      model.ID
	StudentName    string
	StudentEmail   string
	RegisteredAt   time.Time
	HasAttended    bool
	AttendanceID   model.ID
	CheckInTime    *time.Time
}

// AttendanceFilter narrows the roster by check-in state.
type AttendanceFilter int

const (
	FilterAll AttendanceFilter = iota
	FilterAttended
	FilterNotAttended
)

func (f AttendanceFilter) String() string {
	switch f {
	case FilterAttended:
		return "attended"
	case FilterNotAttended:
		return "not-attended"
	default:
		return "all"
	}
}

// ParseAttendanceFilter accepts "all", "attended" and "not-attended". The
// empty string means all.
func ParseAttendanceFilter(s string) (AttendanceFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "attended":
		return FilterAttended, nil
	case "not-attended", "not_attended":
		return FilterNotAttended, nil
	}
	return FilterAll, fmt.Errorf("unknown attendance filter %q", s)
}

// Stats are the header counters of the attendance screen.
type Stats struct {
	Registered int
	Attended   int
}

// Roster is the joined view for one event.
type Roster struct {
	src     Source
	eventID model.ID

	mu      sync.RWMutex
	entries []Entry
}

// Load fetches all registrations and all attendance concurrently and joins
// them for eventID, keeping the order registrations were returned in.
func Load(ctx context.Context, src Source, eventID model.ID) (*Roster, error) {
	var (
		regs []model.Registration
		atts []model.Attendance
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		regs, err = src.AllRegistrations(gctx)
		if err != nil {
			return fmt.Errorf("load registrations: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		atts, err = src.AllAttendance(gctx)
		if err != nil {
			return fmt.Errorf("load attendance: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Roster{src: src, eventID: eventID, entries: join(eventID, regs, atts)}, nil
}

func join(eventID model.ID, regs []model.Registration, atts []model.Attendance) []Entry {
	byReg := make(map[model.ID]model.Attendance, len(atts))
	for _, a := range atts {
		if _, seen := byReg[a.RegistrationID]; !seen {
			byReg[a.RegistrationID] = a
		}
	}
	entries := make([]Entry, 0, len(regs))
	for _, r := range regs {
		if r.EventID != eventID {
			continue
		}
		e := Entry{
			RegistrationID: r.ID,
			StudentID:      r.StudentID,
			StudentName:    fallback(r.StudentName, unknownName),
			StudentEmail:   fallback(r.StudentEmail, unknownEmail),
			RegisteredAt:   r.Timestamp.Time,
		}
		if a, ok := byReg[r.ID]; ok {
			e.markAttended(a)
		}
		entries = append(entries, e)
	}
	return entries
}

func fallback(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func (e *Entry) markAttended(a model.Attendance) {
	t := a.CheckInTime.Time
	e.HasAttended = true
	e.AttendanceID = a.ID
	e.CheckInTime = &t
}

// EventID is the event this roster was loaded for.
func (r *Roster) EventID() model.ID { return r.eventID }

// Entries returns a copy of every entry.
func (r *Roster) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Entry(nil), r.entries...)
}

// Filter returns the entries whose name or email contains search
// (case-insensitive) and that match f. The roster is not modified.
func (r *Roster) Filter(search string, f AttendanceFilter) []Entry {
	term := strings.ToLower(strings.TrimSpace(search))
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if term != "" &&
			!strings.Contains(strings.ToLower(e.StudentName), term) &&
			!strings.Contains(strings.ToLower(e.StudentEmail), term) {
			continue
		}
		switch f {
		case FilterAttended:
			if !e.HasAttended {
				continue
			}
		case FilterNotAttended:
			if e.HasAttended {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// Stats counts registered and attended entries.
func (r *Roster) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := Stats{Registered: len(r.entries)}
	for _, e := range r.entries {
		if e.HasAttended {
			s.Attended++
		}
	}
	return s
}

// MarkAttendance checks the student in and patches only their entry. On
// failure the roster is left as it was.
func (r *Roster) MarkAttendance(ctx context.Context, registrationID model.ID) (Entry, error) {
	if r.index(registrationID) < 0 {
		return Entry{}, ErrUnknownRegistration
	}
	a, err := r.src.CreateAttendance(ctx, registrationID, r.eventID)
	if err != nil {
		return Entry{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].RegistrationID == registrationID {
			r.entries[i].markAttended(a)
			return r.entries[i], nil
		}
	}
	return Entry{}, ErrUnknownRegistration
}

func (r *Roster) index(registrationID model.ID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, e := range r.entries {
		if e.RegistrationID == registrationID {
			return i
		}
	}
	return -1
}
