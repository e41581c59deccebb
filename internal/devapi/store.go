package devapi

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"campusevents/internal/model"
)

// Problem is an error the handlers turn into {"detail": ...} with Status.
type Problem struct {
	Status int
	Detail string
}

func (p *Problem) Error() string { return fmt.Sprintf("%d: %s", p.Status, p.Detail) }

func problem(status int, detail string) error { return &Problem{Status: status, Detail: detail} }

type account struct {
	user model.User
	hash []byte
}

// Store is the in-memory state of the development backend.
type Store struct {
	now        func() time.Time
	bcryptCost int

	mu            sync.RWMutex
	accounts      map[model.ID]*account
	byEmail       map[string]model.ID
	colleges      []model.College
	events        []model.Event
	registrations []model.Registration
	attendance    []model.Attendance
	feedback      []model.Feedback
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) StoreOption {
	return func(s *Store) { s.bcryptCost = cost }
}

// NewStore returns an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		now:        time.Now,
		bcryptCost: bcrypt.DefaultCost,
		accounts:   make(map[model.ID]*account),
		byEmail:    make(map[string]model.ID),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newID() model.ID { return model.ID(uuid.NewString()) }

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// CreateUser adds an account. Students must belong to an existing college.
func (s *Store) CreateUser(req model.RegisterRequest) (model.User, error) {
	role := req.Role
	if role == "" {
		role = model.RoleStudent
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email := normalizeEmail(req.Email)
	if _, taken := s.byEmail[email]; taken {
		return model.User{}, problem(http.StatusBadRequest, "Email already registered")
	}
	if req.CollegeID != nil && *req.CollegeID != "" {
		if _, ok := s.college(*req.CollegeID); !ok {
			return model.User{}, problem(http.StatusBadRequest, "College not found")
		}
	} else if role == model.RoleStudent {
		return model.User{}, problem(http.StatusBadRequest, "Students must select a college")
	}

	u := model.User{
		ID:        newID(),
		Email:     email,
		FullName:  strings.TrimSpace(req.FullName),
		Role:      role,
		CollegeID: req.CollegeID,
		IsActive:  true,
	}
	s.accounts[u.ID] = &account{user: u, hash: hash}
	s.byEmail[email] = u.ID
	return u, nil
}

// Authenticate checks credentials.
func (s *Store) Authenticate(email, password string) (model.User, error) {
	s.mu.RLock()
	id, ok := s.byEmail[normalizeEmail(email)]
	var acc *account
	if ok {
		acc = s.accounts[id]
	}
	s.mu.RUnlock()

	if acc == nil || bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) != nil {
		return model.User{}, problem(http.StatusUnauthorized, "Incorrect email or password")
	}
	if !acc.user.IsActive {
		return model.User{}, problem(http.StatusBadRequest, "Inactive user")
	}
	return acc.user, nil
}

// User looks an account up by id.
func (s *Store) User(id model.ID) (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return model.User{}, false
	}
	return acc.user, true
}

// AddCollege creates a college.
func (s *Store) AddCollege(name string) model.College {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := model.College{ID: newID(), Name: name}
	s.colleges = append(s.colleges, c)
	return c
}

// Colleges lists colleges by name.
func (s *Store) Colleges() []model.College {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]model.College(nil), s.colleges...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Store) college(id model.ID) (model.College, bool) {
	for _, c := range s.colleges {
		if c.ID == id {
			return c, true
		}
	}
	return model.College{}, false
}

// AddEvent creates an event. The id is assigned when empty.
func (s *Store) AddEvent(e model.Event) (model.Event, error) {
	if !e.Type.Valid() {
		return model.Event{}, problem(http.StatusBadRequest, "Unknown event type")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.college(e.CollegeID); !ok {
		return model.Event{}, problem(http.StatusBadRequest, "College not found")
	}
	if e.ID == "" {
		e.ID = newID()
	}
	s.events = append(s.events, e)
	return e, nil
}

// Events pages through events ordered by date.
func (s *Store) Events(skip, limit int) []model.EventWithStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sorted := append([]model.Event(nil), s.events...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date.Time) })
	if skip < 0 {
		skip = 0
	}
	if skip > len(sorted) {
		skip = len(sorted)
	}
	end := len(sorted)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	out := make([]model.EventWithStats, 0, end-skip)
	for _, e := range sorted[skip:end] {
		out = append(out, s.withStats(e))
	}
	return out
}

// Event returns one event with its stats.
func (s *Store) Event(id model.ID) (model.EventWithStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.event(id)
	if !ok {
		return model.EventWithStats{}, problem(http.StatusNotFound, "Event not found")
	}
	return s.withStats(e), nil
}

func (s *Store) event(id model.ID) (model.Event, bool) {
	for _, e := range s.events {
		if e.ID == id {
			return e, true
		}
	}
	return model.Event{}, false
}

func (s *Store) withStats(e model.Event) model.EventWithStats {
	out := model.EventWithStats{Event: e}
	if c, ok := s.college(e.CollegeID); ok {
		out.CollegeName = c.Name
	}
	regs := make(map[model.ID]bool)
	for _, r := range s.registrations {
		if r.EventID == e.ID {
			regs[r.ID] = true
		}
	}
	out.RegistrationCount = len(regs)
	for _, a := range s.attendance {
		if regs[a.RegistrationID] {
			out.AttendanceCount++
		}
	}
	var sum, n int
	for _, f := range s.feedback {
		if regs[f.RegistrationID] {
			sum += f.Rating
			n++
		}
	}
	if n > 0 {
		avg := float64(sum) / float64(n)
		out.AverageRating = &avg
	}
	return out
}

// Register signs studentID up for eventID.
func (s *Store) Register(studentID, eventID model.ID) (model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.event(eventID)
	if !ok {
		return model.Registration{}, problem(http.StatusNotFound, "Event not found")
	}
	if e.IsPast(s.now()) {
		return model.Registration{}, problem(http.StatusBadRequest, "Cannot register for past events")
	}
	count := 0
	for _, r := range s.registrations {
		if r.EventID != eventID {
			continue
		}
		if r.StudentID == studentID {
			return model.Registration{}, problem(http.StatusBadRequest, "Already registered for this event")
		}
		count++
	}
	if e.MaxAttendees != nil && count >= *e.MaxAttendees {
		return model.Registration{}, problem(http.StatusBadRequest, "Event is full")
	}
	r := model.Registration{ID: newID(), StudentID: studentID, EventID: eventID, Timestamp: model.Time{Time: s.now().UTC()}}
	s.registrations = append(s.registrations, r)
	return r, nil
}

// Registrations lists registrations, all of them when studentID is empty.
// The full listing carries student names and emails.
func (s *Store) Registrations(studentID model.ID) []model.Registration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Registration{}
	for _, r := range s.registrations {
		if studentID != "" {
			if r.StudentID == studentID {
				out = append(out, r)
			}
			continue
		}
		if acc, ok := s.accounts[r.StudentID]; ok {
			r.StudentName = acc.user.FullName
			r.StudentEmail = acc.user.Email
		}
		out = append(out, r)
	}
	return out
}

func (s *Store) registration(id model.ID) (model.Registration, bool) {
	for _, r := range s.registrations {
		if r.ID == id {
			return r, true
		}
	}
	return model.Registration{}, false
}

// CreateAttendance checks a registration in for its event.
func (s *Store) CreateAttendance(req model.AttendanceCreate) (model.Attendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.registration(req.RegistrationID)
	if !ok {
		return model.Attendance{}, problem(http.StatusNotFound, "Registration not found")
	}
	if r.EventID != req.EventID {
		return model.Attendance{}, problem(http.StatusBadRequest, "Registration does not belong to this event")
	}
	for _, a := range s.attendance {
		if a.RegistrationID == r.ID {
			return model.Attendance{}, problem(http.StatusBadRequest, "Attendance already marked")
		}
	}
	a := model.Attendance{ID: newID(), RegistrationID: r.ID, EventID: r.EventID, CheckInTime: model.Time{Time: s.now().UTC()}}
	s.attendance = append(s.attendance, a)
	return a, nil
}

// Attendance lists check-ins, all of them when studentID is empty.
func (s *Store) Attendance(studentID model.ID) []model.Attendance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Attendance{}
	for _, a := range s.attendance {
		if studentID != "" {
			r, ok := s.registration(a.RegistrationID)
			if !ok || r.StudentID != studentID {
				continue
			}
		}
		out = append(out, a)
	}
	return out
}

// SubmitFeedback rates an event once per registration.
func (s *Store) SubmitFeedback(studentID model.ID, req model.FeedbackCreate) (model.Feedback, error) {
	if req.Rating < model.MinRating || req.Rating > model.MaxRating {
		return model.Feedback{}, problem(http.StatusBadRequest, fmt.Sprintf("Rating must be between %d and %d", model.MinRating, model.MaxRating))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var reg *model.Registration
	for i := range s.registrations {
		if s.registrations[i].StudentID == studentID && s.registrations[i].EventID == req.EventID {
			reg = &s.registrations[i]
			break
		}
	}
	if reg == nil {
		return model.Feedback{}, problem(http.StatusBadRequest, "Not registered for this event")
	}
	for _, f := range s.feedback {
		if f.RegistrationID == reg.ID {
			return model.Feedback{}, problem(http.StatusBadRequest, "Feedback already submitted")
		}
	}
	f := model.Feedback{ID: newID(), RegistrationID: reg.ID, EventID: req.EventID, Rating: req.Rating, Comment: strings.TrimSpace(req.Comment)}
	s.feedback = append(s.feedback, f)
	return f, nil
}

// Feedback lists the feedback left by studentID.
func (s *Store) Feedback(studentID model.ID) []model.Feedback {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Feedback{}
	for _, f := range s.feedback {
		r, ok := s.registration(f.RegistrationID)
		if ok && r.StudentID == studentID {
			out = append(out, f)
		}
	}
	return out
}

// AsProblem extracts a Problem from err.
func AsProblem(err error) (*Problem, bool) {
	var p *Problem
	ok := errors.As(err, &p)
	return p, ok
}
