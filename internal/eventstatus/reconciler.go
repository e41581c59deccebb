package eventstatus

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"campusevents/internal/model"
)

var (
	// ErrEventNotFound wraps any failure to fetch the event itself.
	ErrEventNotFound = errors.New("event not found")
	// ErrInvalidRating rejects feedback outside 1..5 before it is sent.
	ErrInvalidRating = fmt.Errorf("rating must be between %d and %d", model.MinRating, model.MaxRating)
)

// Source is the part of the API the reconciler reads and mutates through.
type Source interface {
	Event(ctx context.Context, id model.ID) (model.EventWithStats, error)
	MyRegistrations(ctx context.Context) ([]model.Registration, error)
	MyAttendances(ctx context.Context) ([]model.Attendance, error)
	MyFeedbacks(ctx context.Context) ([]model.Feedback, error)
	RegisterForEvent(ctx context.Context, eventID model.ID) (model.Registration, error)
	SubmitFeedback(ctx context.Context, eventID model.ID, rating int, comment string) (model.Feedback, error)
}

// Reconciler builds Views. It holds no state between calls.
type Reconciler struct {
	src Source
	now func() time.Time
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithClock overrides time.Now for the past/upcoming decision.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// New creates a Reconciler over src.
func New(src Source, opts ...Option) *Reconciler {
	r := &Reconciler{src: src, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile fetches the event and the caller's records and derives the View.
// Attendance and feedback lookups that fail are logged and treated as
// absent; the View is still returned.
func (r *Reconciler) Reconcile(ctx context.Context, eventID model.ID) (View, error) {
	var (
		event     model.EventWithStats
		regs      []model.Registration
		evErr     error
		regsErr   error
		primary   errgroup.Group
		auxiliary errgroup.Group
	)
	primary.Go(func() error {
		event, evErr = r.src.Event(ctx, eventID)
		return evErr
	})
	primary.Go(func() error {
		regs, regsErr = r.src.MyRegistrations(ctx)
		return regsErr
	})
	_ = primary.Wait()
	if evErr != nil {
		return View{}, fmt.Errorf("%w: %w", ErrEventNotFound, evErr)
	}
	if regsErr != nil {
		return View{}, fmt.Errorf("load registrations: %w", regsErr)
	}

	v := View{Event: event, Past: event.IsPast(r.now())}
	for i := range regs {
		if regs[i].EventID == eventID {
			reg := regs[i]
			v.Registration = &reg
			break
		}
	}

	if v.Registration != nil {
		regID := v.Registration.ID
		auxiliary.Go(func() error {
			v.Attendance = r.attendance(ctx, eventID, regID)
			return nil
		})
		auxiliary.Go(func() error {
			v.Feedback = r.feedback(ctx, eventID, regID)
			return nil
		})
		_ = auxiliary.Wait()
	}

	v.Status = Derive(v.Registration != nil, v.Attendance.Found(), v.Feedback.Found(), v.Past)
	return v, nil
}

func (r *Reconciler) attendance(ctx context.Context, eventID, regID model.ID) Lookup[model.Attendance] {
	all, err := r.src.MyAttendances(ctx)
	if err != nil {
		log.Printf("event %s: attendance lookup failed: %v", eventID, err)
		return failed[model.Attendance](err)
	}
	for _, a := range all {
		if a.RegistrationID == regID {
			return found(a)
		}
	}
	return Lookup[model.Attendance]{}
}

func (r *Reconciler) feedback(ctx context.Context, eventID, regID model.ID) Lookup[model.Feedback] {
	all, err := r.src.MyFeedbacks(ctx)
	if err != nil {
		log.Printf("event %s: feedback lookup failed: %v", eventID, err)
		return failed[model.Feedback](err)
	}
	for _, f := range all {
		if f.RegistrationID == regID {
			return found(f)
		}
	}
	return Lookup[model.Feedback]{}
}

// Register signs the caller up and re-reconciles from the server rather
// than patching the previous View.
func (r *Reconciler) Register(ctx context.Context, eventID model.ID) (View, error) {
	if _, err := r.src.RegisterForEvent(ctx, eventID); err != nil {
		return View{}, err
	}
	return r.Reconcile(ctx, eventID)
}

// SubmitFeedback rates the event and re-reconciles.
func (r *Reconciler) SubmitFeedback(ctx context.Context, eventID model.ID, rating int, comment string) (View, error) {
	if rating < model.MinRating || rating > model.MaxRating {
		return View{}, ErrInvalidRating
	}
	if _, err := r.src.SubmitFeedback(ctx, eventID, rating, comment); err != nil {
		return View{}, err
	}
	return r.Reconcile(ctx, eventID)
}
