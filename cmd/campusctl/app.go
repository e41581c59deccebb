package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"campusevents/internal/api"
	"campusevents/internal/auth"
	"campusevents/internal/catalog"
	"campusevents/internal/config"
	"campusevents/internal/eventstatus"
	"campusevents/internal/model"
	"campusevents/internal/queue"
	"campusevents/internal/roster"
	"campusevents/internal/session"
)

var (
	errUsage       = errors.New("usage")
	errNotLoggedIn = errors.New("not logged in: run campusctl login")
)

// userError carries the message shown to the user while keeping the cause.
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.err }

type app struct {
	cfg       config.App
	client    *api.Client
	auth      *auth.Controller
	in        *bufio.Reader
	out       io.Writer
	now       func() time.Time
	openQueue func(config.App) (queue.Queue, func() error, error)
}

func newApp(cfg config.App, sessions *session.KV, in io.Reader, out io.Writer) *app {
	client := api.New(cfg.APIBaseURL, sessions, api.WithTimeout(cfg.APITimeout))
	return &app{
		cfg:       cfg,
		client:    client,
		auth:      auth.NewController(client, sessions),
		in:        bufio.NewReader(in),
		out:       out,
		now:       time.Now,
		openQueue: queue.Open,
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return a.login(ctx, rest)
	case "register":
		return a.register(ctx, rest)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "colleges":
		return a.colleges(ctx)
	case "events":
		return a.events(ctx, rest)
	case "event":
		return a.event(ctx, rest)
	case "register-event":
		return a.registerEvent(ctx, rest)
	case "feedback":
		return a.feedback(ctx, rest)
	case "pass":
		return a.pass(ctx, rest)
	case "roster":
		return a.roster(ctx, rest)
	case "mark":
		return a.mark(ctx, rest)
	case "enqueue-checkin":
		return a.enqueueCheckIn(ctx, rest)
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

// fail turns an API error into the message the user sees. A 401 has already
// cleared the stored session.
func (a *app) fail(err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		a.auth.Invalidate()
		return &userError{msg: a.auth.State().Error, err: err}
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return &userError{msg: apiErr.Detail, err: err}
	}
	return err
}

// lookupEnded reports a session ended by a 401 on an attendance or
// feedback lookup. The view is still usable, but the stored session is gone.
func (a *app) lookupEnded(v eventstatus.View) error {
	for _, err := range []error{v.Attendance.Err, v.Feedback.Err} {
		if errors.Is(err, api.ErrUnauthorized) {
			a.auth.Invalidate()
			return &userError{msg: a.auth.State().Error, err: err}
		}
	}
	return nil
}

func (a *app) requireSession(ctx context.Context) (model.User, error) {
	st := a.auth.Init(ctx)
	if !st.Authenticated() {
		return model.User{}, errNotLoggedIn
	}
	return *st.User, nil
}

// parseArgs lets flags appear before, between or after positional args.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return pos, nil
		}
		pos = append(pos, args[0])
		args = args[1:]
	}
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	email := args[0]
	var password string
	if len(args) == 2 {
		password = args[1]
	} else {
		fmt.Fprint(a.out, "Password: ")
		line, err := a.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if email == "" || password == "" {
		return errors.New("email and password are required")
	}
	if err := a.auth.Login(ctx, email, password); err != nil {
		return &userError{msg: a.auth.State().Error, err: err}
	}
	u := a.auth.State().User
	fmt.Fprintf(a.out, "Logged in as %s <%s> (%s)\n", u.FullName, u.Email, u.Role)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := a.flags("register")
	var form auth.RegisterForm
	var role, college string
	fs.StringVar(&form.FullName, "name", "", "full name")
	fs.StringVar(&form.Email, "email", "", "email address")
	fs.StringVar(&form.Password, "password", "", "password")
	fs.StringVar(&form.ConfirmPassword, "confirm", "", "password confirmation")
	fs.StringVar(&role, "role", "student", "student or admin")
	fs.StringVar(&college, "college", "", "college id (students)")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	form.Role = model.Role(role)
	form.CollegeID = model.ID(college)

	if err := a.auth.Register(ctx, form); err != nil {
		var verr *auth.ValidationError
		if errors.As(err, &verr) {
			return err
		}
		return &userError{msg: a.auth.State().Error, err: err}
	}
	u := a.auth.State().User
	fmt.Fprintf(a.out, "Account created. Logged in as %s <%s>\n", u.FullName, u.Email)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	if _, err := a.requireSession(ctx); err != nil {
		return err
	}
	u, err := a.client.CurrentUser(ctx)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "%s <%s>\nrole: %s\n", u.FullName, u.Email, u.Role)
	if u.CollegeID != nil {
		fmt.Fprintf(a.out, "college: %s\n", *u.CollegeID)
	}
	return nil
}

func (a *app) colleges(ctx context.Context) error {
	cs, err := a.client.Colleges(ctx)
	if err != nil {
		return a.fail(err)
	}
	w := a.table()
	fmt.Fprintln(w, "ID\tNAME")
	for _, c := range cs {
		fmt.Fprintf(w, "%s\t%s\n", c.ID, c.Name)
	}
	return w.Flush()
}

func (a *app) events(ctx context.Context, args []string) error {
	fs := a.flags("events")
	skip := fs.Int("skip", 0, "events to skip")
	limit := fs.Int("limit", 100, "maximum events")
	search := fs.String("search", "", "match title, description, location or college")
	typ := fs.String("type", "", "event type, e.g. Workshop")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	if *typ != "" && !model.EventType(*typ).Valid() {
		return fmt.Errorf("unknown event type %q", *typ)
	}
	if _, err := a.requireSession(ctx); err != nil {
		return err
	}
	cat, err := catalog.Load(ctx, a.client, *skip, *limit)
	if err != nil {
		return a.fail(err)
	}
	w := a.table()
	fmt.Fprintln(w, "ID\tDATE\tTYPE\tTITLE\tCOLLEGE\tSTATUS")
	for _, l := range cat.Search(*search, model.EventType(*typ)) {
		status := "open"
		switch {
		case l.Registered:
			status = "registered"
		case l.Past:
			status = "past"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			l.Event.ID, l.Event.Date.Local().Format("2006-01-02 15:04"), l.Event.Type, l.Event.Title, l.Event.CollegeName, status)
	}
	return w.Flush()
}

func (a *app) reconciler() *eventstatus.Reconciler {
	return eventstatus.New(a.client, eventstatus.WithClock(a.now))
}

func oneID(args []string) (model.ID, error) {
	if len(args) != 1 || args[0] == "" {
		return "", errUsage
	}
	return model.ID(args[0]), nil
}

func (a *app) event(ctx context.Context, args []string) error {
	id, err := oneID(args)
	if err != nil {
		return err
	}
	if _, err := a.requireSession(ctx); err != nil {
		return err
	}
	v, err := a.reconciler().Reconcile(ctx, id)
	if err != nil {
		return a.fail(err)
	}
	a.printView(v)
	return a.lookupEnded(v)
}

func (a *app) printView(v eventstatus.View) {
	e := v.Event
	fmt.Fprintf(a.out, "%s (%s)\n", e.Title, e.Type)
	fmt.Fprintf(a.out, "when:     %s\n", e.Date.Local().Format("Mon 2 Jan 2006 15:04"))
	fmt.Fprintf(a.out, "where:    %s, %s\n", e.Location, e.CollegeName)
	if e.Description != "" {
		fmt.Fprintf(a.out, "about:    %s\n", e.Description)
	}
	fmt.Fprintf(a.out, "attendees: %d registered, %d attended", e.RegistrationCount, e.AttendanceCount)
	if e.MaxAttendees != nil {
		fmt.Fprintf(a.out, " of %d seats", *e.MaxAttendees)
	}
	fmt.Fprintln(a.out)
	if e.AverageRating != nil {
		fmt.Fprintf(a.out, "rating:   %.1f / %d\n", *e.AverageRating, model.MaxRating)
	}
	fmt.Fprintf(a.out, "status:   %s\n", v.Status)
	if v.Attendance.Found() {
		fmt.Fprintf(a.out, "checked in: %s\n", v.Attendance.Value.CheckInTime.Local().Format("2006-01-02 15:04"))
	}
	if v.Feedback.Found() {
		fmt.Fprintf(a.out, "your rating: %d %s\n", v.Feedback.Value.Rating, v.Feedback.Value.Comment)
	}
	switch {
	case v.CanRegister():
		fmt.Fprintf(a.out, "next: campusctl register-event %s\n", e.ID)
	case v.ShowCheckInPass():
		fmt.Fprintf(a.out, "next: campusctl pass %s pass.png\n", e.ID)
	case v.CanGiveFeedback():
		fmt.Fprintf(a.out, "next: campusctl feedback %s <1-5> <comment>\n", e.ID)
	}
}

func (a *app) registerEvent(ctx context.Context, args []string) error {
	id, err := oneID(args)
	if err != nil {
		return err
	}
	if _, err := a.requireSession(ctx); err != nil {
		return err
	}
	v, err := a.reconciler().Register(ctx, id)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Registered for %s. Status: %s\n", v.Event.Title, v.Status)
	return a.lookupEnded(v)
}

func (a *app) feedback(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	id := model.ID(args[0])
	rating, err := strconv.Atoi(args[1])
	if err != nil {
		return eventstatus.ErrInvalidRating
	}
	comment := strings.Join(args[2:], " ")
	if _, err := a.requireSession(ctx); err != nil {
		return err
	}
	rec := a.reconciler()
	v, err := rec.Reconcile(ctx, id)
	if err != nil {
		return a.fail(err)
	}
	if err := a.lookupEnded(v); err != nil {
		return err
	}
	if !v.CanGiveFeedback() {
		return fmt.Errorf("feedback is open for past events you attended and have not rated (status: %s)", v.Status)
	}
	v, err = rec.SubmitFeedback(ctx, id, rating, comment)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Thanks for your feedback on %s. Status: %s\n", v.Event.Title, v.Status)
	return a.lookupEnded(v)
}

func (a *app) pass(ctx context.Context, args []string) error {
	fs := a.flags("pass")
	size := fs.Int("size", 256, "image size in pixels")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 2 {
		return errUsage
	}
	if _, err := a.requireSession(ctx); err != nil {
		return err
	}
	v, err := a.reconciler().Reconcile(ctx, model.ID(pos[0]))
	if err != nil {
		return a.fail(err)
	}
	if err := a.lookupEnded(v); err != nil {
		return err
	}
	p, err := eventstatus.PassFor(v, a.now())
	if err != nil {
		return err
	}
	png, err := p.PNG(*size)
	if err != nil {
		return err
	}
	if err := os.WriteFile(pos[1], png, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Check-in pass for %s written to %s\n", v.Event.Title, pos[1])
	return nil
}

func (a *app) roster(ctx context.Context, args []string) error {
	fs := a.flags("roster")
	search := fs.String("search", "", "match student name or email")
	filter := fs.String("filter", "all", "all, attended or not-attended")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	id, err := oneID(pos)
	if err != nil {
		return err
	}
	f, err := roster.ParseAttendanceFilter(*filter)
	if err != nil {
		return err
	}
	if _, err := a.requireSession(ctx); err != nil {
		return err
	}
	r, err := roster.Load(ctx, a.client, id)
	if err != nil {
		return a.fail(err)
	}

	s := r.Stats()
	fmt.Fprintf(a.out, "%d registered, %d attended\n", s.Registered, s.Attended)
	w := a.table()
	fmt.Fprintln(w, "REGISTRATION\tNAME\tEMAIL\tREGISTERED\tCHECKED IN")
	for _, e := range r.Filter(*search, f) {
		checked := "-"
		if e.CheckInTime != nil {
			checked = e.CheckInTime.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.RegistrationID, e.StudentName, e.StudentEmail, e.RegisteredAt.Local().Format("2006-01-02"), checked)
	}
	return w.Flush()
}

func (a *app) mark(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	if _, err := a.requireSession(ctx); err != nil {
		return err
	}
	r, err := roster.Load(ctx, a.client, model.ID(args[0]))
	if err != nil {
		return a.fail(err)
	}
	e, err := r.MarkAttendance(ctx, model.ID(args[1]))
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "%s checked in at %s\n", e.StudentName, e.CheckInTime.Local().Format("15:04"))
	return nil
}

func (a *app) enqueueCheckIn(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	msg, err := queue.NewCheckIn(queue.CheckIn{EventID: model.ID(args[0]), RegistrationID: model.ID(args[1])})
	if err != nil {
		return err
	}
	q, closeQueue, err := a.openQueue(a.cfg)
	if err != nil {
		return err
	}
	defer closeQueue()
	if err := q.Publish(ctx, msg); err != nil {
		return fmt.Errorf("publish check-in: %w", err)
	}
	fmt.Fprintf(a.out, "Queued check-in for registration %s\n", args[1])
	return nil
}
