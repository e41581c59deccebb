package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"campusevents/internal/model"
)

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, req model.RegisterRequest) (model.User, error) {
	var out model.User
	err := c.do(ctx, "register", http.MethodPost, "/auth/register", nil, req, &out)
	return out, err
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (model.TokenResponse, error) {
	var out model.TokenResponse
	err := c.do(ctx, "login", http.MethodPost, "/auth/login", nil, model.LoginRequest{Email: email, Password: password}, &out)
	return out, err
}

// CurrentUser returns the user the stored token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (model.User, error) {
	var out model.User
	err := c.do(ctx, "current_user", http.MethodGet, "/auth/me", nil, nil, &out)
	return out, err
}

// Colleges lists colleges.
func (c *Client) Colleges(ctx context.Context) ([]model.College, error) {
	var out []model.College
	err := c.do(ctx, "colleges", http.MethodGet, "/colleges", nil, nil, &out)
	return out, err
}

// Events lists events. skip and limit are passed through as given.
func (c *Client) Events(ctx context.Context, skip, limit int) ([]model.EventWithStats, error) {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))
	var out []model.EventWithStats
	err := c.do(ctx, "events", http.MethodGet, "/events", q, nil, &out)
	return out, err
}

// Event fetches one event with its stats.
func (c *Client) Event(ctx context.Context, id model.ID) (model.EventWithStats, error) {
	var out model.EventWithStats
	err := c.do(ctx, "event", http.MethodGet, "/events/"+url.PathEscape(id.String()), nil, nil, &out)
	return out, err
}

// MyRegistrations lists the caller's registrations.
func (c *Client) MyRegistrations(ctx context.Context) ([]model.Registration, error) {
	var out []model.Registration
	err := c.do(ctx, "my_registrations", http.MethodGet, "/registrations/my", nil, nil, &out)
	return out, err
}

// AllRegistrations lists every registration (admin).
func (c *Client) AllRegistrations(ctx context.Context) ([]model.Registration, error) {
	var out []model.Registration
	err := c.do(ctx, "all_registrations", http.MethodGet, "/registrations", nil, nil, &out)
	return out, err
}

// RegisterForEvent registers the caller for an event.
func (c *Client) RegisterForEvent(ctx context.Context, eventID model.ID) (model.Registration, error) {
	var out model.Registration
	err := c.do(ctx, "register_for_event", http.MethodPost, "/registrations", nil, model.RegistrationCreate{EventID: eventID}, &out)
	return out, err
}

// MyAttendances lists the caller's check-ins.
func (c *Client) MyAttendances(ctx context.Context) ([]model.Attendance, error) {
	var out []model.Attendance
	err := c.do(ctx, "my_attendances", http.MethodGet, "/attendance/my", nil, nil, &out)
	return out, err
}

// AllAttendance lists every check-in (admin).
func (c *Client) AllAttendance(ctx context.Context) ([]model.Attendance, error) {
	var out []model.Attendance
	err := c.do(ctx, "all_attendance", http.MethodGet, "/attendance", nil, nil, &out)
	return out, err
}

// CreateAttendance marks a registration as checked in (admin).
func (c *Client) CreateAttendance(ctx context.Context, registrationID, eventID model.ID) (model.Attendance, error) {
	var out model.Attendance
	body := model.AttendanceCreate{RegistrationID: registrationID, EventID: eventID}
	err := c.do(ctx, "create_attendance", http.MethodPost, "/attendance", nil, body, &out)
	return out, err
}

// MyFeedbacks lists feedback the caller has left.
func (c *Client) MyFeedbacks(ctx context.Context) ([]model.Feedback, error) {
	var out []model.Feedback
	err := c.do(ctx, "my_feedbacks", http.MethodGet, "/feedback/my", nil, nil, &out)
	return out, err
}

// SubmitFeedback rates an event the caller is registered for.
func (c *Client) SubmitFeedback(ctx context.Context, eventID model.ID, rating int, comment string) (model.Feedback, error) {
	var out model.Feedback
	body := model.FeedbackCreate{EventID: eventID, Rating: rating, Comment: comment}
	err := c.do(ctx, "submit_feedback", http.MethodPost, "/feedback", nil, body, &out)
	return out, err
}
