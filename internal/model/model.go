package model

import "time"

// Role is a user's role in the product.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// User is the authenticated account as returned by /auth/me.
type User struct {
	ID        ID     `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Role      Role   `json:"role"`
	CollegeID *ID    `json:"college_id,omitempty"`
	IsActive  bool   `json:"is_active"`
}

// IsAdmin reports whether the user may use the admin views.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// College is read-only reference data.
type College struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// EventType enumerates the kinds of campus event.
type EventType string

const (
	EventWorkshop   EventType = "Workshop"
	EventFest       EventType = "Fest"
	EventSeminar    EventType = "Seminar"
	EventConference EventType = "Conference"
	EventSports     EventType = "Sports"
	EventCultural   EventType = "Cultural"
)

// EventTypes lists every event type in display order.
var EventTypes = []EventType{EventWorkshop, EventFest, EventSeminar, EventConference, EventSports, EventCultural}

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	for _, v := range EventTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Event is a campus event.
type Event struct {
	ID           ID        `json:"id"`
	Title        string    `json:"title"`
	Type         EventType `json:"type"`
	Date         Time      `json:"date"`
	CollegeID    ID        `json:"college_id"`
	Description  string    `json:"description"`
	Location     string    `json:"location"`
	MaxAttendees *int      `json:"max_attendees,omitempty"`
}

// IsPast reports whether the event date is strictly before now.
func (e Event) IsPast(now time.Time) bool {
	return e.Date.Before(now)
}

// EventWithStats is an event as listed by the API, with aggregate counters.
type EventWithStats struct {
	Event
	RegistrationCount int      `json:"registration_count"`
	AttendanceCount   int      `json:"attendance_count"`
	AverageRating     *float64 `json:"average_rating,omitempty"`
	CollegeName       string   `json:"college_name"`
}

// Registration links a student to an event. StudentName and StudentEmail
// are only filled on the admin listing.
type Registration struct {
	ID           ID     `json:"id"`
	StudentID    ID     `json:"student_id"`
	EventID      ID     `json:"event_id"`
	Timestamp    Time   `json:"created_at"`
	StudentName  string `json:"student_name,omitempty"`
	StudentEmail string `json:"student_email,omitempty"`
}

// Attendance records a check-in for a registration.
type Attendance struct {
	ID             ID   `json:"id"`
	RegistrationID ID   `json:"registration_id"`
	EventID        ID   `json:"event_id,omitempty"`
	CheckInTime    Time `json:"check_in_time"`
}

// Feedback is a rating left once per registration.
type Feedback struct {
	ID             ID     `json:"id"`
	RegistrationID ID     `json:"registration_id"`
	EventID        ID     `json:"event_id,omitempty"`
	Rating         int    `json:"rating"`
	Comment        string `json:"comment"`
}

// Rating bounds accepted by the feedback endpoint.
const (
	MinRating = 1
	MaxRating = 5
)

// Session is the identity and token held by the client.
type Session struct {
	AccessToken string
	User        *User
}

// IsAuthenticated is true iff both token and user are present.
func (s Session) IsAuthenticated() bool {
	return s.AccessToken != "" && s.User != nil
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FullName  string `json:"full_name"`
	Role      Role   `json:"role,omitempty"`
	CollegeID *ID    `json:"college_id,omitempty"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by POST /auth/login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RegistrationCreate is the body of POST /registrations.
type RegistrationCreate struct {
	EventID ID `json:"event_id"`
}

// AttendanceCreate is the body of POST /attendance.
type AttendanceCreate struct {
	RegistrationID ID `json:"registration_id"`
	EventID        ID `json:"event_id"`
}

// FeedbackCreate is the body of POST /feedback.
type FeedbackCreate struct {
	EventID ID     `json:"event_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// ErrorBody is the error shape returned by the API.
type ErrorBody struct {
	Detail string `json:"detail"`
}
