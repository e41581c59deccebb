package devapi

import (
	"fmt"
	"time"

	"campusevents/internal/model"
)

// Seeded demo accounts.
const (
	SeedAdminEmail      = "admin@campus.dev"
	SeedAdminPassword   = "admin123"
	SeedStudentEmail    = "student@campus.dev"
	SeedStudentPassword = "student123"
)

// Seed fills an empty store with two colleges, demo accounts and a spread of
// past and upcoming events around now.
func Seed(s *Store, now time.Time) error {
	north := s.AddCollege("Northfield College")
	river := s.AddCollege("Riverside Institute")

	if _, err := s.CreateUser(model.RegisterRequest{
		Email: SeedAdminEmail, Password: SeedAdminPassword, FullName: "Campus Admin", Role: model.RoleAdmin,
	}); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if _, err := s.CreateUser(model.RegisterRequest{
		Email: SeedStudentEmail, Password: SeedStudentPassword, FullName: "Demo Student", Role: model.RoleStudent, CollegeID: &north.ID,
	}); err != nil {
		return fmt.Errorf("seed student: %w", err)
	}

	day := 24 * time.Hour
	seats := 40
	events := []model.Event{
		{Title: "Intro to Go Workshop", Type: model.EventWorkshop, Date: model.Time{Time: now.Add(7 * day)}, CollegeID: north.ID,
			Description: "Hands-on session building a small web service.", Location: "Lab 2", MaxAttendees: &seats},
		{Title: "Spring Fest", Type: model.EventFest, Date: model.Time{Time: now.Add(-14 * day)}, CollegeID: river.ID,
			Description: "Music, food stalls and games.", Location: "Main Lawn"},
		{Title: "Cloud Native Seminar", Type: model.EventSeminar, Date: model.Time{Time: now.Add(21 * day)}, CollegeID: north.ID,
			Description: "Talks on running services in production.", Location: "Auditorium"},
		{Title: "Inter-college Football", Type: model.EventSports, Date: model.Time{Time: now.Add(-3 * day)}, CollegeID: river.ID,
			Description: "Knockout tournament.", Location: "North Field"},
		{Title: "Research Conference", Type: model.EventConference, Date: model.Time{Time: now.Add(45 * day)}, CollegeID: river.ID,
			Description: "Student research presentations.", Location: "Convention Hall"},
		{Title: "Cultural Night", Type: model.EventCultural, Date: model.Time{Time: now.Add(10 * day)}, CollegeID: north.ID,
			Description: "Dance and theatre performances.", Location: "Open Air Theatre"},
	}
	for _, e := range events {
		if _, err := s.AddEvent(e); err != nil {
			return fmt.Errorf("seed event %q: %w", e.Title, err)
		}
	}
	return nil
}
