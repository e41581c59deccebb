package auth

import (
	"errors"
	"testing"

	"campusevents/internal/model"
)

// TestRegisterForm_Validate covers the sign-up rules in the order the screen applies them.
func TestRegisterForm_Validate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*RegisterForm)
		wantMsg string
	}{
		{"valid", func(*RegisterForm) {}, ""},
		{"missing name", func(f *RegisterForm) { f.FullName = "  " }, "Please fill in all fields"},
		{"missing college for student", func(f *RegisterForm) { f.CollegeID = "" }, "Please fill in all fields"},
		{"admin without college", func(f *RegisterForm) { f.Role = model.RoleAdmin; f.CollegeID = "" }, ""},
		{"mismatch", func(f *RegisterForm) { f.ConfirmPassword = "nope" }, "Passwords do not match"},
		{"missing beats mismatch", func(f *RegisterForm) { f.ConfirmPassword = "nope"; f.Email = "" }, "Please fill in all fields"},
		{"bad email", func(f *RegisterForm) { f.Email = "not-an-email" }, "Please enter a valid email address"},
		{"bad role", func(f *RegisterForm) { f.Role = "owner" }, "Role must be student or admin"},
	}
	for _, tc := range cases {
		f := validForm()
		tc.mutate(&f)
		err := f.Validate()
		if tc.wantMsg == "" {
			if err != nil {
				t.Errorf("%s: expected valid, got %v", tc.name, err)
			}
			continue
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: expected ValidationError, got %v", tc.name, err)
			continue
		}
		if verr.Message != tc.wantMsg {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.wantMsg, verr.Message)
		}
	}
}

// TestRegisterForm_RequestDefaultsRole verifies student is the default role and fields are trimmed.
func TestRegisterForm_RequestDefaultsRole(t *testing.T) {
	f := validForm()
	f.Email = " ravi@example.edu "
	req := f.Request()
	if req.Role != model.RoleStudent {
		t.Errorf("expected student role, got %s", req.Role)
	}
	if req.Email != "ravi@example.edu" {
		t.Errorf("expected trimmed email, got %q", req.Email)
	}
}
