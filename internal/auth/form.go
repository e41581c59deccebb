package auth

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"campusevents/internal/model"
)

var validate = validator.New()

// RegisterForm is the account creation form as entered by the user.
type RegisterForm struct {
	FullName        string     `validate:"required"`
	Email           string     `validate:"required,email"`
	Password        string     `validate:"required"`
	ConfirmPassword string     `validate:"required,eqfield=Password"`
	Role            model.Role `validate:"omitempty,oneof=student admin"`
	CollegeID       model.ID   `validate:"required_unless=Role admin"`
}

// ValidationError rejects a form before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validate checks the form the way the sign-up screen does: every field
// present first, then the individual rules.
func (f RegisterForm) Validate() error {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.TrimSpace(f.Email)
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		if strings.HasPrefix(fe.Tag(), "required") {
			return &ValidationError{Field: fe.Field(), Message: "Please fill in all fields"}
		}
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "eqfield":
		return &ValidationError{Field: fe.Field(), Message: "Passwords do not match"}
	case "email":
		return &ValidationError{Field: fe.Field(), Message: "Please enter a valid email address"}
	case "oneof":
		return &ValidationError{Field: fe.Field(), Message: "Role must be student or admin"}
	default:
		return &ValidationError{Field: fe.Field(), Message: "Invalid " + strings.ToLower(fe.Field())}
	}
}

// Request converts a validated form into the API payload. Role defaults to student.
func (f RegisterForm) Request() model.RegisterRequest {
	role := f.Role
	if role == "" {
		role = model.RoleStudent
	}
	req := model.RegisterRequest{
		Email:    strings.TrimSpace(f.Email),
		Password: f.Password,
		FullName: strings.TrimSpace(f.FullName),
		Role:     role,
	}
	if f.CollegeID != "" {
		id := f.CollegeID
		req.CollegeID = &id
	}
	return req
}
