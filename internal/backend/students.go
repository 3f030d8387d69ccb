package backend

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/examwatch/proctor-admin/internal/auth"
)

type Student struct {
	ID           string    `json:"_id"`
	StudentID    string    `json:"studentId"`
	FirstName    string    `json:"nameF"`
	LastName     string    `json:"nameL"`
	Email        string    `json:"email"`
	CreatedAt    Timestamp `json:"createdAt"`
	SessionCount int       `json:"sessionCount"`
}

func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

type StudentRegistration struct {
	FirstName       string `json:"nameF"`
	LastName        string `json:"nameL"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
}

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// PasswordProblem describes the first student password policy violation, or "" when pw is acceptable.
func PasswordProblem(pw string) string {
	if len(pw) < 8 {
		return "Password must be at least 8 characters."
	}
	var lower, upper, digit bool
	for _, r := range pw {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	switch {
	case !lower:
		return "Include at least one lowercase letter."
	case !upper:
		return "Include at least one uppercase letter."
	case !digit:
		return "Include at least one number."
	}
	return ""
}

// Validate returns per-field messages keyed by form field name. An empty map means valid.
func (r StudentRegistration) Validate() map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(r.FirstName) == "" {
		errs["nameF"] = "First name is required."
	}
	if strings.TrimSpace(r.LastName) == "" {
		errs["nameL"] = "Last name is required."
	}
	if !emailPattern.MatchString(r.Email) {
		errs["email"] = "Enter a valid email."
	}
	if msg := PasswordProblem(r.Password); msg != "" {
		errs["password"] = msg
	}
	if r.Password != r.ConfirmPassword {
		errs["confirmPassword"] = "Passwords do not match."
	}
	return errs
}

type RegisteredStudent struct {
	ID        string `json:"_id"`
	StudentID string `json:"studentId"`
}

func (c *Client) ListStudents(ctx context.Context, creds auth.Credentials) ([]Student, error) {
	var out []Student
	if err := c.do(ctx, request{operation: "list_students", method: http.MethodGet, path: "/student", creds: &creds}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterStudent creates a student account and returns the assigned custom student id.
func (c *Client) RegisterStudent(ctx context.Context, creds auth.Credentials, reg StudentRegistration) (RegisteredStudent, error) {
	reg.FirstName = strings.TrimSpace(reg.FirstName)
	reg.LastName = strings.TrimSpace(reg.LastName)
	reg.Email = strings.TrimSpace(reg.Email)
	body, err := jsonBody(reg)
	if err != nil {
		return RegisteredStudent{}, err
	}
	var out struct {
		Student RegisteredStudent `json:"student"`
	}
	err = c.do(ctx, request{
		operation:   "register_student",
		method:      http.MethodPost,
		path:        "/student/register",
		body:        body,
		contentType: "application/json",
		creds:       &creds,
	}, &out)
	if err != nil {
		return RegisteredStudent{}, err
	}
	return out.Student, nil
}
