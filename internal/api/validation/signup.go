package validation

import (
	"encoding/json"
	"slices"
	"sort"
	"strings"

	"github.com/sparkfbla/chapter/internal/profile"
)

// SelfWritableFields are the only profile columns a member may write.
var SelfWritableFields = []string{"first_name", "last_name", "student_id", "school", "requested_role"}

// SignUpRequest is the body of a self-service profile update.
type SignUpRequest struct {
	FirstName     string `json:"first_name" validate:"required,max=100"`
	LastName      string `json:"last_name" validate:"required,max=100"`
	StudentID     *int64 `json:"student_id" validate:"required,gte=0"`
	School        string `json:"school" validate:"required,oneof=Denmark Other"`
	RequestedRole string `json:"requested_role" validate:"required,oneof=Member Officer President Advisor Admin"`
}

// WritableFieldErrors reports every key in raw outside SelfWritableFields.
// Keys are reported in sorted order.
func WritableFieldErrors(raw map[string]json.RawMessage) []FieldError {
	var unknown []string
	for key := range raw {
		if !slices.Contains(SelfWritableFields, key) {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)

	var errs []FieldError
	for _, key := range unknown {
		errs = append(errs, FieldError{Field: key, Message: key + " is not writable"})
	}
	return errs
}

// ValidateSignUpRequest trims the name fields in place and validates the request.
func ValidateSignUpRequest(req *SignUpRequest) []FieldError {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	return check(req)
}

// ToSelfUpdate converts a validated request.
func (r SignUpRequest) ToSelfUpdate() profile.SelfUpdate {
	var studentID int64
	if r.StudentID != nil {
		studentID = *r.StudentID
	}
	return profile.SelfUpdate{
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		StudentID:     studentID,
		School:        profile.School(r.School),
		RequestedRole: profile.Role(r.RequestedRole),
	}
}
