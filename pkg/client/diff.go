package client

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNoChanges is returned by Diff when the form matches the record.
var ErrNoChanges = errors.New("No changes detected")

// InvalidNumberError rejects non-numeric input in a numeric field.
type InvalidNumberError struct {
	Field string
}

func (e *InvalidNumberError) Error() string {
	return fmt.Sprintf("Invalid number input for field %q", e.Field)
}

// numberFields are edited as text but compared and sent as numbers.
var numberFields = map[string]bool{
	"phone_number": true,
	"age":          true,
}

// editableFields lists the form fields, in form order.
var editableFields = []string{
	"full_name", "phone_number", "date_of_birth", "age", "gender", "email",
	"reference", "current_address", "permanent_address", "course_selection",
	"course_duration", "user_availability", "job_guarentee", "job_assistance",
	"job_location", "expected_package", "future_goal",
	"career_transition_reason", "recent_education", "passing_year", "cgpa",
}

// FormValues renders a record as the string values an edit form starts
// with. Null fields become "".
func FormValues(i *Inquiry) map[string]string {
	values := map[string]string{
		"full_name":     i.FullName,
		"phone_number":  i.PhoneNumber,
		"date_of_birth": i.DateOfBirth.Format("2006-01-02"),
		"age":           fmt.Sprint(i.Age),
	}
	optional := map[string]*string{
		"gender":                   i.Gender,
		"email":                    i.Email,
		"reference":                i.Reference,
		"current_address":          i.CurrentAddress,
		"permanent_address":        i.PermanentAddress,
		"course_selection":         i.CourseSelection,
		"course_duration":          i.CourseDuration,
		"user_availability":        i.UserAvailability,
		"job_guarentee":            i.JobGuarantee,
		"job_assistance":           i.JobAssistance,
		"job_location":             i.JobLocation,
		"expected_package":         i.ExpectedPackage,
		"future_goal":              i.FutureGoal,
		"career_transition_reason": i.CareerTransitionReason,
		"recent_education":         i.RecentEducation,
		"passing_year":             i.PassingYear,
		"cgpa":                     i.Cgpa,
	}
	for k, v := range optional {
		if v != nil {
			values[k] = *v
		} else {
			values[k] = ""
		}
	}
	return values
}

// Diff returns the form fields whose values differ from original. Numeric
// fields left blank are skipped; other numeric input must parse or the
// whole diff is rejected. Numbers are sent as JSON numbers without losing
// precision.
func Diff(original, form map[string]string) (map[string]any, error) {
	changes := make(map[string]any)
	for _, field := range editableFields {
		value, ok := form[field]
		if !ok {
			continue
		}

		if numberFields[field] {
			if value == "" {
				continue
			}
			n, err := decimal.NewFromString(value)
			if err != nil {
				return nil, &InvalidNumberError{Field: field}
			}
			if prev, err := decimal.NewFromString(original[field]); err == nil && prev.Equal(n) {
				continue
			}
			changes[field] = json.Number(n.String())
			continue
		}

		if value != original[field] {
			changes[field] = value
		}
	}

	if len(changes) == 0 {
		return nil, ErrNoChanges
	}
	return changes, nil
}
