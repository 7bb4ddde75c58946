package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Inquiry is a prospective-student contact/application record.
type Inquiry struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt   time.Time       `gorm:"not null;index" json:"created_at"`
	FullName    string          `gorm:"type:text;not null" json:"full_name"`
	PhoneNumber decimal.Decimal `gorm:"type:numeric;not null" json:"phone_number"`
	DateOfBirth datatypes.Date  `gorm:"not null" json:"date_of_birth"`
	Gender      *string         `gorm:"type:text" json:"gender"`
	Email       *string         `gorm:"type:text" json:"email"`
	Reference   *string         `gorm:"type:text" json:"reference"`

	CurrentAddress         *string `gorm:"type:text" json:"current_address"`
	PermanentAddress       *string `gorm:"type:text" json:"permanent_address"`
	CourseSelection        *string `gorm:"type:text" json:"course_selection"`
	CourseDuration         *string `gorm:"type:text" json:"course_duration"`
	UserAvailability       *string `gorm:"type:text" json:"user_availability"`
	JobGuarantee           *string `gorm:"column:job_guarentee;type:text" json:"job_guarentee"`
	JobAssistance          *string `gorm:"type:text" json:"job_assistance"`
	JobLocation            *string `gorm:"type:text" json:"job_location"`
	ExpectedPackage        *string `gorm:"type:text" json:"expected_package"`
	FutureGoal             *string `gorm:"type:text" json:"future_goal"`
	CareerTransitionReason *string `gorm:"type:text" json:"career_transition_reason"`
	RecentEducation        *string `gorm:"type:text" json:"recent_education"`

	PassingYear *int64 `json:"passing_year"`
	Cgpa        *int64 `json:"cgpa"`
}

// TableName specifies the table name for Inquiry
func (Inquiry) TableName() string {
	return "inquiries"
}

// BeforeCreate stamps the creation time unless the caller already did.
func (i *Inquiry) BeforeCreate(tx *gorm.DB) error {
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}
	return nil
}

// BirthDate returns the date of birth as a time at midnight UTC.
func (i *Inquiry) BirthDate() time.Time {
	return time.Time(i.DateOfBirth)
}

// Column names that may appear in a partial update.
const (
	ColFullName               = "full_name"
	ColPhoneNumber            = "phone_number"
	ColDateOfBirth            = "date_of_birth"
	ColGender                 = "gender"
	ColEmail                  = "email"
	ColReference              = "reference"
	ColCurrentAddress         = "current_address"
	ColPermanentAddress       = "permanent_address"
	ColCourseSelection        = "course_selection"
	ColCourseDuration         = "course_duration"
	ColUserAvailability       = "user_availability"
	ColJobGuarantee           = "job_guarentee"
	ColJobAssistance          = "job_assistance"
	ColJobLocation            = "job_location"
	ColExpectedPackage        = "expected_package"
	ColFutureGoal             = "future_goal"
	ColCareerTransitionReason = "career_transition_reason"
	ColRecentEducation        = "recent_education"
	ColPassingYear            = "passing_year"
	ColCgpa                   = "cgpa"
)

// OptionalTextColumns lists the free-text profile columns in display order.
var OptionalTextColumns = []string{
	ColGender,
	ColEmail,
	ColReference,
	ColCurrentAddress,
	ColPermanentAddress,
	ColCourseSelection,
	ColCourseDuration,
	ColUserAvailability,
	ColJobGuarantee,
	ColJobAssistance,
	ColJobLocation,
	ColExpectedPackage,
	ColFutureGoal,
	ColCareerTransitionReason,
	ColRecentEducation,
}

// TextField returns a pointer to the optional text field stored in column,
// or nil when column is not one of OptionalTextColumns.
func (i *Inquiry) TextField(column string) **string {
	switch column {
	case ColGender:
		return &i.Gender
	case ColEmail:
		return &i.Email
	case ColReference:
		return &i.Reference
	case ColCurrentAddress:
		return &i.CurrentAddress
	case ColPermanentAddress:
		return &i.PermanentAddress
	case ColCourseSelection:
		return &i.CourseSelection
	case ColCourseDuration:
		return &i.CourseDuration
	case ColUserAvailability:
		return &i.UserAvailability
	case ColJobGuarantee:
		return &i.JobGuarantee
	case ColJobAssistance:
		return &i.JobAssistance
	case ColJobLocation:
		return &i.JobLocation
	case ColExpectedPackage:
		return &i.ExpectedPackage
	case ColFutureGoal:
		return &i.FutureGoal
	case ColCareerTransitionReason:
		return &i.CareerTransitionReason
	case ColRecentEducation:
		return &i.RecentEducation
	}
	return nil
}
