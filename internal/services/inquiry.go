package services

import (
	"context"
	"log"
	"strconv"
	"time"

	"inquirydesk/internal/config"
	"inquirydesk/internal/domain"
	"inquirydesk/internal/metrics"
	"inquirydesk/internal/repository"
	apperrors "inquirydesk/pkg/errors"
)

// Sources recorded on the created-inquiries counter.
const (
	SourceAPI  = "api"
	SourceForm = "form"
	SourceCSV  = "csv"
)

// InquirySummary is one row of a list page.
type InquirySummary struct {
	ID          string    `json:"id"`
	FullName    string    `json:"full_name"`
	PhoneNumber string    `json:"phone_number"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Gender      *string   `json:"gender"`
	Email       *string   `json:"email"`
	Reference   *string   `json:"reference"`
	CreatedAt   time.Time `json:"created_at"`
	Age         int       `json:"age"`
}

// InquiryDetail is a full record. Integer and decimal columns are strings
// so clients never round them through a float.
type InquiryDetail struct {
	ID                     string    `json:"id"`
	CreatedAt              time.Time `json:"created_at"`
	FullName               string    `json:"full_name"`
	PhoneNumber            string    `json:"phone_number"`
	DateOfBirth            time.Time `json:"date_of_birth"`
	Gender                 *string   `json:"gender"`
	Email                  *string   `json:"email"`
	Reference              *string   `json:"reference"`
	CurrentAddress         *string   `json:"current_address"`
	PermanentAddress       *string   `json:"permanent_address"`
	CourseSelection        *string   `json:"course_selection"`
	CourseDuration         *string   `json:"course_duration"`
	UserAvailability       *string   `json:"user_availability"`
	JobGuarantee           *string   `json:"job_guarentee"`
	JobAssistance          *string   `json:"job_assistance"`
	JobLocation            *string   `json:"job_location"`
	ExpectedPackage        *string   `json:"expected_package"`
	FutureGoal             *string   `json:"future_goal"`
	CareerTransitionReason *string   `json:"career_transition_reason"`
	RecentEducation        *string   `json:"recent_education"`
	PassingYear            *string   `json:"passing_year"`
	Cgpa                   *string   `json:"cgpa"`
	Age                    int       `json:"age"`
}

// Pagination describes the page returned by List.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int64 `json:"totalPages"`
}

// InquiryPage is the result of List.
type InquiryPage struct {
	Data       []InquirySummary `json:"data"`
	Pagination Pagination       `json:"pagination"`
}

// InquiryService implements the inquiry operations.
type InquiryService struct {
	repo       repository.InquiryRepository
	pagination config.PaginationConfig
	loc        *time.Location
	now        func() time.Time
}

// NewInquiryService creates a new inquiry service. Ages are computed for
// the current date in loc.
func NewInquiryService(repo repository.InquiryRepository, pagination config.PaginationConfig, loc *time.Location) *InquiryService {
	if loc == nil {
		loc = time.UTC
	}
	return &InquiryService{
		repo:       repo,
		pagination: pagination,
		loc:        loc,
		now:        time.Now,
	}
}

func (s *InquiryService) today() time.Time {
	return s.now().In(s.loc)
}

// pageBounds applies the defaults and the configured cap.
func (s *InquiryService) pageBounds(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.pagination.DefaultLimit
	}
	if s.pagination.MaxLimit > 0 && limit > s.pagination.MaxLimit {
		limit = s.pagination.MaxLimit
	}
	return page, limit
}

// List returns one page of inquiries, newest first. A page with no rows,
// including any page past the last one, is reported as NotFound.
func (s *InquiryService) List(ctx context.Context, page, limit int) (*InquiryPage, error) {
	page, limit = s.pageBounds(page, limit)
	log.Printf("[INQUIRY] List request: page=%d, limit=%d", page, limit)

	total, err := s.repo.Count(ctx)
	if err != nil {
		log.Printf("[INQUIRY] List failed: %v", err)
		return nil, NewInternalError("failed to count inquiries", err)
	}

	pages := pageCount(total, limit)
	if int64(page) > pages {
		return nil, NewNotFoundError(MsgNoInquiries)
	}

	rows, err := s.repo.FindPage(ctx, (page-1)*limit, limit)
	if err != nil {
		log.Printf("[INQUIRY] List failed: %v", err)
		return nil, NewInternalError("failed to list inquiries", err)
	}
	if len(rows) == 0 {
		return nil, NewNotFoundError(MsgNoInquiries)
	}

	today := s.today()
	data := make([]InquirySummary, 0, len(rows))
	for i := range rows {
		data = append(data, summarize(&rows[i], today))
	}

	return &InquiryPage{
		Data: data,
		Pagination: Pagination{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: pages,
		},
	}, nil
}

// pageCount is ceil(total/limit) without overflowing for huge limits.
func pageCount(total int64, limit int) int64 {
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return pages
}

// Get returns the full record for id.
func (s *InquiryService) Get(ctx context.Context, id int64) (*InquiryDetail, error) {
	log.Printf("[INQUIRY] Get request: id=%d", id)

	inquiry, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return detail(inquiry, s.today()), nil
}

// Create validates bag and stores a new inquiry.
func (s *InquiryService) Create(ctx context.Context, bag FieldBag) (*domain.Inquiry, error) {
	return s.CreateFrom(ctx, bag, SourceAPI)
}

// CreateFrom is Create with the origin of the submission recorded in metrics.
func (s *InquiryService) CreateFrom(ctx context.Context, bag FieldBag, source string) (*domain.Inquiry, error) {
	inquiry, err := buildInquiry(bag)
	if err != nil {
		log.Printf("[INQUIRY] Create failed: validation error: %v", err)
		return nil, err
	}

	if err := s.repo.Create(ctx, inquiry); err != nil {
		log.Printf("[INQUIRY] Create failed: database error: %v", err)
		return nil, NewInternalError("failed to save inquiry", err)
	}

	log.Printf("[INQUIRY] Create successful: id=%d, source=%s", inquiry.ID, source)
	metrics.RecordInquiryCreated(source)
	return inquiry, nil
}

// buildInquiry checks the required fields in the order callers see their
// messages, then normalizes the optional ones.
func buildInquiry(bag FieldBag) (*domain.Inquiry, error) {
	phone, ok := bag.Text(domain.ColPhoneNumber)
	if !ok {
		return nil, NewValidationError(MsgPhoneRequired)
	}
	name, ok := bag.Text(domain.ColFullName)
	if !ok {
		return nil, NewValidationError(MsgFullNameRequired)
	}
	dob, ok := bag.Text(domain.ColDateOfBirth)
	if !ok {
		return nil, NewValidationError(MsgBirthDateRequired)
	}

	phoneNumber, err := ParsePhoneNumber(phone)
	if err != nil {
		return nil, err
	}
	birthDate, err := ParseBirthDate(dob)
	if err != nil {
		return nil, err
	}

	inquiry := &domain.Inquiry{
		FullName:    name,
		PhoneNumber: phoneNumber,
		DateOfBirth: birthDate,
		PassingYear: NormalizePassingYear(bag.Text(domain.ColPassingYear)),
		Cgpa:        NormalizeCgpa(bag.Text(domain.ColCgpa)),
	}
	for _, col := range domain.OptionalTextColumns {
		*inquiry.TextField(col) = bag.OptionalText(col)
	}
	return inquiry, nil
}

// Patch overwrites the fields present in bag and leaves the rest alone.
func (s *InquiryService) Patch(ctx context.Context, id int64, bag FieldBag) error {
	log.Printf("[INQUIRY] Patch request: id=%d, fields=%d", id, len(bag))

	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	updates, err := patchColumns(bag)
	if err != nil {
		log.Printf("[INQUIRY] Patch failed: validation error: %v", err)
		return err
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		if apperrors.IsNotFound(err) {
			return NewNotFoundError(MsgInquiryNotFound)
		}
		log.Printf("[INQUIRY] Patch failed: database error: %v", err)
		return NewInternalError("failed to update inquiry", err)
	}

	log.Printf("[INQUIRY] Patch successful: id=%d, columns=%d", id, len(updates))
	metrics.RecordInquiryPatched()
	return nil
}

// patchColumns converts the present members of bag into column updates.
// Required columns cannot be cleared.
func patchColumns(bag FieldBag) (map[string]any, error) {
	updates := make(map[string]any)

	if bag.Has(domain.ColFullName) {
		name, ok := bag.Text(domain.ColFullName)
		if !ok {
			return nil, NewValidationError(MsgFullNameRequired)
		}
		updates[domain.ColFullName] = name
	}
	if bag.Has(domain.ColPhoneNumber) {
		raw, ok := bag.Text(domain.ColPhoneNumber)
		if !ok {
			return nil, NewValidationError(MsgPhoneRequired)
		}
		phone, err := ParsePhoneNumber(raw)
		if err != nil {
			return nil, err
		}
		updates[domain.ColPhoneNumber] = phone
	}
	if bag.Has(domain.ColDateOfBirth) {
		raw, ok := bag.Text(domain.ColDateOfBirth)
		if !ok {
			return nil, NewValidationError(MsgBirthDateRequired)
		}
		dob, err := ParseBirthDate(raw)
		if err != nil {
			return nil, err
		}
		updates[domain.ColDateOfBirth] = dob
	}

	for _, col := range domain.OptionalTextColumns {
		if !bag.Has(col) {
			continue
		}
		if v := bag.OptionalText(col); v != nil {
			updates[col] = *v
		} else {
			updates[col] = nil
		}
	}

	if bag.Has(domain.ColPassingYear) {
		updates[domain.ColPassingYear] = nullableInt(NormalizePassingYear(bag.Text(domain.ColPassingYear)))
	}
	if bag.Has(domain.ColCgpa) {
		updates[domain.ColCgpa] = nullableInt(NormalizeCgpa(bag.Text(domain.ColCgpa)))
	}
	return updates, nil
}

func nullableInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

// Delete removes the inquiry permanently.
func (s *InquiryService) Delete(ctx context.Context, id int64) error {
	log.Printf("[INQUIRY] Delete request: id=%d", id)

	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if apperrors.IsNotFound(err) {
			return NewNotFoundError(MsgInquiryNotFound)
		}
		log.Printf("[INQUIRY] Delete failed: database error: %v", err)
		return NewInternalError("failed to delete inquiry", err)
	}

	log.Printf("[INQUIRY] Delete successful: id=%d", id)
	metrics.RecordInquiryDeleted()
	return nil
}

func (s *InquiryService) find(ctx context.Context, id int64) (*domain.Inquiry, error) {
	inquiry, err := s.repo.FindByID(ctx, id)
	if apperrors.IsNotFound(err) {
		log.Printf("[INQUIRY] Inquiry not found: id=%d", id)
		return nil, NewNotFoundError(MsgInquiryNotFound)
	}
	if err != nil {
		log.Printf("[INQUIRY] Lookup failed: id=%d: %v", id, err)
		return nil, NewInternalError("failed to load inquiry", err)
	}
	return inquiry, nil
}

func summarize(i *domain.Inquiry, today time.Time) InquirySummary {
	return InquirySummary{
		ID:          strconv.FormatInt(i.ID, 10),
		FullName:    i.FullName,
		PhoneNumber: i.PhoneNumber.String(),
		DateOfBirth: i.BirthDate(),
		Gender:      i.Gender,
		Email:       i.Email,
		Reference:   i.Reference,
		CreatedAt:   i.CreatedAt,
		Age:         domain.AgeAt(i.BirthDate(), today),
	}
}

func detail(i *domain.Inquiry, today time.Time) *InquiryDetail {
	return &InquiryDetail{
		ID:                     strconv.FormatInt(i.ID, 10),
		CreatedAt:              i.CreatedAt,
		FullName:               i.FullName,
		PhoneNumber:            i.PhoneNumber.String(),
		DateOfBirth:            i.BirthDate(),
		Gender:                 i.Gender,
		Email:                  i.Email,
		Reference:              i.Reference,
		CurrentAddress:         i.CurrentAddress,
		PermanentAddress:       i.PermanentAddress,
		CourseSelection:        i.CourseSelection,
		CourseDuration:         i.CourseDuration,
		UserAvailability:       i.UserAvailability,
		JobGuarantee:           i.JobGuarantee,
		JobAssistance:          i.JobAssistance,
		JobLocation:            i.JobLocation,
		ExpectedPackage:        i.ExpectedPackage,
		FutureGoal:             i.FutureGoal,
		CareerTransitionReason: i.CareerTransitionReason,
		RecentEducation:        i.RecentEducation,
		PassingYear:            intString(i.PassingYear),
		Cgpa:                   intString(i.Cgpa),
		Age:                    domain.AgeAt(i.BirthDate(), today),
	}
}

func intString(v *int64) *string {
	if v == nil {
		return nil
	}
	s := strconv.FormatInt(*v, 10)
	return &s
}
