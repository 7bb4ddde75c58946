package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"inquirydesk/internal/domain"
	"inquirydesk/internal/metrics"
	apperrors "inquirydesk/pkg/errors"
)

// formLabels maps Google Form question titles (lower-cased) to columns.
var formLabels = map[string]string{
	"full name":     domain.ColFullName,
	"phone number":  domain.ColPhoneNumber,
	"date of birth": domain.ColDateOfBirth,
	"gender":        domain.ColGender,
	"email address": domain.ColEmail,
	"email":         domain.ColEmail,
	"reference":     domain.ColReference,

	"current address":                                  domain.ColCurrentAddress,
	"permanent address":                                domain.ColPermanentAddress,
	"which course are you looking for?":                domain.ColCourseSelection,
	"course duration":                                  domain.ColCourseDuration,
	"how many hours can you invest daily / monthly?":   domain.ColUserAvailability,
	"are you looking for 100% job guarantee?":          domain.ColJobGuarantee,
	"are you interested in job assistance?":            domain.ColJobAssistance,
	"preferred job location":                           domain.ColJobLocation,
	"how much package do you wish to have?":            domain.ColExpectedPackage,
	"where do you want to see yourself after 5 years?": domain.ColFutureGoal,
	"why do you want to shift into it from any other field? (for non - technical)": domain.ColCareerTransitionReason,
	"last education": domain.ColRecentEducation,
	"passing year":   domain.ColPassingYear,
	"cgpa":           domain.ColCgpa,
}

// knownColumns accepts submissions that already use column names.
var knownColumns = func() map[string]bool {
	cols := map[string]bool{
		domain.ColFullName:    true,
		domain.ColPhoneNumber: true,
		domain.ColDateOfBirth: true,
		domain.ColPassingYear: true,
		domain.ColCgpa:        true,
	}
	for _, c := range domain.OptionalTextColumns {
		cols[c] = true
	}
	return cols
}()

// ImportFailure describes a CSV row that was not imported. Row is the
// spreadsheet row number, the header being row 1.
type ImportFailure struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportReport summarizes a CSV import.
type ImportReport struct {
	Imported int             `json:"imported"`
	Failed   []ImportFailure `json:"failed"`
}

// IngestService turns Google Form submissions and spreadsheet exports into
// inquiries through the regular create path.
type IngestService struct {
	inquiries *InquiryService
}

// NewIngestService creates a new ingest service
func NewIngestService(inquiries *InquiryService) *IngestService {
	return &IngestService{inquiries: inquiries}
}

// SubmitForm stores one form submission. Answers are keyed by question
// title; values may be strings, numbers or lists of strings as sent by
// Apps Script. Unknown questions, including "Timestamp", are ignored.
func (s *IngestService) SubmitForm(ctx context.Context, answers map[string]any) (*domain.Inquiry, error) {
	bag, err := BagFromValues(answersToColumns(answers))
	if err != nil {
		return nil, NewValidationError(MsgInvalidBody)
	}
	log.Printf("[INGEST] Form submission: answers=%d, mapped=%d", len(answers), len(bag))
	return s.inquiries.CreateFrom(ctx, bag, SourceForm)
}

// labelPriority ranks labels that share a column; higher wins.
var labelPriority = map[string]int{
	"email address": 1,
}

// answersToColumns keeps one non-empty answer per column. Labels are
// visited by priority, then name, so the same submission always maps the
// same way.
func answersToColumns(answers map[string]any) map[string]any {
	labels := make([]string, 0, len(answers))
	for label := range answers {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		a := strings.ToLower(strings.TrimSpace(labels[i]))
		b := strings.ToLower(strings.TrimSpace(labels[j]))
		if labelPriority[a] != labelPriority[b] {
			return labelPriority[a] > labelPriority[b]
		}
		if a != b {
			return a < b
		}
		return labels[i] < labels[j]
	})

	out := make(map[string]any)
	for _, label := range labels {
		col := columnFor(label)
		if col == "" {
			continue
		}
		text := answerText(answers[label])
		if text == "" {
			continue
		}
		if _, taken := out[col]; !taken {
			out[col] = text
		}
	}
	return out
}

func columnFor(label string) string {
	key := strings.ToLower(strings.TrimSpace(label))
	if col, ok := formLabels[key]; ok {
		return col
	}
	if knownColumns[key] {
		return key
	}
	return ""
}

func answerText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s := answerText(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case []string:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s := strings.TrimSpace(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// ImportCSV imports a Google Sheets export of form responses. Rows that fail
// validation are reported and skipped; a storage failure stops the import.
func (s *IngestService) ImportCSV(ctx context.Context, r io.Reader) (*ImportReport, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		log.Printf("[INGEST] CSV rejected: %v", df.Err)
		return nil, NewBadRequestError(MsgInvalidCSV)
	}
	if df.Nrow() == 0 {
		return nil, NewValidationError(MsgEmptyCSV)
	}

	records := df.Records()
	header := records[0]
	report := &ImportReport{Failed: []ImportFailure{}}

	for i, record := range records[1:] {
		row := i + 2
		answers := make(map[string]any, len(header))
		for j, label := range header {
			if j < len(record) && record[j] != "NaN" {
				answers[label] = record[j]
			}
		}

		bag, err := BagFromValues(answersToColumns(answers))
		if err == nil {
			_, err = s.inquiries.CreateFrom(ctx, bag, SourceCSV)
		}
		if err != nil {
			if apperrors.IsValidation(err) {
				report.Failed = append(report.Failed, ImportFailure{Row: row, Error: PublicMessage(err)})
				metrics.RecordImportRowFailed()
				continue
			}
			log.Printf("[INGEST] CSV import aborted at row %d: %v", row, err)
			return nil, err
		}
		report.Imported++
	}

	log.Printf("[INGEST] CSV import finished: imported=%d, failed=%d", report.Imported, len(report.Failed))
	return report, nil
}
