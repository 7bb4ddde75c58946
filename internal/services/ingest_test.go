package services

import (
	"context"
	"strings"
	"testing"

	apperrors "inquirydesk/pkg/errors"
)

func TestSubmitFormMapsQuestionTitles(t *testing.T) {
	inquiries, _ := newTestInquiryService(t)
	ingest := NewIngestService(inquiries)
	ctx := context.Background()

	inq, err := ingest.SubmitForm(ctx, map[string]any{
		"Timestamp":                         "6/5/2025 10:31:00",
		"Full Name":                         []any{"Priya Shah"},
		"Phone Number":                      "9876543210",
		"Date of Birth":                     "6/5/2001",
		"Email Address":                     "",
		"Email":                             "priya@example.com",
		"Which course are you looking for?": "Full Stack",
		"Are you looking for 100% Job guarantee?":                                      "Yes",
		"Why do you want to shift into IT from any other field? (For Non - Technical)": "Growth",
		"Passing Year":      "2022",
		"CGPA":              "7.5",
		"Some new question": "ignored",
	})
	if err != nil {
		t.Fatalf("SubmitForm: %v", err)
	}

	got, err := inquiries.Get(ctx, inq.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.FullName != "Priya Shah" || got.PhoneNumber != "9876543210" {
		t.Fatalf("unexpected record %+v", got)
	}
	if got.DateOfBirth.Format("2006-01-02") != "2001-06-05" {
		t.Fatalf("date_of_birth = %v", got.DateOfBirth)
	}
	checks := map[string]*string{
		"priya@example.com": got.Email,
		"Full Stack":        got.CourseSelection,
		"Yes":               got.JobGuarantee,
		"Growth":            got.CareerTransitionReason,
		"2022":              got.PassingYear,
		"8":                 got.Cgpa,
	}
	for want, p := range checks {
		if p == nil || *p != want {
			t.Fatalf("expected %q, got %v", want, p)
		}
	}
}

func TestAnswersToColumnsPrefersEmailAddress(t *testing.T) {
	answers := map[string]any{
		"Email":         "second@example.com",
		"Email Address": "first@example.com",
		"email":         "third@example.com",
		"Full Name":     "Priya",
		"full_name":     "Ignored",
	}
	for i := 0; i < 50; i++ {
		got := answersToColumns(answers)
		if got["email"] != "first@example.com" {
			t.Fatalf("run %d: email = %v", i, got["email"])
		}
		if got["full_name"] != "Priya" {
			t.Fatalf("run %d: full_name = %v", i, got["full_name"])
		}
	}

	got := answersToColumns(map[string]any{"Email Address": " ", "Email": "fallback@example.com"})
	if got["email"] != "fallback@example.com" {
		t.Fatalf("blank preferred answer should fall through, got %v", got["email"])
	}
}

func TestSubmitFormValidates(t *testing.T) {
	inquiries, _ := newTestInquiryService(t)
	ingest := NewIngestService(inquiries)

	_, err := ingest.SubmitForm(context.Background(), map[string]any{"Full Name": "No Phone"})
	if !apperrors.IsValidation(err) || PublicMessage(err) != MsgPhoneRequired {
		t.Fatalf("expected phone required, got %v", err)
	}
}

func TestImportCSV(t *testing.T) {
	inquiries, repo := newTestInquiryService(t)
	ingest := NewIngestService(inquiries)
	ctx := context.Background()

	csv := strings.Join([]string{
		`Timestamp,Full Name,Phone Number,Date of Birth,Email Address,CGPA`,
		`6/5/2025 10:31:00,Asha,9000000001,1/2/2000,asha@example.com,8.5`,
		`6/5/2025 10:32:00,Ravi,,1/3/2000,ravi@example.com,`,
		`6/5/2025 10:33:00,Meera,9000000003,someday,,`,
		`6/5/2025 10:34:00,Kiran,9000000004,2001-07-09,,6`,
	}, "\n")

	report, err := ingest.ImportCSV(ctx, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if report.Imported != 2 {
		t.Fatalf("imported = %d, want 2", report.Imported)
	}
	want := []ImportFailure{
		{Row: 3, Error: MsgPhoneRequired},
		{Row: 4, Error: MsgInvalidBirthDate},
	}
	if len(report.Failed) != len(want) {
		t.Fatalf("failed = %+v", report.Failed)
	}
	for i := range want {
		if report.Failed[i] != want[i] {
			t.Fatalf("failure %d = %+v, want %+v", i, report.Failed[i], want[i])
		}
	}
	if total, _ := repo.Count(ctx); total != 2 {
		t.Fatalf("stored %d rows, want 2", total)
	}
}

func TestImportCSVRejectsEmptyFile(t *testing.T) {
	inquiries, _ := newTestInquiryService(t)
	ingest := NewIngestService(inquiries)

	for _, body := range []string{"", "Full Name,Phone Number\n"} {
		if _, err := ingest.ImportCSV(context.Background(), strings.NewReader(body)); !apperrors.IsValidation(err) {
			t.Fatalf("ImportCSV(%q) = %v, want validation error", body, err)
		}
	}
}
