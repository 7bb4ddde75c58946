package services

import (
	"encoding/json"
	"testing"
	"time"

	apperrors "inquirydesk/pkg/errors"
)

func bag(t *testing.T, body string) FieldBag {
	t.Helper()
	var b FieldBag
	if err := json.Unmarshal([]byte(body), &b); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return b
}

func TestFieldBagPresence(t *testing.T) {
	b := bag(t, `{"email": null, "gender": "", "reference": "  walk-in ", "phone_number": 5551234, "cgpa": 8.6}`)

	if !b.Has("email") || b.Has("full_name") {
		t.Fatalf("Has should see null members and miss absent ones")
	}
	if _, ok := b.Text("email"); ok {
		t.Fatalf("null must not produce text")
	}
	if _, ok := b.Text("gender"); ok {
		t.Fatalf("blank must not produce text")
	}
	if s, ok := b.Text("reference"); !ok || s != "walk-in" {
		t.Fatalf("reference = %q, %v", s, ok)
	}
	if s, _ := b.Text("phone_number"); s != "5551234" {
		t.Fatalf("numbers keep their literal text, got %q", s)
	}
	if b.OptionalText("gender") != nil {
		t.Fatalf("blank optional text should be nil")
	}
}

func TestParsePhoneNumber(t *testing.T) {
	d, err := ParsePhoneNumber("919876543210987654321")
	if err != nil {
		t.Fatalf("ParsePhoneNumber: %v", err)
	}
	if d.String() != "919876543210987654321" {
		t.Fatalf("lost precision: %s", d.String())
	}
	if _, err := ParsePhoneNumber("555-1234"); !apperrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseBirthDate(t *testing.T) {
	tests := map[string]string{
		"2000-01-01":                "2000-01-01",
		"2000-01-01T00:00:00.000Z":  "2000-01-01",
		"2000-01-01T03:00:00+05:30": "1999-12-31",
		"6/5/2025":                  "2025-06-05",
		"2025/06/05":                "2025-06-05",
	}
	for in, want := range tests {
		got, err := ParseBirthDate(in)
		if err != nil {
			t.Fatalf("ParseBirthDate(%q): %v", in, err)
		}
		if s := time.Time(got).Format(time.DateOnly); s != want {
			t.Fatalf("ParseBirthDate(%q) = %s, want %s", in, s, want)
		}
	}
	for _, bad := range []string{"yesterday", "2000-13-01", "31/12/2000"} {
		if _, err := ParseBirthDate(bad); !apperrors.IsValidation(err) {
			t.Fatalf("ParseBirthDate(%q) should fail, got %v", bad, err)
		}
	}
}

func TestNormalizeNumbers(t *testing.T) {
	year := NormalizePassingYear("2019", true)
	if year == nil || *year != 2019 {
		t.Fatalf("passing year = %v", year)
	}
	if NormalizePassingYear("twenty", true) != nil || NormalizePassingYear("2019.5", true) != nil {
		t.Fatalf("non-integral passing years should be null")
	}
	if NormalizePassingYear("", false) != nil {
		t.Fatalf("absent passing year should be null")
	}

	cases := map[string]int64{"8.6": 9, "8.5": 9, "8.49": 8, "7": 7, "0": 0}
	for in, want := range cases {
		got := NormalizeCgpa(in, true)
		if got == nil || *got != want {
			t.Fatalf("NormalizeCgpa(%q) = %v, want %d", in, got, want)
		}
	}
	if NormalizeCgpa("A+", true) != nil {
		t.Fatalf("non-numeric cgpa should be null")
	}

	// values outside bigint range are dropped, not wrapped
	for _, in := range []string{"18446744073709551617", "9223372036854775808", "-9223372036854775809"} {
		if got := NormalizePassingYear(in, true); got != nil {
			t.Fatalf("NormalizePassingYear(%q) = %d, want null", in, *got)
		}
		if got := NormalizeCgpa(in, true); got != nil {
			t.Fatalf("NormalizeCgpa(%q) = %d, want null", in, *got)
		}
	}
	if got := NormalizeCgpa("9223372036854775807", true); got == nil || *got != 9223372036854775807 {
		t.Fatalf("NormalizeCgpa(max int64) = %v", got)
	}
}
