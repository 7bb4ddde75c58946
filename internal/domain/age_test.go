package domain

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAgeAt(t *testing.T) {
	tests := []struct {
		name  string
		birth time.Time
		now   time.Time
		want  int
	}{
		{"born today", date(2026, time.May, 10), date(2026, time.May, 10), 0},
		{"birthday today", date(2000, time.May, 10), date(2026, time.May, 10), 26},
		{"birthday tomorrow", date(2000, time.May, 11), date(2026, time.May, 10), 25},
		{"birthday yesterday", date(2000, time.May, 9), date(2026, time.May, 10), 26},
		{"birthday next month", date(2000, time.June, 1), date(2026, time.May, 31), 25},
		{"new year's eve", date(1999, time.December, 31), date(2026, time.January, 1), 26},
		{"leap day in non-leap year before", date(2000, time.February, 29), date(2023, time.February, 28), 22},
		{"leap day in non-leap year after", date(2000, time.February, 29), date(2023, time.March, 1), 23},
		{"leap day in leap year", date(2000, time.February, 29), date(2024, time.February, 29), 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AgeAt(tt.birth, tt.now); got != tt.want {
				t.Fatalf("AgeAt(%s, %s) = %d, want %d",
					tt.birth.Format("2006-01-02"), tt.now.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestAgeAtUsesNowLocation(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	birth := date(2000, time.March, 15)
	// 20:00 UTC on the 14th is already the 15th in Kolkata.
	nowUTC := time.Date(2026, time.March, 14, 20, 0, 0, 0, time.UTC)

	if got := AgeAt(birth, nowUTC); got != 25 {
		t.Fatalf("UTC age = %d, want 25", got)
	}
	if got := AgeAt(birth, nowUTC.In(kolkata)); got != 26 {
		t.Fatalf("Kolkata age = %d, want 26", got)
	}
}

func TestTextFieldCoversOptionalColumns(t *testing.T) {
	var inq Inquiry
	for _, col := range OptionalTextColumns {
		p := inq.TextField(col)
		if p == nil {
			t.Fatalf("no field for column %s", col)
		}
		v := col
		*p = &v
	}
	if inq.JobGuarantee == nil || *inq.JobGuarantee != ColJobGuarantee {
		t.Fatalf("job_guarentee not mapped to JobGuarantee")
	}
	if inq.TextField(ColFullName) != nil {
		t.Fatalf("full_name is not an optional text column")
	}
}
