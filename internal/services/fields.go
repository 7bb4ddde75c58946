package services

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// FieldBag is a JSON object whose members are kept raw so that a member
// explicitly set to null can be told apart from one that is absent.
type FieldBag map[string]json.RawMessage

var jsonNull = []byte("null")

// Has reports whether key is present, including as null.
func (b FieldBag) Has(key string) bool {
	_, ok := b[key]
	return ok
}

// Text returns the member as trimmed text. Strings are unquoted, numbers and
// booleans keep their literal form. ok is false for absent, null and blank
// members.
func (b FieldBag) Text(key string) (s string, ok bool) {
	raw, present := b[key]
	if !present {
		return "", false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, jsonNull) {
		return "", false
	}
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
	} else {
		s = string(raw)
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// OptionalText returns the member as a nullable column value.
func (b FieldBag) OptionalText(key string) *string {
	s, ok := b.Text(key)
	if !ok {
		return nil
	}
	return &s
}

// BagFromValues builds a FieldBag from already decoded values.
func BagFromValues(values map[string]any) (FieldBag, error) {
	bag := make(FieldBag, len(values))
	for k, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		bag[k] = raw
	}
	return bag, nil
}

// ParsePhoneNumber parses an arbitrary-precision phone number.
func ParsePhoneNumber(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, NewValidationError(MsgInvalidPhone)
	}
	return d, nil
}

// birthDateLayouts are tried in order. The US-style layouts match what
// Google Forms exports.
var birthDateLayouts = []string{
	time.DateOnly,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"1/2/2006",
	"2006/01/02",
}

// ParseBirthDate parses a calendar date. Timestamps with an offset are
// converted to UTC before the date is taken.
func ParseBirthDate(s string) (datatypes.Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range birthDateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		y, m, d := t.UTC().Date()
		return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)), nil
	}
	return datatypes.Date{}, NewValidationError(MsgInvalidBirthDate)
}

// NormalizePassingYear keeps integral numbers and drops everything else.
func NormalizePassingYear(s string, ok bool) *int64 {
	if !ok {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() {
		return nil
	}
	return bigint(d)
}

// bigint returns d as an int64, or nil when it does not fit the column.
func bigint(d decimal.Decimal) *int64 {
	b := d.BigInt()
	if !b.IsInt64() {
		return nil
	}
	v := b.Int64()
	return &v
}

var half = decimal.NewFromFloat(0.5)

// NormalizeCgpa rounds a numeric grade to the nearest integer, halves
// rounding up.
func NormalizeCgpa(s string, ok bool) *int64 {
	if !ok {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return bigint(d.Add(half).Floor())
}
