package watermark

import (
	"errors"
	"testing"
	"time"

	"serialsync/internal/models"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	return &t
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		modifiedAt *time.Time
		watermark  *time.Time
		want       bool
	}{
		{"no watermark", date(2020, 1, 1), nil, true},
		{"no date", nil, date(2020, 1, 1), true},
		{"neither", nil, nil, true},
		{"newer", date(2023, 5, 2), date(2023, 5, 1), true},
		{"older", date(2023, 4, 30), date(2023, 5, 1), false},
		{"same instant", date(2023, 5, 1), date(2023, 5, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.modifiedAt, tt.watermark); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify_FailOpenLaw(t *testing.T) {
	for _, w := range []*time.Time{nil, date(1970, 1, 1), date(2100, 1, 1)} {
		if !Classify(nil, w) {
			t.Errorf("Part without date must be modified for watermark %v", w)
		}
	}
}

func TestApply(t *testing.T) {
	parts := []models.PartDescriptor{
		{SourceRef: "/b/1", ModifiedAt: date(2024, 1, 10)},
		{SourceRef: "/b/2", ModifiedAt: date(2023, 1, 10)},
		{SourceRef: "/b/3"},
	}

	Apply(parts, date(2023, 12, 31))

	got := []bool{parts[0].IsModified, parts[1].IsModified, parts[2].IsModified}
	want := []bool{true, false, true}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("part %d IsModified = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  *time.Time
	}{
		{"", nil},
		{"  ", nil},
		{"2024-02-29", date(2024, 2, 29)},
		{"29.02.2024", date(2024, 2, 29)},
		{"2024-02-29T00:00:00Z", date(2024, 2, 29)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.input, err)
			}

			if (got == nil) != (tt.want == nil) || (got != nil && !got.Equal(*tt.want)) {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse("yesterday"); !errors.Is(err, ErrInvalidWatermark) {
		t.Errorf("Expected ErrInvalidWatermark, got %v", err)
	}
}

func TestFromRun(t *testing.T) {
	finished := time.Date(2024, 5, 20, 15, 30, 0, 0, time.UTC)

	w := FromRun(finished)
	if !w.Equal(*date(2024, 5, 19)) {
		t.Fatalf("FromRun() = %v, want 2024-05-19", w)
	}

	// A part added later on the day of the run is still modified.
	if !Classify(date(2024, 5, 20), w) {
		t.Error("Expected same-day part to be modified")
	}

	if Classify(date(2024, 5, 18), w) {
		t.Error("Expected part from two days earlier to be unchanged")
	}
}

func TestFromRun_NonUTC(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)

	// 01:00 MSK on the 21st is still the 20th in UTC.
	w := FromRun(time.Date(2024, 5, 21, 1, 0, 0, 0, msk))
	if !w.Equal(*date(2024, 5, 19)) {
		t.Errorf("FromRun() = %v, want 2024-05-19", w)
	}
}
