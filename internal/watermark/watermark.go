// Package watermark classifies parts as modified relative to the last synchronization.
package watermark

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"serialsync/internal/models"
)

// ErrInvalidWatermark indicates a watermark string in no accepted layout.
var ErrInvalidWatermark = errors.New("invalid watermark")

// Layouts accepted by Parse, tried in order.
var Layouts = []string{
	"2006-01-02",
	"02.01.2006",
	time.RFC3339,
	"2006-01-02 15:04",
}

// Parse parses an operator supplied watermark. An empty string means no watermark.
func Parse(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	for _, layout := range Layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}

	return nil, fmt.Errorf("%w: %q (use YYYY-MM-DD or DD.MM.YYYY)", ErrInvalidWatermark, value)
}

// Classify reports whether a part modified at modifiedAt must be treated as changed.
// Missing data on either side counts as modified.
func Classify(modifiedAt, watermark *time.Time) bool {
	if watermark == nil || modifiedAt == nil {
		return true
	}

	return modifiedAt.After(*watermark)
}

// FromRun derives a watermark from the finish time of an earlier run. Added-on
// markers carry only a day, so the watermark moves back to the start of the
// previous day (UTC); parts added around the run stay modified.
func FromRun(finishedAt time.Time) *time.Time {
	t := finishedAt.UTC()
	w := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)

	return &w
}

// Apply sets IsModified on every part. It runs once, right after the scan.
func Apply(parts []models.PartDescriptor, watermark *time.Time) {
	for i := range parts {
		parts[i].IsModified = Classify(parts[i].ModifiedAt, watermark)
	}
}
