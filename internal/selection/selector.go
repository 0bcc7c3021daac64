package selection

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"serialsync/internal/models"
)

// ErrInvalidSelection indicates a selection expression that cannot be parsed.
var ErrInvalidSelection = errors.New("invalid selection")

// Selection keywords.
const (
	All      = "all"
	Modified = "modified"
	None     = "none"
)

// Selector is the operator-facing selection surface. It receives the scanned
// publication and returns the chosen source refs in the order to fetch them.
type Selector interface {
	Select(ctx context.Context, pub *models.Publication) ([]string, error)
}

// StaticSelector applies a fixed expression, typically given on the command line.
type StaticSelector struct {
	Expr string
}

// Select implements Selector.
func (s StaticSelector) Select(_ context.Context, pub *models.Publication) ([]string, error) {
	return ParseExpression(s.Expr, pub.Parts)
}

// SelectorFunc adapts a function to the Selector interface.
type SelectorFunc func(ctx context.Context, pub *models.Publication) ([]string, error)

// Select implements Selector.
func (f SelectorFunc) Select(ctx context.Context, pub *models.Publication) ([]string, error) {
	return f(ctx, pub)
}

// ParseExpression resolves a selection expression against parts.
//
// Accepted forms: "all", "modified", "none" (or empty), and a comma separated
// list whose items are 1-based indexes ("3"), ranges ("4-6", "6-4" runs backwards)
// or raw source refs ("/b/123"). Items are returned in the order written.
func ParseExpression(expr string, parts []models.PartDescriptor) ([]string, error) {
	expr = strings.TrimSpace(expr)

	switch strings.ToLower(expr) {
	case "", None:
		return nil, nil
	case All:
		refs := make([]string, len(parts))
		for i, part := range parts {
			refs[i] = part.SourceRef
		}

		return refs, nil
	case Modified:
		var refs []string

		for _, part := range parts {
			if part.IsModified {
				refs = append(refs, part.SourceRef)
			}
		}

		return refs, nil
	}

	var refs []string

	for _, item := range strings.FieldsFunc(expr, func(r rune) bool { return r == ',' || r == ' ' }) {
		if strings.HasPrefix(item, "/") {
			refs = append(refs, item)

			continue
		}

		from, to, err := parseRange(item)
		if err != nil {
			return nil, err
		}

		step := 1
		if from > to {
			step = -1
		}

		for i := from; ; i += step {
			if i < 1 || i > len(parts) {
				return nil, fmt.Errorf("%w: index %d out of range 1-%d", ErrInvalidSelection, i, len(parts))
			}

			refs = append(refs, parts[i-1].SourceRef)

			if i == to {
				break
			}
		}
	}

	return refs, nil
}

func parseRange(item string) (int, int, error) {
	lo, hi, isRange := strings.Cut(item, "-")

	from, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSelection, item)
	}

	if !isRange {
		return from, from, nil
	}

	to, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSelection, item)
	}

	return from, to, nil
}
