package assessment

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError describes a rejected submission or proximity query. The
// message names the offending field and values so the caller can surface
// actionable detail.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("assess: invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// validateSubmission enforces the submission preconditions: answers
// non-empty, every value within the Likert range, no duplicate question
// ids, and a sane origin/radius when a proximity query is attached. When
// strict is false only the non-empty check applies; the preview endpoint
// computes over whatever it is given.
func validateSubmission(sub Submission, strict bool) error {
	if len(sub.Answers) == 0 {
		return &ValidationError{Field: "answers", Reason: "must not be empty"}
	}
	if !strict {
		return nil
	}

	var outOfRange []string
	seen := make(map[int64]int, len(sub.Answers))
	dupSet := make(map[int64]struct{})
	for _, a := range sub.Answers {
		if a.Value < minAnswerValue || a.Value > maxAnswerValue {
			outOfRange = append(outOfRange, fmt.Sprintf("question %d: value %d", a.QuestionID, a.Value))
		}
		seen[a.QuestionID]++
		if seen[a.QuestionID] > 1 {
			dupSet[a.QuestionID] = struct{}{}
		}
	}
	if len(outOfRange) > 0 {
		return &ValidationError{
			Field:  "answers",
			Reason: fmt.Sprintf("values must be between %d and %d (%s)", minAnswerValue, maxAnswerValue, strings.Join(outOfRange, "; ")),
		}
	}
	if len(dupSet) > 0 {
		ids := make([]int64, 0, len(dupSet))
		for id := range dupSet {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		dups := make([]string, len(ids))
		for i, id := range ids {
			dups[i] = fmt.Sprintf("%d", id)
		}
		return &ValidationError{
			Field:  "answers",
			Reason: "duplicate question ids: " + strings.Join(dups, ", "),
		}
	}

	if sub.Origin != nil {
		if !sub.Origin.Valid() {
			return &ValidationError{
				Field:  "origin",
				Reason: fmt.Sprintf("coordinates out of range: lat %v, lng %v", sub.Origin.Lat, sub.Origin.Lng),
			}
		}
		if sub.RadiusKM <= 0 {
			return &ValidationError{
				Field:  "radius_km",
				Reason: fmt.Sprintf("must be > 0, got %v", sub.RadiusKM),
			}
		}
	}

	return nil
}
