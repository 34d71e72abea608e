package job

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"job-tracker/internal/domain/date"
)

var (
	ErrNotFound      = errors.New("job application not found")
	ErrEventNotFound = errors.New("event not found")
	ErrStoreRead     = errors.New("store read failed")
	ErrStoreWrite    = errors.New("store write failed")
)

// ValidationError rejects input before anything is written.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

func validDate(t time.Time) bool {
	return !t.IsZero() && date.IsValid(t.Year(), int(t.Month()), t.Day())
}

func (in CreateInput) Validate() error {
	switch {
	case strings.TrimSpace(in.CompanyName) == "":
		return invalid("companyName", "Company name is required")
	case strings.TrimSpace(in.JobTitle) == "":
		return invalid("jobTitle", "Job title is required")
	case !in.Type.Valid():
		return invalid("type", fmt.Sprintf("Unknown job type %q", in.Type))
	case !in.Status.Valid():
		return invalid("status", fmt.Sprintf("Unknown status %q", in.Status))
	case !validDate(in.DateApplied):
		return invalid("dateApplied", date.MessageInvalidDate)
	}
	return nil
}

func (in EventInput) Validate() error {
	if !in.Type.Valid() {
		return invalid("type", fmt.Sprintf("Unknown event type %q", in.Type))
	}
	if !validDate(in.Date) {
		return invalid("date", date.MessageInvalidDate)
	}
	return nil
}

func (p Patch) Validate() error {
	if p.CompanyName != nil && strings.TrimSpace(*p.CompanyName) == "" {
		return invalid("companyName", "Company name is required")
	}
	if p.JobTitle != nil && strings.TrimSpace(*p.JobTitle) == "" {
		return invalid("jobTitle", "Job title is required")
	}
	if p.Type != nil && !p.Type.Valid() {
		return invalid("type", fmt.Sprintf("Unknown job type %q", *p.Type))
	}
	if p.Status != nil && !p.Status.Valid() {
		return invalid("status", fmt.Sprintf("Unknown status %q", *p.Status))
	}
	if p.DateApplied != nil && !validDate(*p.DateApplied) {
		return invalid("dateApplied", date.MessageInvalidDate)
	}
	if p.Events != nil {
		seen := make(map[string]struct{}, len(*p.Events))
		for _, e := range *p.Events {
			if _, dup := seen[e.ID]; dup || e.ID == "" {
				return invalid("events", "Event ids must be unique")
			}
			seen[e.ID] = struct{}{}
			if !e.Type.Valid() {
				return invalid("events", fmt.Sprintf("Unknown event type %q", e.Type))
			}
			if !validDate(e.Date) {
				return invalid("events", date.MessageInvalidDate)
			}
		}
	}
	return nil
}

// StoreReadError wraps a backend failure on a read path.
func StoreReadError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreRead, op, err)
}

// StoreWriteError wraps a backend failure on a write path.
func StoreWriteError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreWrite, op, err)
}
