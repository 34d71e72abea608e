package job

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"job-tracker/internal/docstore"
	"job-tracker/internal/domain/date"
)

// Collection is the docstore collection holding applications.
const Collection = "jobApplications"

// Document field names.
const (
	FieldUserID          = "userId"
	FieldCompanyName     = "companyName"
	FieldJobTitle        = "jobTitle"
	FieldApplicationLink = "applicationLink"
	FieldType            = "type"
	FieldStatus          = "status"
	FieldDateApplied     = "dateApplied"
	FieldEvents          = "events"
	FieldCreatedAt       = "createdAt"
	FieldUpdatedAt       = "updatedAt"

	eventFieldID        = "id"
	eventFieldType      = "type"
	eventFieldDate      = "date"
	eventFieldNotes     = "notes"
	eventFieldCompleted = "completed"
)

// EncodeCreate builds the document for a new application. The store fills
// createdAt and updatedAt.
func EncodeCreate(userID string, in CreateInput) map[string]any {
	return map[string]any{
		FieldUserID:          userID,
		FieldCompanyName:     in.CompanyName,
		FieldJobTitle:        in.JobTitle,
		FieldApplicationLink: in.ApplicationLink,
		FieldType:            string(in.Type),
		FieldStatus:          string(in.Status),
		FieldDateApplied:     encodeDate(in.DateApplied),
		FieldEvents:          []any{},
		FieldCreatedAt:       docstore.ServerTimestamp,
		FieldUpdatedAt:       docstore.ServerTimestamp,
	}
}

// EncodePatch lists the fields p sets, plus a fresh updatedAt. It never
// writes userId.
func EncodePatch(p Patch) map[string]any {
	out := map[string]any{FieldUpdatedAt: docstore.ServerTimestamp}
	if p.CompanyName != nil {
		out[FieldCompanyName] = *p.CompanyName
	}
	if p.JobTitle != nil {
		out[FieldJobTitle] = *p.JobTitle
	}
	if p.ApplicationLink != nil {
		out[FieldApplicationLink] = *p.ApplicationLink
	}
	if p.Type != nil {
		out[FieldType] = string(*p.Type)
	}
	if p.Status != nil {
		out[FieldStatus] = string(*p.Status)
	}
	if p.DateApplied != nil {
		out[FieldDateApplied] = encodeDate(*p.DateApplied)
	}
	if p.Events != nil {
		list := make([]any, 0, len(*p.Events))
		for _, e := range *p.Events {
			list = append(list, EncodeEvent(e))
		}
		out[FieldEvents] = list
	}
	return out
}

func EncodeEvent(e Event) map[string]any {
	m := map[string]any{
		eventFieldID:        e.ID,
		eventFieldType:      string(e.Type),
		eventFieldDate:      encodeDate(e.Date),
		eventFieldCompleted: e.Completed,
	}
	if e.Notes != "" {
		m[eventFieldNotes] = e.Notes
	}
	return m
}

// EventKeyID is the event field that identifies one element of the events
// list in array transforms.
const EventKeyID = eventFieldID

func CompletedPatch(completed bool) map[string]any {
	return map[string]any{eventFieldCompleted: completed}
}

func encodeDate(t time.Time) docstore.Timestamp {
	return docstore.TimestampOf(date.Of(t))
}

// Decode turns a stored document into an Application. Timestamp-like
// fields go through DecodeTime; dateApplied and event dates are then
// truncated to calendar dates.
func Decode(doc docstore.Document) (Application, error) {
	d := doc.Data
	app := Application{
		ID:              doc.ID,
		UserID:          str(d[FieldUserID]),
		CompanyName:     str(d[FieldCompanyName]),
		JobTitle:        str(d[FieldJobTitle]),
		ApplicationLink: str(d[FieldApplicationLink]),
		Type:            Type(str(d[FieldType])),
		Status:          Status(str(d[FieldStatus])),
		Events:          []Event{},
	}

	applied, ok := DecodeTime(d[FieldDateApplied])
	if !ok {
		return Application{}, fmt.Errorf("document %s: %s is not a timestamp", doc.ID, FieldDateApplied)
	}
	app.DateApplied = date.Of(applied)

	if t, ok := DecodeTime(d[FieldCreatedAt]); ok {
		app.CreatedAt = t
	}
	if t, ok := DecodeTime(d[FieldUpdatedAt]); ok {
		app.UpdatedAt = t
	}

	raw, _ := d[FieldEvents].([]any)
	for i, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			return Application{}, fmt.Errorf("document %s: event %d is not an object", doc.ID, i)
		}
		ev := Event{
			ID:        str(m[eventFieldID]),
			Type:      EventType(str(m[eventFieldType])),
			Notes:     str(m[eventFieldNotes]),
			Completed: m[eventFieldCompleted] == true,
		}
		t, ok := DecodeTime(m[eventFieldDate])
		if !ok {
			return Application{}, fmt.Errorf("document %s: event %s date is not a timestamp", doc.ID, ev.ID)
		}
		ev.Date = date.Of(t)
		app.Events = append(app.Events, ev)
	}
	return app, nil
}

// DecodeError names a document that could not be decoded.
type DecodeError struct {
	ID  string
	Err error
}

func (e DecodeError) Error() string { return e.Err.Error() }
func (e DecodeError) Unwrap() error { return e.Err }

// DecodeAll decodes docs in order and skips the ones that fail.
func DecodeAll(docs []docstore.Document) ([]Application, []DecodeError) {
	apps := make([]Application, 0, len(docs))
	var failed []DecodeError
	for _, d := range docs {
		app, err := Decode(d)
		if err != nil {
			failed = append(failed, DecodeError{ID: d.ID, Err: err})
			continue
		}
		apps = append(apps, app)
	}
	return apps, failed
}

// DecodeTime accepts every representation a timestamp field has been
// stored in: the store's native Timestamp, time.Time, an RFC 3339 or
// YYYY-MM-DD string, epoch milliseconds, and a {seconds, nanoseconds}
// object.
func DecodeTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case docstore.Timestamp:
		return t.Time, !t.Time.IsZero()
	case time.Time:
		return t.UTC(), !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return t.UTC(), !t.IsZero()
	case string:
		return parseTimeString(t)
	case float64:
		return fromMillis(t)
	case int64:
		return time.UnixMilli(t).UTC(), true
	case int:
		return time.UnixMilli(int64(t)).UTC(), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromMillis(f)
	case map[string]any:
		sec, okS := number(t["seconds"])
		if !okS {
			sec, okS = number(t["_seconds"])
		}
		if !okS {
			return time.Time{}, false
		}
		nanos, okN := number(t["nanoseconds"])
		if !okN {
			nanos, _ = number(t["_nanoseconds"])
		}
		return time.Unix(int64(sec), int64(nanos)).UTC(), true
	default:
		return time.Time{}, false
	}
}

func parseTimeString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), true
	}
	return time.Time{}, false
}

func fromMillis(f float64) (time.Time, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(f)).UTC(), true
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
