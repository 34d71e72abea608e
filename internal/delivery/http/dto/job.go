package dto

import (
	"strings"
	"time"

	"job-tracker/internal/domain/date"
	"job-tracker/internal/domain/job"
	"job-tracker/internal/domain/stats"
)

// DateInput accepts either an ISO date or the three split form fields.
type DateInput struct {
	Date   string       `json:"date,omitempty"`
	Fields *date.Fields `json:"fields,omitempty"`
}

func (d DateInput) IsZero() bool {
	return strings.TrimSpace(d.Date) == "" && d.Fields == nil
}

// Parse returns the calendar date, or a ValidationError on field.
func (d DateInput) Parse(field string) (time.Time, error) {
	if d.Fields != nil {
		t, err := d.Fields.Date()
		if err != nil {
			return time.Time{}, &job.ValidationError{Field: field, Message: date.MessageInvalidDate}
		}
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(d.Date))
	if err != nil || !date.IsValid(t.Year(), int(t.Month()), t.Day()) {
		return time.Time{}, &job.ValidationError{Field: field, Message: date.MessageInvalidDate}
	}
	return t, nil
}

type CreateJobRequest struct {
	CompanyName     string    `json:"company_name"`
	JobTitle        string    `json:"job_title"`
	ApplicationLink string    `json:"application_link"`
	Type            string    `json:"type"`
	Status          string    `json:"status"`
	DateApplied     DateInput `json:"date_applied"`
}

func (r CreateJobRequest) ToInput() (job.CreateInput, error) {
	applied, err := r.DateApplied.Parse("dateApplied")
	if err != nil {
		return job.CreateInput{}, err
	}
	return job.CreateInput{
		CompanyName:     strings.TrimSpace(r.CompanyName),
		JobTitle:        strings.TrimSpace(r.JobTitle),
		ApplicationLink: strings.TrimSpace(r.ApplicationLink),
		Type:            job.Type(r.Type),
		Status:          job.Status(r.Status),
		DateApplied:     applied,
	}, nil
}

type EventRequest struct {
	ID        string    `json:"id,omitempty"`
	Type      string    `json:"type"`
	Date      DateInput `json:"date"`
	Notes     string    `json:"notes,omitempty"`
	Completed bool      `json:"completed"`
}

func (r EventRequest) ToInput() (job.EventInput, error) {
	d, err := r.Date.Parse("date")
	if err != nil {
		return job.EventInput{}, err
	}
	return job.EventInput{Type: job.EventType(r.Type), Date: d, Notes: r.Notes, Completed: r.Completed}, nil
}

// UpdateJobRequest leaves absent fields untouched. Events, when present,
// replaces the whole list.
type UpdateJobRequest struct {
	CompanyName     *string         `json:"company_name"`
	JobTitle        *string         `json:"job_title"`
	ApplicationLink *string         `json:"application_link"`
	Type            *string         `json:"type"`
	Status          *string         `json:"status"`
	DateApplied     *DateInput      `json:"date_applied"`
	Events          *[]EventRequest `json:"events"`
}

func (r UpdateJobRequest) ToPatch() (job.Patch, error) {
	p := job.Patch{
		CompanyName:     trimmed(r.CompanyName),
		JobTitle:        trimmed(r.JobTitle),
		ApplicationLink: trimmed(r.ApplicationLink),
	}
	if r.Type != nil {
		t := job.Type(*r.Type)
		p.Type = &t
	}
	if r.Status != nil {
		s := job.Status(*r.Status)
		p.Status = &s
	}
	if r.DateApplied != nil {
		d, err := r.DateApplied.Parse("dateApplied")
		if err != nil {
			return job.Patch{}, err
		}
		p.DateApplied = &d
	}
	if r.Events != nil {
		events := make([]job.Event, 0, len(*r.Events))
		for _, e := range *r.Events {
			in, err := e.ToInput()
			if err != nil {
				return job.Patch{}, &job.ValidationError{Field: "events", Message: date.MessageInvalidDate}
			}
			events = append(events, job.Event{ID: e.ID, Type: in.Type, Date: in.Date, Notes: in.Notes, Completed: in.Completed})
		}
		p.Events = &events
	}
	return p, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

type DateFieldRequest struct {
	Field   string      `json:"field"`
	Value   string      `json:"value"`
	Current date.Fields `json:"current"`
}

type DateFieldResponse struct {
	Fields date.Fields `json:"fields"`
	Valid  bool        `json:"valid"`
}

type IDResponse struct {
	ID string `json:"id"`
}

type ToggleResponse struct {
	Completed bool `json:"completed"`
}

type EventResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Date      string `json:"date"`
	Notes     string `json:"notes,omitempty"`
	Completed bool   `json:"completed"`
}

type JobResponse struct {
	ID              string          `json:"id"`
	CompanyName     string          `json:"company_name"`
	JobTitle        string          `json:"job_title"`
	ApplicationLink string          `json:"application_link"`
	Type            string          `json:"type"`
	Status          string          `json:"status"`
	DateApplied     string          `json:"date_applied"`
	DateFields      date.Fields     `json:"date_fields"`
	Events          []EventResponse `json:"events"`
	CreatedAt       string          `json:"created_at,omitempty"`
	UpdatedAt       string          `json:"updated_at,omitempty"`
}

// NewJobResponse renders app with its events newest first.
func NewJobResponse(app job.Application) JobResponse {
	timeline := app.Timeline()
	events := make([]EventResponse, 0, len(timeline))
	for _, e := range timeline {
		events = append(events, EventResponse{
			ID:        e.ID,
			Type:      string(e.Type),
			Date:      e.Date.Format(time.DateOnly),
			Notes:     e.Notes,
			Completed: e.Completed,
		})
	}
	return JobResponse{
		ID:              app.ID,
		CompanyName:     app.CompanyName,
		JobTitle:        app.JobTitle,
		ApplicationLink: app.ApplicationLink,
		Type:            string(app.Type),
		Status:          string(app.Status),
		DateApplied:     app.DateApplied.Format(time.DateOnly),
		DateFields:      date.InitialFields(app.DateApplied),
		Events:          events,
		CreatedAt:       formatInstant(app.CreatedAt),
		UpdatedAt:       formatInstant(app.UpdatedAt),
	}
}

func NewJobList(apps []job.Application) []JobResponse {
	out := make([]JobResponse, 0, len(apps))
	for _, a := range apps {
		out = append(out, NewJobResponse(a))
	}
	return out
}

func formatInstant(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

type TypeCountResponse struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type StatsResponse struct {
	TotalApplications  int                 `json:"total_applications"`
	ActiveApplications int                 `json:"active_applications"`
	AcceptanceRate     string              `json:"acceptance_rate"`
	ResponseRate       string              `json:"response_rate"`
	ByType             []TypeCountResponse `json:"by_type"`
}

func NewStatsResponse(s stats.Summary) StatsResponse {
	byType := make([]TypeCountResponse, 0, len(s.ByType))
	for _, tc := range s.ByType {
		byType = append(byType, TypeCountResponse{Type: string(tc.Type), Label: tc.Label, Count: tc.Count})
	}
	return StatsResponse{
		TotalApplications:  s.TotalApplications,
		ActiveApplications: s.ActiveApplications,
		AcceptanceRate:     s.AcceptanceRate,
		ResponseRate:       s.ResponseRate,
		ByType:             byType,
	}
}

type FiltersResponse struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

type DashboardResponse struct {
	Jobs          []JobResponse   `json:"jobs"`
	Stats         StatsResponse   `json:"stats"`
	Filters       FiltersResponse `json:"filters"`
	FiltersActive bool            `json:"filters_active"`
	EmptyMessage  string          `json:"empty_message,omitempty"`
}

func NewDashboardResponse(v stats.View) DashboardResponse {
	return DashboardResponse{
		Jobs:          NewJobList(v.Jobs),
		Stats:         NewStatsResponse(v.Stats),
		Filters:       FiltersResponse{Type: string(v.Filters.Type), Status: string(v.Filters.Status)},
		FiltersActive: v.FiltersActive,
		EmptyMessage:  v.EmptyMessage,
	}
}

type SessionRequest struct {
	UserID string `json:"user_id"`
}

type SessionResponse struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

const SnapshotMessageType = "jobs.snapshot"

// SnapshotMessage is pushed over the websocket after every live change.
type SnapshotMessage struct {
	Type string        `json:"type"`
	Jobs []JobResponse `json:"jobs"`
}

func NewSnapshotMessage(apps []job.Application) SnapshotMessage {
	return SnapshotMessage{Type: SnapshotMessageType, Jobs: NewJobList(apps)}
}
