package job

import (
	"slices"
	"time"
)

type Type string

const (
	TypeFullTime   Type = "full-time"
	TypePartTime   Type = "part-time"
	TypeInternship Type = "internship"
	TypeFreelance  Type = "freelance"
)

// Types lists every Type in display order.
var Types = []Type{TypeFullTime, TypePartTime, TypeInternship, TypeFreelance}

func (t Type) Valid() bool { return slices.Contains(Types, t) }

type Status string

const (
	StatusApplied    Status = "applied"
	StatusInProgress Status = "in-progress"
	StatusOffered    Status = "offered"
	StatusRejected   Status = "rejected"
	StatusAccepted   Status = "accepted"
)

var Statuses = []Status{StatusApplied, StatusInProgress, StatusOffered, StatusRejected, StatusAccepted}

func (s Status) Valid() bool { return slices.Contains(Statuses, s) }

// Closed reports whether the application reached a final outcome.
func (s Status) Closed() bool {
	return s == StatusRejected || s == StatusAccepted
}

type EventType string

const (
	EventInterview  EventType = "interview"
	EventAssessment EventType = "assessment"
	EventFollowUp   EventType = "follow-up"
	EventOther      EventType = "other"
)

func (t EventType) Valid() bool {
	switch t {
	case EventInterview, EventAssessment, EventFollowUp, EventOther:
		return true
	}
	return false
}

// Application is a job application owned by one user. ID and UserID are
// fixed at creation.
type Application struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	CompanyName     string    `json:"companyName"`
	JobTitle        string    `json:"jobTitle"`
	ApplicationLink string    `json:"applicationLink"`
	Type            Type      `json:"type"`
	Status          Status    `json:"status"`
	DateApplied     time.Time `json:"dateApplied"`
	Events          []Event   `json:"events"`
	CreatedAt       time.Time `json:"createdAt,omitzero"`
	UpdatedAt       time.Time `json:"updatedAt,omitzero"`
}

// Event is a timeline entry that lives inside its Application.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Date      time.Time `json:"date"`
	Notes     string    `json:"notes,omitempty"`
	Completed bool      `json:"completed"`
}

// FindEvent returns the event with id, if present.
func (a Application) FindEvent(id string) (Event, bool) {
	for _, e := range a.Events {
		if e.ID == id {
			return e, true
		}
	}
	return Event{}, false
}

type CreateInput struct {
	CompanyName     string
	JobTitle        string
	ApplicationLink string
	Type            Type
	Status          Status
	DateApplied     time.Time
}

// EventInput is an event before the store assigns its id.
type EventInput struct {
	Type      EventType
	Date      time.Time
	Notes     string
	Completed bool
}

// Patch lists the fields to merge into an application. Nil fields are left
// untouched. Events replaces the whole list.
type Patch struct {
	CompanyName     *string
	JobTitle        *string
	ApplicationLink *string
	Type            *Type
	Status          *Status
	DateApplied     *time.Time
	Events          *[]Event
}

func (p Patch) IsEmpty() bool {
	return p.CompanyName == nil && p.JobTitle == nil && p.ApplicationLink == nil &&
		p.Type == nil && p.Status == nil && p.DateApplied == nil && p.Events == nil
}
