// Package stats derives filtered views and summary figures from a list of
// applications. Everything here is a pure function of its inputs.
package stats

import (
	"fmt"
	"strings"

	"job-tracker/internal/domain/job"
)

// All is the selector value that matches every type or status.
const All = "all"

const (
	MessageNoJobs    = "No job applications yet. Click 'Add New Application' to get started!"
	MessageNoMatches = "No applications match your filters."
)

// Filters selects applications by type and status. Empty or All matches
// everything.
type Filters struct {
	Type   job.Type   `json:"type"`
	Status job.Status `json:"status"`
}

// ParseFilters reads selector strings such as query parameters.
func ParseFilters(typ, status string) (Filters, error) {
	f := Filters{Type: All, Status: All}
	if t := strings.ToLower(strings.TrimSpace(typ)); t != "" && t != All {
		if !job.Type(t).Valid() {
			return Filters{}, &job.ValidationError{Field: "type", Message: fmt.Sprintf("Unknown job type %q", typ)}
		}
		f.Type = job.Type(t)
	}
	if s := strings.ToLower(strings.TrimSpace(status)); s != "" && s != All {
		if !job.Status(s).Valid() {
			return Filters{}, &job.ValidationError{Field: "status", Message: fmt.Sprintf("Unknown status %q", status)}
		}
		f.Status = job.Status(s)
	}
	return f, nil
}

func (f Filters) matchesAllTypes() bool    { return f.Type == "" || f.Type == All }
func (f Filters) matchesAllStatuses() bool { return f.Status == "" || f.Status == All }

// Active reports whether either selector narrows the list.
func (f Filters) Active() bool {
	return !f.matchesAllTypes() || !f.matchesAllStatuses()
}

func (f Filters) Match(a job.Application) bool {
	return (f.matchesAllTypes() || a.Type == f.Type) && (f.matchesAllStatuses() || a.Status == f.Status)
}

// FilteredList keeps the applications matching f, in their input order.
func FilteredList(apps []job.Application, f Filters) []job.Application {
	out := make([]job.Application, 0, len(apps))
	for _, a := range apps {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	return out
}

type TypeCount struct {
	Type  job.Type `json:"type"`
	Label string   `json:"label"`
	Count int      `json:"count"`
}

type Summary struct {
	TotalApplications  int         `json:"totalApplications"`
	ActiveApplications int         `json:"activeApplications"`
	AcceptanceRate     string      `json:"acceptanceRate"`
	ResponseRate       string      `json:"responseRate"`
	ByType             []TypeCount `json:"byType"`
}

// Summarize computes the dashboard figures over the unfiltered list.
// ByType lists types in the order they first appear.
func Summarize(apps []job.Application) Summary {
	s := Summary{TotalApplications: len(apps), ByType: []TypeCount{}}

	var accepted, responded int
	index := map[job.Type]int{}
	for _, a := range apps {
		if !a.Status.Closed() {
			s.ActiveApplications++
		}
		if a.Status == job.StatusAccepted {
			accepted++
		}
		if a.Status != job.StatusApplied {
			responded++
		}

		i, ok := index[a.Type]
		if !ok {
			i = len(s.ByType)
			index[a.Type] = i
			s.ByType = append(s.ByType, TypeCount{Type: a.Type, Label: Label(a.Type)})
		}
		s.ByType[i].Count++
	}

	s.AcceptanceRate = Rate(accepted, len(apps))
	s.ResponseRate = Rate(responded, len(apps))
	return s
}

// Rate renders part/total as a percentage with one decimal, rounding
// halves up. A zero total renders as "0".
func Rate(part, total int) string {
	if total <= 0 {
		return "0"
	}
	tenths := (part*2000 + total) / (2 * total)
	return fmt.Sprintf("%d.%d", tenths/10, tenths%10)
}

// Label renders a type for charts: first letter upper-cased and the first
// hyphen replaced by a space ("full-time" -> "Full time").
func Label(t job.Type) string {
	s := string(t)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + strings.Replace(s[1:], "-", " ", 1)
}

// EmptyMessage explains an empty filtered list, or returns "" when there is
// something to show.
func EmptyMessage(total, shown int) string {
	switch {
	case shown > 0:
		return ""
	case total == 0:
		return MessageNoJobs
	default:
		return MessageNoMatches
	}
}

// View bundles everything a dashboard renders for one state of the list.
type View struct {
	Jobs          []job.Application `json:"jobs"`
	Stats         Summary           `json:"stats"`
	Filters       Filters           `json:"filters"`
	FiltersActive bool              `json:"filtersActive"`
	EmptyMessage  string            `json:"emptyMessage,omitempty"`
}

func BuildView(apps []job.Application, f Filters) View {
	shown := FilteredList(apps, f)
	return View{
		Jobs:          shown,
		Stats:         Summarize(apps),
		Filters:       f,
		FiltersActive: f.Active(),
		EmptyMessage:  EmptyMessage(len(apps), len(shown)),
	}
}
