package seeder

import (
	"context"
	"time"

	"job-tracker/internal/auth"
	"job-tracker/internal/domain/job"
)

// DemoJobs fills an empty account with a handful of applications. It does
// nothing once the user has any application.
type DemoJobs struct {
	// Now anchors the demo dates. Zero means time.Now.
	Now time.Time
}

func (DemoJobs) Name() string { return "demo_jobs" }

type demoEvent struct {
	Type      job.EventType
	DaysAfter int
	Notes     string
	Completed bool
}

type demoJob struct {
	Company  string
	Title    string
	Link     string
	Type     job.Type
	Status   job.Status
	DaysAgo  int
	Timeline []demoEvent
}

var demoJobs = []demoJob{
	{
		Company: "Northwind Labs",
		Title:   "Backend Engineer (Go)",
		Link:    "https://careers.northwind.example/backend-go",
		Type:    job.TypeFullTime,
		Status:  job.StatusInProgress,
		DaysAgo: 21,
		Timeline: []demoEvent{
			{Type: job.EventAssessment, DaysAfter: 4, Notes: "Take-home: rate limiter", Completed: true},
			{Type: job.EventInterview, DaysAfter: 12, Notes: "System design with the platform team"},
		},
	},
	{
		Company: "Globex",
		Title:   "Platform Engineering Intern",
		Link:    "https://globex.example/jobs/intern-platform",
		Type:    job.TypeInternship,
		Status:  job.StatusApplied,
		DaysAgo: 9,
		Timeline: []demoEvent{
			{Type: job.EventFollowUp, DaysAfter: 7, Notes: "Email the recruiter"},
		},
	},
	{
		Company: "Initech",
		Title:   "Site Reliability Engineer",
		Link:    "https://initech.example/careers/sre",
		Type:    job.TypeFullTime,
		Status:  job.StatusOffered,
		DaysAgo: 45,
		Timeline: []demoEvent{
			{Type: job.EventInterview, DaysAfter: 10, Completed: true},
			{Type: job.EventInterview, DaysAfter: 20, Notes: "Onsite loop", Completed: true},
			{Type: job.EventOther, DaysAfter: 30, Notes: "Offer call"},
		},
	},
	{
		Company: "Umbrella Digital",
		Title:   "Freelance API Developer",
		Link:    "https://umbrella.example/contract/api",
		Type:    job.TypeFreelance,
		Status:  job.StatusRejected,
		DaysAgo: 60,
	},
}

func (s DemoJobs) Run(ctx context.Context, store Store, sess auth.Session) error {
	existing, err := store.ListJobs(ctx, sess)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	now := s.Now
	if now.IsZero() {
		now = time.Now()
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	for _, d := range demoJobs {
		applied := today.AddDate(0, 0, -d.DaysAgo)
		id, err := store.CreateJob(ctx, sess, job.CreateInput{
			CompanyName:     d.Company,
			JobTitle:        d.Title,
			ApplicationLink: d.Link,
			Type:            d.Type,
			Status:          d.Status,
			DateApplied:     applied,
		})
		if err != nil {
			return err
		}
		for _, e := range d.Timeline {
			if _, err := store.AddEvent(ctx, id, job.EventInput{
				Type:      e.Type,
				Date:      applied.AddDate(0, 0, e.DaysAfter),
				Notes:     e.Notes,
				Completed: e.Completed,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}
