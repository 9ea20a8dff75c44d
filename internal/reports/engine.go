// Package reports assembles the analytics reports. Each assembler resolves its
// subject, fans out the independent record fetches, then derives the output
// through internal/metrics. Assemblers never write; the record store is the
// single collaborator and its read errors propagate untouched.
package reports

import (
	"context"
	"time"

	"opsdesk/internal/domain"
	"opsdesk/internal/repo"
)

// Store is the record access the assemblers need. internal/repo.Repo satisfies
// it.
type Store interface {
	GetUser(ctx context.Context, id string) (domain.User, error)
	SingleStaff(ctx context.Context) (domain.User, error)
	ListUsers(ctx context.Context, f repo.UserFilters) ([]domain.User, error)

	GetLead(ctx context.Context, id string) (domain.Lead, error)
	ListLeads(ctx context.Context, f repo.LeadFilters) ([]domain.Lead, error)

	GetClient(ctx context.Context, id string) (domain.Client, error)
	ListClients(ctx context.Context, f repo.ClientFilters) ([]domain.Client, error)

	GetProject(ctx context.Context, id string) (domain.Project, error)
	ListProjects(ctx context.Context, f repo.ProjectFilters) ([]domain.Project, error)
	LatestProjectForClient(ctx context.Context, clientID string) (domain.Project, error)
	LatestProject(ctx context.Context) (domain.Project, error)

	ListMilestones(ctx context.Context, f repo.MilestoneFilters) ([]domain.Milestone, error)
	ListTasks(ctx context.Context, f repo.TaskFilters) ([]domain.Task, error)
	ListAttachments(ctx context.Context, f repo.AttachmentFilters) ([]domain.Attachment, error)
	ListFollowups(ctx context.Context, f repo.FollowupFilters) ([]domain.Followup, error)
}

type Engine struct {
	Store Store
	Now   func() time.Time
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}

// Filter bounds a report to a creation-date window. Bounds arrive as dates;
// the upper bound is inclusive through the end of its day.
type Filter struct {
	From *time.Time
	To   *time.Time
}

func (f Filter) window(now time.Time) repo.Range {
	var r repo.Range
	switch {
	case f.From != nil && f.To != nil:
		r.From = f.From
		r.To = endOfDay(*f.To)
	case f.From != nil:
		r.From = f.From
		n := now
		r.To = &n
	case f.To != nil:
		epoch := time.Unix(0, 0).UTC()
		r.From = &epoch
		r.To = endOfDay(*f.To)
	}
	return r
}

func endOfDay(t time.Time) *time.Time {
	t = t.UTC()
	e := time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
	return &e
}

// userName resolves a display name, falling back to the raw id when the user
// row is gone. A report never fails over a dangling assignee reference.
func (e Engine) userName(ctx context.Context, id string) string {
	u, err := e.Store.GetUser(ctx, id)
	if err != nil {
		return id
	}
	return u.Name
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func assignee(t domain.Task) (string, bool) {
	if t.AssignedTo == nil || *t.AssignedTo == "" {
		return "", false
	}
	return *t.AssignedTo, true
}
