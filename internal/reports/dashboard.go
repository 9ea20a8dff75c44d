package reports

import (
	"context"

	"golang.org/x/sync/errgroup"

	"opsdesk/internal/domain"
	"opsdesk/internal/metrics"
	"opsdesk/internal/repo"
)

// Dashboard builds the unscoped operations overview for the window.
func (e Engine) Dashboard(ctx context.Context, f Filter) (Dashboard, error) {
	win := f.window(e.now())

	var (
		projects   []domain.Project
		tasks      []domain.Task
		milestones []domain.Milestone
		clients    []domain.Client
		allClients []domain.Client
		leads      []domain.Lead
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		projects, err = e.Store.ListProjects(gctx, repo.ProjectFilters{Created: win})
		return err
	})
	g.Go(func() error {
		var err error
		tasks, err = e.Store.ListTasks(gctx, repo.TaskFilters{Created: win})
		return err
	})
	g.Go(func() error {
		var err error
		milestones, err = e.Store.ListMilestones(gctx, repo.MilestoneFilters{Created: win})
		return err
	})
	g.Go(func() error {
		var err error
		clients, err = e.Store.ListClients(gctx, repo.ClientFilters{Created: win})
		return err
	})
	g.Go(func() error {
		// Conversion is not windowed: a lead created in the window counts
		// as converted even when the client appeared later.
		var err error
		allClients, err = e.Store.ListClients(gctx, repo.ClientFilters{})
		return err
	})
	g.Go(func() error {
		var err error
		leads, err = e.Store.ListLeads(gctx, repo.LeadFilters{Created: win})
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	completedTasks := metrics.CountWhere(tasks, metrics.TaskCompleted)
	completedMilestones := metrics.CountWhere(milestones, metrics.MilestoneCompleted)

	convertedIDs := make(map[string]bool)
	for _, c := range allClients {
		if c.LeadID != nil {
			convertedIDs[*c.LeadID] = true
		}
	}
	converted := 0
	for _, l := range leads {
		if convertedIDs[l.ID] {
			converted++
		}
	}

	d := Dashboard{
		TotalProjects: len(projects),

		TotalTasks:         len(tasks),
		CompletedTasks:     completedTasks,
		TaskCompletionRate: metrics.CompletionRate(completedTasks, len(tasks)),

		TotalMilestones:         len(milestones),
		CompletedMilestones:     completedMilestones,
		MilestoneCompletionRate: metrics.CompletionRate(completedMilestones, len(milestones)),

		TotalClients:   len(clients),
		TotalLeads:     len(leads),
		ConvertedLeads: converted,
		ConversionRate: metrics.CompletionRate(converted, len(leads)),
	}
	if top, ok := topPerformer(tasks); ok {
		d.TopPerformer = e.userName(ctx, top)
	}
	return d, nil
}
