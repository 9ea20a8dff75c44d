package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"opsdesk/internal/domain"
	"opsdesk/internal/metrics"
	"opsdesk/internal/repo"
)

// ProjectPerformance builds the multi-section health report for one project.
// Resolution order: explicit projectID, then the client's most recently created
// project, then the most recently created project overall.
func (e Engine) ProjectPerformance(ctx context.Context, projectID, clientID string) (ProjectPerformance, error) {
	p, err := e.resolveProject(ctx, projectID, clientID)
	if err != nil {
		return ProjectPerformance{}, err
	}

	var (
		tasks       []domain.Task
		milestones  []domain.Milestone
		attachments []domain.Attachment
		users       []domain.User
		clientName  string
		followups   []domain.Followup
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = e.Store.ListTasks(gctx, repo.TaskFilters{ProjectID: p.ID})
		return err
	})
	g.Go(func() error {
		var err error
		milestones, err = e.Store.ListMilestones(gctx, repo.MilestoneFilters{ProjectID: p.ID})
		return err
	})
	g.Go(func() error {
		var err error
		attachments, err = e.Store.ListAttachments(gctx, repo.AttachmentFilters{ProjectID: p.ID})
		return err
	})
	g.Go(func() error {
		var err error
		users, err = e.Store.ListUsers(gctx, repo.UserFilters{})
		return err
	})
	g.Go(func() error {
		// The followup matrix is scoped to the lead the client came from.
		// A project without a client, a client without a lead, or a
		// dangling reference all collapse to an empty matrix.
		if p.ClientID == nil {
			return nil
		}
		c, err := e.Store.GetClient(gctx, *p.ClientID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		clientName = c.Name
		if c.LeadID == nil {
			return nil
		}
		followups, err = e.Store.ListFollowups(gctx, repo.FollowupFilters{LeadID: *c.LeadID})
		return err
	})
	if err := g.Wait(); err != nil {
		return ProjectPerformance{}, err
	}

	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	rep := ProjectPerformance{
		Project: ProjectInfo{
			ID:         p.ID,
			Name:       p.Name,
			ClientName: clientName,
			Status:     p.Status,
			StartDate:  p.StartDate,
			EndDate:    p.EndDate,
		},
		Cost:       costBudget(p),
		Tasks:      e.taskMetrics(ctx, tasks),
		Resources:  resourceUtilization(tasks, names),
		Milestones: milestoneSummary(milestones),
		Documents:  documentSummary(attachments),
		FollowUps:  followupMatrix(followups),
	}
	rep.Timeline = timelineAnalysis(p, rep.Milestones, e.now())
	return rep, nil
}

func (e Engine) resolveProject(ctx context.Context, projectID, clientID string) (domain.Project, error) {
	switch {
	case projectID != "":
		p, err := e.Store.GetProject(ctx, projectID)
		if err != nil {
			return p, fmt.Errorf("project %s: %w", projectID, err)
		}
		return p, nil
	case clientID != "":
		p, err := e.Store.LatestProjectForClient(ctx, clientID)
		if err != nil {
			return p, fmt.Errorf("projects for client %s: %w", clientID, err)
		}
		return p, nil
	default:
		p, err := e.Store.LatestProject(ctx)
		if err != nil {
			return p, fmt.Errorf("latest project: %w", err)
		}
		return p, nil
	}
}

func costBudget(p domain.Project) CostBudget {
	budget := deref(p.Budget)
	actual := deref(p.ActualCost)
	cb := CostBudget{
		Budget:        budget,
		EstimatedCost: deref(p.EstimatedCost),
		ActualCost:    actual,
	}
	if budget > 0 {
		cb.Utilization = metrics.Round2(actual / budget * 100)
	}
	if over := actual - budget; over > 0 {
		cb.Overrun = over
	}
	return cb
}

func (e Engine) taskMetrics(ctx context.Context, tasks []domain.Task) TaskMetrics {
	var done []domain.Task
	for _, t := range tasks {
		if metrics.TaskCompleted(t) {
			done = append(done, t)
		}
	}
	tm := TaskMetrics{
		Total:          len(tasks),
		Completed:      len(done),
		InProgress:     metrics.CountWhere(tasks, metrics.TaskInProgress),
		Delayed:        metrics.CountWhere(tasks, metrics.TaskDelayed),
		CompletionRate: metrics.CompletionRate(len(done), len(tasks)),
		AvgCompletionDays: metrics.AverageDuration(done,
			func(t domain.Task) *time.Time { c := t.CreatedAt; return &c },
			func(t domain.Task) *time.Time { up := t.UpdatedAt; return &up },
			metrics.Days),
	}
	if top, ok := topPerformer(tasks); ok {
		tm.TopPerformer = e.userName(ctx, top)
	}
	return tm
}

// topPerformer is the assignee with the most completed tasks; ties go to the
// assignee encountered first in the input.
func topPerformer(tasks []domain.Task) (string, bool) {
	var done []domain.Task
	for _, t := range tasks {
		if metrics.TaskCompleted(t) {
			done = append(done, t)
		}
	}
	top, ok := metrics.TopGroup(metrics.GroupCount(done, assignee))
	if !ok {
		return "", false
	}
	return top.Key, true
}

func resourceUtilization(tasks []domain.Task, names map[string]string) []ResourceUtilization {
	assigned := metrics.GroupCount(tasks, assignee)
	completedBy := make(map[string]int)
	for _, t := range tasks {
		if id, ok := assignee(t); ok && metrics.TaskCompleted(t) {
			completedBy[id]++
		}
	}
	var res []ResourceUtilization
	for _, g := range assigned {
		name, ok := names[g.Key]
		if !ok {
			name = g.Key
		}
		res = append(res, ResourceUtilization{
			UserID:    g.Key,
			Name:      name,
			Assigned:  g.Count,
			Completed: completedBy[g.Key],
			Load:      metrics.CompletionRate(g.Count, len(tasks)),
		})
	}
	return res
}

func milestoneSummary(milestones []domain.Milestone) MilestoneSummary {
	completed := metrics.CountWhere(milestones, metrics.MilestoneCompleted)
	ms := MilestoneSummary{
		Total:          len(milestones),
		Completed:      completed,
		CompletionRate: metrics.CompletionRate(completed, len(milestones)),
	}
	for _, m := range milestones {
		delay := metrics.MilestoneDelayDays(m)
		if delay > 0 {
			ms.Delayed++
		}
		ms.Milestones = append(ms.Milestones, MilestoneRecord{
			Name:      m.Name,
			Status:    m.Status,
			DelayDays: delay,
		})
	}
	return ms
}

func documentSummary(attachments []domain.Attachment) DocumentSummary {
	ds := DocumentSummary{Total: len(attachments)}
	for _, g := range metrics.GroupCount(attachments, func(a domain.Attachment) (string, bool) {
		return a.FileType, true
	}) {
		ds.ByType = append(ds.ByType, FileTypeCount{FileType: g.Key, Count: g.Count})
	}
	for _, a := range attachments {
		if ds.LatestUploadedAt == nil || a.CreatedAt.After(*ds.LatestUploadedAt) {
			t := a.CreatedAt
			ds.LatestUploadedAt = &t
			ds.LatestFileName = a.FileName
		}
	}
	return ds
}

func timelineAnalysis(p domain.Project, ms MilestoneSummary, now time.Time) TimelineAnalysis {
	ta := TimelineAnalysis{
		Progress:  ms.CompletionRate,
		DelayRisk: RiskLow,
	}
	start := p.ActualStartDate
	if start == nil {
		start = p.StartDate
	}
	if start != nil && now.After(*start) {
		ta.ElapsedDays = int(now.Sub(*start).Hours() / 24)
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.After(*p.StartDate) {
		ta.PlannedDays = int(p.EndDate.Sub(*p.StartDate).Hours() / 24)
	}
	if ta.Progress < 100 && ms.Delayed > 0 {
		ta.DelayRisk = RiskMedium
	}
	return ta
}

func followupMatrix(followups []domain.Followup) FollowUpMatrix {
	var completed []domain.Followup
	for _, fu := range followups {
		if metrics.FollowupCompleted(fu) {
			completed = append(completed, fu)
		}
	}
	return FollowUpMatrix{
		Total:     len(followups),
		Completed: len(completed),
		Pending:   metrics.CountWhere(followups, metrics.FollowupPending),
		Missed:    metrics.CountWhere(followups, metrics.FollowupMissed),
		AvgResponseDays: metrics.AverageDuration(completed,
			func(fu domain.Followup) *time.Time { c := fu.CreatedAt; return &c },
			func(fu domain.Followup) *time.Time { return fu.CompletedDate },
			metrics.Days),
	}
}
