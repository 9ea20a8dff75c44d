package reports

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"opsdesk/internal/domain"
	"opsdesk/internal/metrics"
	"opsdesk/internal/repo"
)

// StaffPerformance builds the productivity report for one staff member. With an
// explicit userID the user must exist and must not be an administrator; without
// one the store must hold exactly one non-admin user.
func (e Engine) StaffPerformance(ctx context.Context, f Filter, userID string) (StaffPerformance, error) {
	var u domain.User
	var err error
	if userID != "" {
		u, err = e.Store.GetUser(ctx, userID)
		if err != nil {
			return StaffPerformance{}, fmt.Errorf("staff %s: %w", userID, err)
		}
		if domain.IsAdmin(u.Role) {
			return StaffPerformance{}, fmt.Errorf("staff %s: %w", userID, repo.ErrNotFound)
		}
	} else {
		u, err = e.Store.SingleStaff(ctx)
		if err != nil {
			return StaffPerformance{}, fmt.Errorf("resolve staff: %w", err)
		}
	}

	win := f.window(e.now())

	var (
		tasks       []domain.Task
		milestones  []domain.Milestone
		attachments []domain.Attachment
		followups   []domain.Followup
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = e.Store.ListTasks(gctx, repo.TaskFilters{AssignedTo: u.ID, Created: win})
		return err
	})
	g.Go(func() error {
		var err error
		milestones, err = e.Store.ListMilestones(gctx, repo.MilestoneFilters{AssignedTo: u.ID, Created: win})
		return err
	})
	g.Go(func() error {
		var err error
		attachments, err = e.Store.ListAttachments(gctx, repo.AttachmentFilters{UploadedBy: u.ID, Created: win})
		return err
	})
	g.Go(func() error {
		var err error
		followups, err = e.Store.ListFollowups(gctx, repo.FollowupFilters{AssignedTo: u.ID, Created: win})
		return err
	})
	if err := g.Wait(); err != nil {
		return StaffPerformance{}, err
	}

	completed := metrics.CountWhere(tasks, metrics.TaskCompleted)
	var done []domain.Task
	for _, t := range tasks {
		if metrics.TaskCompleted(t) {
			done = append(done, t)
		}
	}
	var completedFUs []domain.Followup
	for _, fu := range followups {
		if metrics.FollowupCompleted(fu) {
			completedFUs = append(completedFUs, fu)
		}
	}

	return StaffPerformance{
		StaffID:    u.ID,
		StaffName:  u.Name,
		StaffEmail: u.Email,

		TotalTasksAssigned: len(tasks),
		CompletedTasks:     completed,
		CompletionRate:     metrics.CompletionRate(completed, len(tasks)),
		AvgDaysToComplete: metrics.AverageDuration(done,
			func(t domain.Task) *time.Time { c := t.CreatedAt; return &c },
			func(t domain.Task) *time.Time { up := t.UpdatedAt; return &up },
			metrics.Days),
		DelayedTasks: metrics.CountWhere(tasks, metrics.TaskDelayed),

		MilestonesManaged: len(milestones),
		FilesUploaded:     len(attachments),

		TotalFollowUps:     len(followups),
		CompletedFollowUps: len(completedFUs),
		PendingFollowUps:   metrics.CountWhere(followups, metrics.FollowupPending),
		AvgFollowUpResponseTime: metrics.AverageDuration(completedFUs,
			func(fu domain.Followup) *time.Time { c := fu.CreatedAt; return &c },
			func(fu domain.Followup) *time.Time { return fu.CompletedDate },
			metrics.Days),
		MissedFollowUps: metrics.CountWhere(followups, metrics.FollowupMissed),
	}, nil
}
