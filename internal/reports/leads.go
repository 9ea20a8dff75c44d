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

// LeadAnalytics builds the lead pipeline report. A non-empty ownerID scopes the
// report to that owner's leads; an empty one covers the whole pipeline. A lead
// counts as converted when a client row references it.
func (e Engine) LeadAnalytics(ctx context.Context, f Filter, ownerID string) (LeadAnalytics, error) {
	rep := LeadAnalytics{OwnerID: ownerID}
	if ownerID != "" {
		u, err := e.Store.GetUser(ctx, ownerID)
		if err != nil {
			return LeadAnalytics{}, fmt.Errorf("owner %s: %w", ownerID, err)
		}
		rep.OwnerName = u.Name
	}

	win := f.window(e.now())

	var (
		leads   []domain.Lead
		clients []domain.Client
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		leads, err = e.Store.ListLeads(gctx, repo.LeadFilters{OwnerID: ownerID, Created: win})
		return err
	})
	g.Go(func() error {
		// Conversion is not windowed: a lead created in the window counts
		// as converted even when the client appeared later.
		var err error
		clients, err = e.Store.ListClients(gctx, repo.ClientFilters{})
		return err
	})
	if err := g.Wait(); err != nil {
		return LeadAnalytics{}, err
	}

	converted := make(map[string]bool)
	for _, c := range clients {
		if c.LeadID != nil {
			converted[*c.LeadID] = true
		}
	}

	rep.TotalLeads = len(leads)
	leadIDs := make([]string, 0, len(leads))
	for _, l := range leads {
		leadIDs = append(leadIDs, l.ID)
		if converted[l.ID] {
			rep.ConvertedLeads++
		}
	}
	rep.ConversionRate = metrics.CompletionRate(rep.ConvertedLeads, rep.TotalLeads)

	for _, g := range metrics.GroupCount(leads, func(l domain.Lead) (string, bool) {
		return domain.NormalizeStatus(l.Status), true
	}) {
		rep.ByStatus = append(rep.ByStatus, StatusCount{Status: g.Key, Count: g.Count})
	}
	for _, g := range metrics.GroupCount(leads, func(l domain.Lead) (string, bool) {
		if l.Source == "" {
			return "", false
		}
		return l.Source, true
	}) {
		rep.BySource = append(rep.BySource, SourceCount{Source: g.Key, Count: g.Count})
	}

	if len(leadIDs) > 0 {
		followups, err := e.Store.ListFollowups(ctx, repo.FollowupFilters{LeadIDs: leadIDs})
		if err != nil {
			return LeadAnalytics{}, err
		}
		var completed []domain.Followup
		for _, fu := range followups {
			if metrics.FollowupCompleted(fu) {
				completed = append(completed, fu)
			}
		}
		rep.TotalFollowUps = len(followups)
		rep.CompletedFollowUps = len(completed)
		rep.PendingFollowUps = metrics.CountWhere(followups, metrics.FollowupPending)
		rep.MissedFollowUps = metrics.CountWhere(followups, metrics.FollowupMissed)
		rep.AvgFollowUpResponseTime = metrics.AverageDuration(completed,
			func(fu domain.Followup) *time.Time { c := fu.CreatedAt; return &c },
			func(fu domain.Followup) *time.Time { return fu.CompletedDate },
			metrics.Days)
	}
	return rep, nil
}
