package reports_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"opsdesk/internal/db"
	"opsdesk/internal/domain"
	"opsdesk/internal/migrate"
	"opsdesk/internal/repo"
	"opsdesk/internal/reports"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) (reports.Engine, repo.Repo) {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatal(err)
	}
	r := repo.Repo{DB: conn}
	return reports.Engine{Store: r, Now: func() time.Time { return testNow }}, r
}

func daysAgo(n int) time.Time { return testNow.Add(-time.Duration(n) * 24 * time.Hour) }

func sp(s string) *string     { return &s }
func fp(f float64) *float64   { return &f }
func tpp(t time.Time) *time.Time { return &t }

func seedUser(t *testing.T, r repo.Repo, id, name, role string) {
	t.Helper()
	err := r.InsertUser(context.Background(), domain.User{
		ID: id, Name: name, Email: id + "@example.com", Role: role,
		CreatedAt: daysAgo(60), UpdatedAt: daysAgo(60),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestStaffPerformanceSubjectResolution(t *testing.T) {
	eng, r := newTestEnv(t)
	ctx := context.Background()
	seedUser(t, r, "u-admin", "Root", "Admin")

	if _, err := eng.StaffPerformance(ctx, reports.Filter{}, "u-admin"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("admin subject should be not found, got %v", err)
	}
	if _, err := eng.StaffPerformance(ctx, reports.Filter{}, "u-ghost"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("unknown subject should be not found, got %v", err)
	}
	if _, err := eng.StaffPerformance(ctx, reports.Filter{}, ""); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("no staff at all should be not found, got %v", err)
	}

	seedUser(t, r, "u1", "Asha", "engineer")
	// A padded role is still an admin on both resolution paths.
	seedUser(t, r, "u-ops", "Ops Root", " Admin ")
	if _, err := eng.StaffPerformance(ctx, reports.Filter{}, "u-ops"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("padded-role admin subject should be not found, got %v", err)
	}
	rep, err := eng.StaffPerformance(ctx, reports.Filter{}, "")
	if err != nil {
		t.Fatal(err)
	}
	if rep.StaffID != "u1" || rep.StaffName != "Asha" {
		t.Fatalf("expected sole staff u1, got %+v", rep)
	}

	seedUser(t, r, "u2", "Femi", "engineer")
	if _, err := eng.StaffPerformance(ctx, reports.Filter{}, ""); !errors.Is(err, repo.ErrAmbiguous) {
		t.Fatalf("two staff without a user id should be ambiguous, got %v", err)
	}
}

func TestStaffPerformanceMetrics(t *testing.T) {
	eng, r := newTestEnv(t)
	ctx := context.Background()
	seedUser(t, r, "u1", "Asha", "engineer")

	// 10 tasks, 4 completed with durations 1,1,3,3 days, one delayed.
	for i := 0; i < 10; i++ {
		created := daysAgo(20)
		task := domain.Task{
			ID: fmt.Sprintf("t%d", i), Title: fmt.Sprintf("task %d", i),
			Status: "in progress", AssignedTo: sp("u1"),
			CreatedAt: created, UpdatedAt: created,
		}
		if i < 4 {
			task.Status = "Completed"
			d := 1
			if i >= 2 {
				d = 3
			}
			task.UpdatedAt = created.Add(time.Duration(d) * 24 * time.Hour)
		}
		if i == 5 {
			due := daysAgo(25)
			task.DueDate = &due
			task.UpdatedAt = daysAgo(19)
		}
		if err := r.InsertTask(ctx, task); err != nil {
			t.Fatal(err)
		}
	}
	seedProject(t, r, domain.Project{ID: "p1", Name: "Rollout", CreatedAt: daysAgo(30), UpdatedAt: daysAgo(30)})
	for i := 0; i < 2; i++ {
		err := r.InsertMilestone(ctx, domain.Milestone{
			ID: fmt.Sprintf("m%d", i), ProjectID: "p1", Name: fmt.Sprintf("phase %d", i),
			Status: "planned", AssignedTo: sp("u1"),
			CreatedAt: daysAgo(20), UpdatedAt: daysAgo(20),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	err := r.InsertAttachment(ctx, domain.Attachment{
		ID: "a1", FileName: "scope.pdf", FileType: "pdf", UploadedBy: sp("u1"),
		CreatedAt: daysAgo(10), UpdatedAt: daysAgo(10),
	})
	if err != nil {
		t.Fatal(err)
	}

	rep, err := eng.StaffPerformance(ctx, reports.Filter{}, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if rep.TotalTasksAssigned != 10 || rep.CompletedTasks != 4 {
		t.Fatalf("task counts: %+v", rep)
	}
	if rep.CompletionRate != 40.00 {
		t.Fatalf("completion rate: want 40.00, got %v", rep.CompletionRate)
	}
	if rep.AvgDaysToComplete != 2.00 {
		t.Fatalf("avg days: want 2.00, got %v", rep.AvgDaysToComplete)
	}
	if rep.DelayedTasks != 1 {
		t.Fatalf("delayed: want 1, got %d", rep.DelayedTasks)
	}
	if rep.MilestonesManaged != 2 || rep.FilesUploaded != 1 {
		t.Fatalf("milestones/files: %+v", rep)
	}
	// No followups at all: aggregates hold zeros, never an error.
	if rep.TotalFollowUps != 0 || rep.AvgFollowUpResponseTime != 0 {
		t.Fatalf("followup zeros: %+v", rep)
	}
}

func TestStaffPerformanceWindow(t *testing.T) {
	eng, r := newTestEnv(t)
	ctx := context.Background()
	seedUser(t, r, "u1", "Asha", "engineer")

	insert := func(id string, created time.Time) {
		err := r.InsertTask(ctx, domain.Task{
			ID: id, Title: id, Status: "completed", AssignedTo: sp("u1"),
			CreatedAt: created, UpdatedAt: created,
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	insert("old", daysAgo(40))
	insert("recent", daysAgo(5))

	from := daysAgo(10)
	rep, err := eng.StaffPerformance(ctx, reports.Filter{From: &from}, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if rep.TotalTasksAssigned != 1 {
		t.Fatalf("from-only window should see 1 task, got %d", rep.TotalTasksAssigned)
	}

	to := daysAgo(20)
	rep, err = eng.StaffPerformance(ctx, reports.Filter{To: &to}, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if rep.TotalTasksAssigned != 1 {
		t.Fatalf("to-only window should see 1 task, got %d", rep.TotalTasksAssigned)
	}

	rep, err = eng.StaffPerformance(ctx, reports.Filter{}, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if rep.TotalTasksAssigned != 2 {
		t.Fatalf("open window should see both tasks, got %d", rep.TotalTasksAssigned)
	}
}

func seedProject(t *testing.T, r repo.Repo, p domain.Project) {
	t.Helper()
	if p.Status == "" {
		p.Status = "active"
	}
	if err := r.InsertProject(context.Background(), p); err != nil {
		t.Fatal(err)
	}
}

func TestProjectPerformanceResolutionOrder(t *testing.T) {
	eng, r := newTestEnv(t)
	ctx := context.Background()

	if _, err := eng.ProjectPerformance(ctx, "", ""); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("empty store should be not found, got %v", err)
	}

	err := r.InsertClient(ctx, domain.Client{ID: "c1", Name: "Acme", CreatedAt: daysAgo(50), UpdatedAt: daysAgo(50)})
	if err != nil {
		t.Fatal(err)
	}
	seedProject(t, r, domain.Project{ID: "p-old", Name: "Old", ClientID: sp("c1"), CreatedAt: daysAgo(40), UpdatedAt: daysAgo(40)})
	seedProject(t, r, domain.Project{ID: "p-new", Name: "New", ClientID: sp("c1"), CreatedAt: daysAgo(10), UpdatedAt: daysAgo(10)})
	seedProject(t, r, domain.Project{ID: "p-other", Name: "Other", CreatedAt: daysAgo(1), UpdatedAt: daysAgo(1)})

	rep, err := eng.ProjectPerformance(ctx, "p-old", "c1")
	if err != nil {
		t.Fatal(err)
	}
	if rep.Project.ID != "p-old" {
		t.Fatalf("explicit project id must win, got %s", rep.Project.ID)
	}

	rep, err = eng.ProjectPerformance(ctx, "", "c1")
	if err != nil {
		t.Fatal(err)
	}
	if rep.Project.ID != "p-new" {
		t.Fatalf("client resolution should pick newest client project, got %s", rep.Project.ID)
	}

	rep, err = eng.ProjectPerformance(ctx, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if rep.Project.ID != "p-other" {
		t.Fatalf("fallback should pick globally newest project, got %s", rep.Project.ID)
	}

	if _, err := eng.ProjectPerformance(ctx, "p-ghost", ""); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("unknown project id should be not found, got %v", err)
	}
}

func TestProjectPerformanceSections(t *testing.T) {
	eng, r := newTestEnv(t)
	ctx := context.Background()
	seedUser(t, r, "u1", "Asha", "engineer")
	seedUser(t, r, "u2", "Femi", "engineer")

	start := daysAgo(30)
	end := daysAgo(-30)
	seedProject(t, r, domain.Project{
		ID: "p1", Name: "Rollout", Budget: fp(20000), EstimatedCost: fp(18000), ActualCost: fp(24000),
		StartDate: &start, EndDate: &end,
		CreatedAt: daysAgo(30), UpdatedAt: daysAgo(30),
	})

	// u1: 3 assigned 2 completed; u2: 1 assigned 0 completed.
	for i, spec := range []struct {
		user, status string
	}{
		{"u1", "completed"}, {"u1", "completed"}, {"u1", "in progress"}, {"u2", "in progress"},
	} {
		err := r.InsertTask(ctx, domain.Task{
			ID: fmt.Sprintf("t%d", i), ProjectID: sp("p1"), Title: fmt.Sprintf("task %d", i),
			Status: spec.status, AssignedTo: sp(spec.user),
			CreatedAt: daysAgo(17 + i), UpdatedAt: daysAgo(15 + i),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	planned := daysAgo(10)
	actual := daysAgo(7)
	for i, m := range []domain.Milestone{
		{ID: "m1", Status: "completed", EndDate: &planned, ActualDate: &actual},
		{ID: "m2", Status: "planned"},
	} {
		m.ProjectID = "p1"
		m.Name = fmt.Sprintf("phase %d", i)
		m.CreatedAt = daysAgo(24 + i)
		m.UpdatedAt = daysAgo(24 + i)
		if err := r.InsertMilestone(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	for i, ft := range []string{"pdf", "pdf", "xlsx"} {
		err := r.InsertAttachment(ctx, domain.Attachment{
			ID: fmt.Sprintf("a%d", i), ProjectID: sp("p1"),
			FileName: fmt.Sprintf("doc%d.%s", i, ft), FileType: ft,
			CreatedAt: daysAgo(15 - i), UpdatedAt: daysAgo(15 - i),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	rep, err := eng.ProjectPerformance(ctx, "p1", "")
	if err != nil {
		t.Fatal(err)
	}

	if rep.Cost.Utilization != 120.00 {
		t.Fatalf("utilization: want 120.00, got %v", rep.Cost.Utilization)
	}
	if rep.Cost.Overrun != 4000 {
		t.Fatalf("overrun: want 4000, got %v", rep.Cost.Overrun)
	}

	if rep.Tasks.Total != 4 || rep.Tasks.Completed != 2 || rep.Tasks.InProgress != 2 {
		t.Fatalf("task metrics: %+v", rep.Tasks)
	}
	// Both completed tasks ran two days from creation to completion.
	if rep.Tasks.AvgCompletionDays != 2.00 {
		t.Fatalf("avg completion days: want 2.00, got %v", rep.Tasks.AvgCompletionDays)
	}
	if rep.Tasks.TopPerformer != "Asha" {
		t.Fatalf("top performer: want Asha, got %s", rep.Tasks.TopPerformer)
	}

	if len(rep.Resources) != 2 {
		t.Fatalf("resources: %+v", rep.Resources)
	}
	if rep.Resources[0].UserID != "u1" || rep.Resources[0].Assigned != 3 || rep.Resources[0].Completed != 2 || rep.Resources[0].Load != 75.00 {
		t.Fatalf("u1 utilization: %+v", rep.Resources[0])
	}

	if rep.Milestones.Total != 2 || rep.Milestones.Completed != 1 || rep.Milestones.Delayed != 1 {
		t.Fatalf("milestone summary: %+v", rep.Milestones)
	}
	if rep.Milestones.Milestones[0].DelayDays != 3 {
		t.Fatalf("delay days: want 3, got %d", rep.Milestones.Milestones[0].DelayDays)
	}

	if rep.Documents.Total != 3 || rep.Documents.LatestFileName != "doc2.xlsx" {
		t.Fatalf("documents: %+v", rep.Documents)
	}
	// Attachments list newest first, so xlsx is the first bucket seen.
	if rep.Documents.ByType[0].FileType != "xlsx" || rep.Documents.ByType[0].Count != 1 {
		t.Fatalf("by type: %+v", rep.Documents.ByType)
	}
	if rep.Documents.ByType[1].FileType != "pdf" || rep.Documents.ByType[1].Count != 2 {
		t.Fatalf("by type: %+v", rep.Documents.ByType)
	}

	if rep.Timeline.ElapsedDays != 30 || rep.Timeline.PlannedDays != 60 {
		t.Fatalf("timeline: %+v", rep.Timeline)
	}
	if rep.Timeline.Progress != 50.00 || rep.Timeline.DelayRisk != reports.RiskMedium {
		t.Fatalf("risk: %+v", rep.Timeline)
	}

	// No client on the project: followup matrix stays zeroed.
	if rep.FollowUps != (reports.FollowUpMatrix{}) {
		t.Fatalf("followup matrix should be empty, got %+v", rep.FollowUps)
	}
}

func TestProjectFollowUpMatrixScopedToLead(t *testing.T) {
	eng, r := newTestEnv(t)
	ctx := context.Background()

	err := r.InsertLead(ctx, domain.Lead{ID: "l1", Name: "Acme inbound", Status: "converted", CreatedAt: daysAgo(60), UpdatedAt: daysAgo(60)})
	if err != nil {
		t.Fatal(err)
	}
	err = r.InsertClient(ctx, domain.Client{ID: "c1", Name: "Acme", LeadID: sp("l1"), CreatedAt: daysAgo(50), UpdatedAt: daysAgo(50)})
	if err != nil {
		t.Fatal(err)
	}
	seedProject(t, r, domain.Project{ID: "p1", Name: "Rollout", ClientID: sp("c1"), CreatedAt: daysAgo(40), UpdatedAt: daysAgo(40)})

	due := daysAgo(30)
	fus := []domain.Followup{
		{ID: "f1", Status: "completed", DueDate: &due, CreatedAt: daysAgo(35), CompletedDate: tpp(daysAgo(31)), LeadID: sp("l1")},
		{ID: "f2", Status: "completed", DueDate: &due, CreatedAt: daysAgo(32), CompletedDate: tpp(daysAgo(28)), LeadID: sp("l1")},
		{ID: "f3", Status: "pending", CreatedAt: daysAgo(20), LeadID: sp("l1")},
		{ID: "f4", Status: "Awaiting Response", CreatedAt: daysAgo(18), LeadID: sp("l1")},
	}
	for _, fu := range fus {
		fu.UpdatedAt = fu.CreatedAt
		if err := r.InsertFollowup(ctx, fu); err != nil {
			t.Fatal(err)
		}
	}

	rep, err := eng.ProjectPerformance(ctx, "p1", "")
	if err != nil {
		t.Fatal(err)
	}
	m := rep.FollowUps
	if m.Total != 4 || m.Completed != 2 || m.Pending != 2 || m.Missed != 1 {
		t.Fatalf("matrix: %+v", m)
	}
	if m.AvgResponseDays != 4.00 {
		t.Fatalf("avg response: want 4.00, got %v", m.AvgResponseDays)
	}
	if rep.Project.ClientName != "Acme" {
		t.Fatalf("client name: %+v", rep.Project)
	}
}

func TestLeadAnalytics(t *testing.T) {
	eng, r := newTestEnv(t)
	ctx := context.Background()
	seedUser(t, r, "u1", "Asha", "engineer")

	for i, spec := range []struct {
		status, source string
	}{
		{"new", "referral"}, {"contacted", "web"}, {"Converted", "web"}, {"lost", ""},
	} {
		err := r.InsertLead(ctx, domain.Lead{
			ID: fmt.Sprintf("l%d", i), Name: fmt.Sprintf("lead %d", i),
			Status: spec.status, Source: spec.source, OwnerID: sp("u1"),
			CreatedAt: daysAgo(30 - i), UpdatedAt: daysAgo(30 - i),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	err := r.InsertClient(ctx, domain.Client{ID: "c1", Name: "Won", LeadID: sp("l2"), CreatedAt: daysAgo(5), UpdatedAt: daysAgo(5)})
	if err != nil {
		t.Fatal(err)
	}
	err = r.InsertFollowup(ctx, domain.Followup{ID: "f1", Status: "pending", LeadID: sp("l0"), CreatedAt: daysAgo(3), UpdatedAt: daysAgo(3)})
	if err != nil {
		t.Fatal(err)
	}

	rep, err := eng.LeadAnalytics(ctx, reports.Filter{}, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if rep.OwnerName != "Asha" {
		t.Fatalf("owner: %+v", rep)
	}
	if rep.TotalLeads != 4 || rep.ConvertedLeads != 1 || rep.ConversionRate != 25.00 {
		t.Fatalf("conversion: %+v", rep)
	}
	if len(rep.ByStatus) != 4 {
		t.Fatalf("by status: %+v", rep.ByStatus)
	}
	// Empty sources are skipped rather than bucketed.
	if len(rep.BySource) != 2 {
		t.Fatalf("by source: %+v", rep.BySource)
	}
	if rep.TotalFollowUps != 1 || rep.PendingFollowUps != 1 {
		t.Fatalf("followups: %+v", rep)
	}

	if _, err := eng.LeadAnalytics(ctx, reports.Filter{}, "u-ghost"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("unknown owner should be not found, got %v", err)
	}
}

func TestDashboard(t *testing.T) {
	eng, r := newTestEnv(t)
	ctx := context.Background()
	seedUser(t, r, "u1", "Asha", "engineer")

	seedProject(t, r, domain.Project{ID: "p1", Name: "Rollout", CreatedAt: daysAgo(20), UpdatedAt: daysAgo(20)})
	for i := 0; i < 4; i++ {
		status := "in progress"
		if i < 2 {
			status = "completed"
		}
		err := r.InsertTask(ctx, domain.Task{
			ID: fmt.Sprintf("t%d", i), Title: fmt.Sprintf("task %d", i),
			Status: status, AssignedTo: sp("u1"),
			CreatedAt: daysAgo(10), UpdatedAt: daysAgo(10),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	err := r.InsertLead(ctx, domain.Lead{ID: "l1", Name: "Inbound", Status: "new", CreatedAt: daysAgo(8), UpdatedAt: daysAgo(8)})
	if err != nil {
		t.Fatal(err)
	}
	err = r.InsertClient(ctx, domain.Client{ID: "c1", Name: "Acme", LeadID: sp("l1"), CreatedAt: daysAgo(6), UpdatedAt: daysAgo(6)})
	if err != nil {
		t.Fatal(err)
	}

	d, err := eng.Dashboard(ctx, reports.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if d.TotalProjects != 1 || d.TotalTasks != 4 || d.CompletedTasks != 2 {
		t.Fatalf("counts: %+v", d)
	}
	if d.TaskCompletionRate != 50.00 {
		t.Fatalf("task rate: %v", d.TaskCompletionRate)
	}
	if d.ConvertedLeads != 1 || d.ConversionRate != 100.00 {
		t.Fatalf("conversion: %+v", d)
	}
	if d.TopPerformer != "Asha" {
		t.Fatalf("top performer: %s", d.TopPerformer)
	}

	// Narrow window excludes everything but the lead and client.
	from := daysAgo(9)
	to := daysAgo(6)
	d, err = eng.Dashboard(ctx, reports.Filter{From: &from, To: &to})
	if err != nil {
		t.Fatal(err)
	}
	if d.TotalTasks != 0 || d.TotalLeads != 1 || d.TotalClients != 1 {
		t.Fatalf("windowed counts: %+v", d)
	}
	if d.TaskCompletionRate != 0 {
		t.Fatalf("empty set must rate 0, got %v", d.TaskCompletionRate)
	}
}

func TestDashboardConversionNotWindowed(t *testing.T) {
	eng, r := newTestEnv(t)
	ctx := context.Background()
	seedUser(t, r, "u1", "Asha", "engineer")

	err := r.InsertLead(ctx, domain.Lead{
		ID: "l1", Name: "Inbound", Status: "converted", OwnerID: sp("u1"),
		CreatedAt: daysAgo(20), UpdatedAt: daysAgo(20),
	})
	if err != nil {
		t.Fatal(err)
	}
	// Client lands 8 days after the window closes; the lead still converted.
	err = r.InsertClient(ctx, domain.Client{ID: "c1", Name: "Acme", LeadID: sp("l1"), CreatedAt: daysAgo(4), UpdatedAt: daysAgo(4)})
	if err != nil {
		t.Fatal(err)
	}

	from := daysAgo(25)
	to := daysAgo(12)
	f := reports.Filter{From: &from, To: &to}

	d, err := eng.Dashboard(ctx, f)
	if err != nil {
		t.Fatal(err)
	}
	if d.TotalLeads != 1 || d.ConvertedLeads != 1 || d.ConversionRate != 100.00 {
		t.Fatalf("dashboard conversion: %+v", d)
	}
	if d.TotalClients != 0 {
		t.Fatalf("client count must stay windowed, got %d", d.TotalClients)
	}

	// Lead analytics over the same window must agree.
	la, err := eng.LeadAnalytics(ctx, f, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if la.ConvertedLeads != d.ConvertedLeads {
		t.Fatalf("conversion diverges: analytics %d, dashboard %d", la.ConvertedLeads, d.ConvertedLeads)
	}
}
