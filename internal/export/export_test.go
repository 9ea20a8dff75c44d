package export_test

import (
	"testing"
	"time"

	"opsdesk/internal/export"
	"opsdesk/internal/reports"
)

func TestFilename(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		subject, want string
	}{
		{"Asha Rao", "Asha_Rao_2025-06-15.xlsx"},
		{"  Asha   N.  Rao ", "Asha_N._Rao_2025-06-15.xlsx"},
		{"dashboard", "dashboard_2025-06-15.xlsx"},
		{"", "report_2025-06-15.xlsx"},
	}
	for _, c := range cases {
		if got := export.Filename(c.subject, now); got != c.want {
			t.Errorf("Filename(%q) = %q, want %q", c.subject, got, c.want)
		}
	}
}

func TestStaffWorkbookLayout(t *testing.T) {
	rep := reports.StaffPerformance{
		StaffName: "Asha Rao", StaffEmail: "asha@example.com",
		TotalTasksAssigned: 10, CompletedTasks: 4, CompletionRate: 40.00,
		AvgDaysToComplete: 2.00, DelayedTasks: 1,
	}
	f, err := export.StaffWorkbook(rep)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows("Staff Performance")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + one data row, got %d rows", len(rows))
	}
	if rows[0][0] != "Staff Name" || rows[0][4] != "Completion Rate (%)" {
		t.Fatalf("header row: %v", rows[0])
	}
	if rows[1][0] != "Asha Rao" || rows[1][4] != "40" {
		t.Fatalf("data row: %v", rows[1])
	}

	// Header style must differ from the untouched data row.
	headerStyle, err := f.GetCellStyle("Staff Performance", "A1")
	if err != nil {
		t.Fatal(err)
	}
	dataStyle, err := f.GetCellStyle("Staff Performance", "A2")
	if err != nil {
		t.Fatal(err)
	}
	if headerStyle == dataStyle {
		t.Fatal("header row should carry the bold style")
	}
}

func TestProjectWorkbookSheets(t *testing.T) {
	rep := reports.ProjectPerformance{
		Project: reports.ProjectInfo{Name: "Rollout", ClientName: "Acme", Status: "active"},
		Tasks:   reports.TaskMetrics{Total: 4, Completed: 2, AvgCompletionDays: 2.00},
		Resources: []reports.ResourceUtilization{
			{Name: "Asha", Assigned: 3, Completed: 2, Load: 75.00},
		},
		Milestones: reports.MilestoneSummary{
			Milestones: []reports.MilestoneRecord{{Name: "phase 0", Status: "completed", DelayDays: 3}},
		},
		Documents: reports.DocumentSummary{
			ByType: []reports.FileTypeCount{{FileType: "pdf", Count: 2}},
		},
	}
	f, err := export.ProjectWorkbook(rep)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	for _, sheet := range []string{"Overview", "Resources", "Milestones", "Documents", "Follow-ups"} {
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
			t.Fatalf("missing sheet %s (idx %d, err %v)", sheet, idx, err)
		}
	}
	rows, err := f.GetRows("Resources")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1][0] != "Asha" || rows[1][3] != "75" {
		t.Fatalf("resources sheet: %v", rows)
	}

	overview, err := f.GetRows("Overview")
	if err != nil {
		t.Fatal(err)
	}
	if overview[0][11] != "Avg Completion (days)" || overview[1][11] != "2" {
		t.Fatalf("overview avg completion column: %v / %v", overview[0], overview[1])
	}
}

func TestSubject(t *testing.T) {
	if s := export.Subject(reports.StaffPerformance{StaffName: "Asha"}); s != "Asha" {
		t.Fatalf("staff subject: %s", s)
	}
	if s := export.Subject(reports.LeadAnalytics{}); s != "lead analytics" {
		t.Fatalf("leads subject: %s", s)
	}
	if s := export.Subject(reports.Dashboard{}); s != "dashboard" {
		t.Fatalf("dashboard subject: %s", s)
	}
}
