package metrics_test

import (
	"testing"
	"time"

	"opsdesk/internal/domain"
	"opsdesk/internal/metrics"
)

func tp(t time.Time) *time.Time { return &t }

func TestCompletionRate(t *testing.T) {
	if got := metrics.CompletionRate(0, 0); got != 0 {
		t.Fatalf("zero total should be 0, got %v", got)
	}
	if got := metrics.CompletionRate(4, 10); got != 40.00 {
		t.Fatalf("expected 40.00, got %v", got)
	}
	if got := metrics.CompletionRate(1, 3); got != 33.33 {
		t.Fatalf("expected 33.33, got %v", got)
	}
	if got := metrics.CompletionRate(3, 3); got != 100 {
		t.Fatalf("expected 100, got %v", got)
	}
}

func TestAverageDurationSkipsMissingEnds(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	tasks := []domain.Task{
		{CreatedAt: base, UpdatedAt: base.Add(72 * time.Hour)},
		{CreatedAt: base, UpdatedAt: base.Add(72 * time.Hour)},
		{CreatedAt: base, UpdatedAt: base.Add(24 * time.Hour)},
		{CreatedAt: base, UpdatedAt: base.Add(24 * time.Hour)},
	}
	got := metrics.AverageDuration(tasks,
		func(t domain.Task) *time.Time { return tp(t.CreatedAt) },
		func(t domain.Task) *time.Time { return tp(t.UpdatedAt) },
		metrics.Days)
	if got != 2.00 {
		t.Fatalf("expected 2.00 days, got %v", got)
	}

	// followups without a completed date contribute nothing
	fus := []domain.Followup{
		{CreatedAt: base},
		{CreatedAt: base},
	}
	got = metrics.AverageDuration(fus,
		func(f domain.Followup) *time.Time { return tp(f.CreatedAt) },
		func(f domain.Followup) *time.Time { return f.CompletedDate },
		metrics.Days)
	if got != 0 {
		t.Fatalf("empty filtered set should average 0, got %v", got)
	}
}

func TestAverageDurationHours(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	tasks := []domain.Task{
		{CreatedAt: base, UpdatedAt: base.Add(90 * time.Minute)},
		{CreatedAt: base, UpdatedAt: base.Add(30 * time.Minute)},
	}
	got := metrics.AverageDuration(tasks,
		func(t domain.Task) *time.Time { return tp(t.CreatedAt) },
		func(t domain.Task) *time.Time { return tp(t.UpdatedAt) },
		metrics.Hours)
	if got != 1.00 {
		t.Fatalf("expected 1.00 hour, got %v", got)
	}
}

func TestTaskDelayedIsStrict(t *testing.T) {
	due := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	onTime := domain.Task{DueDate: &due, UpdatedAt: due}
	if metrics.TaskDelayed(onTime) {
		t.Fatal("task updated exactly at due date must not count as delayed")
	}
	late := domain.Task{DueDate: &due, UpdatedAt: due.Add(time.Second)}
	if !metrics.TaskDelayed(late) {
		t.Fatal("task updated after due date must count as delayed")
	}
	noDue := domain.Task{UpdatedAt: due.Add(time.Hour)}
	if metrics.TaskDelayed(noDue) {
		t.Fatal("task without due date is never delayed")
	}
}

func TestFollowupMissedIsStrict(t *testing.T) {
	due := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	early := domain.Followup{DueDate: &due, CompletedDate: tp(due.Add(-48 * time.Hour))}
	if metrics.FollowupMissed(early) {
		t.Fatal("completion before due date is early, not missed")
	}
	exact := domain.Followup{DueDate: &due, CompletedDate: &due}
	if metrics.FollowupMissed(exact) {
		t.Fatal("completion at the due instant is not missed")
	}
	late := domain.Followup{DueDate: &due, CompletedDate: tp(due.Add(time.Minute))}
	if !metrics.FollowupMissed(late) {
		t.Fatal("completion after due date is missed")
	}
}

func TestStatusMatchingIsCaseInsensitive(t *testing.T) {
	for _, s := range []string{"Completed", "completed", "COMPLETED"} {
		if !metrics.TaskCompleted(domain.Task{Status: s}) {
			t.Fatalf("status %q should match completed", s)
		}
	}
	for _, s := range []string{"In Progress", "in-progress", "IN PROGRESS"} {
		if !metrics.TaskInProgress(domain.Task{Status: s}) {
			t.Fatalf("status %q should match in progress", s)
		}
	}
	if metrics.TaskCompleted(domain.Task{Status: "archived"}) {
		t.Fatal("unknown status must not match any bucket")
	}
}

func TestGroupCountPreservesFirstSeenOrder(t *testing.T) {
	tasks := []domain.Task{
		{AssignedTo: tp2("bob")},
		{AssignedTo: tp2("alice")},
		{AssignedTo: tp2("bob")},
		{AssignedTo: nil},
		{AssignedTo: tp2("alice")},
	}
	groups := metrics.GroupCount(tasks, func(t domain.Task) (string, bool) {
		if t.AssignedTo == nil {
			return "", false
		}
		return *t.AssignedTo, true
	})
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Key != "bob" || groups[0].Count != 2 {
		t.Fatalf("unexpected first group %+v", groups[0])
	}
	if groups[1].Key != "alice" || groups[1].Count != 2 {
		t.Fatalf("unexpected second group %+v", groups[1])
	}
}

// Ties are broken by first appearance in the input sequence. This is the
// documented selection rule for top performer, not an accident of the test.
func TestTopGroupTieBreaksByFirstSeen(t *testing.T) {
	groups := []metrics.Group[string]{
		{Key: "bob", Count: 2},
		{Key: "alice", Count: 2},
	}
	top, ok := metrics.TopGroup(groups)
	if !ok {
		t.Fatal("expected a top group")
	}
	if top.Key != "bob" {
		t.Fatalf("tie must go to first-seen key, got %s", top.Key)
	}

	if _, ok := metrics.TopGroup[string](nil); ok {
		t.Fatal("empty input must report no top group")
	}
}

func TestMilestoneDelayDays(t *testing.T) {
	end := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	m := domain.Milestone{EndDate: &end, ActualDate: tp(end.Add(5 * 24 * time.Hour))}
	if got := metrics.MilestoneDelayDays(m); got != 5 {
		t.Fatalf("expected 5 days delay, got %d", got)
	}
	early := domain.Milestone{EndDate: &end, ActualDate: tp(end.Add(-24 * time.Hour))}
	if got := metrics.MilestoneDelayDays(early); got != 0 {
		t.Fatalf("early delivery clamps to 0, got %d", got)
	}
	open := domain.Milestone{EndDate: &end}
	if got := metrics.MilestoneDelayDays(open); got != 0 {
		t.Fatalf("missing actual date is 0 delay, got %d", got)
	}
}

func tp2(s string) *string { return &s }
