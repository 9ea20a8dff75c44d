package reports

import "time"

// StaffPerformance is the per-user productivity report. Every field is always
// present; an empty window or a user with no work yields zeros.
type StaffPerformance struct {
	StaffID    string `json:"staff_id"`
	StaffName  string `json:"staff_name"`
	StaffEmail string `json:"staff_email"`

	TotalTasksAssigned int     `json:"total_tasks_assigned"`
	CompletedTasks     int     `json:"completed_tasks"`
	CompletionRate     float64 `json:"completion_rate"`
	AvgDaysToComplete  float64 `json:"avg_days_to_complete"`
	DelayedTasks       int     `json:"delayed_tasks"`

	MilestonesManaged int `json:"milestones_managed"`
	FilesUploaded     int `json:"files_uploaded"`

	TotalFollowUps          int     `json:"total_followups"`
	CompletedFollowUps      int     `json:"completed_followups"`
	PendingFollowUps        int     `json:"pending_followups"`
	AvgFollowUpResponseTime float64 `json:"avg_followup_response_days"`
	MissedFollowUps         int     `json:"missed_followups"`
}

// ProjectPerformance is the multi-section project health report.
type ProjectPerformance struct {
	Project    ProjectInfo           `json:"project"`
	Cost       CostBudget            `json:"cost"`
	Tasks      TaskMetrics           `json:"tasks"`
	Resources  []ResourceUtilization `json:"resources"`
	Milestones MilestoneSummary      `json:"milestones"`
	Documents  DocumentSummary       `json:"documents"`
	Timeline   TimelineAnalysis      `json:"timeline"`
	FollowUps  FollowUpMatrix        `json:"followups"`
}

type ProjectInfo struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	ClientName string     `json:"client_name"`
	Status     string     `json:"status"`
	StartDate  *time.Time `json:"start_date,omitempty" format:"date-time"`
	EndDate    *time.Time `json:"end_date,omitempty" format:"date-time"`
}

type CostBudget struct {
	Budget        float64 `json:"budget"`
	EstimatedCost float64 `json:"estimated_cost"`
	ActualCost    float64 `json:"actual_cost"`
	Utilization   float64 `json:"utilization"`
	Overrun       float64 `json:"overrun"`
}

type TaskMetrics struct {
	Total             int     `json:"total"`
	Completed         int     `json:"completed"`
	InProgress        int     `json:"in_progress"`
	Delayed           int     `json:"delayed"`
	CompletionRate    float64 `json:"completion_rate"`
	AvgCompletionDays float64 `json:"avg_completion_days"`
	TopPerformer      string  `json:"top_performer"`
}

type ResourceUtilization struct {
	UserID    string  `json:"user_id"`
	Name      string  `json:"name"`
	Assigned  int     `json:"assigned"`
	Completed int     `json:"completed"`
	Load      float64 `json:"load"`
}

type MilestoneSummary struct {
	Total          int               `json:"total"`
	Completed      int               `json:"completed"`
	Delayed        int               `json:"delayed"`
	CompletionRate float64           `json:"completion_rate"`
	Milestones     []MilestoneRecord `json:"milestones"`
}

type MilestoneRecord struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	DelayDays int    `json:"delay_days"`
}

type DocumentSummary struct {
	Total            int             `json:"total"`
	ByType           []FileTypeCount `json:"by_type"`
	LatestFileName   string          `json:"latest_file_name"`
	LatestUploadedAt *time.Time      `json:"latest_uploaded_at,omitempty" format:"date-time"`
}

type FileTypeCount struct {
	FileType string `json:"file_type"`
	Count    int    `json:"count"`
}

type TimelineAnalysis struct {
	ElapsedDays int     `json:"elapsed_days"`
	PlannedDays int     `json:"planned_days"`
	Progress    float64 `json:"progress"`
	DelayRisk   string  `json:"delay_risk"`
}

const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
)

type FollowUpMatrix struct {
	Total           int     `json:"total"`
	Completed       int     `json:"completed"`
	Pending         int     `json:"pending"`
	Missed          int     `json:"missed"`
	AvgResponseDays float64 `json:"avg_response_days"`
}

// LeadAnalytics summarizes lead pipeline health, optionally scoped to one owner.
type LeadAnalytics struct {
	OwnerID   string `json:"owner_id,omitempty"`
	OwnerName string `json:"owner_name,omitempty"`

	TotalLeads     int     `json:"total_leads"`
	ConvertedLeads int     `json:"converted_leads"`
	ConversionRate float64 `json:"conversion_rate"`

	ByStatus []StatusCount `json:"by_status"`
	BySource []SourceCount `json:"by_source"`

	TotalFollowUps          int     `json:"total_followups"`
	CompletedFollowUps      int     `json:"completed_followups"`
	PendingFollowUps        int     `json:"pending_followups"`
	MissedFollowUps         int     `json:"missed_followups"`
	AvgFollowUpResponseTime float64 `json:"avg_followup_response_days"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// Dashboard is the unscoped operations overview.
type Dashboard struct {
	TotalProjects int `json:"total_projects"`

	TotalTasks         int     `json:"total_tasks"`
	CompletedTasks     int     `json:"completed_tasks"`
	TaskCompletionRate float64 `json:"task_completion_rate"`

	TotalMilestones         int     `json:"total_milestones"`
	CompletedMilestones     int     `json:"completed_milestones"`
	MilestoneCompletionRate float64 `json:"milestone_completion_rate"`

	TotalClients   int     `json:"total_clients"`
	TotalLeads     int     `json:"total_leads"`
	ConvertedLeads int     `json:"converted_leads"`
	ConversionRate float64 `json:"conversion_rate"`

	TopPerformer string `json:"top_performer"`
}
