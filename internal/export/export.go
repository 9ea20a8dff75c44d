// Package export renders report objects as xlsx workbooks. Values land in the
// cells exactly as the assemblers produced them; no re-rounding happens here.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"opsdesk/internal/reports"
)

// ContentType is the media type for the generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Column describes one worksheet column.
type Column struct {
	Header string
	Width  float64
}

// Filename builds the download name: the subject's display name with
// whitespace runs collapsed to underscores, then the report date.
func Filename(subject string, now time.Time) string {
	parts := strings.Fields(subject)
	if len(parts) == 0 {
		parts = []string{"report"}
	}
	return strings.Join(parts, "_") + "_" + now.UTC().Format("2006-01-02") + ".xlsx"
}

func writeTable(f *excelize.File, sheet string, cols []Column, rows [][]any) error {
	for i, c := range cols {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, c.Header); err != nil {
			return err
		}
		if c.Width > 0 {
			name, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				return err
			}
			if err := f.SetColWidth(sheet, name, name, c.Width); err != nil {
				return err
			}
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return err
	}
	for ri, row := range rows {
		for ci, v := range row {
			cell, err := excelize.CoordinatesToCellName(ci+1, ri+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func addTable(f *excelize.File, sheet string, cols []Column, rows [][]any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	return writeTable(f, sheet, cols, rows)
}

var staffCols = []Column{
	{Header: "Staff Name", Width: 24},
	{Header: "Email", Width: 28},
	{Header: "Total Tasks", Width: 12},
	{Header: "Completed Tasks", Width: 16},
	{Header: "Completion Rate (%)", Width: 18},
	{Header: "Avg Days To Complete", Width: 20},
	{Header: "Delayed Tasks", Width: 14},
	{Header: "Milestones Managed", Width: 18},
	{Header: "Files Uploaded", Width: 14},
	{Header: "Total Follow-ups", Width: 16},
	{Header: "Completed Follow-ups", Width: 20},
	{Header: "Pending Follow-ups", Width: 18},
	{Header: "Avg Response (days)", Width: 18},
	{Header: "Missed Follow-ups", Width: 16},
}

// StaffWorkbook renders a staff performance report as a one-row worksheet.
func StaffWorkbook(rep reports.StaffPerformance) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Staff Performance"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	row := []any{
		rep.StaffName, rep.StaffEmail,
		rep.TotalTasksAssigned, rep.CompletedTasks, rep.CompletionRate,
		rep.AvgDaysToComplete, rep.DelayedTasks,
		rep.MilestonesManaged, rep.FilesUploaded,
		rep.TotalFollowUps, rep.CompletedFollowUps, rep.PendingFollowUps,
		rep.AvgFollowUpResponseTime, rep.MissedFollowUps,
	}
	if err := writeTable(f, sheet, staffCols, [][]any{row}); err != nil {
		return nil, err
	}
	return f, nil
}

// ProjectWorkbook renders the project report: an overview sheet plus one sheet
// per multi-row section.
func ProjectWorkbook(rep reports.ProjectPerformance) (*excelize.File, error) {
	f := excelize.NewFile()
	const overview = "Overview"
	if err := f.SetSheetName("Sheet1", overview); err != nil {
		return nil, err
	}
	overviewCols := []Column{
		{Header: "Project", Width: 24},
		{Header: "Client", Width: 20},
		{Header: "Status", Width: 12},
		{Header: "Budget", Width: 12},
		{Header: "Estimated Cost", Width: 14},
		{Header: "Actual Cost", Width: 12},
		{Header: "Utilization (%)", Width: 14},
		{Header: "Overrun", Width: 12},
		{Header: "Tasks", Width: 10},
		{Header: "Completed Tasks", Width: 16},
		{Header: "Completion Rate (%)", Width: 18},
		{Header: "Avg Completion (days)", Width: 20},
		{Header: "Delayed Tasks", Width: 14},
		{Header: "Top Performer", Width: 18},
		{Header: "Elapsed Days", Width: 12},
		{Header: "Planned Days", Width: 12},
		{Header: "Progress (%)", Width: 12},
		{Header: "Delay Risk", Width: 10},
	}
	row := []any{
		rep.Project.Name, rep.Project.ClientName, rep.Project.Status,
		rep.Cost.Budget, rep.Cost.EstimatedCost, rep.Cost.ActualCost,
		rep.Cost.Utilization, rep.Cost.Overrun,
		rep.Tasks.Total, rep.Tasks.Completed, rep.Tasks.CompletionRate,
		rep.Tasks.AvgCompletionDays, rep.Tasks.Delayed, rep.Tasks.TopPerformer,
		rep.Timeline.ElapsedDays, rep.Timeline.PlannedDays,
		rep.Timeline.Progress, rep.Timeline.DelayRisk,
	}
	if err := writeTable(f, overview, overviewCols, [][]any{row}); err != nil {
		return nil, err
	}

	resourceCols := []Column{
		{Header: "Name", Width: 24},
		{Header: "Assigned", Width: 10},
		{Header: "Completed", Width: 10},
		{Header: "Load (%)", Width: 10},
	}
	var resourceRows [][]any
	for _, ru := range rep.Resources {
		resourceRows = append(resourceRows, []any{ru.Name, ru.Assigned, ru.Completed, ru.Load})
	}
	if err := addTable(f, "Resources", resourceCols, resourceRows); err != nil {
		return nil, err
	}

	milestoneCols := []Column{
		{Header: "Milestone", Width: 24},
		{Header: "Status", Width: 14},
		{Header: "Delay (days)", Width: 12},
	}
	var milestoneRows [][]any
	for _, m := range rep.Milestones.Milestones {
		milestoneRows = append(milestoneRows, []any{m.Name, m.Status, m.DelayDays})
	}
	if err := addTable(f, "Milestones", milestoneCols, milestoneRows); err != nil {
		return nil, err
	}

	documentCols := []Column{
		{Header: "File Type", Width: 14},
		{Header: "Count", Width: 10},
	}
	var documentRows [][]any
	for _, d := range rep.Documents.ByType {
		documentRows = append(documentRows, []any{d.FileType, d.Count})
	}
	if err := addTable(f, "Documents", documentCols, documentRows); err != nil {
		return nil, err
	}

	followupCols := []Column{
		{Header: "Total", Width: 10},
		{Header: "Completed", Width: 10},
		{Header: "Pending", Width: 10},
		{Header: "Missed", Width: 10},
		{Header: "Avg Response (days)", Width: 18},
	}
	fu := rep.FollowUps
	err := addTable(f, "Follow-ups", followupCols,
		[][]any{{fu.Total, fu.Completed, fu.Pending, fu.Missed, fu.AvgResponseDays}})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// LeadsWorkbook renders the lead analytics report: a summary sheet plus the
// status and source breakdowns.
func LeadsWorkbook(rep reports.LeadAnalytics) (*excelize.File, error) {
	f := excelize.NewFile()
	const summary = "Lead Analytics"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return nil, err
	}
	summaryCols := []Column{
		{Header: "Owner", Width: 24},
		{Header: "Total Leads", Width: 12},
		{Header: "Converted", Width: 10},
		{Header: "Conversion Rate (%)", Width: 18},
		{Header: "Total Follow-ups", Width: 16},
		{Header: "Completed Follow-ups", Width: 20},
		{Header: "Pending Follow-ups", Width: 18},
		{Header: "Missed Follow-ups", Width: 16},
		{Header: "Avg Response (days)", Width: 18},
	}
	row := []any{
		rep.OwnerName, rep.TotalLeads, rep.ConvertedLeads, rep.ConversionRate,
		rep.TotalFollowUps, rep.CompletedFollowUps, rep.PendingFollowUps,
		rep.MissedFollowUps, rep.AvgFollowUpResponseTime,
	}
	if err := writeTable(f, summary, summaryCols, [][]any{row}); err != nil {
		return nil, err
	}

	breakdownCols := []Column{
		{Header: "Value", Width: 20},
		{Header: "Count", Width: 10},
	}
	var statusRows [][]any
	for _, s := range rep.ByStatus {
		statusRows = append(statusRows, []any{s.Status, s.Count})
	}
	if err := addTable(f, "By Status", breakdownCols, statusRows); err != nil {
		return nil, err
	}
	var sourceRows [][]any
	for _, s := range rep.BySource {
		sourceRows = append(sourceRows, []any{s.Source, s.Count})
	}
	if err := addTable(f, "By Source", breakdownCols, sourceRows); err != nil {
		return nil, err
	}
	return f, nil
}

// DashboardWorkbook renders the dashboard as a one-row worksheet.
func DashboardWorkbook(rep reports.Dashboard) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Dashboard"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	cols := []Column{
		{Header: "Projects", Width: 10},
		{Header: "Tasks", Width: 10},
		{Header: "Completed Tasks", Width: 16},
		{Header: "Task Completion (%)", Width: 18},
		{Header: "Milestones", Width: 10},
		{Header: "Completed Milestones", Width: 20},
		{Header: "Milestone Completion (%)", Width: 22},
		{Header: "Clients", Width: 10},
		{Header: "Leads", Width: 10},
		{Header: "Converted Leads", Width: 16},
		{Header: "Conversion Rate (%)", Width: 18},
		{Header: "Top Performer", Width: 18},
	}
	row := []any{
		rep.TotalProjects,
		rep.TotalTasks, rep.CompletedTasks, rep.TaskCompletionRate,
		rep.TotalMilestones, rep.CompletedMilestones, rep.MilestoneCompletionRate,
		rep.TotalClients, rep.TotalLeads, rep.ConvertedLeads, rep.ConversionRate,
		rep.TopPerformer,
	}
	if err := writeTable(f, sheet, cols, [][]any{row}); err != nil {
		return nil, err
	}
	return f, nil
}

// Subject returns the display name used in the download filename for each
// report kind.
func Subject(rep any) string {
	switch r := rep.(type) {
	case reports.StaffPerformance:
		return r.StaffName
	case reports.ProjectPerformance:
		return r.Project.Name
	case reports.LeadAnalytics:
		if r.OwnerName != "" {
			return r.OwnerName
		}
		return "lead analytics"
	case reports.Dashboard:
		return "dashboard"
	default:
		return fmt.Sprintf("%T", rep)
	}
}
