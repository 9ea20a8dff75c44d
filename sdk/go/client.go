package opsdesksdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Opsdesk HTTP API client.
type Client struct {
	BaseURL    string
	ActorID    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// ReportFilter selects the reporting window and subject.
type ReportFilter struct {
	FromDate  string
	ToDate    string
	UserID    string
	ProjectID string
	ClientID  string
}

func (f ReportFilter) values() url.Values {
	q := url.Values{}
	if f.FromDate != "" {
		q.Set("fromDate", f.FromDate)
	}
	if f.ToDate != "" {
		q.Set("toDate", f.ToDate)
	}
	if f.UserID != "" {
		q.Set("userId", f.UserID)
	}
	if f.ProjectID != "" {
		q.Set("projectId", f.ProjectID)
	}
	if f.ClientID != "" {
		q.Set("clientId", f.ClientID)
	}
	return q
}

// StaffPerformance mirrors the staff-performance report payload.
type StaffPerformance struct {
	StaffID                 string  `json:"staff_id"`
	StaffName               string  `json:"staff_name"`
	StaffEmail              string  `json:"staff_email"`
	TotalTasksAssigned      int     `json:"total_tasks_assigned"`
	CompletedTasks          int     `json:"completed_tasks"`
	CompletionRate          float64 `json:"completion_rate"`
	AvgDaysToComplete       float64 `json:"avg_days_to_complete"`
	DelayedTasks            int     `json:"delayed_tasks"`
	MilestonesManaged       int     `json:"milestones_managed"`
	FilesUploaded           int     `json:"files_uploaded"`
	TotalFollowUps          int     `json:"total_followups"`
	CompletedFollowUps      int     `json:"completed_followups"`
	PendingFollowUps        int     `json:"pending_followups"`
	AvgFollowUpResponseTime float64 `json:"avg_followup_response_days"`
	MissedFollowUps         int     `json:"missed_followups"`
}

// LeadAnalytics mirrors the lead-analytics report payload.
type LeadAnalytics struct {
	OwnerID                 string        `json:"owner_id,omitempty"`
	OwnerName               string        `json:"owner_name,omitempty"`
	TotalLeads              int           `json:"total_leads"`
	ConvertedLeads          int           `json:"converted_leads"`
	ConversionRate          float64       `json:"conversion_rate"`
	ByStatus                []StatusCount `json:"by_status"`
	BySource                []SourceCount `json:"by_source"`
	TotalFollowUps          int           `json:"total_followups"`
	CompletedFollowUps      int           `json:"completed_followups"`
	PendingFollowUps        int           `json:"pending_followups"`
	MissedFollowUps         int           `json:"missed_followups"`
	AvgFollowUpResponseTime float64       `json:"avg_followup_response_days"`
}

// StatusCount is one by-status bucket.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// SourceCount is one by-source bucket.
type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// Dashboard mirrors the dashboard report payload.
type Dashboard struct {
	TotalProjects           int     `json:"total_projects"`
	TotalTasks              int     `json:"total_tasks"`
	CompletedTasks          int     `json:"completed_tasks"`
	TaskCompletionRate      float64 `json:"task_completion_rate"`
	TotalMilestones         int     `json:"total_milestones"`
	CompletedMilestones     int     `json:"completed_milestones"`
	MilestoneCompletionRate float64 `json:"milestone_completion_rate"`
	TotalClients            int     `json:"total_clients"`
	TotalLeads              int     `json:"total_leads"`
	ConvertedLeads          int     `json:"converted_leads"`
	ConversionRate          float64 `json:"conversion_rate"`
	TopPerformer            string  `json:"top_performer"`
}

// AuditEntry is one accounting-log row.
type AuditEntry struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	Action     string `json:"action"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json,omitempty"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

type envelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// StaffPerformance fetches the staff performance report.
func (c *Client) StaffPerformance(ctx context.Context, f ReportFilter) (StaffPerformance, error) {
	var resp envelope[StaffPerformance]
	err := c.do(ctx, http.MethodGet, "v0/reports/staff-performance?"+f.values().Encode(), nil, &resp)
	return resp.Data, err
}

// ProjectPerformance fetches the project performance report. The payload is
// returned as raw JSON; callers usually feed it straight to a renderer.
func (c *Client) ProjectPerformance(ctx context.Context, f ReportFilter) (json.RawMessage, error) {
	var resp envelope[json.RawMessage]
	err := c.do(ctx, http.MethodGet, "v0/reports/project-performance?"+f.values().Encode(), nil, &resp)
	return resp.Data, err
}

// LeadAnalytics fetches the lead analytics report.
func (c *Client) LeadAnalytics(ctx context.Context, f ReportFilter) (LeadAnalytics, error) {
	var resp envelope[LeadAnalytics]
	err := c.do(ctx, http.MethodGet, "v0/reports/lead-analytics?"+f.values().Encode(), nil, &resp)
	return resp.Data, err
}

// Dashboard fetches the operations dashboard.
func (c *Client) Dashboard(ctx context.Context, f ReportFilter) (Dashboard, error) {
	var resp envelope[Dashboard]
	err := c.do(ctx, http.MethodGet, "v0/reports/dashboard?"+f.values().Encode(), nil, &resp)
	return resp.Data, err
}

// Export downloads the xlsx variant of a report. Valid names are
// staff-performance, project-performance, lead-analytics and dashboard.
func (c *Client) Export(ctx context.Context, name string, f ReportFilter) ([]byte, string, error) {
	endpoint := fmt.Sprintf("v0/reports/%s/export?%s", url.PathEscape(name), f.values().Encode())
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base()+"/"+endpoint, nil)
	if err != nil {
		return nil, "", err
	}
	if c.ActorID != "" {
		req.Header.Set("X-Actor-Id", c.ActorID)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode >= 300 {
		return nil, "", &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, resp.Header.Get("Content-Disposition"), nil
}

// AuditLog returns recent accounting-log entries, newest first.
func (c *Client) AuditLog(ctx context.Context, entityKind string, limit int) ([]AuditEntry, error) {
	q := url.Values{}
	if entityKind != "" {
		q.Set("entityKind", entityKind)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	var resp []AuditEntry
	err := c.do(ctx, http.MethodGet, "v0/audit?"+q.Encode(), nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.ActorID != "" {
		req.Header.Set("X-Actor-Id", c.ActorID)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
