package server

import "time"

// ReportEnvelope wraps a report payload for the JSON report endpoints.
type ReportEnvelope[T any] struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message" example:"report generated"`
	Data    T      `json:"data"`
}

func okEnvelope[T any](data T) ReportEnvelope[T] {
	return ReportEnvelope[T]{Status: "success", Message: "report generated", Data: data}
}

type CreateUserRequest struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name" minLength:"1"`
	Email string `json:"email" minLength:"1"`
	Role  string `json:"role,omitempty"`
}

type UpdateUserRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Role  *string `json:"role,omitempty"`
}

type CreateLeadRequest struct {
	ID      string  `json:"id,omitempty"`
	Name    string  `json:"name" minLength:"1"`
	Source  string  `json:"source,omitempty"`
	Status  string  `json:"status,omitempty"`
	OwnerID *string `json:"owner_id,omitempty"`
}

type UpdateLeadRequest struct {
	Name    *string `json:"name,omitempty"`
	Source  *string `json:"source,omitempty"`
	Status  *string `json:"status,omitempty"`
	OwnerID *string `json:"owner_id,omitempty"`
}

type CreateClientRequest struct {
	ID     string  `json:"id,omitempty"`
	Name   string  `json:"name" minLength:"1"`
	Email  string  `json:"email,omitempty"`
	LeadID *string `json:"lead_id,omitempty"`
}

type UpdateClientRequest struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	LeadID *string `json:"lead_id,omitempty"`
}

type CreateProjectRequest struct {
	ID              string     `json:"id,omitempty"`
	Name            string     `json:"name" minLength:"1"`
	ClientID        *string    `json:"client_id,omitempty"`
	Status          string     `json:"status,omitempty"`
	Budget          *float64   `json:"budget,omitempty"`
	EstimatedCost   *float64   `json:"estimated_cost,omitempty"`
	ActualCost      *float64   `json:"actual_cost,omitempty"`
	StartDate       *time.Time `json:"start_date,omitempty" format:"date-time"`
	EndDate         *time.Time `json:"end_date,omitempty" format:"date-time"`
	ActualStartDate *time.Time `json:"actual_start_date,omitempty" format:"date-time"`
	ActualEndDate   *time.Time `json:"actual_end_date,omitempty" format:"date-time"`
}

type UpdateProjectRequest struct {
	Name            *string    `json:"name,omitempty"`
	ClientID        *string    `json:"client_id,omitempty"`
	Status          *string    `json:"status,omitempty"`
	Budget          *float64   `json:"budget,omitempty"`
	EstimatedCost   *float64   `json:"estimated_cost,omitempty"`
	ActualCost      *float64   `json:"actual_cost,omitempty"`
	StartDate       *time.Time `json:"start_date,omitempty" format:"date-time"`
	EndDate         *time.Time `json:"end_date,omitempty" format:"date-time"`
	ActualStartDate *time.Time `json:"actual_start_date,omitempty" format:"date-time"`
	ActualEndDate   *time.Time `json:"actual_end_date,omitempty" format:"date-time"`
}

type CreateMilestoneRequest struct {
	ID         string     `json:"id,omitempty"`
	ProjectID  string     `json:"project_id" minLength:"1"`
	Name       string     `json:"name" minLength:"1"`
	Status     string     `json:"status,omitempty"`
	StartDate  *time.Time `json:"start_date,omitempty" format:"date-time"`
	EndDate    *time.Time `json:"end_date,omitempty" format:"date-time"`
	ActualDate *time.Time `json:"actual_date,omitempty" format:"date-time"`
	AssignedTo *string    `json:"assigned_to,omitempty"`
}

type UpdateMilestoneRequest struct {
	Name       *string    `json:"name,omitempty"`
	Status     *string    `json:"status,omitempty"`
	StartDate  *time.Time `json:"start_date,omitempty" format:"date-time"`
	EndDate    *time.Time `json:"end_date,omitempty" format:"date-time"`
	ActualDate *time.Time `json:"actual_date,omitempty" format:"date-time"`
	AssignedTo *string    `json:"assigned_to,omitempty"`
}

type CreateTaskRequest struct {
	ID          string     `json:"id,omitempty"`
	ProjectID   *string    `json:"project_id,omitempty"`
	MilestoneID *string    `json:"milestone_id,omitempty"`
	Title       string     `json:"title" minLength:"1"`
	Status      string     `json:"status,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty" format:"date-time"`
	AssignedTo  *string    `json:"assigned_to,omitempty"`
}

type UpdateTaskRequest struct {
	ProjectID   *string    `json:"project_id,omitempty"`
	MilestoneID *string    `json:"milestone_id,omitempty"`
	Title       *string    `json:"title,omitempty"`
	Status      *string    `json:"status,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty" format:"date-time"`
	AssignedTo  *string    `json:"assigned_to,omitempty"`
}

type CreateAttachmentRequest struct {
	ID         string  `json:"id,omitempty"`
	ProjectID  *string `json:"project_id,omitempty"`
	FileName   string  `json:"file_name" minLength:"1"`
	FileType   string  `json:"file_type" minLength:"1"`
	UploadedBy *string `json:"uploaded_by,omitempty"`
}

type UpdateAttachmentRequest struct {
	ProjectID  *string `json:"project_id,omitempty"`
	FileName   *string `json:"file_name,omitempty"`
	FileType   *string `json:"file_type,omitempty"`
	UploadedBy *string `json:"uploaded_by,omitempty"`
}

type CreateFollowupRequest struct {
	ID            string     `json:"id,omitempty"`
	Status        string     `json:"status,omitempty"`
	Note          string     `json:"note,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty" format:"date-time"`
	CompletedDate *time.Time `json:"completed_date,omitempty" format:"date-time"`
	AssignedTo    *string    `json:"assigned_to,omitempty"`
	LeadID        *string    `json:"lead_id,omitempty"`
}

type UpdateFollowupRequest struct {
	Status        *string    `json:"status,omitempty"`
	Note          *string    `json:"note,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty" format:"date-time"`
	CompletedDate *time.Time `json:"completed_date,omitempty" format:"date-time"`
	AssignedTo    *string    `json:"assigned_to,omitempty"`
	LeadID        *string    `json:"lead_id,omitempty"`
}
