package domain

import "time"

type User struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"created_at" format:"date-time"`
	UpdatedAt time.Time  `json:"updated_at" format:"date-time"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" format:"date-time"`
}

type Lead struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Source    string     `json:"source,omitempty"`
	Status    string     `json:"status"`
	OwnerID   *string    `json:"owner_id,omitempty"`
	CreatedAt time.Time  `json:"created_at" format:"date-time"`
	UpdatedAt time.Time  `json:"updated_at" format:"date-time"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" format:"date-time"`
}

type Client struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email,omitempty"`
	LeadID    *string    `json:"lead_id,omitempty"`
	CreatedAt time.Time  `json:"created_at" format:"date-time"`
	UpdatedAt time.Time  `json:"updated_at" format:"date-time"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" format:"date-time"`
}

type Project struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	ClientID        *string    `json:"client_id,omitempty"`
	Status          string     `json:"status"`
	Budget          *float64   `json:"budget,omitempty"`
	EstimatedCost   *float64   `json:"estimated_cost,omitempty"`
	ActualCost      *float64   `json:"actual_cost,omitempty"`
	StartDate       *time.Time `json:"start_date,omitempty" format:"date-time"`
	EndDate         *time.Time `json:"end_date,omitempty" format:"date-time"`
	ActualStartDate *time.Time `json:"actual_start_date,omitempty" format:"date-time"`
	ActualEndDate   *time.Time `json:"actual_end_date,omitempty" format:"date-time"`
	CreatedAt       time.Time  `json:"created_at" format:"date-time"`
	UpdatedAt       time.Time  `json:"updated_at" format:"date-time"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty" format:"date-time"`
}

type Milestone struct {
	ID         string     `json:"id"`
	ProjectID  string     `json:"project_id"`
	Name       string     `json:"name"`
	Status     string     `json:"status"`
	StartDate  *time.Time `json:"start_date,omitempty" format:"date-time"`
	EndDate    *time.Time `json:"end_date,omitempty" format:"date-time"`
	ActualDate *time.Time `json:"actual_date,omitempty" format:"date-time"`
	AssignedTo *string    `json:"assigned_to,omitempty"`
	CreatedAt  time.Time  `json:"created_at" format:"date-time"`
	UpdatedAt  time.Time  `json:"updated_at" format:"date-time"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty" format:"date-time"`
}

type Task struct {
	ID          string     `json:"id"`
	ProjectID   *string    `json:"project_id,omitempty"`
	MilestoneID *string    `json:"milestone_id,omitempty"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty" format:"date-time"`
	AssignedTo  *string    `json:"assigned_to,omitempty"`
	CreatedAt   time.Time  `json:"created_at" format:"date-time"`
	UpdatedAt   time.Time  `json:"updated_at" format:"date-time"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" format:"date-time"`
}

type Attachment struct {
	ID         string     `json:"id"`
	ProjectID  *string    `json:"project_id,omitempty"`
	FileName   string     `json:"file_name"`
	FileType   string     `json:"file_type"`
	UploadedBy *string    `json:"uploaded_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at" format:"date-time"`
	UpdatedAt  time.Time  `json:"updated_at" format:"date-time"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty" format:"date-time"`
}

type Followup struct {
	ID            string     `json:"id"`
	Status        string     `json:"status"`
	Note          string     `json:"note,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty" format:"date-time"`
	CompletedDate *time.Time `json:"completed_date,omitempty" format:"date-time"`
	AssignedTo    *string    `json:"assigned_to,omitempty"`
	LeadID        *string    `json:"lead_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at" format:"date-time"`
	UpdatedAt     time.Time  `json:"updated_at" format:"date-time"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty" format:"date-time"`
}

type AuditEntry struct {
	ID         int64     `json:"id"`
	TS         time.Time `json:"ts" format:"date-time"`
	Action     string    `json:"action"`
	EntityKind string    `json:"entity_kind"`
	EntityID   string    `json:"entity_id,omitempty"`
	ActorID    string    `json:"actor_id"`
	Payload    string    `json:"payload_json,omitempty"`
}
