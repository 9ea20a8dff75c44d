package server

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"opsdesk/internal/audit"
	"opsdesk/internal/domain"
	"opsdesk/internal/repo"
)

// Record CRUD endpoints. These are routine plumbing: the reporting engine is
// the read-heavy surface, records exist so a deployment is usable end to end.
// Every mutation lands one accounting-log row.

func orID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func actorOr(id string) string {
	if id == "" {
		return "system"
	}
	return id
}

func listRange(fromS, toS string) (repo.Range, error) {
	from, err := parseDate(fromS, "fromDate")
	if err != nil {
		return repo.Range{}, err
	}
	to, err := parseDate(toS, "toDate")
	if err != nil {
		return repo.Range{}, err
	}
	if to != nil {
		t := to.Add(24*time.Hour - time.Second)
		to = &t
	}
	return repo.Range{From: from, To: to}, nil
}

type listQuery struct {
	From   string `query:"fromDate" example:"2025-01-01"`
	To     string `query:"toDate" example:"2025-01-31"`
	Limit  uint64 `query:"limit"`
	Offset uint64 `query:"offset"`
}

var crudErrors = []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError}

func registerUsers(api huma.API, r repo.Repo, aud audit.Writer) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-user",
		Method:        http.MethodPost,
		Path:          "/users",
		Summary:       "Create user",
		DefaultStatus: http.StatusCreated,
		Errors:        crudErrors,
	}, func(ctx context.Context, input *struct {
		ActorID string            `header:"X-Actor-Id"`
		Body    CreateUserRequest `json:"body"`
	}) (*struct {
		Body domain.User `json:"body"`
	}, error) {
		now := time.Now().UTC()
		u := domain.User{
			ID: orID(input.Body.ID), Name: input.Body.Name, Email: input.Body.Email,
			Role: input.Body.Role, CreatedAt: now, UpdatedAt: now,
		}
		if u.Role == "" {
			u.Role = "staff"
		}
		if err := r.InsertUser(ctx, u); err != nil {
			return nil, handleError(err)
		}
		if err := aud.Append(ctx, "user.created", "user", u.ID, actorOr(input.ActorID), nil); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.User `json:"body"`
		}{Body: u}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List users",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		listQuery
		Role string `query:"role"`
	}) (*struct {
		Body []domain.User `json:"body"`
	}, error) {
		created, err := listRange(input.From, input.To)
		if err != nil {
			return nil, handleError(err)
		}
		items, err := r.ListUsers(ctx, repo.UserFilters{
			Role: input.Role, Created: created, Limit: input.Limit, Offset: input.Offset,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.User `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-user",
		Method:      http.MethodGet,
		Path:        "/users/{user_id}",
		Summary:     "Get user",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		UserID string `path:"user_id"`
	}) (*struct {
		Body domain.User `json:"body"`
	}, error) {
		u, err := r.GetUser(ctx, input.UserID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.User `json:"body"`
		}{Body: u}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-user",
		Method:      http.MethodPatch,
		Path:        "/users/{user_id}",
		Summary:     "Update user",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		UserID  string            `path:"user_id"`
		ActorID string            `header:"X-Actor-Id"`
		Body    UpdateUserRequest `json:"body"`
	}) (*struct {
		Body domain.User `json:"body"`
	}, error) {
		u, err := r.GetUser(ctx, input.UserID)
		if err != nil {
			return nil, handleError(err)
		}
		if input.Body.Name != nil {
			u.Name = *input.Body.Name
		}
		if input.Body.Email != nil {
			u.Email = *input.Body.Email
		}
		if input.Body.Role != nil {
			u.Role = *input.Body.Role
		}
		u.UpdatedAt = time.Now().UTC()
		if err := r.UpdateUser(ctx, u); err != nil {
			return nil, handleError(err)
		}
		if err := aud.Append(ctx, "user.updated", "user", u.ID, actorOr(input.ActorID), nil); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.User `json:"body"`
		}{Body: u}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-user",
		Method:      http.MethodDelete,
		Path:        "/users/{user_id}",
		Summary:     "Delete user",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		UserID  string `path:"user_id"`
		ActorID string `header:"X-Actor-Id"`
	}) (*struct{}, error) {
		if err := r.DeleteUser(ctx, input.UserID, time.Now().UTC()); err != nil {
			return nil, handleError(err)
		}
		if err := aud.Append(ctx, "user.deleted", "user", input.UserID, actorOr(input.ActorID), nil); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerLeads(api huma.API, r repo.Repo, aud audit.Writer) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-lead",
		Method:        http.MethodPost,
		Path:          "/leads",
		Summary:       "Create lead",
		DefaultStatus: http.StatusCreated,
		Errors:        crudErrors,
	}, func(ctx context.Context, input *struct {
		ActorID string            `header:"X-Actor-Id"`
		Body    CreateLeadRequest `json:"body"`
	}) (*struct {
		Body domain.Lead `json:"body"`
	}, error) {
		now := time.Now().UTC()
		l := domain.Lead{
			ID: orID(input.Body.ID), Name: input.Body.Name, Source: input.Body.Source,
			Status: input.Body.Status, OwnerID: input.Body.OwnerID,
			CreatedAt: now, UpdatedAt: now,
		}
		if l.Status == "" {
			l.Status = "new"
		}
		if err := r.InsertLead(ctx, l); err != nil {
			return nil, handleError(err)
		}
		if err := aud.Append(ctx, "lead.created", "lead", l.ID, actorOr(input.ActorID), nil); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Lead `json:"body"`
		}{Body: l}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-leads",
		Method:      http.MethodGet,
		Path:        "/leads",
		Summary:     "List leads",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		listQuery
		OwnerID string `query:"ownerId"`
		Status  string `query:"status"`
	}) (*struct {
		Body []domain.Lead `json:"body"`
	}, error) {
		created, err := listRange(input.From, input.To)
		if err != nil {
			return nil, handleError(err)
		}
		items, err := r.ListLeads(ctx, repo.LeadFilters{
			OwnerID: input.OwnerID, Status: input.Status,
			Created: created, Limit: input.Limit, Offset: input.Offset,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Lead `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-lead",
		Method:      http.MethodGet,
		Path:        "/leads/{lead_id}",
		Summary:     "Get lead",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		LeadID string `path:"lead_id"`
	}) (*struct {
		Body domain.Lead `json:"body"`
	}, error) {
		l, err := r.GetLead(ctx, input.LeadID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Lead `json:"body"`
		}{Body: l}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-lead",
		Method:      http.MethodPatch,
		Path:        "/leads/{lead_id}",
		Summary:     "Update lead",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		LeadID  string            `path:"lead_id"`
		ActorID string            `header:"X-Actor-Id"`
		Body    UpdateLeadRequest `json:"body"`
	}) (*struct {
		Body domain.Lead `json:"body"`
	}, error) {
		l, err := r.GetLead(ctx, input.LeadID)
		if err != nil {
			return nil, handleError(err)
		}
		if input.Body.Name != nil {
			l.Name = *input.Body.Name
		}
		if input.Body.Source != nil {
			l.Source = *input.Body.Source
		}
		if input.Body.Status != nil {
			l.Status = *input.Body.Status
		}
		if input.Body.OwnerID != nil {
			l.OwnerID = input.Body.OwnerID
		}
		l.UpdatedAt = time.Now().UTC()
		if err := r.UpdateLead(ctx, l); err != nil {
			return nil, handleError(err)
		}
		if err := aud.Append(ctx, "lead.updated", "lead", l.ID, actorOr(input.ActorID), nil); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Lead `json:"body"`
		}{Body: l}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-lead",
		Method:      http.MethodDelete,
		Path:        "/leads/{lead_id}",
		Summary:     "Delete lead",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		LeadID  string `path:"lead_id"`
		ActorID string `header:"X-Actor-Id"`
	}) (*struct{}, error) {
		if err := r.DeleteLead(ctx, input.LeadID, time.Now().UTC()); err != nil {
			return nil, handleError(err)
		}
		if err := aud.Append(ctx, "lead.deleted", "lead", input.LeadID, actorOr(input.ActorID), nil); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerClients(api huma.API, r repo.Repo, aud audit.Writer) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-client",
		Method:        http.MethodPost,
		Path:          "/clients",
		Summary:       "Create client",
		DefaultStatus: http.StatusCreated,
		Errors:        crudErrors,
	}, func(ctx context.Context, input *struct {
		ActorID string              `header:"X-Actor-Id"`
		Body    CreateClientRequest `json:"body"`
	}) (*struct {
		Body domain.Client `json:"body"`
	}, error) {
		now := time.Now().UTC()
		c := domain.Client{
			ID: orID(input.Body.ID), Name: input.Body.Name, Email: input.Body.Email,
			LeadID: input.Body.LeadID, CreatedAt: now, UpdatedAt: now,
		}
		if err := r.InsertClient(ctx, c); err != nil {
			return nil, handleError(err)
		}
		if err := aud.Append(ctx, "client.created", "client", c.ID, actorOr(input.ActorID), nil); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Client `json:"body"`
		}{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-clients",
		Method:      http.MethodGet,
		Path:        "/clients",
		Summary:     "List clients",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		listQuery
		LeadID string `query:"leadId"`
	}) (*struct {
		Body []domain.Client `json:"body"`
	}, error) {
		created, err := listRange(input.From, input.To)
		if err != nil {
			return nil, handleError(err)
		}
		items, err := r.ListClients(ctx, repo.ClientFilters{
			LeadID: input.LeadID, Created: created, Limit: input.Limit, Offset: input.Offset,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Client `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-client",
		Method:      http.MethodGet,
		Path:        "/clients/{client_id}",
		Summary:     "Get client",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		ClientID string `path:"client_id"`
	}) (*struct {
		Body domain.Client `json:"body"`
	}, error) {
		c, err := r.GetClient(ctx, input.ClientID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Client `json:"body"`
		}{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-client",
		Method:      http.MethodPatch,
		Path:        "/clients/{client_id}",
		Summary:     "Update client",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		ClientID string              `path:"client_id"`
		ActorID  string              `header:"X-Actor-Id"`
		Body     UpdateClientRequest `json:"body"`
	}) (*struct {
		Body domain.Client `json:"body"`
	}, error) {
		c, err := r.GetClient(ctx, input.ClientID)
		if err != nil {
			return nil, handleError(err)
		}
		if input.Body.Name != nil {
			c.Name = *input.Body.Name
		}
		if input.Body.Email != nil {
			c.Email = *input.Body.Email
		}
		if input.Body.LeadID != nil {
			c.LeadID = input.Body.LeadID
		}
		c.UpdatedAt = time.Now().UTC()
		if err := r.UpdateClient(ctx, c); err != nil {
			return nil, handleError(err)
		}
		if err := aud.Append(ctx, "client.updated", "client", c.ID, actorOr(input.ActorID), nil); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Client `json:"body"`
		}{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-client",
		Method:      http.MethodDelete,
		Path:        "/clients/{client_id}",
		Summary:     "Delete client",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		ClientID string `path:"client_id"`
		ActorID  string `header:"X-Actor-Id"`
	}) (*struct{}, error) {
		if err := r.DeleteClient(ctx, input.ClientID, time.Now().UTC()); err != nil {
			return nil, handleError(err)
		}
		if err := aud.Append(ctx, "client.deleted", "client", input.ClientID, actorOr(input.ActorID), nil); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerProjects(api huma.API, r repo.Repo, aud audit.Writer) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Create project",
		DefaultStatus: http.StatusCreated,
		Errors:        crudErrors,
	}, func(ctx context.Context, input *struct {
		ActorID string               `header:"X-Actor-Id"`
		Body    CreateProjectRequest `json:"body"`
	}) (*struct {
		Body domain.Project `json:"body"`
	}, error) {
		now := time.Now().UTC()
		p := domain.Project{
			ID: orID(input.Body.ID), Name: input.Body.Name, ClientID: input.Body.ClientID,
			Status: input.Body.Status, Budget: input.Body.Budget,
			EstimatedCost: input.Body.EstimatedCost, ActualCost: input.Body.ActualCost,
			StartDate: input.Body.StartDate, EndDate: input.Body.EndDate,
			ActualStartDate: input.Body.ActualStartDate, ActualEndDate: input.Body.ActualEndDate,
			CreatedAt: now, UpdatedAt: now,
		}
		if p.Status == "" {
			p.Status = "active"
		}
		if err := r.InsertProject(ctx, p); err != nil {
			return nil, handleError(err)
		}
		if err := aud.Append(ctx, "project.created", "project", p.ID, actorOr(input.ActorID), nil); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Project `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		listQuery
		ClientID string `query:"clientId"`
		Status   string `query:"status"`
	}) (*struct {
		Body []domain.Project `json:"body"`
	}, error) {
		created, err := listRange(input.From, input.To)
		if err != nil {
			return nil, handleError(err)
		}
		items, err := r.ListProjects(ctx, repo.ProjectFilters{
			ClientID: input.ClientID, Status: input.Status,
			Created: created, Limit: input.Limit, Offset: input.Offset,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Project `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}",
		Summary:     "Get project",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body domain.Project `json:"body"`
	}, error) {
		p, err := r.GetProject(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Project `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-project",
		Method:      http.MethodPatch,
		Path:        "/projects/{project_id}",
		Summary:     "Update project",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		ProjectID string               `path:"project_id"`
		ActorID   string               `header:"X-Actor-Id"`
		Body      UpdateProjectRequest `json:"body"`
	}) (*struct {
		Body domain.Project `json:"body"`
	}, error) {
		p, err := r.GetProject(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		if input.Body.Name != nil {
			p.Name = *input.Body.Name
		}
		if input.Body.ClientID != nil {
			p.ClientID = input.Body.ClientID
		}
		if input.Body.Status != nil {
			p.Status = *input.Body.Status
		}
		if input.Body.Budget != nil {
			p.Budget = input.Body.Budget
		}
		if input.Body.EstimatedCost != nil {
			p.EstimatedCost = input.Body.EstimatedCost
		}
		if input.Body.ActualCost != nil {
			p.ActualCost = input.Body.ActualCost
		}
		if input.Body.StartDate != nil {
			p.StartDate = input.Body.StartDate
		}
		if input.Body.EndDate != nil {
			p.EndDate = input.Body.EndDate
		}
		if input.Body.ActualStartDate != nil {
			p.ActualStartDate = input.Body.ActualStartDate
		}
		if input.Body.ActualEndDate != nil {
			p.ActualEndDate = input.Body.ActualEndDate
		}
		p.UpdatedAt = time.Now().UTC()
		if err := r.UpdateProject(ctx, p); err != nil {
			return nil, handleError(err)
		}
		if err := aud.Append(ctx, "project.updated", "project", p.ID, actorOr(input.ActorID), nil); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Project `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-project",
		Method:      http.MethodDelete,
		Path:        "/projects/{project_id}",
		Summary:     "Delete project",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
		ActorID   string `header:"X-Actor-Id"`
	}) (*struct{}, error) {
		if err := r.DeleteProject(ctx, input.ProjectID, time.Now().UTC()); err != nil {
			return nil, handleError(err)
		}
		if err := aud.Append(ctx, "project.deleted", "project", input.ProjectID, actorOr(input.ActorID), nil); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerMilestones(api huma.API, r repo.Repo, aud audit.Writer) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-milestone",
		Method:        http.MethodPost,
		Path:          "/milestones",
		Summary:       "Create milestone",
		DefaultStatus: http.StatusCreated,
		Errors:        crudErrors,
	}, func(ctx context.Context, input *struct {
		ActorID string                 `header:"X-Actor-Id"`
		Body    CreateMilestoneRequest `json:"body"`
	}) (*struct {
		Body domain.Milestone `json:"body"`
	}, error) {
		now := time.Now().UTC()
		m := domain.Milestone{
			ID: orID(input.Body.ID), ProjectID: input.Body.ProjectID, Name: input.Body.Name,
			Status: input.Body.Status, StartDate: input.Body.StartDate, EndDate: input.Body.EndDate,
			ActualDate: input.Body.ActualDate, AssignedTo: input.Body.AssignedTo,
			CreatedAt: now, UpdatedAt: now,
		}
		if m.Status == "" {
			m.Status = "pending"
		}
		if err := r.InsertMilestone(ctx, m); err != nil {
			return nil, handleError(err)
		}
		if err := aud.Append(ctx, "milestone.created", "milestone", m.ID, actorOr(input.ActorID), nil); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Milestone `json:"body"`
		}{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-milestones",
		Method:      http.MethodGet,
		Path:        "/milestones",
		Summary:     "List milestones",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		listQuery
		ProjectID  string `query:"projectId"`
		AssignedTo string `query:"assignedTo"`
		Status     string `query:"status"`
	}) (*struct {
		Body []domain.Milestone `json:"body"`
	}, error) {
		created, err := listRange(input.From, input.To)
		if err != nil {
			return nil, handleError(err)
		}
		items, err := r.ListMilestones(ctx, repo.MilestoneFilters{
			ProjectID: input.ProjectID, AssignedTo: input.AssignedTo, Status: input.Status,
			Created: created, Limit: input.Limit, Offset: input.Offset,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Milestone `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-milestone",
		Method:      http.MethodGet,
		Path:        "/milestones/{milestone_id}",
		Summary:     "Get milestone",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		MilestoneID string `path:"milestone_id"`
	}) (*struct {
		Body domain.Milestone `json:"body"`
	}, error) {
		m, err := r.GetMilestone(ctx, input.MilestoneID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Milestone `json:"body"`
		}{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-milestone",
		Method:      http.MethodPatch,
		Path:        "/milestones/{milestone_id}",
		Summary:     "Update milestone",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		MilestoneID string                 `path:"milestone_id"`
		ActorID     string                 `header:"X-Actor-Id"`
		Body        UpdateMilestoneRequest `json:"body"`
	}) (*struct {
		Body domain.Milestone `json:"body"`
	}, error) {
		m, err := r.GetMilestone(ctx, input.MilestoneID)
		if err != nil {
			return nil, handleError(err)
		}
		if input.Body.Name != nil {
			m.Name = *input.Body.Name
		}
		if input.Body.Status != nil {
			m.Status = *input.Body.Status
		}
		if input.Body.StartDate != nil {
			m.StartDate = input.Body.StartDate
		}
		if input.Body.EndDate != nil {
			m.EndDate = input.Body.EndDate
		}
		if input.Body.ActualDate != nil {
			m.ActualDate = input.Body.ActualDate
		}
		if input.Body.AssignedTo != nil {
			m.AssignedTo = input.Body.AssignedTo
		}
		m.UpdatedAt = time.Now().UTC()
		if err := r.UpdateMilestone(ctx, m); err != nil {
			return nil, handleError(err)
		}
		if err := aud.Append(ctx, "milestone.updated", "milestone", m.ID, actorOr(input.ActorID), nil); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Milestone `json:"body"`
		}{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-milestone",
		Method:      http.MethodDelete,
		Path:        "/milestones/{milestone_id}",
		Summary:     "Delete milestone",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		MilestoneID string `path:"milestone_id"`
		ActorID     string `header:"X-Actor-Id"`
	}) (*struct{}, error) {
		if err := r.DeleteMilestone(ctx, input.MilestoneID, time.Now().UTC()); err != nil {
			return nil, handleError(err)
		}
		if err := aud.Append(ctx, "milestone.deleted", "milestone", input.MilestoneID, actorOr(input.ActorID), nil); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerTasks(api huma.API, r repo.Repo, aud audit.Writer) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Create task",
		DefaultStatus: http.StatusCreated,
		Errors:        crudErrors,
	}, func(ctx context.Context, input *struct {
		ActorID string            `header:"X-Actor-Id"`
		Body    CreateTaskRequest `json:"body"`
	}) (*struct {
		Body domain.Task `json:"body"`
	}, error) {
		now := time.Now().UTC()
		t := domain.Task{
			ID: orID(input.Body.ID), ProjectID: input.Body.ProjectID,
			MilestoneID: input.Body.MilestoneID, Title: input.Body.Title,
			Status: input.Body.Status, DueDate: input.Body.DueDate,
			AssignedTo: input.Body.AssignedTo, CreatedAt: now, UpdatedAt: now,
		}
		if t.Status == "" {
			t.Status = "pending"
		}
		if err := r.InsertTask(ctx, t); err != nil {
			return nil, handleError(err)
		}
		if err := aud.Append(ctx, "task.created", "task", t.ID, actorOr(input.ActorID), nil); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Task `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		listQuery
		ProjectID   string `query:"projectId"`
		MilestoneID string `query:"milestoneId"`
		AssignedTo  string `query:"assignedTo"`
		Status      string `query:"status"`
	}) (*struct {
		Body []domain.Task `json:"body"`
	}, error) {
		created, err := listRange(input.From, input.To)
		if err != nil {
			return nil, handleError(err)
		}
		items, err := r.ListTasks(ctx, repo.TaskFilters{
			ProjectID: input.ProjectID, MilestoneID: input.MilestoneID,
			AssignedTo: input.AssignedTo, Status: input.Status,
			Created: created, Limit: input.Limit, Offset: input.Offset,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Task `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{task_id}",
		Summary:     "Get task",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		TaskID string `path:"task_id"`
	}) (*struct {
		Body domain.Task `json:"body"`
	}, error) {
		t, err := r.GetTask(ctx, input.TaskID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Task `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPatch,
		Path:        "/tasks/{task_id}",
		Summary:     "Update task",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		TaskID  string            `path:"task_id"`
		ActorID string            `header:"X-Actor-Id"`
		Body    UpdateTaskRequest `json:"body"`
	}) (*struct {
		Body domain.Task `json:"body"`
	}, error) {
		t, err := r.GetTask(ctx, input.TaskID)
		if err != nil {
			return nil, handleError(err)
		}
		if input.Body.ProjectID != nil {
			t.ProjectID = input.Body.ProjectID
		}
		if input.Body.MilestoneID != nil {
			t.MilestoneID = input.Body.MilestoneID
		}
		if input.Body.Title != nil {
			t.Title = *input.Body.Title
		}
		if input.Body.Status != nil {
			t.Status = *input.Body.Status
		}
		if input.Body.DueDate != nil {
			t.DueDate = input.Body.DueDate
		}
		if input.Body.AssignedTo != nil {
			t.AssignedTo = input.Body.AssignedTo
		}
		t.UpdatedAt = time.Now().UTC()
		if err := r.UpdateTask(ctx, t); err != nil {
			return nil, handleError(err)
		}
		if err := aud.Append(ctx, "task.updated", "task", t.ID, actorOr(input.ActorID), nil); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Task `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-task",
		Method:      http.MethodDelete,
		Path:        "/tasks/{task_id}",
		Summary:     "Delete task",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		TaskID  string `path:"task_id"`
		ActorID string `header:"X-Actor-Id"`
	}) (*struct{}, error) {
		if err := r.DeleteTask(ctx, input.TaskID, time.Now().UTC()); err != nil {
			return nil, handleError(err)
		}
		if err := aud.Append(ctx, "task.deleted", "task", input.TaskID, actorOr(input.ActorID), nil); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerAttachments(api huma.API, r repo.Repo, aud audit.Writer) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-attachment",
		Method:        http.MethodPost,
		Path:          "/attachments",
		Summary:       "Register attachment metadata",
		DefaultStatus: http.StatusCreated,
		Errors:        crudErrors,
	}, func(ctx context.Context, input *struct {
		ActorID string                  `header:"X-Actor-Id"`
		Body    CreateAttachmentRequest `json:"body"`
	}) (*struct {
		Body domain.Attachment `json:"body"`
	}, error) {
		now := time.Now().UTC()
		a := domain.Attachment{
			ID: orID(input.Body.ID), ProjectID: input.Body.ProjectID,
			FileName: input.Body.FileName, FileType: input.Body.FileType,
			UploadedBy: input.Body.UploadedBy, CreatedAt: now, UpdatedAt: now,
		}
		if err := r.InsertAttachment(ctx, a); err != nil {
			return nil, handleError(err)
		}
		if err := aud.Append(ctx, "attachment.created", "attachment", a.ID, actorOr(input.ActorID), nil); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Attachment `json:"body"`
		}{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-attachments",
		Method:      http.MethodGet,
		Path:        "/attachments",
		Summary:     "List attachments",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		listQuery
		ProjectID  string `query:"projectId"`
		UploadedBy string `query:"uploadedBy"`
		FileType   string `query:"fileType"`
	}) (*struct {
		Body []domain.Attachment `json:"body"`
	}, error) {
		created, err := listRange(input.From, input.To)
		if err != nil {
			return nil, handleError(err)
		}
		items, err := r.ListAttachments(ctx, repo.AttachmentFilters{
			ProjectID: input.ProjectID, UploadedBy: input.UploadedBy, FileType: input.FileType,
			Created: created, Limit: input.Limit, Offset: input.Offset,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Attachment `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-attachment",
		Method:      http.MethodGet,
		Path:        "/attachments/{attachment_id}",
		Summary:     "Get attachment metadata",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		AttachmentID string `path:"attachment_id"`
	}) (*struct {
		Body domain.Attachment `json:"body"`
	}, error) {
		a, err := r.GetAttachment(ctx, input.AttachmentID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Attachment `json:"body"`
		}{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-attachment",
		Method:      http.MethodPatch,
		Path:        "/attachments/{attachment_id}",
		Summary:     "Update attachment metadata",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		AttachmentID string                  `path:"attachment_id"`
		ActorID      string                  `header:"X-Actor-Id"`
		Body         UpdateAttachmentRequest `json:"body"`
	}) (*struct {
		Body domain.Attachment `json:"body"`
	}, error) {
		a, err := r.GetAttachment(ctx, input.AttachmentID)
		if err != nil {
			return nil, handleError(err)
		}
		if input.Body.ProjectID != nil {
			a.ProjectID = input.Body.ProjectID
		}
		if input.Body.FileName != nil {
			a.FileName = *input.Body.FileName
		}
		if input.Body.FileType != nil {
			a.FileType = *input.Body.FileType
		}
		if input.Body.UploadedBy != nil {
			a.UploadedBy = input.Body.UploadedBy
		}
		a.UpdatedAt = time.Now().UTC()
		if err := r.UpdateAttachment(ctx, a); err != nil {
			return nil, handleError(err)
		}
		if err := aud.Append(ctx, "attachment.updated", "attachment", a.ID, actorOr(input.ActorID), nil); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Attachment `json:"body"`
		}{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-attachment",
		Method:      http.MethodDelete,
		Path:        "/attachments/{attachment_id}",
		Summary:     "Delete attachment metadata",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		AttachmentID string `path:"attachment_id"`
		ActorID      string `header:"X-Actor-Id"`
	}) (*struct{}, error) {
		if err := r.DeleteAttachment(ctx, input.AttachmentID, time.Now().UTC()); err != nil {
			return nil, handleError(err)
		}
		if err := aud.Append(ctx, "attachment.deleted", "attachment", input.AttachmentID, actorOr(input.ActorID), nil); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerFollowups(api huma.API, r repo.Repo, aud audit.Writer) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-followup",
		Method:        http.MethodPost,
		Path:          "/followups",
		Summary:       "Create followup",
		DefaultStatus: http.StatusCreated,
		Errors:        crudErrors,
	}, func(ctx context.Context, input *struct {
		ActorID string                `header:"X-Actor-Id"`
		Body    CreateFollowupRequest `json:"body"`
	}) (*struct {
		Body domain.Followup `json:"body"`
	}, error) {
		now := time.Now().UTC()
		fu := domain.Followup{
			ID: orID(input.Body.ID), Status: input.Body.Status, Note: input.Body.Note,
			DueDate: input.Body.DueDate, CompletedDate: input.Body.CompletedDate,
			AssignedTo: input.Body.AssignedTo, LeadID: input.Body.LeadID,
			CreatedAt: now, UpdatedAt: now,
		}
		if fu.Status == "" {
			fu.Status = "pending"
		}
		if err := r.InsertFollowup(ctx, fu); err != nil {
			return nil, handleError(err)
		}
		if err := aud.Append(ctx, "followup.created", "followup", fu.ID, actorOr(input.ActorID), nil); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Followup `json:"body"`
		}{Body: fu}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-followups",
		Method:      http.MethodGet,
		Path:        "/followups",
		Summary:     "List followups",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		listQuery
		AssignedTo string `query:"assignedTo"`
		LeadID     string `query:"leadId"`
		Status     string `query:"status"`
	}) (*struct {
		Body []domain.Followup `json:"body"`
	}, error) {
		created, err := listRange(input.From, input.To)
		if err != nil {
			return nil, handleError(err)
		}
		items, err := r.ListFollowups(ctx, repo.FollowupFilters{
			AssignedTo: input.AssignedTo, LeadID: input.LeadID, Status: input.Status,
			Created: created, Limit: input.Limit, Offset: input.Offset,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Followup `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-followup",
		Method:      http.MethodGet,
		Path:        "/followups/{followup_id}",
		Summary:     "Get followup",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		FollowupID string `path:"followup_id"`
	}) (*struct {
		Body domain.Followup `json:"body"`
	}, error) {
		fu, err := r.GetFollowup(ctx, input.FollowupID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Followup `json:"body"`
		}{Body: fu}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-followup",
		Method:      http.MethodPatch,
		Path:        "/followups/{followup_id}",
		Summary:     "Update followup",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		FollowupID string                `path:"followup_id"`
		ActorID    string                `header:"X-Actor-Id"`
		Body       UpdateFollowupRequest `json:"body"`
	}) (*struct {
		Body domain.Followup `json:"body"`
	}, error) {
		fu, err := r.GetFollowup(ctx, input.FollowupID)
		if err != nil {
			return nil, handleError(err)
		}
		if input.Body.Status != nil {
			fu.Status = *input.Body.Status
		}
		if input.Body.Note != nil {
			fu.Note = *input.Body.Note
		}
		if input.Body.DueDate != nil {
			fu.DueDate = input.Body.DueDate
		}
		if input.Body.CompletedDate != nil {
			fu.CompletedDate = input.Body.CompletedDate
		}
		if input.Body.AssignedTo != nil {
			fu.AssignedTo = input.Body.AssignedTo
		}
		if input.Body.LeadID != nil {
			fu.LeadID = input.Body.LeadID
		}
		fu.UpdatedAt = time.Now().UTC()
		if err := r.UpdateFollowup(ctx, fu); err != nil {
			return nil, handleError(err)
		}
		if err := aud.Append(ctx, "followup.updated", "followup", fu.ID, actorOr(input.ActorID), nil); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Followup `json:"body"`
		}{Body: fu}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-followup",
		Method:      http.MethodDelete,
		Path:        "/followups/{followup_id}",
		Summary:     "Delete followup",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		FollowupID string `path:"followup_id"`
		ActorID    string `header:"X-Actor-Id"`
	}) (*struct{}, error) {
		if err := r.DeleteFollowup(ctx, input.FollowupID, time.Now().UTC()); err != nil {
			return nil, handleError(err)
		}
		if err := aud.Append(ctx, "followup.deleted", "followup", input.FollowupID, actorOr(input.ActorID), nil); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerAuditLog(api huma.API, r repo.Repo) {
	huma.Register(api, huma.Operation{
		OperationID: "list-audit-entries",
		Method:      http.MethodGet,
		Path:        "/audit",
		Summary:     "List accounting-log entries",
		Errors:      crudErrors,
	}, func(ctx context.Context, input *struct {
		Action     string `query:"action"`
		EntityKind string `query:"entityKind"`
		EntityID   string `query:"entityId"`
		Limit      uint64 `query:"limit"`
	}) (*struct {
		Body []domain.AuditEntry `json:"body"`
	}, error) {
		items, err := r.LatestAudit(ctx, repo.AuditFilters{
			Action: input.Action, EntityKind: input.EntityKind,
			EntityID: input.EntityID, Limit: input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.AuditEntry `json:"body"`
		}{Body: items}, nil
	})
}
