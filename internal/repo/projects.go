package repo

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"opsdesk/internal/domain"
)

var projectCols = []string{
	"id", "name", "client_id", "status", "budget", "estimated_cost", "actual_cost",
	"start_date", "end_date", "actual_start_date", "actual_end_date",
	"created_at", "updated_at", "deleted_at",
}

func scanProject(scan func(...any) error) (domain.Project, error) {
	var p domain.Project
	var clientID, startDate, endDate, actualStart, actualEnd, deleted sql.NullString
	var budget, estimated, actual sql.NullFloat64
	var created, updated string
	if err := scan(&p.ID, &p.Name, &clientID, &p.Status, &budget, &estimated, &actual,
		&startDate, &endDate, &actualStart, &actualEnd, &created, &updated, &deleted); err != nil {
		return p, err
	}
	p.ClientID = strP(clientID)
	p.Budget = floatP(budget)
	p.EstimatedCost = floatP(estimated)
	p.ActualCost = floatP(actual)
	p.StartDate = timePtr(startDate)
	p.EndDate = timePtr(endDate)
	p.ActualStartDate = timePtr(actualStart)
	p.ActualEndDate = timePtr(actualEnd)
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	p.DeletedAt = timePtr(deleted)
	return p, nil
}

func (r Repo) InsertProject(ctx context.Context, p domain.Project) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO projects(id,name,client_id,status,budget,estimated_cost,actual_cost,start_date,end_date,actual_start_date,actual_end_date,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Name, nullableStr(p.ClientID), p.Status,
		nullableFloat(p.Budget), nullableFloat(p.EstimatedCost), nullableFloat(p.ActualCost),
		fmtTimePtr(p.StartDate), fmtTimePtr(p.EndDate), fmtTimePtr(p.ActualStartDate), fmtTimePtr(p.ActualEndDate),
		fmtTime(p.CreatedAt), fmtTime(p.UpdatedAt))
	return err
}

func (r Repo) GetProject(ctx context.Context, id string) (domain.Project, error) {
	query, args, err := qb.Select(projectCols...).From("projects").
		Where(sq.Eq{"id": id, "deleted_at": nil}).ToSql()
	if err != nil {
		return domain.Project{}, err
	}
	p, err := scanProject(r.DB.QueryRowContext(ctx, query, args...).Scan)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	return p, err
}

func (r Repo) UpdateProject(ctx context.Context, p domain.Project) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE projects SET name=?, client_id=?, status=?, budget=?, estimated_cost=?, actual_cost=?, start_date=?, end_date=?, actual_start_date=?, actual_end_date=?, updated_at=? WHERE id=? AND deleted_at IS NULL`,
		p.Name, nullableStr(p.ClientID), p.Status,
		nullableFloat(p.Budget), nullableFloat(p.EstimatedCost), nullableFloat(p.ActualCost),
		fmtTimePtr(p.StartDate), fmtTimePtr(p.EndDate), fmtTimePtr(p.ActualStartDate), fmtTimePtr(p.ActualEndDate),
		fmtTime(p.UpdatedAt), p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteProject(ctx context.Context, id string, now time.Time) error {
	return r.softDelete(ctx, "projects", id, now)
}

type ProjectFilters struct {
	ClientID       string
	Status         string
	Created        Range
	IncludeDeleted bool
	Limit          uint64
	Offset         uint64
}

func (r Repo) ListProjects(ctx context.Context, f ProjectFilters) ([]domain.Project, error) {
	b := qb.Select(projectCols...).From("projects")
	b = notDeleted(b, f.IncludeDeleted)
	if f.ClientID != "" {
		b = b.Where(sq.Eq{"client_id": f.ClientID})
	}
	if f.Status != "" {
		b = b.Where(sq.Expr("LOWER(status)=LOWER(?)", f.Status))
	}
	b = f.Created.apply(b, "created_at")
	b = paginate(b.OrderBy("created_at DESC", "id DESC"), f.Limit, f.Offset)
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Project
	for rows.Next() {
		p, err := scanProject(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// LatestProjectForClient returns the client's most recently created project.
func (r Repo) LatestProjectForClient(ctx context.Context, clientID string) (domain.Project, error) {
	projects, err := r.ListProjects(ctx, ProjectFilters{ClientID: clientID, Limit: 1})
	if err != nil {
		return domain.Project{}, err
	}
	if len(projects) == 0 {
		return domain.Project{}, ErrNotFound
	}
	return projects[0], nil
}

// LatestProject returns the most recently created project overall.
func (r Repo) LatestProject(ctx context.Context) (domain.Project, error) {
	projects, err := r.ListProjects(ctx, ProjectFilters{Limit: 1})
	if err != nil {
		return domain.Project{}, err
	}
	if len(projects) == 0 {
		return domain.Project{}, ErrNotFound
	}
	return projects[0], nil
}
