package repo

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"opsdesk/internal/domain"
)

var taskCols = []string{
	"id", "project_id", "milestone_id", "title", "status", "due_date",
	"assigned_to", "created_at", "updated_at", "deleted_at",
}

func scanTask(scan func(...any) error) (domain.Task, error) {
	var t domain.Task
	var projectID, milestoneID, dueDate, assigned, deleted sql.NullString
	var created, updated string
	if err := scan(&t.ID, &projectID, &milestoneID, &t.Title, &t.Status, &dueDate,
		&assigned, &created, &updated, &deleted); err != nil {
		return t, err
	}
	t.ProjectID = strP(projectID)
	t.MilestoneID = strP(milestoneID)
	t.DueDate = timePtr(dueDate)
	t.AssignedTo = strP(assigned)
	t.CreatedAt = parseTime(created)
	t.UpdatedAt = parseTime(updated)
	t.DeletedAt = timePtr(deleted)
	return t, nil
}

func (r Repo) InsertTask(ctx context.Context, t domain.Task) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO tasks(id,project_id,milestone_id,title,status,due_date,assigned_to,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?)`,
		t.ID, nullableStr(t.ProjectID), nullableStr(t.MilestoneID), t.Title, t.Status,
		fmtTimePtr(t.DueDate), nullableStr(t.AssignedTo), fmtTime(t.CreatedAt), fmtTime(t.UpdatedAt))
	return err
}

func (r Repo) GetTask(ctx context.Context, id string) (domain.Task, error) {
	query, args, err := qb.Select(taskCols...).From("tasks").
		Where(sq.Eq{"id": id, "deleted_at": nil}).ToSql()
	if err != nil {
		return domain.Task{}, err
	}
	t, err := scanTask(r.DB.QueryRowContext(ctx, query, args...).Scan)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	return t, err
}

func (r Repo) UpdateTask(ctx context.Context, t domain.Task) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE tasks SET project_id=?, milestone_id=?, title=?, status=?, due_date=?, assigned_to=?, updated_at=? WHERE id=? AND deleted_at IS NULL`,
		nullableStr(t.ProjectID), nullableStr(t.MilestoneID), t.Title, t.Status,
		fmtTimePtr(t.DueDate), nullableStr(t.AssignedTo), fmtTime(t.UpdatedAt), t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteTask(ctx context.Context, id string, now time.Time) error {
	return r.softDelete(ctx, "tasks", id, now)
}

type TaskFilters struct {
	ProjectID      string
	MilestoneID    string
	AssignedTo     string
	Status         string
	Created        Range
	IncludeDeleted bool
	Limit          uint64
	Offset         uint64
}

func (r Repo) ListTasks(ctx context.Context, f TaskFilters) ([]domain.Task, error) {
	b := qb.Select(taskCols...).From("tasks")
	b = notDeleted(b, f.IncludeDeleted)
	if f.ProjectID != "" {
		b = b.Where(sq.Eq{"project_id": f.ProjectID})
	}
	if f.MilestoneID != "" {
		b = b.Where(sq.Eq{"milestone_id": f.MilestoneID})
	}
	if f.AssignedTo != "" {
		b = b.Where(sq.Eq{"assigned_to": f.AssignedTo})
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
	var res []domain.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}
