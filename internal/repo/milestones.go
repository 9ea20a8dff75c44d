package repo

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"opsdesk/internal/domain"
)

var milestoneCols = []string{
	"id", "project_id", "name", "status", "start_date", "end_date", "actual_date",
	"assigned_to", "created_at", "updated_at", "deleted_at",
}

func scanMilestone(scan func(...any) error) (domain.Milestone, error) {
	var m domain.Milestone
	var startDate, endDate, actualDate, assigned, deleted sql.NullString
	var created, updated string
	if err := scan(&m.ID, &m.ProjectID, &m.Name, &m.Status, &startDate, &endDate, &actualDate,
		&assigned, &created, &updated, &deleted); err != nil {
		return m, err
	}
	m.StartDate = timePtr(startDate)
	m.EndDate = timePtr(endDate)
	m.ActualDate = timePtr(actualDate)
	m.AssignedTo = strP(assigned)
	m.CreatedAt = parseTime(created)
	m.UpdatedAt = parseTime(updated)
	m.DeletedAt = timePtr(deleted)
	return m, nil
}

func (r Repo) InsertMilestone(ctx context.Context, m domain.Milestone) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO milestones(id,project_id,name,status,start_date,end_date,actual_date,assigned_to,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?)`,
		m.ID, m.ProjectID, m.Name, m.Status,
		fmtTimePtr(m.StartDate), fmtTimePtr(m.EndDate), fmtTimePtr(m.ActualDate),
		nullableStr(m.AssignedTo), fmtTime(m.CreatedAt), fmtTime(m.UpdatedAt))
	return err
}

func (r Repo) GetMilestone(ctx context.Context, id string) (domain.Milestone, error) {
	query, args, err := qb.Select(milestoneCols...).From("milestones").
		Where(sq.Eq{"id": id, "deleted_at": nil}).ToSql()
	if err != nil {
		return domain.Milestone{}, err
	}
	m, err := scanMilestone(r.DB.QueryRowContext(ctx, query, args...).Scan)
	if err == sql.ErrNoRows {
		return m, ErrNotFound
	}
	return m, err
}

func (r Repo) UpdateMilestone(ctx context.Context, m domain.Milestone) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE milestones SET project_id=?, name=?, status=?, start_date=?, end_date=?, actual_date=?, assigned_to=?, updated_at=? WHERE id=? AND deleted_at IS NULL`,
		m.ProjectID, m.Name, m.Status,
		fmtTimePtr(m.StartDate), fmtTimePtr(m.EndDate), fmtTimePtr(m.ActualDate),
		nullableStr(m.AssignedTo), fmtTime(m.UpdatedAt), m.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteMilestone(ctx context.Context, id string, now time.Time) error {
	return r.softDelete(ctx, "milestones", id, now)
}

type MilestoneFilters struct {
	ProjectID      string
	AssignedTo     string
	Status         string
	Created        Range
	IncludeDeleted bool
	Limit          uint64
	Offset         uint64
}

func (r Repo) ListMilestones(ctx context.Context, f MilestoneFilters) ([]domain.Milestone, error) {
	b := qb.Select(milestoneCols...).From("milestones")
	b = notDeleted(b, f.IncludeDeleted)
	if f.ProjectID != "" {
		b = b.Where(sq.Eq{"project_id": f.ProjectID})
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
	var res []domain.Milestone
	for rows.Next() {
		m, err := scanMilestone(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}
