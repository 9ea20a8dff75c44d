package repo

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"opsdesk/internal/domain"
)

var followupCols = []string{
	"id", "status", "note", "due_date", "completed_date", "assigned_to", "lead_id",
	"created_at", "updated_at", "deleted_at",
}

func scanFollowup(scan func(...any) error) (domain.Followup, error) {
	var f domain.Followup
	var note, dueDate, completedDate, assigned, leadID, deleted sql.NullString
	var created, updated string
	if err := scan(&f.ID, &f.Status, &note, &dueDate, &completedDate, &assigned, &leadID,
		&created, &updated, &deleted); err != nil {
		return f, err
	}
	if note.Valid {
		f.Note = note.String
	}
	f.DueDate = timePtr(dueDate)
	f.CompletedDate = timePtr(completedDate)
	f.AssignedTo = strP(assigned)
	f.LeadID = strP(leadID)
	f.CreatedAt = parseTime(created)
	f.UpdatedAt = parseTime(updated)
	f.DeletedAt = timePtr(deleted)
	return f, nil
}

func (r Repo) InsertFollowup(ctx context.Context, f domain.Followup) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO followups(id,status,note,due_date,completed_date,assigned_to,lead_id,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?)`,
		f.ID, f.Status, nullable(f.Note), fmtTimePtr(f.DueDate), fmtTimePtr(f.CompletedDate),
		nullableStr(f.AssignedTo), nullableStr(f.LeadID), fmtTime(f.CreatedAt), fmtTime(f.UpdatedAt))
	return err
}

func (r Repo) GetFollowup(ctx context.Context, id string) (domain.Followup, error) {
	query, args, err := qb.Select(followupCols...).From("followups").
		Where(sq.Eq{"id": id, "deleted_at": nil}).ToSql()
	if err != nil {
		return domain.Followup{}, err
	}
	f, err := scanFollowup(r.DB.QueryRowContext(ctx, query, args...).Scan)
	if err == sql.ErrNoRows {
		return f, ErrNotFound
	}
	return f, err
}

func (r Repo) UpdateFollowup(ctx context.Context, f domain.Followup) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE followups SET status=?, note=?, due_date=?, completed_date=?, assigned_to=?, lead_id=?, updated_at=? WHERE id=? AND deleted_at IS NULL`,
		f.Status, nullable(f.Note), fmtTimePtr(f.DueDate), fmtTimePtr(f.CompletedDate),
		nullableStr(f.AssignedTo), nullableStr(f.LeadID), fmtTime(f.UpdatedAt), f.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteFollowup(ctx context.Context, id string, now time.Time) error {
	return r.softDelete(ctx, "followups", id, now)
}

type FollowupFilters struct {
	AssignedTo     string
	LeadID         string
	LeadIDs        []string
	Status         string
	Created        Range
	IncludeDeleted bool
	Limit          uint64
	Offset         uint64
}

func (r Repo) ListFollowups(ctx context.Context, f FollowupFilters) ([]domain.Followup, error) {
	b := qb.Select(followupCols...).From("followups")
	b = notDeleted(b, f.IncludeDeleted)
	if f.AssignedTo != "" {
		b = b.Where(sq.Eq{"assigned_to": f.AssignedTo})
	}
	if f.LeadID != "" {
		b = b.Where(sq.Eq{"lead_id": f.LeadID})
	}
	if len(f.LeadIDs) > 0 {
		b = b.Where(sq.Eq{"lead_id": f.LeadIDs})
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
	var res []domain.Followup
	for rows.Next() {
		fu, err := scanFollowup(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, fu)
	}
	return res, rows.Err()
}
