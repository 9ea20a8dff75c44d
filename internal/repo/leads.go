package repo

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"opsdesk/internal/domain"
)

var leadCols = []string{"id", "name", "source", "status", "owner_id", "created_at", "updated_at", "deleted_at"}

func scanLead(scan func(...any) error) (domain.Lead, error) {
	var l domain.Lead
	var source, owner, deleted sql.NullString
	var created, updated string
	if err := scan(&l.ID, &l.Name, &source, &l.Status, &owner, &created, &updated, &deleted); err != nil {
		return l, err
	}
	if source.Valid {
		l.Source = source.String
	}
	l.OwnerID = strP(owner)
	l.CreatedAt = parseTime(created)
	l.UpdatedAt = parseTime(updated)
	l.DeletedAt = timePtr(deleted)
	return l, nil
}

func (r Repo) InsertLead(ctx context.Context, l domain.Lead) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO leads(id,name,source,status,owner_id,created_at,updated_at) VALUES (?,?,?,?,?,?,?)`,
		l.ID, l.Name, nullable(l.Source), l.Status, nullableStr(l.OwnerID), fmtTime(l.CreatedAt), fmtTime(l.UpdatedAt))
	return err
}

func (r Repo) GetLead(ctx context.Context, id string) (domain.Lead, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT id,name,source,status,owner_id,created_at,updated_at,deleted_at FROM leads WHERE id=? AND deleted_at IS NULL`, id)
	l, err := scanLead(row.Scan)
	if err == sql.ErrNoRows {
		return l, ErrNotFound
	}
	return l, err
}

func (r Repo) UpdateLead(ctx context.Context, l domain.Lead) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE leads SET name=?, source=?, status=?, owner_id=?, updated_at=? WHERE id=? AND deleted_at IS NULL`,
		l.Name, nullable(l.Source), l.Status, nullableStr(l.OwnerID), fmtTime(l.UpdatedAt), l.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteLead(ctx context.Context, id string, now time.Time) error {
	return r.softDelete(ctx, "leads", id, now)
}

type LeadFilters struct {
	OwnerID        string
	Status         string
	Created        Range
	IncludeDeleted bool
	Limit          uint64
	Offset         uint64
}

func (r Repo) ListLeads(ctx context.Context, f LeadFilters) ([]domain.Lead, error) {
	b := qb.Select(leadCols...).From("leads")
	b = notDeleted(b, f.IncludeDeleted)
	if f.OwnerID != "" {
		b = b.Where(sq.Eq{"owner_id": f.OwnerID})
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
	var res []domain.Lead
	for rows.Next() {
		l, err := scanLead(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
