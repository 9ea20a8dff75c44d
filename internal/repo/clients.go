package repo

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"opsdesk/internal/domain"
)

var clientCols = []string{"id", "name", "email", "lead_id", "created_at", "updated_at", "deleted_at"}

func scanClient(scan func(...any) error) (domain.Client, error) {
	var c domain.Client
	var email, leadID, deleted sql.NullString
	var created, updated string
	if err := scan(&c.ID, &c.Name, &email, &leadID, &created, &updated, &deleted); err != nil {
		return c, err
	}
	if email.Valid {
		c.Email = email.String
	}
	c.LeadID = strP(leadID)
	c.CreatedAt = parseTime(created)
	c.UpdatedAt = parseTime(updated)
	c.DeletedAt = timePtr(deleted)
	return c, nil
}

func (r Repo) InsertClient(ctx context.Context, c domain.Client) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO clients(id,name,email,lead_id,created_at,updated_at) VALUES (?,?,?,?,?,?)`,
		c.ID, c.Name, nullable(c.Email), nullableStr(c.LeadID), fmtTime(c.CreatedAt), fmtTime(c.UpdatedAt))
	return err
}

func (r Repo) GetClient(ctx context.Context, id string) (domain.Client, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT id,name,email,lead_id,created_at,updated_at,deleted_at FROM clients WHERE id=? AND deleted_at IS NULL`, id)
	c, err := scanClient(row.Scan)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	return c, err
}

func (r Repo) UpdateClient(ctx context.Context, c domain.Client) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE clients SET name=?, email=?, lead_id=?, updated_at=? WHERE id=? AND deleted_at IS NULL`,
		c.Name, nullable(c.Email), nullableStr(c.LeadID), fmtTime(c.UpdatedAt), c.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteClient(ctx context.Context, id string, now time.Time) error {
	return r.softDelete(ctx, "clients", id, now)
}

type ClientFilters struct {
	LeadID         string
	Created        Range
	IncludeDeleted bool
	Limit          uint64
	Offset         uint64
}

func (r Repo) ListClients(ctx context.Context, f ClientFilters) ([]domain.Client, error) {
	b := qb.Select(clientCols...).From("clients")
	b = notDeleted(b, f.IncludeDeleted)
	if f.LeadID != "" {
		b = b.Where(sq.Eq{"lead_id": f.LeadID})
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
	var res []domain.Client
	for rows.Next() {
		c, err := scanClient(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}
