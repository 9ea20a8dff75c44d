package repo

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"opsdesk/internal/domain"
)

var attachmentCols = []string{
	"id", "project_id", "file_name", "file_type", "uploaded_by",
	"created_at", "updated_at", "deleted_at",
}

func scanAttachment(scan func(...any) error) (domain.Attachment, error) {
	var a domain.Attachment
	var projectID, uploadedBy, deleted sql.NullString
	var created, updated string
	if err := scan(&a.ID, &projectID, &a.FileName, &a.FileType, &uploadedBy,
		&created, &updated, &deleted); err != nil {
		return a, err
	}
	a.ProjectID = strP(projectID)
	a.UploadedBy = strP(uploadedBy)
	a.CreatedAt = parseTime(created)
	a.UpdatedAt = parseTime(updated)
	a.DeletedAt = timePtr(deleted)
	return a, nil
}

func (r Repo) InsertAttachment(ctx context.Context, a domain.Attachment) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO attachments(id,project_id,file_name,file_type,uploaded_by,created_at,updated_at)
VALUES (?,?,?,?,?,?,?)`,
		a.ID, nullableStr(a.ProjectID), a.FileName, a.FileType, nullableStr(a.UploadedBy),
		fmtTime(a.CreatedAt), fmtTime(a.UpdatedAt))
	return err
}

func (r Repo) GetAttachment(ctx context.Context, id string) (domain.Attachment, error) {
	query, args, err := qb.Select(attachmentCols...).From("attachments").
		Where(sq.Eq{"id": id, "deleted_at": nil}).ToSql()
	if err != nil {
		return domain.Attachment{}, err
	}
	a, err := scanAttachment(r.DB.QueryRowContext(ctx, query, args...).Scan)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	return a, err
}

func (r Repo) UpdateAttachment(ctx context.Context, a domain.Attachment) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE attachments SET project_id=?, file_name=?, file_type=?, uploaded_by=?, updated_at=? WHERE id=? AND deleted_at IS NULL`,
		nullableStr(a.ProjectID), a.FileName, a.FileType, nullableStr(a.UploadedBy), fmtTime(a.UpdatedAt), a.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteAttachment(ctx context.Context, id string, now time.Time) error {
	return r.softDelete(ctx, "attachments", id, now)
}

type AttachmentFilters struct {
	ProjectID      string
	UploadedBy     string
	FileType       string
	Created        Range
	IncludeDeleted bool
	Limit          uint64
	Offset         uint64
}

func (r Repo) ListAttachments(ctx context.Context, f AttachmentFilters) ([]domain.Attachment, error) {
	b := qb.Select(attachmentCols...).From("attachments")
	b = notDeleted(b, f.IncludeDeleted)
	if f.ProjectID != "" {
		b = b.Where(sq.Eq{"project_id": f.ProjectID})
	}
	if f.UploadedBy != "" {
		b = b.Where(sq.Eq{"uploaded_by": f.UploadedBy})
	}
	if f.FileType != "" {
		b = b.Where(sq.Expr("LOWER(file_type)=LOWER(?)", f.FileType))
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
	var res []domain.Attachment
	for rows.Next() {
		a, err := scanAttachment(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}
