package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"opsdesk/internal/domain"
)

var userCols = []string{"id", "name", "email", "role", "created_at", "updated_at", "deleted_at"}

func scanUser(scan func(...any) error) (domain.User, error) {
	var u domain.User
	var created, updated string
	var deleted sql.NullString
	if err := scan(&u.ID, &u.Name, &u.Email, &u.Role, &created, &updated, &deleted); err != nil {
		return u, err
	}
	u.CreatedAt = parseTime(created)
	u.UpdatedAt = parseTime(updated)
	u.DeletedAt = timePtr(deleted)
	return u, nil
}

func (r Repo) InsertUser(ctx context.Context, u domain.User) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO users(id,name,email,role,created_at,updated_at) VALUES (?,?,?,?,?,?)`,
		u.ID, u.Name, u.Email, u.Role, fmtTime(u.CreatedAt), fmtTime(u.UpdatedAt))
	return err
}

func (r Repo) GetUser(ctx context.Context, id string) (domain.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT id,name,email,role,created_at,updated_at,deleted_at FROM users WHERE id=? AND deleted_at IS NULL`, id)
	u, err := scanUser(row.Scan)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	return u, err
}

func (r Repo) UpdateUser(ctx context.Context, u domain.User) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET name=?, email=?, role=?, updated_at=? WHERE id=? AND deleted_at IS NULL`,
		u.Name, u.Email, u.Role, fmtTime(u.UpdatedAt), u.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteUser(ctx context.Context, id string, now time.Time) error {
	return r.softDelete(ctx, "users", id, now)
}

type UserFilters struct {
	Role           string
	ExcludeAdmins  bool
	Created        Range
	IncludeDeleted bool
	Limit          uint64
	Offset         uint64
}

func (r Repo) ListUsers(ctx context.Context, f UserFilters) ([]domain.User, error) {
	b := qb.Select(userCols...).From("users")
	b = notDeleted(b, f.IncludeDeleted)
	if f.Role != "" {
		b = b.Where(sq.Expr("LOWER(role)=LOWER(?)", f.Role))
	}
	if f.ExcludeAdmins {
		// Matches domain.IsAdmin, which trims before comparing.
		b = b.Where(sq.Expr("LOWER(TRIM(role))<>?", domain.RoleAdmin))
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
	var res []domain.User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

// SingleStaff returns the one non-administrator user, erroring when zero or
// several exist. Report callers that omit a user id rely on this to stay
// deterministic rather than picking one arbitrarily.
func (r Repo) SingleStaff(ctx context.Context) (domain.User, error) {
	users, err := r.ListUsers(ctx, UserFilters{ExcludeAdmins: true})
	if err != nil {
		return domain.User{}, err
	}
	if len(users) == 0 {
		return domain.User{}, ErrNotFound
	}
	if len(users) > 1 {
		return domain.User{}, fmt.Errorf("multiple staff members exist; specify a user id: %w", ErrAmbiguous)
	}
	return users[0], nil
}
