package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// Repo is the typed record store. All reads filter soft-deleted rows unless a
// filter explicitly asks for them; timestamps are stored as RFC3339 UTC text so
// lexicographic range comparisons are also chronological.
type Repo struct {
	DB *sql.DB
}

var (
	ErrNotFound = errors.New("not found")

	// ErrAmbiguous reports a lookup that matched several rows when exactly
	// one was required.
	ErrAmbiguous = errors.New("ambiguous")
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// Range is an inclusive created-at window; nil bounds are open.
type Range struct {
	From *time.Time
	To   *time.Time
}

func (rg Range) apply(b sq.SelectBuilder, col string) sq.SelectBuilder {
	if rg.From != nil {
		b = b.Where(sq.GtOrEq{col: fmtTime(*rg.From)})
	}
	if rg.To != nil {
		b = b.Where(sq.LtOrEq{col: fmtTime(*rg.To)})
	}
	return b
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func fmtTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func timePtr(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

func strP(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func floatP(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}

func nullableStr(v *string) any {
	if v == nil || *v == "" {
		return nil
	}
	return *v
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func notDeleted(b sq.SelectBuilder, include bool) sq.SelectBuilder {
	if include {
		return b
	}
	return b.Where(sq.Eq{"deleted_at": nil})
}

func paginate(b sq.SelectBuilder, limit, offset uint64) sq.SelectBuilder {
	if limit > 0 {
		b = b.Limit(limit).Offset(offset)
	}
	return b
}

// softDelete marks a live row deleted; deleting twice reports ErrNotFound.
func (r Repo) softDelete(ctx context.Context, table, id string, now time.Time) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE `+table+` SET deleted_at=?, updated_at=? WHERE id=? AND deleted_at IS NULL`,
		fmtTime(now), fmtTime(now), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
