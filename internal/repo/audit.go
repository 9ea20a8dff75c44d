package repo

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"opsdesk/internal/domain"
)

type AuditFilters struct {
	Action     string
	EntityKind string
	EntityID   string
	Limit      uint64
}

// LatestAudit returns accounting-log entries, newest first.
func (r Repo) LatestAudit(ctx context.Context, f AuditFilters) ([]domain.AuditEntry, error) {
	b := qb.Select("id", "ts", "action", "entity_kind", "entity_id", "actor_id", "payload_json").
		From("audit_log")
	if f.Action != "" {
		b = b.Where(sq.Eq{"action": f.Action})
	}
	if f.EntityKind != "" {
		b = b.Where(sq.Eq{"entity_kind": f.EntityKind})
	}
	if f.EntityID != "" {
		b = b.Where(sq.Eq{"entity_id": f.EntityID})
	}
	limit := f.Limit
	if limit == 0 {
		limit = 100
	}
	b = b.OrderBy("id DESC").Limit(limit)
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var ts string
		var entityID, payload sql.NullString
		if err := rows.Scan(&e.ID, &ts, &e.Action, &e.EntityKind, &entityID, &e.ActorID, &payload); err != nil {
			return nil, err
		}
		e.TS = parseTime(ts)
		if entityID.Valid {
			e.EntityID = entityID.String
		}
		if payload.Valid {
			e.Payload = payload.String
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
