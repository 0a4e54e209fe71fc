// Package repository implements audit event persistence for PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/fileguard/internal/audit/domain"
	"github.com/allisson/fileguard/internal/database"
	apperrors "github.com/allisson/fileguard/internal/errors"
)

// PostgreSQLAuditEventRepository implements audit event persistence for
// PostgreSQL databases.
type PostgreSQLAuditEventRepository struct {
	db *sql.DB
}

// Create inserts a new audit event into the PostgreSQL database.
func (p *PostgreSQLAuditEventRepository) Create(ctx context.Context, event *auditDomain.Event) error {
	querier := database.GetTx(ctx, p.db)

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit payload")
	}

	query := `INSERT INTO audit_events
			  (id, event_type, payload, is_security_incident, is_resolved, resolved_at, signature, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = querier.ExecContext(
		ctx,
		query,
		event.ID,
		event.Type,
		payload,
		event.IsSecurityIncident,
		event.IsResolved,
		event.ResolvedAt,
		event.Signature,
		event.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit event")
	}
	return nil
}

// Get retrieves an audit event by its ID.
func (p *PostgreSQLAuditEventRepository) Get(ctx context.Context, id uuid.UUID) (*auditDomain.Event, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, event_type, payload, is_security_incident, is_resolved, resolved_at, signature, created_at
			  FROM audit_events
			  WHERE id = $1`

	var event auditDomain.Event
	var payload []byte
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Type,
		&payload,
		&event.IsSecurityIncident,
		&event.IsResolved,
		&event.ResolvedAt,
		&event.Signature,
		&event.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, auditDomain.ErrEventNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get audit event")
	}

	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &event.Payload); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit payload")
		}
	}

	return &event, nil
}

// List retrieves events ordered by created_at ascending with pagination and
// optional inclusive time-range filtering.
func (p *PostgreSQLAuditEventRepository) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*auditDomain.Event, error) {
	querier := database.GetTx(ctx, p.db)

	// Build dynamic WHERE clause based on provided filters
	var conditions []string
	var args []any

	if createdAtFrom != nil {
		args = append(args, *createdAtFrom)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if createdAtTo != nil {
		args = append(args, *createdAtTo)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	query := `SELECT id, event_type, payload, is_security_incident, is_resolved, resolved_at, signature, created_at
			  FROM audit_events`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at ASC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit events")
	}
	defer func() {
		_ = rows.Close()
	}()

	// Initialize empty slice to avoid returning nil for empty results
	events := make([]*auditDomain.Event, 0)
	for rows.Next() {
		var event auditDomain.Event
		var payload []byte
		if err := rows.Scan(
			&event.ID,
			&event.Type,
			&payload,
			&event.IsSecurityIncident,
			&event.IsResolved,
			&event.ResolvedAt,
			&event.Signature,
			&event.CreatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit event")
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &event.Payload); err != nil {
				return nil, apperrors.Wrap(err, "failed to unmarshal audit payload")
			}
		}
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit events")
	}

	return events, nil
}

// MarkResolved flags a security incident as resolved.
func (p *PostgreSQLAuditEventRepository) MarkResolved(
	ctx context.Context,
	id uuid.UUID,
	resolvedAt time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE audit_events
			  SET is_resolved = TRUE, resolved_at = $1
			  WHERE id = $2 AND is_security_incident = TRUE`

	result, err := querier.ExecContext(ctx, query, resolvedAt, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to resolve audit event")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to resolve audit event")
	}
	if rows == 0 {
		return auditDomain.ErrEventNotFound
	}
	return nil
}

// CountGeneralOlderThan counts non-incident events created before the cutoff.
func (p *PostgreSQLAuditEventRepository) CountGeneralOlderThan(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT COUNT(*) FROM audit_events
			  WHERE is_security_incident = FALSE AND created_at < $1`

	var count int64
	if err := querier.QueryRowContext(ctx, query, cutoff).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count audit events")
	}
	return count, nil
}

// DeleteGeneralOlderThan deletes non-incident events created before the cutoff.
func (p *PostgreSQLAuditEventRepository) DeleteGeneralOlderThan(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM audit_events
			  WHERE is_security_incident = FALSE AND created_at < $1`

	result, err := querier.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete audit events")
	}
	return result.RowsAffected()
}

// CountResolvedIncidentsOlderThan counts resolved security incidents created
// before the cutoff. Unresolved incidents are excluded.
func (p *PostgreSQLAuditEventRepository) CountResolvedIncidentsOlderThan(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT COUNT(*) FROM audit_events
			  WHERE is_security_incident = TRUE AND is_resolved = TRUE AND created_at < $1`

	var count int64
	if err := querier.QueryRowContext(ctx, query, cutoff).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count security incidents")
	}
	return count, nil
}

// DeleteResolvedIncidentsOlderThan deletes resolved security incidents created
// before the cutoff.
func (p *PostgreSQLAuditEventRepository) DeleteResolvedIncidentsOlderThan(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM audit_events
			  WHERE is_security_incident = TRUE AND is_resolved = TRUE AND created_at < $1`

	result, err := querier.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete security incidents")
	}
	return result.RowsAffected()
}

// NewPostgreSQLAuditEventRepository creates a new PostgreSQL audit event repository instance.
func NewPostgreSQLAuditEventRepository(db *sql.DB) *PostgreSQLAuditEventRepository {
	return &PostgreSQLAuditEventRepository{db: db}
}
