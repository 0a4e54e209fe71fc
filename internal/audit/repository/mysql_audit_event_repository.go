package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/fileguard/internal/audit/domain"
	"github.com/allisson/fileguard/internal/database"
	apperrors "github.com/allisson/fileguard/internal/errors"
)

// MySQLAuditEventRepository implements audit event persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
type MySQLAuditEventRepository struct {
	db *sql.DB
}

// Create inserts a new audit event into the MySQL database.
func (m *MySQLAuditEventRepository) Create(ctx context.Context, event *auditDomain.Event) error {
	querier := database.GetTx(ctx, m.db)

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit payload")
	}

	id, err := event.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit event id")
	}

	query := `INSERT INTO audit_events
			  (id, event_type, payload, is_security_incident, is_resolved, resolved_at, signature, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		string(event.Type),
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
func (m *MySQLAuditEventRepository) Get(ctx context.Context, id uuid.UUID) (*auditDomain.Event, error) {
	querier := database.GetTx(ctx, m.db)

	idBinary, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal audit event id")
	}

	query := `SELECT id, event_type, payload, is_security_incident, is_resolved, resolved_at, signature, created_at
			  FROM audit_events
			  WHERE id = ?`

	var event auditDomain.Event
	var eventIDBinary, payload []byte
	var eventType string
	err = querier.QueryRowContext(ctx, query, idBinary).Scan(
		&eventIDBinary,
		&eventType,
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

	if err := event.ID.UnmarshalBinary(eventIDBinary); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal audit event id")
	}
	event.Type = auditDomain.EventType(eventType)

	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &event.Payload); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit payload")
		}
	}

	return &event, nil
}

// List retrieves events ordered by created_at ascending with pagination and
// optional inclusive time-range filtering.
func (m *MySQLAuditEventRepository) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*auditDomain.Event, error) {
	querier := database.GetTx(ctx, m.db)

	// Build dynamic WHERE clause based on provided filters
	var conditions []string
	var args []any

	if createdAtFrom != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, *createdAtFrom)
	}
	if createdAtTo != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, *createdAtTo)
	}

	query := `SELECT id, event_type, payload, is_security_incident, is_resolved, resolved_at, signature, created_at
			  FROM audit_events`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at ASC LIMIT ? OFFSET ?"
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
		var idBinary, payload []byte
		var eventType string

		if err := rows.Scan(
			&idBinary,
			&eventType,
			&payload,
			&event.IsSecurityIncident,
			&event.IsResolved,
			&event.ResolvedAt,
			&event.Signature,
			&event.CreatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit event")
		}

		if err := event.ID.UnmarshalBinary(idBinary); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit event id")
		}
		event.Type = auditDomain.EventType(eventType)

		if payload != nil {
			if err := json.Unmarshal(payload, &event.Payload); err != nil {
				return nil, apperrors.Wrap(err, "failed to unmarshal audit payload")
			}
		}

		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit events")
	}

	return events, nil
}

// MarkResolved flags a security incident as resolved.
func (m *MySQLAuditEventRepository) MarkResolved(
	ctx context.Context,
	id uuid.UUID,
	resolvedAt time.Time,
) error {
	querier := database.GetTx(ctx, m.db)

	idBinary, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit event id")
	}

	query := `UPDATE audit_events
			  SET is_resolved = TRUE, resolved_at = ?
			  WHERE id = ? AND is_security_incident = TRUE`

	result, err := querier.ExecContext(ctx, query, resolvedAt, idBinary)
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
func (m *MySQLAuditEventRepository) CountGeneralOlderThan(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT COUNT(*) FROM audit_events
			  WHERE is_security_incident = FALSE AND created_at < ?`

	var count int64
	if err := querier.QueryRowContext(ctx, query, cutoff).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count audit events")
	}
	return count, nil
}

// DeleteGeneralOlderThan deletes non-incident events created before the cutoff.
func (m *MySQLAuditEventRepository) DeleteGeneralOlderThan(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM audit_events
			  WHERE is_security_incident = FALSE AND created_at < ?`

	result, err := querier.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete audit events")
	}
	return result.RowsAffected()
}

// CountResolvedIncidentsOlderThan counts resolved security incidents created
// before the cutoff. Unresolved incidents are excluded.
func (m *MySQLAuditEventRepository) CountResolvedIncidentsOlderThan(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT COUNT(*) FROM audit_events
			  WHERE is_security_incident = TRUE AND is_resolved = TRUE AND created_at < ?`

	var count int64
	if err := querier.QueryRowContext(ctx, query, cutoff).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count security incidents")
	}
	return count, nil
}

// DeleteResolvedIncidentsOlderThan deletes resolved security incidents created
// before the cutoff.
func (m *MySQLAuditEventRepository) DeleteResolvedIncidentsOlderThan(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM audit_events
			  WHERE is_security_incident = TRUE AND is_resolved = TRUE AND created_at < ?`

	result, err := querier.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete security incidents")
	}
	return result.RowsAffected()
}

// NewMySQLAuditEventRepository creates a new MySQL audit event repository instance.
func NewMySQLAuditEventRepository(db *sql.DB) *MySQLAuditEventRepository {
	return &MySQLAuditEventRepository{db: db}
}
