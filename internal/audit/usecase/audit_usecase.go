package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/fileguard/internal/audit/domain"
	auditService "github.com/allisson/fileguard/internal/audit/service"
)

// auditUseCase implements the UseCase interface. Events are HMAC-signed when a
// signing key is configured and mirrored to the structured log so the audit
// trail survives even when database writes fail.
type auditUseCase struct {
	eventRepo  EventRepository
	signer     auditService.AuditSigner
	signingKey []byte
}

func (a *auditUseCase) log(
	ctx context.Context,
	eventType auditDomain.EventType,
	payload map[string]any,
	incident bool,
) error {
	event := &auditDomain.Event{
		ID:                 uuid.Must(uuid.NewV7()),
		Type:               eventType,
		Payload:            payload,
		IsSecurityIncident: incident,
		CreatedAt:          time.Now().UTC(),
	}

	if len(a.signingKey) > 0 {
		sig, err := a.signer.Sign(a.signingKey, event)
		if err != nil {
			return err
		}
		event.Signature = sig
	}

	level := slog.LevelInfo
	if incident {
		level = slog.LevelWarn
	}
	slog.Log(ctx, level, "audit event",
		"event_id", event.ID.String(),
		"event_type", string(event.Type),
		"security_incident", incident,
	)

	return a.eventRepo.Create(ctx, event)
}

// LogEvent records a routine audit event.
func (a *auditUseCase) LogEvent(
	ctx context.Context,
	eventType auditDomain.EventType,
	payload map[string]any,
) error {
	return a.log(ctx, eventType, payload, false)
}

// LogSecurityIncident records a security incident.
func (a *auditUseCase) LogSecurityIncident(
	ctx context.Context,
	eventType auditDomain.EventType,
	payload map[string]any,
) error {
	return a.log(ctx, eventType, payload, true)
}

// ResolveIncident marks a security incident as resolved.
func (a *auditUseCase) ResolveIncident(ctx context.Context, id uuid.UUID) error {
	return a.eventRepo.MarkResolved(ctx, id, time.Now().UTC())
}

// DeleteOlderThan applies the dual retention policy: general events are purged
// past the general window, security incidents past the (longer) incident
// window and only once resolved. Unresolved incidents are never deleted.
func (a *auditUseCase) DeleteOlderThan(
	ctx context.Context,
	generalDays, securityDays int,
	dryRun bool,
) (RetentionSummary, error) {
	now := time.Now().UTC()
	generalCutoff := now.AddDate(0, 0, -generalDays)
	securityCutoff := now.AddDate(0, 0, -securityDays)

	var summary RetentionSummary
	var err error

	if dryRun {
		summary.GeneralDeleted, err = a.eventRepo.CountGeneralOlderThan(ctx, generalCutoff)
		if err != nil {
			return summary, err
		}
		summary.IncidentsDeleted, err = a.eventRepo.CountResolvedIncidentsOlderThan(ctx, securityCutoff)
		return summary, err
	}

	summary.GeneralDeleted, err = a.eventRepo.DeleteGeneralOlderThan(ctx, generalCutoff)
	if err != nil {
		return summary, err
	}
	summary.IncidentsDeleted, err = a.eventRepo.DeleteResolvedIncidentsOlderThan(ctx, securityCutoff)
	if err != nil {
		return summary, err
	}

	if summary.GeneralDeleted > 0 || summary.IncidentsDeleted > 0 {
		slog.InfoContext(ctx, "audit retention applied",
			"general_deleted", summary.GeneralDeleted,
			"incidents_deleted", summary.IncidentsDeleted,
			"general_cutoff", generalCutoff,
			"security_cutoff", securityCutoff,
		)
	}

	return summary, nil
}

// verifyBatchSize bounds how many events are loaded per page during batch
// signature verification.
const verifyBatchSize = 500

// VerifyBatch checks stored event signatures within the inclusive time range.
// Events persisted without a signature are counted separately rather than
// treated as invalid, since signing is optional.
func (a *auditUseCase) VerifyBatch(
	ctx context.Context,
	startTime, endTime time.Time,
) (*VerificationReport, error) {
	report := &VerificationReport{}

	for offset := 0; ; offset += verifyBatchSize {
		events, err := a.eventRepo.List(ctx, offset, verifyBatchSize, &startTime, &endTime)
		if err != nil {
			return nil, err
		}
		if len(events) == 0 {
			break
		}

		for _, event := range events {
			report.TotalChecked++

			if len(event.Signature) == 0 {
				report.UnsignedCount++
				continue
			}

			if err := a.signer.Verify(a.signingKey, event); err != nil {
				report.InvalidCount++
				report.InvalidIDs = append(report.InvalidIDs, event.ID)
				continue
			}
			report.ValidCount++
		}

		if len(events) < verifyBatchSize {
			break
		}
	}

	return report, nil
}

// NewAuditUseCase creates a new audit use case instance. An empty signing key
// disables event signing.
func NewAuditUseCase(
	eventRepo EventRepository,
	signer auditService.AuditSigner,
	signingKey []byte,
) UseCase {
	return &auditUseCase{
		eventRepo:  eventRepo,
		signer:     signer,
		signingKey: signingKey,
	}
}
