package event

import (
	"context"

	"github.com/gatepass/backend/internal/domain/gatepass"
	"github.com/gatepass/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditLogHandler writes an audit trail entry for every gate pass workflow
// event. Entries go to the structured log under the "audit" logger name so
// they can be routed separately from request logs.
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.Named("audit")}
}

// EventTypes returns the workflow events this handler records
func (h *AuditLogHandler) EventTypes() []string {
	return []string{
		gatepass.EventTypeGatePassCreated,
		gatepass.EventTypeGatePassVerified,
		gatepass.EventTypeGatePassApproved,
		gatepass.EventTypeGatePassRejected,
		gatepass.EventTypeGatePassItemsReturned,
	}
}

// Handle records one audit entry for the event
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}

	switch e := event.(type) {
	case *gatepass.GatePassCreatedEvent:
		fields = append(fields,
			zap.String("ref_no", e.RefNo),
			zap.String("sender", e.SenderServiceNo),
			zap.String("branch_out", e.BranchOut),
			zap.String("branch_in", e.BranchIn))
	case *gatepass.GatePassVerifiedEvent:
		fields = append(fields,
			zap.String("ref_no", e.RefNo),
			zap.String("actor", e.VerifiedBy))
	case *gatepass.GatePassApprovedEvent:
		fields = append(fields,
			zap.String("ref_no", e.RefNo),
			zap.String("actor", e.ApprovedBy),
			zap.Int("returnable_count", e.ReturnableCount))
	case *gatepass.GatePassRejectedEvent:
		fields = append(fields,
			zap.String("ref_no", e.RefNo),
			zap.String("actor", e.RejectedBy),
			zap.String("rejection_level", e.RejectionLevel.String()))
	case *gatepass.GatePassItemsReturnedEvent:
		fields = append(fields,
			zap.String("ref_no", e.RefNo),
			zap.Int("updated_count", e.UpdatedCount))
	}

	h.logger.Info(event.EventType(), fields...)
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
