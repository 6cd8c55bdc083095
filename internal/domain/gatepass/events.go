package gatepass

import (
	"github.com/gatepass/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeGatePass = "GatePassRequest"

// Event type constants
const (
	EventTypeGatePassCreated       = "GatePassCreated"
	EventTypeGatePassVerified      = "GatePassVerified"
	EventTypeGatePassApproved      = "GatePassApproved"
	EventTypeGatePassRejected      = "GatePassRejected"
	EventTypeGatePassItemsReturned = "GatePassItemsReturned"
)

// GatePassCreatedEvent is raised when a new gate pass request is submitted
type GatePassCreatedEvent struct {
	shared.BaseDomainEvent
	RequestID       uuid.UUID `json:"request_id"`
	RefNo           string    `json:"ref_no"`
	SenderServiceNo string    `json:"sender_service_no"`
	ReceiverID      string    `json:"receiver_id"`
	BranchOut       string    `json:"branch_out"`
	BranchIn        string    `json:"branch_in"`
}

// NewGatePassCreatedEvent creates a new GatePassCreatedEvent
func NewGatePassCreatedEvent(gp *GatePassRequest) *GatePassCreatedEvent {
	return &GatePassCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGatePassCreated, AggregateTypeGatePass, gp.ID),
		RequestID:       gp.ID,
		RefNo:           gp.RefNo,
		SenderServiceNo: gp.SenderServiceNo,
		ReceiverID:      gp.ReceiverID,
		BranchOut:       gp.BranchOut,
		BranchIn:        gp.BranchIn,
	}
}

// EventType returns the event type name
func (e *GatePassCreatedEvent) EventType() string {
	return EventTypeGatePassCreated
}

// GatePassVerifiedEvent is raised when the verifier passes a request on
type GatePassVerifiedEvent struct {
	shared.BaseDomainEvent
	RequestID  uuid.UUID `json:"request_id"`
	RefNo      string    `json:"ref_no"`
	VerifiedBy string    `json:"verified_by"`
}

// NewGatePassVerifiedEvent creates a new GatePassVerifiedEvent
func NewGatePassVerifiedEvent(gp *GatePassRequest, actorServiceNo string) *GatePassVerifiedEvent {
	return &GatePassVerifiedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGatePassVerified, AggregateTypeGatePass, gp.ID),
		RequestID:       gp.ID,
		RefNo:           gp.RefNo,
		VerifiedBy:      actorServiceNo,
	}
}

// EventType returns the event type name
func (e *GatePassVerifiedEvent) EventType() string {
	return EventTypeGatePassVerified
}

// GatePassApprovedEvent is raised when a request reaches APPROVED
type GatePassApprovedEvent struct {
	shared.BaseDomainEvent
	RequestID       uuid.UUID `json:"request_id"`
	RefNo           string    `json:"ref_no"`
	ApprovedBy      string    `json:"approved_by"`
	ReturnableCount int       `json:"returnable_count"`
}

// NewGatePassApprovedEvent creates a new GatePassApprovedEvent
func NewGatePassApprovedEvent(gp *GatePassRequest, actorServiceNo string) *GatePassApprovedEvent {
	return &GatePassApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGatePassApproved, AggregateTypeGatePass, gp.ID),
		RequestID:       gp.ID,
		RefNo:           gp.RefNo,
		ApprovedBy:      actorServiceNo,
		ReturnableCount: len(gp.ReturnableItems()),
	}
}

// EventType returns the event type name
func (e *GatePassApprovedEvent) EventType() string {
	return EventTypeGatePassApproved
}

// GatePassRejectedEvent is raised when a request is rejected at any stage
type GatePassRejectedEvent struct {
	shared.BaseDomainEvent
	RequestID      uuid.UUID      `json:"request_id"`
	RefNo          string         `json:"ref_no"`
	RejectedBy     string         `json:"rejected_by"`
	RejectionLevel GatePassStatus `json:"rejection_level"`
	Comment        string         `json:"comment"`
}

// NewGatePassRejectedEvent creates a new GatePassRejectedEvent
func NewGatePassRejectedEvent(gp *GatePassRequest, actorServiceNo string) *GatePassRejectedEvent {
	return &GatePassRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGatePassRejected, AggregateTypeGatePass, gp.ID),
		RequestID:       gp.ID,
		RefNo:           gp.RefNo,
		RejectedBy:      actorServiceNo,
		RejectionLevel:  gp.RejectionLevel,
		Comment:         gp.Comment,
	}
}

// EventType returns the event type name
func (e *GatePassRejectedEvent) EventType() string {
	return EventTypeGatePassRejected
}

// GatePassItemsReturnedEvent is raised when returnable items are handed back
type GatePassItemsReturnedEvent struct {
	shared.BaseDomainEvent
	RequestID    uuid.UUID `json:"request_id"`
	RefNo        string    `json:"ref_no"`
	Serials      []string  `json:"serials"`
	UpdatedCount int       `json:"updated_count"`
}

// NewGatePassItemsReturnedEvent creates a new GatePassItemsReturnedEvent
func NewGatePassItemsReturnedEvent(gp *GatePassRequest, serials []string, updated int) *GatePassItemsReturnedEvent {
	return &GatePassItemsReturnedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGatePassItemsReturned, AggregateTypeGatePass, gp.ID),
		RequestID:       gp.ID,
		RefNo:           gp.RefNo,
		Serials:         serials,
		UpdatedCount:    updated,
	}
}

// EventType returns the event type name
func (e *GatePassItemsReturnedEvent) EventType() string {
	return EventTypeGatePassItemsReturned
}
