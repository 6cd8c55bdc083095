package gatepass

import (
	"fmt"
	"time"

	"github.com/gatepass/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemReturnState tracks the sub-ledger state of a returnable item
type ItemReturnState string

const (
	// ReturnStateNone - the item is consumable, it never comes back
	ReturnStateNone ItemReturnState = "NOT_RETURNABLE"
	// ReturnStateReturnable - the item must eventually be given back
	ReturnStateReturnable ItemReturnState = "RETURNABLE"
	// ReturnStateReturned - the item has been handed back
	ReturnStateReturned ItemReturnState = "RETURNED"
)

// GatePassItem represents one serialized asset listed on a gate pass
type GatePassItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	RequestID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_gate_pass_item_serial,priority:1"`
	SerialNumber string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_gate_pass_item_serial,priority:2"`
	Name         string          `gorm:"type:varchar(200);not null"`
	Category     string          `gorm:"type:varchar(100)"`
	Model        string          `gorm:"type:varchar(100)"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReturnState  ItemReturnState `gorm:"type:varchar(20);not null;default:'NOT_RETURNABLE'"`
	ReturnedAt   *time.Time
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (GatePassItem) TableName() string {
	return "gate_pass_items"
}

// NewGatePassItem creates a new gate pass item
func NewGatePassItem(requestID uuid.UUID, serialNumber, name, category, model string, quantity decimal.Decimal, returnable bool) (*GatePassItem, error) {
	if serialNumber == "" {
		return nil, shared.NewDomainError("INVALID_SERIAL", "Serial number cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ITEM_NAME", "Item name cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	state := ReturnStateNone
	if returnable {
		state = ReturnStateReturnable
	}

	now := time.Now()
	return &GatePassItem{
		ID:           uuid.New(),
		RequestID:    requestID,
		SerialNumber: serialNumber,
		Name:         name,
		Category:     category,
		Model:        model,
		Quantity:     quantity,
		ReturnState:  state,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsReturnable returns true while the item still has to come back
func (i *GatePassItem) IsReturnable() bool {
	return i.ReturnState == ReturnStateReturnable
}

// IsReturned returns true once the item has been handed back
func (i *GatePassItem) IsReturned() bool {
	return i.ReturnState == ReturnStateReturned
}

// markReturned transitions the item to RETURNED. Returns true when the item
// actually transitioned; marking an already returned item is a no-op.
func (i *GatePassItem) markReturned(at time.Time) bool {
	if i.ReturnState != ReturnStateReturnable {
		return false
	}
	i.ReturnState = ReturnStateReturned
	i.ReturnedAt = &at
	i.UpdatedAt = at
	return true
}

// StageDetails carries the per-stage data an approver supplies
type StageDetails struct {
	LoaderServiceNo    string
	ReceivingServiceNo string
	VehicleNo          string
}

// GatePassRequest is the gate pass aggregate root. It owns the workflow
// status, the counterparty snapshot and the returnable-items sub-ledger.
type GatePassRequest struct {
	shared.BaseAggregateRoot
	RefNo           string         `gorm:"type:varchar(50);not null;uniqueIndex"`
	Status          GatePassStatus `gorm:"type:varchar(30);not null;default:'AWAITING_VERIFICATION';index"`
	StatusChangedAt *time.Time     `gorm:"index"`

	// Party identifiers. Sender and staff are internal service numbers; the
	// receiver may be an external identifier or absent entirely.
	SenderServiceNo    string `gorm:"type:varchar(50);not null;index"`
	ReceiverID         string `gorm:"type:varchar(50);index"`
	LoaderServiceNo    string `gorm:"type:varchar(50)"`
	ReceivingServiceNo string `gorm:"type:varchar(50)"`

	// Snapshot fields for external receivers, captured at submission. These
	// are the only identity source for non-SLT parties.
	ReceiverName    string `gorm:"type:varchar(200)"`
	ReceiverContact string `gorm:"type:varchar(50)"`
	ReceiverNIC     string `gorm:"type:varchar(20)"`
	CompanyType     string `gorm:"type:varchar(50)"`

	OutLocation   string `gorm:"type:varchar(200);not null"`
	InLocation    string `gorm:"type:varchar(200);not null"`
	BranchOut     string `gorm:"type:varchar(50);index"`
	BranchIn      string `gorm:"type:varchar(50);index"`
	TransportMode string `gorm:"type:varchar(50)"`
	VehicleNo     string `gorm:"type:varchar(50)"`

	Items []GatePassItem `gorm:"foreignKey:RequestID;references:ID"`

	Comment        string `gorm:"type:varchar(500)"`
	RejectedBy     string `gorm:"type:varchar(50)"`
	RejectedAt     *time.Time
	RejectionLevel GatePassStatus `gorm:"type:varchar(30)"`

	Hidden  bool   `gorm:"not null;default:false"`
	Remarks string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (GatePassRequest) TableName() string {
	return "gate_pass_requests"
}

// NewGatePassRequest creates a new gate pass request in AWAITING_VERIFICATION
func NewGatePassRequest(refNo, senderServiceNo, receiverID, outLocation, inLocation, branchOut, branchIn string) (*GatePassRequest, error) {
	if refNo == "" {
		return nil, shared.NewDomainError("INVALID_REF_NO", "Reference number cannot be empty")
	}
	if senderServiceNo == "" {
		return nil, shared.NewDomainError("INVALID_SENDER", "Sender service number cannot be empty")
	}
	if outLocation == "" || inLocation == "" {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Out and in locations are required")
	}

	gp := &GatePassRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		RefNo:             refNo,
		Status:            StatusAwaitingVerification,
		SenderServiceNo:   senderServiceNo,
		ReceiverID:        receiverID,
		OutLocation:       outLocation,
		InLocation:        inLocation,
		BranchOut:         branchOut,
		BranchIn:          branchIn,
		Items:             make([]GatePassItem, 0),
	}

	gp.AddDomainEvent(NewGatePassCreatedEvent(gp))

	return gp, nil
}

// SetReceiverSnapshot records the externally supplied receiver details
func (gp *GatePassRequest) SetReceiverSnapshot(name, contact, nic, companyType string) {
	gp.ReceiverName = name
	gp.ReceiverContact = contact
	gp.ReceiverNIC = nic
	gp.CompanyType = companyType
	gp.UpdatedAt = time.Now()
}

// SetTransport records the transport details
func (gp *GatePassRequest) SetTransport(mode, vehicleNo string) {
	gp.TransportMode = mode
	gp.VehicleNo = vehicleNo
	gp.UpdatedAt = time.Now()
}

// AddItem appends an item to the request. Items can only be added while the
// request has not reached a terminal stage, and serial numbers must be
// unique within the request.
func (gp *GatePassRequest) AddItem(serialNumber, name, category, model string, quantity decimal.Decimal, returnable bool) (*GatePassItem, error) {
	if gp.Status.IsTerminal() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot add items to a %s gate pass", gp.Status))
	}
	for _, item := range gp.Items {
		if item.SerialNumber == serialNumber {
			return nil, shared.NewDomainError("DUPLICATE_SERIAL", fmt.Sprintf("Serial number %s already exists on this gate pass", serialNumber))
		}
	}

	item, err := NewGatePassItem(gp.ID, serialNumber, name, category, model, quantity, returnable)
	if err != nil {
		return nil, err
	}

	gp.Items = append(gp.Items, *item)
	gp.UpdatedAt = time.Now()
	gp.IncrementVersion()

	return item, nil
}

// Approve advances the request one stage: AWAITING_VERIFICATION moves to
// AWAITING_RECEIPT, AWAITING_RECEIPT moves to APPROVED. Stage details and
// returnable selections are applied on the final approval.
func (gp *GatePassRequest) Approve(actorServiceNo, comment string, details StageDetails, returnableSerials []string) error {
	if actorServiceNo == "" {
		return shared.NewDomainError("INVALID_ACTOR", "Approver service number is required")
	}

	next, ok := gp.Status.NextOnApproval()
	if !ok {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve a gate pass in %s status", gp.Status))
	}
	if len(gp.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot approve a gate pass without items")
	}

	if next == StatusApproved {
		if details.LoaderServiceNo != "" {
			gp.LoaderServiceNo = details.LoaderServiceNo
		}
		if details.ReceivingServiceNo != "" {
			gp.ReceivingServiceNo = details.ReceivingServiceNo
		}
		if details.VehicleNo != "" {
			gp.VehicleNo = details.VehicleNo
		}
		if err := gp.selectReturnable(returnableSerials); err != nil {
			return err
		}
	}

	now := time.Now()
	gp.Status = next
	gp.StatusChangedAt = &now
	gp.Comment = comment
	gp.UpdatedAt = now
	gp.IncrementVersion()

	if next == StatusApproved {
		gp.AddDomainEvent(NewGatePassApprovedEvent(gp, actorServiceNo))
	} else {
		gp.AddDomainEvent(NewGatePassVerifiedEvent(gp, actorServiceNo))
	}

	return nil
}

// selectReturnable flags the chosen serials as returnable
func (gp *GatePassRequest) selectReturnable(serials []string) error {
	for _, serial := range serials {
		found := false
		for idx := range gp.Items {
			if gp.Items[idx].SerialNumber == serial {
				if gp.Items[idx].ReturnState == ReturnStateNone {
					gp.Items[idx].ReturnState = ReturnStateReturnable
					gp.Items[idx].UpdatedAt = time.Now()
				}
				found = true
				break
			}
		}
		if !found {
			return shared.NewDomainError("ITEM_NOT_FOUND", fmt.Sprintf("Serial number %s not found on this gate pass", serial))
		}
	}
	return nil
}

// Reject turns the request down at its current stage. A rejection comment is
// required so the requester knows why.
func (gp *GatePassRequest) Reject(actorServiceNo, comment string) error {
	if actorServiceNo == "" {
		return shared.NewDomainError("INVALID_ACTOR", "Rejecting actor service number is required")
	}
	if comment == "" {
		return shared.NewDomainError("COMMENT_REQUIRED", "Rejection comment is required")
	}
	if !gp.Status.CanTransitionTo(StatusRejected) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject a gate pass in %s status", gp.Status))
	}

	now := time.Now()
	gp.RejectionLevel = gp.Status
	gp.Status = StatusRejected
	gp.StatusChangedAt = &now
	gp.Comment = comment
	gp.RejectedBy = actorServiceNo
	gp.RejectedAt = &now
	gp.UpdatedAt = now
	gp.IncrementVersion()

	gp.AddDomainEvent(NewGatePassRejectedEvent(gp, actorServiceNo))

	return nil
}

// MarkReturned transitions the given serials from RETURNABLE to RETURNED and
// returns how many items actually transitioned. Serials that are already
// returned are skipped; an unknown serial fails the whole call.
func (gp *GatePassRequest) MarkReturned(serials []string) (int, error) {
	if gp.Status != StatusApproved {
		return 0, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot return items on a %s gate pass", gp.Status))
	}
	if len(serials) == 0 {
		return 0, shared.NewDomainError("NO_ITEMS", "No serial numbers supplied")
	}

	now := time.Now()
	updated := 0
	for _, serial := range serials {
		found := false
		for idx := range gp.Items {
			if gp.Items[idx].SerialNumber == serial {
				found = true
				if gp.Items[idx].ReturnState == ReturnStateNone {
					return 0, shared.NewDomainError("NOT_RETURNABLE", fmt.Sprintf("Item %s is not returnable", serial))
				}
				if gp.Items[idx].markReturned(now) {
					updated++
				}
				break
			}
		}
		if !found {
			return 0, shared.NewDomainError("ITEM_NOT_FOUND", fmt.Sprintf("Serial number %s not found on this gate pass", serial))
		}
	}

	if updated > 0 {
		gp.UpdatedAt = now
		gp.IncrementVersion()
		gp.AddDomainEvent(NewGatePassItemsReturnedEvent(gp, serials, updated))
	}

	return updated, nil
}

// Hide excludes the request from projected views
func (gp *GatePassRequest) Hide() {
	gp.Hidden = true
	gp.UpdatedAt = time.Now()
	gp.IncrementVersion()
}

// Unhide makes the request visible again
func (gp *GatePassRequest) Unhide() {
	gp.Hidden = false
	gp.UpdatedAt = time.Now()
	gp.IncrementVersion()
}

// SetRemarks sets free-form remarks on the request
func (gp *GatePassRequest) SetRemarks(remarks string) {
	gp.Remarks = remarks
	gp.UpdatedAt = time.Now()
}

// ReturnableItems returns the items that still have to come back
func (gp *GatePassRequest) ReturnableItems() []GatePassItem {
	items := make([]GatePassItem, 0)
	for _, item := range gp.Items {
		if item.IsReturnable() {
			items = append(items, item)
		}
	}
	return items
}

// ReturnedItems returns the items that have been handed back
func (gp *GatePassRequest) ReturnedItems() []GatePassItem {
	items := make([]GatePassItem, 0)
	for _, item := range gp.Items {
		if item.IsReturned() {
			items = append(items, item)
		}
	}
	return items
}

// GetItemBySerial returns an item by serial number
func (gp *GatePassRequest) GetItemBySerial(serial string) *GatePassItem {
	for idx := range gp.Items {
		if gp.Items[idx].SerialNumber == serial {
			return &gp.Items[idx]
		}
	}
	return nil
}

// ItemCount returns the number of items on the request
func (gp *GatePassRequest) ItemCount() int {
	return len(gp.Items)
}

// IsTerminal returns true when the request can no longer advance
func (gp *GatePassRequest) IsTerminal() bool {
	return gp.Status.IsTerminal()
}
