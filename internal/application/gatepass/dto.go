package gatepass

import (
	"time"

	"github.com/gatepass/backend/internal/domain/gatepass"
	"github.com/gatepass/backend/internal/domain/identity"
	"github.com/shopspring/decimal"
)

// Tab selects which slice of the workflow a listing request wants
type Tab string

const (
	TabPending    Tab = "pending"
	TabApproved   Tab = "approved"
	TabRejected   Tab = "rejected"
	TabMyRequests Tab = "my-requests"
)

// ActingRole is the approval role the caller is acting in. Pending listings
// are split by it: a verifier works the first stage, a receiver the second.
type ActingRole string

const (
	RoleVerifier  ActingRole = "verifier"
	RoleReceiver  ActingRole = "receiver"
	RoleRequester ActingRole = "requester"
)

// ListFilter carries the query parameters of a workflow listing
type ListFilter struct {
	Tab         Tab        `form:"tab" binding:"omitempty,oneof=pending approved rejected my-requests"`
	Role        ActingRole `form:"role" binding:"omitempty,oneof=verifier receiver requester"`
	Search      string     `form:"search"`
	OutLocation string     `form:"out_location"`
	InLocation  string     `form:"in_location"`
	CompanyType string     `form:"company_type"`
	DateFrom    *time.Time `form:"date_from" time_format:"2006-01-02"`
	DateTo      *time.Time `form:"date_to" time_format:"2006-01-02"`
	ShowHidden  bool       `form:"show_hidden"`
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// PartyView is one resolved party on an enriched record
type PartyView struct {
	Identifier string           `json:"identifier"`
	Profile    identity.Profile `json:"profile"`
	External   bool             `json:"external"`
}

// ItemView is one ledger item on an enriched record
type ItemView struct {
	SerialNumber string          `json:"serial_number"`
	Name         string          `json:"name"`
	Category     string          `json:"category,omitempty"`
	Model        string          `json:"model,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	ReturnState  string          `json:"return_state"`
	ReturnedAt   *time.Time      `json:"returned_at,omitempty"`
}

// EnrichedRecord is one reconciled status record with every party resolved
// to a profile. No party is ever nil; unresolved internals carry sentinels.
type EnrichedRecord struct {
	ReferenceNumber string     `json:"reference_number"`
	Status          string     `json:"status"`
	EffectiveAt     time.Time  `json:"effective_at"`
	CreatedAt       time.Time  `json:"created_at"`
	Comment         string     `json:"comment,omitempty"`
	RejectedBy      *PartyView `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionLevel  string     `json:"rejection_level,omitempty"`

	Sender    PartyView  `json:"sender"`
	Receiver  PartyView  `json:"receiver"`
	Loader    *PartyView `json:"loader,omitempty"`
	Receiving *PartyView `json:"receiving,omitempty"`

	OutLocation   string `json:"out_location"`
	InLocation    string `json:"in_location"`
	BranchOut     string `json:"branch_out,omitempty"`
	BranchIn      string `json:"branch_in,omitempty"`
	CompanyType   string `json:"company_type,omitempty"`
	TransportMode string `json:"transport_mode,omitempty"`
	VehicleNo     string `json:"vehicle_no,omitempty"`

	Items   []ItemView `json:"items"`
	Hidden  bool       `json:"hidden"`
	Remarks string     `json:"remarks,omitempty"`
}

// ListResponse is the projected workflow view returned to presentation
type ListResponse struct {
	Records  []EnrichedRecord `json:"records"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// CreateItemRequest is one item on a submission
type CreateItemRequest struct {
	SerialNumber string          `json:"serial_number" binding:"required"`
	Name         string          `json:"name" binding:"required"`
	Category     string          `json:"category"`
	Model        string          `json:"model"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	Returnable   bool            `json:"returnable"`
}

// CreateRequest submits a new gate pass
type CreateRequest struct {
	ReceiverID      string              `json:"receiver_id"`
	ReceiverName    string              `json:"receiver_name"`
	ReceiverContact string              `json:"receiver_contact"`
	ReceiverNIC     string              `json:"receiver_nic"`
	CompanyType     string              `json:"company_type"`
	OutLocation     string              `json:"out_location" binding:"required"`
	InLocation      string              `json:"in_location" binding:"required"`
	BranchOut       string              `json:"branch_out"`
	BranchIn        string              `json:"branch_in"`
	TransportMode   string              `json:"transport_mode"`
	VehicleNo       string              `json:"vehicle_no"`
	Items           []CreateItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ApproveRequest advances a gate pass one stage. Stage details and the
// returnable selection only apply on the final approval.
type ApproveRequest struct {
	Comment           string   `json:"comment"`
	LoaderServiceNo   string   `json:"loader_service_no"`
	ReceivingStaffNo  string   `json:"receiving_staff_no"`
	VehicleNo         string   `json:"vehicle_no"`
	ReturnableSerials []string `json:"returnable_serials"`
}

// RejectRequest turns a gate pass down
type RejectRequest struct {
	Comment string `json:"comment" binding:"required"`
}

// ReturnItemsRequest marks returnable serials as returned
type ReturnItemsRequest struct {
	SerialNumbers []string `json:"serial_numbers" binding:"required,min=1"`
}

// ReturnItemsResponse reports how many items actually transitioned
type ReturnItemsResponse struct {
	UpdatedCount int `json:"updated_count"`
}

// VisibilityRequest toggles the hidden flag on a gate pass. A pointer keeps
// an explicit false distinguishable from an absent field.
type VisibilityRequest struct {
	Hidden *bool `json:"hidden" binding:"required"`
}

// AddItemRequest appends one item to a non-terminal gate pass
type AddItemRequest struct {
	SerialNumber string          `json:"serial_number" binding:"required"`
	Name         string          `json:"name" binding:"required"`
	Category     string          `json:"category"`
	Model        string          `json:"model"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	Returnable   bool            `json:"returnable"`
}

func itemViews(items []gatepass.GatePassItem) []ItemView {
	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, ItemView{
			SerialNumber: item.SerialNumber,
			Name:         item.Name,
			Category:     item.Category,
			Model:        item.Model,
			Quantity:     item.Quantity,
			ReturnState:  string(item.ReturnState),
			ReturnedAt:   item.ReturnedAt,
		})
	}
	return views
}
