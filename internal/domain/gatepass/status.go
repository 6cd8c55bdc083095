package gatepass

// GatePassStatus represents the workflow stage of a gate pass request
type GatePassStatus string

const (
	// StatusAwaitingVerification - submitted, waiting for the verifier
	StatusAwaitingVerification GatePassStatus = "AWAITING_VERIFICATION"
	// StatusAwaitingReceipt - verified, waiting for loading and receipt
	StatusAwaitingReceipt GatePassStatus = "AWAITING_RECEIPT"
	// StatusApproved - received at the destination, terminal
	StatusApproved GatePassStatus = "APPROVED"
	// StatusRejected - turned down at some stage, terminal
	StatusRejected GatePassStatus = "REJECTED"
)

// IsValid checks if the status is a valid GatePassStatus
func (s GatePassStatus) IsValid() bool {
	switch s {
	case StatusAwaitingVerification, StatusAwaitingReceipt, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// String returns the string representation of GatePassStatus
func (s GatePassStatus) String() string {
	return string(s)
}

// IsTerminal returns true once a request can no longer advance
func (s GatePassStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Rank orders statuses along the workflow. Terminal statuses share the top
// rank; a request never moves to a lower-ranked status.
func (s GatePassStatus) Rank() int {
	switch s {
	case StatusAwaitingVerification:
		return 1
	case StatusAwaitingReceipt:
		return 2
	case StatusApproved, StatusRejected:
		return 3
	}
	return 0
}

// CanTransitionTo checks if the status can transition to the target status
func (s GatePassStatus) CanTransitionTo(target GatePassStatus) bool {
	switch s {
	case StatusAwaitingVerification:
		return target == StatusAwaitingReceipt || target == StatusRejected
	case StatusAwaitingReceipt:
		return target == StatusApproved || target == StatusRejected
	case StatusApproved, StatusRejected:
		return false
	}
	return false
}

// NextOnApproval returns the status an approval moves the request to
func (s GatePassStatus) NextOnApproval() (GatePassStatus, bool) {
	switch s {
	case StatusAwaitingVerification:
		return StatusAwaitingReceipt, true
	case StatusAwaitingReceipt:
		return StatusApproved, true
	}
	return s, false
}
