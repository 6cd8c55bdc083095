package gatepass

import (
	"context"

	"github.com/gatepass/backend/internal/domain/shared"
)

// Repository is the persistence port for gate pass requests. It doubles as
// the workflow-backend interface the reconciliation core consumes: list by
// stage, load, save, plus the transactional item-ledger operations.
type Repository interface {
	// Save persists the aggregate and its items
	Save(ctx context.Context, gp *GatePassRequest) error

	// SaveTransition persists a stage transition only if the stored record
	// is still in the expected stage; otherwise shared.ErrStaleWriteConflict
	// is returned and nothing is changed.
	SaveTransition(ctx context.Context, gp *GatePassRequest, expected GatePassStatus) error

	// FindByRefNo loads a request by reference number
	FindByRefNo(ctx context.Context, refNo string) (*GatePassRequest, error)

	// ListByStatus returns the status records for every request currently in
	// one of the given stages, items preloaded.
	ListByStatus(ctx context.Context, statuses []GatePassStatus, filter shared.Filter) ([]StatusRecord, error)

	// ListBySender returns the status records for requests submitted by the
	// given service number.
	ListBySender(ctx context.Context, senderServiceNo string, filter shared.Filter) ([]StatusRecord, error)

	// MarkItemsReturned transitions the given serials to RETURNED in one
	// transaction and reports how many items actually changed. Either every
	// eligible item transitions or none do.
	MarkItemsReturned(ctx context.Context, refNo string, serials []string) (int, error)

	// AppendItem adds an item to a non-terminal request
	AppendItem(ctx context.Context, refNo string, item *GatePassItem) error

	// GenerateRefNo produces the next GP-<year>-<seq> reference number
	GenerateRefNo(ctx context.Context) (string, error)
}
