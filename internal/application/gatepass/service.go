package gatepass

import (
	"context"
	"time"

	"github.com/gatepass/backend/internal/domain/gatepass"
	"github.com/gatepass/backend/internal/domain/identity"
	"github.com/gatepass/backend/internal/domain/shared"
	"github.com/gatepass/backend/internal/infrastructure/logger"
	"github.com/gatepass/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// GatePassService drives the approval workflow: listing projected views and
// applying the mutations (submit, approve, reject, mark returned, add item).
type GatePassService struct {
	repo     gatepass.Repository
	pipeline *EnrichmentPipeline
	metrics  *telemetry.GatePassMetrics
	events   shared.EventPublisher
}

// ServiceOption configures a GatePassService
type ServiceOption func(*GatePassService)

// WithServiceMetrics attaches business counters
func WithServiceMetrics(m *telemetry.GatePassMetrics) ServiceOption {
	return func(s *GatePassService) {
		s.metrics = m
	}
}

// WithEventPublisher attaches a publisher for workflow domain events
func WithEventPublisher(p shared.EventPublisher) ServiceOption {
	return func(s *GatePassService) {
		s.events = p
	}
}

// NewGatePassService creates a new GatePassService
func NewGatePassService(repo gatepass.Repository, pipeline *EnrichmentPipeline, opts ...ServiceOption) *GatePassService {
	s := &GatePassService{
		repo:     repo,
		pipeline: pipeline,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// listingFilter fetches the whole stage ordered newest first. Reconciliation
// and projection need every record, so the store must not pre-page.
func listingFilter() shared.Filter {
	f := shared.DefaultFilter()
	f.PageSize = 0
	return f
}

// List builds the workflow view for one tab: fetch, reconcile, enrich,
// project, page. Pagination happens after projection so filtered-out records
// never eat into a page.
func (s *GatePassService) List(ctx context.Context, session identity.SessionUser, filter ListFilter) (*ListResponse, error) {
	started := time.Now()

	var (
		records []gatepass.StatusRecord
		err     error
	)
	if filter.Tab == TabMyRequests {
		records, err = s.repo.ListBySender(ctx, session.Profile.ServiceNo, listingFilter())
	} else {
		statuses := StatusesForTab(filter.Tab, filter.Role)
		records, err = s.repo.ListByStatus(ctx, statuses, listingFilter())
	}
	if err != nil {
		return nil, err
	}

	reconciled := gatepass.Reconcile(records)
	enriched := s.pipeline.Enrich(ctx, session, reconciled)
	projected := Project(enriched, session, filter)
	page := paginate(projected, filter.Page, filter.PageSize)

	if s.metrics != nil {
		s.metrics.RecordReconcile(ctx, time.Since(started).Seconds())
	}
	logger.L(ctx).Debug("Workflow view built",
		zap.String("tab", string(filter.Tab)),
		zap.Int("fetched", len(records)),
		zap.Int("reconciled", len(reconciled)),
		zap.Int("projected", len(projected)))

	return &ListResponse{
		Records:  page,
		Total:    len(projected),
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

// Get returns one enriched record by reference number
func (s *GatePassService) Get(ctx context.Context, session identity.SessionUser, refNo string) (*EnrichedRecord, error) {
	gp, err := s.repo.FindByRefNo(ctx, refNo)
	if err != nil {
		return nil, err
	}
	enriched := s.pipeline.Enrich(ctx, session, []gatepass.StatusRecord{gatepass.RecordFromRequest(gp)})
	return &enriched[0], nil
}

// Create submits a new gate pass on behalf of the session user. External
// receivers must carry their snapshot details since no directory entry backs
// them.
func (s *GatePassService) Create(ctx context.Context, session identity.SessionUser, req CreateRequest) (*EnrichedRecord, error) {
	if identity.IsExternal(req.ReceiverID) && req.ReceiverID != "" && req.ReceiverName == "" {
		return nil, shared.NewDomainError("RECEIVER_DETAILS_REQUIRED", "External receiver name is required")
	}

	refNo, err := s.repo.GenerateRefNo(ctx)
	if err != nil {
		return nil, err
	}

	gp, err := gatepass.NewGatePassRequest(refNo, session.Profile.ServiceNo, req.ReceiverID,
		req.OutLocation, req.InLocation, req.BranchOut, req.BranchIn)
	if err != nil {
		return nil, err
	}
	gp.ReceiverName = req.ReceiverName
	gp.ReceiverContact = req.ReceiverContact
	gp.ReceiverNIC = req.ReceiverNIC
	gp.CompanyType = req.CompanyType
	gp.TransportMode = req.TransportMode
	gp.VehicleNo = req.VehicleNo

	for _, item := range req.Items {
		if _, err := gp.AddItem(item.SerialNumber, item.Name, item.Category, item.Model, item.Quantity, item.Returnable); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, gp); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, gp)

	if s.metrics != nil {
		s.metrics.RecordCreated(ctx, gp.BranchOut)
	}
	logger.L(ctx).Info("Gate pass submitted",
		zap.String("ref_no", refNo),
		zap.String("sender", session.Profile.ServiceNo),
		zap.Int("items", len(req.Items)))

	enriched := s.pipeline.Enrich(ctx, session, []gatepass.StatusRecord{gatepass.RecordFromRequest(gp)})
	return &enriched[0], nil
}

// Approve advances the gate pass one stage. The transition is written with
// the loaded stage as precondition, so a concurrent actor who got there
// first surfaces as ErrStaleWriteConflict instead of being overwritten.
func (s *GatePassService) Approve(ctx context.Context, session identity.SessionUser, refNo string, req ApproveRequest) (*EnrichedRecord, error) {
	gp, err := s.repo.FindByRefNo(ctx, refNo)
	if err != nil {
		return nil, err
	}

	expected := gp.Status
	details := gatepass.StageDetails{
		LoaderServiceNo:    req.LoaderServiceNo,
		ReceivingServiceNo: req.ReceivingStaffNo,
		VehicleNo:          req.VehicleNo,
	}
	if err := gp.Approve(session.Profile.ServiceNo, req.Comment, details, req.ReturnableSerials); err != nil {
		return nil, err
	}
	if err := s.repo.SaveTransition(ctx, gp, expected); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, gp)

	if s.metrics != nil {
		s.metrics.RecordTransition(ctx, gp.Status.String())
	}
	logger.L(ctx).Info("Gate pass approved",
		zap.String("ref_no", refNo),
		zap.String("actor", session.Profile.ServiceNo),
		zap.String("status", gp.Status.String()))

	enriched := s.pipeline.Enrich(ctx, session, []gatepass.StatusRecord{gatepass.RecordFromRequest(gp)})
	return &enriched[0], nil
}

// Reject turns the gate pass down at its current stage
func (s *GatePassService) Reject(ctx context.Context, session identity.SessionUser, refNo string, req RejectRequest) (*EnrichedRecord, error) {
	gp, err := s.repo.FindByRefNo(ctx, refNo)
	if err != nil {
		return nil, err
	}

	expected := gp.Status
	if err := gp.Reject(session.Profile.ServiceNo, req.Comment); err != nil {
		return nil, err
	}
	if err := s.repo.SaveTransition(ctx, gp, expected); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, gp)

	if s.metrics != nil {
		s.metrics.RecordTransition(ctx, gp.Status.String())
	}
	logger.L(ctx).Info("Gate pass rejected",
		zap.String("ref_no", refNo),
		zap.String("actor", session.Profile.ServiceNo),
		zap.String("level", gp.RejectionLevel.String()))

	enriched := s.pipeline.Enrich(ctx, session, []gatepass.StatusRecord{gatepass.RecordFromRequest(gp)})
	return &enriched[0], nil
}

// MarkReturned transitions the given serials to returned and reports how
// many actually moved. The store applies the batch in one transaction.
func (s *GatePassService) MarkReturned(ctx context.Context, refNo string, serials []string) (*ReturnItemsResponse, error) {
	updated, err := s.repo.MarkItemsReturned(ctx, refNo, serials)
	if err != nil {
		return nil, err
	}
	if s.events != nil && updated > 0 {
		if gp, ferr := s.repo.FindByRefNo(ctx, refNo); ferr == nil {
			_ = s.events.Publish(ctx, gatepass.NewGatePassItemsReturnedEvent(gp, serials, updated))
		}
	}

	if s.metrics != nil {
		s.metrics.RecordItemsReturned(ctx, int64(updated))
	}
	logger.L(ctx).Info("Items marked returned",
		zap.String("ref_no", refNo),
		zap.Int("requested", len(serials)),
		zap.Int("updated", updated))

	return &ReturnItemsResponse{UpdatedCount: updated}, nil
}

// publishEvents drains the aggregate's pending events into the publisher.
// Dispatch happens after the write committed, so handlers only ever see
// persisted state.
func (s *GatePassService) publishEvents(ctx context.Context, gp *gatepass.GatePassRequest) {
	if s.events == nil {
		return
	}
	events := gp.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("Event publish failed", zap.Error(err))
	}
	gp.ClearDomainEvents()
}

// SetHidden toggles the request's visibility in projected views
func (s *GatePassService) SetHidden(ctx context.Context, refNo string, hidden bool) error {
	gp, err := s.repo.FindByRefNo(ctx, refNo)
	if err != nil {
		return err
	}

	if hidden {
		gp.Hide()
	} else {
		gp.Unhide()
	}
	if err := s.repo.Save(ctx, gp); err != nil {
		return err
	}

	logger.L(ctx).Info("Gate pass visibility changed",
		zap.String("ref_no", refNo),
		zap.Bool("hidden", hidden))
	return nil
}

// AddItem appends one item to a non-terminal gate pass
func (s *GatePassService) AddItem(ctx context.Context, refNo string, req AddItemRequest) error {
	gp, err := s.repo.FindByRefNo(ctx, refNo)
	if err != nil {
		return err
	}

	item, err := gatepass.NewGatePassItem(gp.ID, req.SerialNumber, req.Name, req.Category, req.Model, req.Quantity, req.Returnable)
	if err != nil {
		return err
	}
	return s.repo.AppendItem(ctx, refNo, item)
}
