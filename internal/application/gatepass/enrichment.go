package gatepass

import (
	"context"

	"github.com/gatepass/backend/internal/domain/gatepass"
	"github.com/gatepass/backend/internal/domain/identity"
	"github.com/gatepass/backend/internal/infrastructure/logger"
	"github.com/gatepass/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EnrichmentPipeline resolves every party on a reconciled status record into
// a profile. Resolution is total: lookup failures degrade to sentinel
// profiles, and a record is only handed back once all of its roles settled.
type EnrichmentPipeline struct {
	resolver identity.Resolver
	erp      identity.EmployeeLookup
	metrics  *telemetry.GatePassMetrics
}

// PipelineOption configures an EnrichmentPipeline
type PipelineOption func(*EnrichmentPipeline)

// WithERPFallback adds an ERP employee lookup tried after the resolver
func WithERPFallback(erp identity.EmployeeLookup) PipelineOption {
	return func(p *EnrichmentPipeline) {
		p.erp = erp
	}
}

// WithPipelineMetrics attaches lookup counters
func WithPipelineMetrics(m *telemetry.GatePassMetrics) PipelineOption {
	return func(p *EnrichmentPipeline) {
		p.metrics = m
	}
}

// NewEnrichmentPipeline creates a pipeline backed by the given resolver
func NewEnrichmentPipeline(resolver identity.Resolver, opts ...PipelineOption) *EnrichmentPipeline {
	p := &EnrichmentPipeline{resolver: resolver}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Enrich resolves all parties on each record. The output preserves the
// input order, so a reconciled (newest first) batch stays that way.
func (p *EnrichmentPipeline) Enrich(ctx context.Context, session identity.SessionUser, records []gatepass.StatusRecord) []EnrichedRecord {
	out := make([]EnrichedRecord, len(records))
	for i, rec := range records {
		out[i] = p.enrichRecord(ctx, session, rec)
	}
	return out
}

// enrichRecord settles every party role concurrently and assembles the view
func (p *EnrichmentPipeline) enrichRecord(ctx context.Context, session identity.SessionUser, rec gatepass.StatusRecord) EnrichedRecord {
	req := rec.Request

	enriched := EnrichedRecord{
		ReferenceNumber: rec.ReferenceNumber,
		Status:          rec.Status.String(),
		EffectiveAt:     rec.EffectiveTime(),
		CreatedAt:       req.CreatedAt,
		Comment:         rec.Comment,
		RejectedAt:      rec.RejectedAt,
		OutLocation:     req.OutLocation,
		InLocation:      req.InLocation,
		BranchOut:       req.BranchOut,
		BranchIn:        req.BranchIn,
		CompanyType:     req.CompanyType,
		TransportMode:   req.TransportMode,
		VehicleNo:       req.VehicleNo,
		Items:           itemViews(req.Items),
		Hidden:          req.Hidden,
		Remarks:         req.Remarks,
	}
	if rec.RejectionLevel != "" {
		enriched.RejectionLevel = rec.RejectionLevel.String()
	}

	var g errgroup.Group

	g.Go(func() error {
		enriched.Sender = p.resolveParty(ctx, session, req.SenderServiceNo, nil)
		return nil
	})
	g.Go(func() error {
		enriched.Receiver = p.resolveParty(ctx, session, req.ReceiverID, &req)
		return nil
	})
	if req.LoaderServiceNo != "" {
		g.Go(func() error {
			party := p.resolveParty(ctx, session, req.LoaderServiceNo, nil)
			enriched.Loader = &party
			return nil
		})
	}
	if req.ReceivingServiceNo != "" {
		g.Go(func() error {
			party := p.resolveParty(ctx, session, req.ReceivingServiceNo, nil)
			enriched.Receiving = &party
			return nil
		})
	}
	if rec.RejectedBy != "" {
		g.Go(func() error {
			party := p.resolveParty(ctx, session, rec.RejectedBy, nil)
			enriched.RejectedBy = &party
			return nil
		})
	}

	_ = g.Wait() // workers never fail, resolution degrades instead

	return enriched
}

// resolveParty resolves one identifier to a profile. The snapshot request is
// passed only for the receiver role, whose identity may live entirely in the
// submission snapshot when the party is external.
func (p *EnrichmentPipeline) resolveParty(ctx context.Context, session identity.SessionUser, id string, snapshot *gatepass.GatePassRequest) PartyView {
	// The caller's own profile never needs a remote call. Seeding it keeps
	// later resolutions for the same identifier off the wire too.
	if id != "" && id == session.Profile.ServiceNo {
		profile := session.Profile
		profile.Source = identity.SourceSession
		p.resolver.Seed(profile)
		p.recordLookup(ctx, string(identity.SourceSession), "hit")
		return PartyView{Identifier: id, Profile: profile}
	}

	if identity.IsExternal(id) {
		return PartyView{
			Identifier: id,
			Profile:    snapshotProfile(id, snapshot),
			External:   true,
		}
	}

	if profile, err := p.resolver.Resolve(ctx, id, identity.CacheFirst); err == nil {
		p.recordLookup(ctx, string(profile.Source), "resolved")
		return PartyView{Identifier: id, Profile: *profile}
	}

	if p.erp != nil {
		if emp, err := p.erp.LookupEmployee(ctx, id); err == nil {
			profile := emp.ToProfile()
			p.resolver.Seed(profile)
			p.recordLookup(ctx, string(identity.SourceERP), "resolved")
			return PartyView{Identifier: id, Profile: profile}
		} else {
			logger.L(ctx).Debug("ERP fallback lookup failed",
				zap.String("service_no", id),
				zap.Error(err))
		}
	}

	p.recordLookup(ctx, string(identity.SourceSentinel), "degraded")
	return PartyView{Identifier: id, Profile: identity.NewSentinelProfile(id)}
}

// snapshotProfile synthesizes an external party's profile from the fields
// captured at submission. The directory is never consulted for externals.
func snapshotProfile(id string, req *gatepass.GatePassRequest) identity.Profile {
	profile := identity.Profile{
		ServiceNo:   id,
		DisplayName: "External party",
		Source:      identity.SourceSnapshot,
	}
	if req != nil {
		if req.ReceiverName != "" {
			profile.DisplayName = req.ReceiverName
		}
		profile.ContactNo = req.ReceiverContact
		profile.Section = req.CompanyType
	}
	return profile
}

func (p *EnrichmentPipeline) recordLookup(ctx context.Context, source, outcome string) {
	if p.metrics != nil {
		p.metrics.RecordLookup(ctx, source, outcome)
	}
}
