package gatepass

import (
	"strings"

	"github.com/gatepass/backend/internal/domain/gatepass"
	"github.com/gatepass/backend/internal/domain/identity"
)

// StatusesForTab maps a tab and acting role to the workflow statuses the
// store should be asked for. Pending splits by role: a verifier works the
// first stage while a receiver works the second. An unknown tab sees every
// stage.
func StatusesForTab(tab Tab, role ActingRole) []gatepass.GatePassStatus {
	switch tab {
	case TabPending:
		switch role {
		case RoleReceiver:
			return []gatepass.GatePassStatus{gatepass.StatusAwaitingReceipt}
		case RoleVerifier:
			return []gatepass.GatePassStatus{gatepass.StatusAwaitingVerification}
		default:
			return []gatepass.GatePassStatus{
				gatepass.StatusAwaitingVerification,
				gatepass.StatusAwaitingReceipt,
			}
		}
	case TabApproved:
		return []gatepass.GatePassStatus{gatepass.StatusApproved}
	case TabRejected:
		return []gatepass.GatePassStatus{gatepass.StatusRejected}
	default:
		return []gatepass.GatePassStatus{
			gatepass.StatusAwaitingVerification,
			gatepass.StatusAwaitingReceipt,
			gatepass.StatusApproved,
			gatepass.StatusRejected,
		}
	}
}

// Project applies visibility scoping and the caller's filters to an already
// enriched batch. It performs no I/O and keeps the input's newest-first
// ordering, so the result is deterministic for a given input.
func Project(records []EnrichedRecord, session identity.SessionUser, filter ListFilter) []EnrichedRecord {
	out := make([]EnrichedRecord, 0, len(records))
	for _, rec := range records {
		if rec.Hidden && !filter.ShowHidden {
			continue
		}
		if !visibleToBranchScope(rec, session) {
			continue
		}
		if !matchesFilters(rec, filter) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// visibleToBranchScope hides records whose branches are all outside the
// caller's authorized set. The all-branches override sees everything, and
// the sender always sees their own requests.
func visibleToBranchScope(rec EnrichedRecord, session identity.SessionUser) bool {
	if rec.Sender.Identifier == session.Profile.ServiceNo {
		return true
	}
	return session.CanAccessBranch(rec.BranchOut) || session.CanAccessBranch(rec.BranchIn)
}

// matchesFilters applies the free-text, location, company-type and date
// filters conjunctively.
func matchesFilters(rec EnrichedRecord, filter ListFilter) bool {
	if filter.Search != "" && !matchesSearch(rec, filter.Search) {
		return false
	}
	if filter.OutLocation != "" && !strings.EqualFold(rec.OutLocation, filter.OutLocation) {
		return false
	}
	if filter.InLocation != "" && !strings.EqualFold(rec.InLocation, filter.InLocation) {
		return false
	}
	if filter.CompanyType != "" && !strings.EqualFold(rec.CompanyType, filter.CompanyType) {
		return false
	}
	if filter.DateFrom != nil && rec.EffectiveAt.Before(*filter.DateFrom) {
		return false
	}
	// DateTo is an inclusive calendar date
	if filter.DateTo != nil && !rec.EffectiveAt.Before(filter.DateTo.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

// matchesSearch does a case-insensitive substring match over the reference
// number and the resolved party names.
func matchesSearch(rec EnrichedRecord, term string) bool {
	needle := strings.ToLower(term)
	haystacks := []string{
		rec.ReferenceNumber,
		rec.Sender.Profile.DisplayName,
		rec.Receiver.Profile.DisplayName,
		rec.Sender.Identifier,
		rec.Receiver.Identifier,
	}
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

// paginate slices a projected batch for one page. Page numbers are 1-based;
// a zero page size means no paging.
func paginate(records []EnrichedRecord, page, pageSize int) []EnrichedRecord {
	if pageSize <= 0 {
		return records
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(records) {
		return []EnrichedRecord{}
	}
	end := start + pageSize
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}
