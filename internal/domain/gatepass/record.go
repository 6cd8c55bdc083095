package gatepass

import (
	"sort"
	"time"
)

// StatusRecord is one workflow-status observation for a gate pass: the stage
// the request was in at one point in time plus the request snapshot itself.
// A single fetch may carry several records for the same reference number
// (re-polled data, overlapping fetches); Reconcile collapses them.
type StatusRecord struct {
	ReferenceNumber string
	Status          GatePassStatus
	StatusChangedAt *time.Time
	Comment         string
	RejectedBy      string
	RejectedAt      *time.Time
	RejectionLevel  GatePassStatus
	Request         GatePassRequest
}

// EffectiveTime is the timestamp that orders records: the stage-transition
// time when present, otherwise the request's creation time.
func (r StatusRecord) EffectiveTime() time.Time {
	if r.StatusChangedAt != nil {
		return *r.StatusChangedAt
	}
	return r.Request.CreatedAt
}

// RecordFromRequest builds the status record for a request's current state
func RecordFromRequest(gp *GatePassRequest) StatusRecord {
	return StatusRecord{
		ReferenceNumber: gp.RefNo,
		Status:          gp.Status,
		StatusChangedAt: gp.StatusChangedAt,
		Comment:         gp.Comment,
		RejectedBy:      gp.RejectedBy,
		RejectedAt:      gp.RejectedAt,
		RejectionLevel:  gp.RejectionLevel,
		Request:         *gp,
	}
}

// Reconcile merges raw status records into exactly one record per reference
// number, freshest wins. On an effective-time tie the record later in the
// input order is kept, so a newer fetch appended after an older one takes
// precedence. The result is ordered by effective time, newest first.
//
// Reconcile is pure and idempotent: Reconcile(Reconcile(xs)) == Reconcile(xs).
func Reconcile(records []StatusRecord) []StatusRecord {
	if len(records) == 0 {
		return []StatusRecord{}
	}

	chosen := make(map[string]int, len(records))
	refs := make([]string, 0, len(records))

	for i, rec := range records {
		prev, seen := chosen[rec.ReferenceNumber]
		if !seen {
			chosen[rec.ReferenceNumber] = i
			refs = append(refs, rec.ReferenceNumber)
			continue
		}
		// Later input wins a tie
		if !rec.EffectiveTime().Before(records[prev].EffectiveTime()) {
			chosen[rec.ReferenceNumber] = i
		}
	}

	out := make([]StatusRecord, 0, len(refs))
	for _, ref := range refs {
		out = append(out, records[chosen[ref]])
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EffectiveTime().After(out[j].EffectiveTime())
	})

	return out
}
