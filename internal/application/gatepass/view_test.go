package gatepass

import (
	"testing"
	"time"

	"github.com/gatepass/backend/internal/domain/gatepass"
	"github.com/gatepass/backend/internal/domain/identity"
	"github.com/stretchr/testify/assert"
)

func TestStatusesForTab(t *testing.T) {
	tests := []struct {
		name string
		tab  Tab
		role ActingRole
		want []gatepass.GatePassStatus
	}{
		{
			name: "pending for verifier",
			tab:  TabPending,
			role: RoleVerifier,
			want: []gatepass.GatePassStatus{gatepass.StatusAwaitingVerification},
		},
		{
			name: "pending for receiver",
			tab:  TabPending,
			role: RoleReceiver,
			want: []gatepass.GatePassStatus{gatepass.StatusAwaitingReceipt},
		},
		{
			name: "pending without role sees both awaiting stages",
			tab:  TabPending,
			want: []gatepass.GatePassStatus{gatepass.StatusAwaitingVerification, gatepass.StatusAwaitingReceipt},
		},
		{
			name: "approved",
			tab:  TabApproved,
			want: []gatepass.GatePassStatus{gatepass.StatusApproved},
		},
		{
			name: "rejected",
			tab:  TabRejected,
			want: []gatepass.GatePassStatus{gatepass.StatusRejected},
		},
		{
			name: "unknown tab sees everything",
			tab:  Tab("everything"),
			want: []gatepass.GatePassStatus{
				gatepass.StatusAwaitingVerification,
				gatepass.StatusAwaitingReceipt,
				gatepass.StatusApproved,
				gatepass.StatusRejected,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusesForTab(tt.tab, tt.role))
		})
	}
}

func viewRecord(refNo string) EnrichedRecord {
	return EnrichedRecord{
		ReferenceNumber: refNo,
		Status:          gatepass.StatusAwaitingVerification.String(),
		EffectiveAt:     time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
		Sender:          PartyView{Identifier: "EMP100", Profile: identity.Profile{ServiceNo: "EMP100", DisplayName: "A. Silva"}},
		Receiver:        PartyView{Identifier: "NSL200", Profile: identity.Profile{ServiceNo: "NSL200", DisplayName: "J. Perera"}, External: true},
		OutLocation:     "HQ Store",
		InLocation:      "Kandy OPMC",
		BranchOut:       "HO",
		BranchIn:        "KANDY",
		CompanyType:     "Contractor",
	}
}

func scopedSession(branches ...string) identity.SessionUser {
	return identity.SessionUser{
		Profile:  identity.Profile{ServiceNo: "EMP500"},
		Branches: branches,
	}
}

func TestProject_HiddenExclusion(t *testing.T) {
	hidden := viewRecord("GP-2026-00001")
	hidden.Hidden = true
	visible := viewRecord("GP-2026-00002")
	session := scopedSession("HO")

	out := Project([]EnrichedRecord{hidden, visible}, session, ListFilter{})
	assert.Len(t, out, 1)
	assert.Equal(t, "GP-2026-00002", out[0].ReferenceNumber)

	out = Project([]EnrichedRecord{hidden, visible}, session, ListFilter{ShowHidden: true})
	assert.Len(t, out, 2)
}

func TestProject_BranchScope(t *testing.T) {
	rec := viewRecord("GP-2026-00001")

	t.Run("out-of-scope branches are excluded", func(t *testing.T) {
		out := Project([]EnrichedRecord{rec}, scopedSession("GALLE"), ListFilter{})
		assert.Empty(t, out)
	})

	t.Run("either branch in scope is enough", func(t *testing.T) {
		out := Project([]EnrichedRecord{rec}, scopedSession("KANDY"), ListFilter{})
		assert.Len(t, out, 1)
	})

	t.Run("all-branches override sees everything", func(t *testing.T) {
		session := scopedSession()
		session.AllBranches = true
		out := Project([]EnrichedRecord{rec}, session, ListFilter{})
		assert.Len(t, out, 1)
	})

	t.Run("the sender always sees their own request", func(t *testing.T) {
		mine := viewRecord("GP-2026-00002")
		mine.Sender.Identifier = "EMP500"
		out := Project([]EnrichedRecord{mine}, scopedSession("GALLE"), ListFilter{})
		assert.Len(t, out, 1)
	})
}

func TestProject_ConjunctiveFilters(t *testing.T) {
	rec := viewRecord("GP-2026-00001")
	session := scopedSession("HO")

	tests := []struct {
		name    string
		filter  ListFilter
		matches bool
	}{
		{"no filters", ListFilter{}, true},
		{"search by ref", ListFilter{Search: "00001"}, true},
		{"search by sender name", ListFilter{Search: "silva"}, true},
		{"search by receiver name", ListFilter{Search: "perera"}, true},
		{"search misses", ListFilter{Search: "fernando"}, false},
		{"out location matches", ListFilter{OutLocation: "hq store"}, true},
		{"out location misses", ListFilter{OutLocation: "Galle Store"}, false},
		{"in location matches", ListFilter{InLocation: "Kandy OPMC"}, true},
		{"company type matches", ListFilter{CompanyType: "contractor"}, true},
		{"company type misses", ListFilter{CompanyType: "Vendor"}, false},
		{
			"date range contains",
			ListFilter{
				DateFrom: timePtr(time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)),
				DateTo:   timePtr(time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)),
			},
			true,
		},
		{
			"date range before",
			ListFilter{DateTo: timePtr(time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC))},
			false,
		},
		{
			"date range after",
			ListFilter{DateFrom: timePtr(time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC))},
			false,
		},
		{
			"all filters must hold",
			ListFilter{Search: "silva", OutLocation: "HQ Store", CompanyType: "Vendor"},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Project([]EnrichedRecord{rec}, session, tt.filter)
			if tt.matches {
				assert.Len(t, out, 1)
			} else {
				assert.Empty(t, out)
			}
		})
	}
}

func TestPaginate(t *testing.T) {
	records := []EnrichedRecord{
		viewRecord("GP-2026-00001"),
		viewRecord("GP-2026-00002"),
		viewRecord("GP-2026-00003"),
	}

	assert.Len(t, paginate(records, 0, 0), 3)
	assert.Len(t, paginate(records, 1, 2), 2)

	last := paginate(records, 2, 2)
	assert.Len(t, last, 1)
	assert.Equal(t, "GP-2026-00003", last[0].ReferenceNumber)

	assert.Empty(t, paginate(records, 5, 2))
}
