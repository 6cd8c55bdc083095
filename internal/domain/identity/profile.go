package identity

import (
	"context"

	"github.com/gatepass/backend/internal/domain/shared"
)

// ProfileSource indicates where a resolved profile came from
type ProfileSource string

const (
	SourceDirectory ProfileSource = "DIRECTORY"
	SourceERP       ProfileSource = "ERP"
	SourceSession   ProfileSource = "SESSION"
	SourceSnapshot  ProfileSource = "SNAPSHOT"
	SourceSentinel  ProfileSource = "SENTINEL"
)

// Profile holds the enriched identity data for one party on a gate pass.
// A profile is immutable once resolved; refreshes replace it wholesale.
type Profile struct {
	ServiceNo   string        `json:"service_no"`
	DisplayName string        `json:"display_name"`
	Section     string        `json:"section"`
	Group       string        `json:"group"`
	Designation string        `json:"designation"`
	ContactNo   string        `json:"contact_no"`
	Email       string        `json:"email,omitempty"`
	Source      ProfileSource `json:"source"`
}

const unknownField = "Unknown"

// NewSentinelProfile returns the placeholder profile used when an internal
// identifier cannot be resolved through any lookup source. Only the service
// number is carried; every other field reads as unknown.
func NewSentinelProfile(serviceNo string) Profile {
	return Profile{
		ServiceNo:   serviceNo,
		DisplayName: unknownField,
		Section:     unknownField,
		Group:       unknownField,
		Designation: unknownField,
		ContactNo:   unknownField,
		Source:      SourceSentinel,
	}
}

// IsSentinel reports whether the profile is the unresolved placeholder
func (p Profile) IsSentinel() bool {
	return p.Source == SourceSentinel
}

// SessionUser is the authenticated user as materialized from the session
// token: their own profile plus the branch scope they are authorized for.
type SessionUser struct {
	Profile     Profile
	Branches    []string
	AllBranches bool
}

// CanAccessBranch reports whether the session user may see records scoped to
// the given branch. An empty branch on a record is visible to everyone.
func (u SessionUser) CanAccessBranch(branch string) bool {
	if u.AllBranches || branch == "" {
		return true
	}
	for _, b := range u.Branches {
		if b == branch {
			return true
		}
	}
	return false
}

// RawEmployeeRecord is the employee row shape returned by the ERP lookup.
// The enrichment pipeline maps it into a Profile.
type RawEmployeeRecord struct {
	EmployeeNo  string `json:"employee_no"`
	FullName    string `json:"full_name"`
	Division    string `json:"division"`
	CostCenter  string `json:"cost_center"`
	JobTitle    string `json:"job_title"`
	MobileNo    string `json:"mobile_no"`
	OfficeEmail string `json:"office_email"`
}

// ToProfile maps an ERP employee record into the common profile shape
func (r RawEmployeeRecord) ToProfile() Profile {
	return Profile{
		ServiceNo:   r.EmployeeNo,
		DisplayName: r.FullName,
		Section:     r.Division,
		Group:       r.CostCenter,
		Designation: r.JobTitle,
		ContactNo:   r.MobileNo,
		Email:       r.OfficeEmail,
		Source:      SourceERP,
	}
}

// ErrProfileNotFound is returned by lookups and the resolver when no profile
// exists for an identifier. Lookup transport failures are mapped to this
// error as well; enrichment degrades to a sentinel instead of failing.
var ErrProfileNotFound = shared.NewDomainError("PROFILE_NOT_FOUND", "No profile found for identifier")

// ResolveMode selects the cache behavior of a Resolve call
type ResolveMode int

const (
	// CacheFirst returns a cached entry when present and only calls the
	// remote lookup on a miss.
	CacheFirst ResolveMode = iota
	// ForceRefresh always calls the remote lookup and replaces the cache
	// entry on success. On failure the previous entry is kept.
	ForceRefresh
)

// Resolver resolves internal identifiers to profiles with bounded staleness.
// Implementations must coalesce concurrent lookups for the same identifier.
type Resolver interface {
	Resolve(ctx context.Context, serviceNo string, mode ResolveMode) (*Profile, error)
	Seed(profile Profile)
}

// DirectoryLookup is the identity directory port
type DirectoryLookup interface {
	Lookup(ctx context.Context, serviceNo string) (*Profile, error)
}

// EmployeeLookup is the ERP employee lookup port
type EmployeeLookup interface {
	LookupEmployee(ctx context.Context, serviceNo string) (*RawEmployeeRecord, error)
}
