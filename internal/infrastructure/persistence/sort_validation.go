package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
// Sort fields end up interpolated into ORDER BY clauses, so anything outside
// the whitelist is rejected rather than escaped.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// GatePassSortFields contains allowed sort fields for gate pass requests
var GatePassSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"ref_no":            true,
	"status":            true,
	"status_changed_at": true,
	"sender_service_no": true,
	"receiver_id":       true,
	"branch_out":        true,
	"branch_in":         true,
	"out_location":      true,
	"in_location":       true,
}

// GatePassItemSortFields contains allowed sort fields for gate pass items
var GatePassItemSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"serial_number": true,
	"name":          true,
	"category":      true,
	"return_state":  true,
	"returned_at":   true,
}
