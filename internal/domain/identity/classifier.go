package identity

import (
	"regexp"
	"strings"
)

// PartyKind classifies a counterparty identifier
type PartyKind string

const (
	// PartyInternal identifies an SLT employee resolvable via the directory
	PartyInternal PartyKind = "INTERNAL"
	// PartyExternal identifies a non-SLT counterparty; details come from the
	// request snapshot, never from a directory lookup
	PartyExternal PartyKind = "EXTERNAL"
)

// nonSltPrefix marks identifiers issued to external parties
const nonSltPrefix = "NSL"

// numericIDPattern matches bare 4-6 digit identifiers, which are treated as
// external. Classification is a function of the identifier's shape only;
// whether the identifier actually resolves is a separate concern.
var numericIDPattern = regexp.MustCompile(`^\d{4,6}$`)

// Classify determines whether an identifier belongs to an internal employee
// or an external party. It is pure and total: the same input always yields
// the same output, and no lookup is ever attempted.
func Classify(identifier string) PartyKind {
	if identifier == "" {
		return PartyExternal
	}
	if strings.HasPrefix(identifier, nonSltPrefix) {
		return PartyExternal
	}
	if numericIDPattern.MatchString(identifier) {
		return PartyExternal
	}
	return PartyInternal
}

// IsExternal is a convenience wrapper around Classify
func IsExternal(identifier string) bool {
	return Classify(identifier) == PartyExternal
}
