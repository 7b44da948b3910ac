package conversation

import "github.com/suPer8Hu/pairhub/internal/pairing"

// Scheme is one way a device pair has been identified over time. Lookups walk
// schemes in order and stop at the first hit.
type Scheme struct {
	Name   string
	Column string
	// FromDevices derives the column value from two raw device identifiers.
	// Nil when the value cannot be recomputed (e.g. a random id).
	FromDevices func(a, b any) string
}

var (
	CanonicalScheme = Scheme{Name: "canonical", Column: "id", FromDevices: pairing.PairID}
	TempIDScheme    = Scheme{Name: "legacy_temp_id", Column: "temp_pair_id"}
	HashScheme      = Scheme{Name: "legacy_hash", Column: "pair_hash", FromDevices: pairing.LegacyHash}
)

// DefaultSchemes is the canonical id followed by the two legacy schemes.
func DefaultSchemes() []Scheme {
	return []Scheme{CanonicalScheme, TempIDScheme, HashScheme}
}
