// Package fingerprint derives an OS guess from observed TCP SYN/ACK or
// RST replies, cascading from exact rulebase matches down to a coarse
// initial-TTL-class guess (spec §4.7).
package fingerprint

import (
	"github.com/poros-project/netreco/internal/model"
)

// Feature is the set of observed signals extracted from one captured
// TCP reply (spec §4.7 step 1).
type Feature struct {
	WindowSize    int
	OptionPattern string // e.g. "mss-nop-ws-nop-nop-ts-sack"
	DF            bool
	ECNEcho       bool
	TTLObserved   int
}

// Rule is one rulebase entry indexed by (window_size, option_pattern).
type Rule struct {
	WindowSize    int
	OptionPattern string
	Family        string
	DeviceType    string // e.g. "general purpose"
	Generation    int
	CPEs          []string
}

// Rulebase is the read-only collaborator the spec names in §6.
type Rulebase interface {
	// ExactMatches returns every rule whose (window, option pattern) is
	// byte-identical to the observed feature.
	ExactMatches(f Feature) []Rule
	// ApproximateMatches returns every rule whose window is within ±1000
	// of the observed one and where either option pattern starts with
	// the first 16 characters of the other.
	ApproximateMatches(f Feature) []Rule
	// Families lists every family name the rulebase can produce, used to
	// validate the "exact ⇒ family ∈ rulebase.families" testable property.
	Families() []string
}

// InitialTTLClass rounds an observed TTL up to the nearest canonical
// initial value {64, 128, 255} (spec §4.7).
func InitialTTLClass(observed int) int {
	switch {
	case observed <= 64:
		return 64
	case observed <= 128:
		return 128
	default:
		return 255
	}
}

// Guess runs the cascade: exact rulebase match, then approximate, then
// TTL-class fallback (spec §4.7).
func Guess(rb Rulebase, f Feature) model.OSGuess {
	ttlClass := InitialTTLClass(f.TTLObserved)

	if exact := highestGeneralPurposeGeneration(rb.ExactMatches(f)); exact != nil {
		return model.OSGuess{
			Family:          exact.Family,
			Confidence:      model.ConfidenceExact,
			TTLObserved:     f.TTLObserved,
			InitialTTLClass: ttlClass,
			CPEs:            exact.CPEs,
		}
	}

	if approx := highestGeneration(rb.ApproximateMatches(f)); approx != nil {
		return model.OSGuess{
			Family:          approx.Family,
			Confidence:      model.ConfidenceApproximate,
			TTLObserved:     f.TTLObserved,
			InitialTTLClass: ttlClass,
			CPEs:            approx.CPEs,
		}
	}

	return model.OSGuess{
		Family:          ttlClassFamily(ttlClass),
		Confidence:      model.ConfidenceTTLOnly,
		TTLObserved:     f.TTLObserved,
		InitialTTLClass: ttlClass,
	}
}

func highestGeneralPurposeGeneration(rules []Rule) *Rule {
	var best *Rule
	for i := range rules {
		r := &rules[i]
		if r.DeviceType != "general purpose" {
			continue
		}
		if best == nil || r.Generation > best.Generation {
			best = r
		}
	}
	return best
}

func highestGeneration(rules []Rule) *Rule {
	var best *Rule
	for i := range rules {
		r := &rules[i]
		if best == nil || r.Generation > best.Generation {
			best = r
		}
	}
	return best
}

// ttlClassFamily maps a rounded initial-TTL class to the coarse family
// names used when the rulebase has nothing better to offer (spec §4.7
// step 4; grounded on the same 64/128/255 split the teacher pack's
// TTL-based OS engine uses).
func ttlClassFamily(class int) string {
	switch class {
	case 64:
		return "Linux/Unix"
	case 128:
		return "Windows"
	default:
		return "Network device"
	}
}
