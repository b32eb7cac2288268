package refdata

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// nameMatchThreshold is the minimum normalized similarity (0-1) for a fuzzy
// name match to win over the positional fallback.
const nameMatchThreshold = 0.80

// LookupGuest resolves a guest from the registry by cabin number.
//
// All registry entries sharing the cabin are candidates. When a first or last
// name was extracted from the transcript, the candidate with the highest
// average name similarity wins, provided it clears the threshold; transcribed
// names are often slightly misspelled, which exact matching would miss.
// Otherwise the first registry entry for the cabin is returned.
func (s *Store) LookupGuest(cabin, firstName, lastName string) (Guest, bool) {
	var candidates []Guest
	for _, g := range s.guests {
		if g.Cabin == cabin {
			candidates = append(candidates, g)
		}
	}
	if len(candidates) == 0 {
		return Guest{}, false
	}

	if firstName != "" || lastName != "" {
		var best Guest
		bestScore := 0.0
		for _, g := range candidates {
			score := nameScore(firstName, lastName, g)
			if score > bestScore {
				bestScore = score
				best = g
			}
		}
		if bestScore >= nameMatchThreshold {
			return best, true
		}
	}

	return candidates[0], true
}

// nameScore averages the similarity of the provided name components against
// the registry entry. A component the transcript did not provide counts as a
// perfect match, so a lone first name can still clear the threshold.
func nameScore(firstName, lastName string, g Guest) float64 {
	lev := metrics.NewLevenshtein()

	fnScore := 1.0
	if firstName != "" {
		fnScore = strutil.Similarity(strings.ToLower(firstName), strings.ToLower(g.FirstName), lev)
	}
	lnScore := 1.0
	if lastName != "" {
		lnScore = strutil.Similarity(strings.ToLower(lastName), strings.ToLower(g.LastName), lev)
	}
	return (fnScore + lnScore) / 2
}
