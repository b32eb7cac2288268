// Package refdata loads the static reference catalogs used to enrich
// analysis results: the shipboard location catalog, the guest registry, and
// the known-issue catalog. Datasets are read once at startup and are
// read-only for the process lifetime. A missing file yields an empty dataset,
// never a startup failure.
package refdata

import (
	"encoding/json"
	"log"
	"os"
	"strings"
)

// Location is one entry of the shipboard location catalog.
type Location struct {
	LocationID   string `json:"locationId"`
	LocationDesc string `json:"locationDesc"`
	GuestCabin   bool   `json:"guestCabin"`
	CrewCabin    bool   `json:"crewCabin"`
}

// Guest is one entry of the guest registry.
type Guest struct {
	Cabin     string `json:"cabin"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type guestRegistry struct {
	PassengerInfo []Guest `json:"passengerInfo"`
}

// Issue is one entry of the known-issue catalog.
type Issue struct {
	IssueTypeDesc        string `json:"issueTypeDesc"`
	PriorityDesc         string `json:"priorityDesc"`
	IssueGroupDesc       string `json:"issueGroupDesc"`
	Level1DepartmentDesc string `json:"level1DepartmentDesc"`
	IssueTypeID          string `json:"issueTypeId"`
}

// Store holds all three catalogs.
type Store struct {
	locations  []Location
	guests     []Guest
	issues     []Issue
	issueIndex map[string]Issue
}

// Paths names the three dataset files. Empty or missing paths load as empty
// datasets.
type Paths struct {
	Locations string
	Guests    string
	Issues    string
}

// Load reads the catalogs from disk. Unreadable or unparseable files are
// logged and treated as empty; startup never fails on reference data.
func Load(paths Paths, logger *log.Logger) *Store {
	s := &Store{issueIndex: make(map[string]Issue)}

	loadJSON(paths.Locations, &s.locations, logger)

	var registry guestRegistry
	loadJSON(paths.Guests, &registry, logger)
	s.guests = registry.PassengerInfo

	loadJSON(paths.Issues, &s.issues, logger)
	for _, issue := range s.issues {
		// Only complete entries participate in matching.
		if issue.IssueTypeDesc == "" || issue.PriorityDesc == "" || issue.Level1DepartmentDesc == "" {
			continue
		}
		s.issueIndex[normalizeIssue(issue.IssueTypeDesc)] = issue
	}

	if logger != nil {
		logger.Printf("refdata: loaded %d locations, %d guests, %d issues",
			len(s.locations), len(s.guests), len(s.issues))
	}
	return s
}

func loadJSON(path string, v any, logger *log.Logger) {
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) && logger != nil {
			logger.Printf("refdata: failed to read %s: %v", path, err)
		}
		return
	}
	if err := json.Unmarshal(data, v); err != nil && logger != nil {
		logger.Printf("refdata: failed to parse %s: %v", path, err)
	}
}

// MatchLocation scans the transcript for the first known location description
// contained in it, case-insensitively. Catalog entries flagged as guest or
// crew cabins are skipped. The lookup is purely local and independent of the
// external analysis result.
func (s *Store) MatchLocation(transcript string) (string, bool) {
	lower := strings.ToLower(transcript)
	for _, loc := range s.locations {
		if loc.GuestCabin || loc.CrewCabin {
			continue
		}
		desc := strings.ToLower(loc.LocationDesc)
		if desc != "" && strings.Contains(lower, desc) {
			return loc.LocationDesc, true
		}
	}
	return "", false
}

// IssueDescriptions returns the normalized descriptions of all matchable
// issues, in catalog order. This is the list handed to the analysis service.
func (s *Store) IssueDescriptions() []string {
	descs := make([]string, 0, len(s.issues))
	for _, issue := range s.issues {
		key := normalizeIssue(issue.IssueTypeDesc)
		if _, ok := s.issueIndex[key]; ok {
			descs = append(descs, key)
		}
	}
	return descs
}

// IssueByDesc returns the catalog entry for a matched issue description,
// insensitive to case and surrounding whitespace.
func (s *Store) IssueByDesc(desc string) (Issue, bool) {
	issue, ok := s.issueIndex[normalizeIssue(desc)]
	return issue, ok
}

func normalizeIssue(desc string) string {
	return strings.ToLower(strings.TrimSpace(desc))
}
