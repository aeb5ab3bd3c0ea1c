// Package herospec resolves a character's hero specialization from its
// talent list, using a static talent-id to label mapping loaded once at
// process start.
package herospec

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// Table is an immutable talent-id to hero-spec label mapping.
type Table struct {
	labels map[int]string
}

// NewTable builds a table from an explicit mapping. Intended for tests and
// callers that construct the mapping programmatically.
func NewTable(labels map[int]string) Table {
	copied := make(map[int]string, len(labels))
	for id, label := range labels {
		copied[id] = label
	}
	return Table{labels: copied}
}

// Load reads the mapping from a JSON file of the form {"talentID": "Label"}.
// A missing or malformed file yields an empty table, never an error: missing
// mapping data must not block harvesting. The condition is logged once.
func Load(path string) Table {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).
			Msg("Hero-spec table unavailable, hero specs will be null")
		return Table{labels: map[int]string{}}
	}

	var byString map[string]string
	if err := json.Unmarshal(raw, &byString); err != nil {
		log.Warn().Err(err).Str("path", path).
			Msg("Hero-spec table malformed, hero specs will be null")
		return Table{labels: map[int]string{}}
	}

	labels := make(map[int]string, len(byString))
	for idStr, label := range byString {
		id, err := strconv.Atoi(idStr)
		if err != nil {
			continue
		}
		labels[id] = label
	}

	return Table{labels: labels}
}

// Len returns the number of known talent ids.
func (t Table) Len() int {
	return len(t.labels)
}

// Resolve returns the label of the first talent id with a known mapping,
// iterating in list order. Returns nil when no id matches.
func (t Table) Resolve(talentIDs []int) *string {
	for _, id := range talentIDs {
		if label, ok := t.labels[id]; ok {
			return &label
		}
	}
	return nil
}
