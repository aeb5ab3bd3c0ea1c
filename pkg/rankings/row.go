// Package rankings fetches character rankings for a raid encounter and
// flattens them into normalized tabular rows.
package rankings

import (
	"encoding/json"
)

// Row is one flattened ranking entry. Rows are terminal: written once to
// the persistence sink, never mutated or re-read by the pipeline.
type Row struct {
	// Rank is an ordinal over the rows collected for one job, 1-based and
	// contiguous. It is assigned locally, not copied from the upstream.
	Rank int

	Name     string
	Class    string
	Spec     string
	HeroSpec *string

	// Amount is the performance metric the ranking is ordered by.
	Amount float64

	// Duration is the fight length in milliseconds.
	Duration int64

	// ItemLevel is the upstream bracket value, an item-level proxy.
	ItemLevel float64

	Server *string
	Guild  *string

	Trinket1 *string
	Trinket2 *string

	ReportCode string
	FightID    int
}

// nameField normalizes upstream fields that arrive either as a plain string,
// as an object carrying a "name" field, or as null.
type nameField struct {
	Value *string
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *nameField) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		f.Value = nil
		return nil
	}

	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		f.Value = &plain
		return nil
	}

	var wrapped struct {
		Name *string `json:"name"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	f.Value = wrapped.Name
	return nil
}

// talent is one entry of the upstream combatant talent list.
type talent struct {
	TalentID int `json:"talentID"`
}

// gearItem is one entry of the upstream gear list. Entries may be null.
type gearItem struct {
	Name string `json:"name"`
}

// Zero-based positions of the two trinket slots in the upstream gear list.
const (
	trinket1Slot = 12
	trinket2Slot = 13
)

// rawRanking mirrors one upstream ranking entry as returned by the
// characterRankings field with includeCombatantInfo.
type rawRanking struct {
	Name        string      `json:"name"`
	Class       string      `json:"class"`
	Spec        string      `json:"spec"`
	Amount      float64     `json:"amount"`
	Duration    int64       `json:"duration"`
	BracketData float64     `json:"bracketData"`
	Server      nameField   `json:"server"`
	Guild       nameField   `json:"guild"`
	Talents     []talent    `json:"talents"`
	Gear        []*gearItem `json:"gear"`
	Report      struct {
		Code    string `json:"code"`
		FightID int    `json:"fightID"`
	} `json:"report"`
}

// talentIDs extracts the ordered talent identifiers of an entry.
func (r *rawRanking) talentIDs() []int {
	ids := make([]int, 0, len(r.Talents))
	for _, t := range r.Talents {
		if t.TalentID != 0 {
			ids = append(ids, t.TalentID)
		}
	}
	return ids
}

// trinkets extracts the two trinket names at their fixed gear slots.
// A short gear list or a null slot yields nil, never an error.
func (r *rawRanking) trinkets() (trinket1, trinket2 *string) {
	if len(r.Gear) > trinket1Slot && r.Gear[trinket1Slot] != nil && r.Gear[trinket1Slot].Name != "" {
		trinket1 = &r.Gear[trinket1Slot].Name
	}
	if len(r.Gear) > trinket2Slot && r.Gear[trinket2Slot] != nil && r.Gear[trinket2Slot].Name != "" {
		trinket2 = &r.Gear[trinket2Slot].Name
	}
	return trinket1, trinket2
}
