package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/raidwatch/wcl-harvester/pkg/catalog"
	"github.com/raidwatch/wcl-harvester/pkg/wcl"
)

// fakeEncounters serves static boss lists per zone.
type fakeEncounters struct {
	byZone map[int][]wcl.Encounter
	err    error
}

func (f *fakeEncounters) Encounters(ctx context.Context, zoneID int) ([]wcl.Encounter, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byZone[zoneID], nil
}

func newPlanner(encounters EncounterLister) *Planner {
	return New(encounters, catalog.DefaultDifficultyCodes(), catalog.DefaultRegionCodes())
}

func TestPlan_ExpandsCatalogTree(t *testing.T) {
	encounters := &fakeEncounters{byZone: map[int][]wcl.Encounter{
		1: {{ID: 11, Name: "Boss A"}, {ID: 12, Name: "Boss B"}, {ID: 13, Name: "Boss C"}},
		2: {{ID: 21, Name: "Boss D"}, {ID: 22, Name: "Boss E"}},
	}}

	raids := []catalog.Raid{
		{
			Key: "raid1", Name: "First Raid", ZoneID: 1,
			Regions:      []string{"Europe", "United States"},
			Difficulties: []string{"Heroic", "Mythic"},
		},
		{
			Key: "raid2", Name: "Second Raid", ZoneID: 2,
			Regions:      []string{"Europe"},
			Difficulties: []string{"Mythic"},
		},
	}

	jobs, err := newPlanner(encounters).Plan(context.Background(), raids, "")
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}

	// 2 regions x 2 difficulties x 3 encounters + 1 x 1 x 2.
	if len(jobs) != 14 {
		t.Fatalf("len(jobs) = %d, want 14", len(jobs))
	}

	first := jobs[0]
	if first.Raid != "First Raid" || first.Region != "Europe" || first.Difficulty != "Heroic" || first.BossID != 11 {
		t.Errorf("first job = %+v, want First Raid / Europe / Heroic / boss 11", first)
	}
	if first.DifficultyCode != 4 || first.RegionCode != "eu" {
		t.Errorf("first job codes = %d/%s, want 4/eu", first.DifficultyCode, first.RegionCode)
	}

	last := jobs[len(jobs)-1]
	if last.Raid != "Second Raid" || last.BossID != 22 || last.DifficultyCode != 5 {
		t.Errorf("last job = %+v, want Second Raid / boss 22 / mythic", last)
	}
}

func TestPlan_DifficultyFilter(t *testing.T) {
	encounters := &fakeEncounters{byZone: map[int][]wcl.Encounter{
		1: {{ID: 11, Name: "Boss A"}, {ID: 12, Name: "Boss B"}},
	}}

	raids := []catalog.Raid{{
		Key: "raid1", Name: "First Raid", ZoneID: 1,
		Regions:      []string{"Europe"},
		Difficulties: []string{"Normal", "Heroic", "Mythic"},
	}}

	jobs, err := newPlanner(encounters).Plan(context.Background(), raids, "mythic")
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}

	if len(jobs) != 2 {
		t.Fatalf("len(jobs) = %d, want 2 (mythic only)", len(jobs))
	}
	for _, job := range jobs {
		if job.Difficulty != "Mythic" || job.DifficultyCode != 5 {
			t.Errorf("job difficulty = %s/%d, want Mythic/5", job.Difficulty, job.DifficultyCode)
		}
	}
}

func TestPlan_UnknownNamesFallBack(t *testing.T) {
	encounters := &fakeEncounters{byZone: map[int][]wcl.Encounter{
		1: {{ID: 11, Name: "Boss A"}},
	}}

	raids := []catalog.Raid{{
		Key: "raid1", Name: "First Raid", ZoneID: 1,
		Regions:      []string{"Atlantis"},
		Difficulties: []string{"Timewalking"},
	}}

	jobs, err := newPlanner(encounters).Plan(context.Background(), raids, "")
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}

	if len(jobs) != 1 {
		t.Fatalf("len(jobs) = %d, want 1", len(jobs))
	}
	// Unknown names are deliberate fallbacks, not errors.
	if jobs[0].DifficultyCode != 5 || jobs[0].RegionCode != "eu" {
		t.Errorf("fallback codes = %d/%s, want 5/eu", jobs[0].DifficultyCode, jobs[0].RegionCode)
	}
}

func TestPlan_EncounterDiscoveryFailureIsFatal(t *testing.T) {
	encounters := &fakeEncounters{err: errors.New("zone lookup failed")}

	raids := []catalog.Raid{{
		Key: "raid1", Name: "First Raid", ZoneID: 1,
		Regions:      []string{"Europe"},
		Difficulties: []string{"Mythic"},
	}}

	if _, err := newPlanner(encounters).Plan(context.Background(), raids, ""); err == nil {
		t.Error("Plan() expected error, got nil")
	}
}
