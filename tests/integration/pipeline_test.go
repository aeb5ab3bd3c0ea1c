package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/raidwatch/wcl-harvester/internal/testutil"
	"github.com/raidwatch/wcl-harvester/pkg/catalog"
	"github.com/raidwatch/wcl-harvester/pkg/executor"
	"github.com/raidwatch/wcl-harvester/pkg/herospec"
	"github.com/raidwatch/wcl-harvester/pkg/planner"
	"github.com/raidwatch/wcl-harvester/pkg/rankings"
	"github.com/raidwatch/wcl-harvester/pkg/wcl"
)

// captureSink records every InsertRankings call for assertions.
type captureSink struct {
	mu    sync.Mutex
	calls []sinkCall
}

type sinkCall struct {
	rows       []rankings.Row
	raid       string
	boss       string
	difficulty string
	region     string
}

func (s *captureSink) InsertRankings(ctx context.Context, rows []rankings.Row, raid, boss, difficulty, region string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, sinkCall{rows: rows, raid: raid, boss: boss, difficulty: difficulty, region: region})
	return nil
}

// newTestClient creates an authenticated client wired against the mock
// upstream.
func newTestClient(t *testing.T, mock *testutil.MockWCL) *wcl.Client {
	t.Helper()

	client, err := wcl.New(wcl.Config{
		Credentials:    wcl.Credentials{ClientID: "test-id", ClientSecret: "test-secret"},
		AuthURL:        mock.TokenURL(),
		APIURL:         mock.APIURL(),
		RequestTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	if err := client.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	return client
}

// rankingEntry builds one upstream ranking entry with the given player name.
func rankingEntry(name string) string {
	return fmt.Sprintf(`{
		"name": %q,
		"class": "Mage",
		"spec": "Frost",
		"amount": 1234567.8,
		"duration": 312456,
		"bracketData": 639.2,
		"server": {"name": "Stormrage"},
		"guild": {"name": "Echo"},
		"talents": [{"talentID": 117887}],
		"gear": [],
		"report": {"code": "abcd1234", "fightID": 7}
	}`, name)
}

// TestPipelineEndToEnd drives the full flow: plan the catalogue against
// discovered encounters, fetch and flatten rankings through the worker
// pool, and hand the rows to the sink tagged with their job context.
func TestPipelineEndToEnd(t *testing.T) {
	mock := testutil.NewMockWCL()
	defer mock.Close()

	mock.SetEncounters(900, `[{"id": 42, "name": "TestBoss"}]`)
	mock.SetRankingsPages([]string{
		"[" + rankingEntry("Alpha") + "," + rankingEntry("Bravo") + "," + rankingEntry("Charlie") + "]",
	})

	client := newTestClient(t, mock)

	ctx := context.Background()

	raids := []catalog.Raid{{
		Key:          "raidA",
		Name:         "Raid A",
		ZoneID:       900,
		Regions:      []string{"Europe"},
		Difficulties: []string{"Mythic"},
	}}

	p := planner.New(client, catalog.DefaultDifficultyCodes(), catalog.DefaultRegionCodes())
	jobs, err := p.Plan(ctx, raids, "")
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if len(jobs) != 1 {
		t.Fatalf("Planned jobs = %d, want 1", len(jobs))
	}
	if jobs[0].BossID != 42 || jobs[0].BossName != "TestBoss" {
		t.Errorf("Job boss = %d/%s, want 42/TestBoss", jobs[0].BossID, jobs[0].BossName)
	}
	if jobs[0].DifficultyCode != 5 || jobs[0].RegionCode != "eu" {
		t.Errorf("Job codes = %d/%s, want 5/eu", jobs[0].DifficultyCode, jobs[0].RegionCode)
	}

	heroSpecs := herospec.NewTable(map[int]string{117887: "Frostfire"})
	fetcher := rankings.NewFetcher(client, heroSpecs)
	sink := &captureSink{}

	outcome := executor.New(fetcher, sink, 2).Run(ctx, jobs)

	if outcome.Succeeded != 1 || outcome.Failed != 0 {
		t.Fatalf("Outcome = %d succeeded / %d failed, want 1/0 (errors: %v)",
			outcome.Succeeded, outcome.Failed, outcome.Errors)
	}
	if outcome.RowsInserted != 3 {
		t.Errorf("RowsInserted = %d, want 3", outcome.RowsInserted)
	}

	if len(sink.calls) != 1 {
		t.Fatalf("Sink calls = %d, want 1", len(sink.calls))
	}
	call := sink.calls[0]
	if call.raid != "Raid A" || call.boss != "TestBoss" || call.difficulty != "Mythic" || call.region != "Europe" {
		t.Errorf("Sink tags = %s/%s/%s/%s, want Raid A/TestBoss/Mythic/Europe",
			call.raid, call.boss, call.difficulty, call.region)
	}
	if len(call.rows) != 3 {
		t.Fatalf("Sink rows = %d, want 3", len(call.rows))
	}

	for i, row := range call.rows {
		if row.Rank != i+1 {
			t.Errorf("Row %d rank = %d, want %d", i, row.Rank, i+1)
		}
	}

	first := call.rows[0]
	if first.Name != "Alpha" {
		t.Errorf("First row name = %s, want Alpha", first.Name)
	}
	if first.HeroSpec == nil || *first.HeroSpec != "Frostfire" {
		t.Errorf("First row hero spec = %v, want Frostfire", first.HeroSpec)
	}
	if first.Server == nil || *first.Server != "Stormrage" {
		t.Errorf("First row server = %v, want Stormrage", first.Server)
	}

	// Page 1 carried rows, page 2 was empty and terminated pagination.
	if mock.RankingsRequests != 2 {
		t.Errorf("Rankings requests = %d, want 2", mock.RankingsRequests)
	}
	if mock.EncounterRequests != 1 {
		t.Errorf("Encounter requests = %d, want 1", mock.EncounterRequests)
	}
}

// TestPipelineJobIsolation verifies a broken encounter fails its own job
// while siblings keep harvesting.
func TestPipelineJobIsolation(t *testing.T) {
	mock := testutil.NewMockWCL()
	defer mock.Close()

	mock.SetEncounters(900, `[{"id": 42, "name": "TestBoss"}, {"id": 43, "name": "BrokenBoss"}]`)
	mock.SetRankingsFunc(func(vars testutil.RankingsVars) string {
		if vars.EncounterID == 43 {
			return `[{"name":` // malformed on purpose
		}
		if vars.Page == 1 {
			return "[" + rankingEntry("Alpha") + "]"
		}
		return "[]"
	})

	client := newTestClient(t, mock)

	ctx := context.Background()

	raids := []catalog.Raid{{
		Key:          "raidA",
		Name:         "Raid A",
		ZoneID:       900,
		Regions:      []string{"Europe"},
		Difficulties: []string{"Mythic"},
	}}

	p := planner.New(client, catalog.DefaultDifficultyCodes(), catalog.DefaultRegionCodes())
	jobs, err := p.Plan(ctx, raids, "")
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("Planned jobs = %d, want 2", len(jobs))
	}

	fetcher := rankings.NewFetcher(client, herospec.NewTable(nil))
	sink := &captureSink{}

	outcome := executor.New(fetcher, sink, 2).Run(ctx, jobs)

	if outcome.Succeeded != 1 || outcome.Failed != 1 {
		t.Fatalf("Outcome = %d succeeded / %d failed, want 1/1", outcome.Succeeded, outcome.Failed)
	}
	if _, ok := outcome.Errors["Raid A / BrokenBoss / Mythic / Europe"]; !ok {
		t.Errorf("Errors missing BrokenBoss entry: %v", outcome.Errors)
	}
	if outcome.RowsInserted != 1 {
		t.Errorf("RowsInserted = %d, want 1", outcome.RowsInserted)
	}
}
