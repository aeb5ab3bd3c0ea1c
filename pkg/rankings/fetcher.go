package rankings

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// MaxRows caps how many rows a single job collects. Pagination stops at the
// cap or at the first empty page, whichever comes first.
const MaxRows = 500

// rankingsQuery requests one page of character rankings for an encounter.
const rankingsQuery = `
query($encounterID: Int!, $difficulty: Int!, $serverRegion: String!, $page: Int!) {
    worldData {
        encounter(id: $encounterID) {
            characterRankings(
                difficulty: $difficulty,
                serverRegion: $serverRegion,
                page: $page,
                includeCombatantInfo: true
            )
        }
    }
}`

// GraphQLClient dispatches a named GraphQL query. Implemented by wcl.Client.
type GraphQLClient interface {
	Query(ctx context.Context, name, query string, variables map[string]any, out any) error
}

// Fetcher retrieves and flattens character rankings. It is purely
// functional: no side effects beyond the outbound requests.
type Fetcher struct {
	client    GraphQLClient
	heroSpecs heroSpecResolver
	logger    zerolog.Logger
}

// heroSpecResolver maps an ordered talent-id list to a hero-spec label.
type heroSpecResolver interface {
	Resolve(talentIDs []int) *string
}

// NewFetcher creates a Fetcher.
func NewFetcher(client GraphQLClient, heroSpecs heroSpecResolver) *Fetcher {
	return &Fetcher{
		client:    client,
		heroSpecs: heroSpecs,
		logger:    log.With().Str("component", "rankings-fetcher").Logger(),
	}
}

// Fetch pages through the rankings of one (encounter, difficulty, region)
// combination, flattening each entry. Within a job pagination is strictly
// sequential: whether page N+1 is needed depends on page N's content.
func (f *Fetcher) Fetch(ctx context.Context, encounterID, difficultyCode int, regionCode string) ([]Row, error) {
	rows := make([]Row, 0, MaxRows)

	for page := 1; len(rows) < MaxRows; page++ {
		var data struct {
			WorldData struct {
				Encounter struct {
					CharacterRankings struct {
						Rankings []rawRanking `json:"rankings"`
					} `json:"characterRankings"`
				} `json:"encounter"`
			} `json:"worldData"`
		}

		variables := map[string]any{
			"encounterID":  encounterID,
			"difficulty":   difficultyCode,
			"serverRegion": regionCode,
			"page":         page,
		}

		if err := f.client.Query(ctx, "rankings", rankingsQuery, variables, &data); err != nil {
			return nil, fmt.Errorf("fetch rankings page %d for encounter %d: %w", page, encounterID, err)
		}

		entries := data.WorldData.Encounter.CharacterRankings.Rankings
		if len(entries) == 0 {
			break
		}

		for i := range entries {
			if len(rows) >= MaxRows {
				break
			}
			rows = append(rows, f.flatten(&entries[i], len(rows)+1))
		}

		f.logger.Debug().
			Int("encounter_id", encounterID).
			Int("page", page).
			Int("rows", len(rows)).
			Msg("Rankings page processed")
	}

	return rows, nil
}

// flatten normalizes one raw upstream entry into a Row with the given rank.
func (f *Fetcher) flatten(raw *rawRanking, rank int) Row {
	trinket1, trinket2 := raw.trinkets()

	return Row{
		Rank:       rank,
		Name:       raw.Name,
		Class:      raw.Class,
		Spec:       raw.Spec,
		HeroSpec:   f.heroSpecs.Resolve(raw.talentIDs()),
		Amount:     raw.Amount,
		Duration:   raw.Duration,
		ItemLevel:  raw.BracketData,
		Server:     raw.Server.Value,
		Guild:      raw.Guild.Value,
		Trinket1:   trinket1,
		Trinket2:   trinket2,
		ReportCode: raw.Report.Code,
		FightID:    raw.Report.FightID,
	}
}
