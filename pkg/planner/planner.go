// Package planner expands the raid catalogue into a flat list of
// independent fetch-and-persist jobs.
package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/raidwatch/wcl-harvester/pkg/catalog"
	"github.com/raidwatch/wcl-harvester/pkg/wcl"
)

// Job is one independent unit of work: harvest the rankings of one
// (raid, boss, region, difficulty) combination. Jobs share no mutable state;
// the token and upstream endpoint they use are read-only.
type Job struct {
	Raid           string
	BossID         int
	BossName       string
	Difficulty     string
	DifficultyCode int
	Region         string
	RegionCode     string
}

// String identifies the job in logs and error tallies.
func (j Job) String() string {
	return fmt.Sprintf("%s / %s / %s / %s", j.Raid, j.BossName, j.Difficulty, j.Region)
}

// EncounterLister resolves the boss list of a raid zone. Implemented by
// wcl.Client.
type EncounterLister interface {
	Encounters(ctx context.Context, zoneID int) ([]wcl.Encounter, error)
}

// Planner builds the job list for a run.
type Planner struct {
	encounters   EncounterLister
	difficulties catalog.DifficultyCodes
	regions      catalog.RegionCodes
	logger       zerolog.Logger
}

// New creates a Planner.
func New(encounters EncounterLister, difficulties catalog.DifficultyCodes, regions catalog.RegionCodes) *Planner {
	return &Planner{
		encounters:   encounters,
		difficulties: difficulties,
		regions:      regions,
		logger:       log.With().Str("component", "planner").Logger(),
	}
}

// Plan expands the given raids into jobs: every raid, for every region
// declared for it, for every difficulty declared for it, for every
// encounter discovered in it. When targetDifficulty is non-empty, only the
// matching difficulty is planned. Order follows the catalogue; jobs are
// independent, so order carries no correctness weight.
func (p *Planner) Plan(ctx context.Context, raids []catalog.Raid, targetDifficulty string) ([]Job, error) {
	var jobs []Job

	for _, raid := range raids {
		encounters, err := p.encounters.Encounters(ctx, raid.ZoneID)
		if err != nil {
			return nil, fmt.Errorf("plan raid %q: %w", raid.Key, err)
		}

		p.logger.Debug().
			Str("raid", raid.Name).
			Int("zone_id", raid.ZoneID).
			Int("encounters", len(encounters)).
			Msg("Encounters discovered")

		for _, region := range raid.Regions {
			regionCode := p.regions.Code(region)

			for _, difficulty := range raid.Difficulties {
				if targetDifficulty != "" && !strings.EqualFold(difficulty, targetDifficulty) {
					continue
				}

				difficultyCode := p.difficulties.Code(difficulty)

				for _, encounter := range encounters {
					jobs = append(jobs, Job{
						Raid:           raid.Name,
						BossID:         encounter.ID,
						BossName:       encounter.Name,
						Difficulty:     difficulty,
						DifficultyCode: difficultyCode,
						Region:         region,
						RegionCode:     regionCode,
					})
				}
			}
		}
	}

	p.logger.Info().
		Int("raids", len(raids)).
		Int("jobs", len(jobs)).
		Msg("Job plan built")

	return jobs, nil
}
