package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/raidwatch/wcl-harvester/pkg/rankings"
)

// insertColumns is the column list of one ranking row plus its job context.
const insertColumns = `raid, boss, difficulty, region, player_rank, player_name, guild_name,
class, spec, hero_spec, amount, duration, ilvl, server,
trinket_1_name, trinket_2_name, report_code, fight_id, scraped_at`

const columnsPerRow = 19

// InsertRankings bulk-appends rows tagged with the job context and the
// current timestamp. A no-op for an empty row set. Jobs write disjoint
// (raid, boss, difficulty, region) partitions, so concurrent bulk appends
// from the worker pool need no locking.
func (s *Store) InsertRankings(ctx context.Context, rows []rankings.Row, raid, boss, difficulty, region string) error {
	if len(rows) == 0 {
		return nil
	}

	now := time.Now()

	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", columnsPerRow), ", ") + ")"
	placeholders := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*columnsPerRow)

	for _, row := range rows {
		placeholders = append(placeholders, placeholder)
		args = append(args,
			raid, boss, difficulty, region,
			row.Rank, row.Name, row.Guild,
			row.Class, row.Spec, row.HeroSpec,
			row.Amount, row.Duration, row.ItemLevel, row.Server,
			row.Trinket1, row.Trinket2,
			row.ReportCode, row.FightID,
			now,
		)
	}

	query := fmt.Sprintf("INSERT INTO player_rankings (%s) VALUES %s",
		insertColumns, strings.Join(placeholders, ", "))

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %d rankings for %s/%s: %w", len(rows), raid, boss, err)
	}

	s.logger.Debug().
		Str("raid", raid).
		Str("boss", boss).
		Int("rows", len(rows)).
		Msg("Rankings inserted")

	return nil
}

// CountRankings returns the total number of stored rows.
func (s *Store) CountRankings(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM player_rankings").Scan(&count); err != nil {
		return 0, fmt.Errorf("count rankings: %w", err)
	}
	return count, nil
}

// TruncateRankings destroys all stored rows. Callers are expected to have
// confirmed the operation first; see the wipe command.
func (s *Store) TruncateRankings(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "TRUNCATE TABLE player_rankings"); err != nil {
		return fmt.Errorf("truncate rankings: %w", err)
	}
	s.logger.Info().Msg("Rankings table truncated")
	return nil
}
