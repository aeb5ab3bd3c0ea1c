package store

import (
	"context"
	"fmt"
)

// rankingsSchema is the append-only rankings table. Logically keyed by
// (raid, boss, difficulty, region, scraped_at); no physical uniqueness is
// enforced, so re-runs duplicate rows.
const rankingsSchema = `
CREATE TABLE IF NOT EXISTS player_rankings (
    id              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
    raid            VARCHAR(128)  NOT NULL,
    boss            VARCHAR(128)  NOT NULL,
    difficulty      VARCHAR(32)   NOT NULL,
    region          VARCHAR(64)   NOT NULL,
    player_rank     INT           NOT NULL,
    player_name     VARCHAR(64)   NOT NULL,
    guild_name      VARCHAR(128)  NULL,
    class           VARCHAR(32)   NOT NULL,
    spec            VARCHAR(32)   NOT NULL,
    hero_spec       VARCHAR(64)   NULL,
    amount          DOUBLE        NOT NULL,
    duration        BIGINT        NOT NULL,
    ilvl            DOUBLE        NOT NULL,
    server          VARCHAR(128)  NULL,
    trinket_1_name  VARCHAR(128)  NULL,
    trinket_2_name  VARCHAR(128)  NULL,
    report_code     VARCHAR(32)   NOT NULL,
    fight_id        INT           NOT NULL,
    scraped_at      DATETIME      NOT NULL,
    PRIMARY KEY (id),
    KEY idx_partition (raid, boss, difficulty, region, scraped_at)
)`

// InitSchema creates the rankings table when missing.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, rankingsSchema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	s.logger.Info().Msg("Database schema checked")
	return nil
}
