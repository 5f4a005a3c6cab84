package workers

import (
	"time"

	"github.com/rs/zerolog/log"

	"pulse/internal/engine/analytics"
)

// RollupWorker periodically recomputes daily per-tenant event rollups.
// Re-running a date is safe: the upsert overwrites with fresh totals.
type RollupWorker struct {
	repo     *analytics.Repository
	interval time.Duration
}

func NewRollupWorker(repo *analytics.Repository, interval time.Duration) *RollupWorker {
	return &RollupWorker{repo: repo, interval: interval}
}

// Run blocks, rolling up today and yesterday on every tick. Yesterday is
// included so events ingested around midnight still land in the right bucket.
func (w *RollupWorker) Run() {
	w.tick()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for range ticker.C {
		w.tick()
	}
}

func (w *RollupWorker) tick() {
	now := time.Now().UTC()
	for _, date := range []string{
		now.AddDate(0, 0, -1).Format("2006-01-02"),
		now.Format("2006-01-02"),
	} {
		if err := w.repo.UpsertDailyRollups(date); err != nil {
			log.Error().Err(err).Str("date", date).Msg("rollup failed")
			continue
		}
		log.Debug().Str("date", date).Msg("rollup completed")
	}
}
