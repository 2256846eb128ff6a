package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studio/internal/domain"
	"studio/internal/infra"
)

const persistTimeout = 5 * time.Second

// PersistHook returns a store hook that writes every job change to repo.
// Write failures are logged and never block the in-memory transition.
func PersistHook(repo domain.GenerationRepository, logger *infra.Logger) Hook {
	log := infra.OrDiscard(logger)
	return func(job domain.GenerationJob) {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := repo.Upsert(ctx, job); err != nil {
			log.Error().Err(err).Str("job_id", job.ID).Str("status", string(job.Status)).Msg("generation: persist job failed")
		}
	}
}

// Resume loads non-terminal jobs from repo into store and restarts polling
// for each. It returns the number of loops started.
func Resume(ctx context.Context, repo domain.GenerationRepository, store *Store, sched *Scheduler, logger *infra.Logger) (int, error) {
	log := infra.OrDiscard(logger)
	jobs, err := repo.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("generation: resume: %w", err)
	}
	started := 0
	for _, job := range jobs {
		if _, err := store.Restore(job); err != nil {
			if errors.Is(err, domain.ErrDuplicateJob) {
				continue
			}
			log.Warn().Err(err).Str("job_id", job.ID).Msg("generation: skip restore")
			continue
		}
		if _, err := sched.Start(context.WithoutCancel(ctx), job.ID); err != nil {
			log.Warn().Err(err).Str("job_id", job.ID).Msg("generation: resume polling failed")
			continue
		}
		started++
	}
	log.Info().Int("restored", started).Int("found", len(jobs)).Msg("generation: resumed active jobs")
	return started, nil
}
