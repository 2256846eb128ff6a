package repo

import (
	"context"
	"fmt"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/sqlinline"
)

// GenerationRepositoryPG implements domain.GenerationRepository.
type GenerationRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewGenerationRepository creates a repository backed by PostgreSQL.
func NewGenerationRepository(sql infra.SQLExecutor) *GenerationRepositoryPG {
	return &GenerationRepositoryPG{sql: sql}
}

// Upsert writes the job snapshot. Rows that already reached a terminal status
// are left untouched.
func (r *GenerationRepositoryPG) Upsert(ctx context.Context, job domain.GenerationJob) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpsertGenerationJob,
		job.ID,
		string(job.Kind),
		job.Prompt,
		string(job.Status),
		job.ResultURL,
		job.Attempts,
		string(job.Reason),
		job.Error,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repo: upsert generation %s: %w", job.ID, err)
	}
	return nil
}

// GetByID fetches a job by its upstream identifier.
func (r *GenerationRepositoryPG) GetByID(ctx context.Context, id string) (*domain.GenerationJob, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectGenerationJob, id)
	job, err := scanJob(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, &domain.JobNotFoundError{ID: id}
		}
		return nil, fmt.Errorf("repo: get generation %s: %w", id, err)
	}
	return &job, nil
}

// ListActive returns pending and processing jobs, oldest first.
func (r *GenerationRepositoryPG) ListActive(ctx context.Context) ([]domain.GenerationJob, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QSelectActiveGenerationJobs)
	if err != nil {
		return nil, fmt.Errorf("repo: list active generations: %w", err)
	}
	defer rows.Close()

	var jobs []domain.GenerationJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("repo: scan generation: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo: list active generations: %w", err)
	}
	return jobs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (domain.GenerationJob, error) {
	var (
		job    domain.GenerationJob
		kind   string
		status string
		reason string
	)
	if err := row.Scan(
		&job.ID,
		&kind,
		&job.Prompt,
		&status,
		&job.ResultURL,
		&job.Attempts,
		&reason,
		&job.Error,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return domain.GenerationJob{}, err
	}
	job.Kind = domain.Kind(kind)
	job.Status = domain.Status(status)
	job.Reason = domain.FailureReason(reason)
	return job, nil
}

var _ domain.GenerationRepository = (*GenerationRepositoryPG)(nil)
