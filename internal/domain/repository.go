package domain

import "context"

// GenerationRepository persists job snapshots so polling can resume after a restart.
type GenerationRepository interface {
	Upsert(ctx context.Context, job GenerationJob) error
	GetByID(ctx context.Context, id string) (*GenerationJob, error)
	ListActive(ctx context.Context) ([]GenerationJob, error)
}

// CredentialStore resolves provider API keys.
type CredentialStore interface {
	Token(ctx context.Context, provider string) (string, error)
}
