package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/sqlinline"
)

const (
	ProviderLeonardo = "leonardo"
	ProviderOpenAI   = "openai"
)

// Store reads and writes provider API keys kept in integration_tokens.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

func (s *Store) LeonardoAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderLeonardo)
}

// Token returns the stored key for provider, or "" when none is stored.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// SetToken stores key for provider, replacing any previous value.
func (s *Store) SetToken(ctx context.Context, provider, key string) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	key = strings.TrimSpace(key)
	if provider == "" {
		return errors.New("credentials: provider is required")
	}
	if key == "" {
		return errors.New("credentials: api key is required")
	}
	raw, err := json.Marshal(map[string]any{"source": "leonardoctl"})
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, key, raw)
	return err
}

var _ domain.CredentialStore = (*Store)(nil)
