package main

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"studio/internal/generation"
	"studio/internal/infra"
	"studio/internal/infra/credentials"
	"studio/internal/providers/leonardo"
)

// env holds what every subcommand may need. The database is opened lazily
// because most commands work without it.
type env struct {
	cfg    *infra.Config
	logger *infra.Logger
	pool   *pgxpool.Pool
}

func NewRootCmd(cfg *infra.Config, logger *infra.Logger) *cobra.Command {
	e := &env{cfg: cfg, logger: logger}
	root := &cobra.Command{
		Use:          "leonardoctl",
		Short:        "Submit and inspect Leonardo generations from the terminal",
		SilenceUsage: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.pool != nil {
				e.pool.Close()
			}
		},
	}
	root.AddCommand(SubmitCmd(e))
	root.AddCommand(StatusCmd(e))
	root.AddCommand(KeyCmd(e))
	return root
}

func (e *env) credentials(ctx context.Context) (*credentials.Store, error) {
	if e.cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required for the credentials store")
	}
	if e.pool == nil {
		pool, err := infra.NewDBPool(ctx, e.cfg)
		if err != nil {
			return nil, err
		}
		e.pool = pool
	}
	return credentials.NewStore(infra.NewSQLRunner(e.pool, *e.logger)), nil
}

// client builds a Leonardo client, taking the key from the environment first
// and the credentials store second.
func (e *env) client(ctx context.Context) (*leonardo.Client, error) {
	key := e.cfg.LeonardoAPIKey
	if key == "" && e.cfg.DatabaseURL != "" {
		store, err := e.credentials(ctx)
		if err != nil {
			return nil, err
		}
		if key, err = store.LeonardoAPIKey(ctx); err != nil {
			return nil, err
		}
	}
	if key == "" {
		return nil, leonardo.ErrMissingAPIKey
	}
	return leonardo.NewClient(leonardo.Options{APIKey: key, BaseURL: e.cfg.LeonardoBaseURL, Logger: e.logger})
}

func (e *env) motionControls() (generation.MotionControlResolver, error) {
	if e.cfg.LeonardoMotionControlsFile == "" {
		return nil, nil
	}
	table, err := leonardo.LoadMotionControls(e.cfg.LeonardoMotionControlsFile)
	if err != nil {
		return nil, err
	}
	return table, nil
}
