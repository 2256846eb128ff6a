package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"studio/internal/infra/credentials"
)

func KeyCmd(e *env) *cobra.Command {
	keyCmd := &cobra.Command{
		Use:   "key",
		Short: "Manage stored provider API keys",
	}

	var provider string
	setCmd := &cobra.Command{
		Use:   "set <key>",
		Short: "Store an API key in the credentials table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := e.credentials(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.SetToken(cmd.Context(), provider, args[0]); err != nil {
				return fmt.Errorf("store key: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s key stored.\n", provider)
			return nil
		},
	}
	setCmd.Flags().StringVar(&provider, "provider", credentials.ProviderLeonardo, "provider name")

	keyCmd.AddCommand(setCmd)
	return keyCmd
}
