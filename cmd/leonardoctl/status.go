package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"studio/internal/domain"
	"studio/internal/generation"
)

func StatusCmd(e *env) *cobra.Command {
	var (
		kind string
		raw  bool
	)
	cmd := &cobra.Command{
		Use:   "status <id>",
		Short: "Fetch and normalize the current status of a generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, ok := domain.ParseKind(kind)
			if !ok {
				return fmt.Errorf("unknown kind %q (want one of %s)", kind, kindList())
			}
			client, err := e.client(cmd.Context())
			if err != nil {
				return err
			}
			body, err := client.FetchStatus(cmd.Context(), k, args[0])
			if err != nil {
				return err
			}
			if raw {
				return printJSON(cmd, body)
			}
			res := generation.Normalize(k, body)
			return printJSON(cmd, map[string]any{
				"id":         args[0],
				"kind":       k,
				"status":     res.Status,
				"result_url": res.ResultURL,
				"token":      res.Token,
				"matched":    res.Matched,
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "generation kind ("+kindList()+")")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the upstream payload instead")
	_ = cmd.MarkFlagRequired("kind")
	return cmd
}
