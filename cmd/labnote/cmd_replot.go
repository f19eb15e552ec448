package main

import (
	"encoding/json"
	"fmt"

	"github.com/nvandessel/labnote/internal/experiment"
	"github.com/spf13/cobra"
)

func newReplotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replot <dir>",
		Short: "Regenerate the charts of a run from its data file",
		Long: `Load a run's data file and render every page again.

params.txt and the data file are never modified. The experiment kind is
read from the data file header; legacy files without a header need --kind.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			kind, _ := cmd.Flags().GetString("kind")
			dir := args[0]

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			e, err := s.registry.Replot(s.driver, dir, kind)
			if err != nil {
				return fmt.Errorf("failed to replot %s: %w", dir, err)
			}
			pages := e.RenderPages()
			s.events.Log(map[string]any{
				"event": "replot",
				"dir":   dir,
				"kind":  experiment.KindOf(e),
				"pages": len(pages),
			})

			if jsonOut {
				json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"status": "replotted",
					"dir":    dir,
					"kind":   experiment.KindOf(e),
					"pages":  len(pages),
				})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Replotted %d pages in %s\n", len(pages), dir)
			}
			return nil
		},
	}

	cmd.Flags().String("kind", "", "Experiment kind, for data files without a header")
	return cmd
}
