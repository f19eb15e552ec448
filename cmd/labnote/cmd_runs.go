package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/nvandessel/labnote/internal/catalog"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List runs recorded in the catalog",
		Long: `List saved runs, newest first.

The catalog is an index kept alongside your run directories. It is
updated on every save and replot and can be disabled in the config
without affecting the runs themselves.

Examples:
  labnote runs                           # all runs
  labnote runs --kind gradient-descent   # one experiment kind
  labnote runs forget data/gd/old-run    # drop a stale entry`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			kind, _ := cmd.Flags().GetString("kind")

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			if s.catalog == nil {
				return fmt.Errorf("run catalog is disabled (set catalog.enabled: true)")
			}

			runs, err := s.catalog.List(cmd.Context(), kind)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			if jsonOut {
				if runs == nil {
					runs = []catalog.Run{}
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"runs":  runs,
					"count": len(runs),
				})
			}

			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Saved", "Kind", "Pages", "Dir"})
			table.SetAutoWrapText(false)
			for _, run := range runs {
				saved := "-"
				if run.SavedAt != nil {
					saved = humanize.Time(*run.SavedAt)
				}
				table.Append([]string{saved, run.Kind, strconv.Itoa(run.Pages), run.Dir})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().String("kind", "", "Only list runs of this experiment kind")
	cmd.AddCommand(newRunsForgetCmd())
	return cmd
}

func newRunsForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <dir>",
		Short: "Remove a run from the catalog (files are kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			if s.catalog == nil {
				return fmt.Errorf("run catalog is disabled (set catalog.enabled: true)")
			}

			dir, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("failed to resolve %s: %w", args[0], err)
			}
			removed, err := s.catalog.Forget(cmd.Context(), dir)
			if err != nil {
				return fmt.Errorf("failed to forget run: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"dir":     dir,
					"removed": removed,
				})
			}
			if removed {
				fmt.Fprintf(cmd.OutOrStdout(), "Forgot %s\n", dir)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s was not in the catalog\n", dir)
			}
			return nil
		},
	}
}
