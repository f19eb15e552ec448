package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/nvandessel/labnote/internal/pathutil"
	"github.com/nvandessel/labnote/internal/retention"
	"github.com/spf13/cobra"
)

func newPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune <name>",
		Short: "Delete old timestamped runs of one run name",
		Long: `Remove old run directories under <output root>/<name>/.

A run is kept if ANY limit wants it. At least one limit is required.

Examples:
  labnote prune gradient-descent --keep 5
  labnote prune gradient-descent --max-age 2w --dry-run
  labnote prune gradient-descent --keep 3 --max-size 500MB`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			keep, _ := cmd.Flags().GetInt("keep")
			maxAge, _ := cmd.Flags().GetString("max-age")
			maxSize, _ := cmd.Flags().GetString("max-size")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			name := args[0]

			if err := pathutil.ValidateName(name); err != nil {
				return fmt.Errorf("invalid run name: %w", err)
			}

			policy, err := buildRetentionPolicy(keep, maxAge, maxSize)
			if err != nil {
				return err
			}

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			dir := filepath.Join(s.cfg.Output.Root, name)
			removed, err := retention.Apply(dir, policy, dryRun)
			if err != nil {
				return fmt.Errorf("failed to prune %s: %w", dir, err)
			}

			var freed int64
			paths := make([]string, 0, len(removed))
			for _, r := range removed {
				freed += r.Size
				paths = append(paths, r.Path)
				if dryRun {
					continue
				}
				s.logger.Info("removed run", "dir", r.Path)
				if s.catalog != nil {
					abs, err := filepath.Abs(r.Path)
					if err != nil {
						continue
					}
					if _, err := s.catalog.Forget(cmd.Context(), abs); err != nil {
						s.logger.Warn("catalog update failed", "dir", r.Path, "error", err)
					}
				}
			}
			if !dryRun && len(removed) > 0 {
				s.events.Log(map[string]any{"event": "prune", "dir": dir, "removed": len(removed)})
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"dir":     dir,
					"removed": paths,
					"bytes":   freed,
					"dry_run": dryRun,
				})
			}

			verb := "Removed"
			if dryRun {
				verb = "Would remove"
			}
			for _, p := range paths {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", p)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d runs (%s)\n", verb, len(removed), humanize.Bytes(uint64(freed)))
			return nil
		},
	}

	cmd.Flags().Int("keep", 0, "Keep the N most recent runs")
	cmd.Flags().String("max-age", "", "Keep runs newer than this (e.g. 30d, 2w, 72h)")
	cmd.Flags().String("max-size", "", "Keep newest runs up to this total size (e.g. 500MB, 2GiB)")
	cmd.Flags().Bool("dry-run", false, "Only report what would be removed")

	return cmd
}

func buildRetentionPolicy(keep int, maxAge, maxSize string) (retention.Policy, error) {
	var policies []retention.Policy
	if keep > 0 {
		policies = append(policies, &retention.CountPolicy{MaxCount: keep})
	}
	if maxAge != "" {
		d, err := retention.ParseDuration(maxAge)
		if err != nil {
			return nil, fmt.Errorf("invalid --max-age: %w", err)
		}
		policies = append(policies, &retention.AgePolicy{MaxAge: d})
	}
	if maxSize != "" {
		n, err := retention.ParseSize(maxSize)
		if err != nil {
			return nil, fmt.Errorf("invalid --max-size: %w", err)
		}
		policies = append(policies, &retention.SizePolicy{MaxTotalBytes: n})
	}

	switch len(policies) {
	case 0:
		return nil, fmt.Errorf("at least one of --keep, --max-age or --max-size is required")
	case 1:
		return policies[0], nil
	default:
		return &retention.CompositePolicy{Policies: policies}, nil
	}
}
