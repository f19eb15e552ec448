package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nvandessel/labnote/internal/experiment"
	"github.com/nvandessel/labnote/internal/pathutil"
	"github.com/nvandessel/labnote/internal/sample"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an experiment and save it to a new run directory",
		Long: `Run a built-in experiment and save the result.

The run directory defaults to <output root>/<name>/<YYYY.MM.DD-HHhMM>.

Examples:
  labnote run gd                                # default sweep
  labnote run gd --lr 0.01,0.1,0.4 --steps 50   # custom learning rates
  labnote run gd --dir /tmp/gd-check            # explicit directory`,
	}

	cmd.AddCommand(newRunGDCmd())
	return cmd
}

func newRunGDCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gd",
		Short: "Gradient descent on f(x) = c*x^2 for several learning rates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			curvature, _ := cmd.Flags().GetFloat64("curvature")
			start, _ := cmd.Flags().GetFloat64("start")
			steps, _ := cmd.Flags().GetInt("steps")
			rates, _ := cmd.Flags().GetFloat64Slice("lr")
			dir, _ := cmd.Flags().GetString("dir")
			name, _ := cmd.Flags().GetString("name")

			g := sample.New(curvature, start, steps, rates)
			if err := g.Run(); err != nil {
				return fmt.Errorf("invalid parameters: %w", err)
			}

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if dir == "" {
				if err := pathutil.ValidateName(name); err != nil {
					return fmt.Errorf("invalid run name: %w", err)
				}
				dir = pathutil.RunDirAt(s.cfg.Output.Root, name, time.Now())
			}

			if err := s.driver.Save(g, dir); err != nil {
				return fmt.Errorf("failed to save run: %w", err)
			}
			pages := g.RenderPages()
			diverged := []float64{}
			for i, lr := range g.LearningRates {
				if g.Diverged(i) {
					diverged = append(diverged, lr)
					s.logger.Warn("learning rate diverged", "lr", lr, "steps", len(g.Losses[i])-1)
				}
			}
			s.events.Log(map[string]any{
				"event": "save",
				"dir":   dir,
				"kind":  experiment.KindOf(g),
				"pages": len(pages),
			})

			if jsonOut {
				images := make([]string, 0, len(pages))
				for _, p := range pages {
					images = append(images, s.driver.ImagePath(dir, p.Name))
				}
				json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"status":   "saved",
					"dir":      dir,
					"kind":     experiment.KindOf(g),
					"data":     s.driver.DataPath(dir),
					"images":   images,
					"diverged": diverged,
				})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s run to %s (%d pages)\n", experiment.KindOf(g), dir, len(pages))
			}
			return nil
		},
	}

	cmd.Flags().Float64("curvature", 1, "Curvature c of f(x) = c*x^2")
	cmd.Flags().Float64("start", 5, "Starting point x0")
	cmd.Flags().Int("steps", 30, "Number of descent steps")
	cmd.Flags().Float64Slice("lr", []float64{0.05, 0.1, 0.3, 0.45}, "Learning rates to compare")
	cmd.Flags().String("dir", "", "Run directory (default: timestamped directory under the output root)")
	cmd.Flags().String("name", sample.Kind, "Run name used in the default directory")

	return cmd
}
