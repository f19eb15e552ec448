package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/nvandessel/labnote/internal/catalog"
	"github.com/nvandessel/labnote/internal/experiment"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// runFile is one file found in a run directory.
type runFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// runSummary is what 'show' reports about a run directory.
type runSummary struct {
	Dir     string             `json:"dir"`
	Header  *experiment.Header `json:"header,omitempty"`
	Format  int                `json:"format"`
	Params  string             `json:"params,omitempty"`
	Files   []runFile          `json:"files"`
	Catalog *catalog.Run       `json:"catalog,omitempty"`
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <dir>",
		Short: "Show a run's header, parameters and files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			dir := args[0]

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			summary, err := summarizeRun(cmd, s, dir)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(summary)
			}
			printRunSummary(cmd, summary)
			return nil
		},
	}
}

func summarizeRun(cmd *cobra.Command, s *session, dir string) (*runSummary, error) {
	dataPath := s.driver.DataPath(dir)
	header, err := experiment.ReadHeader(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	summary := &runSummary{Dir: dir, Header: header, Format: experiment.FormatV1}
	if header != nil {
		summary.Format = header.Format
	}

	params, err := os.ReadFile(filepath.Join(dir, experiment.ParamsFile))
	switch {
	case err == nil:
		summary.Params = string(params)
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("failed to read params: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		summary.Files = append(summary.Files, runFile{Name: entry.Name(), Size: info.Size()})
	}
	sort.Slice(summary.Files, func(i, j int) bool { return summary.Files[i].Name < summary.Files[j].Name })

	if s.catalog != nil {
		abs, err := filepath.Abs(dir)
		if err == nil {
			run, err := s.catalog.Get(cmd.Context(), abs)
			if err != nil {
				s.logger.Warn("catalog lookup failed", "dir", dir, "error", err)
			}
			summary.Catalog = run
		}
	}
	return summary, nil
}

func printRunSummary(cmd *cobra.Command, summary *runSummary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run: %s\n", summary.Dir)
	if h := summary.Header; h != nil {
		fmt.Fprintf(out, "  Kind:     %s\n", h.Kind)
		fmt.Fprintf(out, "  Codec:    %s (format %d)\n", h.Codec, h.Format)
		fmt.Fprintf(out, "  Saved:    %s (%s)\n", h.CreatedAt.Local().Format("2006-01-02 15:04:05"), humanize.Time(h.CreatedAt))
		fmt.Fprintf(out, "  Pages:    %d\n", h.Pages)
		fmt.Fprintf(out, "  Checksum: %s\n", h.Checksum)
	} else {
		fmt.Fprintf(out, "  Format:   %d (no header)\n", summary.Format)
	}
	if run := summary.Catalog; run != nil && run.PlottedAt != nil {
		fmt.Fprintf(out, "  Plotted:  %s\n", humanize.Time(*run.PlottedAt))
	}

	if summary.Params != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Parameters:")
		for _, line := range strings.Split(strings.TrimRight(summary.Params, "\n"), "\n") {
			fmt.Fprintf(out, "  %s\n", line)
		}
	}

	fmt.Fprintln(out)
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"File", "Size"})
	table.SetAutoWrapText(false)
	for _, f := range summary.Files {
		table.Append([]string{f.Name, humanize.Bytes(uint64(f.Size))})
	}
	table.Render()
}
