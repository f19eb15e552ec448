// Package retention prunes old run directories created under a run name.
//
// Runs are the timestamped directories produced by pathutil.RunDirAt, so a
// run name directory looks like:
//
//	data/gradient-descent/2024.03.09-14h05/
//	data/gradient-descent/2024.03.10-09h30/
//
// Entries whose names do not parse as timestamps are never touched.
package retention

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nvandessel/labnote/internal/pathutil"
)

// RunInfo holds metadata for retention decisions.
type RunInfo struct {
	Path      string
	Size      int64
	CreatedAt time.Time
}

// Policy decides which runs to keep.
type Policy interface {
	Apply(runs []RunInfo) (keep []RunInfo)
}

// CountPolicy keeps the N most recent runs.
type CountPolicy struct {
	MaxCount int
}

// Apply keeps the first MaxCount runs (assumed sorted newest-first).
func (p *CountPolicy) Apply(runs []RunInfo) []RunInfo {
	if len(runs) <= p.MaxCount {
		return runs
	}
	return runs[:p.MaxCount]
}

// AgePolicy keeps runs newer than MaxAge.
type AgePolicy struct {
	MaxAge time.Duration
	now    func() time.Time
}

// Apply keeps runs whose CreatedAt is within MaxAge of now.
func (p *AgePolicy) Apply(runs []RunInfo) []RunInfo {
	now := time.Now
	if p.now != nil {
		now = p.now
	}
	cutoff := now().Add(-p.MaxAge)
	var keep []RunInfo
	for _, r := range runs {
		if r.CreatedAt.After(cutoff) {
			keep = append(keep, r)
		}
	}
	return keep
}

// SizePolicy keeps runs until their total size exceeds MaxTotalBytes.
type SizePolicy struct {
	MaxTotalBytes int64
}

// Apply keeps runs (newest-first) until adding the next would exceed the
// limit. The newest run is always kept.
func (p *SizePolicy) Apply(runs []RunInfo) []RunInfo {
	var keep []RunInfo
	var total int64
	for _, r := range runs {
		if total+r.Size > p.MaxTotalBytes && len(keep) > 0 {
			break
		}
		keep = append(keep, r)
		total += r.Size
	}
	return keep
}

// CompositePolicy keeps a run if ANY sub-policy wants it (union).
type CompositePolicy struct {
	Policies []Policy
}

// Apply returns the union of runs kept by any sub-policy.
func (p *CompositePolicy) Apply(runs []RunInfo) []RunInfo {
	kept := make(map[string]bool)
	for _, policy := range p.Policies {
		for _, r := range policy.Apply(runs) {
			kept[r.Path] = true
		}
	}

	var result []RunInfo
	for _, r := range runs {
		if kept[r.Path] {
			result = append(result, r)
		}
	}
	return result
}

// ListRuns scans dir for timestamped run directories and returns them
// sorted newest-first. A missing dir has no runs.
func ListRuns(dir string) ([]RunInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading run directory: %w", err)
	}

	var runs []RunInfo
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		created, err := time.ParseInLocation(pathutil.TimestampLayout, e.Name(), time.Local)
		if err != nil {
			continue
		}

		path := filepath.Join(dir, e.Name())
		size, err := dirSize(path)
		if err != nil {
			return nil, err
		}
		runs = append(runs, RunInfo{Path: path, Size: size, CreatedAt: created})
	}

	// The timestamp layout sorts lexically
	sort.Slice(runs, func(i, j int) bool {
		return filepath.Base(runs[i].Path) > filepath.Base(runs[j].Path)
	})

	return runs, nil
}

func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("measuring %s: %w", filepath.Base(dir), err)
	}
	return total, nil
}

// Apply removes the runs under dir not kept by policy. With dryRun set it
// only reports what would be removed.
func Apply(dir string, policy Policy, dryRun bool) (removed []RunInfo, err error) {
	runs, err := ListRuns(dir)
	if err != nil {
		return nil, err
	}

	keep := policy.Apply(runs)
	keepSet := make(map[string]bool, len(keep))
	for _, r := range keep {
		keepSet[r.Path] = true
	}

	for _, r := range runs {
		if keepSet[r.Path] {
			continue
		}
		if !dryRun {
			if err := os.RemoveAll(r.Path); err != nil {
				return removed, fmt.Errorf("removing %s: %w", filepath.Base(r.Path), err)
			}
		}
		removed = append(removed, r)
	}

	return removed, nil
}

// ParseDuration parses duration strings like "30d", "2w", "720h".
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration string")
	}

	// Try standard Go duration first (e.g., "720h")
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	// Parse custom suffixes: d (days), w (weeks)
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	num, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(num) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(num) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown duration suffix %q in %q", string(suffix), s)
	}
}

// ParseSize parses size strings like "100MB", "1GiB", "500 kB" into bytes.
func ParseSize(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size: %q", s)
	}
	return int64(n), nil
}
