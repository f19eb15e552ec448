package retention

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nvandessel/labnote/internal/pathutil"
)

func TestCountPolicy_KeepsN(t *testing.T) {
	now := time.Now()
	runs := []RunInfo{
		{Path: "/d/5", CreatedAt: now, Size: 100},
		{Path: "/d/4", CreatedAt: now.Add(-1 * time.Hour), Size: 100},
		{Path: "/d/3", CreatedAt: now.Add(-2 * time.Hour), Size: 100},
		{Path: "/d/2", CreatedAt: now.Add(-3 * time.Hour), Size: 100},
		{Path: "/d/1", CreatedAt: now.Add(-4 * time.Hour), Size: 100},
	}

	keep := (&CountPolicy{MaxCount: 3}).Apply(runs)

	if len(keep) != 3 {
		t.Fatalf("CountPolicy.Apply() kept %d, want 3", len(keep))
	}
	if keep[0].Path != "/d/5" || keep[2].Path != "/d/3" {
		t.Errorf("kept %s..%s, want /d/5../d/3", keep[0].Path, keep[2].Path)
	}
}

func TestCountPolicy_FewerThanN(t *testing.T) {
	runs := []RunInfo{{Path: "/d/a", CreatedAt: time.Now(), Size: 100}}
	if keep := (&CountPolicy{MaxCount: 5}).Apply(runs); len(keep) != 1 {
		t.Errorf("CountPolicy.Apply() kept %d, want 1", len(keep))
	}
}

func TestAgePolicy_RemovesOld(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	runs := []RunInfo{
		{Path: "/d/new", CreatedAt: now.Add(-1 * time.Hour)},
		{Path: "/d/recent", CreatedAt: now.Add(-12 * time.Hour)},
		{Path: "/d/old", CreatedAt: now.Add(-48 * time.Hour)},
		{Path: "/d/ancient", CreatedAt: now.Add(-720 * time.Hour)},
	}

	policy := &AgePolicy{MaxAge: 24 * time.Hour, now: func() time.Time { return now }}
	if keep := policy.Apply(runs); len(keep) != 2 {
		t.Errorf("AgePolicy.Apply() kept %d, want 2", len(keep))
	}
}

func TestSizePolicy_FitsUnderLimit(t *testing.T) {
	now := time.Now()
	runs := []RunInfo{
		{Path: "/d/1", CreatedAt: now, Size: 500},
		{Path: "/d/2", CreatedAt: now.Add(-1 * time.Hour), Size: 500},
		{Path: "/d/3", CreatedAt: now.Add(-2 * time.Hour), Size: 500},
	}

	keep := (&SizePolicy{MaxTotalBytes: 1200}).Apply(runs)
	if len(keep) != 2 || keep[0].Path != "/d/1" {
		t.Errorf("SizePolicy.Apply() = %v, want the 2 newest", keep)
	}

	// The newest run survives even when it alone is over the limit.
	if keep := (&SizePolicy{MaxTotalBytes: 10}).Apply(runs); len(keep) != 1 {
		t.Errorf("SizePolicy.Apply() kept %d, want 1", len(keep))
	}
}

func TestCompositePolicy_UnionKeep(t *testing.T) {
	now := time.Now()
	runs := []RunInfo{
		{Path: "/d/1", CreatedAt: now, Size: 100},
		{Path: "/d/2", CreatedAt: now.Add(-1 * time.Hour), Size: 100},
		{Path: "/d/3", CreatedAt: now.Add(-48 * time.Hour), Size: 100}, // old but within count
		{Path: "/d/4", CreatedAt: now.Add(-72 * time.Hour), Size: 100}, // old and over count
	}

	composite := &CompositePolicy{
		Policies: []Policy{
			&CountPolicy{MaxCount: 3},
			&AgePolicy{MaxAge: 24 * time.Hour},
		},
	}
	if keep := composite.Apply(runs); len(keep) != 3 {
		t.Errorf("CompositePolicy.Apply() kept %d, want 3", len(keep))
	}
}

// makeRuns creates one run directory per timestamp under dir, each holding
// a file of size bytes.
func makeRuns(t *testing.T, dir string, size int, stamps ...time.Time) {
	t.Helper()
	for _, ts := range stamps {
		run := filepath.Join(dir, ts.Format(pathutil.TimestampLayout))
		if err := os.MkdirAll(run, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(run, "data.cbor"), make([]byte, size), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestListRuns(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 3, 9, 14, 5, 0, 0, time.Local)
	makeRuns(t, dir, 10, base, base.Add(24*time.Hour), base.Add(time.Hour))

	// Not runs: a stray file and a directory with another name.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "scratch"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err := ListRuns(dir)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("ListRuns() found %d, want 3", len(runs))
	}
	if !runs[0].CreatedAt.Equal(base.Add(24 * time.Hour)) {
		t.Errorf("newest run = %v, want %v", runs[0].CreatedAt, base.Add(24*time.Hour))
	}
	if !runs[2].CreatedAt.Equal(base) {
		t.Errorf("oldest run = %v, want %v", runs[2].CreatedAt, base)
	}
	if runs[0].Size != 10 {
		t.Errorf("run size = %d, want 10", runs[0].Size)
	}
}

func TestListRuns_MissingDir(t *testing.T) {
	runs, err := ListRuns(filepath.Join(t.TempDir(), "nope"))
	if err != nil || runs != nil {
		t.Errorf("ListRuns(missing) = %v, %v; want nil, nil", runs, err)
	}
}

func TestApply_RemovesOldRuns(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local)
	var stamps []time.Time
	for i := 0; i < 5; i++ {
		stamps = append(stamps, base.Add(time.Duration(i)*time.Hour))
	}
	makeRuns(t, dir, 4, stamps...)
	if err := os.MkdirAll(filepath.Join(dir, "keep-me"), 0755); err != nil {
		t.Fatal(err)
	}

	removed, err := Apply(dir, &CountPolicy{MaxCount: 2}, true)
	if err != nil {
		t.Fatalf("Apply(dry run) error = %v", err)
	}
	if len(removed) != 3 {
		t.Errorf("dry run would remove %d, want 3", len(removed))
	}
	if runs, _ := ListRuns(dir); len(runs) != 5 {
		t.Errorf("dry run removed runs: %d remain", len(runs))
	}

	removed, err = Apply(dir, &CountPolicy{MaxCount: 2}, false)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(removed) != 3 {
		t.Errorf("removed %d, want 3", len(removed))
	}

	remaining, _ := ListRuns(dir)
	if len(remaining) != 2 {
		t.Fatalf("remaining = %d, want 2", len(remaining))
	}
	if !remaining[0].CreatedAt.Equal(stamps[4]) {
		t.Errorf("newest remaining = %v, want %v", remaining[0].CreatedAt, stamps[4])
	}
	if _, err := os.Stat(filepath.Join(dir, "keep-me")); err != nil {
		t.Error("non-run directory must not be removed")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"30d", 30 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"720h", 720 * time.Hour, false},
		{"0d", 0, false},
		{"", 0, true},
		{"abc", 0, true},
		{"3y", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDuration(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"100MB", 100 * 1000 * 1000, false},
		{"1GiB", 1024 * 1024 * 1024, false},
		{"500KiB", 500 * 1024, false},
		{"1024B", 1024, false},
		{"0MB", 0, false},
		{"", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseSize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}
