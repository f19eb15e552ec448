// Package pathutil provides name and path helpers for experiment output directories.
package pathutil

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// TimestampLayout formats run directory names, e.g. "2024.03.09-14h05".
const TimestampLayout = "2006.01.02-15h04"

// RedactPath reduces a full path to .../<parent>/<basename> for safe error messages.
// For example, "/home/user/data/run1/data.cbor" becomes ".../run1/data.cbor".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	dir := filepath.Dir(cleaned)
	base := filepath.Base(cleaned)
	parent := filepath.Base(dir)
	if parent == "." || parent == string(filepath.Separator) {
		return base
	}
	return ".../" + parent + "/" + base
}

// ValidateName checks that name can be used as a single file stem inside an
// output directory. It rejects separators, traversal, hidden names, null
// bytes and control characters.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name validation failed: name is empty")
	}

	// Check for null bytes (common injection vector)
	if strings.ContainsRune(name, '\x00') {
		return fmt.Errorf("name validation failed: %q contains null byte", name)
	}

	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("name validation failed: %q contains a path separator", name)
	}

	if name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return fmt.Errorf("name validation failed: %q must not start with a dot", name)
	}

	for _, r := range name {
		if !unicode.IsPrint(r) {
			return fmt.Errorf("name validation failed: %q contains a non-printable character", name)
		}
	}

	return nil
}

// RunDirAt returns root/<name>/<timestamp> for the given time in its own location.
func RunDirAt(root, name string, t time.Time) string {
	return filepath.Join(root, name, t.Format(TimestampLayout))
}
