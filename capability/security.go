package capability

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ScanResult is the outcome of a Security.ScanRepo call.
type ScanResult struct {
	OK     bool
	Issues []string
}

// Security performs substring-based pattern scanning, either against a
// single piece of text or across every text file under the safe root.
type Security interface {
	ScanText(text string, patterns []string) (ok bool, blockedPattern string)
	ScanRepo(patterns []string) (ScanResult, error)
}

// SafeRootSecurity implements Security by walking the files under a safe
// root and substring-matching each one's contents against the configured
// block patterns.
type SafeRootSecurity struct {
	safeRoot string
}

// NewSafeRootSecurity creates a Security capability scoped to safeRoot.
func NewSafeRootSecurity(safeRoot string) *SafeRootSecurity {
	return &SafeRootSecurity{safeRoot: safeRoot}
}

// ScanText reports whether text contains none of patterns. On a match, it
// returns the matched pattern so callers can build a {"error": pattern}
// style response.
func (s *SafeRootSecurity) ScanText(text string, patterns []string) (bool, string) {
	for _, p := range patterns {
		if p != "" && strings.Contains(text, p) {
			return false, p
		}
	}
	return true, ""
}

// ScanRepo walks every regular file under the safe root and reports any
// block-pattern matches found, one issue per (file, pattern) hit.
func (s *SafeRootSecurity) ScanRepo(patterns []string) (ScanResult, error) {
	var issues []string

	err := filepath.WalkDir(s.safeRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil // unreadable files are skipped, not fatal to the scan
		}
		rel, _ := filepath.Rel(s.safeRoot, path)
		for _, p := range patterns {
			if p != "" && strings.Contains(string(content), p) {
				issues = append(issues, fmt.Sprintf("%s: blocked pattern %q", rel, p))
			}
		}
		return nil
	})
	if err != nil {
		return ScanResult{}, err
	}

	return ScanResult{OK: len(issues) == 0, Issues: issues}, nil
}
