package changereport

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

var (
	reportPrefixes = []string{"change report annex", "change_report_annex"}
	versionPattern = regexp.MustCompile(`\d+(?:\.\d+)+`)
)

// Find locates the change report annex whose name ends on the target
// version. A per-version subdirectory (<dir>/<target>) is searched first.
// The source version must also appear in the name, otherwise the report
// covers a different step and ErrVersionJump is returned.
func Find(dir, sourceVersion, targetVersion string) (string, error) {
	searchDirs := []string{filepath.Join(dir, targetVersion), dir}
	var (
		candidates []string
		seen       []string
	)
	for _, d := range searchDirs {
		entries, err := os.ReadDir(d)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", fmt.Errorf("list change reports in %s: %w", d, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !isReportName(entry.Name()) {
				continue
			}
			seen = append(seen, entry.Name())
			versions := versionPattern.FindAllString(entry.Name(), -1)
			if len(versions) == 0 || versions[len(versions)-1] != targetVersion {
				continue
			}
			candidates = append(candidates, filepath.Join(d, entry.Name()))
		}
		if len(candidates) > 0 {
			break
		}
	}

	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("%w for version %s in %s; annex files found: [%s]",
			ErrReportNotFound, targetVersion, dir, strings.Join(seen, ", "))
	case 1:
	default:
		return "", fmt.Errorf("%w version %s: %s", ErrAmbiguousReport, targetVersion, strings.Join(candidates, ", "))
	}

	path := candidates[0]
	versions := versionPattern.FindAllString(filepath.Base(path), -1)
	if !slices.Contains(versions[:len(versions)-1], sourceVersion) {
		return "", fmt.Errorf("%w: source %s and target %s; the available report is %s (a release step such as 3.6 to 3.7.1 skips 3.7)",
			ErrVersionJump, sourceVersion, targetVersion, filepath.Base(path))
	}
	return path, nil
}

func isReportName(name string) bool {
	lower := strings.ToLower(name)
	if filepath.Ext(lower) != ".xlsx" {
		return false
	}
	for _, prefix := range reportPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
