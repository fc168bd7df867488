package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/local/hackeval/internal/docloader"
)

// ErrNoFilesMatched is returned when TEAM_GLOB resolves to an empty file
// list, the only condition under which the orchestrator aborts a run.
var ErrNoFilesMatched = fmt.Errorf("orchestrator: no files matched TEAM_GLOB")

// ExpandTeamGlob expands a comma-separated list of local glob patterns
// and/or s3:// prefixes into a deduplicated, sorted list of file references,
// filtered to the loader's supported extensions.
func ExpandTeamGlob(ctx context.Context, teamGlob string) ([]string, error) {
	allowed := docloader.AllowedExtensions()
	seen := make(map[string]bool)
	var out []string

	for _, pattern := range strings.Split(teamGlob, ",") {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		if strings.HasPrefix(pattern, "s3://") {
			matches, err := docloader.ExpandS3Glob(ctx, pattern, allowed)
			if err != nil {
				return nil, fmt.Errorf("expand s3 glob %q: %w", pattern, err)
			}
			for _, m := range matches {
				if !seen[m] {
					seen[m] = true
					out = append(out, m)
				}
			}
			continue
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			ext := strings.ToLower(filepath.Ext(m))
			if !allowed[ext] {
				continue
			}
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}

	if len(out) == 0 {
		return nil, ErrNoFilesMatched
	}

	sort.Strings(out)
	return out, nil
}
