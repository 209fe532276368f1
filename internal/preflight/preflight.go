package preflight

import (
	"context"

	"reelhouse/internal/config"
)

// minFreeBytes is the free space below which the data and segments
// directories are reported as failing.
var minFreeBytes uint64 = 512 << 20

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the local checks for the given config. ffmpegPath is the
// resolved tool location. Network checks are left to the status command.
func RunAll(ctx context.Context, cfg *config.Config, ffmpegPath string) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckFreeSpace("Data directory space", cfg.Paths.DataDir, minFreeBytes),
	}

	// segments_dir is created lazily by the first categorize job
	if dirExists(cfg.Paths.SegmentsDir) {
		results = append(results,
			CheckDirectoryAccess("Segments directory", cfg.Paths.SegmentsDir),
			CheckFreeSpace("Segments directory space", cfg.Paths.SegmentsDir, minFreeBytes),
		)
	}

	results = append(results, CheckFFmpeg(ffmpegPath))
	return results
}

// Failed filters results down to the checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
