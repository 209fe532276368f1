package preflight

import (
	"context"
	"strings"

	"reelhouse/internal/config"
)

// CheckTaggingFromConfig evaluates the tagging service from config and
// connectivity.
func CheckTaggingFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "Tagging API"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.Tagging.APIKey) == "" {
		return Result{Name: name, Detail: "Missing API key"}
	}
	return CheckTagging(ctx, cfg.Tagging.Endpoint, cfg.Tagging.APIKey)
}

// FrameURLBase reports the public address categorize frames are served from.
// It is informational; the media server that serves it is external.
func FrameURLBase(cfg *config.Config) Result {
	const name = "Frame URL base"

	if cfg == nil || strings.TrimSpace(cfg.Tagging.PublicBaseURL) == "" {
		return Result{Name: name, Detail: "Missing public_base_url"}
	}
	return Result{Name: name, Passed: true, Detail: cfg.Tagging.PublicBaseURL + "/categorize/"}
}
