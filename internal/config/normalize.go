package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeTagging()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SegmentsDir) == "" {
		c.Paths.SegmentsDir = defaultSegmentsDir
	}
	if c.Paths.SegmentsDir, err = expandPath(c.Paths.SegmentsDir); err != nil {
		return fmt.Errorf("paths.segments_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpegPath = strings.TrimSpace(c.Tools.FFmpegPath)
	if c.Tools.FFmpegPath == "" {
		if value, ok := os.LookupEnv("FFMPEG_PATH"); ok {
			c.Tools.FFmpegPath = strings.TrimSpace(value)
		}
	}
	c.Tools.ThumbnailArgs = strings.TrimSpace(c.Tools.ThumbnailArgs)
	if c.Tools.ThumbnailArgs == "" {
		c.Tools.ThumbnailArgs = defaultThumbnailArgs
	}
	c.Tools.CategorizeArgs = strings.TrimSpace(c.Tools.CategorizeArgs)
	if c.Tools.CategorizeArgs == "" {
		c.Tools.CategorizeArgs = defaultCategorizeArgs
	}
	if c.Tools.TimeoutSeconds < 0 {
		c.Tools.TimeoutSeconds = 0
	}
}

func (c *Config) normalizeTagging() {
	c.Tagging.Endpoint = strings.TrimSpace(c.Tagging.Endpoint)
	if c.Tagging.Endpoint == "" {
		c.Tagging.Endpoint = defaultTaggingEndpoint
	}
	c.Tagging.Model = strings.TrimSpace(c.Tagging.Model)
	if c.Tagging.Model == "" {
		c.Tagging.Model = defaultTaggingModel
	}
	c.Tagging.APIKey = strings.TrimSpace(c.Tagging.APIKey)
	if c.Tagging.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Tagging.APIKey = strings.TrimSpace(value)
		}
	}
	c.Tagging.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.Tagging.PublicBaseURL), "/")
	if c.Tagging.PublicBaseURL == "" {
		c.Tagging.PublicBaseURL = defaultTaggingPublicURL
	}
	if c.Tagging.TimeoutSeconds <= 0 {
		c.Tagging.TimeoutSeconds = defaultTaggingTimeout
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.StaleAfterSeconds == 0 {
		c.Workflow.StaleAfterSeconds = defaultStaleAfterSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
