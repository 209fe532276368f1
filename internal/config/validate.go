package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/shlex"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateTagging(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateWorkflow() error {
	return ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
		"workflow.stale_after_seconds":  c.Workflow.StaleAfterSeconds,
	})
}

func (c *Config) validateTools() error {
	templates := map[string]string{
		"tools.thumbnail_args":  c.Tools.ThumbnailArgs,
		"tools.categorize_args": c.Tools.CategorizeArgs,
	}
	for key, template := range templates {
		tokens, err := shlex.Split(template)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		joined := strings.Join(tokens, " ")
		if !strings.Contains(joined, "{input}") {
			return fmt.Errorf("%s must reference {input}", key)
		}
		if !strings.Contains(joined, "{output}") {
			return fmt.Errorf("%s must reference {output}", key)
		}
	}
	return nil
}

func (c *Config) validateTagging() error {
	parsed, err := url.Parse(c.Tagging.Endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("tagging.endpoint must be an absolute URL, got %q", c.Tagging.Endpoint)
	}
	parsed, err = url.Parse(c.Tagging.PublicBaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("tagging.public_base_url must be an absolute URL, got %q", c.Tagging.PublicBaseURL)
	}
	if c.Tagging.TimeoutSeconds <= 0 {
		return errors.New("tagging.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
