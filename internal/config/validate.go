package config

import (
	"errors"
	"fmt"
	"regexp"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validateMetadata(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSearch() error {
	if c.Search.Rate <= 0 {
		return errors.New("search.rate must be positive")
	}
	switch c.Search.Selection {
	case SelectionFirst, SelectionAll, SelectionInteractive:
	default:
		return fmt.Errorf("search.selection must be one of %q, %q, %q (got %q)",
			SelectionFirst, SelectionAll, SelectionInteractive, c.Search.Selection)
	}
	if _, err := regexp.Compile(c.Search.Pattern); err != nil {
		return fmt.Errorf("search.pattern is not a valid regular expression: %w", err)
	}
	return nil
}

func (c *Config) validateMetadata() error {
	switch c.Metadata.Backend {
	case "native", "ffprobe", "none":
	default:
		return fmt.Errorf("metadata.backend must be native, ffprobe, or none (got %q)", c.Metadata.Backend)
	}
	if c.Metadata.TimeoutSeconds <= 0 {
		return errors.New("metadata.timeout_seconds must be positive")
	}
	return nil
}
