package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeSearch(); err != nil {
		return err
	}
	c.normalizeMetadata()
	if err := c.normalizeIndex(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeSearch() error {
	if value, ok := os.LookupEnv("SEQLINK_ROOT"); ok && strings.TrimSpace(value) != "" {
		c.Search.Root = value
	}
	if strings.TrimSpace(c.Search.Root) == "" {
		c.Search.Root = defaultSearchRoot
	}
	var err error
	if c.Search.Root, err = expandPath(strings.TrimSpace(c.Search.Root)); err != nil {
		return fmt.Errorf("search.root: %w", err)
	}
	if value, ok := os.LookupEnv("SEQLINK_RATE"); ok && strings.TrimSpace(value) != "" {
		rate, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("SEQLINK_RATE: %w", err)
		}
		c.Search.Rate = rate
	}
	c.Search.Ext = strings.TrimPrefix(strings.TrimSpace(c.Search.Ext), ".")
	c.Search.Selection = strings.ToLower(strings.TrimSpace(c.Search.Selection))
	if c.Search.Selection == "" {
		c.Search.Selection = defaultSelection
	}
	return nil
}

func (c *Config) normalizeMetadata() {
	c.Metadata.Backend = strings.ToLower(strings.TrimSpace(c.Metadata.Backend))
	if c.Metadata.Backend == "" {
		c.Metadata.Backend = defaultMetadataBackend
	}
	c.Metadata.FFprobeBinary = strings.TrimSpace(c.Metadata.FFprobeBinary)
	if c.Metadata.FFprobeBinary == "" {
		c.Metadata.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Metadata.TimeoutSeconds <= 0 {
		c.Metadata.TimeoutSeconds = defaultMetadataTimeout
	}
}

func (c *Config) normalizeIndex() error {
	var err error
	if strings.TrimSpace(c.Index.StorePath) == "" {
		c.Index.StorePath = defaultStorePath()
	}
	if c.Index.StorePath, err = expandPath(c.Index.StorePath); err != nil {
		return fmt.Errorf("index.store_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
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
	if strings.TrimSpace(c.Logging.File) != "" {
		var err error
		if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}
