package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"seqlink/internal/config"
	"seqlink/internal/indexstore"
	"seqlink/internal/logging"
	"seqlink/internal/metadata"
	"seqlink/internal/sequence"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) metadataReader(logger *slog.Logger) (metadata.Reader, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return metadata.New(metadata.Options{
		Backend:       cfg.Metadata.Backend,
		FFprobeBinary: cfg.Metadata.FFprobeBinary,
		Timeout:       cfg.MetadataTimeout(),
		Logger:        logger,
	})
}

// session bundles the cache a command works against and, when persistence is
// enabled, the store it was loaded from.
type session struct {
	cache  *sequence.Cache
	store  *indexstore.Store
	logger *slog.Logger
}

func (c *commandContext) openSession(ctx context.Context, persist bool) (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	reader, err := c.metadataReader(logger)
	if err != nil {
		return nil, err
	}
	s := &session{cache: sequence.NewCache(reader, logger), logger: logger}
	if !persist {
		return s, nil
	}

	store, err := indexstore.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open index store: %w", err)
	}
	s.store = store
	loaded, err := store.Load(ctx, s.cache)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load index store: %w", err)
	}
	logger.Debug("index store loaded", logging.String("path", store.Path()), logging.Int("roots", loaded))
	return s, nil
}

// close saves the cache when a store is attached and releases it.
func (s *session) close(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	saveErr := s.store.Save(ctx, s.cache)
	if saveErr == nil {
		stats := s.cache.Stats()
		s.logger.Debug("index store saved",
			logging.String("path", s.store.Path()),
			logging.Int("roots", stats.Roots),
			logging.Int("buckets", stats.Buckets),
			logging.Int("files", stats.Files),
		)
	}
	return errors.Join(saveErr, s.store.Close())
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func resolveRoot(flagValue string, cfg *config.Config) (string, error) {
	root := strings.TrimSpace(flagValue)
	if root == "" {
		root = cfg.Search.Root
	}
	expanded, err := config.ExpandPath(root)
	if err != nil {
		return "", fmt.Errorf("resolve search root: %w", err)
	}
	return expanded, nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func stdinIsTerminal(cmd *cobra.Command) bool {
	file, ok := cmd.InOrStdin().(*os.File)
	if !ok {
		return false
	}
	return isTerminal(file)
}
