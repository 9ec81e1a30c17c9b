package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"seqlink/internal/config"
	"seqlink/internal/indexstore"
	"seqlink/internal/preflight"
)

type statusJSON struct {
	ConfigPath string                `json:"config_path"`
	ConfigSeen bool                  `json:"config_exists"`
	Backend    string                `json:"metadata_backend"`
	Checks     []preflight.Result    `json:"checks"`
	Persist    bool                  `json:"persist"`
	StorePath  string                `json:"store_path,omitempty"`
	Roots      []indexstore.RootInfo `json:"roots,omitempty"`
	StoreError string                `json:"store_error,omitempty"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration, dependency, and index store status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := collectStatus(cmd, ctx, cfg)
			if asJSON {
				return writeJSON(cmd, report)
			}
			printStatus(cmd, cfg, report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func collectStatus(cmd *cobra.Command, ctx *commandContext, cfg *config.Config) statusJSON {
	report := statusJSON{
		ConfigPath: ctx.configPath,
		ConfigSeen: ctx.configSeen,
		Backend:    cfg.Metadata.Backend,
		Checks:     preflight.RunAll(cfg),
		Persist:    cfg.Index.Persist,
	}
	if !cfg.Index.Persist {
		return report
	}
	report.StorePath = cfg.Index.StorePath
	if _, err := os.Stat(cfg.Index.StorePath); errors.Is(err, os.ErrNotExist) {
		return report
	}
	store, err := indexstore.Open(cfg)
	if err != nil {
		report.StoreError = err.Error()
		return report
	}
	defer store.Close()
	roots, err := store.Roots(cmd.Context())
	if err != nil {
		report.StoreError = err.Error()
		return report
	}
	report.Roots = roots
	return report
}

func printStatus(cmd *cobra.Command, cfg *config.Config, report statusJSON) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	var lines []string
	lines = append(lines, renderSectionHeader("Configuration", colorize)...)
	if report.ConfigSeen {
		lines = append(lines, renderStatusLine("Config", statusOK, report.ConfigPath, colorize))
	} else {
		lines = append(lines, renderStatusLine("Config", statusInfo, "Defaults (no file at "+report.ConfigPath+")", colorize))
	}
	lines = append(lines, renderStatusLine("Metadata", statusInfo, report.Backend, colorize))
	lines = append(lines, renderStatusLine("Selection", statusInfo, cfg.Search.Selection, colorize))
	lines = append(lines, renderStatusLine("Match clip name", statusInfo, yesNo(cfg.Search.MatchClipName), colorize))

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Checks", colorize)...)
	for _, result := range report.Checks {
		kind := statusOK
		if !result.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Index store", colorize)...)
	switch {
	case !report.Persist:
		lines = append(lines, renderStatusLine("Store", statusInfo, "Disabled (walks are not persisted)", colorize))
	case report.StoreError != "":
		lines = append(lines, renderStatusLine("Store", statusWarn, report.StoreError, colorize))
	case len(report.Roots) == 0:
		lines = append(lines, renderStatusLine("Store", statusInfo, report.StorePath+" (empty)", colorize))
	default:
		lines = append(lines, renderStatusLine("Store", statusOK, report.StorePath, colorize))
		for _, root := range report.Roots {
			detail := fmt.Sprintf("%d sequences, %d files, indexed %s", root.Buckets, root.Files, root.IndexedAt.Local().Format("2006-01-02 15:04"))
			lines = append(lines, renderStatusLine("Root", statusInfo, root.Path+" ("+detail+")", colorize))
		}
	}

	fmt.Fprintln(out, strings.Join(lines, "\n"))
}
