package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"seqlink/internal/cliplist"
	"seqlink/internal/config"
	"seqlink/internal/deps"
	"seqlink/internal/logging"
	"seqlink/internal/mediatime"
	"seqlink/internal/preflight"
	"seqlink/internal/sequence"
)

type linkOptions struct {
	root      string
	pattern   string
	ext       string
	basename  string
	start     string
	duration  string
	rate      float64
	clip      string
	selection string
	clipsFile string
	json      bool
}

type linkResult struct {
	entry      cliplist.Entry
	candidates []sequence.Descriptor
	selected   int
}

func newLinkCommand(ctx *commandContext) *cobra.Command {
	var opts linkOptions

	cmd := &cobra.Command{
		Use:   "link",
		Short: "Find the image sequences covering a clip's time range",
		Long: "Find the image sequences under a search root whose frames overlap a time range.\n\n" +
			"Describe one clip with --start/--duration (timecode like 01:00:10:00 or a frame count),\n" +
			"or many with --clips pointing at a YAML clip list.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLink(cmd, ctx, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.root, "root", "", "Search root (defaults to [search] root)")
	flags.StringVar(&opts.pattern, "pattern", "", "Regular expression the sequence path must match")
	flags.StringVar(&opts.ext, "ext", "", "Required file extension")
	flags.StringVar(&opts.basename, "basename", "", "Literal file name prefix, instead of --pattern")
	flags.StringVar(&opts.start, "start", "", "Clip start as timecode or frame number")
	flags.StringVar(&opts.duration, "duration", "", "Clip duration as timecode or frame count")
	flags.Float64Var(&opts.rate, "rate", 0, "Clip frame rate (defaults to [search] rate)")
	flags.StringVar(&opts.clip, "clip", "", "Clip name; sequences must contain it when match_clip_name is on")
	flags.StringVar(&opts.selection, "select", "", "Selection policy: first, all, or interactive")
	flags.StringVar(&opts.clipsFile, "clips", "", "YAML clip list to link in one run")
	flags.BoolVar(&opts.json, "json", false, "Output as JSON")

	return cmd
}

func runLink(cmd *cobra.Command, ctx *commandContext, opts linkOptions) (err error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	selection := strings.ToLower(strings.TrimSpace(opts.selection))
	if selection == "" {
		selection = cfg.Search.Selection
	}
	switch selection {
	case config.SelectionFirst, config.SelectionAll, config.SelectionInteractive:
	default:
		return fmt.Errorf("invalid --select %q (want first, all, or interactive)", opts.selection)
	}

	entries, err := linkEntries(cfg, opts)
	if err != nil {
		return err
	}
	if err := linkPreflight(cfg, entries); err != nil {
		return err
	}

	runCtx := logging.WithCorrelationID(cmd.Context(), uuid.NewString())
	sess, err := ctx.openSession(runCtx, cfg.Index.Persist)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sess.close(runCtx); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("save index store: %w", closeErr))
		}
	}()

	engineSelection := sequence.SelectAll
	if selection == config.SelectionFirst {
		engineSelection = sequence.SelectFirst
	}
	prompt := selection == config.SelectionInteractive && stdinIsTerminal(cmd)
	var input *bufio.Reader
	if prompt {
		input = bufio.NewReader(cmd.InOrStdin())
	}

	linker := sequence.NewLinker(sess.cache, sess.logger)
	results := make([]linkResult, 0, len(entries))
	for _, entry := range entries {
		query := sequence.Query{
			Root:      entry.Root,
			Pattern:   entry.Pattern,
			Ext:       entry.Ext,
			Basename:  opts.basename,
			Start:     entry.Range.Start,
			Duration:  entry.Range.Duration,
			Rate:      entry.Rate,
			Selection: engineSelection,
		}
		if cfg.Search.MatchClipName {
			query.ClipName = entry.Name
		}
		candidates, err := linker.Link(runCtx, query)
		if err != nil {
			return fmt.Errorf("link %s: %w", displayClip(entry.Name), err)
		}
		result := linkResult{entry: entry, candidates: candidates, selected: -1}
		switch {
		case len(candidates) == 0:
		case len(candidates) == 1 || selection != config.SelectionAll && !prompt:
			result.selected = 0
		case prompt:
			result.selected = promptSelection(input, cmd.OutOrStdout(), entry.Name, candidates)
		}
		results = append(results, result)
	}

	if opts.json {
		return writeJSON(cmd, linkResultsJSON(results))
	}
	printLinkResults(cmd.OutOrStdout(), results)
	return nil
}

func linkEntries(cfg *config.Config, opts linkOptions) ([]cliplist.Entry, error) {
	root, err := resolveRoot(opts.root, cfg)
	if err != nil {
		return nil, err
	}
	defaults := cliplist.Entry{
		Name:    strings.TrimSpace(opts.clip),
		Rate:    opts.rate,
		Root:    root,
		Pattern: firstNonEmpty(opts.pattern, cfg.Search.Pattern),
		Ext:     firstNonEmpty(opts.ext, cfg.Search.Ext),
	}
	if defaults.Rate <= 0 {
		defaults.Rate = cfg.Search.Rate
	}

	if path := strings.TrimSpace(opts.clipsFile); path != "" {
		list, err := cliplist.Load(path)
		if err != nil {
			return nil, err
		}
		entries, err := list.Resolve(defaults)
		if err != nil {
			return nil, err
		}
		for i := range entries {
			expanded, err := config.ExpandPath(entries[i].Root)
			if err != nil {
				return nil, fmt.Errorf("resolve root of %s: %w", entries[i].Name, err)
			}
			entries[i].Root = expanded
		}
		return entries, nil
	}

	if strings.TrimSpace(opts.start) == "" || strings.TrimSpace(opts.duration) == "" {
		return nil, errors.New("--start and --duration are required unless --clips is given")
	}
	start, err := mediatime.ParseTime(opts.start, defaults.Rate)
	if err != nil {
		return nil, fmt.Errorf("--start: %w", err)
	}
	duration, err := mediatime.ParseTime(opts.duration, defaults.Rate)
	if err != nil {
		return nil, fmt.Errorf("--duration: %w", err)
	}
	if duration.Value <= 0 {
		return nil, errors.New("--duration must be positive")
	}
	defaults.Range = mediatime.NewTimeRange(start, duration)
	return []cliplist.Entry{defaults}, nil
}

// linkPreflight verifies every search root and the metadata backend's
// binaries before anything is walked.
func linkPreflight(cfg *config.Config, entries []cliplist.Entry) error {
	if missing := deps.Missing(preflight.CheckSystemDeps(cfg)); len(missing) > 0 {
		return fmt.Errorf("preflight: %s %s (%s)", missing[0].Name, missing[0].Detail, missing[0].Description)
	}
	seen := make(map[string]struct{})
	for _, entry := range entries {
		if _, ok := seen[entry.Root]; ok {
			continue
		}
		seen[entry.Root] = struct{}{}
		if result := preflight.CheckDirectoryAccess("Search root", entry.Root); !result.Passed {
			return fmt.Errorf("preflight: search root %s", result.Detail)
		}
	}
	return nil
}

// promptSelection asks which candidate to use. Empty or out-of-range answers
// select the first candidate.
func promptSelection(in *bufio.Reader, out io.Writer, clip string, candidates []sequence.Descriptor) int {
	fmt.Fprintf(out, "Several sequences found for %s:\n", displayClip(clip))
	for i, desc := range candidates {
		fmt.Fprintf(out, "  %d, %s\n", i, desc.TargetURL())
	}
	fmt.Fprint(out, "Enter the index to use [0]: ")

	line, _ := in.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return 0
	}
	index, err := strconv.Atoi(line)
	if err != nil || index < 0 || index >= len(candidates) {
		fmt.Fprintln(out, "Choice out of range, using 0")
		return 0
	}
	return index
}

func linkResultsJSON(results []linkResult) []linkResultJSON {
	out := make([]linkResultJSON, 0, len(results))
	for _, result := range results {
		item := linkResultJSON{
			Clip:       result.entry.Name,
			Range:      result.entry.Range,
			Candidates: make([]descriptorJSON, 0, len(result.candidates)),
		}
		for _, desc := range result.candidates {
			item.Candidates = append(item.Candidates, newDescriptorJSON(desc))
		}
		if result.selected >= 0 {
			selected := item.Candidates[result.selected]
			effective := sequence.EffectiveFrameRange(selected.Descriptor, result.entry.Range)
			item.Selected = &selected
			item.Effective = &effective
		}
		out = append(out, item)
	}
	return out
}

func printLinkResults(out io.Writer, results []linkResult) {
	var rows [][]string
	linked := 0
	for _, result := range results {
		clip := displayClip(result.entry.Name)
		if len(result.candidates) == 0 {
			rows = append(rows, []string{"", clip, "no match", "", "", "", ""})
			continue
		}
		if result.selected >= 0 {
			linked++
		}
		for i, desc := range result.candidates {
			mark := ""
			use := ""
			if i == result.selected {
				mark = "*"
				effective := sequence.EffectiveFrameRange(desc, result.entry.Range)
				use = frameSpan(effective.Start.Frames(), effective.Duration.Frames())
			}
			rows = append(rows, []string{
				mark,
				clip,
				filepath.Join(desc.TargetBasePath, desc.Pattern()),
				frameSpan(desc.StartFrame, desc.FrameCount()),
				strconv.FormatFloat(desc.Rate, 'f', -1, 64),
				firstNonEmpty(desc.Timecode, "-"),
				use,
			})
		}
	}
	headers := []string{"", "Clip", "Sequence", "Frames", "Rate", "Timecode", "Use"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
	fmt.Fprintf(out, "Linked %d of %d clip(s)\n", linked, len(results))
}

func frameSpan(start, count int) string {
	if count <= 0 {
		return ""
	}
	return fmt.Sprintf("%d-%d", start, start+count-1)
}

func displayClip(name string) string {
	if strings.TrimSpace(name) == "" {
		return "(clip)"
	}
	return name
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
