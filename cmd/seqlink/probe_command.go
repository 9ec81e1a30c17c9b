package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"seqlink/internal/metadata"
	"seqlink/internal/sequence"
)

type probeJSON struct {
	Path       string `json:"path"`
	Identifier string `json:"identifier"`
	Frame      *int   `json:"frame,omitempty"`
	metadata.Info
}

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe <file>...",
		Short: "Show the timecode, frame rate, and frame number read from files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			reader, err := ctx.metadataReader(logger)
			if err != nil {
				return err
			}

			results := make([]probeJSON, 0, len(args))
			for _, arg := range args {
				path, err := filepath.Abs(arg)
				if err != nil {
					return fmt.Errorf("resolve %s: %w", arg, err)
				}
				name := filepath.Base(path)
				result := probeJSON{
					Path:       path,
					Identifier: sequence.Identifier(name),
					Info:       reader.Read(cmd.Context(), path),
				}
				if frame, ok := sequence.ParseFrame(name); ok {
					result.Frame = &frame
				}
				results = append(results, result)
			}

			if asJSON {
				return writeJSON(cmd, results)
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				frame := "-"
				if r.Frame != nil {
					frame = strconv.Itoa(*r.Frame)
				}
				timecode := "-"
				if r.HasTimecode() {
					timecode = r.Timecode
				}
				rate := "-"
				if r.HasFrameRate() {
					rate = strconv.FormatFloat(r.FrameRate, 'f', -1, 64)
				}
				rows = append(rows, []string{r.Path, r.Identifier, frame, timecode, rate})
			}
			headers := []string{"File", "Sequence", "Frame", "Timecode", "Rate"}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
