package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"seqlink/internal/mediatime"
	"seqlink/internal/sequence"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type descriptorJSON struct {
	sequence.Descriptor
	TargetURL  string              `json:"target_url"`
	FrameRange mediatime.TimeRange `json:"frame_range"`
}

type linkResultJSON struct {
	Clip       string               `json:"clip,omitempty"`
	Range      mediatime.TimeRange  `json:"range"`
	Candidates []descriptorJSON     `json:"candidates"`
	Selected   *descriptorJSON      `json:"selected,omitempty"`
	Effective  *mediatime.TimeRange `json:"effective_frame_range,omitempty"`
}

func newDescriptorJSON(desc sequence.Descriptor) descriptorJSON {
	return descriptorJSON{
		Descriptor: desc,
		TargetURL:  desc.TargetURL(),
		FrameRange: desc.FrameRange(),
	}
}
