package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Result holds the subset of ffprobe output the linker reads.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream is one stream entry.
type Stream struct {
	CodecType    string            `json:"codec_type"`
	RFrameRate   string            `json:"r_frame_rate"`
	AvgFrameRate string            `json:"avg_frame_rate"`
	Tags         map[string]string `json:"tags"`
}

// Format is the container entry.
type Format struct {
	Filename   string            `json:"filename"`
	FormatName string            `json:"format_name"`
	Tags       map[string]string `json:"tags"`
}

// probeEntries limits ffprobe output to frame rates and tags.
const probeEntries = "stream=codec_type,r_frame_rate,avg_frame_rate:stream_tags:format=filename,format_name:format_tags"

// rateTags are the header attributes ffprobe surfaces for an explicit rate.
var rateTags = []string{"framesPerSecond", "frameRate", "dpx:FrameRate"}

// Inspect runs binary (ffprobe when empty) against path and decodes its JSON.
func Inspect(ctx context.Context, binary, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	if strings.TrimSpace(path) == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_entries", probeEntries, "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}
	return Parse(output)
}

// Parse decodes raw ffprobe JSON.
func Parse(output []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// Timecode returns the container timecode tag, else the first stream's, or
// "" when none is present.
func (r Result) Timecode() string {
	if tc := lookupTag(r.Format.Tags, "timecode"); tc != "" {
		return tc
	}
	for _, stream := range r.Streams {
		if tc := lookupTag(stream.Tags, "timecode"); tc != "" {
			return tc
		}
	}
	return ""
}

// FrameRate returns an explicit frame rate tag when one is present, else the
// first video stream's rate. Still images carry no stream rate of their own:
// the image demuxers report 25/1 regardless of the header, so for them only
// a tag counts. It returns 0 when no rate is known.
func (r Result) FrameRate() float64 {
	for _, key := range rateTags {
		if rate := parseRatio(lookupTag(r.Format.Tags, key)); rate > 0 {
			return rate
		}
		for _, stream := range r.Streams {
			if rate := parseRatio(lookupTag(stream.Tags, key)); rate > 0 {
				return rate
			}
		}
	}
	if r.StillImage() {
		return 0
	}
	for _, stream := range r.Streams {
		if !strings.EqualFold(stream.CodecType, "video") {
			continue
		}
		for _, value := range []string{stream.RFrameRate, stream.AvgFrameRate} {
			if rate := parseRatio(value); rate > 0 {
				return rate
			}
		}
	}
	return 0
}

// StillImage reports whether ffprobe opened the file with a single-image
// demuxer (image2 or one of the *_pipe readers).
func (r Result) StillImage() bool {
	for name := range strings.SplitSeq(r.Format.FormatName, ",") {
		name = strings.TrimSpace(name)
		if name == "image2" || strings.HasSuffix(name, "_pipe") {
			return true
		}
	}
	return false
}

func lookupTag(tags map[string]string, key string) string {
	for k, v := range tags {
		if strings.EqualFold(k, key) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// parseRatio reads "num/den" or a plain number; anything unparsable is 0.
func parseRatio(value string) float64 {
	num, den, isRatio := strings.Cut(strings.TrimSpace(value), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !isRatio {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
