package sequence

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"seqlink/internal/mediatime"
)

// ErrNoFrameNumber reports a bucket whose first file has no frame run.
var ErrNoFrameNumber = errors.New("no frame number in file name")

// Descriptor is a matched sequence in a directory-agnostic form.
type Descriptor struct {
	TargetBasePath string              `json:"target_base_path"`
	NamePrefix     string              `json:"name_prefix"`
	NameSuffix     string              `json:"name_suffix"`
	StartFrame     int                 `json:"start_frame"`
	PaddingWidth   int                 `json:"padding_width"`
	Rate           float64             `json:"rate"`
	AvailableRange mediatime.TimeRange `json:"available_range"`
	Timecode       string              `json:"timecode,omitempty"`
}

// Build turns a bucket into a descriptor using only what is already memoized
// on it. The start of the available range is the first file's timecode when
// known, otherwise its frame number at fallbackRate.
func Build(b *Bucket, fallbackRate float64) (Descriptor, error) {
	if len(b.Files) == 0 {
		return Descriptor{}, fmt.Errorf("build %s: empty bucket", b.Identifier)
	}
	prefix, digits, suffix, ok := splitFrame(b.Files[0])
	if !ok {
		return Descriptor{}, fmt.Errorf("build %s: %w", b.Files[0], ErrNoFrameNumber)
	}
	startFrame, err := strconv.Atoi(digits)
	if err != nil {
		return Descriptor{}, fmt.Errorf("build %s: %w", b.Files[0], ErrNoFrameNumber)
	}

	rate := fallbackRate
	if r, ok := b.FrameRate(); ok {
		rate = r
	}
	if rate <= 0 {
		return Descriptor{}, fmt.Errorf("build %s: %w: %v", b.Files[0], mediatime.ErrInvalidRate, rate)
	}

	desc := Descriptor{
		TargetBasePath: b.Dir,
		NamePrefix:     prefix,
		NameSuffix:     suffix,
		StartFrame:     startFrame,
		PaddingWidth:   len(digits),
		Rate:           rate,
	}
	duration := mediatime.FromFrames(len(b.Files), rate)

	if tc, ok := b.TimecodeIn(); ok {
		start, err := mediatime.FromTimecode(tc, rate)
		if err != nil {
			return Descriptor{}, fmt.Errorf("build %s: %w", b.Files[0], err)
		}
		desc.Timecode = tc
		desc.AvailableRange = mediatime.NewTimeRange(start, duration)
		return desc, nil
	}

	startRate := fallbackRate
	if startRate <= 0 {
		startRate = rate
	}
	desc.AvailableRange = mediatime.NewTimeRange(mediatime.FromFrames(startFrame, startRate), duration)
	return desc, nil
}

// FrameCount is the number of files in the sequence.
func (d Descriptor) FrameCount() int {
	return d.AvailableRange.Duration.Frames()
}

// FrameName returns the file name of frame n.
func (d Descriptor) FrameName(n int) string {
	return fmt.Sprintf("%s%0*d%s", d.NamePrefix, d.PaddingWidth, n, d.NameSuffix)
}

// FirstFilename returns the file name of the first frame on disk.
func (d Descriptor) FirstFilename() string {
	return d.FrameName(d.StartFrame)
}

// Pattern returns the printf-style name, e.g. shot.%04d.exr.
func (d Descriptor) Pattern() string {
	return fmt.Sprintf("%s%%0%dd%s", d.NamePrefix, d.PaddingWidth, d.NameSuffix)
}

// TargetURL returns the file:// URL of the pattern.
func (d Descriptor) TargetURL() string {
	return "file://" + filepath.ToSlash(filepath.Join(d.TargetBasePath, d.Pattern()))
}

// FrameRange is the on-disk frame numbers covered by the sequence.
func (d Descriptor) FrameRange() mediatime.TimeRange {
	return mediatime.NewTimeRange(
		mediatime.FromFrames(d.StartFrame, d.Rate),
		mediatime.FromFrames(d.FrameCount(), d.Rate),
	)
}

// EffectiveFrameRange maps a clip's nominal range, expressed in the same
// space as the descriptor's available range, onto on-disk frame numbers.
func EffectiveFrameRange(d Descriptor, nominal mediatime.TimeRange) mediatime.TimeRange {
	offset := nominal.Start.RescaledTo(d.Rate).Sub(d.AvailableRange.Start)
	start := mediatime.FromFrames(d.StartFrame, d.Rate).Add(offset)
	return mediatime.NewTimeRange(start, nominal.Duration.RescaledTo(d.Rate))
}
