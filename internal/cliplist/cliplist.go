// Package cliplist loads batches of clips to link from YAML.
//
// A list looks like:
//
//	root: /mnt/plates
//	rate: 24
//	ext: exr
//	clips:
//	  - name: sh010
//	    start: "01:00:10:00"
//	    duration: 48
//	  - name: sh020
//	    start: 1001
//	    duration: "00:00:03:12"
//	    pattern: ".*_bg.*"
//
// Start and duration accept a timecode or a frame count. Per-clip root, rate,
// pattern, and ext override the list-level values.
package cliplist

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"seqlink/internal/mediatime"
)

// ErrInvalidList reports a clip list that cannot be resolved.
var ErrInvalidList = errors.New("invalid clip list")

// TimeValue is a raw timecode or frame count as written in the file.
type TimeValue string

// UnmarshalYAML accepts both quoted and bare scalars.
func (v *TimeValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a timecode or frame count", node.Line)
	}
	*v = TimeValue(strings.TrimSpace(node.Value))
	return nil
}

// Clip is one entry of a list.
type Clip struct {
	Name     string    `yaml:"name"`
	Start    TimeValue `yaml:"start"`
	Duration TimeValue `yaml:"duration"`
	Rate     float64   `yaml:"rate,omitempty"`
	Root     string    `yaml:"root,omitempty"`
	Pattern  string    `yaml:"pattern,omitempty"`
	Ext      string    `yaml:"ext,omitempty"`
}

// List is a parsed clip list file.
type List struct {
	Root    string  `yaml:"root,omitempty"`
	Rate    float64 `yaml:"rate,omitempty"`
	Pattern string  `yaml:"pattern,omitempty"`
	Ext     string  `yaml:"ext,omitempty"`
	Clips   []Clip  `yaml:"clips"`
}

// Entry is a clip with its time range and search settings resolved.
type Entry struct {
	Name    string
	Range   mediatime.TimeRange
	Rate    float64
	Root    string
	Pattern string
	Ext     string
}

// Load reads and parses a clip list file.
func Load(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read clip list: %w", err)
	}
	list, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return list, nil
}

// Parse decodes a clip list document.
func Parse(data []byte) (*List, error) {
	var list List
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse clip list: %w", err)
	}
	if len(list.Clips) == 0 {
		return nil, fmt.Errorf("%w: no clips", ErrInvalidList)
	}
	return &list, nil
}

// Resolve applies list-level defaults, then the given fallbacks, and converts
// start and duration to times at each clip's rate.
func (l *List) Resolve(defaults Entry) ([]Entry, error) {
	entries := make([]Entry, 0, len(l.Clips))
	for i, clip := range l.Clips {
		name := strings.TrimSpace(clip.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: clip %d has no name", ErrInvalidList, i+1)
		}
		entry := Entry{
			Name:    name,
			Rate:    firstPositive(clip.Rate, l.Rate, defaults.Rate),
			Root:    firstNonEmpty(clip.Root, l.Root, defaults.Root),
			Pattern: firstNonEmpty(clip.Pattern, l.Pattern, defaults.Pattern),
			Ext:     firstNonEmpty(clip.Ext, l.Ext, defaults.Ext),
		}
		if clip.Start == "" || clip.Duration == "" {
			return nil, fmt.Errorf("%w: clip %q needs start and duration", ErrInvalidList, name)
		}
		start, err := mediatime.ParseTime(string(clip.Start), entry.Rate)
		if err != nil {
			return nil, fmt.Errorf("%w: clip %q start: %v", ErrInvalidList, name, err)
		}
		duration, err := mediatime.ParseTime(string(clip.Duration), entry.Rate)
		if err != nil {
			return nil, fmt.Errorf("%w: clip %q duration: %v", ErrInvalidList, name, err)
		}
		if duration.Value <= 0 {
			return nil, fmt.Errorf("%w: clip %q has an empty duration", ErrInvalidList, name)
		}
		entry.Range = mediatime.NewTimeRange(start, duration)
		entries = append(entries, entry)
	}
	return entries, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func firstPositive(values ...float64) float64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
