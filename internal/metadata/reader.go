package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"seqlink/internal/logging"
)

// Backend names accepted by New.
const (
	BackendNative  = "native"
	BackendFFprobe = "ffprobe"
	BackendNone    = "none"
)

// Info holds the optional header fields of one file. Empty Timecode and zero
// FrameRate mean absent.
type Info struct {
	Timecode  string  `json:"timecode,omitempty"`
	FrameRate float64 `json:"frame_rate,omitempty"`
}

// HasTimecode reports whether a timecode was found.
func (i Info) HasTimecode() bool { return strings.TrimSpace(i.Timecode) != "" }

// HasFrameRate reports whether a frame rate was found.
func (i Info) HasFrameRate() bool { return i.FrameRate > 0 }

// Reader extracts Info from a file path.
type Reader interface {
	Read(ctx context.Context, path string) Info
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func(ctx context.Context, path string) Info

// Read calls f.
func (f ReaderFunc) Read(ctx context.Context, path string) Info { return f(ctx, path) }

// Nop reports every field absent.
type Nop struct{}

// Read implements Reader.
func (Nop) Read(context.Context, string) Info { return Info{} }

// Options configures New.
type Options struct {
	Backend       string
	FFprobeBinary string
	Timeout       time.Duration
	Logger        *slog.Logger
}

// New returns the reader for the configured backend.
func New(opts Options) (Reader, error) {
	logger := logging.NewComponentLogger(opts.Logger, "metadata")
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendNative:
		return NewNativeReader(logger), nil
	case BackendFFprobe:
		return NewFFprobeReader(opts.FFprobeBinary, opts.Timeout, logger), nil
	case BackendNone:
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("metadata backend: unsupported value %q", opts.Backend)
	}
}
