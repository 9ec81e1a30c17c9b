package metadata

import (
	"context"
	"log/slog"
	"time"

	"seqlink/internal/logging"
	"seqlink/internal/mediatime"
	"seqlink/internal/metadata/ffprobe"
)

const defaultFFprobeTimeout = 30 * time.Second

// FFprobeReader reads timecode and rate by running ffprobe on the file.
type FFprobeReader struct {
	binary  string
	timeout time.Duration
	logger  *slog.Logger
	inspect func(ctx context.Context, binary, path string) (ffprobe.Result, error)
}

// NewFFprobeReader returns a reader that shells out to binary (default "ffprobe").
func NewFFprobeReader(binary string, timeout time.Duration, logger *slog.Logger) *FFprobeReader {
	if logger == nil {
		logger = logging.NewNop()
	}
	if timeout <= 0 {
		timeout = defaultFFprobeTimeout
	}
	return &FFprobeReader{binary: binary, timeout: timeout, logger: logger, inspect: ffprobe.Inspect}
}

// Read implements Reader.
func (r *FFprobeReader) Read(ctx context.Context, path string) Info {
	if ctx == nil {
		ctx = context.Background()
	}
	probeCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.inspect(probeCtx, r.binary, path)
	if err != nil {
		r.logger.Debug("ffprobe failed",
			logging.String(logging.FieldPath, path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "timecode and frame rate reported absent"))
		return Info{}
	}
	return Info{
		Timecode:  result.Timecode(),
		FrameRate: mediatime.RoundRate(result.FrameRate()),
	}
}
