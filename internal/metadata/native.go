package metadata

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"seqlink/internal/logging"
	"seqlink/internal/mediatime"
)

var errUnsupportedFormat = errors.New("unsupported image format")

// NativeReader parses OpenEXR and DPX headers without external tools.
type NativeReader struct {
	logger *slog.Logger
}

// NewNativeReader returns a header parser. A nil logger discards output.
func NewNativeReader(logger *slog.Logger) *NativeReader {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &NativeReader{logger: logger}
}

// Read implements Reader.
func (r *NativeReader) Read(ctx context.Context, path string) Info {
	if ctx != nil && ctx.Err() != nil {
		return Info{}
	}
	info, err := r.read(path)
	if err != nil {
		r.logger.Debug("header read failed",
			logging.String(logging.FieldPath, path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "timecode and frame rate reported absent"))
		return Info{}
	}
	info.FrameRate = mediatime.RoundRate(info.FrameRate)
	return info
}

func (r *NativeReader) read(path string) (Info, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "exr", "sxr":
	case "dpx":
	default:
		return Info{}, errUnsupportedFormat
	}

	file, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer file.Close()

	if ext == "dpx" {
		return readDPX(file)
	}
	return readEXR(file)
}
