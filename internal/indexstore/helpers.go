package indexstore

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// codec compresses newline-joined file lists.
type codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newCodec() (*codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &codec{enc: enc, dec: dec}, nil
}

func (c *codec) encode(files []string) []byte {
	return c.enc.EncodeAll([]byte(strings.Join(files, "\n")), nil)
}

func (c *codec) decode(blob []byte) ([]string, error) {
	raw, err := c.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	parts := bytes.Split(raw, []byte{'\n'})
	files := make([]string, len(parts))
	for i, part := range parts {
		files[i] = string(part)
	}
	return files, nil
}

func (c *codec) close() {
	_ = c.enc.Close()
	c.dec.Close()
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableFloat(value float64) any {
	if value == 0 {
		return nil
	}
	return value
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
