package mediatime

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTime reads a user-supplied time: a timecode (01:00:00:00) or a plain
// frame count (1001).
func ParseTime(value string, rate float64) (RationalTime, error) {
	trimmed := strings.TrimSpace(value)
	if rate <= 0 {
		return RationalTime{}, fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}
	if strings.ContainsAny(trimmed, ":;,") {
		return FromTimecode(trimmed, rate)
	}
	frames, err := strconv.Atoi(trimmed)
	if err != nil || frames < 0 {
		return RationalTime{}, fmt.Errorf("%w: %q is neither a timecode nor a frame count", ErrInvalidTimecode, value)
	}
	return FromFrames(frames, rate), nil
}
