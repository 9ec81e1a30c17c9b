package mediatime

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidTimecode reports a string that is not HH:MM:SS:FF (or HH:MM:SS;FF).
var ErrInvalidTimecode = errors.New("invalid timecode")

// ErrInvalidRate reports a non-positive frame rate.
var ErrInvalidRate = errors.New("invalid frame rate")

// Timecode is a parsed SMPTE timecode.
type Timecode struct {
	Hours     int
	Minutes   int
	Seconds   int
	Frames    int
	DropFrame bool
}

// ParseTimecode parses HH:MM:SS:FF. A ';' or ',' before the frame field marks drop-frame.
func ParseTimecode(value string) (Timecode, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return Timecode{}, fmt.Errorf("%w: empty", ErrInvalidTimecode)
	}
	drop := strings.ContainsAny(trimmed, ";,")
	fields := strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == ':' || r == ';' || r == ','
	})
	if len(fields) != 4 {
		return Timecode{}, fmt.Errorf("%w: %q", ErrInvalidTimecode, value)
	}
	parts := make([]int, 4)
	for i, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil || n < 0 {
			return Timecode{}, fmt.Errorf("%w: %q", ErrInvalidTimecode, value)
		}
		parts[i] = n
	}
	if parts[1] > 59 || parts[2] > 59 {
		return Timecode{}, fmt.Errorf("%w: %q", ErrInvalidTimecode, value)
	}
	return Timecode{Hours: parts[0], Minutes: parts[1], Seconds: parts[2], Frames: parts[3], DropFrame: drop}, nil
}

// Compare orders timecodes field by field. Drop-frame flags are ignored.
func (tc Timecode) Compare(o Timecode) int {
	a := [4]int{tc.Hours, tc.Minutes, tc.Seconds, tc.Frames}
	b := [4]int{o.Hours, o.Minutes, o.Seconds, o.Frames}
	for i := range a {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return 0
}

func (tc Timecode) String() string {
	sep := ":"
	if tc.DropFrame {
		sep = ";"
	}
	return fmt.Sprintf("%02d:%02d:%02d%s%02d", tc.Hours, tc.Minutes, tc.Seconds, sep, tc.Frames)
}

// FromTimecode converts a timecode string to a frame count at rate.
func FromTimecode(value string, rate float64) (RationalTime, error) {
	if rate <= 0 {
		return RationalTime{}, fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}
	tc, err := ParseTimecode(value)
	if err != nil {
		return RationalTime{}, err
	}
	timebase := nominalRate(rate)
	if tc.Frames >= timebase {
		return RationalTime{}, fmt.Errorf("%w: frame field %d exceeds rate %v", ErrInvalidTimecode, tc.Frames, rate)
	}
	frames := ((tc.Hours*3600+tc.Minutes*60+tc.Seconds)*timebase + tc.Frames)
	if tc.DropFrame && isDropFrameRate(rate) {
		drop := dropFrameCount(rate)
		totalMinutes := tc.Hours*60 + tc.Minutes
		frames -= drop * (totalMinutes - totalMinutes/10)
	}
	return RationalTime{Value: float64(frames), Rate: rate}, nil
}

// ToTimecode formats t as a timecode at rate. Drop-frame is used for 29.97 and 59.94.
func ToTimecode(t RationalTime, rate float64) (string, error) {
	if rate <= 0 {
		return "", fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}
	frames := int(math.Round(t.RescaledTo(rate).Value))
	if frames < 0 {
		return "", fmt.Errorf("%w: negative time %s", ErrInvalidTimecode, t)
	}
	timebase := nominalRate(rate)
	drop := isDropFrameRate(rate)
	if drop {
		dropped := dropFrameCount(rate)
		framesPer10Min := int(math.Round(rate * 600))
		framesPerMin := timebase*60 - dropped
		tens := frames / framesPer10Min
		rem := frames % framesPer10Min
		frames += dropped * 9 * tens
		if rem > dropped {
			frames += dropped * ((rem - dropped) / framesPerMin)
		}
	}
	tc := Timecode{
		Hours:     frames / (timebase * 3600),
		Minutes:   (frames / (timebase * 60)) % 60,
		Seconds:   (frames / timebase) % 60,
		Frames:    frames % timebase,
		DropFrame: drop,
	}
	return tc.String(), nil
}

func nominalRate(rate float64) int {
	return int(math.Round(rate))
}

func isDropFrameRate(rate float64) bool {
	r := RoundRate(rate)
	return r == 29.97 || r == 59.94
}

func dropFrameCount(rate float64) int {
	return int(math.Round(rate * 0.066666))
}
