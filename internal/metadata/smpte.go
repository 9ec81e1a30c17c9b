package metadata

import (
	"errors"
	"fmt"

	"seqlink/internal/mediatime"
)

var errInvalidBCD = errors.New("invalid packed timecode")

// DecodeTimecode unpacks a SMPTE 12M time-and-flags word (as stored by
// OpenEXR and DPX) into HH:MM:SS:FF. Flag bits are masked off; the drop-frame
// flag selects the ';' separator.
func DecodeTimecode(word uint32) (string, error) {
	if word == 0xFFFFFFFF {
		return "", errInvalidBCD
	}
	frames, ok1 := bcd(word&0x0F, (word>>4)&0x03)
	seconds, ok2 := bcd((word>>8)&0x0F, (word>>12)&0x07)
	minutes, ok3 := bcd((word>>16)&0x0F, (word>>20)&0x07)
	hours, ok4 := bcd((word>>24)&0x0F, (word>>28)&0x03)
	if !ok1 || !ok2 || !ok3 || !ok4 || seconds > 59 || minutes > 59 || hours > 23 {
		return "", fmt.Errorf("%w: %#08x", errInvalidBCD, word)
	}
	tc := mediatime.Timecode{
		Hours:     hours,
		Minutes:   minutes,
		Seconds:   seconds,
		Frames:    frames,
		DropFrame: word&(1<<6) != 0,
	}
	return tc.String(), nil
}

// EncodeTimecode packs a timecode string into a SMPTE 12M word.
func EncodeTimecode(value string) (uint32, error) {
	tc, err := mediatime.ParseTimecode(value)
	if err != nil {
		return 0, err
	}
	if tc.Hours > 23 || tc.Frames > 39 {
		return 0, fmt.Errorf("%w: %q out of range", errInvalidBCD, value)
	}
	pack := func(v int) uint32 { return uint32(v/10)<<4 | uint32(v%10) }
	word := pack(tc.Frames) | pack(tc.Seconds)<<8 | pack(tc.Minutes)<<16 | pack(tc.Hours)<<24
	if tc.DropFrame {
		word |= 1 << 6
	}
	return word, nil
}

func bcd(units, tens uint32) (int, bool) {
	if units > 9 {
		return 0, false
	}
	return int(tens*10 + units), true
}
