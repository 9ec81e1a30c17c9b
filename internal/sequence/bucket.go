package sequence

import (
	"path/filepath"
	"regexp"
	"strconv"
)

var (
	digitRun = regexp.MustCompile(`[0-9]+`)
	// frameRun locates the frame number: digits after '.' or '_' and before the extension.
	frameRun = regexp.MustCompile(`[._]([0-9]+)(\.\w+)$`)
)

// Bucket is one candidate image sequence inside one directory.
type Bucket struct {
	Dir        string
	Identifier string
	Files      []string

	memo Memo
}

// Memo holds the metadata memoized on a bucket. Each field is written once.
type Memo struct {
	TimecodeIn  string  `json:"timecode_in,omitempty"`
	TimecodeOut string  `json:"timecode_out,omitempty"`
	FrameRate   float64 `json:"frame_rate,omitempty"`
	FirstProbed bool    `json:"first_probed,omitempty"`
	LastProbed  bool    `json:"last_probed,omitempty"`
}

// NewBucket returns a bucket with restored memo fields.
func NewBucket(dir, identifier string, files []string, memo Memo) *Bucket {
	return &Bucket{Dir: dir, Identifier: identifier, Files: files, memo: memo}
}

// Memo returns a copy of the memoized metadata.
func (b *Bucket) Memo() Memo { return b.memo }

// First returns the full path of the first file.
func (b *Bucket) First() string { return filepath.Join(b.Dir, b.Files[0]) }

// Last returns the full path of the last file.
func (b *Bucket) Last() string { return filepath.Join(b.Dir, b.Files[len(b.Files)-1]) }

// TimecodeIn returns the timecode of the first file when it was probed and present.
func (b *Bucket) TimecodeIn() (string, bool) {
	return b.memo.TimecodeIn, b.memo.TimecodeIn != ""
}

// TimecodeOut returns the timecode of the last file when it was probed and present.
func (b *Bucket) TimecodeOut() (string, bool) {
	return b.memo.TimecodeOut, b.memo.TimecodeOut != ""
}

// FrameRate returns the rate recorded in the first file's header.
func (b *Bucket) FrameRate() (float64, bool) {
	return b.memo.FrameRate, b.memo.FrameRate > 0
}

// FirstFrame parses the frame number of the first file.
func (b *Bucket) FirstFrame() (int, bool) {
	frame, ok := ParseFrame(b.Files[0])
	return frame, ok
}

// LastFrame parses the frame number of the last file.
func (b *Bucket) LastFrame() (int, bool) {
	frame, ok := ParseFrame(b.Files[len(b.Files)-1])
	return frame, ok
}

// Basis resolves the unit system the bucket is matched in. It is only
// meaningful after the first file has been probed.
func (b *Bucket) Basis() (TimeBasis, bool) {
	if tc, ok := b.TimecodeIn(); ok {
		return TimecodeBasis{Timecode: tc}, true
	}
	if frame, ok := b.FirstFrame(); ok {
		return FrameBasis{Frame: frame}, true
	}
	return nil, false
}

func (b *Bucket) recordFirst(timecode string, rate float64) {
	if b.memo.FirstProbed {
		return
	}
	b.memo.FirstProbed = true
	b.memo.TimecodeIn = timecode
	b.memo.FrameRate = rate
}

func (b *Bucket) recordLast(timecode string) {
	if b.memo.LastProbed {
		return
	}
	b.memo.LastProbed = true
	b.memo.TimecodeOut = timecode
}

// TimeBasis is the unit system a bucket's position is expressed in: either
// TimecodeBasis or FrameBasis.
type TimeBasis interface {
	isTimeBasis()
}

// TimecodeBasis positions a bucket by the timecode embedded in its first file.
type TimecodeBasis struct {
	Timecode string
}

// FrameBasis positions a bucket by the frame number in its first filename.
type FrameBasis struct {
	Frame int
}

func (TimecodeBasis) isTimeBasis() {}

func (FrameBasis) isTimeBasis() {}

// Identifier masks the last run of digits in name with one '#' per digit.
// A name without digits is its own identifier.
func Identifier(name string) string {
	runs := digitRun.FindAllStringIndex(name, -1)
	if len(runs) == 0 {
		return name
	}
	last := runs[len(runs)-1]
	mask := make([]byte, last[1]-last[0])
	for i := range mask {
		mask[i] = '#'
	}
	return name[:last[0]] + string(mask) + name[last[1]:]
}

// ParseFrame extracts the frame number of name.
func ParseFrame(name string) (int, bool) {
	_, digits, _, ok := splitFrame(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// splitFrame splits name around its frame run.
func splitFrame(name string) (prefix, digits, suffix string, ok bool) {
	loc := frameRun.FindStringSubmatchIndex(name)
	if loc == nil {
		return "", "", "", false
	}
	return name[:loc[2]], name[loc[2]:loc[3]], name[loc[3]:], true
}
