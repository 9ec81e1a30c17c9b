package sequence

import (
	"cmp"
	"context"
	"fmt"
	"regexp"
	"strings"

	"seqlink/internal/logging"
	"seqlink/internal/mediatime"
)

// Operator compares an observed value against a threshold. The zero value
// accepts everything.
type Operator int

const (
	Any Operator = iota
	GreaterEqual
	Greater
	LessEqual
	Less
)

// Holds reports whether a comparison result (observed vs threshold, as
// returned by cmp.Compare) satisfies the operator.
func (o Operator) Holds(c int) bool {
	switch o {
	case GreaterEqual:
		return c >= 0
	case Greater:
		return c > 0
	case LessEqual:
		return c <= 0
	case Less:
		return c < 0
	default:
		return true
	}
}

func (o Operator) String() string {
	switch o {
	case GreaterEqual:
		return ">="
	case Greater:
		return ">"
	case LessEqual:
		return "<="
	case Less:
		return "<"
	default:
		return "any"
	}
}

// TimecodeTest bounds a timecode.
type TimecodeTest struct {
	Op        Operator
	Threshold mediatime.Timecode
}

// Eval applies the test to an observed timecode.
func (t TimecodeTest) Eval(observed mediatime.Timecode) bool {
	return t.Op.Holds(observed.Compare(t.Threshold))
}

// FrameTest bounds a frame number.
type FrameTest struct {
	Op        Operator
	Threshold int
}

// Eval applies the test to an observed frame number.
func (t FrameTest) Eval(observed int) bool {
	return t.Op.Holds(cmp.Compare(observed, t.Threshold))
}

// TimecodeBounds holds the test for a bucket's first file (Lower) and last
// file (Upper) when the bucket carries timecode.
type TimecodeBounds struct {
	Lower TimecodeTest
	Upper TimecodeTest
}

// FrameBounds is the filename frame-number fallback of TimecodeBounds.
type FrameBounds struct {
	Lower FrameTest
	Upper FrameTest
}

// Criteria decides whether a bucket is a candidate for a time range.
type Criteria struct {
	// Filter is matched against the full path of the first and last file.
	// A nil Filter accepts every path.
	Filter   *regexp.Regexp
	Timecode TimecodeBounds
	Frame    FrameBounds
}

func (c Criteria) accepts(path string) bool {
	return c.Filter == nil || c.Filter.MatchString(path)
}

// NewFilter compiles the filename filter. A non-empty basename is matched
// literally at the start of the file name; otherwise pattern is a regular
// expression searched anywhere in the path. An empty ext disables the
// extension check.
func NewFilter(pattern, ext, basename string) (*regexp.Regexp, error) {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	var expr string
	if basename = strings.TrimSpace(basename); basename != "" {
		expr = `(?:^|/)(` + regexp.QuoteMeta(basename) + `)[^/]*`
	} else {
		expr = `(` + pattern + `).*`
	}
	if ext != "" {
		expr += `(\.` + regexp.QuoteMeta(ext) + `)$`
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile filename filter: %w", err)
	}
	return re, nil
}

// OverlapCriteria returns criteria accepting a bucket [T0, T1) when it
// intersects [start, start+duration). Timecode thresholds are formatted at
// rate; frame thresholds are the range expressed in frames at rate.
func OverlapCriteria(filter *regexp.Regexp, start, duration mediatime.RationalTime, rate float64) (Criteria, error) {
	if rate <= 0 {
		rate = start.Rate
	}
	if rate <= 0 {
		return Criteria{}, fmt.Errorf("overlap criteria: %w: %v", mediatime.ErrInvalidRate, rate)
	}
	start = start.RescaledTo(rate)
	end := start.Add(duration)

	tcStart, err := timecodeAt(start, rate)
	if err != nil {
		return Criteria{}, fmt.Errorf("overlap criteria start: %w", err)
	}
	tcEnd, err := timecodeAt(end, rate)
	if err != nil {
		return Criteria{}, fmt.Errorf("overlap criteria end: %w", err)
	}

	return Criteria{
		Filter: filter,
		Timecode: TimecodeBounds{
			Lower: TimecodeTest{Op: Less, Threshold: tcEnd},
			Upper: TimecodeTest{Op: GreaterEqual, Threshold: tcStart},
		},
		Frame: FrameBounds{
			Lower: FrameTest{Op: Less, Threshold: end.Frames()},
			Upper: FrameTest{Op: GreaterEqual, Threshold: start.Frames()},
		},
	}, nil
}

func timecodeAt(t mediatime.RationalTime, rate float64) (mediatime.Timecode, error) {
	value, err := mediatime.ToTimecode(t, rate)
	if err != nil {
		return mediatime.Timecode{}, err
	}
	return mediatime.ParseTimecode(value)
}

// Matches reports whether b satisfies criteria. Only the first and last file
// are probed, and the probe results are memoized on b. The last file is not
// probed when the first one already fails.
func (c *Cache) Matches(ctx context.Context, b *Bucket, criteria Criteria) bool {
	if len(b.Files) == 0 {
		return false
	}
	if !criteria.accepts(b.First()) || !criteria.accepts(b.Last()) {
		return false
	}
	logger := c.logger.With(
		logging.String(logging.FieldDir, b.Dir),
		logging.String(logging.FieldIdentifier, b.Identifier),
	)

	c.ProbeFirst(ctx, b)
	basis, ok := b.Basis()
	if !ok {
		logger.Debug("bucket rejected", logging.String("reason", "no timecode and no frame number"))
		return false
	}

	switch basis := basis.(type) {
	case TimecodeBasis:
		first, err := mediatime.ParseTimecode(basis.Timecode)
		if err != nil {
			logger.Debug("bucket rejected", logging.String("reason", "unparsable timecode"), logging.Error(err))
			return false
		}
		if !criteria.Timecode.Lower.Eval(first) {
			return false
		}
		c.ProbeLast(ctx, b)
		out, ok := b.TimecodeOut()
		if !ok {
			logger.Debug("bucket rejected", logging.String("reason", "last file has no timecode"))
			return false
		}
		last, err := mediatime.ParseTimecode(out)
		if err != nil {
			logger.Debug("bucket rejected", logging.String("reason", "unparsable timecode"), logging.Error(err))
			return false
		}
		return criteria.Timecode.Upper.Eval(last)
	case FrameBasis:
		if !criteria.Frame.Lower.Eval(basis.Frame) {
			return false
		}
		last, ok := b.LastFrame()
		if !ok {
			logger.Debug("bucket rejected", logging.String("reason", "last file has no frame number"))
			return false
		}
		return criteria.Frame.Upper.Eval(last)
	default:
		return false
	}
}
