package sequence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"

	"seqlink/internal/logging"
	"seqlink/internal/mediatime"
)

// Selection controls how many candidates Link returns.
type Selection string

const (
	// SelectFirst returns at most the first candidate.
	SelectFirst Selection = "first"
	// SelectAll returns every candidate and leaves the choice to the caller.
	SelectAll Selection = "all"
)

// Query describes one clip's time range and where to look for its media.
type Query struct {
	Root     string
	Pattern  string
	Ext      string
	Basename string
	Start    mediatime.RationalTime
	Duration mediatime.RationalTime
	// Rate is the clip rate, used for timecode thresholds and as the
	// fallback rate of sequences without a rate in their headers.
	Rate float64
	// ClipName, when set, must appear in the first file name of a candidate.
	ClipName  string
	Selection Selection
}

// Range returns the queried time range.
func (q Query) Range() mediatime.TimeRange {
	return mediatime.NewTimeRange(q.Start, q.Duration)
}

// Linker resolves queries against a cache.
type Linker struct {
	cache  *Cache
	logger *slog.Logger
}

// NewLinker returns a linker backed by cache.
func NewLinker(cache *Cache, logger *slog.Logger) *Linker {
	return &Linker{cache: cache, logger: logging.NewComponentLogger(logger, "linker")}
}

// Link indexes q.Root if needed and returns the descriptors of every bucket
// overlapping the queried range. An empty result means nothing matched; an
// error is returned only for an unusable query.
func (l *Linker) Link(ctx context.Context, q Query) ([]Descriptor, error) {
	logger := logging.WithContext(ctx, l.logger)
	if q.ClipName != "" {
		logger = logger.With(logging.String(logging.FieldClip, q.ClipName))
	}

	if err := l.cache.Index(q.Root, false); err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}
	filter, err := NewFilter(q.Pattern, q.Ext, q.Basename)
	if err != nil {
		return nil, err
	}
	rate := q.Rate
	if rate <= 0 {
		rate = q.Start.Rate
	}
	criteria, err := OverlapCriteria(filter, q.Start, q.Duration, rate)
	if err != nil {
		return nil, err
	}

	clipName := norm.NFC.String(q.ClipName)
	var (
		results []Descriptor
		checked int
	)
	for _, b := range l.cache.Buckets(q.Root) {
		if clipName != "" && !strings.Contains(norm.NFC.String(b.Files[0]), clipName) {
			continue
		}
		checked++
		if !l.cache.Matches(ctx, b, criteria) {
			continue
		}
		desc, err := Build(b, rate)
		if err != nil {
			if errors.Is(err, ErrNoFrameNumber) {
				logger.Debug("matched bucket has no frame number",
					logging.String(logging.FieldDir, b.Dir),
					logging.String(logging.FieldIdentifier, b.Identifier),
				)
				continue
			}
			logging.WarnWithContext(logger, "could not describe matched sequence", "describe_failed",
				logging.String(logging.FieldDir, b.Dir),
				logging.String(logging.FieldIdentifier, b.Identifier),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the sequence's embedded timecode and frame rate"),
				logging.String(logging.FieldImpact, "sequence skipped"),
			)
			continue
		}
		results = append(results, desc)
		if q.Selection == SelectFirst {
			break
		}
	}

	logger.Info("link complete",
		logging.String(logging.FieldRoot, q.Root),
		logging.String("range", q.Range().String()),
		logging.Int("checked", checked),
		logging.Int("candidates", len(results)),
	)
	return results, nil
}
