// Package duplicates detects reposted casting requests by comparing normalized text
// against recent request history.
package duplicates

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/iris/config"
	"github.com/Ramsey-B/iris/pkg/matching"
	"github.com/Ramsey-B/iris/pkg/metrics"
	"github.com/Ramsey-B/iris/pkg/models"
	"github.com/Ramsey-B/iris/pkg/normalizers"
	"github.com/Ramsey-B/iris/pkg/tracing"
)

// History lists prior requests created at or after since. An empty authorID means
// every author.
type History interface {
	ListSince(ctx context.Context, since time.Time, authorID string) ([]models.CastingRequest, error)
}

// Detector compares request texts using a fixed DuplicateDetectionConfig
type Detector struct {
	logger   ectologger.Logger
	config   config.DuplicateDetectionConfig
	history  History
	excludes []*regexp.Regexp
	scorer   *matching.Scorer
	now      func() time.Time
}

type Option func(*Detector)

// WithClock replaces time.Now as the end of the history window.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) {
		d.now = now
	}
}

func NewDetector(logger ectologger.Logger, cfg config.DuplicateDetectionConfig, history History, opts ...Option) *Detector {
	d := &Detector{
		logger:   logger,
		config:   cfg,
		history:  history,
		excludes: cfg.ExcludeRegexps(),
		scorer:   matching.NewScorer(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Config returns the settings the detector was built with.
func (d *Detector) Config() config.DuplicateDetectionConfig {
	return d.config
}

// Normalize strips exclude patterns, then lowercases, collapses whitespace and removes
// punctuation as configured.
func (d *Detector) Normalize(text string) string {
	text = normalizers.Canonical(text)
	for _, re := range d.excludes {
		text = re.ReplaceAllString(text, " ")
	}
	if d.config.NormalizeCase {
		text = strings.ToLower(text)
	}
	if d.config.NormalizeWhitespace {
		text = normalizers.CollapseWhitespace(text)
	}
	if d.config.RemovePunctuation {
		text = normalizers.RemovePunctuation(text)
		if d.config.NormalizeWhitespace {
			text = normalizers.CollapseWhitespace(text)
		}
	}
	return strings.TrimSpace(text)
}

// Comparable reports whether a normalized text is long enough to be judged.
func (d *Detector) Comparable(normalized string) bool {
	return normalized != "" && utf8.RuneCountInString(normalized) >= d.config.MinTextLength
}

// CalculateSimilarity returns a score in [0,1]. Texts that are not comparable score 0.
func (d *Detector) CalculateSimilarity(a, b string) float64 {
	na, nb := d.Normalize(a), d.Normalize(b)
	if !d.Comparable(na) || !d.Comparable(nb) {
		return 0.0
	}
	return d.similarity(na, nb)
}

func (d *Detector) similarity(na, nb string) float64 {
	exact := 0.0
	if na == nb {
		exact = 1.0
	}
	switch d.config.ComparisonMethod {
	case config.ComparisonExact:
		return exact
	case config.ComparisonFuzzy:
		return d.scorer.Levenshtein(na, nb)
	default:
		return max(exact, d.scorer.Levenshtein(na, nb))
	}
}

// Compare checks text against references. Any reference at or above the threshold makes
// it a duplicate; the first such reference is reported.
func (d *Detector) Compare(text string, references []models.CastingRequest) models.DuplicateVerdict {
	normalized := d.Normalize(text)
	if !d.Comparable(normalized) {
		return models.DuplicateVerdict{}
	}

	verdict := models.DuplicateVerdict{Comparable: true}
	for _, ref := range references {
		other := d.Normalize(ref.Text)
		if !d.Comparable(other) {
			continue
		}
		sim := d.similarity(normalized, other)
		if sim >= d.config.SimilarityThreshold {
			id := ref.ID
			return models.DuplicateVerdict{
				IsDuplicate:      true,
				Comparable:       true,
				Similarity:       sim,
				MatchedRequestID: &id,
			}
		}
		verdict.Similarity = max(verdict.Similarity, sim)
	}
	return verdict
}

// IsDuplicate compares text against the requests of the last time_window_days, window
// ends included, limited to the same author when scope_per_author is set.
func (d *Detector) IsDuplicate(ctx context.Context, text, authorID string) (models.DuplicateVerdict, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicates.Detector.IsDuplicate")
	defer span.End()

	log := d.logger.WithContext(ctx).WithField("author_id", authorID)

	if !d.Comparable(d.Normalize(text)) {
		metrics.RecordDuplicateCheck("not_comparable")
		log.Debug("Request text too short to compare")
		return models.DuplicateVerdict{}, nil
	}

	now := d.now()
	since := now.AddDate(0, 0, -d.config.TimeWindowDays)
	scope := ""
	if d.config.ScopePerAuthor {
		scope = authorID
	}

	history, err := d.history.ListSince(ctx, since, scope)
	if err != nil {
		log.WithError(err).Error("Failed to load request history")
		return models.DuplicateVerdict{}, err
	}

	window := make([]models.CastingRequest, 0, len(history))
	for _, req := range history {
		if req.CreatedAt.Before(since) || req.CreatedAt.After(now) {
			continue
		}
		window = append(window, req)
	}

	verdict := d.Compare(text, window)
	if verdict.IsDuplicate {
		metrics.RecordDuplicateCheck("duplicate")
		log.WithFields(map[string]any{
			"matched_request_id": *verdict.MatchedRequestID,
			"similarity":         verdict.Similarity,
		}).Info("Duplicate request detected")
	} else {
		metrics.RecordDuplicateCheck("unique")
	}
	return verdict, nil
}
