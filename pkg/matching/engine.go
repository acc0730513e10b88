// Package matching implements catalog entity matching
package matching

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/iris/config"
	"github.com/Ramsey-B/iris/pkg/metrics"
	"github.com/Ramsey-B/iris/pkg/models"
	"github.com/Ramsey-B/iris/pkg/normalizers"
	"github.com/Ramsey-B/iris/pkg/tracing"
)

// Engine scores catalog records against query field values
type Engine struct {
	logger  ectologger.Logger
	catalog Catalog
	config  *config.MatchingConfig
	scorer  *Scorer
}

// SearchOptions narrows a search
type SearchOptions struct {
	Limit   int    // 0 uses the configured default
	Subtype string // restrict the scan to one subtype
}

// NewEngine creates a new match engine
func NewEngine(logger ectologger.Logger, catalog Catalog, cfg *config.MatchingConfig) *Engine {
	return &Engine{
		logger:  logger,
		catalog: catalog,
		config:  cfg,
		scorer:  NewScorer(),
	}
}

// SearchMatches ranks the active records of a category against the query fields.
// Query fields that are blank, unknown to the category or weighted zero are ignored.
func (e *Engine) SearchMatches(ctx context.Context, category models.Category, query map[string]string, opts SearchOptions) ([]models.MatchCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.SearchMatches")
	defer span.End()

	start := time.Now()
	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"category": category,
		"subtype":  opts.Subtype,
	})

	cc, ok := e.config.Category(category)
	if !ok {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown category %s", category)
	}

	fields := comparableFields(query, cc.Weights)
	if len(fields) == 0 {
		log.Debug("No comparable query fields")
		return []models.MatchCandidate{}, nil
	}

	records, err := e.catalog.ActiveRecords(ctx, category, opts.Subtype)
	if err != nil {
		log.WithError(err).Error("Failed to load catalog records")
		return nil, err
	}

	candidates := make([]models.MatchCandidate, 0)
	for _, record := range records {
		threshold, ok := cc.Thresholds[record.Subtype()]
		if !ok {
			log.WithFields(map[string]any{
				"record_id":      record.RecordID(),
				"record_subtype": record.Subtype(),
			}).Warn("Skipping record whose subtype has no threshold")
			metrics.RecordSkippedRecord(string(category), record.Subtype())
			continue
		}

		candidate, ok := e.score(record, fields, cc)
		if !ok || candidate.Score < threshold {
			continue
		}
		candidates = append(candidates, candidate)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ID < candidates[j].ID
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = e.config.DefaultLimit
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	for _, c := range candidates {
		metrics.RecordCandidate(string(category), string(c.Confidence))
	}
	metrics.RecordSearch(string(category), time.Since(start).Seconds())

	log.WithFields(map[string]any{
		"records_scanned": len(records),
		"candidates":      len(candidates),
	}).Debug("Search complete")

	return candidates, nil
}

// SearchByName matches on the category's configured name field only.
func (e *Engine) SearchByName(ctx context.Context, category models.Category, name string, limit int) ([]models.MatchCandidate, error) {
	cc, ok := e.config.Category(category)
	if !ok {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown category %s", category)
	}
	return e.SearchMatches(ctx, category, map[string]string{cc.NameField: name}, SearchOptions{Limit: limit})
}

// score compares a record against the query. It reports false when no query field is
// present on the record.
func (e *Engine) score(record Record, fields map[string]string, cc config.CategoryConfig) (models.MatchCandidate, bool) {
	fieldScores := make(map[string]float64, len(fields))
	matched := make([]string, 0, len(fields))

	for field, queryValue := range fields {
		values := fieldValues(record, field)
		compared := false
		best := 0.0
		for _, v := range values {
			v = prepare(field, v)
			if normalizers.ForMatching(v) == "" {
				continue
			}
			compared = true
			best = max(best, e.scorer.FieldSimilarity(queryValue, v))
		}
		if !compared {
			continue
		}
		fieldScores[field] = best
		if best > 0 {
			matched = append(matched, field)
		}
	}

	if len(fieldScores) == 0 {
		return models.MatchCandidate{}, false
	}
	sort.Strings(matched)

	score := e.scorer.WeightedScore(fieldScores, cc.Weights)
	return models.MatchCandidate{
		ID:            record.RecordID(),
		Category:      record.Category(),
		Fields:        echoFields(record, cc.Weights),
		Attributes:    record.Attributes(),
		FieldScores:   fieldScores,
		Score:         score,
		Confidence:    e.config.Confidence.Label(score),
		MatchedFields: matched,
	}, true
}

func comparableFields(query map[string]string, weights map[string]float64) map[string]string {
	fields := make(map[string]string, len(query))
	for field, value := range query {
		if weights[field] <= 0 {
			continue
		}
		value = prepare(field, value)
		if normalizers.ForMatching(value) == "" {
			continue
		}
		fields[field] = value
	}
	return fields
}

// contact-like fields are compared in their canonical form so "+7 (916)" and "8-916"
// line up digit by digit
var fieldNormalizers = map[string]string{
	"phone":    "nphone",
	"email":    "nemail",
	"telegram": "ntelegram",
	"website":  "nwebsite",
}

func prepare(field, value string) string {
	if name, ok := fieldNormalizers[field]; ok {
		return normalizers.Apply(value, name)
	}
	return value
}

func echoFields(record Record, weights map[string]float64) map[string]string {
	out := make(map[string]string, len(weights))
	for field := range weights {
		if v, ok := record.Field(field); ok {
			out[field] = v
		}
	}
	return out
}
