package duplicates

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/iris/config"
	"github.com/Ramsey-B/iris/pkg/models"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

const castingText = "Ищем актрису 25-30 лет на главную роль в полнометражный фильм, съёмки в Москве"

type fakeHistory struct {
	requests  []models.CastingRequest
	lastSince time.Time
	lastScope string
	calls     int
	err       error
}

func (f *fakeHistory) ListSince(_ context.Context, since time.Time, authorID string) ([]models.CastingRequest, error) {
	f.calls++
	f.lastSince = since
	f.lastScope = authorID
	if f.err != nil {
		return nil, f.err
	}
	var out []models.CastingRequest
	for _, r := range f.requests {
		if r.CreatedAt.Before(since) {
			continue
		}
		if authorID != "" && r.AuthorID != authorID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func baseConfig() config.DuplicateDetectionConfig {
	return config.DuplicateDetectionConfig{
		SimilarityThreshold: 0.8,
		TimeWindowDays:      1,
		ComparisonMethod:    config.ComparisonHybrid,
		NormalizeCase:       true,
		NormalizeWhitespace: true,
		RemovePunctuation:   true,
		MinTextLength:       10,
		ScopePerAuthor:      true,
	}
}

func newDetector(cfg config.DuplicateDetectionConfig, history History) *Detector {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewDetector(logger, cfg, history, WithClock(func() time.Time { return now }))
}

func TestDetector_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(cfg *config.DuplicateDetectionConfig)
		input    string
		expected string
	}{
		{
			name:     "full pipeline",
			input:    "  Ищем  АКТРИСУ!!  Съёмки,   Москва. ",
			expected: "ищем актрису съёмки москва",
		},
		{
			name: "case kept",
			mutate: func(cfg *config.DuplicateDetectionConfig) {
				cfg.NormalizeCase = false
			},
			input:    "Ищем Актрису",
			expected: "Ищем Актрису",
		},
		{
			name: "punctuation kept",
			mutate: func(cfg *config.DuplicateDetectionConfig) {
				cfg.RemovePunctuation = false
			},
			input:    "Ищем, актрису!",
			expected: "ищем, актрису!",
		},
		{
			name: "exclude pattern stripped case-insensitively",
			mutate: func(cfg *config.DuplicateDetectionConfig) {
				cfg.ExcludePatterns = []string{"#кастинг", `(?m)^подробности в лс.*$`}
			},
			input:    "#КАСТИНГ Ищем актрису\nПодробности в ЛС @agent",
			expected: "ищем актрису",
		},
		{
			name: "invalid regex used literally",
			mutate: func(cfg *config.DuplicateDetectionConfig) {
				cfg.ExcludePatterns = []string{"[агентство"}
			},
			input:    "Ищем актрису [Агентство",
			expected: "ищем актрису",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			assert.Equal(t, tt.expected, newDetector(cfg, &fakeHistory{}).Normalize(tt.input))
		})
	}
}

func TestDetector_CalculateSimilarity(t *testing.T) {
	texts := []string{
		castingText,
		"ищем актрису 25-30 лет на главную роль в полнометражный фильм съемки в Москве",
		"Требуется мужчина 40+ для рекламы банка",
		"Массовка на завтра, оплата 2000",
	}

	for _, method := range []config.ComparisonMethod{config.ComparisonExact, config.ComparisonFuzzy, config.ComparisonHybrid} {
		cfg := baseConfig()
		cfg.ComparisonMethod = method
		d := newDetector(cfg, &fakeHistory{})

		t.Run(string(method)+" reflexive", func(t *testing.T) {
			for _, text := range texts {
				assert.Equal(t, 1.0, d.CalculateSimilarity(text, text))
			}
		})

		t.Run(string(method)+" symmetric and bounded", func(t *testing.T) {
			for _, a := range texts {
				for _, b := range texts {
					ab := d.CalculateSimilarity(a, b)
					assert.Equal(t, ab, d.CalculateSimilarity(b, a))
					assert.GreaterOrEqual(t, ab, 0.0)
					assert.LessOrEqual(t, ab, 1.0)
				}
			}
		})
	}

	t.Run("exact ignores near matches", func(t *testing.T) {
		cfg := baseConfig()
		cfg.ComparisonMethod = config.ComparisonExact
		d := newDetector(cfg, &fakeHistory{})
		assert.Equal(t, 0.0, d.CalculateSimilarity(texts[0], texts[1]))
	})

	t.Run("fuzzy rates near matches high", func(t *testing.T) {
		cfg := baseConfig()
		cfg.ComparisonMethod = config.ComparisonFuzzy
		d := newDetector(cfg, &fakeHistory{})
		assert.Greater(t, d.CalculateSimilarity(texts[0], texts[1]), 0.9)
	})

	t.Run("hybrid is the larger of exact and fuzzy", func(t *testing.T) {
		pairs := [][2]string{
			{"съёмки в Москве ищем актрису", "ищем актрису съёмки в Москве"},
			{texts[0], texts[1]},
			{castingText, castingText + "!"},
			{castingText, "Массовка на завтра, оплата 2000"},
		}
		modes := map[config.ComparisonMethod]*Detector{}
		for _, method := range []config.ComparisonMethod{config.ComparisonExact, config.ComparisonFuzzy, config.ComparisonHybrid} {
			cfg := baseConfig()
			cfg.ComparisonMethod = method
			modes[method] = newDetector(cfg, &fakeHistory{})
		}
		for _, p := range pairs {
			exact := modes[config.ComparisonExact].CalculateSimilarity(p[0], p[1])
			fuzzy := modes[config.ComparisonFuzzy].CalculateSimilarity(p[0], p[1])
			hybrid := modes[config.ComparisonHybrid].CalculateSimilarity(p[0], p[1])
			assert.InDelta(t, max(exact, fuzzy), hybrid, 1e-9, "%q vs %q", p[0], p[1])
		}
	})

	t.Run("hybrid does not flag reordered words", func(t *testing.T) {
		d := newDetector(baseConfig(), &fakeHistory{})
		assert.Less(t, d.CalculateSimilarity("съёмки в Москве ищем актрису", "ищем актрису съёмки в Москве"), 0.5)
	})

	t.Run("short text never comparable", func(t *testing.T) {
		d := newDetector(baseConfig(), &fakeHistory{})
		assert.Equal(t, 0.0, d.CalculateSimilarity("привет", "привет"))
		assert.Equal(t, 0.0, d.CalculateSimilarity("", ""))
	})
}

func TestDetector_Compare(t *testing.T) {
	d := newDetector(baseConfig(), &fakeHistory{})
	refs := []models.CastingRequest{
		{ID: 1, Text: "Массовка на завтра, оплата 2000"},
		{ID: 2, Text: castingText},
		{ID: 3, Text: castingText},
	}

	t.Run("any match reports the first hit", func(t *testing.T) {
		verdict := d.Compare(castingText+"!", refs)
		assert.True(t, verdict.IsDuplicate)
		assert.True(t, verdict.Comparable)
		require.NotNil(t, verdict.MatchedRequestID)
		assert.Equal(t, int64(2), *verdict.MatchedRequestID)
		assert.Equal(t, 1.0, verdict.Similarity)
	})

	t.Run("no match keeps best similarity", func(t *testing.T) {
		verdict := d.Compare("Требуется мужчина 40+ для рекламы банка", refs)
		assert.False(t, verdict.IsDuplicate)
		assert.True(t, verdict.Comparable)
		assert.Nil(t, verdict.MatchedRequestID)
		assert.Less(t, verdict.Similarity, 0.8)
	})

	t.Run("threshold is inclusive", func(t *testing.T) {
		cfg := baseConfig()
		cfg.SimilarityThreshold = 1.0
		exact := newDetector(cfg, &fakeHistory{})
		assert.True(t, exact.Compare(castingText, refs).IsDuplicate)
	})

	t.Run("short text", func(t *testing.T) {
		verdict := d.Compare("ок", refs)
		assert.Equal(t, models.DuplicateVerdict{}, verdict)
	})
}

func TestDetector_IsDuplicate(t *testing.T) {
	t.Run("identical text outside the window is not a duplicate", func(t *testing.T) {
		history := &fakeHistory{requests: []models.CastingRequest{
			{ID: 1, Text: castingText, AuthorID: "u1", CreatedAt: now.AddDate(0, 0, -2)},
		}}
		d := newDetector(baseConfig(), history)

		verdict, err := d.IsDuplicate(context.Background(), castingText, "u1")
		require.NoError(t, err)
		assert.False(t, verdict.IsDuplicate)
		assert.True(t, verdict.Comparable)
		assert.Equal(t, now.AddDate(0, 0, -1), history.lastSince)
	})

	t.Run("window start is inclusive", func(t *testing.T) {
		history := &fakeHistory{requests: []models.CastingRequest{
			{ID: 5, Text: castingText, AuthorID: "u1", CreatedAt: now.AddDate(0, 0, -1)},
		}}
		d := newDetector(baseConfig(), history)

		verdict, err := d.IsDuplicate(context.Background(), castingText, "u1")
		require.NoError(t, err)
		assert.True(t, verdict.IsDuplicate)
		assert.Equal(t, int64(5), *verdict.MatchedRequestID)
	})

	t.Run("future rows ignored", func(t *testing.T) {
		history := &fakeHistory{requests: []models.CastingRequest{
			{ID: 6, Text: castingText, AuthorID: "u1", CreatedAt: now.Add(time.Minute)},
		}}
		d := newDetector(baseConfig(), history)

		verdict, err := d.IsDuplicate(context.Background(), castingText, "u1")
		require.NoError(t, err)
		assert.False(t, verdict.IsDuplicate)
	})

	t.Run("scoped per author", func(t *testing.T) {
		history := &fakeHistory{requests: []models.CastingRequest{
			{ID: 1, Text: castingText, AuthorID: "u2", CreatedAt: now.Add(-time.Hour)},
		}}
		d := newDetector(baseConfig(), history)

		verdict, err := d.IsDuplicate(context.Background(), castingText, "u1")
		require.NoError(t, err)
		assert.False(t, verdict.IsDuplicate)
		assert.Equal(t, "u1", history.lastScope)
	})

	t.Run("global scope", func(t *testing.T) {
		history := &fakeHistory{requests: []models.CastingRequest{
			{ID: 1, Text: castingText, AuthorID: "u2", CreatedAt: now.Add(-time.Hour)},
		}}
		cfg := baseConfig()
		cfg.ScopePerAuthor = false
		d := newDetector(cfg, history)

		verdict, err := d.IsDuplicate(context.Background(), castingText, "u1")
		require.NoError(t, err)
		assert.True(t, verdict.IsDuplicate)
		assert.Equal(t, "", history.lastScope)
	})

	t.Run("short text skips history", func(t *testing.T) {
		history := &fakeHistory{}
		d := newDetector(baseConfig(), history)

		verdict, err := d.IsDuplicate(context.Background(), "  ок  ", "u1")
		require.NoError(t, err)
		assert.False(t, verdict.IsDuplicate)
		assert.False(t, verdict.Comparable)
		assert.Equal(t, 0, history.calls)
	})

	t.Run("history failure", func(t *testing.T) {
		history := &fakeHistory{err: errors.New("db down")}
		d := newDetector(baseConfig(), history)

		_, err := d.IsDuplicate(context.Background(), castingText, "u1")
		assert.ErrorIs(t, err, history.err)
	})
}

func TestDetector_Presets(t *testing.T) {
	presets, err := config.Presets()
	require.NoError(t, err)

	shouted := "  " + strings.ToUpper(castingText) + "!!! "
	for name, preset := range presets {
		t.Run(name, func(t *testing.T) {
			d := newDetector(preset, &fakeHistory{})
			verdict := d.Compare(shouted, []models.CastingRequest{{ID: 1, Text: castingText}})
			assert.True(t, verdict.IsDuplicate, "similarity %v", verdict.Similarity)
		})
	}

	t.Run("strict rejects what loose accepts", func(t *testing.T) {
		edited := castingText + " Пишите в ЛС."
		refs := []models.CastingRequest{{ID: 1, Text: castingText}}
		assert.False(t, newDetector(presets["strict"], &fakeHistory{}).Compare(edited, refs).IsDuplicate)
		assert.True(t, newDetector(presets["loose"], &fakeHistory{}).Compare(edited, refs).IsDuplicate)
	})
}
