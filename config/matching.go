package config

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/jmespath/go-jmespath"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Ramsey-B/iris/pkg/models"
)

//go:embed matching.yaml
var defaultMatchingYAML []byte

//go:embed presets.yaml
var presetsYAML []byte

type ComparisonMethod string

const (
	ComparisonExact  ComparisonMethod = "exact"
	ComparisonFuzzy  ComparisonMethod = "fuzzy"
	ComparisonHybrid ComparisonMethod = "hybrid"
)

// CategoryConfig is the field weight profile and per-subtype threshold table of one category
type CategoryConfig struct {
	NameField  string             `yaml:"name_field"`
	Weights    map[string]float64 `yaml:"weights"`
	Thresholds map[string]float64 `yaml:"thresholds"`
}

type ConfidenceConfig struct {
	High   float64 `yaml:"high"`
	Medium float64 `yaml:"medium"`
}

// Label maps an aggregate score onto a confidence band.
func (c ConfidenceConfig) Label(score float64) models.Confidence {
	switch {
	case score >= c.High:
		return models.ConfidenceHigh
	case score >= c.Medium:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

type DuplicateDetectionConfig struct {
	Preset              string           `yaml:"preset,omitempty" json:"preset,omitempty"`
	SimilarityThreshold float64          `yaml:"similarity_threshold" json:"similarity_threshold"`
	TimeWindowDays      int              `yaml:"time_window_days" json:"time_window_days"`
	ComparisonMethod    ComparisonMethod `yaml:"comparison_method" json:"comparison_method"`
	NormalizeCase       bool             `yaml:"normalize_case" json:"normalize_case"`
	NormalizeWhitespace bool             `yaml:"normalize_whitespace" json:"normalize_whitespace"`
	RemovePunctuation   bool             `yaml:"remove_punctuation" json:"remove_punctuation"`
	MinTextLength       int              `yaml:"min_text_length" json:"min_text_length"`
	ExcludePatterns     []string         `yaml:"exclude_patterns" json:"exclude_patterns"`
	ScopePerAuthor      bool             `yaml:"scope_per_author" json:"scope_per_author"`
}

type ContactsConfig struct {
	Capacity int `yaml:"capacity"`
}

// ExtractionConfig holds JMESPath expressions evaluated against the LLM analysis document
type ExtractionConfig struct {
	Company map[string]string `yaml:"company"`
	Project map[string]string `yaml:"project"`
	Persons string            `yaml:"persons"`
	Person  map[string]string `yaml:"person"`
}

// MatchingConfig is loaded once at startup and never mutated afterwards.
type MatchingConfig struct {
	Categories         map[models.Category]CategoryConfig `yaml:"categories"`
	Confidence         ConfidenceConfig                   `yaml:"confidence"`
	DefaultLimit       int                                `yaml:"default_limit"`
	DuplicateDetection DuplicateDetectionConfig           `yaml:"duplicate_detection"`
	Contacts           ContactsConfig                     `yaml:"contacts"`
	Extraction         ExtractionConfig                   `yaml:"extraction"`
}

// Category returns the settings of a category.
func (c *MatchingConfig) Category(category models.Category) (CategoryConfig, bool) {
	cc, ok := c.Categories[category]
	return cc, ok
}

// LoadMatchingConfig reads the settings file at path, or the embedded default when
// path is empty, and validates it.
func LoadMatchingConfig(path string) (*MatchingConfig, error) {
	data := defaultMatchingYAML
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read matching config %s", path)
		}
	}
	return ParseMatchingConfig(data)
}

// ParseMatchingConfig decodes settings YAML. The duplicate detection section starts from
// the named preset (balanced when none is named) and explicit keys override it.
func ParseMatchingConfig(data []byte) (*MatchingConfig, error) {
	var head struct {
		DuplicateDetection struct {
			Preset string `yaml:"preset"`
		} `yaml:"duplicate_detection"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, errors.Wrap(err, "failed to parse matching config")
	}

	presetName := head.DuplicateDetection.Preset
	if presetName == "" {
		presetName = "balanced"
	}
	preset, err := Preset(presetName)
	if err != nil {
		return nil, err
	}

	cfg := &MatchingConfig{DuplicateDetection: preset}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse matching config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid matching config")
	}
	return cfg, nil
}

// Presets returns the recommended duplicate detection settings keyed by name.
func Presets() (map[string]DuplicateDetectionConfig, error) {
	presets := map[string]DuplicateDetectionConfig{}
	if err := yaml.Unmarshal(presetsYAML, &presets); err != nil {
		return nil, errors.Wrap(err, "failed to parse presets")
	}
	return presets, nil
}

func Preset(name string) (DuplicateDetectionConfig, error) {
	presets, err := Presets()
	if err != nil {
		return DuplicateDetectionConfig{}, err
	}
	preset, ok := presets[name]
	if !ok {
		return DuplicateDetectionConfig{}, fmt.Errorf("unknown duplicate detection preset %q", name)
	}
	preset.Preset = name
	return preset, nil
}

// Validate rejects settings the engines cannot run with: a missing category, an empty
// weight profile, a subtype without a threshold, or values outside [0,1].
func (c *MatchingConfig) Validate() error {
	for _, category := range models.Categories {
		cc, ok := c.Categories[category]
		if !ok {
			return fmt.Errorf("category %s is not configured", category)
		}
		if err := cc.validate(category); err != nil {
			return err
		}
	}
	for category := range c.Categories {
		if _, ok := models.ParseCategory(string(category)); !ok {
			return fmt.Errorf("unknown category %q", category)
		}
	}

	if !inUnitRange(c.Confidence.High) || !inUnitRange(c.Confidence.Medium) {
		return fmt.Errorf("confidence bands must be within [0,1]")
	}
	if c.Confidence.Medium > c.Confidence.High {
		return fmt.Errorf("confidence.medium (%v) is above confidence.high (%v)", c.Confidence.Medium, c.Confidence.High)
	}
	if c.DefaultLimit <= 0 {
		return fmt.Errorf("default_limit must be positive")
	}
	if err := c.DuplicateDetection.Validate(); err != nil {
		return err
	}
	if c.Contacts.Capacity <= 0 {
		return fmt.Errorf("contacts.capacity must be positive")
	}
	return c.Extraction.validate()
}

func (cc CategoryConfig) validate(category models.Category) error {
	if len(cc.Weights) == 0 {
		return fmt.Errorf("category %s has no field weights", category)
	}
	positive := false
	for field, w := range cc.Weights {
		if !inUnitRange(w) {
			return fmt.Errorf("category %s weight %s=%v is outside [0,1]", category, field, w)
		}
		if w > 0 {
			positive = true
		}
	}
	if !positive {
		return fmt.Errorf("category %s has no positive field weight", category)
	}
	if cc.NameField == "" {
		return fmt.Errorf("category %s has no name_field", category)
	}
	if cc.Weights[cc.NameField] <= 0 {
		return fmt.Errorf("category %s name_field %s has no positive weight", category, cc.NameField)
	}

	subtypes := models.Subtypes(category)
	known := make(map[string]bool, len(subtypes))
	for _, subtype := range subtypes {
		known[subtype] = true
		threshold, ok := cc.Thresholds[subtype]
		if !ok {
			return fmt.Errorf("category %s has no threshold for subtype %s", category, subtype)
		}
		if !inUnitRange(threshold) {
			return fmt.Errorf("category %s threshold %s=%v is outside [0,1]", category, subtype, threshold)
		}
	}
	for subtype := range cc.Thresholds {
		if !known[subtype] {
			return fmt.Errorf("category %s has a threshold for unknown subtype %s", category, subtype)
		}
	}
	return nil
}

func (d DuplicateDetectionConfig) Validate() error {
	if !inUnitRange(d.SimilarityThreshold) {
		return fmt.Errorf("duplicate_detection.similarity_threshold must be within [0,1]")
	}
	if d.TimeWindowDays < 0 {
		return fmt.Errorf("duplicate_detection.time_window_days must not be negative")
	}
	if d.MinTextLength < 0 {
		return fmt.Errorf("duplicate_detection.min_text_length must not be negative")
	}
	switch d.ComparisonMethod {
	case ComparisonExact, ComparisonFuzzy, ComparisonHybrid:
	default:
		return fmt.Errorf("duplicate_detection.comparison_method %q is not one of exact, fuzzy, hybrid", d.ComparisonMethod)
	}
	return nil
}

func (e ExtractionConfig) validate() error {
	groups := map[string]map[string]string{
		"company": e.Company,
		"project": e.Project,
		"person":  e.Person,
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for field, expr := range groups[name] {
			if _, err := jmespath.Compile(expr); err != nil {
				return fmt.Errorf("extraction.%s.%s: %w", name, field, err)
			}
		}
	}
	if e.Persons != "" {
		if _, err := jmespath.Compile(e.Persons); err != nil {
			return fmt.Errorf("extraction.persons: %w", err)
		}
	}
	return nil
}

// ExcludeRegexps compiles exclude patterns. A pattern that is not a valid regular
// expression matches itself literally.
func (d DuplicateDetectionConfig) ExcludeRegexps() []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(d.ExcludePatterns))
	for _, pattern := range d.ExcludePatterns {
		if pattern == "" {
			continue
		}
		expr := pattern
		if _, err := regexp.Compile(expr); err != nil {
			expr = regexp.QuoteMeta(pattern)
		}
		if d.NormalizeCase {
			expr = "(?i)" + expr
		}
		out = append(out, regexp.MustCompile(expr))
	}
	return out
}

func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}
