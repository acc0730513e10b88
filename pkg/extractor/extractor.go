// Package extractor pulls catalog fields out of the LLM analysis document with
// configured JMESPath expressions.
package extractor

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Gobusters/ectolinq"
	"github.com/jmespath/go-jmespath"

	"github.com/Ramsey-B/iris/config"
	"github.com/Ramsey-B/iris/pkg/models"
)

// Extractor holds the compiled expressions. It is safe for concurrent use.
type Extractor struct {
	fields  map[models.Category]map[string]*jmespath.JMESPath
	persons *jmespath.JMESPath
	person  map[string]*jmespath.JMESPath
}

// New compiles every expression of cfg
func New(cfg config.ExtractionConfig) (*Extractor, error) {
	company, err := compileAll(cfg.Company)
	if err != nil {
		return nil, fmt.Errorf("extraction.company: %w", err)
	}
	project, err := compileAll(cfg.Project)
	if err != nil {
		return nil, fmt.Errorf("extraction.project: %w", err)
	}
	person, err := compileAll(cfg.Person)
	if err != nil {
		return nil, fmt.Errorf("extraction.person: %w", err)
	}

	e := &Extractor{
		fields: map[models.Category]map[string]*jmespath.JMESPath{
			models.CategoryCompany: company,
			models.CategoryProject: project,
		},
		person: person,
	}
	if cfg.Persons != "" {
		e.persons, err = jmespath.Compile(cfg.Persons)
		if err != nil {
			return nil, fmt.Errorf("extraction.persons: %w", err)
		}
	}
	return e, nil
}

func compileAll(exprs map[string]string) (map[string]*jmespath.JMESPath, error) {
	out := make(map[string]*jmespath.JMESPath, len(exprs))
	for field, expr := range exprs {
		compiled, err := jmespath.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		out[field] = compiled
	}
	return out, nil
}

// FromJSON decodes an analysis document into the generic form JMESPath searches
func FromJSON(data json.RawMessage) (any, error) {
	if len(data) == 0 {
		return map[string]any{}, nil
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Fields evaluates the expressions of category against doc. Fields that resolve to
// nothing or to blank text are left out.
func (e *Extractor) Fields(category models.Category, doc any) map[string]string {
	return search(e.fields[category], doc)
}

// Persons returns one consolidation request per named contact person in doc.
func (e *Extractor) Persons(doc any) []models.ConsolidateContactsRequest {
	if e.persons == nil {
		return nil
	}
	result, err := e.persons.Search(doc)
	if err != nil || result == nil {
		return nil
	}

	items, ok := result.([]any)
	if !ok {
		items = []any{result}
	}

	requests := make([]models.ConsolidateContactsRequest, 0, len(items))
	for _, item := range items {
		fields := search(e.person, item)
		if fields["name"] == "" {
			continue
		}
		req := models.ConsolidateContactsRequest{
			PersonName: fields["name"],
			Phone:      fields["phone"],
			Email:      fields["email"],
			Telegram:   fields["telegram"],
		}
		if pt := models.PersonType(fields["person_type"]); ectolinq.Contains(models.PersonTypes, pt) {
			req.PersonType = pt
		}
		requests = append(requests, req)
	}
	return requests
}

func search(exprs map[string]*jmespath.JMESPath, doc any) map[string]string {
	out := make(map[string]string, len(exprs))
	if doc == nil {
		return out
	}

	names := make([]string, 0, len(exprs))
	for name := range exprs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value, err := exprs[name].Search(doc)
		if err != nil {
			continue
		}
		if s := strings.TrimSpace(toString(value)); s != "" {
			out[name] = s
		}
	}
	return out
}

// toString coerces a search result to text. Lists yield their first non-blank element.
func toString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		for _, item := range val {
			if s := strings.TrimSpace(toString(item)); s != "" {
				return s
			}
		}
		return ""
	case map[string]any:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}
