package config

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// replaceSection returns the default settings with one top-level section swapped out.
func replaceSection(t *testing.T, key string, value any) []byte {
	t.Helper()

	doc := map[string]any{}
	require.NoError(t, yaml.Unmarshal(defaultMatchingYAML, &doc))
	doc[key] = value

	out, err := yaml.Marshal(doc)
	require.NoError(t, err)
	return out
}
