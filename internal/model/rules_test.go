package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRules_EmptyPathReturnsDefaults(t *testing.T) {
	rules, err := LoadRules("")
	require.NoError(t, err)

	require.Len(t, rules.Products, 2)
	assert.Equal(t, "compass", rules.Products[0].Key)
	assert.Equal(t, "upcurve", rules.Products[1].Key)
	assert.True(t, rules.Products[1].RequiresNonprofit)
	assert.Equal(t, 1.2, rules.Products[0].NonprofitMultiplier)
	assert.NotEmpty(t, rules.OrgTypes)
}

func TestLoadRules_FromFile(t *testing.T) {
	yml := `
products:
  - key: atlas
    name: Atlas
    target_keywords: [logistics, freight]
    min_score: 1.0
    qualified_threshold: 5.0
    high_priority_threshold: 7.5
`
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	rules, err := LoadRules(path)
	require.NoError(t, err)

	require.Len(t, rules.Products, 1)
	assert.Equal(t, "atlas", rules.Products[0].Key)
	assert.Equal(t, []string{"logistics", "freight"}, rules.Products[0].TargetKeywords)
	// Zero max score fills in the default ceiling.
	assert.Equal(t, 10.0, rules.Products[0].MaxScore)
	// A file without org_types inherits the default category table.
	assert.NotEmpty(t, rules.OrgTypes)
}

func TestLoadRules_ProductWithoutKey(t *testing.T) {
	yml := `
products:
  - name: Nameless
`
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	_, err := LoadRules(path)
	assert.Error(t, err)
}

func TestLoadRules_MissingFile(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRules_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("products: {bad"), 0o644))

	_, err := LoadRules(path)
	assert.Error(t, err)
}

func TestRules_Product(t *testing.T) {
	rules := DefaultRules()

	assert.NotNil(t, rules.Product("compass"))
	assert.Equal(t, "upcurve", rules.Product("upcurve").Key)
	assert.Nil(t, rules.Product("missing"))
}
