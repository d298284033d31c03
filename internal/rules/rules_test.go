package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRules = `[
  {"id": 1, "name_local": "초보자 보상 문의", "name_en": "Beginner Reward", "description": "tutorial reward", "handling_summary": "check the mailbox log"},
  {"id": 6, "name_local": "청구 문의", "name_en": "Billing", "description": "invoice questions", "handling_summary": "compare billing history with the store record"}
]`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "category_rules.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleRules), 0o644))

	rs, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, rs.Len())

	summary, ok := rs.HandlingSummary(6)
	require.True(t, ok)
	assert.Equal(t, "compare billing history with the store record", summary)

	rule, ok := rs.Get(1)
	require.True(t, ok)
	assert.Equal(t, "Beginner Reward", rule.NameEn)

	_, ok = rs.HandlingSummary(42)
	assert.False(t, ok)
}

func TestLoadMissingFileIsNonFatal(t *testing.T) {
	rs, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, rs.Len())

	_, ok := rs.HandlingSummary(1)
	assert.False(t, ok)
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestAllIsOrderedByID(t *testing.T) {
	rs := New([]CategoryRule{
		{ID: 99, NameEn: "Unclassifiable"},
		{ID: 2, NameEn: "Account"},
		{ID: 6, NameEn: "Billing"},
	})

	all := rs.All()
	require.Len(t, all, 3)
	assert.Equal(t, 2, all[0].ID)
	assert.Equal(t, 6, all[1].ID)
	assert.Equal(t, 99, all[2].ID)
}
