package ordering

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	name     string
	meta     map[string]any
	created  int64
	modified int64
	folder   bool
}

func (i item) DerivedName() string  { return i.name }
func (i item) Filename() string     { return i.name + ".md" }
func (i item) Meta() map[string]any { return i.meta }
func (i item) Timestamps() (int64, int64, bool) {
	return i.created, i.modified, !i.folder
}

func names(items []item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.name
	}
	return out
}

func TestSortOrderThenTitle(t *testing.T) {
	items := []item{
		{name: "A", meta: map[string]any{"order": 2}},
		{name: "B", meta: map[string]any{"order": 1}},
		{name: "C"},
	}
	cfg := Config{
		{Field: "order", Direction: Asc, Compare: Numeric},
		{Field: FieldTitle, Direction: Asc, Compare: Lexicographic},
	}

	Sort(items, cfg)
	assert.Equal(t, []string{"B", "A", "C"}, names(items))
}

func TestMissingValuesSortLastInBothDirections(t *testing.T) {
	for _, dir := range []Direction{Asc, Desc} {
		t.Run(string(dir), func(t *testing.T) {
			items := []item{
				{name: "none1"},
				{name: "low", meta: map[string]any{"order": 1}},
				{name: "none2", meta: map[string]any{"other": "x"}},
				{name: "high", meta: map[string]any{"order": 9}},
			}
			Sort(items, Config{{Field: "order", Direction: dir, Compare: Numeric}})

			got := names(items)
			if dir == Asc {
				assert.Equal(t, []string{"low", "high", "none1", "none2"}, got)
			} else {
				assert.Equal(t, []string{"high", "low", "none1", "none2"}, got)
			}
		})
	}
}

func TestSortStableAndIdempotent(t *testing.T) {
	items := []item{
		{name: "x", meta: map[string]any{"group": "b"}},
		{name: "y", meta: map[string]any{"group": "a"}},
		{name: "z", meta: map[string]any{"group": "b"}},
		{name: "w", meta: map[string]any{"group": "a"}},
	}
	cfg := Config{{Field: "group"}}

	once := Sorted(items, cfg)
	assert.Equal(t, []string{"y", "w", "x", "z"}, names(once))

	twice := Sorted(once, cfg)
	assert.Equal(t, names(once), names(twice))
}

func TestResolveField(t *testing.T) {
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	file := item{
		name:     "getting-started",
		created:  100,
		modified: 200,
		meta: map[string]any{
			"pinned": true,
			"draft":  false,
			"weight": 1.5,
			"tags":   []any{"go", "docs"},
			"date":   ts,
			"nested": map[string]any{"a": 1},
		},
	}
	folder := item{name: "guide", folder: true}

	tests := []struct {
		entity Entity
		field  string
		want   string
		ok     bool
	}{
		{file, FieldTitle, "getting-started", true},
		{item{name: "x", meta: map[string]any{"title": "Intro"}}, FieldTitle, "Intro", true},
		{item{name: "x", meta: map[string]any{"title": "  "}}, FieldTitle, "x", true},
		{file, FieldFilename, "getting-started.md", true},
		{file, FieldCreated, "100", true},
		{file, FieldModified, "200", true},
		{folder, FieldCreated, "", false},
		{folder, FieldModified, "", false},
		{file, "pinned", "1", true},
		{file, "draft", "0", true},
		{file, "weight", "1.5", true},
		{file, "tags", "go,docs", true},
		{file, "date", "2024-03-01T00:00:00Z", true},
		{file, "nested", "", false},
		{file, "absent", "", false},
		{folder, "absent", "", false},
	}
	for _, tt := range tests {
		got, ok := ResolveField(tt.entity, tt.field)
		assert.Equal(t, tt.ok, ok, "field %q presence", tt.field)
		assert.Equal(t, tt.want, got, "field %q value", tt.field)
	}
}

func TestCompareNumericParseFailureIsZero(t *testing.T) {
	a := item{name: "a", meta: map[string]any{"order": "abc"}}
	b := item{name: "b", meta: map[string]any{"order": 0}}
	assert.Equal(t, 0, Compare(a, b, FieldSpec{Field: "order", Direction: Asc, Compare: Numeric}))

	c := item{name: "c", meta: map[string]any{"order": -1}}
	assert.Equal(t, 1, Compare(a, c, FieldSpec{Field: "order", Direction: Asc, Compare: Numeric}))
}

func TestCompareLexicographicIgnoresCase(t *testing.T) {
	a := item{name: "apple"}
	b := item{name: "Banana"}
	spec := FieldSpec{Field: FieldTitle, Direction: Asc, Compare: Lexicographic}
	assert.Equal(t, -1, Compare(a, b, spec))
	assert.Equal(t, 0, Compare(item{name: "Same"}, item{name: "same"}, spec))

	spec.Direction = Desc
	assert.Equal(t, 1, Compare(a, b, spec))
}

func TestPinnedFirstWithBooleans(t *testing.T) {
	items := []item{
		{name: "b"},
		{name: "a", meta: map[string]any{"pinned": false}},
		{name: "c", meta: map[string]any{"pinned": true}},
	}
	Sort(items, Config{
		{Field: "pinned", Direction: Desc, Compare: Numeric},
		{Field: FieldTitle},
	})
	assert.Equal(t, []string{"c", "a", "b"}, names(items))
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig("order:asc:num, title")
	require.NoError(t, err)
	assert.Equal(t, Config{
		{Field: "order", Direction: Asc, Compare: Numeric},
		{Field: FieldTitle, Direction: Asc, Compare: Lexicographic},
	}, cfg)

	cfg, err = ParseConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = ParseConfig("order:sideways")
	assert.Error(t, err)
	_, err = ParseConfig("order:asc:fuzzy")
	assert.Error(t, err)
	_, err = ParseConfig(":asc")
	assert.Error(t, err)
}

func TestNormalized(t *testing.T) {
	assert.Equal(t, DefaultConfig(), Config(nil).Normalized())
	got := Config{{Field: "order", Direction: "DESC"}}.Normalized()
	assert.Equal(t, Config{{Field: "order", Direction: Desc, Compare: Lexicographic}}, got)
}
