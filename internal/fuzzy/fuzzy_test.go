package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreTiers(t *testing.T) {
	tests := []struct {
		candidate, query string
		want             int
	}{
		{"Getting Started", "getting", TierPrefix},
		{"Getting Started", "GET", TierPrefix},
		{"Getting Started", "started", TierWordBoundary},
		{"Setup (advanced)", "adv", TierWordBoundary},
		{"Installation", "stall", TierSubstring},
		{"Getting Started", "xyz", 0},
		{"Getting Started", "", 0},
		{"", "a", 0},
	}
	for _, tt := range tests {
		t.Run(tt.candidate+"/"+tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.candidate, tt.query))
		})
	}
}

func TestScoreSubsequence(t *testing.T) {
	gs := Score("Getting Started", "gs")
	assert.Greater(t, gs, 0)
	assert.Less(t, gs, TierSubstring)

	assert.Zero(t, Score("Getting Started", "sg"), "order matters")
	assert.Greater(t, Score("foo bar", "fb"), Score("foxbar", "fb"),
		"word boundary starts score higher")
	assert.Greater(t, Score("abcdef", "abd"), Score("xxxxxxxxxxxxabcdef", "abd"),
		"earlier matches score higher")
}

func TestScoreSubsequenceCapped(t *testing.T) {
	long := "a b c d e f g h i j k l m n o p q r s t u v w x y z a b c d e f g h i j k l m n o p q r s t u v w x y z"
	q := "abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyz"
	assert.Equal(t, TierSubstring-1, Score(long, q))
}

func TestRankStableOnTies(t *testing.T) {
	items := []Item{
		{Text: "Configure logging"},
		{Text: "Config"},
		{Text: "Other"},
		{Text: "Configure output"},
	}
	got := Rank(items, "conf")
	require.Len(t, got, 3)
	assert.Equal(t, "Configure logging", got[0].Text)
	assert.Equal(t, "Config", got[1].Text)
	assert.Equal(t, "Configure output", got[2].Text)
}

func TestFilterEmptyQueryUsesVisibility(t *testing.T) {
	items := []Item{
		{Text: "a", Top: 5},
		{Text: "b", Top: 120},
		{Text: "c", Top: 60},
		{Text: "d", Top: 1},
		{Text: "e", Top: 55},
	}
	got := Filter(items, "  ", Viewport{Top: 50, Bottom: 100})
	var texts []string
	for _, m := range got {
		texts = append(texts, m.Text)
	}
	assert.Equal(t, []string{"e", "c", "a", "b", "d"}, texts)
}

func TestOutline(t *testing.T) {
	src := []byte(`# Getting Started

Read the [install guide](/install/) first.

## Configure the *server*

See <https://example.com> and
[the reference](ref.md).
`)
	items := Outline(src)
	require.Len(t, items, 5)

	assert.Equal(t, Item{Kind: KindHeading, Text: "Getting Started", Target: "#getting-started", Level: 1, Top: 1}, items[0])
	assert.Equal(t, Item{Kind: KindLink, Text: "install guide", Target: "/install/", Top: 3}, items[1])
	assert.Equal(t, KindHeading, items[2].Kind)
	assert.Equal(t, "Configure the server", items[2].Text)
	assert.Equal(t, 2, items[2].Level)
	assert.Equal(t, "https://example.com", items[3].Target)
	assert.Equal(t, Item{Kind: KindLink, Text: "the reference", Target: "ref.md", Top: 8}, items[4])

	ranked := Rank(items, "conf")
	require.NotEmpty(t, ranked)
	assert.Equal(t, "Configure the server", ranked[0].Text)
}
