// Package fuzzy ranks the headings and links of a single document against a
// short query typed by the reader.
package fuzzy

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tier scores. Subsequence matches always score below TierSubstring.
const (
	TierPrefix       = 1000
	TierWordBoundary = 800
	TierSubstring    = 600

	subsequenceCap = TierSubstring - 1
)

// Score rates how well candidate matches query. Zero means no match.
func Score(candidate, query string) int {
	q := []rune(strings.ToLower(strings.TrimSpace(query)))
	if len(q) == 0 {
		return 0
	}
	c := []rune(strings.ToLower(candidate))
	needle := string(q)
	hay := string(c)

	if strings.HasPrefix(hay, needle) {
		return TierPrefix
	}
	if idx := strings.Index(hay, needle); idx >= 0 {
		for i := idx; i >= 0; i = nextIndex(hay, needle, i) {
			if atWordStart(c, runeOffset(hay, i)) {
				return TierWordBoundary
			}
		}
		return TierSubstring
	}
	return subsequence(c, q)
}

func nextIndex(hay, needle string, from int) int {
	_, size := utf8.DecodeRuneInString(hay[from:])
	j := strings.Index(hay[from+size:], needle)
	if j < 0 {
		return -1
	}
	return from + size + j
}

func runeOffset(s string, byteIdx int) int {
	return len([]rune(s[:byteIdx]))
}

func atWordStart(c []rune, i int) bool {
	if i == 0 {
		return true
	}
	prev := c[i-1]
	return !unicode.IsLetter(prev) && !unicode.IsDigit(prev)
}

func subsequence(c, q []rune) int {
	score := 0
	ci := 0
	last := -2
	for _, qr := range q {
		for ci < len(c) && c[ci] != qr {
			ci++
		}
		if ci == len(c) {
			return 0
		}
		score++
		if bonus := 10 - ci; bonus > 0 {
			score += bonus
		}
		if ci == last+1 {
			score += 5
		}
		if atWordStart(c, ci) {
			score += 10
		}
		last = ci
		ci++
	}
	if score > subsequenceCap {
		score = subsequenceCap
	}
	return score
}

// Item is a navigable element of a rendered page.
type Item struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`

	// Target is a heading anchor ("#install") or a link destination.
	Target string `json:"target"`
	Level  int    `json:"level,omitempty"`

	// Top is the element's vertical position. Outline fills it with the source
	// line so a viewport can be expressed in lines.
	Top float64 `json:"top"`
}

// Kind distinguishes headings from links.
type Kind string

const (
	KindHeading Kind = "heading"
	KindLink    Kind = "link"
)

// Match is a scored item.
type Match struct {
	Item
	Score int `json:"score"`
}

// Rank keeps items with a positive score, best first. Equal scores keep their
// original order.
func Rank(items []Item, query string) []Match {
	var out []Match
	for _, it := range items {
		if s := Score(it.Text, query); s > 0 {
			out = append(out, Match{Item: it, Score: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Viewport is the visible vertical range [Top, Bottom).
type Viewport struct {
	Top    float64
	Bottom float64
}

// Contains reports whether y is on screen.
func (v Viewport) Contains(y float64) bool { return y >= v.Top && y < v.Bottom }

// OrderByVisibility puts on-screen items first, top to bottom, followed by
// the rest in their original order.
func OrderByVisibility(items []Item, vp Viewport) []Item {
	var visible, hidden []Item
	for _, it := range items {
		if vp.Contains(it.Top) {
			visible = append(visible, it)
		} else {
			hidden = append(hidden, it)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool { return visible[i].Top < visible[j].Top })
	return append(visible, hidden...)
}

// Filter ranks items against query, or orders them by visibility when the
// query is empty. Unranked results carry a zero score.
func Filter(items []Item, query string, vp Viewport) []Match {
	if strings.TrimSpace(query) != "" {
		return Rank(items, query)
	}
	ordered := OrderByVisibility(items, vp)
	out := make([]Match, len(ordered))
	for i, it := range ordered {
		out[i] = Match{Item: it}
	}
	return out
}
