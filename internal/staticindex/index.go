package staticindex

import (
	"fmt"
	"html"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring"
)

// Options tunes relevance. Longer documents are divided down by
// Length^LengthWeight and every query term found in the title adds
// TitleBoost.
type Options struct {
	LengthWeight float64 `koanf:"length_weight" yaml:"length_weight"`
	TitleBoost   float64 `koanf:"title_boost" yaml:"title_boost"`
}

// DefaultOptions favors short documents and title matches.
func DefaultOptions() Options {
	return Options{LengthWeight: 0.5, TitleBoost: 2}
}

// Index answers queries against a decoded artifact.
type Index struct {
	art *Artifact

	once    sync.Once
	initErr error
	terms   map[string]*roaring.Bitmap
	titles  map[string]*roaring.Bitmap
	sorted  []string

	mu   sync.RWMutex
	opts Options
}

// New wraps an artifact. Init must succeed before Search returns anything.
func New(a *Artifact) *Index {
	return &Index{art: a, opts: DefaultOptions()}
}

// Init decodes the postings. It is safe to call more than once.
func (ix *Index) Init() error {
	ix.once.Do(func() {
		ix.terms, ix.initErr = decodePostings(ix.art.Terms)
		if ix.initErr != nil {
			return
		}
		ix.titles, ix.initErr = decodePostings(ix.art.TitleTerms)
		if ix.initErr != nil {
			return
		}
		ix.sorted = make([]string, 0, len(ix.terms))
		for t := range ix.terms {
			ix.sorted = append(ix.sorted, t)
		}
		sort.Strings(ix.sorted)
	})
	return ix.initErr
}

func decodePostings(raw map[string][]byte) (map[string]*roaring.Bitmap, error) {
	out := make(map[string]*roaring.Bitmap, len(raw))
	for tok, b := range raw {
		bm := roaring.New()
		if err := bm.UnmarshalBinary(b); err != nil {
			return nil, fmt.Errorf("decoding postings for %q: %w", tok, err)
		}
		out[tok] = bm
	}
	return out, nil
}

// Options replaces the relevance tuning.
func (ix *Index) Options(o Options) {
	ix.mu.Lock()
	ix.opts = o
	ix.mu.Unlock()
}

// Len is the number of documents in the artifact.
func (ix *Index) Len() int { return len(ix.art.Docs) }

// Handle is one ranked hit. Detail is resolved lazily through Data.
type Handle struct {
	ix    *Index
	id    uint32
	terms []string
	Score float64
}

// Search returns every document containing all query terms, best first. The
// last term also matches as a prefix so partially typed words hit.
func (ix *Index) Search(query string) []Handle {
	if ix.terms == nil {
		return nil
	}
	qterms := queryTerms(query)
	if len(qterms) == 0 {
		return nil
	}

	var (
		candidates *roaring.Bitmap
		expanded   []string
		perTerm    = make([][]string, len(qterms))
	)
	for i, qt := range qterms {
		var matched []string
		if i == len(qterms)-1 {
			matched = ix.withPrefix(qt)
		} else if _, ok := ix.terms[qt]; ok {
			matched = []string{qt}
		}
		if len(matched) == 0 {
			return nil
		}
		perTerm[i] = matched
		expanded = append(expanded, matched...)

		bms := make([]*roaring.Bitmap, len(matched))
		for j, m := range matched {
			bms[j] = ix.terms[m]
		}
		var union *roaring.Bitmap
		if len(bms) == 1 {
			union = bms[0].Clone()
		} else {
			union = roaring.FastOr(bms...)
		}
		if candidates == nil {
			candidates = union
		} else {
			candidates.And(union)
		}
		if candidates.IsEmpty() {
			return nil
		}
	}

	ix.mu.RLock()
	opts := ix.opts
	ix.mu.RUnlock()

	hits := make([]Handle, 0, candidates.GetCardinality())
	it := candidates.Iterator()
	for it.HasNext() {
		id := it.Next()
		hits = append(hits, Handle{ix: ix, id: id, terms: expanded, Score: ix.score(id, perTerm, opts)})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].id < hits[j].id
	})
	return hits
}

func (ix *Index) withPrefix(p string) []string {
	i := sort.SearchStrings(ix.sorted, p)
	var out []string
	for ; i < len(ix.sorted) && strings.HasPrefix(ix.sorted[i], p); i++ {
		out = append(out, ix.sorted[i])
	}
	return out
}

func (ix *Index) score(id uint32, perTerm [][]string, opts Options) float64 {
	length := float64(ix.art.Docs[id].Length)
	if length < 1 {
		length = 1
	}
	s := float64(len(perTerm)) / math.Pow(length, opts.LengthWeight)
	for _, matched := range perTerm {
		for _, m := range matched {
			if bm, ok := ix.titles[m]; ok && bm.Contains(id) {
				s += opts.TitleBoost
				break
			}
		}
	}
	return s
}

// Detail is the displayable data behind a Handle.
type Detail struct {
	URLPath     string
	Title       string
	Description string
	Tags        string
	FileKind    string
	// Excerpt is HTML with matched terms wrapped in <mark>. PlainExcerpt is
	// the same window as text.
	Excerpt      string
	PlainExcerpt string
	ContentMatch bool
}

const (
	excerptBefore = 60
	excerptAfter  = 160
)

// Data resolves the hit's document and builds a highlighted excerpt.
func (h Handle) Data() Detail {
	d := h.ix.art.Docs[h.id]
	det := Detail{
		URLPath:     d.URLPath,
		Title:       d.Title,
		Description: d.Description,
		Tags:        d.Tags,
		FileKind:    d.FileKind,
	}

	re := termPattern(h.terms)
	if re != nil {
		if loc := re.FindStringIndex(d.Body); loc != nil {
			det.ContentMatch = true
			start, end := window(d.Body, loc[0])
			det.Excerpt = highlight(d.Body[start:end], re, start > 0, end < len(d.Body))
			det.PlainExcerpt = ellipsize(d.Body[start:end], start > 0, end < len(d.Body))
			return det
		}
	}

	fallback := d.Description
	if fallback == "" {
		_, end := window(d.Body, 0)
		fallback = d.Body[:end]
	}
	det.Excerpt = highlight(fallback, re, false, false)
	det.PlainExcerpt = fallback
	return det
}

func termPattern(terms []string) *regexp.Regexp {
	if len(terms) == 0 {
		return nil
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	// Longest first so a prefix never shadows a longer expansion.
	sort.Slice(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	return regexp.MustCompile(`(?i)(?:` + strings.Join(quoted, "|") + `)`)
}

func window(s string, at int) (start, end int) {
	start = at - excerptBefore
	if start < 0 {
		start = 0
	}
	if sp := strings.IndexByte(s[start:at], ' '); start > 0 && sp >= 0 {
		start += sp + 1
	}
	for start > 0 && !isRuneStart(s[start]) {
		start--
	}
	end = at + excerptAfter
	if end >= len(s) {
		return start, len(s)
	}
	if sp := strings.LastIndexByte(s[at:end], ' '); sp > 0 {
		end = at + sp
	}
	for end > start && end < len(s) && !isRuneStart(s[end]) {
		end--
	}
	return start, end
}

func ellipsize(s string, leading, trailing bool) string {
	if leading {
		s = "…" + s
	}
	if trailing {
		s += "…"
	}
	return s
}

func highlight(s string, re *regexp.Regexp, leading, trailing bool) string {
	var b strings.Builder
	if leading {
		b.WriteString("…")
	}
	last := 0
	if re != nil {
		for _, loc := range re.FindAllStringIndex(s, -1) {
			b.WriteString(html.EscapeString(s[last:loc[0]]))
			b.WriteString("<mark>")
			b.WriteString(html.EscapeString(s[loc[0]:loc[1]]))
			b.WriteString("</mark>")
			last = loc[1]
		}
	}
	b.WriteString(html.EscapeString(s[last:]))
	if trailing {
		b.WriteString("…")
	}
	return b.String()
}
