package navtree

import (
	"strings"
	"testing"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/docindex"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/ordering"
)

func rec(raw string, fm docindex.Frontmatter) docindex.Record {
	return docindex.Record{URLPath: docindex.URLPathFor(raw, ""), RawPath: raw, Frontmatter: fm}
}

func TestBuildTree(t *testing.T) {
	records := []docindex.Record{
		rec("index.md", docindex.Frontmatter{"title": "Docs"}),
		rec("guide/index.md", docindex.Frontmatter{"title": "The Guide", "order": 2}),
		rec("guide/setup.md", nil),
		rec("guide/advanced/tuning.md", nil),
		rec("reference/api.md", nil),
	}

	root := Build(records, "")

	if root.Path != "/" {
		t.Errorf("root path = %q, want /", root.Path)
	}
	if root.Title != "Docs" {
		t.Errorf("root title = %q, want Docs", root.Title)
	}
	if root.DescendantCount != len(records) {
		t.Errorf("root descendantCount = %d, want %d", root.DescendantCount, len(records))
	}
	if len(root.Files) != 1 {
		t.Errorf("root files = %d, want 1", len(root.Files))
	}

	guide := root.Children["guide"]
	if guide == nil {
		t.Fatal("guide folder missing")
	}
	if guide.Path != "/guide/" {
		t.Errorf("guide path = %q", guide.Path)
	}
	if guide.Title != "The Guide" {
		t.Errorf("guide title = %q, want promoted index title", guide.Title)
	}
	if guide.Frontmatter["order"] != 2 {
		t.Errorf("guide frontmatter not promoted: %v", guide.Frontmatter)
	}
	if len(guide.Files) != 2 {
		t.Errorf("guide files = %d, want index + setup", len(guide.Files))
	}
	if idx, ok := guide.Index(); !ok || idx.RawPath != "guide/index.md" {
		t.Errorf("guide index = %+v, %v", idx, ok)
	}
	if guide.DescendantCount != 3 {
		t.Errorf("guide descendantCount = %d, want 3", guide.DescendantCount)
	}

	adv := guide.Children["advanced"]
	if adv == nil || adv.Path != "/guide/advanced/" || adv.Title != "Advanced" {
		t.Fatalf("advanced folder = %+v", adv)
	}
	if _, ok := adv.Index(); ok {
		t.Error("advanced has no index document")
	}

	ref := root.Children["reference"]
	if ref == nil || ref.DescendantCount != 1 {
		t.Fatalf("reference folder = %+v", ref)
	}
}

func TestBuildTreeNestedIndexes(t *testing.T) {
	records := []docindex.Record{
		rec("index.md", nil),
		rec("a/index.md", nil),
		rec("a/b/index.md", nil),
	}
	root := Build(records, "index.md")
	if root.DescendantCount != 3 {
		t.Errorf("root descendantCount = %d, want 3", root.DescendantCount)
	}
	if got := root.Children["a"].DescendantCount; got != 2 {
		t.Errorf("a descendantCount = %d, want 2", got)
	}
	if got := root.Children["a"].Children["b"].DescendantCount; got != 1 {
		t.Errorf("b descendantCount = %d, want 1", got)
	}
}

func TestBuildTreeEmptyPathGoesToRoot(t *testing.T) {
	records := []docindex.Record{
		{URLPath: "/", RawPath: ""},
		{URLPath: "/x/", RawPath: "//"},
	}
	root := Build(records, "")
	if len(root.Files) != 2 || root.DescendantCount != 2 {
		t.Errorf("expected both records at root, got files=%d count=%d", len(root.Files), root.DescendantCount)
	}
}

func TestBuildTreeCustomIndexFile(t *testing.T) {
	records := []docindex.Record{
		rec("a/README.md", docindex.Frontmatter{"title": "Readme Title"}),
		rec("a/index.md", docindex.Frontmatter{"title": "Not the index"}),
	}
	root := Build(records, "README.md")
	if got := root.Children["a"].Title; got != "Readme Title" {
		t.Errorf("title = %q, want Readme Title", got)
	}
}

func TestBuildTreeIdempotent(t *testing.T) {
	records := []docindex.Record{
		rec("b/x.md", nil), rec("a/y.md", nil), rec("c/index.md", docindex.Frontmatter{"title": "C"}), rec("z.md", nil),
	}
	cfg := ordering.DefaultConfig()
	first := Build(records, "").ToHTML("/a/y/", cfg)
	for i := 0; i < 5; i++ {
		if got := Build(records, "").ToHTML("/a/y/", cfg); got != first {
			t.Fatalf("rebuild %d produced different output", i)
		}
	}
}

func TestSortedChildrenUsesFolderMetadata(t *testing.T) {
	records := []docindex.Record{
		rec("alpha/index.md", docindex.Frontmatter{"order": 3}),
		rec("beta/index.md", docindex.Frontmatter{"order": 1}),
		rec("gamma/page.md", nil),
	}
	root := Build(records, "")
	cfg := ordering.Config{
		{Field: "order", Direction: ordering.Asc, Compare: ordering.Numeric},
		{Field: ordering.FieldTitle},
	}
	var got []string
	for _, c := range root.SortedChildren(cfg) {
		got = append(got, c.Name)
	}
	if strings.Join(got, ",") != "beta,alpha,gamma" {
		t.Errorf("children order = %v, want beta,alpha,gamma", got)
	}
}

func TestFindAndBreadcrumbs(t *testing.T) {
	root := Build([]docindex.Record{
		rec("guide/index.md", docindex.Frontmatter{"title": "Guide"}),
		rec("guide/deep/page.md", nil),
	}, "")

	if n, ok := root.Find("/guide/deep/"); !ok || n.Name != "deep" {
		t.Errorf("Find deep = %v, %v", n, ok)
	}
	if _, ok := root.Find("/nope/"); ok {
		t.Error("Find should miss unknown folder")
	}
	if n, ok := root.Find("/"); !ok || n != root {
		t.Error("Find / should return root")
	}

	crumbs := root.Breadcrumbs("/guide/deep/page/")
	var titles []string
	for _, c := range crumbs {
		titles = append(titles, c.Title)
	}
	if strings.Join(titles, ">") != "Home>Guide>Deep" {
		t.Errorf("breadcrumbs = %v", titles)
	}
}

func TestTreeToHTML(t *testing.T) {
	root := Build([]docindex.Record{
		rec("index.md", nil),
		rec("guide/index.md", docindex.Frontmatter{"title": "Guide"}),
		rec("guide/setup.md", docindex.Frontmatter{"title": "Setup <fast>"}),
		rec("other/page.md", nil),
	}, "")

	html := root.ToHTML("/guide/setup/", ordering.DefaultConfig())

	if !strings.Contains(html, `<li class="dir expanded" data-count="2">`) {
		t.Error("active folder should be expanded")
	}
	if !strings.Contains(html, `<li class="dir " data-count="1">`) {
		t.Error("inactive folder should be collapsed")
	}
	if !strings.Contains(html, `<a href="/guide/setup/" class="active">Setup &lt;fast&gt;</a>`) {
		t.Errorf("active file link missing or unescaped:\n%s", html)
	}
	if !strings.Contains(html, `<a href="/guide/">Guide</a>`) {
		t.Error("folder with index should link to its page")
	}
	if strings.Count(html, `href="/guide/"`) != 1 {
		t.Error("index document should not also be listed as a plain file")
	}
}

func TestTreeToText(t *testing.T) {
	root := Build([]docindex.Record{
		rec("index.md", docindex.Frontmatter{"title": "Docs"}),
		rec("guide/index.md", docindex.Frontmatter{"title": "The Guide"}),
		rec("guide/setup.md", nil),
	}, "")

	text := root.ToText(ordering.DefaultConfig())
	for _, want := range []string{
		"Docs/ (3)\n",
		"  - Docs  /\n",
		"  The Guide/ (2)\n",
		"    - setup  /guide/setup/\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("ToText missing %q in:\n%s", want, text)
		}
	}
}
