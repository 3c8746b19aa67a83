// Package livesearch is the server side of live mode search: it keeps an
// SQLite FTS5 index of the corpus and answers the search endpoint.
package livesearch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/db"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/render"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/search"
)

// Engine queries and rebuilds the full-text index.
type Engine struct {
	db *db.DB
	// rebuild serializes rebuilds; queries run concurrently against the
	// last committed index.
	rebuild sync.Mutex
}

// NewEngine wraps an opened database.
func NewEngine(d *db.DB) *Engine {
	return &Engine{db: d}
}

// Rebuild replaces the index contents with docs in one transaction.
func (e *Engine) Rebuild(ctx context.Context, docs []render.SearchDocument, generation uint64) error {
	e.rebuild.Lock()
	defer e.rebuild.Unlock()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO documents (url_path, title, description, tags, body, filetype)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range docs {
		kind := d.Kind
		if kind == "" {
			kind = render.KindMarkdown
		}
		if _, err := stmt.ExecContext(ctx, d.URLPath, d.Title, d.Description, d.Tags, d.Body, kind); err != nil {
			return fmt.Errorf("indexing %s: %w", d.URLPath, err)
		}
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO index_state (id, generation, documents, built_at)
		VALUES (1, ?, ?, datetime('now'))
		ON CONFLICT(id) DO UPDATE SET generation = excluded.generation,
			documents = excluded.documents, built_at = excluded.built_at`,
		int64(generation), len(docs))
	if err != nil {
		return fmt.Errorf("recording index state: %w", err)
	}
	return tx.Commit()
}

// Status describes the last committed rebuild.
type Status struct {
	Generation uint64
	Documents  int
}

// Status returns ErrIndexNotBuilt before the first rebuild commits.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	var (
		s   Status
		gen int64
	)
	err := e.db.QueryRowContext(ctx, `SELECT generation, documents FROM index_state WHERE id = 1`).Scan(&gen, &s.Documents)
	if errors.Is(err, sql.ErrNoRows) {
		return s, search.ErrIndexNotBuilt
	}
	if err != nil {
		return s, err
	}
	s.Generation = uint64(gen)
	return s, nil
}

var wordRe = regexp.MustCompile(`[\pL\pN_]+`)

// matchExpr turns free text into an FTS5 expression: every word must match,
// as a prefix, within the columns the scope allows.
func matchExpr(raw string, scope search.Scope) string {
	words := wordRe.FindAllString(raw, -1)
	if len(words) == 0 {
		return ""
	}
	var filter string
	switch scope {
	case search.ScopeMetadata:
		filter = "{title description tags} : "
	case search.ScopeContent:
		filter = "{body} : "
	}
	terms := make([]string, len(words))
	for i, w := range words {
		terms[i] = filter + `"` + w + `"*`
	}
	return strings.Join(terms, " AND ")
}

// Snippet delimiters; control characters never appear in indexed text, so
// escaping can happen after snippet() runs.
const (
	markOpen  = "\x02"
	markClose = "\x03"
)

// bm25 weights per column: url_path, title, description, tags, body, filetype.
const rankExpr = `bm25(documents, 0.0, 10.0, 4.0, 4.0, 1.0, 0.0)`

var _ search.Backend = (*Engine)(nil)

// Search runs q and returns normalized results. Scores are negated bm25, so
// higher is better.
func (e *Engine) Search(ctx context.Context, q search.QueryContext) (*search.Response, error) {
	start := time.Now()
	q = q.Normalized()
	if err := q.Validate(); err != nil {
		return nil, &search.QueryError{Mode: search.ModeLive, Status: http.StatusBadRequest, Err: err}
	}
	if _, err := e.Status(ctx); err != nil {
		return nil, err
	}

	expr := matchExpr(q.RawQuery, q.Scope)
	if expr == "" {
		return &search.Response{Duration: time.Since(start)}, nil
	}

	where := `documents MATCH ?`
	args := []any{expr}
	if q.FolderScope == search.FolderCurrent && q.Folder != "/" {
		where += ` AND url_path LIKE ? ESCAPE '\'`
		args = append(args, likePrefix(q.Folder))
	}
	if q.Filetype == search.FiletypeMarkdown {
		where += ` AND filetype = ?`
		args = append(args, render.KindMarkdown)
	}

	var total int
	if err := e.db.QueryRowContext(ctx, `SELECT count(*) FROM documents WHERE `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting matches: %w", err)
	}

	rows, err := e.db.QueryContext(ctx, `SELECT url_path, title, description, tags, filetype,
			snippet(documents, 4, '`+markOpen+`', '`+markClose+`', '…', 24),
			snippet(documents, -1, '`+markOpen+`', '`+markClose+`', '…', 24),
			-`+rankExpr+`
		FROM documents WHERE `+where+`
		ORDER BY `+rankExpr+`, url_path
		LIMIT ?`, append(args, q.Limit)...)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	results := make([]search.Result, 0, q.Limit)
	for rows.Next() {
		var (
			r                  search.Result
			kind               string
			bodySnip, bestSnip string
		)
		if err := rows.Scan(&r.URLPath, &r.Title, &r.Description, &r.Tags, &kind, &bodySnip, &bestSnip, &r.Score); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		r.FileKind = search.KindMarkdown
		if kind == render.KindOther {
			r.FileKind = search.KindOther
		}
		r.IsContentMatch = strings.Contains(bodySnip, markOpen)
		snip := bestSnip
		if r.IsContentMatch {
			snip = bodySnip
		}
		r.SnippetPlain = plainSnippet(snip)
		r.SnippetMarked = markSnippet(snip)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading results: %w", err)
	}
	return &search.Response{Results: results, TotalMatches: total, Duration: time.Since(start)}, nil
}

func likePrefix(folder string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(folder) + "%"
}

func plainSnippet(s string) string {
	return strings.NewReplacer(markOpen, "", markClose, "").Replace(s)
}

func markSnippet(s string) string {
	s = html.EscapeString(s)
	s = strings.ReplaceAll(s, markOpen, "<mark>")
	return strings.ReplaceAll(s, markClose, "</mark>")
}
