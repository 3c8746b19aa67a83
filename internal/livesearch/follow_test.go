package livesearch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/docindex"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/render"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/search"
)

func TestFollowRebuildsOnRefresh(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.md"), []byte("---\ntitle: Home\n---\nWelcome aboard.\n"), 0o644))
	cfg := docindex.LoaderConfig{RootDir: root}

	x := docindex.NewIndex()
	require.NoError(t, docindex.Refresh(x, cfg))

	e := newEngine(t)
	var seen []uint64
	var lastErr error
	stop := e.Follow(x, root, nil, func(st docindex.State, docs []render.SearchDocument, err error) {
		seen = append(seen, st.Generation)
		lastErr = err
	})
	defer stop()

	require.Equal(t, []uint64{1}, seen, "current snapshot is indexed on subscribe")
	require.NoError(t, lastErr)
	ctx := context.Background()
	resp, err := e.Search(ctx, search.QueryContext{RawQuery: "welcome"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalMatches)

	require.NoError(t, os.WriteFile(filepath.Join(root, "deploy.md"), []byte("# Deploy\n\nShip the release.\n"), 0o644))
	require.NoError(t, docindex.Refresh(x, cfg))

	assert.Equal(t, []uint64{1, 2}, seen)
	resp, err = e.Search(ctx, search.QueryContext{RawQuery: "release"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalMatches)

	status, err := e.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), status.Generation)
}

func TestFollowKeepsIndexOnFailure(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.md"), []byte("# Home\n\nWelcome aboard.\n"), 0o644))

	x := docindex.NewIndex()
	require.NoError(t, docindex.Refresh(x, docindex.LoaderConfig{RootDir: root}))

	e := newEngine(t)
	var lastErr error
	stop := e.Follow(x, root, nil, func(_ docindex.State, _ []render.SearchDocument, err error) {
		lastErr = err
	})
	defer stop()

	boom := errors.New("disk gone")
	x.Fail(boom)
	assert.ErrorIs(t, lastErr, boom)

	resp, err := e.Search(context.Background(), search.QueryContext{RawQuery: "welcome"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalMatches)
}
