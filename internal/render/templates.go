package render

// pageTemplate is the html/template for every document page.
const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}{{if .SiteName}} | {{.SiteName}}{{end}}</title>
  {{if .Description}}<meta name="description" content="{{.Description}}">{{end}}
  <link rel="stylesheet" href="/_mbr/style.css">
  <script src="https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"></script>
</head>
<body{{if .Live}} data-live="true"{{end}}>
  <nav class="sidebar">
    <div class="sidebar-header">
      <h2 class="project-title"><a href="/">{{.SiteName}}</a></h2>
      {{if .Live}}
      <input type="search" id="search-input" placeholder="Search..." autocomplete="off">
      <select id="search-scope" aria-label="Search scope">
        <option value="all">All</option>
        <option value="metadata">Metadata</option>
        <option value="content">Content</option>
      </select>
      <div id="search-results" class="search-results"></div>
      {{end}}
    </div>
    <div class="sidebar-tree">{{.TreeHTML}}</div>
  </nav>
  <main class="content">
    {{if .Breadcrumbs}}<ol class="breadcrumbs">{{range .Breadcrumbs}}<li><a href="{{.URL}}">{{.Title}}</a></li>{{end}}</ol>{{end}}
    <article class="page-content">
      {{.Content}}
    </article>
    <footer class="pager">
      {{with .Prev}}<a class="prev" rel="prev" href="{{.URL}}">&larr; {{.Title}}</a>{{end}}
      {{with .Next}}<a class="next" rel="next" href="{{.URL}}">{{.Title}} &rarr;</a>{{end}}
    </footer>
  </main>
  <script src="/_mbr/script.js"></script>
</body>
</html>`

// CSS is served at /_mbr/style.css.
const CSS = `:root {
  --bg: #ffffff;
  --bg-sidebar: #f1f3f5;
  --text: #212529;
  --text-muted: #868e96;
  --border: #dee2e6;
  --accent: #228be6;
  --sidebar-width: 280px;
}
* { box-sizing: border-box; }
body { margin: 0; display: flex; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; color: var(--text); background: var(--bg); }
a { color: var(--accent); text-decoration: none; }
.sidebar { width: var(--sidebar-width); min-height: 100vh; background: var(--bg-sidebar); border-right: 1px solid var(--border); padding: 1rem; }
.sidebar ul { list-style: none; padding-left: 1rem; margin: 0; }
.sidebar li.dir > ul { display: none; }
.sidebar li.dir.expanded > ul { display: block; }
.sidebar li.dir > span::after { content: attr(data-count); }
.sidebar a.active { font-weight: 600; }
#search-input { width: 100%; padding: .4rem; }
.search-results .hit { display: block; padding: .3rem 0; border-bottom: 1px solid var(--border); }
.search-results mark { background: #fff3bf; }
.content { flex: 1; max-width: 900px; padding: 2rem 3rem; }
.breadcrumbs { list-style: none; display: flex; gap: .5rem; padding: 0; color: var(--text-muted); }
.breadcrumbs li + li::before { content: "/"; margin-right: .5rem; }
.pager { display: flex; justify-content: space-between; margin-top: 3rem; border-top: 1px solid var(--border); padding-top: 1rem; }
pre { overflow-x: auto; padding: 1rem; border: 1px solid var(--border); }
`

// JS is served at /_mbr/script.js. Live pages query the search endpoint as
// the reader types and reload when the index is refreshed.
const JS = `(function () {
  if (window.mermaid) mermaid.initialize({ startOnLoad: true });
  if (!document.body.dataset.live) return;
  var input = document.getElementById('search-input');
  var scope = document.getElementById('search-scope');
  var out = document.getElementById('search-results');
  var timer = null, generation = 0, controller = null;

  function run() {
    var q = input.value.trim();
    var gen = ++generation;
    if (controller) controller.abort();
    if (q.length < 2) { out.innerHTML = ''; return; }
    controller = new AbortController();
    var url = '/_mbr/api/search?limit=20&q=' + encodeURIComponent(q) + '&scope=' + scope.value;
    fetch(url, { signal: controller.signal }).then(function (r) { return r.json(); }).then(function (data) {
      if (gen !== generation) return;
      if (data.error) { out.textContent = data.error; return; }
      out.innerHTML = data.results.map(function (r) {
        var a = document.createElement('a');
        a.className = 'hit'; a.href = r.url_path; a.textContent = r.title || r.url_path;
        return a.outerHTML + '<div class="snippet">' + (r.snippet_marked || '') + '</div>';
      }).join('');
    }).catch(function () {});
  }

  input.addEventListener('input', function () { clearTimeout(timer); timer = setTimeout(run, 150); });
  scope.addEventListener('change', run);

  if (window.WebSocket) {
    var ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/_mbr/ws');
    ws.onmessage = function (ev) {
      try { if (JSON.parse(ev.data).type === 'index-refreshed') location.reload(); } catch (e) {}
    };
  }
})();
`
