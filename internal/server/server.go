package server

import (
	"bytes"
	"context"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/docindex"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/livesearch"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/render"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/sequence"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/site"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/staticindex"
)

// Config holds server configuration.
type Config struct {
	Host       string
	Port       int
	RootDir    string   // corpus served by the browser
	SiteName   string
	OtherFiles []string // globs of non-markdown files to make searchable
	AllowAll   bool     // allow all CORS origins (dev mode)
}

// Server is the live-mode markdown browser. It follows a docindex.Index:
// every published snapshot rebuilds navigation, the full-text index and the
// in-memory static artifact, then notifies websocket clients.
type Server struct {
	cfg        Config
	index      *docindex.Index
	nav        *sequence.Navigator
	engine     *livesearch.Engine
	renderer   *render.Renderer
	hub        *Hub
	unsub      func()
	router     chi.Router
	httpServer *http.Server

	artifact atomic.Pointer[[]byte]
}

// New wires a server to index. The navigator subscribes before the search
// rebuild so a refresh event is only sent once both are current.
func New(cfg Config, index *docindex.Index, engine *livesearch.Engine, renderer *render.Renderer) *Server {
	s := &Server{
		cfg:      cfg,
		index:    index,
		nav:      sequence.NewNavigator(index),
		engine:   engine,
		renderer: renderer,
		hub:      NewHub(),
	}
	s.unsub = engine.Follow(index, cfg.RootDir, cfg.OtherFiles, s.afterRebuild)
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// The websocket outlives any request timeout.
	r.Get(WSPath, s.hub.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		// Health check
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		r.Get(docindex.SitePath, s.handleSiteJSON)
		r.Get(site.StylePath, serveAsset("text/css; charset=utf-8", render.CSS))
		r.Get(site.ScriptPath, serveAsset("text/javascript; charset=utf-8", render.JS))
		r.Get(staticindex.ArtifactPath, s.handleArtifact)
		r.Get(NavPath, s.handleNav)
		r.Get(OutlinePath, s.handleOutline)
		livesearch.RegisterRoutes(r, s.engine)

		r.Get("/*", s.handlePage)
	})

	return r
}

// afterRebuild publishes the outcome of each search rebuild: the in-memory
// static artifact is refreshed and websocket clients are notified.
func (s *Server) afterRebuild(st docindex.State, docs []render.SearchDocument, err error) {
	if err == nil {
		err = s.buildArtifact(docs)
	}
	if err != nil {
		if !st.Ready() {
			s.artifact.Store(nil)
		}
		log.Printf("server: rebuilding search index (generation %d): %v", st.Generation, err)
		s.hub.Broadcast(Event{Type: EventIndexFailed, Generation: st.Generation, Error: err.Error()})
		return
	}

	log.Printf("server: indexed %d documents (generation %d)", len(docs), st.Generation)
	s.hub.Broadcast(Event{Type: EventIndexRefreshed, Generation: st.Generation, Documents: len(st.Snapshot.Files)})
}

func (s *Server) buildArtifact(docs []render.SearchDocument) error {
	art, err := staticindex.Build(site.ToStaticDocuments(docs))
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := art.Encode(&buf); err != nil {
		return err
	}
	data := buf.Bytes()
	s.artifact.Store(&data)
	return nil
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Navigator returns the navigation kept in sync with the index.
func (s *Server) Navigator() *sequence.Navigator { return s.nav }

// ServerConfig returns the server configuration.
func (s *Server) ServerConfig() Config { return s.cfg }

// Addr is the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Start begins listening on the configured address.
func (s *Server) Start() error {
	addr := s.Addr()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("mbr server listening on http://%s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops following the index, disconnects websocket clients and
// gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Close()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Close detaches the server from its index without touching the listener.
func (s *Server) Close() {
	s.unsub()
	s.nav.Close()
	s.hub.Close()
}
