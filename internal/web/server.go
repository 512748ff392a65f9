package web

import (
	"context"
	"io/fs"
	"log"
	"net/http"
	"time"
)

// Server wraps the HTTP server and handlers.
type Server struct {
	addr     string
	handlers *Handlers
}

// NewServer creates a server configured for the given address and dependencies.
func NewServer(addr string, broadcaster *StatusBroadcaster, runPlan RunPlanFunc, formDefaults FormConfig, opts ...Option) *Server {
	subFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		log.Fatalf("web: failed to sub static fs: %v", err)
	}

	handlers := NewHandlers(broadcaster, runPlan, formDefaults, subFS, opts...)

	return &Server{
		addr:     addr,
		handlers: handlers,
	}
}

// Mux returns an http.Handler with all routes registered.
func (s *Server) Mux() http.Handler {
	h := s.handlers
	mux := http.NewServeMux()
	route := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, h.Metrics.Instrument(pattern, fn))
	}

	route("POST /plan/grid", h.HandlePlanGrid)
	route("POST /plan/path", h.HandlePlanPath)
	route("POST /plan/orbit", h.HandlePlanOrbit)
	route("POST /plan/stages", h.HandlePlanStages)
	route("POST /resume/token", h.HandleResumeToken)
	route("POST /resume/validate", h.HandleResumeValidate)
	route("POST /resume", h.HandleResume)
	route("POST /run", h.HandleRun)
	route("POST /missions", h.HandleSaveMission)
	route("GET /missions/{id}/versions", h.HandleMissionVersions)
	route("GET /editor", h.HandleEditorState)
	route("POST /editor/commands", h.HandleEditorCommand)
	route("POST /editor/undo", h.HandleEditorUndo)
	route("POST /editor/redo", h.HandleEditorRedo)
	route("POST /editor/save", h.HandleEditorSave)
	route("GET /config", h.HandleConfig)
	route("GET /status/stream", h.HandleStatusStream)
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics.Handler())
	}
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(h.staticFS))))
	mux.HandleFunc("GET /{$}", h.ServeIndex) // exact match for root only

	return mux
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	log.Printf("web server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, s.Mux())
}

// Run starts the server and blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Mux(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("web server listening on %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
