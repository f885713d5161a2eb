// Package server exposes the setlist controller as a local JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/franz/setlist/internal/setlist"
	"github.com/franz/setlist/internal/util"
)

// Server routes HTTP requests to one controller
type Server struct {
	ctrl   *setlist.Controller
	router chi.Router
}

// New builds the router
func New(ctrl *setlist.Controller) *Server {
	s := &Server{ctrl: ctrl}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(logRequests)

	r.Get("/health", s.getHealth)
	r.Get("/state", s.getState)

	r.Route("/view", func(r chi.Router) {
		r.Post("/locations", s.postView(ctrl.ChangeLocation))
		r.Post("/add", s.postView(ctrl.BeginAdd))
		r.Post("/edit/{id}", s.postViewEdit)
		r.Post("/cancel", s.postView(ctrl.Cancel))
		r.Post("/back", s.postView(ctrl.Back))
	})

	r.Route("/locations", func(r chi.Router) {
		r.Get("/", s.getLocations)
		r.Post("/", s.postLocation)
		r.Delete("/{id}", s.deleteLocation)
		r.Post("/{id}/select", s.postSelectLocation)
	})

	r.Route("/songs", func(r chi.Router) {
		r.Get("/", s.getSongs)
		r.Post("/", s.postSong)
		r.Get("/{id}", s.getSong)
		r.Put("/{id}", s.putSong)
		r.Delete("/{id}", s.deleteSong)
		r.Get("/{id}/audio", s.getSongAudio)
	})

	r.Get("/styles", s.getStyles)
	r.Delete("/styles/{name}", s.deleteStyle)

	r.Post("/suggest/order", s.postSuggestOrder)
	r.Post("/suggest/tip", s.postSuggestTip)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		util.DebugLog("server: encode response: %v", err)
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError maps sentinel errors to status codes
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, util.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, util.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, util.ErrUnsupported):
		code = http.StatusUnsupportedMediaType
	case errors.Is(err, util.ErrTooFewSongs):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, util.ErrNoLocation),
		errors.Is(err, util.ErrBusy),
		errors.Is(err, util.ErrStyleInUse),
		errors.Is(err, util.ErrInvalidTransition):
		code = http.StatusConflict
	}
	if code == http.StatusInternalServerError {
		util.ErrorLog("server: %v", err)
	}
	writeJSON(w, code, errorBody{Error: err.Error()})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 32<<20))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", util.ErrValidation, err)
	}
	return nil
}

// confirmation answers a confirmer from the confirm query parameter and
// remembers the question so a refusal can report it
type confirmation struct {
	confirmed bool
	message   string
}

func newConfirmation(r *http.Request) *confirmation {
	return &confirmation{confirmed: r.URL.Query().Get("confirm") == "true"}
}

func (c *confirmation) Confirm(message string) bool {
	c.message = message
	return c.confirmed
}

func (c *confirmation) refuse(w http.ResponseWriter) {
	writeJSON(w, http.StatusConflict, errorBody{
		Error:   "confirmation required: repeat the request with confirm=true",
		Message: c.message,
	})
}
